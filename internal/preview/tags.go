package preview

import (
	"encoding/json"
	"fmt"
	"strings"
)

// NormalizeTags accepts tags as stored: a list, a JSON-encoded array, a
// comma-separated string or nothing. It always returns a non-nil slice.
func NormalizeTags(v any) []string {
	switch t := v.(type) {
	case nil:
		return []string{}
	case []string:
		return cleanTags(t)
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if item == nil {
				continue
			}
			out = append(out, fmt.Sprint(item))
		}
		return cleanTags(out)
	case string:
		return parseTagString(t)
	case []byte:
		return parseTagString(string(t))
	case json.RawMessage:
		return parseTagString(string(t))
	default:
		return parseTagString(fmt.Sprint(t))
	}
}

func parseTagString(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		return []string{}
	}
	if strings.HasPrefix(s, "[") {
		var decoded []any
		if err := json.Unmarshal([]byte(s), &decoded); err == nil {
			return NormalizeTags(decoded)
		}
		s = strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
	}
	// Postgres text[] literal, e.g. {seo,"web design"}.
	if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
		s = s[1 : len(s)-1]
	}
	// A JSON-encoded string holding the real value.
	if strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) && len(s) > 1 {
		var inner string
		if err := json.Unmarshal([]byte(s), &inner); err == nil && strings.HasPrefix(strings.TrimSpace(inner), "[") {
			return parseTagString(inner)
		}
	}
	return cleanTags(strings.Split(s, ","))
}

func cleanTags(in []string) []string {
	out := make([]string, 0, len(in))
	for _, tag := range in {
		tag = strings.TrimSpace(tag)
		tag = strings.Trim(tag, `"'`)
		tag = strings.TrimSpace(tag)
		if tag != "" {
			out = append(out, tag)
		}
	}
	return out
}
