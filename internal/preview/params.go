package preview

import (
	"net/url"
	"strings"
)

// MissingSlug is the value Params.Slug takes when no identifier was sent.
const MissingSlug = "undefined"

// Language selects the public site locale.
type Language string

// Supported site languages.
const (
	LanguageES Language = "es"
	LanguageEN Language = "en"
)

// LanguageFromPath returns English when the path carries an /en/ segment and
// Spanish otherwise.
func LanguageFromPath(path string) Language {
	if strings.Contains(path, "/en/") {
		return LanguageEN
	}
	return LanguageES
}

// Params are the normalized share-preview query parameters.
type Params struct {
	Type PostType
	Slug string
}

// HasSlug reports whether an identifier was supplied.
func (p Params) HasSlug() bool {
	return p.Slug != "" && p.Slug != MissingSlug
}

// FirstValue returns the first non-blank entry of values, or def.
func FirstValue(values []string, def string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return def
}

// NormalizeParams extracts type and slug from a possibly multi-valued query.
func NormalizeParams(q url.Values) Params {
	return Params{
		Type: ParsePostType(FirstValue(q["type"], string(PostTypeArticle))),
		Slug: FirstValue(q["slug"], MissingSlug),
	}
}
