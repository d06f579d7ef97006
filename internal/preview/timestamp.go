package preview

import (
	"strings"
	"time"
)

// isoLayout matches the millisecond UTC form crawlers commonly expect.
const isoLayout = "2006-01-02T15:04:05.000Z"

// timestampLayouts covers RFC 3339 plus the text forms Postgres emits.
// Fractional seconds are accepted by time.Parse without being in the layout.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05-07",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// FormatTimestamp renders a stored timestamp as ISO-8601 in UTC. Values that
// do not parse are returned unchanged.
func FormatTimestamp(raw string) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return raw
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC().Format(isoLayout)
		}
	}
	return raw
}
