package preview

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFirstValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		values []string
		def    string
		want   string
	}{
		{name: "nil", values: nil, def: "article", want: "article"},
		{name: "single", values: []string{"news"}, def: "article", want: "news"},
		{name: "list takes first", values: []string{"a", "b"}, def: "x", want: "a"},
		{name: "skips blank", values: []string{"", "  ", "b"}, def: "x", want: "b"},
		{name: "all blank", values: []string{"", " "}, def: "x", want: "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, FirstValue(tt.values, tt.def))
		})
	}
}

func TestNormalizeParams(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		query    string
		wantType PostType
		wantSlug string
		hasSlug  bool
	}{
		{name: "defaults", query: "", wantType: PostTypeArticle, wantSlug: MissingSlug},
		{name: "news", query: "type=news&slug=launch", wantType: PostTypeNews, wantSlug: "launch", hasSlug: true},
		{name: "news uppercase", query: "type=NEWS&slug=launch", wantType: PostTypeNews, wantSlug: "launch", hasSlug: true},
		{name: "unknown type", query: "type=video&slug=x", wantType: PostTypeArticle, wantSlug: "x", hasSlug: true},
		{name: "empty slug", query: "slug=", wantType: PostTypeArticle, wantSlug: MissingSlug},
		{name: "multi valued", query: "type=news&type=article&slug=first&slug=second", wantType: PostTypeNews, wantSlug: "first", hasSlug: true},
		{name: "literal undefined", query: "slug=undefined", wantType: PostTypeArticle, wantSlug: MissingSlug},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			q, err := url.ParseQuery(tt.query)
			require.NoError(t, err)
			p := NormalizeParams(q)
			require.Equal(t, tt.wantType, p.Type)
			require.Equal(t, tt.wantSlug, p.Slug)
			require.Equal(t, tt.hasSlug, p.HasSlug())
		})
	}
}

func TestLanguageFromPath(t *testing.T) {
	t.Parallel()

	require.Equal(t, LanguageEN, LanguageFromPath("/en/blog/my-article"))
	require.Equal(t, LanguageES, LanguageFromPath("/blog/my-article"))
	require.Equal(t, LanguageES, LanguageFromPath("/es/noticias/lanzamiento"))
	require.Equal(t, LanguageES, LanguageFromPath("/english/blog"))
}
