// Package record defines the JSON shape of a content post row shared by the
// hosted backend and the seed-file store.
package record

import (
	"encoding/json"

	"github.com/JakeFAU/share-preview/internal/preview"
)

// Columns is the select list requested from the posts table.
const Columns = "id,slug,title,excerpt,image,category,author,tags,created_at,updated_at,post_type,published"

// Post mirrors a posts row. Nullable text columns decode to "".
type Post struct {
	ID        string          `json:"id"`
	Slug      string          `json:"slug"`
	Title     string          `json:"title"`
	Excerpt   string          `json:"excerpt"`
	Image     string          `json:"image"`
	Category  string          `json:"category"`
	Author    string          `json:"author"`
	Tags      json.RawMessage `json:"tags"`
	CreatedAt string          `json:"created_at"`
	UpdatedAt string          `json:"updated_at"`
	PostType  string          `json:"post_type"`
	Published bool            `json:"published"`
}

// Domain converts the row into a preview.Post, normalizing tags.
func (r Post) Domain() preview.Post {
	return preview.Post{
		ID:        r.ID,
		Slug:      r.Slug,
		Title:     r.Title,
		Excerpt:   r.Excerpt,
		Image:     r.Image,
		Category:  r.Category,
		Author:    r.Author,
		Tags:      decodeTags(r.Tags),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		PostType:  preview.ParsePostType(r.PostType),
		Published: r.Published,
	}
}

func decodeTags(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return []string{}
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return preview.NormalizeTags(string(raw))
	}
	return preview.NormalizeTags(v)
}
