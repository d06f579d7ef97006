package preview

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound signals that no published post matched the lookup.
var ErrNotFound = errors.New("post not found")

// PostType is the section a post belongs to.
type PostType string

// Post types stored in posts.post_type.
const (
	PostTypeArticle PostType = "article"
	PostTypeNews    PostType = "news"
)

// ParsePostType maps a stored or requested type onto a PostType. Anything
// other than "news" is an article.
func ParsePostType(s string) PostType {
	if strings.EqualFold(strings.TrimSpace(s), string(PostTypeNews)) {
		return PostTypeNews
	}
	return PostTypeArticle
}

// Post is the read-only view of a content post needed to build a preview.
type Post struct {
	ID       string
	Slug     string
	Title    string
	Excerpt  string
	Image    string
	Category string
	Author   string
	Tags     []string
	// CreatedAt and UpdatedAt hold the timestamps as the store returned them.
	CreatedAt string
	UpdatedAt string
	PostType  PostType
	Published bool
}

// Key returns the path segment used to address the post publicly.
func (p Post) Key() string {
	if p.Slug != "" {
		return p.Slug
	}
	return p.ID
}

// PostStore looks up a single published post. Implementations filter on
// published = true and return ErrNotFound when no row matches.
type PostStore interface {
	PublishedPostByID(ctx context.Context, id string) (Post, error)
	PublishedPostBySlug(ctx context.Context, slug string) (Post, error)
}
