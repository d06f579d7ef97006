// Package memory provides an in-memory PostStore for local development and tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/JakeFAU/share-preview/internal/preview"
	"github.com/JakeFAU/share-preview/internal/storage/record"
)

// PostStore keeps posts in maps keyed by id and slug.
type PostStore struct {
	mu     sync.RWMutex
	byID   map[string]preview.Post
	bySlug map[string]string
}

// NewPostStore constructs a PostStore seeded with posts.
func NewPostStore(posts ...preview.Post) *PostStore {
	s := &PostStore{
		byID:   make(map[string]preview.Post),
		bySlug: make(map[string]string),
	}
	for _, p := range posts {
		s.Put(p)
	}
	return s
}

// LoadFile builds a PostStore from a JSON array of post rows.
func LoadFile(path string) (*PostStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var rows []record.Post
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode seed file %s: %w", path, err)
	}
	s := NewPostStore()
	for _, row := range rows {
		if row.ID == "" {
			return nil, fmt.Errorf("seed file %s: post without id", path)
		}
		s.Put(row.Domain())
	}
	return s, nil
}

// Put inserts or replaces a post.
func (s *PostStore) Put(post preview.Post) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.byID[post.ID]; ok && prev.Slug != "" {
		delete(s.bySlug, prev.Slug)
	}
	s.byID[post.ID] = post
	if post.Slug != "" {
		s.bySlug[post.Slug] = post.ID
	}
}

// Len reports how many posts are stored, published or not.
func (s *PostStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// PublishedPostByID returns the published post with the given id.
func (s *PostStore) PublishedPostByID(_ context.Context, id string) (preview.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	post, ok := s.byID[id]
	if !ok || !post.Published {
		return preview.Post{}, preview.ErrNotFound
	}
	return post, nil
}

// PublishedPostBySlug returns the published post with the given slug.
func (s *PostStore) PublishedPostBySlug(ctx context.Context, slug string) (preview.Post, error) {
	s.mu.RLock()
	id, ok := s.bySlug[slug]
	s.mu.RUnlock()
	if !ok {
		return preview.Post{}, preview.ErrNotFound
	}
	return s.PublishedPostByID(ctx, id)
}
