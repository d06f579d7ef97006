package preview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/JakeFAU/share-preview/internal/id/uuid"
	"github.com/JakeFAU/share-preview/internal/telemetry"
)

const tracerName = "github.com/JakeFAU/share-preview/internal/preview"

// Resolver turns a request identifier into exactly one published post.
type Resolver struct {
	store  PostStore
	logger *zap.Logger
	tracer trace.Tracer
}

// NewResolver wires the store and logger.
func NewResolver(store PostStore, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		store:  store,
		logger: logger,
		tracer: otel.Tracer(tracerName),
	}
}

// CleanSlug trims whitespace and trailing hyphens from a slug.
func CleanSlug(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, "-")
	return strings.TrimSpace(s)
}

// Resolve looks the identifier up by id when it is UUID-shaped and by slug
// otherwise. Slug-shaped input never reaches the id column, which is
// UUID-typed in the backing store. Every failure is reported as ErrNotFound;
// backend errors are logged here and not surfaced further.
func (r *Resolver) Resolve(ctx context.Context, identifier string) (Post, error) {
	if r.store == nil {
		return Post{}, errors.New("resolver has no post store")
	}
	ctx, span := r.tracer.Start(ctx, "preview.Resolve")
	defer span.End()

	if uuid.IsCanonical(identifier) {
		span.SetAttributes(attribute.String("preview.lookup", telemetry.LookupByID))
		return r.lookup(ctx, telemetry.LookupByID, identifier, r.store.PublishedPostByID)
	}

	span.SetAttributes(attribute.String("preview.lookup", telemetry.LookupBySlug))
	slug := CleanSlug(identifier)
	if slug == "" {
		return Post{}, ErrNotFound
	}
	post, err := r.lookup(ctx, telemetry.LookupBySlug, slug, r.store.PublishedPostBySlug)
	if err == nil {
		return post, nil
	}

	// Unreachable: an id-shaped identifier took the branch above. Kept so the
	// slug path still falls back to id if the shape check ever changes.
	if fallsBackToID(identifier, err) {
		return r.lookup(ctx, telemetry.LookupByID, identifier, r.store.PublishedPostByID)
	}
	return Post{}, err
}

// fallsBackToID reports whether a failed slug lookup may be retried by id.
// Only a missing row qualifies; lookup wraps backend errors, so the bare
// sentinel means no row matched.
func fallsBackToID(identifier string, err error) bool {
	return err == ErrNotFound && uuid.IsCanonical(identifier) //nolint:errorlint // bare sentinel only
}

func (r *Resolver) lookup(
	ctx context.Context,
	method string,
	value string,
	find func(context.Context, string) (Post, error),
) (Post, error) {
	span := trace.SpanFromContext(ctx)
	start := time.Now()
	post, err := find(ctx, value)
	elapsed := time.Since(start)

	switch {
	case err == nil:
		telemetry.ObserveLookup(method, telemetry.LookupResultFound, elapsed)
		return post, nil
	case errors.Is(err, ErrNotFound):
		telemetry.ObserveLookup(method, telemetry.LookupResultMissing, elapsed)
		return Post{}, ErrNotFound
	default:
		telemetry.ObserveLookup(method, telemetry.LookupResultError, elapsed)
		span.RecordError(err)
		span.SetStatus(codes.Error, "post lookup failed")
		r.logger.Warn("post lookup failed",
			zap.String("method", method),
			zap.String("value", value),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return Post{}, fmt.Errorf("%w: lookup by %s: %w", ErrNotFound, method, err)
	}
}
