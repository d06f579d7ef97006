package api

import (
	"bytes"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/share-preview/internal/config"
	"github.com/JakeFAU/share-preview/internal/hash/sha256"
	"github.com/JakeFAU/share-preview/internal/preview"
	"github.com/JakeFAU/share-preview/internal/telemetry"
)

// Cache-Control values per response class.
const (
	cacheControlPreview  = "public, s-maxage=300, stale-while-revalidate=3600"
	cacheControlNotFound = "public, s-maxage=60"
	cacheControlRedirect = "no-cache"
	cacheControlNoStore  = "no-store"
)

const htmlContentType = "text/html; charset=utf-8"

// Headers an upstream rewrite uses to carry the URI the visitor asked for.
var originalURIHeaders = []string{"X-Forwarded-Uri", "X-Original-Url"}

// PreviewHandler serves GET /api/share-preview.
type PreviewHandler struct {
	store      preview.PostStore
	classifier *preview.Classifier
	resolver   *preview.Resolver
	builder    *preview.Builder
	logger     *zap.Logger
}

// NewPreviewHandler wires the store, site identity and crawler classifier.
func NewPreviewHandler(
	store preview.PostStore,
	site preview.Site,
	classifier *preview.Classifier,
	logger *zap.Logger,
) *PreviewHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if classifier == nil {
		classifier = preview.NewClassifier()
	}
	return &PreviewHandler{
		store:      store,
		classifier: classifier,
		resolver:   preview.NewResolver(store, logger.Named("resolver")),
		builder:    preview.NewBuilder(site),
		logger:     logger,
	}
}

// ServeHTTP redirects humans back to the page they asked for and answers
// crawlers with a metadata document: 200 for a published post, 400 without an
// identifier, 404 when nothing resolves and 500 on any other failure.
func (h *PreviewHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	target := originalURI(r)

	if !h.classifier.IsCrawler(r.UserAgent()) {
		w.Header().Set("Cache-Control", cacheControlRedirect)
		http.Redirect(w, r, target, http.StatusFound)
		telemetry.ObservePreview(telemetry.OutcomeRedirected)
		return
	}

	lang := preview.LanguageFromPath(target)
	params := preview.NormalizeParams(r.URL.Query())
	if !params.HasSlug() {
		page := preview.MissingSlugPage
		page.Lang = lang
		writeStatusPage(w, http.StatusBadRequest, page, h.logger)
		telemetry.ObservePreview(telemetry.OutcomeMissingSlug)
		return
	}

	if h.store == nil {
		err := &config.ConfigurationError{Field: "backend", Reason: "post store is not configured"}
		h.fail(w, r, lang, err)
		return
	}

	post, err := h.resolver.Resolve(r.Context(), params.Slug)
	if err != nil {
		if !errors.Is(err, preview.ErrNotFound) {
			h.fail(w, r, lang, err)
			return
		}
		doc := h.builder.NotFound(params.Type, params.Slug, lang)
		if h.writeDocument(w, r, http.StatusNotFound, cacheControlNotFound, doc) {
			telemetry.ObservePreview(telemetry.OutcomeNotFound)
		}
		return
	}

	doc := h.builder.Article(post, lang)
	if h.writeDocument(w, r, http.StatusOK, cacheControlPreview, doc) {
		telemetry.ObservePreview(telemetry.OutcomeRendered)
	}
}

// writeDocument renders into a buffer first so a template failure can still
// become a clean 500. It reports whether doc was written.
func (h *PreviewHandler) writeDocument(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	cacheControl string,
	doc preview.Document,
) bool {
	var buf bytes.Buffer
	if err := preview.Render(&buf, doc); err != nil {
		h.fail(w, r, doc.Lang, err)
		return false
	}
	body := buf.Bytes()
	etag := sha256.ETag(body)
	w.Header().Set("ETag", etag)
	if status == http.StatusOK && etagMatches(r.Header.Get("If-None-Match"), etag) {
		hdr := w.Header()
		hdr.Set("Cache-Control", cacheControl)
		hdr.Set("X-Robots-Tag", "noindex")
		w.WriteHeader(http.StatusNotModified)
		return true
	}
	writeHTML(w, status, cacheControl, body, h.logger)
	return true
}

// etagMatches applies the weak comparison If-None-Match calls for.
func etagMatches(header, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}

func (h *PreviewHandler) fail(w http.ResponseWriter, r *http.Request, lang preview.Language, err error) {
	h.logger.Error("share preview failed",
		zap.String("request_id", requestIDFromContext(r.Context())),
		zap.String("slug", r.URL.Query().Get("slug")),
		zap.Error(err),
	)
	telemetry.ObservePreview(telemetry.OutcomeFailed)
	writeServerError(w, lang, h.logger)
}

// originalURI prefers the rewrite headers and falls back to the request URI.
// Header values that are not local paths are ignored.
func originalURI(r *http.Request) string {
	for _, name := range originalURIHeaders {
		v := strings.TrimSpace(r.Header.Get(name))
		if isLocalPath(v) {
			return v
		}
	}
	return r.URL.RequestURI()
}

// isLocalPath reports whether v stays on this site once a browser treats
// backslashes as slashes.
func isLocalPath(v string) bool {
	norm := strings.ReplaceAll(v, "\\", "/")
	if !strings.HasPrefix(norm, "/") || strings.HasPrefix(norm, "//") {
		return false
	}
	u, err := url.Parse(norm)
	return err == nil && u.Scheme == "" && u.Host == ""
}

func writeServerError(w http.ResponseWriter, lang preview.Language, logger *zap.Logger) {
	page := preview.ServerErrorPage
	page.Lang = lang
	writeStatusPage(w, http.StatusInternalServerError, page, logger)
}

func writeStatusPage(w http.ResponseWriter, status int, page preview.StatusPage, logger *zap.Logger) {
	var buf bytes.Buffer
	if err := preview.RenderStatus(&buf, page); err != nil {
		logger.Error("render status page failed", zap.Error(err))
		w.Header().Set("Cache-Control", cacheControlNoStore)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	writeHTML(w, status, cacheControlNoStore, buf.Bytes(), logger)
}

func writeHTML(w http.ResponseWriter, status int, cacheControl string, body []byte, logger *zap.Logger) {
	h := w.Header()
	h.Set("Content-Type", htmlContentType)
	h.Set("Cache-Control", cacheControl)
	h.Set("X-Robots-Tag", "noindex")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		logger.Warn("write response failed", zap.Error(err))
	}
}
