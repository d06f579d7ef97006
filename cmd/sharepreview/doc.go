// Package main hosts the share-preview service entrypoint.
//
// Architecture overview:
//   - HTTP API: internal/api.Server exposes GET /api/share-preview plus health, readiness and metrics routes.
//     Requests from link-preview and search crawlers receive an Open Graph / Twitter Card document; every other
//     client is redirected (302) to the URI it originally asked for.
//   - Resolution: internal/preview resolves the slug query parameter to one published post, by id when the value is
//     UUID-shaped and by cleaned slug otherwise. Every lookup is counted in Prometheus and wrapped in a trace span.
//   - Persistence: the post store is read-only and chosen by backend.provider: the hosted PostgREST backend
//     (supabase), a direct Postgres pool (postgres), or a JSON seed file held in memory (memory). A Redis read-through
//     cache can front any of them when cache.redis_addr is set.
//   - Configuration & plumbing: Viper populates config from env/files; zap provides structured logging; Prometheus
//     metrics are exported via the telemetry middleware and /metrics handler.
//
// Quick checklist:
//   - Configure env vars: SHAREPREVIEW_SERVER_PORT or PORT, SHAREPREVIEW_SITE_BASE_URL, SUPABASE_URL and
//     SUPABASE_ANON_KEY (or SHAREPREVIEW_BACKEND_URL/KEY), SHAREPREVIEW_DB_DSN for the postgres provider.
//   - Run locally: go run ./cmd/sharepreview -config config.yaml, or SHAREPREVIEW_BACKEND_PROVIDER=memory with
//     SHAREPREVIEW_BACKEND_SEED_FILE=posts.json.
//   - The process reacts to SIGINT/SIGTERM by draining in-flight requests before exiting.
package main
