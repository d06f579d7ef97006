// Package api hosts the HTTP server, middleware, and handlers. Notable routes:
//   - GET /api/share-preview?type=&slug= renders Open Graph and Twitter Card
//     documents for crawlers and redirects everyone else.
//   - GET /healthz / readyz for Kubernetes probes.
//   - GET /metrics for Prometheus scraping.
package api
