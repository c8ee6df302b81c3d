// Package api hosts the HTTP server, middleware, and REST handlers for the
// enrichment service. Notable routes:
//   - POST /v1/enrich resolves a batch of claims and returns the BatchResult.
//   - GET /healthz and /readyz for Kubernetes probes.
//   - GET /metrics for Prometheus scraping.
package api
