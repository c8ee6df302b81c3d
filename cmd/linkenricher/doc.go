// Package main hosts the link enrichment service entrypoint.
//
// Architecture overview:
//   - HTTP API: internal/api.Server exposes POST /v1/enrich plus health and metrics endpoints. A request body
//     holds the claims of one batch; the response is the BatchResult with one enriched link per original URL.
//   - Dispatcher & queue: every link becomes a task on a bounded in-memory queue sized by enricher.queue_depth and
//     is resolved by a fixed worker pool sized by enricher.workers. The batch context travels with each task, so
//     a batch timeout or client disconnect stops its links without touching other batches.
//   - Extraction chain: each worker waits on the per-host rate limiter, checks the link cache and then runs the
//     backend chain (boilerplate, news, readability, session, plain HTML). Social hosts listed under
//     social.domains get the headless renderer inserted after the first backend. The first backend whose text is
//     long enough and passes the content classifier wins.
//   - Persistence & fanout: link outcomes are optionally written to Postgres, debug dumps of whole batches go to
//     the configured BlobStore (memory/local/GCS) when debug.enabled is set, and a compact Pub/Sub notification
//     is published per batch when pubsub.topic_name is configured. None of these can fail a batch.
//   - Configuration & plumbing: Viper populates config from env/files; zap provides structured logging; Prometheus
//     metrics are exported via the metrics middleware and /metrics handler.
//
// Quick checklist:
//   - Configure env vars: ENRICHER_SERVER_PORT or PORT, ENRICHER_ENRICHER_WORKERS, ENRICHER_HTTP_PER_HOST_RPS,
//     ENRICHER_HEADLESS_ENABLED, storage (ENRICHER_STORAGE_*), pubsub, and ENRICHER_DB_DSN when link outcomes
//     should be persisted.
//   - Run locally: go run ./cmd/linkenricher -config config.yaml
//   - One-shot batch: go run ./cmd/linkenricher -input claims.json > result.json (use -input - for stdin).
package main
