// Package server exposes the metrics of a running orchestrator over HTTP.
//
// Routes:
//
//	GET /metrics  Prometheus exposition of the dispatcher registry
//	GET /healthz  JSON liveness probe
package server
