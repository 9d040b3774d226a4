/*
Package monitoring provides Prometheus metrics for the file server.

# Overview

Each Metrics value owns a private prometheus.Registry, so tests can build
as many as they like without duplicate-registration panics.

# Metrics

- HTTP requests (count, latency, sizes) labelled by route template
- Rate-limited requests
- File operations by tool and outcome, with latency
- Security audit events by operation and outcome
- WebSocket connections and messages
- Uptime, Go runtime and process collectors

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{})))

	provider := filesystem.NewProvider(svc, filesystem.WithObserver(metrics))
	recorder := audit.Multi(sink, metrics.Recorder())
*/
package monitoring
