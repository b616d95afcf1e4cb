// Copyright (c) BrowserPilot Authors.
// Licensed under the MIT License.

/*
Package main provides the BrowserPilot server entry point.

# Overview

cmd/browserpilot is the executable entry point of the BrowserPilot
control plane. It exposes the browser automation HTTP API, health
checks, Prometheus metrics and the live screenshot stream, with
subcommands for serving, health probing and version queries. The
program supports YAML configuration files, structured logging (zap)
and OpenTelemetry export.

# Core types

  - Server           — owns the HTTP and metrics listeners, the browser
    session, the intervention coordinator and graceful shutdown
  - Middleware       — HTTP middleware signature func(http.Handler) http.Handler
  - metricsResponseWriter — wraps http.ResponseWriter to capture status and size

# Capabilities

  - Subcommands: serve (start the service), version, health
  - Middleware chain: Recovery, RequestID, SecurityHeaders, RequestLogger,
    MetricsMiddleware, CORS, OTelTracing, RateLimiter (per IP),
    APIKeyAuth (X-API-Key / query parameter), JWTAuth (operator endpoints)
  - Intervention store selection: memory, redis or database (GORM)
  - Metrics server: /metrics (Prometheus) on a dedicated port
  - Graceful shutdown: signal → stop HTTP → stop metrics → close browser → close stores
  - Build injection: Version, BuildTime, GitCommit set via ldflags
*/
package main
