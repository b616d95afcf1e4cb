// Copyright (c) BrowserPilot Authors.
// Licensed under the MIT License.

/*
Package server manages the HTTP/HTTPS listener lifecycle: non-blocking
start, graceful shutdown and signal handling.

Manager wraps net/http.Server with a bounded error channel so serve
failures surface to the caller instead of being lost in a goroutine.
WaitForShutdown blocks on SIGINT/SIGTERM or a serve error and drains
in-flight requests within the configured shutdown timeout.
*/
package server
