// Copyright (c) BrowserPilot Authors.
// Licensed under the MIT License.

/*
Package tools turns the automation REST surface into named, typed
callables for an autonomous agent.

A Registry holds tools with per-tool timeouts and rate limits; an
Executor runs calls (concurrently for batches) and never raises:
failures, timeouts and rate limits all travel inside the Result. The
browser toolset maps one tool per REST operation and validates
arguments against the tool schema before any network call, so argument
mistakes are reported as tool validation failures rather than page
interaction failures.
*/
package tools
