// Copyright (c) BrowserPilot Authors.
// Licensed under the MIT License.

/*
Package intervention hands browser control from the agent to a person.

Some pages cannot be automated: captchas, login walls, two-factor
prompts, anti-bot interstitials. When an agent hits one it opens an
intervention Request and blocks (or polls) until a person completes or
cancels it, or until the request's timeout lapses. Transitions are
one-way: once a request is completed, cancelled, timed out, or failed it
never changes again, and repeated complete/cancel calls are no-ops.

Expiry is observed lazily on status checks rather than by background
timers, so an idle coordinator does nothing.

Requests persist through the Store interface. InMemoryStore serves a
single process; GormStore (SQLite or PostgreSQL) and RedisStore serve
deployments that need to survive restarts or span instances.

A Detector probes the current page with read-only JavaScript to spot
conditions that call for an intervention. Detection only reports; it
never creates a request on its own.
*/
package intervention
