// Copyright (c) BrowserPilot Authors.
// Licensed under the MIT License.

/*
Package types provides the shared type contracts of the service.

types is the lowest-level public package and depends on no other internal
package. It defines the unified error taxonomy (ErrorCode, Error), the
uniform operation envelope (ActionResult) returned by every automation
endpoint, and the context helpers used to propagate request identity.

Every automation operation reports failure in-band through ActionResult
rather than by raising: handlers and tools can rely on a result object
always being present, with Success=false and a stable Code when the
operation could not be carried out.
*/
package types
