// Copyright (c) BrowserPilot Authors.
// Licensed under the MIT License.

/*
Package automation is the service layer between the REST surface and the
browser session.

Each HTTP operation maps to one Service method. Methods take whatever
the handler parsed and return *types.ActionResult; they never return a
Go error, so a handler only ever serializes the envelope. Element
references are resolved against a snapshot built fresh inside the
method, and successful page-changing operations capture the updated
state (element listing plus screenshot, concurrently) into the result.
*/
package automation
