// Copyright (c) BrowserPilot Authors.
// Licensed under the MIT License.

/*
Package action executes resolved targets against a page.

The Dispatcher implements the interaction contract of the service: click,
text input, key dispatch, and drag-and-drop. Its methods never return a Go
error; every outcome, including failures, is reported through an Outcome
value so callers can hand agents a structured result instead of a raised
exception.

Selector-path failures on targets that were resolved from a snapshot index
fall back to the element's page coordinates exactly once. Drags interpolate
a straight-line path between source and target and release the mouse on
abort so the button is never left held down.
*/
package action
