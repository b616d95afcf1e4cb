// Copyright (c) BrowserPilot Authors.
// Licensed under the MIT License.

// Package handlers implements the REST endpoints of the automation
// service. Handlers are deliberately thin: decode the body, call the
// service, write the envelope. Typed errors surface here as envelope
// failures with a mapped HTTP status; handlers never branch on page
// semantics themselves.
package handlers
