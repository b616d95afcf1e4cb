// Copyright (c) BrowserPilot Authors.
// Licensed under the MIT License.

/*
Package dom captures and resolves the interactive structure of a page.

A Snapshot is a point-in-time index of the page's interactive elements,
built by injected JavaScript that walks the document (and same-origin
iframes) in document order. Each element gets an opaque numeric index that
agents use to refer to it. Indices are only meaningful against the snapshot
they came from; nothing here is cached between actions.

A Resolver turns an index back into something actionable. The ladder is
fixed: id attribute selector, then name attribute selector, then the
bounding-box center in page coordinates. References that do not parse as
integers are raw CSS selectors; integer indices missing from the snapshot
fail hard rather than being reinterpreted.
*/
package dom
