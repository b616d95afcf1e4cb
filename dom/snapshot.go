package dom

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// IncludeAttributes is the attribute allowlist captured for every
// interactive element and surfaced to agents.
var IncludeAttributes = []string{
	"id", "href", "src", "alt", "aria-label", "placeholder",
	"name", "role", "title", "value",
}

// Rect is an element bounding box in page coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the center point of the box.
func (r Rect) Center() (float64, float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Descriptor describes one interactive element captured by a snapshot.
// PageCoordinates is nil for elements that were present in the DOM but not
// visible at capture time.
type Descriptor struct {
	Index           int               `json:"index"`
	TagName         string            `json:"tag_name"`
	Text            string            `json:"text,omitempty"`
	Attributes      map[string]string `json:"attributes"`
	PageCoordinates *Rect             `json:"page_coordinates,omitempty"`
}

// SelectorMap maps snapshot indices to element descriptors. Indices are
// unique within a single snapshot and carry no meaning across snapshots.
type SelectorMap map[int]*Descriptor

// Snapshot is one point-in-time capture of the page's interactive elements
// together with scroll and viewport metadata. Snapshots are never cached:
// every action-resolving operation builds a fresh one.
type Snapshot struct {
	URL            string      `json:"url"`
	Title          string      `json:"title"`
	Elements       SelectorMap `json:"elements"`
	PixelsAbove    int         `json:"pixels_above"`
	PixelsBelow    int         `json:"pixels_below"`
	ViewportWidth  int         `json:"viewport_width"`
	ViewportHeight int         `json:"viewport_height"`
}

// Evaluator evaluates a JavaScript expression in the current page and
// unmarshals its JSON result into out.
type Evaluator interface {
	Evaluate(ctx context.Context, expression string, out any) error
}

// snapshotJS walks the document (descending into same-origin iframes, with
// frame offsets folded into page coordinates) and collects every
// interactive element in document order.
const snapshotJS = `(() => {
	const ATTRS = ["id","href","src","alt","aria-label","placeholder","name","role","title","value"];
	const SELECTOR = 'a, button, input, select, textarea, summary, ' +
		'[role="button"], [role="link"], [role="checkbox"], [role="tab"], ' +
		'[role="menuitem"], [role="combobox"], [onclick], [contenteditable="true"]';
	const out = [];
	let index = 0;
	const collect = (doc, win, offsetX, offsetY) => {
		for (const el of doc.querySelectorAll(SELECTOR)) {
			const rect = el.getBoundingClientRect();
			const style = win.getComputedStyle(el);
			const visible = rect.width > 0 && rect.height > 0 &&
				style.visibility !== "hidden" && style.display !== "none";
			const attrs = {};
			for (const a of ATTRS) {
				const v = el.getAttribute(a);
				if (v !== null && v !== "") attrs[a] = v;
			}
			if (el.value !== undefined && el.value !== "" && !("value" in attrs)) {
				attrs["value"] = String(el.value);
			}
			out.push({
				index: index++,
				tag: el.tagName.toLowerCase(),
				text: (el.innerText || "").trim().slice(0, 100),
				attrs: attrs,
				rect: visible ? {
					x: rect.x + offsetX + win.scrollX,
					y: rect.y + offsetY + win.scrollY,
					width: rect.width,
					height: rect.height
				} : null
			});
		}
		for (const frame of doc.querySelectorAll("iframe")) {
			try {
				const fdoc = frame.contentDocument;
				const fwin = frame.contentWindow;
				if (!fdoc || !fwin) continue;
				const fr = frame.getBoundingClientRect();
				collect(fdoc, fwin, offsetX + fr.x + win.scrollX, offsetY + fr.y + win.scrollY);
			} catch (e) {
				// cross-origin frame, skip
			}
		}
	};
	collect(document, window, 0, 0);
	const doc = document.documentElement;
	return {
		url: location.href,
		title: document.title,
		pixels_above: Math.round(window.scrollY),
		pixels_below: Math.max(0, Math.round(doc.scrollHeight - window.innerHeight - window.scrollY)),
		viewport_width: window.innerWidth,
		viewport_height: window.innerHeight,
		elements: out
	};
})()`

type snapshotWire struct {
	URL            string        `json:"url"`
	Title          string        `json:"title"`
	PixelsAbove    int           `json:"pixels_above"`
	PixelsBelow    int           `json:"pixels_below"`
	ViewportWidth  int           `json:"viewport_width"`
	ViewportHeight int           `json:"viewport_height"`
	Elements       []elementWire `json:"elements"`
}

type elementWire struct {
	Index int               `json:"index"`
	Tag   string            `json:"tag"`
	Text  string            `json:"text"`
	Attrs map[string]string `json:"attrs"`
	Rect  *Rect             `json:"rect"`
}

// Build captures a fresh snapshot of the current page.
func Build(ctx context.Context, ev Evaluator) (*Snapshot, error) {
	var wire snapshotWire
	if err := ev.Evaluate(ctx, snapshotJS, &wire); err != nil {
		return nil, fmt.Errorf("snapshot evaluation failed: %w", err)
	}

	elements := make(SelectorMap, len(wire.Elements))
	for _, e := range wire.Elements {
		elements[e.Index] = &Descriptor{
			Index:           e.Index,
			TagName:         e.Tag,
			Text:            e.Text,
			Attributes:      e.Attrs,
			PageCoordinates: e.Rect,
		}
	}

	return &Snapshot{
		URL:            wire.URL,
		Title:          wire.Title,
		Elements:       elements,
		PixelsAbove:    wire.PixelsAbove,
		PixelsBelow:    wire.PixelsBelow,
		ViewportWidth:  wire.ViewportWidth,
		ViewportHeight: wire.ViewportHeight,
	}, nil
}

// Indices returns the snapshot's element indices in ascending order.
func (s *Snapshot) Indices() []int {
	indices := make([]int, 0, len(s.Elements))
	for i := range s.Elements {
		indices = append(indices, i)
	}
	sort.Ints(indices)
	return indices
}

// Format renders the element listing in the bracket-index form agents
// consume, one element per line:
//
//	[3]<button id="submit">Sign in</button>
func (s *Snapshot) Format() string {
	var b strings.Builder
	for _, i := range s.Indices() {
		d := s.Elements[i]
		fmt.Fprintf(&b, "[%d]<%s", d.Index, d.TagName)
		for _, attr := range IncludeAttributes {
			if v, ok := d.Attributes[attr]; ok {
				fmt.Fprintf(&b, " %s=%q", attr, v)
			}
		}
		b.WriteString(">")
		b.WriteString(d.Text)
		fmt.Fprintf(&b, "</%s>\n", d.TagName)
	}
	return strings.TrimRight(b.String(), "\n")
}
