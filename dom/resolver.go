package dom

import (
	"strconv"
	"strings"

	"github.com/BaSui01/browserpilot/types"
)

// Target is a resolved action target. Selector-bearing targets may also
// carry a point: actions try the selector first and fall back to the point
// exactly once if the selector path fails. Point-only targets have no
// further fallback.
type Target struct {
	// CSS selector, empty for point-only targets.
	Selector string
	// Page coordinates, valid when HasPoint is true.
	X, Y     float64
	HasPoint bool
	// Snapshot index the target was resolved from, -1 for raw selectors
	// and explicit coordinates.
	Index int
}

// PointTarget returns a point-only target at the given page coordinates.
func PointTarget(x, y float64) Target {
	return Target{X: x, Y: y, HasPoint: true, Index: -1}
}

// SelectorTarget returns a selector-only target for a raw CSS selector.
func SelectorTarget(selector string) Target {
	return Target{Selector: selector, Index: -1}
}

// Resolver resolves element references against one snapshot's selector map.
type Resolver struct {
	elements SelectorMap
}

// NewResolver creates a resolver over the given selector map.
func NewResolver(elements SelectorMap) *Resolver {
	return &Resolver{elements: elements}
}

// Resolve resolves an element reference. A reference that parses as an
// integer is a snapshot index and must exist in the map; anything else is
// treated as a raw CSS selector. A stale integer index is never
// reinterpreted as a selector.
func (r *Resolver) Resolve(ref string, offsetX, offsetY float64) (Target, error) {
	trimmed := strings.TrimSpace(ref)
	if idx, err := strconv.Atoi(trimmed); err == nil {
		return r.ResolveIndex(idx, offsetX, offsetY)
	}
	if trimmed == "" {
		return Target{}, types.NewError(types.ErrInvalidRequest, "empty element reference")
	}
	return SelectorTarget(trimmed), nil
}

// ResolveIndex resolves a snapshot index to a concrete target. The
// resolution ladder is fixed: id attribute, then name attribute, then the
// bounding-box center (plus the caller offset). An element with none of
// the three is unresolvable.
func (r *Resolver) ResolveIndex(index int, offsetX, offsetY float64) (Target, error) {
	d, ok := r.elements[index]
	if !ok {
		return Target{}, types.NewError(types.ErrElementNotFound,
			"element index "+strconv.Itoa(index)+" not found in current page state")
	}

	t := Target{Index: index}
	if d.PageCoordinates != nil {
		t.X, t.Y = d.PageCoordinates.Center()
		t.X += offsetX
		t.Y += offsetY
		t.HasPoint = true
	}

	if id, ok := d.Attributes["id"]; ok && id != "" {
		t.Selector = idSelector(id)
		return t, nil
	}
	if name, ok := d.Attributes["name"]; ok && name != "" {
		t.Selector = attrSelector("name", name)
		return t, nil
	}
	if t.HasPoint {
		return t, nil
	}

	return Target{}, types.NewError(types.ErrNoResolvableTarget,
		"element index "+strconv.Itoa(index)+" has no id, name, or visible coordinates")
}

// idSelector prefers the short #id form. An id that is not a plain CSS
// identifier falls back to the quoted attribute form so metacharacters
// still match.
func idSelector(id string) string {
	if isCSSIdent(id) {
		return "#" + id
	}
	return attrSelector("id", id)
}

func isCSSIdent(s string) bool {
	if s == "" || (s[0] >= '0' && s[0] <= '9') || s[0] == '-' {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9', r == '-', r == '_', r > 0x7f:
		default:
			return false
		}
	}
	return true
}

// attrSelector builds an attribute-equals CSS selector with the value
// quoted, so values containing CSS metacharacters still match.
func attrSelector(attr, value string) string {
	v := strings.ReplaceAll(value, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "[" + attr + `='` + v + `']`
}
