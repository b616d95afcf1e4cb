package dom

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/BaSui01/browserpilot/types"
)

func testMap() SelectorMap {
	return SelectorMap{
		0: {Index: 0, TagName: "button",
			Attributes:      map[string]string{"id": "submit", "name": "go"},
			PageCoordinates: &Rect{X: 10, Y: 20, Width: 100, Height: 40}},
		1: {Index: 1, TagName: "input",
			Attributes:      map[string]string{"name": "q"},
			PageCoordinates: &Rect{X: 0, Y: 0, Width: 200, Height: 30}},
		2: {Index: 2, TagName: "a",
			Attributes:      map[string]string{"href": "/next"},
			PageCoordinates: &Rect{X: 300, Y: 400, Width: 50, Height: 20}},
		3: {Index: 3, TagName: "button",
			Attributes: map[string]string{"role": "button"}},
	}
}

func TestResolveIndexLadder(t *testing.T) {
	r := NewResolver(testMap())

	t.Run("id wins over name", func(t *testing.T) {
		target, err := r.ResolveIndex(0, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, "#submit", target.Selector)
		assert.True(t, target.HasPoint)
	})

	t.Run("name when no id", func(t *testing.T) {
		target, err := r.ResolveIndex(1, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, `[name='q']`, target.Selector)
	})

	t.Run("center coordinates when no id or name", func(t *testing.T) {
		target, err := r.ResolveIndex(2, 0, 0)
		require.NoError(t, err)
		assert.Empty(t, target.Selector)
		assert.True(t, target.HasPoint)
		assert.Equal(t, 325.0, target.X)
		assert.Equal(t, 410.0, target.Y)
	})

	t.Run("offset shifts the point", func(t *testing.T) {
		target, err := r.ResolveIndex(2, 5, -3)
		require.NoError(t, err)
		assert.Equal(t, 330.0, target.X)
		assert.Equal(t, 407.0, target.Y)
	})

	t.Run("hidden element with no usable attributes", func(t *testing.T) {
		_, err := r.ResolveIndex(3, 0, 0)
		require.Error(t, err)
		assert.Equal(t, types.ErrNoResolvableTarget, types.GetErrorCode(err))
	})

	t.Run("missing index fails hard", func(t *testing.T) {
		_, err := r.ResolveIndex(42, 0, 0)
		require.Error(t, err)
		assert.Equal(t, types.ErrElementNotFound, types.GetErrorCode(err))
	})
}

func TestResolveReference(t *testing.T) {
	r := NewResolver(testMap())

	t.Run("integer reference is an index", func(t *testing.T) {
		target, err := r.Resolve("0", 0, 0)
		require.NoError(t, err)
		assert.Equal(t, 0, target.Index)
	})

	t.Run("stale integer is not a selector", func(t *testing.T) {
		_, err := r.Resolve("99", 0, 0)
		require.Error(t, err)
		assert.Equal(t, types.ErrElementNotFound, types.GetErrorCode(err))
	})

	t.Run("non-integer is a raw selector", func(t *testing.T) {
		target, err := r.Resolve("#login > button.primary", 0, 0)
		require.NoError(t, err)
		assert.Equal(t, "#login > button.primary", target.Selector)
		assert.False(t, target.HasPoint)
		assert.Equal(t, -1, target.Index)
	})

	t.Run("empty reference is rejected", func(t *testing.T) {
		_, err := r.Resolve("  ", 0, 0)
		require.Error(t, err)
		assert.Equal(t, types.ErrInvalidRequest, types.GetErrorCode(err))
	})
}

func TestSelectorForms(t *testing.T) {
	t.Run("plain id gets the short form", func(t *testing.T) {
		r := NewResolver(SelectorMap{
			0: {Index: 0, TagName: "button", Attributes: map[string]string{"id": "submit-btn"}},
		})
		target, err := r.ResolveIndex(0, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, "#submit-btn", target.Selector)
	})

	t.Run("awkward id falls back to the attribute form", func(t *testing.T) {
		r := NewResolver(SelectorMap{
			0: {Index: 0, TagName: "div", Attributes: map[string]string{"id": `he said 'hi'`}},
		})
		target, err := r.ResolveIndex(0, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, `[id='he said \'hi\'']`, target.Selector)
	})

	t.Run("leading digit is not a css identifier", func(t *testing.T) {
		r := NewResolver(SelectorMap{
			0: {Index: 0, TagName: "div", Attributes: map[string]string{"id": "1abc"}},
		})
		target, err := r.ResolveIndex(0, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, `[id='1abc']`, target.Selector)
	})
}

func TestResolveDeterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 20).Draw(t, "n")
		elements := make(SelectorMap, n)
		for i := 0; i < n; i++ {
			d := &Descriptor{Index: i, TagName: "div", Attributes: map[string]string{}}
			if rapid.Bool().Draw(t, fmt.Sprintf("hasID%d", i)) {
				d.Attributes["id"] = rapid.StringMatching(`[a-z]{1,8}`).Draw(t, fmt.Sprintf("id%d", i))
			}
			if rapid.Bool().Draw(t, fmt.Sprintf("hasName%d", i)) {
				d.Attributes["name"] = rapid.StringMatching(`[a-z]{1,8}`).Draw(t, fmt.Sprintf("name%d", i))
			}
			if rapid.Bool().Draw(t, fmt.Sprintf("hasRect%d", i)) {
				d.PageCoordinates = &Rect{
					X:      float64(rapid.IntRange(0, 2000).Draw(t, fmt.Sprintf("x%d", i))),
					Y:      float64(rapid.IntRange(0, 2000).Draw(t, fmt.Sprintf("y%d", i))),
					Width:  float64(rapid.IntRange(1, 500).Draw(t, fmt.Sprintf("w%d", i))),
					Height: float64(rapid.IntRange(1, 200).Draw(t, fmt.Sprintf("h%d", i))),
				}
			}
			elements[i] = d
		}
		r := NewResolver(elements)
		idx := rapid.IntRange(0, n-1).Draw(t, "idx")

		t1, err1 := r.ResolveIndex(idx, 0, 0)
		t2, err2 := r.ResolveIndex(idx, 0, 0)

		// identical input resolves identically
		if (err1 == nil) != (err2 == nil) {
			t.Fatalf("non-deterministic error: %v vs %v", err1, err2)
		}
		if err1 == nil && t1 != t2 {
			t.Fatalf("non-deterministic target: %+v vs %+v", t1, t2)
		}

		// the ladder never skips a rung
		if err1 == nil {
			d := elements[idx]
			if id := d.Attributes["id"]; id != "" {
				if t1.Selector != idSelector(id) {
					t.Fatalf("id present but selector is %q", t1.Selector)
				}
			} else if name := d.Attributes["name"]; name != "" {
				if t1.Selector != attrSelector("name", name) {
					t.Fatalf("name present but selector is %q", t1.Selector)
				}
			} else if !t1.HasPoint {
				t.Fatalf("no id/name yet no point target: %+v", t1)
			}

			// center math holds whenever coordinates exist
			if d.PageCoordinates != nil {
				wantX := d.PageCoordinates.X + d.PageCoordinates.Width/2
				wantY := d.PageCoordinates.Y + d.PageCoordinates.Height/2
				if t1.X != wantX || t1.Y != wantY {
					t.Fatalf("center mismatch: got (%v,%v) want (%v,%v)", t1.X, t1.Y, wantX, wantY)
				}
			}
		}
	})
}
