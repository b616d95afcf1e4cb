package action

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/BaSui01/browserpilot/dom"
	"github.com/BaSui01/browserpilot/types"
)

func TestInterpolatePath(t *testing.T) {
	path := InterpolatePath(Point{X: 0, Y: 0}, Point{X: 100, Y: 50}, 10)
	require.Len(t, path, 10)

	// the 5th of 10 waypoints is the midpoint
	assert.Equal(t, Point{X: 50, Y: 25}, path[4])
	// the last waypoint is the target
	assert.Equal(t, Point{X: 100, Y: 50}, path[9])
	// the first waypoint is one step in
	assert.Equal(t, Point{X: 10, Y: 5}, path[0])
}

func TestInterpolatePathProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		from := Point{
			X: float64(rapid.IntRange(-1000, 1000).Draw(t, "fx")),
			Y: float64(rapid.IntRange(-1000, 1000).Draw(t, "fy")),
		}
		to := Point{
			X: float64(rapid.IntRange(-1000, 1000).Draw(t, "tx")),
			Y: float64(rapid.IntRange(-1000, 1000).Draw(t, "ty")),
		}
		steps := rapid.IntRange(1, 50).Draw(t, "steps")

		path := InterpolatePath(from, to, steps)
		if len(path) != steps {
			t.Fatalf("got %d waypoints, want %d", len(path), steps)
		}

		last := path[len(path)-1]
		if last != to {
			t.Fatalf("path does not end at target: %+v != %+v", last, to)
		}

		// waypoints lie on the segment at fraction i/steps
		for i, p := range path {
			f := float64(i+1) / float64(steps)
			wantX := from.X + (to.X-from.X)*f
			wantY := from.Y + (to.Y-from.Y)*f
			if math.Abs(p.X-wantX) > 1e-9 || math.Abs(p.Y-wantY) > 1e-9 {
				t.Fatalf("waypoint %d off segment: got %+v want (%v,%v)", i, p, wantX, wantY)
			}
		}
	})
}

func TestDragDropCoordinates(t *testing.T) {
	page := &fakePage{}
	d := NewDispatcher(page, nil)

	out := d.DragDrop(context.Background(), DragRequest{
		Source: dom.PointTarget(0, 0),
		Target: dom.PointTarget(100, 100),
		Steps:  4,
	})
	assert.True(t, out.Success)
	assert.Len(t, out.Path, 4)
	// move to source, press, 4 waypoint moves, release
	assert.Equal(t, 5, page.mouseMoves)
	assert.Equal(t, "mouse_down", page.calls[1])
	assert.Equal(t, "mouse_up", page.calls[len(page.calls)-1])
}

func TestDragDropSelectorSourceMeasuredInDOM(t *testing.T) {
	page := &fakePage{
		evaluateFn: func(expr string, out any) error {
			return json.Unmarshal([]byte(`{"x": 40, "y": 60}`), out)
		},
	}
	d := NewDispatcher(page, nil)

	out := d.DragDrop(context.Background(), DragRequest{
		Source: dom.SelectorTarget("#card"),
		Target: dom.PointTarget(140, 60),
		Steps:  2,
	})
	assert.True(t, out.Success)
	require.Len(t, out.Path, 2)
	assert.Equal(t, Point{X: 90, Y: 60}, out.Path[0])
	assert.Equal(t, Point{X: 140, Y: 60}, out.Path[1])
}

func TestDragDropUnresolvableSource(t *testing.T) {
	page := &fakePage{
		evaluateFn: func(string, any) error { return errors.New("no element matches selector") },
	}
	d := NewDispatcher(page, nil)

	out := d.DragDrop(context.Background(), DragRequest{
		Source: dom.SelectorTarget("#gone"),
		Target: dom.PointTarget(1, 1),
	})
	assert.False(t, out.Success)
	assert.Equal(t, types.ErrNoResolvableTarget, types.GetErrorCode(out.Err))
	// nothing was pressed
	assert.NotContains(t, page.calls, "mouse_down")
}

func TestDragDropMidPathFailureReleasesButton(t *testing.T) {
	page := &fakePage{
		mouseMoveErr: func(call int) error {
			// first move reaches the source; the 4th waypoint move fails
			if call == 5 {
				return errors.New("target detached")
			}
			return nil
		},
	}
	d := NewDispatcher(page, nil)

	out := d.DragDrop(context.Background(), DragRequest{
		Source: dom.PointTarget(0, 0),
		Target: dom.PointTarget(100, 0),
		Steps:  10,
	})
	assert.False(t, out.Success)
	assert.Equal(t, 4, out.FailedStep)
	assert.Len(t, out.Path, 3)
	// button released despite the failure
	assert.Equal(t, "mouse_up", page.calls[len(page.calls)-1])
}
