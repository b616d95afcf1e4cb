package action

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/browserpilot/dom"
	"github.com/BaSui01/browserpilot/types"
)

// Point is a page coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Drag path defaults.
const (
	DefaultDragSteps = 10
	DefaultDragDelay = 5 * time.Millisecond
)

// DragRequest describes a drag-and-drop between two resolved targets.
type DragRequest struct {
	Source dom.Target
	Target dom.Target
	// Number of interpolation steps, DefaultDragSteps when zero.
	Steps int
	// Pause between waypoints, DefaultDragDelay when zero.
	Delay time.Duration
}

// InterpolatePath returns steps evenly spaced waypoints from from to to,
// endpoint included. The i-th waypoint (1-based) sits at fraction i/steps
// of the segment.
func InterpolatePath(from, to Point, steps int) []Point {
	if steps <= 0 {
		steps = DefaultDragSteps
	}
	path := make([]Point, steps)
	for i := 1; i <= steps; i++ {
		f := float64(i) / float64(steps)
		path[i-1] = Point{
			X: from.X + (to.X-from.X)*f,
			Y: from.Y + (to.Y-from.Y)*f,
		}
	}
	return path
}

// DragDrop presses at the source, moves along a linearly interpolated path,
// and releases at the target. A failure mid-path releases the button at the
// current position (best effort) and reports the failing step and the
// waypoints already traversed; there is no retry.
func (d *Dispatcher) DragDrop(ctx context.Context, req DragRequest) Outcome {
	from, err := d.locate(ctx, req.Source)
	if err != nil {
		return failure(types.NewError(types.ErrNoResolvableTarget, "drag source could not be located").WithCause(err))
	}
	to, err := d.locate(ctx, req.Target)
	if err != nil {
		return failure(types.NewError(types.ErrNoResolvableTarget, "drag target could not be located").WithCause(err))
	}

	steps := req.Steps
	if steps <= 0 {
		steps = DefaultDragSteps
	}
	delay := req.Delay
	if delay <= 0 {
		delay = DefaultDragDelay
	}
	path := InterpolatePath(from, to, steps)

	d.logger.Debug("drag start",
		zap.Float64("from_x", from.X), zap.Float64("from_y", from.Y),
		zap.Float64("to_x", to.X), zap.Float64("to_y", to.Y),
		zap.Int("steps", steps))

	if err := d.page.MouseMove(ctx, from.X, from.Y); err != nil {
		return failure(types.NewError(types.ErrActionFailed, "failed to reach drag source").WithCause(err))
	}
	if err := d.page.MouseDown(ctx, from.X, from.Y); err != nil {
		return failure(types.NewError(types.ErrActionFailed, "failed to press at drag source").WithCause(err))
	}

	current := from
	for i, p := range path {
		if err := d.page.MouseMove(ctx, p.X, p.Y); err != nil {
			// Best effort release so the button is not left held down.
			if relErr := d.page.MouseUp(ctx, current.X, current.Y); relErr != nil {
				d.logger.Warn("failed to release after drag abort", zap.Error(relErr))
			}
			out := failure(types.NewError(types.ErrActionFailed,
				"drag failed at step "+strconv.Itoa(i+1)+" of "+strconv.Itoa(steps)).WithCause(err))
			out.FailedStep = i + 1
			out.Path = path[:i]
			return out
		}
		current = p
		time.Sleep(delay)
	}

	if err := d.page.MouseUp(ctx, to.X, to.Y); err != nil {
		out := failure(types.NewError(types.ErrActionFailed, "failed to release at drag target").WithCause(err))
		out.FailedStep = steps
		out.Path = path
		return out
	}

	out := success(fmt.Sprintf("dragged from (%.0f, %.0f) to (%.0f, %.0f)", from.X, from.Y, to.X, to.Y))
	out.Path = path
	return out
}

// locate reduces a target to a page point. Point-bearing targets use their
// point; selector-only targets are measured in the live DOM.
func (d *Dispatcher) locate(ctx context.Context, t dom.Target) (Point, error) {
	if t.HasPoint {
		return Point{X: t.X, Y: t.Y}, nil
	}
	if t.Selector == "" {
		return Point{}, types.NewError(types.ErrNoResolvableTarget, "target has no selector or point")
	}

	js := fmt.Sprintf(`(() => {
	const el = document.querySelector(%s);
	if (!el) { throw new Error("no element matches selector"); }
	const r = el.getBoundingClientRect();
	if (r.width === 0 || r.height === 0) { throw new Error("element has no visible box"); }
	return {x: r.x + window.scrollX + r.width / 2, y: r.y + window.scrollY + r.height / 2};
})()`, strconv.Quote(t.Selector))

	var p Point
	if err := d.page.Evaluate(ctx, js, &p); err != nil {
		return Point{}, types.NewError(types.ErrElementNotFound,
			"selector "+strconv.Quote(t.Selector)+" did not locate a visible element").WithCause(err)
	}
	return p, nil
}
