package automation

import (
	"context"
	"time"

	"github.com/BaSui01/browserpilot/action"
	"github.com/BaSui01/browserpilot/dom"
	"github.com/BaSui01/browserpilot/types"
)

// resolveFailure wraps a resolution error in a failure result that also
// reports the page the snapshot came from, so stale indices can be
// diagnosed without a second round trip.
func resolveFailure(err error, snap *dom.Snapshot) *types.ActionResult {
	res := types.FailWith(err)
	res.URL = snap.URL
	return res
}

// ClickElement resolves ref against a fresh snapshot and clicks it.
// Integer refs are snapshot indices; anything else is a raw CSS
// selector.
func (s *Service) ClickElement(ctx context.Context, ref string) *types.ActionResult {
	if r := s.ready(); r != nil {
		return r
	}
	snap, fail := s.snapshot(ctx)
	if fail != nil {
		return fail
	}
	target, err := dom.NewResolver(snap.Elements).Resolve(ref, 0, 0)
	if err != nil {
		return resolveFailure(err, snap)
	}
	return s.outcome(ctx, s.actions.Click(ctx, target))
}

// ClickCoordinates clicks an absolute page point. No element lookup, no
// fallback.
func (s *Service) ClickCoordinates(ctx context.Context, x, y float64) *types.ActionResult {
	if r := s.ready(); r != nil {
		return r
	}
	return s.outcome(ctx, s.actions.Click(ctx, dom.PointTarget(x, y)))
}

// InputText resolves ref and types text into it, clearing any existing
// value first.
func (s *Service) InputText(ctx context.Context, ref, text string) *types.ActionResult {
	if r := s.ready(); r != nil {
		return r
	}
	snap, fail := s.snapshot(ctx)
	if fail != nil {
		return fail
	}
	target, err := dom.NewResolver(snap.Elements).Resolve(ref, 0, 0)
	if err != nil {
		return resolveFailure(err, snap)
	}
	return s.outcome(ctx, s.actions.InputText(ctx, target, text))
}

// SendKeys dispatches a key or key combination (for example "Enter" or
// "Control+a") to the focused element.
func (s *Service) SendKeys(ctx context.Context, keys string) *types.ActionResult {
	if r := s.ready(); r != nil {
		return r
	}
	return s.outcome(ctx, s.actions.SendKeys(ctx, keys))
}

// DragParams describe one drag-and-drop. Source and target are each
// given either as an element reference or as explicit coordinates.
type DragParams struct {
	ElementSource string
	ElementTarget string

	CoordSourceX, CoordSourceY float64
	HasCoordSource             bool
	CoordTargetX, CoordTargetY float64
	HasCoordTarget             bool

	SourceOffsetX, SourceOffsetY float64
	TargetOffsetX, TargetOffsetY float64

	Steps   int
	DelayMS int
}

func (s *Service) dragTarget(snap *dom.Snapshot, ref string, hasCoord bool, x, y, offX, offY float64) (dom.Target, error) {
	if ref != "" {
		return dom.NewResolver(snap.Elements).Resolve(ref, offX, offY)
	}
	if hasCoord {
		return dom.PointTarget(x+offX, y+offY), nil
	}
	return dom.Target{}, types.NewError(types.ErrNoResolvableTarget,
		"drag endpoint needs an element reference or coordinates")
}

// DragDrop drags from source to target along a linearly interpolated
// path.
func (s *Service) DragDrop(ctx context.Context, p DragParams) *types.ActionResult {
	if r := s.ready(); r != nil {
		return r
	}
	snap, fail := s.snapshot(ctx)
	if fail != nil {
		return fail
	}

	source, err := s.dragTarget(snap, p.ElementSource, p.HasCoordSource,
		p.CoordSourceX, p.CoordSourceY, p.SourceOffsetX, p.SourceOffsetY)
	if err != nil {
		return resolveFailure(err, snap)
	}
	target, err := s.dragTarget(snap, p.ElementTarget, p.HasCoordTarget,
		p.CoordTargetX, p.CoordTargetY, p.TargetOffsetX, p.TargetOffsetY)
	if err != nil {
		return resolveFailure(err, snap)
	}

	req := action.DragRequest{
		Source: source,
		Target: target,
		Steps:  p.Steps,
		Delay:  time.Duration(p.DelayMS) * time.Millisecond,
	}
	return s.outcome(ctx, s.actions.DragDrop(ctx, req))
}
