package automation

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/BaSui01/browserpilot/intervention"
	"github.com/BaSui01/browserpilot/types"
)

// InterventionParams describe a hand-off request.
type InterventionParams struct {
	Type         string
	Message      string
	Instructions string
	Context      map[string]any
	// TimeoutSeconds nil means the coordinator default; an explicit 0
	// expires on the first status check.
	TimeoutSeconds *int
	// TakeScreenshot nil defaults to true.
	TakeScreenshot *bool
	// AutoDetect runs the page probes first and records the findings on
	// the request; an unset Type is filled in from the first detection.
	AutoDetect bool
}

func interventionView(req *intervention.Request, now time.Time) map[string]any {
	v := map[string]any{
		"intervention_id": req.ID,
		"type":            string(req.Type),
		"status":          string(req.Status),
		"message":         req.Message,
		"created_at":      req.CreatedAt,
		"timeout_seconds": int(req.Timeout / time.Second),
	}
	if req.Instructions != "" {
		v["instructions"] = req.Instructions
	}
	if req.URL != "" {
		v["url"] = req.URL
	}
	if req.Status == intervention.StatusPending {
		v["remaining_seconds"] = req.RemainingSeconds(now)
	}
	if req.ResolvedAt != nil {
		v["resolved_at"] = *req.ResolvedAt
	}
	if req.CompletionNote != "" {
		v["completion_note"] = req.CompletionNote
	}
	if req.CancelReason != "" {
		v["cancel_reason"] = req.CancelReason
	}
	return v
}

// RequestIntervention opens a hand-off to a person, attaching the
// current URL and a screenshot as context. It refuses to queue against
// a session with no open tab.
func (s *Service) RequestIntervention(ctx context.Context, p InterventionParams) *types.ActionResult {
	if r := s.ready(); r != nil {
		return r
	}

	opts := intervention.Options{
		Type:         intervention.Type(p.Type),
		Message:      p.Message,
		Instructions: p.Instructions,
		Context:      p.Context,
		Timeout:      -1,
	}
	if p.TimeoutSeconds != nil {
		opts.Timeout = time.Duration(*p.TimeoutSeconds) * time.Second
	}
	if u, err := s.browser.CurrentURL(ctx); err == nil {
		opts.URL = u
	}
	if p.TakeScreenshot == nil || *p.TakeScreenshot {
		if shot, err := s.browser.Screenshot(ctx); err == nil {
			opts.Screenshot = base64.StdEncoding.EncodeToString(shot)
		}
	}

	if p.AutoDetect {
		if det, err := s.detector.Detect(ctx, s.browser, intervention.AllChecks()); err == nil {
			if opts.Context == nil {
				opts.Context = make(map[string]any)
			}
			opts.Context["auto_detection"] = det
			if opts.Type == "" && len(det.Types) > 0 {
				opts.Type = det.Types[0]
			}
		}
	}

	req, err := s.interventions.Request(ctx, opts)
	if err != nil {
		return types.FailWith(err)
	}
	res := types.OK("intervention requested; waiting for a person")
	res.Data = interventionView(req, time.Now())
	return res
}

// InterventionStatus reports the request's current state, promoting
// expired pending requests to timeout.
func (s *Service) InterventionStatus(ctx context.Context, id string) *types.ActionResult {
	req, err := s.interventions.Status(ctx, id)
	if err != nil {
		return types.FailWith(err)
	}
	res := types.OK("intervention status: " + string(req.Status))
	res.Data = interventionView(req, time.Now())
	return res
}

// CompleteIntervention marks the request completed, or failed when the
// person could not get past the blocker. Resolving an already terminal
// request reports its recorded outcome unchanged.
func (s *Service) CompleteIntervention(ctx context.Context, id, note string, success bool) *types.ActionResult {
	var (
		req *intervention.Request
		err error
	)
	if success {
		req, err = s.interventions.Complete(ctx, id, note)
	} else {
		req, err = s.interventions.Fail(ctx, id, note)
	}
	if err != nil {
		return types.FailWith(err)
	}
	res := types.OK("intervention " + string(req.Status))
	res.Data = interventionView(req, time.Now())
	return res
}

// CancelIntervention marks the request cancelled. Cancelling a
// completed request never reverts it.
func (s *Service) CancelIntervention(ctx context.Context, id, reason string) *types.ActionResult {
	req, err := s.interventions.Cancel(ctx, id, reason)
	if err != nil {
		return types.FailWith(err)
	}
	res := types.OK("intervention " + string(req.Status))
	res.Data = interventionView(req, time.Now())
	return res
}

// ListInterventions returns stored requests, optionally filtered by
// status.
func (s *Service) ListInterventions(ctx context.Context, status string) *types.ActionResult {
	reqs, err := s.interventions.List(ctx, intervention.Status(status))
	if err != nil {
		return types.FailWith(err)
	}
	now := time.Now()
	views := make([]map[string]any, 0, len(reqs))
	for _, req := range reqs {
		views = append(views, interventionView(req, now))
	}
	res := types.OK("interventions listed")
	res.Data = map[string]any{"interventions": views, "count": len(views)}
	return res
}

// AutoDetectIntervention probes the current page for the requested
// conditions. It only reports; no request is created.
func (s *Service) AutoDetectIntervention(ctx context.Context, checks intervention.Checks) *types.ActionResult {
	if r := s.ready(); r != nil {
		return r
	}
	det, err := s.detector.Detect(ctx, s.browser, checks)
	if err != nil {
		return types.FailWith(types.NewError(types.ErrExtractionFailed, "intervention detection failed").WithCause(err))
	}
	msg := "no intervention needed"
	if det.Detected {
		msg = "intervention conditions detected"
	}
	res := types.OK(msg)
	res.Data = det
	return res
}
