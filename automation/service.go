package automation

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/browserpilot/action"
	"github.com/BaSui01/browserpilot/browser"
	"github.com/BaSui01/browserpilot/dom"
	"github.com/BaSui01/browserpilot/intervention"
	"github.com/BaSui01/browserpilot/types"
)

// Browser is the session capability surface the service drives.
// *browser.Session implements it; tests substitute fakes.
type Browser interface {
	action.Page

	Navigate(ctx context.Context, url string) error
	Back(ctx context.Context) error
	CurrentURL(ctx context.Context) (string, error)
	Title(ctx context.Context) (string, error)
	Screenshot(ctx context.Context) ([]byte, error)
	ScreenshotJPEG(ctx context.Context, quality int) ([]byte, error)
	HTML(ctx context.Context) (string, error)

	ScrollBy(ctx context.Context, dx, dy int) error
	ScrollToTop(ctx context.Context) error
	ScrollToBottom(ctx context.Context) error
	ScrollToText(ctx context.Context, text string) (bool, error)

	PrintPDF(ctx context.Context, opts browser.PDFOptions) ([]byte, error)
	DropdownOptions(ctx context.Context, sel string) ([]browser.DropdownOption, error)
	SelectDropdownOption(ctx context.Context, sel, optionText string) (bool, error)

	TabCount() int
	CurrentTab() int
	OpenTab(ctx context.Context, url string) (int, error)
	SwitchTab(index int) error
	CloseTab(index int) error

	SwitchFrame(ctx context.Context, ref string) error
	SwitchToMainFrame()
	InFrame() bool

	Cookies(ctx context.Context) ([]browser.Cookie, error)
	SetCookie(ctx context.Context, c browser.Cookie) error
	ClearCookies(ctx context.Context) error
	ClearLocalStorage(ctx context.Context) error
	SetDialogBehavior(accept bool, promptText string)
	SetNetworkConditions(ctx context.Context, nc browser.NetworkConditions) error
}

// Service is the automation control plane: every REST operation maps to
// one method here. Methods never return Go errors; failures travel
// inside the ActionResult envelope so the HTTP layer can stay dumb.
type Service struct {
	browser       Browser
	actions       *action.Dispatcher
	interventions *intervention.Coordinator
	detector      *intervention.Detector
	logger        *zap.Logger
	metrics       Metrics
}

// Metrics receives page-indexing and fallback observations.
type Metrics interface {
	RecordSnapshot(duration time.Duration, elements int)
	action.FallbackRecorder
}

// NewService wires the service over a browser session and an
// intervention coordinator.
func NewService(b Browser, coord *intervention.Coordinator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		browser:       b,
		actions:       action.NewDispatcher(b, logger),
		interventions: coord,
		detector:      intervention.NewDetector(logger),
		logger:        logger.With(zap.String("component", "automation_service")),
	}
}

// SetMetrics attaches a recorder to the service and its dispatcher.
// Nil leaves recording off.
func (s *Service) SetMetrics(m Metrics) {
	s.metrics = m
	s.actions.SetMetrics(m)
}

// buildSnapshot indexes the page, recording the build when metrics are
// attached.
func (s *Service) buildSnapshot(ctx context.Context) (*dom.Snapshot, error) {
	start := time.Now()
	snap, err := dom.Build(ctx, s.browser)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordSnapshot(time.Since(start), len(snap.Elements))
	}
	return snap, nil
}

// ready rejects operations against a session with no open tab.
func (s *Service) ready() *types.ActionResult {
	if s.browser.TabCount() == 0 {
		return types.FailWith(types.NewError(types.ErrSessionUnavailable, "browser session has no open tab"))
	}
	return nil
}

// finish decorates a successful result with the updated page state.
// Snapshot and screenshot are captured concurrently; capture failures
// degrade the result rather than fail the action that already happened.
func (s *Service) finish(ctx context.Context, res *types.ActionResult) *types.ActionResult {
	var (
		snap *dom.Snapshot
		shot []byte
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap, err = s.buildSnapshot(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		shot, err = s.browser.Screenshot(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Debug("post-action state capture failed", zap.Error(err))
		return res
	}

	res.URL = snap.URL
	res.Title = snap.Title
	res.Elements = snap.Format()
	res.PixelsAbove = snap.PixelsAbove
	res.PixelsBelow = snap.PixelsBelow
	res.ElementCount = len(snap.Elements)
	res.InteractiveElements = snap.Indices()
	res.ScreenshotBase64 = base64.StdEncoding.EncodeToString(shot)
	return res
}

// snapshot builds a fresh element index. Indices are only valid against
// this snapshot; nothing is reused across calls.
func (s *Service) snapshot(ctx context.Context) (*dom.Snapshot, *types.ActionResult) {
	snap, err := s.buildSnapshot(ctx)
	if err != nil {
		return nil, types.FailWith(types.NewError(types.ErrExtractionFailed, "failed to index page elements").WithCause(err))
	}
	return snap, nil
}

// outcome converts a dispatcher outcome into the envelope, appending
// updated page state on success.
func (s *Service) outcome(ctx context.Context, o action.Outcome) *types.ActionResult {
	if !o.Success {
		res := types.FailWith(o.Err)
		if o.FailedStep >= 0 {
			res.Data = map[string]any{
				"failed_step":    o.FailedStep,
				"completed_path": o.Path,
			}
		}
		return res
	}
	msg := o.Message
	if o.UsedFallback {
		msg += " (via coordinate fallback)"
	}
	return s.finish(ctx, types.OK(msg))
}

// Navigate loads a URL in the current tab. Scheme-less input gets https.
func (s *Service) Navigate(ctx context.Context, rawURL string) *types.ActionResult {
	if r := s.ready(); r != nil {
		return r
	}
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return types.FailWith(types.NewError(types.ErrInvalidRequest, "url is required"))
	}
	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}
	if err := s.browser.Navigate(ctx, rawURL); err != nil {
		return types.FailWith(err)
	}
	return s.finish(ctx, types.OK("navigated to "+rawURL))
}

// SearchGoogle runs a Google search in the current tab.
func (s *Service) SearchGoogle(ctx context.Context, query string) *types.ActionResult {
	if strings.TrimSpace(query) == "" {
		return types.FailWith(types.NewError(types.ErrInvalidRequest, "query is required"))
	}
	res := s.Navigate(ctx, "https://www.google.com/search?q="+url.QueryEscape(query))
	if res.Success {
		res.Message = fmt.Sprintf("searched google for %q", query)
	}
	return res
}

// GoBack navigates one entry back in the tab's history.
func (s *Service) GoBack(ctx context.Context) *types.ActionResult {
	if r := s.ready(); r != nil {
		return r
	}
	if err := s.browser.Back(ctx); err != nil {
		return types.FailWith(err)
	}
	return s.finish(ctx, types.OK("navigated back"))
}

const maxWaitSeconds = 60

// Wait pauses for the given number of seconds, capped at one minute.
func (s *Service) Wait(ctx context.Context, seconds float64) *types.ActionResult {
	if seconds < 0 {
		return types.FailWith(types.NewError(types.ErrInvalidRequest, "seconds must not be negative"))
	}
	if seconds > maxWaitSeconds {
		seconds = maxWaitSeconds
	}
	select {
	case <-time.After(time.Duration(seconds * float64(time.Second))):
	case <-ctx.Done():
		return types.FailWith(types.NewError(types.ErrTimeout, "wait interrupted").WithCause(ctx.Err()))
	}
	return types.OK(fmt.Sprintf("waited %.1f seconds", seconds))
}
