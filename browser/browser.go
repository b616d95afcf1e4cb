package browser

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/BaSui01/browserpilot/types"
)

// Config holds Chromium launch flags and page timing settings.
type Config struct {
	Headless bool
	// X display for headful runs behind VNC, e.g. ":99".
	Display        string
	ExecPath       string
	ViewportWidth  int
	ViewportHeight int
	UserAgent      string
	ProxyURL       string
	// Applied to page loads.
	NavigationTimeout time.Duration
	// Applied to individual element actions.
	ActionTimeout time.Duration
}

// DefaultConfig returns sensible launch defaults.
func DefaultConfig() Config {
	return Config{
		Headless:          true,
		ViewportWidth:     1280,
		ViewportHeight:    720,
		NavigationTimeout: 120 * time.Second,
		ActionTimeout:     5 * time.Second,
	}
}

// Tab is one open browser tab.
type Tab struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// Session is the browser state of the process: an ordered tab list, the
// current tab index, and an optional current-frame override.
//
// Session carries no lock: the service runs a single logical workflow and
// all page operations are sequenced by the caller. Concurrent mutation of
// tab state is not supported.
type Session struct {
	cfg    Config
	logger *zap.Logger

	allocCtx    context.Context
	allocCancel context.CancelFunc

	tabs    []*Tab
	current int

	// JS expression resolving the current iframe element. Empty means the
	// main frame.
	frameExpr string

	// Behavior applied to the next JavaScript dialog.
	dialogAccept bool
	dialogText   string
}

// NewSession launches Chromium and opens the initial tab.
func NewSession(cfg Config, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = 120 * time.Second
	}
	if cfg.ActionTimeout <= 0 {
		cfg.ActionTimeout = 5 * time.Second
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.WindowSize(cfg.ViewportWidth, cfg.ViewportHeight),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	if cfg.ProxyURL != "" {
		opts = append(opts, chromedp.ProxyServer(cfg.ProxyURL))
	}
	if !cfg.Headless && cfg.Display != "" {
		opts = append(opts, chromedp.Env("DISPLAY="+cfg.Display))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	s := &Session{
		cfg:          cfg,
		logger:       logger.With(zap.String("component", "browser_session")),
		allocCtx:     allocCtx,
		allocCancel:  allocCancel,
		current:      -1,
		dialogAccept: true,
	}

	tab, err := s.newTab(allocCtx)
	if err != nil {
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	s.tabs = append(s.tabs, tab)
	s.current = 0

	s.logger.Info("browser started",
		zap.Bool("headless", cfg.Headless),
		zap.Int("viewport_w", cfg.ViewportWidth),
		zap.Int("viewport_h", cfg.ViewportHeight))

	return s, nil
}

func (s *Session) newTab(parent context.Context) (*Tab, error) {
	ctx, cancel := chromedp.NewContext(parent,
		chromedp.WithLogf(func(format string, args ...any) {
			s.logger.Debug(fmt.Sprintf(format, args...))
		}),
	)
	if err := chromedp.Run(ctx); err != nil {
		cancel()
		return nil, err
	}
	tab := &Tab{ctx: ctx, cancel: cancel}
	s.armDialogHandler(tab)
	return tab, nil
}

// ActiveTab returns the current tab, or a SESSION_UNAVAILABLE error when
// no tabs remain.
func (s *Session) ActiveTab() (*Tab, error) {
	if s.current < 0 || s.current >= len(s.tabs) {
		return nil, types.NewError(types.ErrSessionUnavailable, "no active browser tab")
	}
	return s.tabs[s.current], nil
}

// run executes chromedp actions on the current tab with the given timeout.
func (s *Session) run(timeout time.Duration, actions ...chromedp.Action) error {
	tab, err := s.ActiveTab()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(tab.ctx, timeout)
	defer cancel()

	if err := chromedp.Run(ctx, actions...); err != nil {
		switch {
		case ctx.Err() == context.DeadlineExceeded:
			return types.NewError(types.ErrTimeout, "browser action timed out").WithCause(err)
		case tab.ctx.Err() != nil:
			return types.NewError(types.ErrStaleContext, "browser tab is gone").WithCause(err)
		}
		return err
	}
	return nil
}

// TabCount returns the number of open tabs.
func (s *Session) TabCount() int { return len(s.tabs) }

// CurrentTab returns the current tab index.
func (s *Session) CurrentTab() int { return s.current }

// OpenTab opens a new tab, navigates it to url, and makes it current.
func (s *Session) OpenTab(ctx context.Context, url string) (int, error) {
	tab, err := s.newTab(s.allocCtx)
	if err != nil {
		return 0, types.NewError(types.ErrSessionUnavailable, "failed to open tab").WithCause(err)
	}
	s.tabs = append(s.tabs, tab)
	s.current = len(s.tabs) - 1
	s.frameExpr = ""

	if url != "" {
		if err := s.Navigate(ctx, url); err != nil {
			return s.current, err
		}
	}
	s.logger.Info("tab opened", zap.Int("index", s.current), zap.String("url", url))
	return s.current, nil
}

// SwitchTab makes the tab at index current. Switching tabs resets the
// frame override.
func (s *Session) SwitchTab(index int) error {
	if index < 0 || index >= len(s.tabs) {
		return types.NewError(types.ErrTabNotFound,
			"tab index "+strconv.Itoa(index)+" out of range")
	}
	s.current = index
	s.frameExpr = ""
	s.logger.Info("tab switched", zap.Int("index", index))
	return nil
}

// CloseTab closes the tab at index. When the current tab is closed, the
// previous tab (if any) becomes current.
func (s *Session) CloseTab(index int) error {
	if index < 0 || index >= len(s.tabs) {
		return types.NewError(types.ErrTabNotFound,
			"tab index "+strconv.Itoa(index)+" out of range")
	}
	s.tabs[index].cancel()
	s.tabs = append(s.tabs[:index], s.tabs[index+1:]...)

	switch {
	case len(s.tabs) == 0:
		s.current = -1
	case s.current >= len(s.tabs):
		s.current = len(s.tabs) - 1
	case index < s.current:
		s.current--
	}
	s.frameExpr = ""
	s.logger.Info("tab closed", zap.Int("index", index), zap.Int("current", s.current))
	return nil
}

// Close shuts the browser down.
func (s *Session) Close() error {
	s.logger.Info("closing browser")
	for _, t := range s.tabs {
		t.cancel()
	}
	s.tabs = nil
	s.current = -1
	s.allocCancel()
	return nil
}
