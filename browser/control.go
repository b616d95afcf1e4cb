package browser

import (
	"context"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// Cookie is the wire-agnostic cookie shape exposed to callers.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	Secure   bool    `json:"secure"`
	HTTPOnly bool    `json:"http_only"`
}

// Cookies returns all cookies of the browser context.
func (s *Session) Cookies(ctx context.Context) ([]Cookie, error) {
	var out []Cookie
	err := s.run(s.cfg.ActionTimeout, chromedp.ActionFunc(func(ctx context.Context) error {
		cookies, err := storage.GetCookies().Do(ctx)
		if err != nil {
			return err
		}
		out = make([]Cookie, 0, len(cookies))
		for _, c := range cookies {
			out = append(out, Cookie{
				Name:     c.Name,
				Value:    c.Value,
				Domain:   c.Domain,
				Path:     c.Path,
				Expires:  c.Expires,
				Secure:   c.Secure,
				HTTPOnly: c.HTTPOnly,
			})
		}
		return nil
	}))
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SetCookie sets one cookie. Domain may be empty, in which case the
// cookie attaches to the current URL.
func (s *Session) SetCookie(ctx context.Context, c Cookie) error {
	s.logger.Debug("set cookie", zap.String("name", c.Name), zap.String("domain", c.Domain))
	return s.run(s.cfg.ActionTimeout, chromedp.ActionFunc(func(ctx context.Context) error {
		param := &network.CookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
		}
		if param.Path == "" {
			param.Path = "/"
		}
		if c.Domain == "" {
			var url string
			if err := chromedp.Location(&url).Do(ctx); err != nil {
				return err
			}
			param.URL = url
		}
		return storage.SetCookies([]*network.CookieParam{param}).Do(ctx)
	}))
}

// ClearCookies removes all cookies from the browser context.
func (s *Session) ClearCookies(ctx context.Context) error {
	s.logger.Debug("clearing cookies")
	return s.run(s.cfg.ActionTimeout, chromedp.ActionFunc(func(ctx context.Context) error {
		return storage.ClearCookies().Do(ctx)
	}))
}

// ClearLocalStorage clears localStorage and sessionStorage of the current
// origin.
func (s *Session) ClearLocalStorage(ctx context.Context) error {
	s.logger.Debug("clearing local storage")
	return s.Evaluate(ctx, "localStorage.clear(); sessionStorage.clear(); true", nil)
}

// SetDialogBehavior decides how the next JavaScript dialog (alert, confirm,
// prompt) is answered. promptText is typed into prompt dialogs when
// accepting.
func (s *Session) SetDialogBehavior(accept bool, promptText string) {
	s.dialogAccept = accept
	s.dialogText = promptText
	s.logger.Info("dialog behavior set", zap.Bool("accept", accept))
}

// armDialogHandler answers dialogs as they open so pages never hang on a
// modal nobody is watching.
func (s *Session) armDialogHandler(tab *Tab) {
	chromedp.ListenTarget(tab.ctx, func(ev any) {
		if e, ok := ev.(*page.EventJavascriptDialogOpening); ok {
			accept, text := s.dialogAccept, s.dialogText
			s.logger.Info("dialog opening",
				zap.String("type", string(e.Type)),
				zap.String("message", e.Message),
				zap.Bool("accept", accept))
			go func() {
				action := page.HandleJavaScriptDialog(accept)
				if accept && text != "" {
					action = action.WithPromptText(text)
				}
				if err := chromedp.Run(tab.ctx, action); err != nil {
					s.logger.Warn("failed to handle dialog", zap.Error(err))
				}
			}()
		}
	})
}

// NetworkConditions emulates network link characteristics. Throughput is in
// bytes per second; -1 disables throttling of that direction.
type NetworkConditions struct {
	Offline            bool    `json:"offline"`
	LatencyMs          float64 `json:"latency_ms"`
	DownloadThroughput float64 `json:"download_throughput"`
	UploadThroughput   float64 `json:"upload_throughput"`
}

// SetNetworkConditions applies network emulation to the current tab.
func (s *Session) SetNetworkConditions(ctx context.Context, nc NetworkConditions) error {
	s.logger.Info("setting network conditions",
		zap.Bool("offline", nc.Offline),
		zap.Float64("latency_ms", nc.LatencyMs))
	return s.run(s.cfg.ActionTimeout, chromedp.ActionFunc(func(ctx context.Context) error {
		return network.EmulateNetworkConditions(
			nc.Offline, nc.LatencyMs, nc.DownloadThroughput, nc.UploadThroughput,
		).Do(ctx)
	}))
}
