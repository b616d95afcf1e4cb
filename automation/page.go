package automation

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/BaSui01/browserpilot/browser"
	"github.com/BaSui01/browserpilot/dom"
	"github.com/BaSui01/browserpilot/types"
)

func (s *Service) scrollAmount(ctx context.Context, amount int) int {
	if amount > 0 {
		return amount
	}
	// default to one viewport height
	var h int
	if err := s.browser.Evaluate(ctx, "window.innerHeight", &h); err != nil || h <= 0 {
		return 720
	}
	return h
}

// ScrollDown scrolls down by amount pixels, or one viewport height when
// amount is zero.
func (s *Service) ScrollDown(ctx context.Context, amount int) *types.ActionResult {
	if r := s.ready(); r != nil {
		return r
	}
	px := s.scrollAmount(ctx, amount)
	if err := s.browser.ScrollBy(ctx, 0, px); err != nil {
		return types.FailWith(err)
	}
	return s.finish(ctx, types.OK(fmt.Sprintf("scrolled down %d pixels", px)))
}

// ScrollUp scrolls up by amount pixels, or one viewport height when
// amount is zero.
func (s *Service) ScrollUp(ctx context.Context, amount int) *types.ActionResult {
	if r := s.ready(); r != nil {
		return r
	}
	px := s.scrollAmount(ctx, amount)
	if err := s.browser.ScrollBy(ctx, 0, -px); err != nil {
		return types.FailWith(err)
	}
	return s.finish(ctx, types.OK(fmt.Sprintf("scrolled up %d pixels", px)))
}

// ScrollToText scrolls the first element containing text into view.
func (s *Service) ScrollToText(ctx context.Context, text string) *types.ActionResult {
	if r := s.ready(); r != nil {
		return r
	}
	if text == "" {
		return types.FailWith(types.NewError(types.ErrInvalidRequest, "text is required"))
	}
	found, err := s.browser.ScrollToText(ctx, text)
	if err != nil {
		return types.FailWith(err)
	}
	if !found {
		return types.Fail(fmt.Sprintf("text %q not found on page", text))
	}
	return s.finish(ctx, types.OK(fmt.Sprintf("scrolled to %q", text)))
}

// OpenTab opens a new tab, optionally navigating it, and makes it
// current.
func (s *Service) OpenTab(ctx context.Context, url string) *types.ActionResult {
	index, err := s.browser.OpenTab(ctx, url)
	if err != nil {
		return types.FailWith(err)
	}
	res := s.finish(ctx, types.OK(fmt.Sprintf("opened tab %d", index)))
	res.Data = map[string]any{"tab_index": index, "tab_count": s.browser.TabCount()}
	return res
}

// SwitchTab makes the tab at index current.
func (s *Service) SwitchTab(ctx context.Context, index int) *types.ActionResult {
	if err := s.browser.SwitchTab(index); err != nil {
		return types.FailWith(err)
	}
	res := s.finish(ctx, types.OK(fmt.Sprintf("switched to tab %d", index)))
	res.Data = map[string]any{"tab_index": index, "tab_count": s.browser.TabCount()}
	return res
}

// CloseTab closes the tab at index.
func (s *Service) CloseTab(ctx context.Context, index int) *types.ActionResult {
	if err := s.browser.CloseTab(index); err != nil {
		return types.FailWith(err)
	}
	msg := fmt.Sprintf("closed tab %d", index)
	if s.browser.TabCount() == 0 {
		res := types.OK(msg)
		res.Data = map[string]any{"tab_count": 0}
		return res
	}
	res := s.finish(ctx, types.OK(msg))
	res.Data = map[string]any{"tab_index": s.browser.CurrentTab(), "tab_count": s.browser.TabCount()}
	return res
}

// SwitchFrame scopes subsequent operations to an iframe, referenced by
// name, id, index, or CSS selector.
func (s *Service) SwitchFrame(ctx context.Context, ref string) *types.ActionResult {
	if r := s.ready(); r != nil {
		return r
	}
	if err := s.browser.SwitchFrame(ctx, ref); err != nil {
		return types.FailWith(err)
	}
	return s.finish(ctx, types.OK(fmt.Sprintf("switched to frame %q", ref)))
}

// SwitchToMainFrame returns scope to the top document.
func (s *Service) SwitchToMainFrame(ctx context.Context) *types.ActionResult {
	if r := s.ready(); r != nil {
		return r
	}
	s.browser.SwitchToMainFrame()
	return s.finish(ctx, types.OK("switched to main frame"))
}

// GetCookies returns the cookies visible to the session.
func (s *Service) GetCookies(ctx context.Context) *types.ActionResult {
	if r := s.ready(); r != nil {
		return r
	}
	cookies, err := s.browser.Cookies(ctx)
	if err != nil {
		return types.FailWith(err)
	}
	res := types.OK(fmt.Sprintf("%d cookies", len(cookies)))
	res.Data = map[string]any{"cookies": cookies}
	return res
}

// SetCookie sets one cookie.
func (s *Service) SetCookie(ctx context.Context, c browser.Cookie) *types.ActionResult {
	if r := s.ready(); r != nil {
		return r
	}
	if c.Name == "" {
		return types.FailWith(types.NewError(types.ErrInvalidRequest, "cookie name is required"))
	}
	if err := s.browser.SetCookie(ctx, c); err != nil {
		return types.FailWith(err)
	}
	return types.OK("cookie " + c.Name + " set")
}

// ClearCookies removes all cookies.
func (s *Service) ClearCookies(ctx context.Context) *types.ActionResult {
	if r := s.ready(); r != nil {
		return r
	}
	if err := s.browser.ClearCookies(ctx); err != nil {
		return types.FailWith(err)
	}
	return types.OK("cookies cleared")
}

// ClearLocalStorage wipes localStorage and sessionStorage for the
// current origin.
func (s *Service) ClearLocalStorage(ctx context.Context) *types.ActionResult {
	if r := s.ready(); r != nil {
		return r
	}
	if err := s.browser.ClearLocalStorage(ctx); err != nil {
		return types.FailWith(err)
	}
	return types.OK("local storage cleared")
}

// AcceptDialog makes the session accept future JavaScript dialogs,
// answering prompts with promptText.
func (s *Service) AcceptDialog(promptText string) *types.ActionResult {
	s.browser.SetDialogBehavior(true, promptText)
	return types.OK("dialogs will be accepted")
}

// DismissDialog makes the session dismiss future JavaScript dialogs.
func (s *Service) DismissDialog() *types.ActionResult {
	s.browser.SetDialogBehavior(false, "")
	return types.OK("dialogs will be dismissed")
}

// ExtractContent returns the page's readable text and links. The goal
// string is advisory; it is echoed back so agents can correlate
// extractions with intents.
func (s *Service) ExtractContent(ctx context.Context, goal string) *types.ActionResult {
	if r := s.ready(); r != nil {
		return r
	}
	html, err := s.browser.HTML(ctx)
	if err != nil {
		return types.FailWith(err)
	}
	text, err := dom.ExtractText(html)
	if err != nil {
		return types.FailWith(types.NewError(types.ErrExtractionFailed, "failed to parse page HTML").WithCause(err))
	}
	links, err := dom.ExtractLinks(html)
	if err != nil {
		return types.FailWith(types.NewError(types.ErrExtractionFailed, "failed to parse page HTML").WithCause(err))
	}

	msg := "content extracted"
	if goal != "" {
		msg = fmt.Sprintf("content extracted for goal %q", goal)
	}
	res := types.OK(msg)
	res.Content = text
	res.Data = map[string]any{"links": links}
	if u, err := s.browser.CurrentURL(ctx); err == nil {
		res.URL = u
	}
	if title, err := s.browser.Title(ctx); err == nil {
		res.Title = title
	}
	return res
}

// Screenshot captures the viewport as base64 PNG.
func (s *Service) Screenshot(ctx context.Context) *types.ActionResult {
	if r := s.ready(); r != nil {
		return r
	}
	shot, err := s.browser.Screenshot(ctx)
	if err != nil {
		return types.FailWith(err)
	}
	res := types.OK("screenshot captured")
	res.ScreenshotBase64 = base64.StdEncoding.EncodeToString(shot)
	if u, err := s.browser.CurrentURL(ctx); err == nil {
		res.URL = u
	}
	return res
}

// SavePDF prints the page to PDF and returns it base64 encoded.
func (s *Service) SavePDF(ctx context.Context, opts browser.PDFOptions) *types.ActionResult {
	if r := s.ready(); r != nil {
		return r
	}
	data, err := s.browser.PrintPDF(ctx, opts)
	if err != nil {
		return types.FailWith(err)
	}
	res := types.OK("page printed to pdf")
	res.Data = map[string]any{
		"pdf_base64": base64.StdEncoding.EncodeToString(data),
		"size_bytes": len(data),
	}
	return res
}

// selectorFor resolves ref to a CSS selector; point-only targets cannot
// address a dropdown.
func (s *Service) selectorFor(ctx context.Context, ref string) (string, *types.ActionResult) {
	snap, fail := s.snapshot(ctx)
	if fail != nil {
		return "", fail
	}
	target, err := dom.NewResolver(snap.Elements).Resolve(ref, 0, 0)
	if err != nil {
		return "", resolveFailure(err, snap)
	}
	if target.Selector == "" {
		return "", resolveFailure(types.NewError(types.ErrNoResolvableTarget,
			"element "+ref+" has no selector to address it by"), snap)
	}
	return target.Selector, nil
}

// GetDropdownOptions lists the options of a select element.
func (s *Service) GetDropdownOptions(ctx context.Context, ref string) *types.ActionResult {
	if r := s.ready(); r != nil {
		return r
	}
	sel, fail := s.selectorFor(ctx, ref)
	if fail != nil {
		return fail
	}
	options, err := s.browser.DropdownOptions(ctx, sel)
	if err != nil {
		return types.FailWith(err)
	}
	res := types.OK(fmt.Sprintf("%d options", len(options)))
	res.Data = map[string]any{"options": options}
	return res
}

// SelectDropdownOption selects the option with the given visible text.
func (s *Service) SelectDropdownOption(ctx context.Context, ref, optionText string) *types.ActionResult {
	if r := s.ready(); r != nil {
		return r
	}
	sel, fail := s.selectorFor(ctx, ref)
	if fail != nil {
		return fail
	}
	ok, err := s.browser.SelectDropdownOption(ctx, sel, optionText)
	if err != nil {
		return types.FailWith(err)
	}
	if !ok {
		return types.Fail(fmt.Sprintf("option %q not found in dropdown", optionText))
	}
	return s.finish(ctx, types.OK(fmt.Sprintf("selected option %q", optionText)))
}

// SetNetworkConditions applies network emulation to the session.
func (s *Service) SetNetworkConditions(ctx context.Context, nc browser.NetworkConditions) *types.ActionResult {
	if r := s.ready(); r != nil {
		return r
	}
	if err := s.browser.SetNetworkConditions(ctx, nc); err != nil {
		return types.FailWith(err)
	}
	if nc.Offline {
		return types.OK("network set offline")
	}
	return types.OK("network conditions applied")
}
