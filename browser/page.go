package browser

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	cdpdom "github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/BaSui01/browserpilot/types"
)

// Navigate loads url in the current tab. Navigation resets the frame
// override.
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.logger.Debug("navigating", zap.String("url", url))
	s.frameExpr = ""
	if err := s.run(s.cfg.NavigationTimeout, chromedp.Navigate(url)); err != nil {
		if types.GetErrorCode(err) != "" {
			return err
		}
		return types.NewError(types.ErrNavigationFailed, "navigation to "+url+" failed").WithCause(err)
	}
	return nil
}

// Back navigates the current tab one history entry back.
func (s *Session) Back(ctx context.Context) error {
	s.frameExpr = ""
	return s.run(s.cfg.NavigationTimeout, chromedp.NavigateBack())
}

// CurrentURL returns the current tab's URL.
func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	var url string
	if err := s.run(s.cfg.ActionTimeout, chromedp.Location(&url)); err != nil {
		return "", err
	}
	return url, nil
}

// Title returns the current tab's document title.
func (s *Session) Title(ctx context.Context) (string, error) {
	var title string
	if err := s.run(s.cfg.ActionTimeout, chromedp.Title(&title)); err != nil {
		return "", err
	}
	return title, nil
}

// Evaluate runs a JavaScript expression in the current tab and unmarshals
// its result into out (which may be nil). When a frame override is active
// the expression is evaluated inside that frame's window.
func (s *Session) Evaluate(ctx context.Context, expression string, out any) error {
	expr := expression
	if s.frameExpr != "" {
		expr = fmt.Sprintf(`(() => {
	const __frame = (%s);
	if (!__frame || !__frame.contentWindow) { throw new Error("frame not available"); }
	return __frame.contentWindow.eval(%s);
})()`, s.frameExpr, strconv.Quote(expression))
	}
	return s.run(s.cfg.ActionTimeout, chromedp.Evaluate(expr, out))
}

// Screenshot captures the current viewport as PNG.
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := s.run(s.cfg.NavigationTimeout, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, err
	}
	return buf, nil
}

// ScreenshotJPEG captures the current viewport as JPEG at the given
// quality, for the live stream where frame size matters more than fidelity.
func (s *Session) ScreenshotJPEG(ctx context.Context, quality int) ([]byte, error) {
	var buf []byte
	err := s.run(s.cfg.NavigationTimeout, chromedp.ActionFunc(func(ctx context.Context) error {
		data, err := page.CaptureScreenshot().
			WithFormat(page.CaptureScreenshotFormatJpeg).
			WithQuality(int64(quality)).
			Do(ctx)
		if err != nil {
			return err
		}
		buf = data
		return nil
	}))
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// HTML returns the document's outer HTML. With a frame override active the
// frame's document is returned instead.
func (s *Session) HTML(ctx context.Context) (string, error) {
	if s.frameExpr != "" {
		var html string
		if err := s.Evaluate(ctx, "document.documentElement.outerHTML", &html); err != nil {
			return "", err
		}
		return html, nil
	}

	var html string
	err := s.run(s.cfg.ActionTimeout, chromedp.ActionFunc(func(ctx context.Context) error {
		node, err := cdpdom.GetDocument().Do(ctx)
		if err != nil {
			return err
		}
		html, err = cdpdom.GetOuterHTML().WithNodeID(node.NodeID).Do(ctx)
		return err
	}))
	if err != nil {
		return "", err
	}
	return html, nil
}

// ScrollBy scrolls the page (or the current frame) by the given deltas.
func (s *Session) ScrollBy(ctx context.Context, dx, dy int) error {
	return s.Evaluate(ctx, fmt.Sprintf("window.scrollBy(%d, %d); true", dx, dy), nil)
}

// ScrollToTop scrolls to the top of the page.
func (s *Session) ScrollToTop(ctx context.Context) error {
	return s.Evaluate(ctx, "window.scrollTo(0, 0); true", nil)
}

// ScrollToBottom scrolls to the bottom of the page.
func (s *Session) ScrollToBottom(ctx context.Context) error {
	return s.Evaluate(ctx, "window.scrollTo(0, document.body.scrollHeight); true", nil)
}

// ScrollToText scrolls the first element containing text into view.
// Returns false when no match exists.
func (s *Session) ScrollToText(ctx context.Context, text string) (bool, error) {
	js := fmt.Sprintf(`(() => {
	const needle = %s;
	const walker = document.createTreeWalker(document.body, NodeFilter.SHOW_TEXT);
	let node;
	while ((node = walker.nextNode())) {
		if (node.textContent.includes(needle)) {
			(node.parentElement || document.body).scrollIntoView({block: "center"});
			return true;
		}
	}
	return false;
})()`, strconv.Quote(text))

	var found bool
	if err := s.Evaluate(ctx, js, &found); err != nil {
		return false, err
	}
	return found, nil
}

// PDFOptions control PDF rendering.
type PDFOptions struct {
	Landscape       bool
	PrintBackground bool
	// Paper format: A4, Letter, Legal. Defaults to A4.
	Format string
	Scale  float64
}

// paper sizes in inches
var paperSizes = map[string][2]float64{
	"a4":     {8.27, 11.69},
	"letter": {8.5, 11},
	"legal":  {8.5, 14},
}

// PrintPDF renders the current page to PDF.
func (s *Session) PrintPDF(ctx context.Context, opts PDFOptions) ([]byte, error) {
	size, ok := paperSizes[strings.ToLower(opts.Format)]
	if !ok {
		size = paperSizes["a4"]
	}
	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}

	var buf []byte
	err := s.run(s.cfg.NavigationTimeout, chromedp.ActionFunc(func(ctx context.Context) error {
		data, _, err := page.PrintToPDF().
			WithLandscape(opts.Landscape).
			WithPrintBackground(opts.PrintBackground).
			WithPaperWidth(size[0]).
			WithPaperHeight(size[1]).
			WithScale(scale).
			Do(ctx)
		if err != nil {
			return err
		}
		buf = data
		return nil
	}))
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// DropdownOption is one option of a select element.
type DropdownOption struct {
	Index    int    `json:"index"`
	Text     string `json:"text"`
	Value    string `json:"value"`
	Selected bool   `json:"selected"`
}

// DropdownOptions lists the options of the select element matched by sel.
func (s *Session) DropdownOptions(ctx context.Context, sel string) ([]DropdownOption, error) {
	js := fmt.Sprintf(`(() => {
	const el = document.querySelector(%s);
	if (!el || el.tagName.toLowerCase() !== "select") { throw new Error("not a select element"); }
	return Array.from(el.options).map((o, i) => ({
		index: i, text: o.text, value: o.value, selected: o.selected
	}));
})()`, strconv.Quote(sel))

	var options []DropdownOption
	if err := s.Evaluate(ctx, js, &options); err != nil {
		return nil, types.NewError(types.ErrElementNotFound, "dropdown not found").WithCause(err)
	}
	return options, nil
}

// SelectDropdownOption selects the option whose text equals optionText and
// fires the change event. Returns false when no option matches.
func (s *Session) SelectDropdownOption(ctx context.Context, sel, optionText string) (bool, error) {
	js := fmt.Sprintf(`(() => {
	const el = document.querySelector(%s);
	if (!el || el.tagName.toLowerCase() !== "select") { throw new Error("not a select element"); }
	for (const o of el.options) {
		if (o.text.trim() === %s) {
			el.value = o.value;
			el.dispatchEvent(new Event("change", {bubbles: true}));
			return true;
		}
	}
	return false;
})()`, strconv.Quote(sel), strconv.Quote(strings.TrimSpace(optionText)))

	var selected bool
	if err := s.Evaluate(ctx, js, &selected); err != nil {
		return false, types.NewError(types.ErrElementNotFound, "dropdown not found").WithCause(err)
	}
	return selected, nil
}

// SwitchFrame points subsequent frame-aware operations at an iframe. The
// reference may be a zero-based iframe index, a frame name or id, or a raw
// CSS selector. Cross-origin frames cannot be driven and are rejected.
func (s *Session) SwitchFrame(ctx context.Context, ref string) error {
	expr := frameExprFor(ref)

	var accessible bool
	check := fmt.Sprintf("(() => { const f = (%s); return !!(f && f.contentDocument); })()", expr)
	// Check against the main frame, not a previously selected one.
	prev := s.frameExpr
	s.frameExpr = ""
	err := s.Evaluate(ctx, check, &accessible)
	if err != nil {
		s.frameExpr = prev
		return err
	}
	if !accessible {
		s.frameExpr = prev
		return types.NewError(types.ErrFrameNotFound,
			"frame "+strconv.Quote(ref)+" not found or not accessible")
	}

	s.frameExpr = expr
	s.logger.Info("switched to frame", zap.String("ref", ref))
	return nil
}

// SwitchToMainFrame clears the frame override.
func (s *Session) SwitchToMainFrame() {
	s.frameExpr = ""
}

// InFrame reports whether a frame override is active.
func (s *Session) InFrame() bool { return s.frameExpr != "" }

// frameExprFor builds the JS expression resolving a frame reference.
func frameExprFor(ref string) string {
	trimmed := strings.TrimSpace(ref)
	if idx, err := strconv.Atoi(trimmed); err == nil {
		return fmt.Sprintf(`document.querySelectorAll("iframe")[%d]`, idx)
	}
	if strings.ContainsAny(trimmed, "#.[> ") {
		// raw CSS selector
		return fmt.Sprintf("document.querySelector(%s)", strconv.Quote(trimmed))
	}
	// bare identifier: match by name or id
	sel := fmt.Sprintf(`iframe[name=%q], iframe[id=%q]`, trimmed, trimmed)
	return fmt.Sprintf("document.querySelector(%s)", strconv.Quote(sel))
}
