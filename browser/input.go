package browser

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"go.uber.org/zap"

	"github.com/BaSui01/browserpilot/types"
)

// ClickSelector clicks the first element matched by sel. With a frame
// override active the click is dispatched inside the frame via JS.
func (s *Session) ClickSelector(ctx context.Context, sel string) error {
	s.logger.Debug("click selector", zap.String("selector", sel))
	if s.frameExpr != "" {
		js := fmt.Sprintf(`(() => {
	const el = document.querySelector(%s);
	if (!el) { throw new Error("no element matches selector"); }
	el.click();
	return true;
})()`, strconv.Quote(sel))
		if err := s.Evaluate(ctx, js, nil); err != nil {
			return types.NewError(types.ErrActionFailed, "click failed for "+sel).WithCause(err)
		}
		return nil
	}
	if err := s.run(s.cfg.ActionTimeout, chromedp.Click(sel, chromedp.ByQuery)); err != nil {
		if types.GetErrorCode(err) != "" {
			return err
		}
		return types.NewError(types.ErrActionFailed, "click failed for "+sel).WithCause(err)
	}
	return nil
}

// ClickPoint clicks at absolute page coordinates.
func (s *Session) ClickPoint(ctx context.Context, x, y float64) error {
	s.logger.Debug("click point", zap.Float64("x", x), zap.Float64("y", y))
	return s.run(s.cfg.ActionTimeout,
		chromedp.ActionFunc(func(ctx context.Context) error {
			return input.DispatchMouseEvent(input.MousePressed, x, y).
				WithButton(input.Left).WithClickCount(1).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			return input.DispatchMouseEvent(input.MouseReleased, x, y).
				WithButton(input.Left).WithClickCount(1).Do(ctx)
		}),
	)
}

// Fill clears the element matched by sel and types text into it.
func (s *Session) Fill(ctx context.Context, sel, text string) error {
	s.logger.Debug("fill", zap.String("selector", sel))
	if s.frameExpr != "" {
		js := fmt.Sprintf(`(() => {
	const el = document.querySelector(%s);
	if (!el) { throw new Error("no element matches selector"); }
	el.focus();
	el.value = %s;
	el.dispatchEvent(new Event("input", {bubbles: true}));
	el.dispatchEvent(new Event("change", {bubbles: true}));
	return true;
})()`, strconv.Quote(sel), strconv.Quote(text))
		if err := s.Evaluate(ctx, js, nil); err != nil {
			return types.NewError(types.ErrActionFailed, "fill failed for "+sel).WithCause(err)
		}
		return nil
	}
	err := s.run(s.cfg.ActionTimeout,
		chromedp.Clear(sel, chromedp.ByQuery),
		chromedp.SendKeys(sel, text, chromedp.ByQuery),
	)
	if err != nil {
		if types.GetErrorCode(err) != "" {
			return err
		}
		return types.NewError(types.ErrActionFailed, "fill failed for "+sel).WithCause(err)
	}
	return nil
}

// TypeText types text into whatever currently has focus, character by
// character.
func (s *Session) TypeText(ctx context.Context, text string) error {
	return s.run(s.cfg.ActionTimeout, chromedp.ActionFunc(func(ctx context.Context) error {
		for _, ch := range text {
			if err := input.DispatchKeyEvent(input.KeyChar).
				WithText(string(ch)).Do(ctx); err != nil {
				return err
			}
		}
		return nil
	}))
}

// Press dispatches a key or key combination to the focused element.
// Combos use "+" separators, e.g. "Enter", "Control+a", "Control+Shift+T".
func (s *Session) Press(ctx context.Context, combo string) error {
	keys, modifiers, err := parseKeyCombo(combo)
	if err != nil {
		return err
	}
	s.logger.Debug("press", zap.String("combo", combo))

	opts := []chromedp.KeyOption{}
	if modifiers != 0 {
		opts = append(opts, chromedp.KeyModifiers(modifiers))
	}
	return s.run(s.cfg.ActionTimeout, chromedp.KeyEvent(keys, opts...))
}

// MouseMove moves the mouse to absolute page coordinates.
func (s *Session) MouseMove(ctx context.Context, x, y float64) error {
	return s.run(s.cfg.ActionTimeout, chromedp.ActionFunc(func(ctx context.Context) error {
		return input.DispatchMouseEvent(input.MouseMoved, x, y).Do(ctx)
	}))
}

// MouseDown presses the left button at absolute page coordinates.
func (s *Session) MouseDown(ctx context.Context, x, y float64) error {
	return s.run(s.cfg.ActionTimeout, chromedp.ActionFunc(func(ctx context.Context) error {
		return input.DispatchMouseEvent(input.MousePressed, x, y).
			WithButton(input.Left).WithClickCount(1).Do(ctx)
	}))
}

// MouseUp releases the left button at absolute page coordinates.
func (s *Session) MouseUp(ctx context.Context, x, y float64) error {
	return s.run(s.cfg.ActionTimeout, chromedp.ActionFunc(func(ctx context.Context) error {
		return input.DispatchMouseEvent(input.MouseReleased, x, y).
			WithButton(input.Left).WithClickCount(1).Do(ctx)
	}))
}

// namedKeys maps case-insensitive key names to their kb encodings.
var namedKeys = map[string]string{
	"enter":      kb.Enter,
	"return":     kb.Enter,
	"tab":        kb.Tab,
	"escape":     kb.Escape,
	"esc":        kb.Escape,
	"backspace":  kb.Backspace,
	"delete":     kb.Delete,
	"space":      " ",
	"arrowup":    kb.ArrowUp,
	"arrowdown":  kb.ArrowDown,
	"arrowleft":  kb.ArrowLeft,
	"arrowright": kb.ArrowRight,
	"up":         kb.ArrowUp,
	"down":       kb.ArrowDown,
	"left":       kb.ArrowLeft,
	"right":      kb.ArrowRight,
	"home":       kb.Home,
	"end":        kb.End,
	"pageup":     kb.PageUp,
	"pagedown":   kb.PageDown,
}

// parseKeyCombo splits "Control+Shift+T" into the final key and its
// modifier mask.
func parseKeyCombo(combo string) (string, input.Modifier, error) {
	parts := strings.Split(combo, "+")
	if len(parts) == 0 || combo == "" {
		return "", 0, types.NewError(types.ErrInvalidRequest, "empty key combination")
	}

	var modifiers input.Modifier
	for _, part := range parts[:len(parts)-1] {
		switch strings.ToLower(strings.TrimSpace(part)) {
		case "control", "ctrl":
			modifiers |= input.ModifierCtrl
		case "shift":
			modifiers |= input.ModifierShift
		case "alt":
			modifiers |= input.ModifierAlt
		case "meta", "command", "cmd":
			modifiers |= input.ModifierCommand
		default:
			return "", 0, types.NewError(types.ErrInvalidRequest,
				"unknown modifier "+strconv.Quote(part))
		}
	}

	key := strings.TrimSpace(parts[len(parts)-1])
	if key == "" {
		return "", 0, types.NewError(types.ErrInvalidRequest, "key combination ends with a separator")
	}
	if named, ok := namedKeys[strings.ToLower(key)]; ok {
		return named, modifiers, nil
	}
	return key, modifiers, nil
}
