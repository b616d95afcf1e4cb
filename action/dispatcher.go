package action

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/BaSui01/browserpilot/dom"
	"github.com/BaSui01/browserpilot/types"
)

// Page is the capability surface the dispatcher drives. browser.Session
// implements it.
type Page interface {
	dom.Evaluator

	ClickSelector(ctx context.Context, sel string) error
	ClickPoint(ctx context.Context, x, y float64) error
	Fill(ctx context.Context, sel, text string) error
	TypeText(ctx context.Context, text string) error
	Press(ctx context.Context, combo string) error
	MouseMove(ctx context.Context, x, y float64) error
	MouseDown(ctx context.Context, x, y float64) error
	MouseUp(ctx context.Context, x, y float64) error
}

// Outcome is the result of one dispatched action. The dispatcher never
// returns a Go error: every failure is reported through the outcome.
type Outcome struct {
	Success bool
	Message string
	// Err is set when Success is false.
	Err error
	// UsedFallback reports that the selector path failed and the action
	// was retried once at the element's page coordinates.
	UsedFallback bool
	// FailedStep is the interpolation step a drag failed at, -1 otherwise.
	FailedStep int
	// Path holds the drag waypoints actually traversed.
	Path []Point
}

func success(message string) Outcome {
	return Outcome{Success: true, Message: message, FailedStep: -1}
}

func failure(err error) Outcome {
	return Outcome{Success: false, Err: err, FailedStep: -1}
}

// FallbackRecorder counts coordinate fallback attempts per action.
type FallbackRecorder interface {
	RecordCoordinateFallback(action, status string)
}

// Dispatcher executes resolved targets against a page.
type Dispatcher struct {
	page    Page
	logger  *zap.Logger
	metrics FallbackRecorder
}

// NewDispatcher creates a dispatcher over the given page.
func NewDispatcher(page Page, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		page:   page,
		logger: logger.With(zap.String("component", "action_dispatcher")),
	}
}

// SetMetrics attaches a fallback recorder. Nil leaves recording off.
func (d *Dispatcher) SetMetrics(r FallbackRecorder) { d.metrics = r }

func (d *Dispatcher) recordFallback(action string, ok bool) {
	if d.metrics == nil {
		return
	}
	status := "success"
	if !ok {
		status = "error"
	}
	d.metrics.RecordCoordinateFallback(action, status)
}

// Click clicks the target. Selector targets that also carry a point are
// retried exactly once at the point when the selector path fails;
// point-only targets have no further fallback.
func (d *Dispatcher) Click(ctx context.Context, t dom.Target) Outcome {
	switch {
	case t.Selector != "":
		err := d.page.ClickSelector(ctx, t.Selector)
		if err == nil {
			return success("clicked " + t.Selector)
		}
		if !t.HasPoint {
			return failure(err)
		}
		d.logger.Debug("selector click failed, falling back to coordinates",
			zap.String("selector", t.Selector), zap.Error(err))
		if err2 := d.page.ClickPoint(ctx, t.X, t.Y); err2 != nil {
			d.recordFallback("click", false)
			return failure(types.NewError(types.ErrActionFailed,
				fmt.Sprintf("click failed via selector (%v) and coordinates", err)).WithCause(err2))
		}
		d.recordFallback("click", true)
		out := success(fmt.Sprintf("clicked at (%.0f, %.0f) after selector fallback", t.X, t.Y))
		out.UsedFallback = true
		return out

	case t.HasPoint:
		if err := d.page.ClickPoint(ctx, t.X, t.Y); err != nil {
			return failure(err)
		}
		return success(fmt.Sprintf("clicked at (%.0f, %.0f)", t.X, t.Y))

	default:
		return failure(types.NewError(types.ErrNoResolvableTarget, "click target has no selector or point"))
	}
}

// InputText clears the target and types text into it. The selector path
// uses clear-and-fill; the coordinate path (fallback or point-only) clicks
// to focus, selects all, deletes, then types.
func (d *Dispatcher) InputText(ctx context.Context, t dom.Target, text string) Outcome {
	switch {
	case t.Selector != "":
		err := d.page.Fill(ctx, t.Selector, text)
		if err == nil {
			return success("input text into " + t.Selector)
		}
		if !t.HasPoint {
			return failure(err)
		}
		d.logger.Debug("selector input failed, falling back to coordinates",
			zap.String("selector", t.Selector), zap.Error(err))
		if err2 := d.typeAtPoint(ctx, t.X, t.Y, text); err2 != nil {
			d.recordFallback("input_text", false)
			return failure(types.NewError(types.ErrActionFailed,
				fmt.Sprintf("input failed via selector (%v) and coordinates", err)).WithCause(err2))
		}
		d.recordFallback("input_text", true)
		out := success(fmt.Sprintf("input text at (%.0f, %.0f) after selector fallback", t.X, t.Y))
		out.UsedFallback = true
		return out

	case t.HasPoint:
		if err := d.typeAtPoint(ctx, t.X, t.Y, text); err != nil {
			return failure(err)
		}
		return success(fmt.Sprintf("input text at (%.0f, %.0f)", t.X, t.Y))

	default:
		return failure(types.NewError(types.ErrNoResolvableTarget, "input target has no selector or point"))
	}
}

// typeAtPoint focuses by clicking, clears via select-all + backspace, and
// types the replacement text.
func (d *Dispatcher) typeAtPoint(ctx context.Context, x, y float64, text string) error {
	if err := d.page.ClickPoint(ctx, x, y); err != nil {
		return err
	}
	if err := d.page.Press(ctx, "Control+a"); err != nil {
		return err
	}
	if err := d.page.Press(ctx, "Backspace"); err != nil {
		return err
	}
	return d.page.TypeText(ctx, text)
}

// SendKeys dispatches a key or key combination to the focused element.
func (d *Dispatcher) SendKeys(ctx context.Context, keys string) Outcome {
	if err := d.page.Press(ctx, keys); err != nil {
		return failure(err)
	}
	return success("sent keys " + strconv.Quote(keys))
}
