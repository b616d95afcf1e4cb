package handlers

import (
	"context"

	"go.uber.org/zap"

	"github.com/BaSui01/browserpilot/automation"
	"github.com/BaSui01/browserpilot/browser"
	"github.com/BaSui01/browserpilot/intervention"
	"github.com/BaSui01/browserpilot/types"
)

// Automation is the service surface the REST handlers expose.
// *automation.Service implements it.
type Automation interface {
	Navigate(ctx context.Context, url string) *types.ActionResult
	SearchGoogle(ctx context.Context, query string) *types.ActionResult
	GoBack(ctx context.Context) *types.ActionResult
	Wait(ctx context.Context, seconds float64) *types.ActionResult

	ClickElement(ctx context.Context, ref string) *types.ActionResult
	ClickCoordinates(ctx context.Context, x, y float64) *types.ActionResult
	InputText(ctx context.Context, ref, text string) *types.ActionResult
	SendKeys(ctx context.Context, keys string) *types.ActionResult
	DragDrop(ctx context.Context, p automation.DragParams) *types.ActionResult

	ScrollDown(ctx context.Context, amount int) *types.ActionResult
	ScrollUp(ctx context.Context, amount int) *types.ActionResult
	ScrollToText(ctx context.Context, text string) *types.ActionResult

	OpenTab(ctx context.Context, url string) *types.ActionResult
	SwitchTab(ctx context.Context, index int) *types.ActionResult
	CloseTab(ctx context.Context, index int) *types.ActionResult
	SwitchFrame(ctx context.Context, ref string) *types.ActionResult
	SwitchToMainFrame(ctx context.Context) *types.ActionResult

	GetCookies(ctx context.Context) *types.ActionResult
	SetCookie(ctx context.Context, c browser.Cookie) *types.ActionResult
	ClearCookies(ctx context.Context) *types.ActionResult
	ClearLocalStorage(ctx context.Context) *types.ActionResult
	AcceptDialog(promptText string) *types.ActionResult
	DismissDialog() *types.ActionResult
	SetNetworkConditions(ctx context.Context, nc browser.NetworkConditions) *types.ActionResult

	ExtractContent(ctx context.Context, goal string) *types.ActionResult
	Screenshot(ctx context.Context) *types.ActionResult
	SavePDF(ctx context.Context, opts browser.PDFOptions) *types.ActionResult
	GetDropdownOptions(ctx context.Context, ref string) *types.ActionResult
	SelectDropdownOption(ctx context.Context, ref, optionText string) *types.ActionResult

	RequestIntervention(ctx context.Context, p automation.InterventionParams) *types.ActionResult
	InterventionStatus(ctx context.Context, id string) *types.ActionResult
	CompleteIntervention(ctx context.Context, id, note string, success bool) *types.ActionResult
	CancelIntervention(ctx context.Context, id, reason string) *types.ActionResult
	ListInterventions(ctx context.Context, status string) *types.ActionResult
	AutoDetectIntervention(ctx context.Context, checks intervention.Checks) *types.ActionResult
}

// AutomationHandler serves the /automation endpoints. It parses
// requests, delegates to the service, and writes the envelope; all
// behavior lives in the service.
type AutomationHandler struct {
	svc    Automation
	logger *zap.Logger
}

// NewAutomationHandler creates the handler.
func NewAutomationHandler(svc Automation, logger *zap.Logger) *AutomationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AutomationHandler{
		svc:    svc,
		logger: logger.With(zap.String("component", "automation_handler")),
	}
}
