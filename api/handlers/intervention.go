package handlers

import (
	"net/http"

	"github.com/BaSui01/browserpilot/automation"
	"github.com/BaSui01/browserpilot/intervention"
)

// HandleRequestIntervention handles POST /automation/request_intervention.
func (h *AutomationHandler) HandleRequestIntervention(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type           string         `json:"intervention_type"`
		Message        string         `json:"message"`
		Instructions   string         `json:"instructions"`
		Context        map[string]any `json:"context"`
		TimeoutSeconds *int           `json:"timeout_seconds"`
		TakeScreenshot *bool          `json:"take_screenshot"`
		AutoDetect     bool           `json:"auto_detect"`
	}
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	WriteResult(w, h.svc.RequestIntervention(r.Context(), automation.InterventionParams{
		Type:           req.Type,
		Message:        req.Message,
		Instructions:   req.Instructions,
		Context:        req.Context,
		TimeoutSeconds: req.TimeoutSeconds,
		TakeScreenshot: req.TakeScreenshot,
		AutoDetect:     req.AutoDetect,
	}))
}

// HandleInterventionStatus handles POST /automation/intervention_status.
func (h *AutomationHandler) HandleInterventionStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"intervention_id"`
	}
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	WriteResult(w, h.svc.InterventionStatus(r.Context(), req.ID))
}

// HandleCompleteIntervention handles POST /automation/complete_intervention.
// success=false records the attempt as failed rather than completed.
func (h *AutomationHandler) HandleCompleteIntervention(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID          string `json:"intervention_id"`
		UserMessage string `json:"user_message"`
		Note        string `json:"completion_note"`
		Success     *bool  `json:"success"`
	}
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	note := req.UserMessage
	if note == "" {
		note = req.Note
	}
	success := req.Success == nil || *req.Success
	WriteResult(w, h.svc.CompleteIntervention(r.Context(), req.ID, note, success))
}

// HandleCancelIntervention handles POST /automation/cancel_intervention.
func (h *AutomationHandler) HandleCancelIntervention(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     string `json:"intervention_id"`
		Reason string `json:"reason"`
	}
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	WriteResult(w, h.svc.CancelIntervention(r.Context(), req.ID, req.Reason))
}

// HandleListInterventions handles POST /automation/list_interventions.
func (h *AutomationHandler) HandleListInterventions(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	WriteResult(w, h.svc.ListInterventions(r.Context(), req.Status))
}

// HandleAutoDetectIntervention handles POST /automation/auto_detect_intervention.
// Unset check flags default to true, so an empty body probes everything.
func (h *AutomationHandler) HandleAutoDetectIntervention(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CheckCaptcha  *bool `json:"check_captcha"`
		CheckLogin    *bool `json:"check_login"`
		CheckSecurity *bool `json:"check_security"`
		CheckAntiBot  *bool `json:"check_anti_bot"`
		CheckCookies  *bool `json:"check_cookies"`
	}
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	on := func(p *bool) bool { return p == nil || *p }
	WriteResult(w, h.svc.AutoDetectIntervention(r.Context(), intervention.Checks{
		Captcha:  on(req.CheckCaptcha),
		Login:    on(req.CheckLogin),
		Security: on(req.CheckSecurity),
		AntiBot:  on(req.CheckAntiBot),
		Cookies:  on(req.CheckCookies),
	}))
}
