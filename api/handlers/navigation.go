package handlers

import "net/http"

// HandleNavigate handles POST /automation/navigate_to.
func (h *AutomationHandler) HandleNavigate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	WriteResult(w, h.svc.Navigate(r.Context(), req.URL))
}

// HandleSearchGoogle handles POST /automation/search_google.
func (h *AutomationHandler) HandleSearchGoogle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	WriteResult(w, h.svc.SearchGoogle(r.Context(), req.Query))
}

// HandleGoBack handles POST /automation/go_back.
func (h *AutomationHandler) HandleGoBack(w http.ResponseWriter, r *http.Request) {
	WriteResult(w, h.svc.GoBack(r.Context()))
}

// HandleWait handles POST /automation/wait.
func (h *AutomationHandler) HandleWait(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Seconds float64 `json:"seconds"`
	}
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	WriteResult(w, h.svc.Wait(r.Context(), req.Seconds))
}
