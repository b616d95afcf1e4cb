package handlers

import (
	"net/http"

	"github.com/BaSui01/browserpilot/browser"
)

// HandleOpenTab handles POST /automation/open_tab.
func (h *AutomationHandler) HandleOpenTab(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	WriteResult(w, h.svc.OpenTab(r.Context(), req.URL))
}

// HandleSwitchTab handles POST /automation/switch_tab.
func (h *AutomationHandler) HandleSwitchTab(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TabIndex int `json:"tab_index"`
	}
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	WriteResult(w, h.svc.SwitchTab(r.Context(), req.TabIndex))
}

// HandleCloseTab handles POST /automation/close_tab.
func (h *AutomationHandler) HandleCloseTab(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TabIndex int `json:"tab_index"`
	}
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	WriteResult(w, h.svc.CloseTab(r.Context(), req.TabIndex))
}

// HandleSwitchFrame handles POST /automation/switch_to_frame.
func (h *AutomationHandler) HandleSwitchFrame(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Frame elementRef `json:"frame"`
	}
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	WriteResult(w, h.svc.SwitchFrame(r.Context(), string(req.Frame)))
}

// HandleSwitchToMainFrame handles POST /automation/switch_to_main_frame.
func (h *AutomationHandler) HandleSwitchToMainFrame(w http.ResponseWriter, r *http.Request) {
	WriteResult(w, h.svc.SwitchToMainFrame(r.Context()))
}

// HandleGetCookies handles POST /automation/get_cookies.
func (h *AutomationHandler) HandleGetCookies(w http.ResponseWriter, r *http.Request) {
	WriteResult(w, h.svc.GetCookies(r.Context()))
}

// HandleSetCookie handles POST /automation/set_cookie.
func (h *AutomationHandler) HandleSetCookie(w http.ResponseWriter, r *http.Request) {
	var req browser.Cookie
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	WriteResult(w, h.svc.SetCookie(r.Context(), req))
}

// HandleClearCookies handles POST /automation/clear_cookies.
func (h *AutomationHandler) HandleClearCookies(w http.ResponseWriter, r *http.Request) {
	WriteResult(w, h.svc.ClearCookies(r.Context()))
}

// HandleClearLocalStorage handles POST /automation/clear_local_storage.
func (h *AutomationHandler) HandleClearLocalStorage(w http.ResponseWriter, r *http.Request) {
	WriteResult(w, h.svc.ClearLocalStorage(r.Context()))
}

// HandleAcceptDialog handles POST /automation/accept_dialog.
func (h *AutomationHandler) HandleAcceptDialog(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PromptText string `json:"prompt_text"`
	}
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	WriteResult(w, h.svc.AcceptDialog(req.PromptText))
}

// HandleDismissDialog handles POST /automation/dismiss_dialog.
func (h *AutomationHandler) HandleDismissDialog(w http.ResponseWriter, r *http.Request) {
	WriteResult(w, h.svc.DismissDialog())
}

// HandleSetNetworkConditions handles POST /automation/set_network_conditions.
func (h *AutomationHandler) HandleSetNetworkConditions(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Offline            bool    `json:"offline"`
		LatencyMS          float64 `json:"latency_ms"`
		DownloadThroughput float64 `json:"download_throughput"`
		UploadThroughput   float64 `json:"upload_throughput"`
	}
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	WriteResult(w, h.svc.SetNetworkConditions(r.Context(), browser.NetworkConditions{
		Offline:            req.Offline,
		LatencyMs:          req.LatencyMS,
		DownloadThroughput: req.DownloadThroughput,
		UploadThroughput:   req.UploadThroughput,
	}))
}
