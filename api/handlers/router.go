package handlers

import (
	"net/http"
	"time"
)

// ActionRecorder receives one observation per automation operation.
type ActionRecorder interface {
	RecordAction(action, status string, duration time.Duration)
}

// Router assembles the full endpoint surface on a ServeMux.
type Router struct {
	Automation *AutomationHandler
	Health     *HealthHandler
	Live       *LiveHandler
	// Metrics, when set, records every automation operation by name.
	Metrics ActionRecorder
}

// Mount registers every route on mux. The live handler is optional.
func (rt *Router) Mount(mux *http.ServeMux) {
	auto := rt.Automation

	routes := map[string]http.HandlerFunc{
		"navigate_to":   auto.HandleNavigate,
		"search_google": auto.HandleSearchGoogle,
		"go_back":       auto.HandleGoBack,
		"wait":          auto.HandleWait,

		"click_element":     auto.HandleClickElement,
		"click_coordinates": auto.HandleClickCoordinates,
		"input_text":        auto.HandleInputText,
		"send_keys":         auto.HandleSendKeys,
		"drag_drop":         auto.HandleDragDrop,

		"scroll_down":    auto.HandleScrollDown,
		"scroll_up":      auto.HandleScrollUp,
		"scroll_to_text": auto.HandleScrollToText,

		"open_tab":   auto.HandleOpenTab,
		"switch_tab": auto.HandleSwitchTab,
		"close_tab":  auto.HandleCloseTab,

		"switch_to_frame":      auto.HandleSwitchFrame,
		"switch_to_main_frame": auto.HandleSwitchToMainFrame,

		"get_cookies":         auto.HandleGetCookies,
		"set_cookie":          auto.HandleSetCookie,
		"clear_cookies":       auto.HandleClearCookies,
		"clear_local_storage": auto.HandleClearLocalStorage,

		"accept_dialog":  auto.HandleAcceptDialog,
		"dismiss_dialog": auto.HandleDismissDialog,

		"extract_content": auto.HandleExtractContent,
		"screenshot":      auto.HandleScreenshot,
		"save_pdf":        auto.HandleSavePDF,

		"get_dropdown_options":   auto.HandleGetDropdownOptions,
		"select_dropdown_option": auto.HandleSelectDropdownOption,

		"set_network_conditions": auto.HandleSetNetworkConditions,

		"request_intervention":     auto.HandleRequestIntervention,
		"intervention_status":      auto.HandleInterventionStatus,
		"complete_intervention":    auto.HandleCompleteIntervention,
		"cancel_intervention":      auto.HandleCancelIntervention,
		"list_interventions":       auto.HandleListInterventions,
		"auto_detect_intervention": auto.HandleAutoDetectIntervention,
	}
	for name, handler := range routes {
		mux.HandleFunc("POST /automation/"+name, rt.instrument(name, handler))
	}

	mux.HandleFunc("GET /health", rt.Health.HandleHealth)
	mux.HandleFunc("GET /healthz", rt.Health.HandleHealthz)
	mux.HandleFunc("GET /ready", rt.Health.HandleReady)
	mux.HandleFunc("GET /version", rt.Health.HandleVersion)

	if rt.Live != nil {
		mux.HandleFunc("GET /live/ws", rt.Live.HandleWS)
	}
}

// instrument wraps an operation handler to record its outcome under the
// operation name rather than the URL path.
func (rt *Router) instrument(name string, handler http.HandlerFunc) http.HandlerFunc {
	if rt.Metrics == nil {
		return handler
	}
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := NewResponseWriter(w)
		handler(rw, r)

		status := "success"
		if rw.StatusCode >= http.StatusBadRequest {
			status = "error"
		}
		rt.Metrics.RecordAction(name, status, time.Since(start))
	}
}
