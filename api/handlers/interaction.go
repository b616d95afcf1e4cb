package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/BaSui01/browserpilot/automation"
)

// elementRef accepts an element reference as either a JSON number
// (snapshot index) or a string (index or raw CSS selector).
type elementRef string

func (e *elementRef) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*e = elementRef(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*e = elementRef(n.String())
		return nil
	}
	return fmt.Errorf("element reference must be a string or a number")
}

// HandleClickElement handles POST /automation/click_element.
func (h *AutomationHandler) HandleClickElement(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Index elementRef `json:"index"`
	}
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	WriteResult(w, h.svc.ClickElement(r.Context(), string(req.Index)))
}

// HandleClickCoordinates handles POST /automation/click_coordinates.
func (h *AutomationHandler) HandleClickCoordinates(w http.ResponseWriter, r *http.Request) {
	var req struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	WriteResult(w, h.svc.ClickCoordinates(r.Context(), req.X, req.Y))
}

// HandleInputText handles POST /automation/input_text.
func (h *AutomationHandler) HandleInputText(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Index elementRef `json:"index"`
		Text  string     `json:"text"`
	}
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	WriteResult(w, h.svc.InputText(r.Context(), string(req.Index), req.Text))
}

// HandleSendKeys handles POST /automation/send_keys.
func (h *AutomationHandler) HandleSendKeys(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Keys string `json:"keys"`
	}
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	WriteResult(w, h.svc.SendKeys(r.Context(), req.Keys))
}

// HandleDragDrop handles POST /automation/drag_drop.
func (h *AutomationHandler) HandleDragDrop(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ElementSource elementRef `json:"element_source"`
		ElementTarget elementRef `json:"element_target"`

		CoordSourceX *float64 `json:"coord_source_x"`
		CoordSourceY *float64 `json:"coord_source_y"`
		CoordTargetX *float64 `json:"coord_target_x"`
		CoordTargetY *float64 `json:"coord_target_y"`

		SourceOffsetX float64 `json:"element_source_offset_x"`
		SourceOffsetY float64 `json:"element_source_offset_y"`
		TargetOffsetX float64 `json:"element_target_offset_x"`
		TargetOffsetY float64 `json:"element_target_offset_y"`

		Steps   int `json:"steps"`
		DelayMS int `json:"delay_ms"`
	}
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}

	p := automation.DragParams{
		ElementSource: string(req.ElementSource),
		ElementTarget: string(req.ElementTarget),
		SourceOffsetX: req.SourceOffsetX,
		SourceOffsetY: req.SourceOffsetY,
		TargetOffsetX: req.TargetOffsetX,
		TargetOffsetY: req.TargetOffsetY,
		Steps:         req.Steps,
		DelayMS:       req.DelayMS,
	}
	if req.CoordSourceX != nil && req.CoordSourceY != nil {
		p.HasCoordSource = true
		p.CoordSourceX = *req.CoordSourceX
		p.CoordSourceY = *req.CoordSourceY
	}
	if req.CoordTargetX != nil && req.CoordTargetY != nil {
		p.HasCoordTarget = true
		p.CoordTargetX = *req.CoordTargetX
		p.CoordTargetY = *req.CoordTargetY
	}
	WriteResult(w, h.svc.DragDrop(r.Context(), p))
}

// HandleScrollDown handles POST /automation/scroll_down.
func (h *AutomationHandler) HandleScrollDown(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount int `json:"amount"`
	}
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	WriteResult(w, h.svc.ScrollDown(r.Context(), req.Amount))
}

// HandleScrollUp handles POST /automation/scroll_up.
func (h *AutomationHandler) HandleScrollUp(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount int `json:"amount"`
	}
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	WriteResult(w, h.svc.ScrollUp(r.Context(), req.Amount))
}

// HandleScrollToText handles POST /automation/scroll_to_text.
func (h *AutomationHandler) HandleScrollToText(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	WriteResult(w, h.svc.ScrollToText(r.Context(), req.Text))
}

// HandleGetDropdownOptions handles POST /automation/get_dropdown_options.
func (h *AutomationHandler) HandleGetDropdownOptions(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Index elementRef `json:"index"`
	}
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	WriteResult(w, h.svc.GetDropdownOptions(r.Context(), string(req.Index)))
}

// HandleSelectDropdownOption handles POST /automation/select_dropdown_option.
func (h *AutomationHandler) HandleSelectDropdownOption(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Index      elementRef `json:"index"`
		OptionText string     `json:"option_text"`
	}
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	WriteResult(w, h.svc.SelectDropdownOption(r.Context(), string(req.Index), req.OptionText))
}
