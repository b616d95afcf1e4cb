package handlers

import (
	"net/http"

	"github.com/BaSui01/browserpilot/browser"
)

// HandleExtractContent handles POST /automation/extract_content.
func (h *AutomationHandler) HandleExtractContent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Goal string `json:"goal"`
	}
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	WriteResult(w, h.svc.ExtractContent(r.Context(), req.Goal))
}

// HandleScreenshot handles POST /automation/screenshot.
func (h *AutomationHandler) HandleScreenshot(w http.ResponseWriter, r *http.Request) {
	WriteResult(w, h.svc.Screenshot(r.Context()))
}

// HandleSavePDF handles POST /automation/save_pdf.
func (h *AutomationHandler) HandleSavePDF(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Format          string  `json:"format"`
		Landscape       bool    `json:"landscape"`
		PrintBackground bool    `json:"print_background"`
		Scale           float64 `json:"scale"`
	}
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	WriteResult(w, h.svc.SavePDF(r.Context(), browser.PDFOptions{
		Format:          req.Format,
		Landscape:       req.Landscape,
		PrintBackground: req.PrintBackground,
		Scale:           req.Scale,
	}))
}
