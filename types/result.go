package types

// ActionResult is the uniform envelope returned by every automation
// operation. Failures are reported in-band: Success is false and Error
// carries the reason, but the result object itself is always present.
type ActionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`

	// Extracted page content, when the operation produces any.
	Content string `json:"content,omitempty"`

	// Updated page state after the operation.
	URL                 string `json:"url,omitempty"`
	Title               string `json:"title,omitempty"`
	Elements            string `json:"elements,omitempty"`
	ScreenshotBase64    string `json:"screenshot_base64,omitempty"`
	PixelsAbove         int    `json:"pixels_above"`
	PixelsBelow         int    `json:"pixels_below"`
	ElementCount        int    `json:"element_count"`
	InteractiveElements []int  `json:"interactive_elements,omitempty"`

	// Operation-specific payload (intervention details, cookie lists,
	// dropdown options and the like).
	Data any `json:"data,omitempty"`
}

// OK creates a successful result with the given message.
func OK(message string) *ActionResult {
	return &ActionResult{Success: true, Message: message}
}

// Fail creates a failed result with the given error message.
func Fail(message string) *ActionResult {
	return &ActionResult{Success: false, Error: message}
}

// FailWith creates a failed result from a structured error, preserving
// the error code for callers that dispatch on it.
func FailWith(err error) *ActionResult {
	r := &ActionResult{Success: false}
	if err == nil {
		r.Error = "unknown error"
		return r
	}
	r.Error = err.Error()
	if e, ok := err.(*Error); ok {
		r.Error = e.Message
		r.Code = string(e.Code)
		if e.Cause != nil {
			r.Error = e.Message + ": " + e.Cause.Error()
		}
	}
	return r
}
