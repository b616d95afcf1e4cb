package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/BaSui01/browserpilot/types"
)

// toolSpec binds one automation operation to a tool: its schema, its
// argument validator, and the REST operation it forwards to.
type toolSpec struct {
	name        string
	description string
	params      string
	timeout     time.Duration
	// validate runs BEFORE any network call; a validation failure never
	// reaches the service.
	validate func(args json.RawMessage) error
}

func validationError(format string, a ...any) error {
	return types.NewError(types.ErrToolValidation, fmt.Sprintf(format, a...))
}

// decode strictly unmarshals args into v.
func decode(args json.RawMessage, v any) error {
	if len(args) == 0 {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return validationError("malformed arguments: %v", err)
	}
	return nil
}

func noArgs(json.RawMessage) error { return nil }

var browserToolSpecs = []toolSpec{
	{
		name:        "navigate_to",
		description: "Navigate the current tab to a URL.",
		params:      `{"type":"object","properties":{"url":{"type":"string"}},"required":["url"]}`,
		timeout:     150 * time.Second,
		validate: func(args json.RawMessage) error {
			var p struct {
				URL string `json:"url"`
			}
			if err := decode(args, &p); err != nil {
				return err
			}
			if p.URL == "" {
				return validationError("url is required")
			}
			return nil
		},
	},
	{
		name:        "search_google",
		description: "Run a Google search in the current tab.",
		params:      `{"type":"object","properties":{"query":{"type":"string"}},"required":["query"]}`,
		timeout:     150 * time.Second,
		validate: func(args json.RawMessage) error {
			var p struct {
				Query string `json:"query"`
			}
			if err := decode(args, &p); err != nil {
				return err
			}
			if p.Query == "" {
				return validationError("query is required")
			}
			return nil
		},
	},
	{
		name:        "go_back",
		description: "Navigate back in the current tab's history.",
		params:      `{"type":"object","properties":{}}`,
		validate:    noArgs,
	},
	{
		name:        "wait",
		description: "Pause for a number of seconds (max 60).",
		params:      `{"type":"object","properties":{"seconds":{"type":"number"}}}`,
		timeout:     90 * time.Second,
		validate: func(args json.RawMessage) error {
			var p struct {
				Seconds float64 `json:"seconds"`
			}
			if err := decode(args, &p); err != nil {
				return err
			}
			if p.Seconds < 0 {
				return validationError("seconds must not be negative")
			}
			return nil
		},
	},
	{
		name:        "click_element",
		description: "Click an element by its snapshot index, or by a raw CSS selector.",
		params:      `{"type":"object","properties":{"index":{"type":"string"}},"required":["index"]}`,
		validate:    requireIndex,
	},
	{
		name:        "click_coordinates",
		description: "Click an absolute page coordinate.",
		params:      `{"type":"object","properties":{"x":{"type":"number"},"y":{"type":"number"}},"required":["x","y"]}`,
		validate: func(args json.RawMessage) error {
			var p struct {
				X *float64 `json:"x"`
				Y *float64 `json:"y"`
			}
			if err := decode(args, &p); err != nil {
				return err
			}
			if p.X == nil || p.Y == nil {
				return validationError("x and y are required")
			}
			return nil
		},
	},
	{
		name:        "input_text",
		description: "Clear an element and type text into it.",
		params:      `{"type":"object","properties":{"index":{"type":"string"},"text":{"type":"string"}},"required":["index","text"]}`,
		validate: func(args json.RawMessage) error {
			var p struct {
				Index *string `json:"index"`
				Text  *string `json:"text"`
			}
			if err := decode(args, &p); err != nil {
				return err
			}
			if p.Index == nil {
				return validationError("index is required")
			}
			if p.Text == nil {
				return validationError("text is required")
			}
			return nil
		},
	},
	{
		name:        "send_keys",
		description: "Send a key or key combination, for example Enter or Control+a.",
		params:      `{"type":"object","properties":{"keys":{"type":"string"}},"required":["keys"]}`,
		validate: func(args json.RawMessage) error {
			var p struct {
				Keys string `json:"keys"`
			}
			if err := decode(args, &p); err != nil {
				return err
			}
			if p.Keys == "" {
				return validationError("keys is required")
			}
			return nil
		},
	},
	{
		name:        "drag_drop",
		description: "Drag from a source element or coordinate to a target element or coordinate.",
		params: `{"type":"object","properties":{
			"element_source":{"type":"string"},"element_target":{"type":"string"},
			"coord_source_x":{"type":"number"},"coord_source_y":{"type":"number"},
			"coord_target_x":{"type":"number"},"coord_target_y":{"type":"number"},
			"steps":{"type":"integer"},"delay_ms":{"type":"integer"}}}`,
		validate: func(args json.RawMessage) error {
			var p struct {
				ElementSource string   `json:"element_source"`
				ElementTarget string   `json:"element_target"`
				CoordSourceX  *float64 `json:"coord_source_x"`
				CoordSourceY  *float64 `json:"coord_source_y"`
				CoordTargetX  *float64 `json:"coord_target_x"`
				CoordTargetY  *float64 `json:"coord_target_y"`
				Steps         int      `json:"steps"`
			}
			if err := decode(args, &p); err != nil {
				return err
			}
			if p.ElementSource == "" && (p.CoordSourceX == nil || p.CoordSourceY == nil) {
				return validationError("drag source needs element_source or coord_source_x/coord_source_y")
			}
			if p.ElementTarget == "" && (p.CoordTargetX == nil || p.CoordTargetY == nil) {
				return validationError("drag target needs element_target or coord_target_x/coord_target_y")
			}
			if p.Steps < 0 {
				return validationError("steps must not be negative")
			}
			return nil
		},
	},
	{
		name:        "scroll_down",
		description: "Scroll down by an amount of pixels, default one viewport.",
		params:      `{"type":"object","properties":{"amount":{"type":"integer"}}}`,
		validate:    validateScrollAmount,
	},
	{
		name:        "scroll_up",
		description: "Scroll up by an amount of pixels, default one viewport.",
		params:      `{"type":"object","properties":{"amount":{"type":"integer"}}}`,
		validate:    validateScrollAmount,
	},
	{
		name:        "scroll_to_text",
		description: "Scroll the first element containing the text into view.",
		params:      `{"type":"object","properties":{"text":{"type":"string"}},"required":["text"]}`,
		validate: func(args json.RawMessage) error {
			var p struct {
				Text string `json:"text"`
			}
			if err := decode(args, &p); err != nil {
				return err
			}
			if p.Text == "" {
				return validationError("text is required")
			}
			return nil
		},
	},
	{
		name:        "open_tab",
		description: "Open a new tab, optionally navigating it to a URL.",
		params:      `{"type":"object","properties":{"url":{"type":"string"}}}`,
		timeout:     150 * time.Second,
		validate:    noArgs,
	},
	{
		name:        "switch_tab",
		description: "Make the tab at the given index current.",
		params:      `{"type":"object","properties":{"tab_index":{"type":"integer"}},"required":["tab_index"]}`,
		validate:    requireTabIndex,
	},
	{
		name:        "close_tab",
		description: "Close the tab at the given index.",
		params:      `{"type":"object","properties":{"tab_index":{"type":"integer"}},"required":["tab_index"]}`,
		validate:    requireTabIndex,
	},
	{
		name:        "switch_to_frame",
		description: "Scope subsequent actions to an iframe by name, id, index or selector.",
		params:      `{"type":"object","properties":{"frame":{"type":"string"}},"required":["frame"]}`,
		validate: func(args json.RawMessage) error {
			var p struct {
				Frame string `json:"frame"`
			}
			if err := decode(args, &p); err != nil {
				return err
			}
			if p.Frame == "" {
				return validationError("frame is required")
			}
			return nil
		},
	},
	{
		name:        "switch_to_main_frame",
		description: "Return scope to the top document.",
		params:      `{"type":"object","properties":{}}`,
		validate:    noArgs,
	},
	{
		name:        "get_cookies",
		description: "List the cookies visible to the session.",
		params:      `{"type":"object","properties":{}}`,
		validate:    noArgs,
	},
	{
		name:        "set_cookie",
		description: "Set one cookie.",
		params:      `{"type":"object","properties":{"name":{"type":"string"},"value":{"type":"string"},"domain":{"type":"string"},"path":{"type":"string"}},"required":["name"]}`,
		validate: func(args json.RawMessage) error {
			var p struct {
				Name string `json:"name"`
			}
			if err := decode(args, &p); err != nil {
				return err
			}
			if p.Name == "" {
				return validationError("name is required")
			}
			return nil
		},
	},
	{
		name:        "clear_cookies",
		description: "Remove all cookies.",
		params:      `{"type":"object","properties":{}}`,
		validate:    noArgs,
	},
	{
		name:        "clear_local_storage",
		description: "Wipe localStorage and sessionStorage for the current origin.",
		params:      `{"type":"object","properties":{}}`,
		validate:    noArgs,
	},
	{
		name:        "accept_dialog",
		description: "Accept future JavaScript dialogs, answering prompts with prompt_text.",
		params:      `{"type":"object","properties":{"prompt_text":{"type":"string"}}}`,
		validate:    noArgs,
	},
	{
		name:        "dismiss_dialog",
		description: "Dismiss future JavaScript dialogs.",
		params:      `{"type":"object","properties":{}}`,
		validate:    noArgs,
	},
	{
		name:        "extract_content",
		description: "Extract the page's readable text and links.",
		params:      `{"type":"object","properties":{"goal":{"type":"string"}}}`,
		validate:    noArgs,
	},
	{
		name:        "screenshot",
		description: "Capture the viewport as a base64 PNG.",
		params:      `{"type":"object","properties":{}}`,
		validate:    noArgs,
	},
	{
		name:        "save_pdf",
		description: "Print the page to PDF.",
		params:      `{"type":"object","properties":{"format":{"type":"string"},"landscape":{"type":"boolean"},"print_background":{"type":"boolean"},"scale":{"type":"number"}}}`,
		timeout:     60 * time.Second,
		validate:    noArgs,
	},
	{
		name:        "get_dropdown_options",
		description: "List the options of a select element.",
		params:      `{"type":"object","properties":{"index":{"type":"string"}},"required":["index"]}`,
		validate:    requireIndex,
	},
	{
		name:        "select_dropdown_option",
		description: "Select a dropdown option by its visible text.",
		params:      `{"type":"object","properties":{"index":{"type":"string"},"option_text":{"type":"string"}},"required":["index","option_text"]}`,
		validate: func(args json.RawMessage) error {
			var p struct {
				Index      *string `json:"index"`
				OptionText string  `json:"option_text"`
			}
			if err := decode(args, &p); err != nil {
				return err
			}
			if p.Index == nil {
				return validationError("index is required")
			}
			if p.OptionText == "" {
				return validationError("option_text is required")
			}
			return nil
		},
	},
	{
		name:        "set_network_conditions",
		description: "Emulate network conditions, including offline.",
		params:      `{"type":"object","properties":{"offline":{"type":"boolean"},"latency_ms":{"type":"integer"},"download_throughput":{"type":"number"},"upload_throughput":{"type":"number"}}}`,
		validate:    noArgs,
	},
	{
		name:        "request_intervention",
		description: "Hand control to a person, for example to solve a captcha or log in.",
		params:      `{"type":"object","properties":{"intervention_type":{"type":"string"},"message":{"type":"string"},"instructions":{"type":"string"},"timeout_seconds":{"type":"integer"},"take_screenshot":{"type":"boolean"},"auto_detect":{"type":"boolean"}},"required":["intervention_type","message"]}`,
		validate: func(args json.RawMessage) error {
			var p struct {
				Type    string `json:"intervention_type"`
				Message string `json:"message"`
			}
			if err := decode(args, &p); err != nil {
				return err
			}
			if p.Type == "" {
				return validationError("intervention_type is required")
			}
			if p.Message == "" {
				return validationError("message is required")
			}
			return nil
		},
	},
	{
		name:        "intervention_status",
		description: "Check the state of an intervention request.",
		params:      `{"type":"object","properties":{"intervention_id":{"type":"string"}},"required":["intervention_id"]}`,
		validate:    requireInterventionID,
	},
	{
		name:        "complete_intervention",
		description: "Mark an intervention request completed.",
		params:      `{"type":"object","properties":{"intervention_id":{"type":"string"},"user_message":{"type":"string"},"completion_note":{"type":"string"},"success":{"type":"boolean"}},"required":["intervention_id"]}`,
		validate:    requireInterventionID,
	},
	{
		name:        "cancel_intervention",
		description: "Cancel a pending intervention request.",
		params:      `{"type":"object","properties":{"intervention_id":{"type":"string"},"reason":{"type":"string"}},"required":["intervention_id"]}`,
		validate:    requireInterventionID,
	},
	{
		name:        "auto_detect_intervention",
		description: "Scan the page for captchas, login walls and similar blockers.",
		params:      `{"type":"object","properties":{"check_captcha":{"type":"boolean"},"check_login":{"type":"boolean"},"check_security":{"type":"boolean"},"check_anti_bot":{"type":"boolean"},"check_cookies":{"type":"boolean"}}}`,
		validate:    noArgs,
	},
}

func requireIndex(args json.RawMessage) error {
	var p struct {
		Index *string `json:"index"`
	}
	if err := decode(args, &p); err != nil {
		return err
	}
	if p.Index == nil || *p.Index == "" {
		return validationError("index is required")
	}
	return nil
}

func requireTabIndex(args json.RawMessage) error {
	var p struct {
		TabIndex *int `json:"tab_index"`
	}
	if err := decode(args, &p); err != nil {
		return err
	}
	if p.TabIndex == nil {
		return validationError("tab_index is required")
	}
	return nil
}

func requireInterventionID(args json.RawMessage) error {
	var p struct {
		ID string `json:"intervention_id"`
	}
	if err := decode(args, &p); err != nil {
		return err
	}
	if p.ID == "" {
		return validationError("intervention_id is required")
	}
	return nil
}

func validateScrollAmount(args json.RawMessage) error {
	var p struct {
		Amount int `json:"amount"`
	}
	if err := decode(args, &p); err != nil {
		return err
	}
	if p.Amount < 0 {
		return validationError("amount must not be negative")
	}
	return nil
}

// RegisterBrowserTools registers the browser toolset against the
// automation service reachable through client. Each tool validates its
// arguments first and only then forwards them; the service's envelope
// comes back verbatim as the tool result.
func RegisterBrowserTools(r *Registry, client *Client) error {
	for _, spec := range browserToolSpecs {
		spec := spec
		fn := func(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
			if err := spec.validate(args); err != nil {
				return nil, err
			}
			var body any
			if len(args) > 0 {
				body = args
			}
			res, err := client.Call(ctx, spec.name, body)
			if err != nil {
				return nil, err
			}
			return json.Marshal(res)
		}
		err := r.Register(spec.name, fn, Metadata{
			Schema: Schema{
				Name:        spec.name,
				Description: spec.description,
				Parameters:  json.RawMessage(spec.params),
			},
			Timeout: spec.timeout,
		})
		if err != nil {
			return err
		}
	}
	return nil
}
