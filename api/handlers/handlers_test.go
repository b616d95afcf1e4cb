package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/browserpilot/automation"
	"github.com/BaSui01/browserpilot/browser"
	"github.com/BaSui01/browserpilot/intervention"
	"github.com/BaSui01/browserpilot/types"
)

// fakeAutomation records the calls it receives and answers from a
// per-operation response table.
type fakeAutomation struct {
	calls     []string
	responses map[string]*types.ActionResult
	checks    intervention.Checks
}

func newFakeAutomation() *fakeAutomation {
	return &fakeAutomation{responses: make(map[string]*types.ActionResult)}
}

func (f *fakeAutomation) respond(op string) *types.ActionResult {
	f.calls = append(f.calls, op)
	if res, ok := f.responses[op]; ok {
		return res
	}
	return types.OK("done: " + op)
}

func (f *fakeAutomation) Navigate(_ context.Context, url string) *types.ActionResult {
	return f.respond("navigate:" + url)
}
func (f *fakeAutomation) SearchGoogle(_ context.Context, query string) *types.ActionResult {
	return f.respond("search:" + query)
}
func (f *fakeAutomation) GoBack(context.Context) *types.ActionResult { return f.respond("go_back") }
func (f *fakeAutomation) Wait(_ context.Context, seconds float64) *types.ActionResult {
	return f.respond("wait")
}
func (f *fakeAutomation) ClickElement(_ context.Context, ref string) *types.ActionResult {
	return f.respond("click:" + ref)
}
func (f *fakeAutomation) ClickCoordinates(_ context.Context, x, y float64) *types.ActionResult {
	return f.respond("click_xy")
}
func (f *fakeAutomation) InputText(_ context.Context, ref, text string) *types.ActionResult {
	return f.respond("input:" + ref + ":" + text)
}
func (f *fakeAutomation) SendKeys(_ context.Context, keys string) *types.ActionResult {
	return f.respond("keys:" + keys)
}
func (f *fakeAutomation) DragDrop(_ context.Context, p automation.DragParams) *types.ActionResult {
	return f.respond("drag:" + p.ElementSource + ">" + p.ElementTarget)
}
func (f *fakeAutomation) ScrollDown(_ context.Context, amount int) *types.ActionResult {
	return f.respond("scroll_down")
}
func (f *fakeAutomation) ScrollUp(_ context.Context, amount int) *types.ActionResult {
	return f.respond("scroll_up")
}
func (f *fakeAutomation) ScrollToText(_ context.Context, text string) *types.ActionResult {
	return f.respond("scroll_to_text:" + text)
}
func (f *fakeAutomation) OpenTab(_ context.Context, url string) *types.ActionResult {
	return f.respond("open_tab")
}
func (f *fakeAutomation) SwitchTab(_ context.Context, index int) *types.ActionResult {
	return f.respond("switch_tab")
}
func (f *fakeAutomation) CloseTab(_ context.Context, index int) *types.ActionResult {
	return f.respond("close_tab")
}
func (f *fakeAutomation) SwitchFrame(_ context.Context, ref string) *types.ActionResult {
	return f.respond("switch_frame:" + ref)
}
func (f *fakeAutomation) SwitchToMainFrame(context.Context) *types.ActionResult {
	return f.respond("main_frame")
}
func (f *fakeAutomation) GetCookies(context.Context) *types.ActionResult {
	return f.respond("get_cookies")
}
func (f *fakeAutomation) SetCookie(_ context.Context, c browser.Cookie) *types.ActionResult {
	return f.respond("set_cookie:" + c.Name)
}
func (f *fakeAutomation) ClearCookies(context.Context) *types.ActionResult {
	return f.respond("clear_cookies")
}
func (f *fakeAutomation) ClearLocalStorage(context.Context) *types.ActionResult {
	return f.respond("clear_storage")
}
func (f *fakeAutomation) AcceptDialog(promptText string) *types.ActionResult {
	return f.respond("accept_dialog")
}
func (f *fakeAutomation) DismissDialog() *types.ActionResult { return f.respond("dismiss_dialog") }
func (f *fakeAutomation) SetNetworkConditions(_ context.Context, nc browser.NetworkConditions) *types.ActionResult {
	return f.respond("network")
}
func (f *fakeAutomation) ExtractContent(_ context.Context, goal string) *types.ActionResult {
	return f.respond("extract")
}
func (f *fakeAutomation) Screenshot(context.Context) *types.ActionResult {
	return f.respond("screenshot")
}
func (f *fakeAutomation) SavePDF(_ context.Context, opts browser.PDFOptions) *types.ActionResult {
	return f.respond("save_pdf")
}
func (f *fakeAutomation) GetDropdownOptions(_ context.Context, ref string) *types.ActionResult {
	return f.respond("dropdown_options:" + ref)
}
func (f *fakeAutomation) SelectDropdownOption(_ context.Context, ref, optionText string) *types.ActionResult {
	return f.respond("dropdown_select")
}
func (f *fakeAutomation) RequestIntervention(_ context.Context, p automation.InterventionParams) *types.ActionResult {
	return f.respond("intervention_request:" + p.Type)
}
func (f *fakeAutomation) InterventionStatus(_ context.Context, id string) *types.ActionResult {
	return f.respond("intervention_status:" + id)
}
func (f *fakeAutomation) CompleteIntervention(_ context.Context, id, note string, success bool) *types.ActionResult {
	return f.respond(fmt.Sprintf("intervention_complete:%s:%s:%t", id, note, success))
}
func (f *fakeAutomation) CancelIntervention(_ context.Context, id, reason string) *types.ActionResult {
	return f.respond("intervention_cancel")
}
func (f *fakeAutomation) ListInterventions(_ context.Context, status string) *types.ActionResult {
	return f.respond("intervention_list")
}
func (f *fakeAutomation) AutoDetectIntervention(_ context.Context, checks intervention.Checks) *types.ActionResult {
	f.checks = checks
	return f.respond("intervention_detect")
}

func newTestServer(t *testing.T) (*fakeAutomation, *httptest.Server) {
	t.Helper()
	fake := newFakeAutomation()
	mux := http.NewServeMux()
	rt := &Router{
		Automation: NewAutomationHandler(fake, nil),
		Health:     NewHealthHandler("browserpilot", "1.2.3", nil),
	}
	rt.Mount(mux)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return fake, server
}

func post(t *testing.T, server *httptest.Server, path, body string) (*http.Response, *types.ActionResult) {
	t.Helper()
	resp, err := http.Post(server.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var res types.ActionResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	return resp, &res
}

func TestAutomationEndpoints(t *testing.T) {
	t.Run("navigate", func(t *testing.T) {
		fake, server := newTestServer(t)
		resp, res := post(t, server, "/automation/navigate_to", `{"url":"https://example.com"}`)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.True(t, res.Success)
		assert.Equal(t, []string{"navigate:https://example.com"}, fake.calls)
	})

	t.Run("click accepts numeric and string indexes", func(t *testing.T) {
		fake, server := newTestServer(t)
		_, _ = post(t, server, "/automation/click_element", `{"index":7}`)
		_, _ = post(t, server, "/automation/click_element", `{"index":"7"}`)
		_, _ = post(t, server, "/automation/click_element", `{"index":"#submit"}`)
		assert.Equal(t, []string{"click:7", "click:7", "click:#submit"}, fake.calls)
	})

	t.Run("empty body is an empty request", func(t *testing.T) {
		fake, server := newTestServer(t)
		resp, _ := post(t, server, "/automation/go_back", "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, []string{"go_back"}, fake.calls)
	})

	t.Run("malformed json is a 400 envelope", func(t *testing.T) {
		fake, server := newTestServer(t)
		resp, res := post(t, server, "/automation/navigate_to", `{"url":`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.False(t, res.Success)
		assert.Equal(t, string(types.ErrInvalidRequest), res.Code)
		assert.Empty(t, fake.calls)
	})

	t.Run("error codes map to http statuses", func(t *testing.T) {
		cases := []struct {
			code types.ErrorCode
			want int
		}{
			{types.ErrElementNotFound, http.StatusNotFound},
			{types.ErrSessionUnavailable, http.StatusServiceUnavailable},
			{types.ErrNoResolvableTarget, http.StatusConflict},
			{types.ErrTimeout, http.StatusGatewayTimeout},
			{types.ErrInvalidRequest, http.StatusBadRequest},
		}
		for _, tc := range cases {
			fake, server := newTestServer(t)
			fake.responses["click:9"] = types.FailWith(types.NewError(tc.code, "nope"))
			resp, res := post(t, server, "/automation/click_element", `{"index":9}`)
			assert.Equal(t, tc.want, resp.StatusCode, string(tc.code))
			assert.False(t, res.Success)
			assert.Equal(t, string(tc.code), res.Code)
		}
	})

	t.Run("drag drop params pass through", func(t *testing.T) {
		fake, server := newTestServer(t)
		_, _ = post(t, server, "/automation/drag_drop", `{"element_source":"2","element_target":"5","steps":4}`)
		assert.Equal(t, []string{"drag:2>5"}, fake.calls)
	})

	t.Run("intervention request", func(t *testing.T) {
		fake, server := newTestServer(t)
		resp, res := post(t, server, "/automation/request_intervention",
			`{"intervention_type":"captcha","message":"please solve"}`)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.True(t, res.Success)
		assert.Equal(t, []string{"intervention_request:captcha"}, fake.calls)
	})

	t.Run("intervention complete failure outcome", func(t *testing.T) {
		fake, server := newTestServer(t)
		_, _ = post(t, server, "/automation/complete_intervention",
			`{"intervention_id":"int-1","user_message":"could not solve","success":false}`)
		assert.Equal(t, []string{"intervention_complete:int-1:could not solve:false"}, fake.calls)
	})

	t.Run("intervention complete defaults to success", func(t *testing.T) {
		fake, server := newTestServer(t)
		_, _ = post(t, server, "/automation/complete_intervention",
			`{"intervention_id":"int-2","completion_note":"done"}`)
		assert.Equal(t, []string{"intervention_complete:int-2:done:true"}, fake.calls)
	})

	t.Run("auto detect check flags", func(t *testing.T) {
		fake, server := newTestServer(t)
		_, _ = post(t, server, "/automation/auto_detect_intervention",
			`{"check_captcha":false,"check_login":true,"check_cookies":false}`)
		assert.Equal(t, []string{"intervention_detect"}, fake.calls)
		assert.False(t, fake.checks.Captcha)
		assert.True(t, fake.checks.Login)
		assert.True(t, fake.checks.Security)
		assert.True(t, fake.checks.AntiBot)
		assert.False(t, fake.checks.Cookies)
	})

	t.Run("unknown endpoint is 404", func(t *testing.T) {
		_, server := newTestServer(t)
		resp, err := http.Post(server.URL+"/automation/teleport", "application/json", strings.NewReader("{}"))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("get on automation endpoint is rejected", func(t *testing.T) {
		_, server := newTestServer(t)
		resp, err := http.Get(server.URL + "/automation/screenshot")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})
}

func TestHealthEndpoints(t *testing.T) {
	t.Run("health identity", func(t *testing.T) {
		_, server := newTestServer(t)
		resp, err := http.Get(server.URL + "/health")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var status HealthStatus
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
		assert.Equal(t, "healthy", status.Status)
		assert.Equal(t, "browserpilot", status.Service)
		assert.Equal(t, "1.2.3", status.Version)
	})

	t.Run("ready reflects failing checks", func(t *testing.T) {
		health := NewHealthHandler("browserpilot", "1.2.3", nil)
		health.RegisterCheck(CheckFunc{CheckName: "store", Fn: func(context.Context) error { return nil }})
		health.RegisterCheck(CheckFunc{CheckName: "browser", Fn: func(context.Context) error {
			return types.NewError(types.ErrSessionUnavailable, "no tab")
		}})

		mux := http.NewServeMux()
		(&Router{Automation: NewAutomationHandler(newFakeAutomation(), nil), Health: health}).Mount(mux)
		server := httptest.NewServer(mux)
		t.Cleanup(server.Close)

		resp, err := http.Get(server.URL + "/ready")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

		var body struct {
			Status string                 `json:"status"`
			Checks map[string]CheckResult `json:"checks"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "not_ready", body.Status)
		assert.Equal(t, "pass", body.Checks["store"].Status)
		assert.Equal(t, "fail", body.Checks["browser"].Status)
	})
}

type recordedAction struct {
	name   string
	status string
}

type fakeActionRecorder struct {
	actions []recordedAction
}

func (r *fakeActionRecorder) RecordAction(action, status string, _ time.Duration) {
	r.actions = append(r.actions, recordedAction{action, status})
}

func TestRouterInstrumentation(t *testing.T) {
	fake := newFakeAutomation()
	rec := &fakeActionRecorder{}
	mux := http.NewServeMux()
	rt := &Router{
		Automation: NewAutomationHandler(fake, nil),
		Health:     NewHealthHandler("browserpilot", "1.2.3", nil),
		Metrics:    rec,
	}
	rt.Mount(mux)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	fake.responses["click:9"] = types.FailWith(types.NewError(types.ErrElementNotFound, "gone"))

	post(t, server, "/automation/navigate_to", `{"url":"https://example.com"}`)
	post(t, server, "/automation/click_element", `{"index":9}`)

	require.Len(t, rec.actions, 2)
	assert.Equal(t, recordedAction{"navigate_to", "success"}, rec.actions[0])
	assert.Equal(t, recordedAction{"click_element", "error"}, rec.actions[1])
}
