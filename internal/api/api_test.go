package api_test

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/thinkier/dfr-io-hat/internal/api"
	"github.com/thinkier/dfr-io-hat/internal/auth"
	"github.com/thinkier/dfr-io-hat/internal/config"
	"github.com/thinkier/dfr-io-hat/internal/controller"
	"github.com/thinkier/dfr-io-hat/internal/events"
	"github.com/thinkier/dfr-io-hat/internal/hardware"
	"github.com/thinkier/dfr-io-hat/internal/models"
)

// newTestServer spins up a full router over a mock board.
func newTestServer(t *testing.T) (*httptest.Server, *hardware.Mock) {
	t.Helper()
	return newTestServerWithAuth(t, nil)
}

func newTestServerWithAuth(t *testing.T, authMW func(http.Handler) http.Handler) (*httptest.Server, *hardware.Mock) {
	t.Helper()
	ctx := context.Background()

	m := hardware.NewMock()
	b, err := hardware.OpenDefault(ctx, m, 1)
	if err != nil {
		t.Fatalf("OpenDefault: %v", err)
	}
	bus := events.NewBus()
	ctrl, err := controller.New(ctx, b, config.NewMemStore(), bus, controller.Options{Backend: "mock", Bus: 1, Mock: true})
	if err != nil {
		t.Fatalf("controller.New: %v", err)
	}

	srv := httptest.NewServer(api.NewRouter(ctrl, bus, authMW))
	t.Cleanup(func() {
		bus.Close()
		srv.Close()
		ctrl.Close()
	})
	return srv, m
}

// do is a convenience helper for making requests to the test server.
func do(t *testing.T, srv *httptest.Server, method, path, body string) *http.Response {
	t.Helper()
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, srv.URL+path, bodyReader)
	if err != nil {
		t.Fatalf("NewRequest %s %s: %v", method, path, err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("Do %s %s: %v", method, path, err)
	}
	return resp
}

// decodeJSON reads and decodes a JSON response body into v.
func decodeJSON(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
}

// requireStatus fails the test if the response status doesn't match.
func requireStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Fatalf("status = %d, want %d; body: %s", resp.StatusCode, expected, body)
	}
}

// requireError checks the status and error code of a failed request.
func requireError(t *testing.T, resp *http.Response, status int, code string) {
	t.Helper()
	requireStatus(t, resp, status)
	var appErr models.AppError
	decodeJSON(t, resp, &appErr)
	if appErr.Code != code {
		t.Errorf("error code = %q, want %q", appErr.Code, code)
	}
}

// --- Tests ---

func TestGetStatus(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{"/api", "/api/"} {
		resp := do(t, srv, "GET", path, "")
		requireStatus(t, resp, http.StatusOK)

		var st models.StatusResponse
		decodeJSON(t, resp, &st)
		if st.State != models.DefaultState() {
			t.Errorf("GET %s: state = %+v, want default", path, st.State)
		}
		if st.Info.PID != "0xDF" || !st.Info.Mock {
			t.Errorf("GET %s: info = %+v", path, st.Info)
		}
	}
}

func TestGetInfo(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, srv, "GET", "/api/info", "")
	requireStatus(t, resp, http.StatusOK)

	var info models.Info
	decodeJSON(t, resp, &info)
	if info.Addr != "0x10" || info.VID != "0x10" || info.Backend != "mock" {
		t.Errorf("info = %+v", info)
	}
}

func TestPatchPWM(t *testing.T) {
	srv, m := newTestServer(t)

	resp := do(t, srv, "PATCH", "/api/pwm", `{"enabled":true,"freq_hz":2,"duty":[0.5,0.5,0.5,0.5]}`)
	requireStatus(t, resp, http.StatusOK)

	var state models.State
	decodeJSON(t, resp, &state)
	if !state.PWM.Enabled || state.PWM.FreqHz != 2 || state.PWM.Duty != [4]float64{0.5, 0.5, 0.5, 0.5} {
		t.Errorf("state = %+v", state)
	}
	if m.GetReg(hardware.RegPWMCtrl) != 1 || m.GetReg(hardware.RegPWMDuty2) != 50 {
		t.Error("board registers not written")
	}
}

func TestPatchPWM_Invalid(t *testing.T) {
	srv, m := newTestServer(t)
	before := len(m.Writes())

	tests := []struct {
		name string
		body string
	}{
		{"freq zero", `{"freq_hz":0}`},
		{"freq high", `{"freq_hz":1001}`},
		{"duty negative", `{"duty":[-0.1]}`},
		{"too many duties", `{"duty":[0,0,0,0,0]}`},
		{"bad json", `{"enabled":`},
		{"unknown field", `{"frequency":10}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requireError(t, do(t, srv, "PATCH", "/api/pwm", tt.body), http.StatusBadRequest, "BAD_REQUEST")
		})
	}
	if n := len(m.Writes()); n != before {
		t.Errorf("invalid requests wrote %d registers", n-before)
	}
}

func TestPatchDuty(t *testing.T) {
	srv, m := newTestServer(t)

	resp := do(t, srv, "PATCH", "/api/pwm/3", `{"duty":0.3}`)
	requireStatus(t, resp, http.StatusOK)

	var state models.State
	decodeJSON(t, resp, &state)
	if state.PWM.Duty[3] != 0.3 {
		t.Errorf("Duty[3] = %v, want 0.3", state.PWM.Duty[3])
	}
	if got := m.GetReg(hardware.RegPWMDuty3); got != 30 {
		t.Errorf("duty register = %d, want 30", got)
	}
}

func TestPatchDuty_Errors(t *testing.T) {
	srv, _ := newTestServer(t)

	requireError(t, do(t, srv, "PATCH", "/api/pwm/4", `{"duty":0.3}`), http.StatusNotFound, "NOT_FOUND")
	requireError(t, do(t, srv, "PATCH", "/api/pwm/x", `{"duty":0.3}`), http.StatusBadRequest, "BAD_REQUEST")
	requireError(t, do(t, srv, "PATCH", "/api/pwm/0", `{}`), http.StatusBadRequest, "BAD_REQUEST")
	requireError(t, do(t, srv, "PATCH", "/api/pwm/0", `{"duty":1.5}`), http.StatusBadRequest, "BAD_REQUEST")
}

func TestADC(t *testing.T) {
	srv, m := newTestServer(t)
	m.SetReg(hardware.RegADCValue0, 0x03, 0xFF)
	m.SetReg(hardware.RegADCValue2, 0x00, 0x7B)

	requireError(t, do(t, srv, "GET", "/api/adc/0", ""), http.StatusConflict, "CONFLICT")

	requireStatus(t, do(t, srv, "PATCH", "/api/adc", `{"enabled":true}`), http.StatusOK)

	resp := do(t, srv, "GET", "/api/adc/0", "")
	requireStatus(t, resp, http.StatusOK)
	var r models.ADCReading
	decodeJSON(t, resp, &r)
	if r.Channel != 0 || r.Value != 1023 {
		t.Errorf("reading = %+v, want {0 1023}", r)
	}

	resp = do(t, srv, "GET", "/api/adc", "")
	requireStatus(t, resp, http.StatusOK)
	var all []models.ADCReading
	decodeJSON(t, resp, &all)
	if len(all) != 4 || all[2].Value != 123 {
		t.Errorf("readings = %+v", all)
	}

	requireError(t, do(t, srv, "GET", "/api/adc/9", ""), http.StatusNotFound, "NOT_FOUND")
}

func TestHardwareFailure_503(t *testing.T) {
	srv, m := newTestServer(t)
	m.SetFailWrite(true)
	requireError(t, do(t, srv, "PATCH", "/api/adc", `{"enabled":true}`), http.StatusServiceUnavailable, "HARDWARE_UNAVAILABLE")
}

func TestReset(t *testing.T) {
	srv, m := newTestServer(t)
	requireStatus(t, do(t, srv, "PATCH", "/api/pwm", `{"enabled":true,"duty":[1,1,1,1]}`), http.StatusOK)

	resp := do(t, srv, "POST", "/api/reset", "")
	requireStatus(t, resp, http.StatusOK)

	var state models.State
	decodeJSON(t, resp, &state)
	if state.PWM.Enabled || state.PWM.Duty != [4]float64{} {
		t.Errorf("state after reset = %+v", state)
	}
	if m.GetReg(hardware.RegPWMCtrl) != 0 || m.GetReg(hardware.RegPWMDuty1) != 0 {
		t.Error("board not reset")
	}
}

func TestNotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	resp := do(t, srv, "GET", "/api/nonexistent", "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)
	resp := do(t, srv, "DELETE", "/api/pwm", "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t)
	resp := do(t, srv, "OPTIONS", "/api/pwm", "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}
}

func TestAuthMiddleware(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, auth.KeysFileName), []byte(`{"ci":"k"}`), 0600); err != nil {
		t.Fatal(err)
	}
	svc, err := auth.NewService(dir)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(svc.Close)
	srv, _ := newTestServerWithAuth(t, svc.Middleware)

	requireError(t, do(t, srv, "GET", "/api", ""), http.StatusUnauthorized, "UNAUTHORIZED")
	requireStatus(t, do(t, srv, "GET", "/api?api-key=k", ""), http.StatusOK)
}

func TestSSESubscribe(t *testing.T) {
	srv, _ := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/subscribe", nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	client := &http.Client{
		Transport: &http.Transport{
			DisableCompression: true,
		},
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}

	scanner := bufio.NewScanner(resp.Body)
	next := func() events.Event {
		t.Helper()
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			var ev events.Event
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
				t.Fatalf("SSE data is not valid Event JSON: %v", err)
			}
			return ev
		}
		t.Fatal("SSE stream ended early")
		return events.Event{}
	}

	first := next()
	if first.Seq != 0 || first.State != models.DefaultState() {
		t.Errorf("initial event = %+v", first)
	}

	requireStatus(t, do(t, srv, "PATCH", "/api/adc", `{"enabled":true}`), http.StatusOK)

	second := next()
	if second.Seq != 1 || !second.State.ADC.Enabled {
		t.Errorf("update event = %+v", second)
	}
}
