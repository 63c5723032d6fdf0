package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/crypto/bcrypt"

	"github.com/fabolze/SoAWebApp-sub000/internal/balance"
	"github.com/fabolze/SoAWebApp-sub000/internal/config"
	"github.com/fabolze/SoAWebApp-sub000/internal/dataset"
	"github.com/fabolze/SoAWebApp-sub000/internal/entity"
)

const testToken = "let-me-in"

func testBundle() dataset.Bundle {
	b := dataset.NewBundle()
	b[entity.Effects] = []entity.Record{
		{"id": "burn", "name": "Burn", "type": "Damage", "value": 8, "duration": 3, "apply_chance": 60},
	}
	b[entity.Abilities] = []entity.Record{
		{"id": "slash", "name": "Slash", "type": "Active", "resource_cost": 5, "effects": []any{"burn"}},
		{"id": "jab", "name": "Jab", "type": "Active", "resource_cost": 2},
	}
	b[entity.Items] = []entity.Record{
		{"id": "sword", "name": "Sword", "type": "Weapon", "rarity": "Rare", "base_price": 120},
	}
	return b
}

type testEnv struct {
	srv    *Server
	ts     *httptest.Server
	loads  *atomic.Int32
	cfg    *config.Config
	failOn *atomic.Bool
}

func newTestEnv(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()
	cfg := config.DefaultConfig()
	hash, err := bcrypt.GenerateFromPassword([]byte(testToken), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	cfg.Server.AdminTokenHash = string(hash)
	cfg.Server.RateLimit = config.RateLimitConfig{MaxAttempts: 2, LockoutSeconds: 60, MaxLockoutSeconds: 60}
	if mutate != nil {
		mutate(cfg)
	}

	var loads atomic.Int32
	var failOn atomic.Bool
	cache := dataset.NewCache(dataset.LoaderFunc(func(ctx context.Context) (dataset.Bundle, error) {
		loads.Add(1)
		if failOn.Load() {
			return nil, errors.New("disk on fire")
		}
		return testBundle(), nil
	}))

	srv := New(cfg, cache)
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	return &testEnv{srv: srv, ts: ts, loads: &loads, cfg: cfg, failOn: &failOn}
}

func (e *testEnv) do(t *testing.T, method, path, body string, header http.Header) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, e.ts.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func bearer(token string) http.Header {
	return http.Header{"Authorization": {"Bearer " + token}}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := env.do(t, http.MethodGet, "/health", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var health healthResponse
	decodeBody(t, resp, &health)
	if health.Status != "healthy" || health.DatasetsLoaded {
		t.Errorf("health = %+v, want healthy with nothing loaded", health)
	}
}

func TestScenarios(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := env.do(t, http.MethodGet, "/api/v1/scenarios", "", nil)
	var scenarios []balance.Scenario
	decodeBody(t, resp, &scenarios)
	if len(scenarios) != len(balance.Scenarios()) {
		t.Errorf("got %d scenarios, want %d", len(scenarios), len(balance.Scenarios()))
	}
	if scenarios[0].ID != balance.DefaultScenarioID {
		t.Errorf("first scenario = %q, want %q", scenarios[0].ID, balance.DefaultScenarioID)
	}
}

func TestSimulate(t *testing.T) {
	env := newTestEnv(t, nil)

	body := `{"schemaName":"abilities","entity":{"id":"slash","name":"Slash","resource_cost":5,"effects":["burn"]},"seed":9}`
	resp := env.do(t, http.MethodPost, "/api/v1/simulate", body, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var res balance.Result
	decodeBody(t, resp, &res)

	if res.EntityID != "slash" || res.SchemaName != "abilities" {
		t.Errorf("result identity = %s/%s", res.SchemaName, res.EntityID)
	}
	if res.Runs != env.cfg.Simulation.Runs {
		t.Errorf("Runs = %d, want configured default %d", res.Runs, env.cfg.Simulation.Runs)
	}
	if res.Seed != 9 {
		t.Errorf("Seed = %d, want 9", res.Seed)
	}
	if res.ScenarioID != env.cfg.Simulation.DefaultScenario {
		t.Errorf("ScenarioID = %q, want %q", res.ScenarioID, env.cfg.Simulation.DefaultScenario)
	}
	if res.Summary == "" {
		t.Error("expected a summary")
	}

	// identical request, identical answer; datasets are loaded once
	again := env.do(t, http.MethodPost, "/api/v1/simulate", body, nil)
	var res2 balance.Result
	decodeBody(t, again, &res2)
	if res2.Metrics != res.Metrics {
		t.Errorf("metrics differ between identical requests: %+v vs %+v", res.Metrics, res2.Metrics)
	}
	if n := env.loads.Load(); n != 1 {
		t.Errorf("loader called %d times, want 1", n)
	}
}

func TestSimulateClampsRuns(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		runs string
		want int
	}{
		{"10", balance.MinRuns},
		{"99999", balance.MaxRuns},
		{"120.6", 121},
	}
	for _, tt := range tests {
		body := `{"schemaName":"items","entity":{"id":"sword","base_price":120},"runs":` + tt.runs + `}`
		resp := env.do(t, http.MethodPost, "/api/v1/simulate", body, nil)
		var res balance.Result
		decodeBody(t, resp, &res)
		if res.Runs != tt.want {
			t.Errorf("runs %s: Runs = %d, want %d", tt.runs, res.Runs, tt.want)
		}
	}
}

func TestSimulateErrors(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"unsupported kind", `{"schemaName":"spells","entity":{}}`, http.StatusBadRequest},
		{"bad json", `{"schemaName":`, http.StatusBadRequest},
		{"wrong field type", `{"schemaName":"items","runs":"many"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, http.MethodPost, "/api/v1/simulate", tt.body, nil)
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
			var er errorResponse
			decodeBody(t, resp, &er)
			if er.Error == "" {
				t.Error("expected an error message")
			}
		})
	}
	if n := env.loads.Load(); n != 0 {
		t.Errorf("rejected requests loaded datasets %d times", n)
	}
}

func TestSimulateLoaderFailure(t *testing.T) {
	env := newTestEnv(t, nil)
	env.failOn.Store(true)

	resp := env.do(t, http.MethodPost, "/api/v1/simulate", `{"schemaName":"items","entity":{}}`, nil)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
}

func TestSimulateBodyLimit(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) { c.Server.MaxMessageSize = 64 })

	body := `{"schemaName":"items","entity":{"name":"` + strings.Repeat("x", 200) + `"}}`
	resp := env.do(t, http.MethodPost, "/api/v1/simulate", body, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestSweep(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := env.do(t, http.MethodPost, "/api/v1/sweep", `{"kinds":["abilities"],"scenarios":["duel_baseline","boss_siege"],"runs":50}`, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var sr sweepResponse
	decodeBody(t, resp, &sr)
	if sr.Count != 4 || len(sr.Results) != 4 {
		t.Fatalf("count = %d (%d results), want 4", sr.Count, len(sr.Results))
	}
	wantOrder := []string{"slash/duel_baseline", "slash/boss_siege", "jab/duel_baseline", "jab/boss_siege"}
	for i, res := range sr.Results {
		if got := res.EntityID + "/" + res.ScenarioID; got != wantOrder[i] {
			t.Errorf("results[%d] = %s, want %s", i, got, wantOrder[i])
		}
	}
}

func TestSweepUnknownKind(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := env.do(t, http.MethodPost, "/api/v1/sweep", `{"kinds":["abilities","spells"]}`, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestRefresh(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := env.do(t, http.MethodPost, "/api/v1/datasets/refresh", "", bearer(testToken))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body map[string]any
	decodeBody(t, resp, &body)
	if body["records"] != float64(testBundle().Count()) {
		t.Errorf("records = %v, want %d", body["records"], testBundle().Count())
	}

	env.do(t, http.MethodPost, "/api/v1/datasets/refresh", "", bearer(testToken))
	if n := env.loads.Load(); n != 2 {
		t.Errorf("loader called %d times, want 2", n)
	}
}

func TestRefreshAuth(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		name   string
		header http.Header
		want   int
	}{
		{"no header", nil, http.StatusUnauthorized},
		{"wrong scheme", http.Header{"Authorization": {"Basic " + testToken}}, http.StatusUnauthorized},
		{"locked after two failures", bearer("nope"), http.StatusTooManyRequests},
		{"right token while locked", bearer(testToken), http.StatusTooManyRequests},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, http.MethodPost, "/api/v1/datasets/refresh", "", tt.header)
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
	if resp := env.do(t, http.MethodPost, "/api/v1/datasets/refresh", "", bearer(testToken)); resp.Header.Get("Retry-After") == "" {
		t.Error("expected Retry-After on a locked client")
	}
	if n := env.loads.Load(); n != 0 {
		t.Errorf("unauthorized refreshes loaded datasets %d times", n)
	}
}

func TestRefreshDisabled(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) { c.Server.AdminTokenHash = "" })

	resp := env.do(t, http.MethodPost, "/api/v1/datasets/refresh", "", bearer(testToken))
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestHashAdminToken(t *testing.T) {
	if _, err := HashAdminToken("  "); err == nil {
		t.Error("expected error for blank token")
	}
	hash, err := HashAdminToken(testToken)
	if err != nil {
		t.Fatal(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(testToken)); err != nil {
		t.Errorf("hash does not match token: %v", err)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errBadRequest, http.StatusBadRequest},
		{balanceKindErr(), http.StatusBadRequest},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func balanceKindErr() error {
	_, err := balance.Simulate(balance.Options{SchemaName: "spells"})
	return err
}

func dialWS(t *testing.T, env *testEnv, header http.Header) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(env.ts.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		t.Fatalf("dial: %v (status %d)", err, status)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func TestWebSocketSimulate(t *testing.T) {
	env := newTestEnv(t, nil)
	conn := dialWS(t, env, nil)

	// blank frames are skipped without a reply
	if err := conn.WriteMessage(websocket.TextMessage, []byte("   \n")); err != nil {
		t.Fatal(err)
	}
	frame := `{"schemaName":"items","entity":{"id":"sword","name":"Sword","rarity":"Rare","base_price":120},"runs":50,"seed":3}`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		t.Fatal(err)
	}
	var res balance.Result
	if err := conn.ReadJSON(&res); err != nil {
		t.Fatalf("read reply: %v", err)
	}
	if res.EntityID != "sword" || res.Runs != 50 || res.Seed != 3 {
		t.Errorf("reply = %s runs=%d seed=%d", res.EntityID, res.Runs, res.Seed)
	}

	// an HTTP call with the same request gives the same metrics
	resp := env.do(t, http.MethodPost, "/api/v1/simulate", frame, nil)
	var viaHTTP balance.Result
	decodeBody(t, resp, &viaHTTP)
	if viaHTTP.Metrics != res.Metrics {
		t.Errorf("ws metrics %+v != http metrics %+v", res.Metrics, viaHTTP.Metrics)
	}
}

func TestHealthCountsSessions(t *testing.T) {
	env := newTestEnv(t, nil)
	dialWS(t, env, nil)
	dialWS(t, env, nil)

	resp := env.do(t, http.MethodGet, "/health", "", nil)
	var health healthResponse
	decodeBody(t, resp, &health)
	if health.Sessions != 2 || health.Clients != 1 {
		t.Errorf("sessions, clients = %d, %d, want 2, 1", health.Sessions, health.Clients)
	}
}

func TestWebSocketErrorFrames(t *testing.T) {
	env := newTestEnv(t, nil)
	conn := dialWS(t, env, nil)

	for _, frame := range []string{`not json`, `{"schemaName":"spells"}`} {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
			t.Fatal(err)
		}
		var reply errorResponse
		if err := conn.ReadJSON(&reply); err != nil {
			t.Fatalf("read reply: %v", err)
		}
		if reply.Error == "" {
			t.Errorf("frame %q: expected an error reply", frame)
		}
	}

	// the session survives bad frames
	if err := conn.WriteJSON(map[string]any{"schemaName": "effects", "entity": map[string]any{"id": "burn"}}); err != nil {
		t.Fatal(err)
	}
	var res balance.Result
	if err := conn.ReadJSON(&res); err != nil || res.EntityID != "burn" {
		t.Errorf("follow-up reply = %+v, %v", res, err)
	}
}

func TestWebSocketOriginRejected(t *testing.T) {
	env := newTestEnv(t, nil)

	url := "ws" + strings.TrimPrefix(env.ts.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"http://evil.example"}})
	if err == nil {
		t.Fatal("expected dial to fail for a foreign origin")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("response = %v, want 403", resp)
	}
	// the slot is released after the upgrader has answered
	deadline := time.Now().Add(time.Second)
	for {
		total, _ := env.srv.connLimiter.Stats()
		if total == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("rejected upgrade left %d sessions open", total)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWebSocketConnectionLimit(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) {
		c.Server.Connections = config.ConnectionsConfig{MaxPerIP: 1, MaxTotal: 10}
	})
	dialWS(t, env, nil)

	url := "ws" + strings.TrimPrefix(env.ts.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected second session from the same IP to be rejected")
	}
	if resp == nil || resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("response = %v, want 429", resp)
	}
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.Addr = "127.0.0.1:0"
	srv := New(cfg, dataset.NewCache(dataset.LoaderFunc(func(context.Context) (dataset.Bundle, error) {
		return dataset.NewBundle(), nil
	})))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("ListenAndServe() = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after cancel")
	}
}

func TestWebSocketFrameThrottle(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) {
		c.Server.Frames = config.FrameLimitConfig{MaxFrames: 1, Window: time.Minute}
	})
	conn := dialWS(t, env, nil)

	frame := map[string]any{"schemaName": "effects", "entity": map[string]any{"id": "burn"}}
	if err := conn.WriteJSON(frame); err != nil {
		t.Fatal(err)
	}
	var first balance.Result
	if err := conn.ReadJSON(&first); err != nil || first.EntityID != "burn" {
		t.Fatalf("first reply = %+v, %v", first, err)
	}

	if err := conn.WriteJSON(frame); err != nil {
		t.Fatal(err)
	}
	var second errorResponse
	if err := conn.ReadJSON(&second); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(second.Error, "too quickly") {
		t.Errorf("second reply = %q, want throttle error", second.Error)
	}
}
