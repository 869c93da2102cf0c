package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/main-street/internal/engine"
	"github.com/talgya/main-street/internal/persistence"
)

func newServer(t *testing.T, opts engine.Options) *Server {
	t.Helper()
	if opts.Seed == 0 {
		opts.Seed = 1
	}
	return &Server{Sim: engine.New(nil, opts)}
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func placeHouse(t *testing.T, h http.Handler, position float64) engine.BuildingView {
	t.Helper()
	body, _ := json.Marshal(map[string]any{"kind": "house", "position": position, "street": 1})
	rec := do(t, h, http.MethodPost, "/api/v1/place", string(body))
	if rec.Code != http.StatusCreated {
		t.Fatalf("place: %d %s", rec.Code, rec.Body.String())
	}
	var v engine.BuildingView
	decodeBody(t, rec, &v)
	return v
}

func TestStatus(t *testing.T) {
	s := newServer(t, engine.Options{})
	rec := do(t, s.Handler(), http.MethodGet, "/api/v1/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d", rec.Code)
	}
	var got statusResponse
	decodeBody(t, rec, &got)
	if got.Cash != 1000 || got.Day != 1 || got.Hour != 8 || got.Speed != 1 {
		t.Errorf("status = %+v", got.Status)
	}
}

func TestPlaceAndQueryBuilding(t *testing.T) {
	s := newServer(t, engine.Options{})
	h := s.Handler()

	v := placeHouse(t, h, 250)
	if v.KindName != "house" || v.Street != 1 || v.Lot != 1 {
		t.Errorf("placed = %+v", v)
	}

	rec := do(t, h, http.MethodGet, "/api/v1/building/"+v.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get building: %d", rec.Code)
	}
	rec = do(t, h, http.MethodGet, "/api/v1/building/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing building: %d, want 404", rec.Code)
	}

	var list []engine.BuildingView
	decodeBody(t, do(t, h, http.MethodGet, "/api/v1/buildings?street=1", ""), &list)
	if len(list) != 1 {
		t.Errorf("street 1 has %d buildings, want 1", len(list))
	}
	decodeBody(t, do(t, h, http.MethodGet, "/api/v1/buildings?street=2", ""), &list)
	if len(list) != 0 {
		t.Errorf("street 2 has %d buildings, want 0", len(list))
	}
	if rec := do(t, h, http.MethodGet, "/api/v1/buildings?street=9", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("street 9: %d, want 400", rec.Code)
	}
}

func TestCommandErrorsMapToStatus(t *testing.T) {
	s := newServer(t, engine.Options{})
	h := s.Handler()
	placeHouse(t, h, 0)

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"bad json", "/api/v1/place", "{", http.StatusBadRequest},
		{"unknown kind", "/api/v1/place", `{"kind":"castle","position":500,"street":1}`, http.StatusBadRequest},
		{"bad street", "/api/v1/place", `{"kind":"house","position":500,"street":7}`, http.StatusBadRequest},
		{"lot taken", "/api/v1/place", `{"kind":"house","position":0,"street":1}`, http.StatusConflict},
		{"too expensive", "/api/v1/place", `{"kind":"hotel","position":500,"street":1}`, http.StatusConflict},
		{"remove missing", "/api/v1/remove", `{"id":"nope"}`, http.StatusNotFound},
		{"overdraw", "/api/v1/bank/withdraw", `{"amount":5000}`, http.StatusConflict},
		{"negative deposit", "/api/v1/bank/deposit", `{"amount":-5}`, http.StatusBadRequest},
		{"unknown bank op", "/api/v1/bank/rob", `{"amount":5}`, http.StatusNotFound},
		{"bad speed", "/api/v1/speed", `{"speed":4}`, http.StatusBadRequest},
		{"unknown application", "/api/v1/application/nope/accept", `{}`, http.StatusNotFound},
		{"unknown role", "/api/v1/staff/hire", `{"id":"x","role":"janitor"}`, http.StatusBadRequest},
		{"unknown toggle", "/api/v1/toggle/gravity", ``, http.StatusNotFound},
		{"no database", "/api/v1/snapshot", ``, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := s.Sim.Status()
			rec := do(t, h, http.MethodPost, tt.path, tt.body)
			if rec.Code != tt.want {
				t.Errorf("code = %d, want %d (%s)", rec.Code, tt.want, strings.TrimSpace(rec.Body.String()))
			}
			if after := s.Sim.Status(); after != before {
				t.Errorf("failed command changed state")
			}
		})
	}
}

func TestBankAndControls(t *testing.T) {
	s := newServer(t, engine.Options{})
	h := s.Handler()

	rec := do(t, h, http.MethodPost, "/api/v1/bank/deposit", `{"amount":400}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("deposit: %d %s", rec.Code, rec.Body.String())
	}
	if tr := s.Sim.Treasury(); tr.Cash != 600 || tr.BankBalance != 400 {
		t.Errorf("treasury = %+v", tr)
	}

	do(t, h, http.MethodPost, "/api/v1/pause", `{"paused":true}`)
	do(t, h, http.MethodPost, "/api/v1/speed", `{"speed":3}`)
	rec = do(t, h, http.MethodPost, "/api/v1/toggle/creative", "")
	var toggled map[string]bool
	decodeBody(t, rec, &toggled)
	if !toggled["creative"] {
		t.Errorf("toggle response = %v", toggled)
	}
	st := s.Sim.Status()
	if !st.Paused || st.Speed != 3 || !st.Creative {
		t.Errorf("status = %+v", st)
	}
}

func TestCollectEndpoint(t *testing.T) {
	s := newServer(t, engine.Options{})
	h := s.Handler()
	v := placeHouse(t, h, 0)
	s.Sim.Tick(10)

	rec := do(t, h, http.MethodPost, "/api/v1/collect", `{"id":"`+v.ID+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("collect: %d %s", rec.Code, rec.Body.String())
	}
	var got struct {
		Collected float64 `json:"collected"`
		Cash      float64 `json:"cash"`
	}
	decodeBody(t, rec, &got)
	if got.Collected <= 0 || got.Cash != 900+got.Collected {
		t.Errorf("collect = %+v", got)
	}
}

func TestAdminKeyGuardsCommands(t *testing.T) {
	s := newServer(t, engine.Options{})
	s.AdminKey = "secret"
	h := s.Handler()

	if rec := do(t, h, http.MethodPost, "/api/v1/pause", `{"paused":true}`); rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: %d, want 401", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/v1/status", ""); rec.Code != http.StatusOK {
		t.Errorf("views must stay public: %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/pause", strings.NewReader(`{"paused":true}`))
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !s.Sim.Status().Paused {
		t.Errorf("with token: %d", rec.Code)
	}
}

func TestCatalogAndSpawns(t *testing.T) {
	s := newServer(t, engine.Options{})
	h := s.Handler()

	var catalog []catalogEntry
	decodeBody(t, do(t, h, http.MethodGet, "/api/v1/catalog", ""), &catalog)
	if len(catalog) == 0 || catalog[0].KindName != "house" {
		t.Fatalf("catalog = %+v", catalog)
	}

	body := `{"kind":"apartment","position":0,"street":1}`
	s.Sim.ToggleCreativeMode()
	if rec := do(t, h, http.MethodPost, "/api/v1/place", body); rec.Code != http.StatusCreated {
		t.Fatalf("place apartment: %d %s", rec.Code, rec.Body.String())
	}
	var spawns []engine.SpawnRequest
	decodeBody(t, do(t, h, http.MethodGet, "/api/v1/spawns", ""), &spawns)
	if len(spawns) != 1 || spawns[0].Event != engine.EventMoveIn {
		t.Errorf("spawns = %+v", spawns)
	}
	decodeBody(t, do(t, h, http.MethodGet, "/api/v1/spawns", ""), &spawns)
	if len(spawns) != 0 {
		t.Errorf("spawns not drained: %+v", spawns)
	}
}

func TestSnapshotRestore(t *testing.T) {
	db, err := persistence.Open(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	s := newServer(t, engine.Options{})
	s.DB = db
	h := s.Handler()

	if rec := do(t, h, http.MethodPost, "/api/v1/restore", ""); rec.Code != http.StatusNotFound {
		t.Errorf("restore before save: %d, want 404", rec.Code)
	}

	placeHouse(t, h, 500)
	want := s.Sim.Status()
	if rec := do(t, h, http.MethodPost, "/api/v1/snapshot", ""); rec.Code != http.StatusOK {
		t.Fatalf("snapshot: %d %s", rec.Code, rec.Body.String())
	}
	do(t, h, http.MethodPost, "/api/v1/reset", "")
	if n := s.Sim.Status().Buildings; n != 0 {
		t.Fatalf("reset left %d buildings", n)
	}

	rec := do(t, h, http.MethodPost, "/api/v1/restore", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("restore: %d %s", rec.Code, rec.Body.String())
	}
	if got := s.Sim.Status(); got != want {
		t.Errorf("restored status = %+v, want %+v", got, want)
	}
}

func TestResetStartsFreshHistory(t *testing.T) {
	db, err := persistence.Open(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	ctx := context.Background()

	spawns := &engine.SpawnQueue{}
	s := newServer(t, engine.Options{Sink: spawns})
	s.DB = db
	s.Spawns = spawns
	h := s.Handler()

	s.Sim.ToggleCreativeMode()
	do(t, h, http.MethodPost, "/api/v1/place", `{"kind":"apartment","position":0,"street":1}`)
	s.Sim.Tick(600)
	if n, err := db.SaveEvents(ctx, s.Sim.RecentEvents(0)); err != nil || n == 0 {
		t.Fatalf("SaveEvents = %d, %v", n, err)
	}

	if rec := do(t, h, http.MethodPost, "/api/v1/reset", ""); rec.Code != http.StatusOK {
		t.Fatalf("reset: %d", rec.Code)
	}
	var queued []engine.SpawnRequest
	decodeBody(t, do(t, h, http.MethodGet, "/api/v1/spawns", ""), &queued)
	if len(queued) != 0 {
		t.Errorf("spawns from the old game survived reset: %+v", queued)
	}

	if rec := do(t, h, http.MethodPost, "/api/v1/bank/deposit", `{"amount":10}`); rec.Code != http.StatusOK {
		t.Fatalf("deposit: %d %s", rec.Code, rec.Body.String())
	}
	events := s.Sim.RecentEvents(0)
	if len(events) != 1 || events[0].Category != engine.CategoryBank {
		t.Fatalf("events after reset = %+v", events)
	}
	n, err := db.SaveEvents(ctx, events)
	if err != nil || n != 1 {
		t.Errorf("SaveEvents after reset = %d, %v; want 1", n, err)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	now := time.Unix(1000, 0)
	rl.now = func() time.Time { return now }

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("first two requests refused")
	}
	if rl.Allow("a") {
		t.Error("third request allowed")
	}
	if !rl.Allow("b") {
		t.Error("limits leak across IPs")
	}
	if got := rl.RetryAfter("a"); got != 61 {
		t.Errorf("RetryAfter = %d, want 61", got)
	}
	now = now.Add(time.Minute)
	if !rl.Allow("a") {
		t.Error("window did not reset")
	}

	h := RateLimitMiddleware(NewRateLimiter(1, time.Minute), func(w http.ResponseWriter, r *http.Request) {})
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.1, 10.0.0.2")
	h(httptest.NewRecorder(), req)
	rec := httptest.NewRecorder()
	h(rec, req)
	if rec.Code != http.StatusTooManyRequests || rec.Header().Get("Retry-After") == "" {
		t.Errorf("second request: %d retry=%q", rec.Code, rec.Header().Get("Retry-After"))
	}
}

func TestStreamDeliversEvents(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	s := newServer(t, engine.Options{OnEvent: hub.PublishEvent})
	s.Hub = hub
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var env Envelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read hello: %v", err)
	}
	if env.Type != MessageStatus {
		t.Fatalf("first message = %s, want status", env.Type)
	}

	placeHouse(t, s.Handler(), 0)
	for {
		if err := conn.ReadJSON(&env); err != nil {
			t.Fatalf("read event: %v", err)
		}
		if env.Type != MessageEvent {
			continue
		}
		var ev engine.Event
		if err := json.Unmarshal(env.Payload, &ev); err != nil {
			t.Fatal(err)
		}
		if ev.Category == engine.CategoryBuilding {
			break
		}
	}
	if hub.Clients() != 1 {
		t.Errorf("clients = %d, want 1", hub.Clients())
	}
}
