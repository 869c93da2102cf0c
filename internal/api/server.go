// Package api serves the game over HTTP.
// GET endpoints are read-only views of the running game; POST endpoints are
// the player's commands and require a bearer token when an admin key is set.
// /api/v1/stream is a WebSocket feed of notifications and spawn requests.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/main-street/internal/buildings"
	"github.com/talgya/main-street/internal/engine"
	"github.com/talgya/main-street/internal/persistence"
	"github.com/talgya/main-street/internal/street"
)

// Command rate limit per client IP.
const (
	commandRate   = 600
	commandWindow = time.Minute
)

// Server serves a Simulation over HTTP.
type Server struct {
	Sim      *engine.Simulation
	Eng      *engine.Engine       // Optional; reported in status
	DB       *persistence.DB      // Optional; enables snapshot and restore
	S3       *persistence.S3Store // Optional off-host snapshot copy
	Hub      *Hub                 // Optional; enables the stream
	Spawns   *engine.SpawnQueue   // Polled by /spawns; nil drains the simulation's own queue
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = open.

	srv *http.Server
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	s.srv = &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "", "stream", s.Hub != nil)

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// Shutdown stops a server started with Start.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// Handler returns the routed API with CORS applied.
func (s *Server) Handler() http.Handler {
	limiter := NewRateLimiter(commandRate, commandWindow)
	cmd := func(h http.HandlerFunc) http.HandlerFunc {
		return RateLimitMiddleware(limiter, s.adminOnly(h))
	}

	mux := http.NewServeMux()

	// Views.
	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("GET /api/v1/buildings", s.handleBuildings)
	mux.HandleFunc("GET /api/v1/building/{id}", s.handleBuilding)
	mux.HandleFunc("GET /api/v1/applications", s.handleApplications)
	mux.HandleFunc("GET /api/v1/events", s.handleEvents)
	mux.HandleFunc("GET /api/v1/catalog", s.handleCatalog)
	mux.HandleFunc("GET /api/v1/spawns", s.handleSpawns)
	mux.HandleFunc("GET /api/v1/stream", s.handleStream)

	// Construction.
	mux.HandleFunc("POST /api/v1/place", cmd(s.handlePlace))
	mux.HandleFunc("POST /api/v1/remove", cmd(s.handleRemove))
	mux.HandleFunc("POST /api/v1/street", cmd(s.handleStreet))

	// Economy.
	mux.HandleFunc("POST /api/v1/collect", cmd(s.handleCollect))
	mux.HandleFunc("POST /api/v1/bank/{op}", cmd(s.handleBank))
	mux.HandleFunc("POST /api/v1/restock", cmd(s.handleRestock))
	mux.HandleFunc("POST /api/v1/purchase", cmd(s.handlePurchase))

	// Occupancy and staff.
	mux.HandleFunc("POST /api/v1/application/{id}/{op}", cmd(s.handleApplication))
	mux.HandleFunc("POST /api/v1/staff/{op}", cmd(s.handleStaff))
	mux.HandleFunc("POST /api/v1/guest/{op}", cmd(s.handleGuest))
	mux.HandleFunc("POST /api/v1/seat", cmd(s.handleSeat))

	// Game control.
	mux.HandleFunc("POST /api/v1/pause", cmd(s.handlePause))
	mux.HandleFunc("POST /api/v1/speed", cmd(s.handleSpeed))
	mux.HandleFunc("POST /api/v1/toggle/{setting}", cmd(s.handleToggle))
	mux.HandleFunc("POST /api/v1/snapshot", cmd(s.handleSnapshot))
	mux.HandleFunc("POST /api/v1/restore", cmd(s.handleRestore))
	mux.HandleFunc("POST /api/v1/reset", cmd(s.handleReset))

	return corsMiddleware(mux)
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// CORS_ORIGINS is a comma-separated list added to the local dev servers.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly requires the bearer token when an admin key is configured.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey != "" && !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// statusCode maps a command error to an HTTP status.
func statusCode(err error) int {
	switch {
	case errors.Is(err, engine.ErrBuildingNotFound),
		errors.Is(err, engine.ErrApplicationNotFound),
		errors.Is(err, engine.ErrGuestNotFound),
		errors.Is(err, persistence.ErrNoSnapshot):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrInsufficientFunds),
		errors.Is(err, engine.ErrInsufficientResources),
		errors.Is(err, engine.ErrLotOccupied),
		errors.Is(err, engine.ErrLoanLimit),
		errors.Is(err, engine.ErrNoVacancy),
		errors.Is(err, engine.ErrShopClosed),
		errors.Is(err, engine.ErrOutOfStock),
		errors.Is(err, engine.ErrNoRoomAvailable),
		errors.Is(err, engine.ErrNoTableAvailable):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func writeError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), statusCode(err))
}

// decode reads a JSON body into v, answering 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return false
	}
	return true
}

type statusResponse struct {
	engine.Status
	Running       bool `json:"running"`
	StreamClients int  `json:"stream_clients"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{Status: s.Sim.Status()}
	if s.Eng != nil {
		resp.Running = s.Eng.Running()
	}
	if s.Hub != nil {
		resp.StreamClients = s.Hub.Clients()
	}
	writeJSON(w, resp)
}

func (s *Server) handleBuildings(w http.ResponseWriter, r *http.Request) {
	n := 0
	if v := r.URL.Query().Get("street"); v != "" {
		var err error
		n, err = strconv.Atoi(v)
		if err != nil || !street.ValidStreet(n) {
			writeError(w, fmt.Errorf("street %q: %w", v, engine.ErrInvalidStreetIndex))
			return
		}
	}
	writeJSON(w, s.Sim.Buildings(n))
}

func (s *Server) handleBuilding(w http.ResponseWriter, r *http.Request) {
	v, err := s.Sim.Building(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, v)
}

func (s *Server) handleApplications(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.Applications())
}

// handleEvents returns recent notifications, oldest first. With ?source=db
// it reads the persisted history instead, newest first.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}

	if r.URL.Query().Get("source") == "db" {
		if s.DB == nil {
			http.Error(w, "database not available", http.StatusServiceUnavailable)
			return
		}
		events, err := s.DB.RecentEvents(r.Context(), limit)
		if err != nil {
			slog.Error("load events failed", "error", err)
			http.Error(w, "load events failed", http.StatusInternalServerError)
			return
		}
		writeJSON(w, events)
		return
	}

	events := s.Sim.RecentEvents(limit)
	if c := r.URL.Query().Get("category"); c != "" {
		filtered := events[:0]
		for _, e := range events {
			if e.Category == c {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}
	writeJSON(w, events)
}

type catalogEntry struct {
	buildings.Definition
	KindName     string   `json:"kind_name"`
	CategoryName string   `json:"category_name"`
	DistrictName string   `json:"district_name"`
	Roles        []string `json:"roles,omitempty"`
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	defs := s.Sim.Catalog().All()
	out := make([]catalogEntry, 0, len(defs))
	for _, d := range defs {
		e := catalogEntry{
			Definition:   d,
			KindName:     d.Kind.String(),
			CategoryName: d.Category.String(),
			DistrictName: d.District.String(),
		}
		for _, role := range buildings.RolesFor(d.Category) {
			e.Roles = append(e.Roles, role.String())
		}
		out = append(out, e)
	}
	writeJSON(w, out)
}

// handleSpawns drains pending spawn requests.
func (s *Server) handleSpawns(w http.ResponseWriter, r *http.Request) {
	var reqs []engine.SpawnRequest
	if s.Spawns != nil {
		reqs = s.Spawns.Drain()
	} else {
		reqs = s.Sim.DrainSpawns()
	}
	if reqs == nil {
		reqs = []engine.SpawnRequest{}
	}
	writeJSON(w, reqs)
}

// handleStream upgrades to a WebSocket. The first message is the current
// status; notifications and spawn requests follow as they happen.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if s.Hub == nil {
		http.Error(w, "streaming disabled", http.StatusServiceUnavailable)
		return
	}
	if s.Hub.Clients() >= maxStreamClients {
		http.Error(w, "too many stream connections", http.StatusServiceUnavailable)
		return
	}
	hello, err := encodeEnvelope(MessageStatus, s.Sim.Status())
	if err != nil {
		http.Error(w, "encode status", http.StatusInternalServerError)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	if !s.Hub.join(conn, hello) {
		conn.Close()
		return
	}
	slog.Info("stream client connected", "remote", clientIP(r))
}

func (s *Server) handlePlace(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Kind     string  `json:"kind"`
		Position float64 `json:"position"`
		Street   int     `json:"street"` // 0 = active street
	}
	if !decode(w, r, &req) {
		return
	}
	kind, ok := buildings.ParseKind(req.Kind)
	if !ok {
		writeError(w, fmt.Errorf("%q: %w", req.Kind, engine.ErrInvalidBuildingKind))
		return
	}
	b, err := s.Sim.PlaceBuilding(kind, req.Position, req.Street)
	if err != nil {
		writeError(w, err)
		return
	}
	v, err := s.Sim.Building(b.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, v)
}

type idRequest struct {
	ID string `json:"id"`
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	var req idRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.Sim.RemoveBuilding(req.ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]string{"removed": req.ID})
}

func (s *Server) handleStreet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Street int `json:"street"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := s.Sim.SwitchStreet(req.Street); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]int{"active_street": req.Street})
}

func (s *Server) handleCollect(w http.ResponseWriter, r *http.Request) {
	var req idRequest
	if !decode(w, r, &req) {
		return
	}
	amount, err := s.Sim.CollectIncome(req.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"id": req.ID, "collected": amount, "cash": s.Sim.Treasury().Cash})
}

func (s *Server) handleBank(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount float64 `json:"amount"`
	}
	if !decode(w, r, &req) {
		return
	}
	var err error
	switch op := r.PathValue("op"); op {
	case "deposit":
		err = s.Sim.Deposit(req.Amount)
	case "withdraw":
		err = s.Sim.Withdraw(req.Amount)
	case "borrow":
		err = s.Sim.Borrow(req.Amount)
	case "repay":
		err = s.Sim.RepayLoan(req.Amount)
	default:
		http.Error(w, "unknown bank operation "+op, http.StatusNotFound)
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, s.Sim.Treasury())
}

func (s *Server) handleRestock(w http.ResponseWriter, r *http.Request) {
	var req idRequest
	if !decode(w, r, &req) {
		return
	}
	cost, err := s.Sim.RestockShop(req.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"id": req.ID, "cost": cost})
}

func (s *Server) handlePurchase(w http.ResponseWriter, r *http.Request) {
	var req idRequest
	if !decode(w, r, &req) {
		return
	}
	price, err := s.Sim.ShopPurchase(req.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"id": req.ID, "price": price})
}

func (s *Server) handleApplication(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	switch op := r.PathValue("op"); op {
	case "accept":
		unit, err := s.Sim.AcceptApplication(id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, map[string]any{"application": id, "unit": unit})
	case "reject":
		if err := s.Sim.RejectApplication(id); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, map[string]any{"application": id, "rejected": true})
	default:
		http.Error(w, "unknown application operation "+op, http.StatusNotFound)
	}
}

func (s *Server) handleStaff(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID   string `json:"id"`
		Role string `json:"role"`
	}
	if !decode(w, r, &req) {
		return
	}
	role, ok := buildings.ParseRole(req.Role)
	if !ok {
		writeError(w, fmt.Errorf("%q: %w", req.Role, engine.ErrInvalidRole))
		return
	}
	var err error
	switch op := r.PathValue("op"); op {
	case "hire":
		err = s.Sim.HireEmployee(req.ID, role)
	case "fire":
		err = s.Sim.FireEmployee(req.ID, role)
	default:
		http.Error(w, "unknown staff operation "+op, http.StatusNotFound)
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	v, err := s.Sim.Building(req.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, v)
}

func (s *Server) handleGuest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID    string `json:"id"`
		Guest string `json:"guest"`
	}
	if !decode(w, r, &req) {
		return
	}
	switch op := r.PathValue("op"); op {
	case "checkin":
		if req.Guest == "" {
			req.Guest = uuid.NewString()
		}
		room, err := s.Sim.CheckInGuest(req.ID, req.Guest)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, map[string]any{"id": req.ID, "guest": req.Guest, "room": room})
	case "checkout":
		if err := s.Sim.CheckOutGuest(req.ID, req.Guest); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, map[string]any{"id": req.ID, "guest": req.Guest, "checked_out": true})
	default:
		http.Error(w, "unknown guest operation "+op, http.StatusNotFound)
	}
}

func (s *Server) handleSeat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID       string `json:"id"`
		Customer string `json:"customer"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Customer == "" {
		req.Customer = uuid.NewString()
	}
	table, err := s.Sim.SeatCustomer(req.ID, req.Customer)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"id": req.ID, "customer": req.Customer, "table": table})
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Paused bool `json:"paused"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.Sim.SetPaused(req.Paused)
	slog.Info("pause changed", "paused", req.Paused)
	writeJSON(w, map[string]bool{"paused": req.Paused})
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Speed int `json:"speed"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := s.Sim.SetSpeed(req.Speed); err != nil {
		writeError(w, err)
		return
	}
	slog.Info("speed changed", "speed", req.Speed)
	writeJSON(w, map[string]int{"speed": req.Speed})
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	var on bool
	setting := r.PathValue("setting")
	switch setting {
	case "auto-collect":
		on = s.Sim.ToggleAutoCollection()
	case "auto-fill":
		on = s.Sim.ToggleAutoFill()
	case "creative":
		on = s.Sim.ToggleCreativeMode()
	default:
		http.Error(w, "unknown setting "+setting, http.StatusNotFound)
		return
	}
	slog.Info("setting toggled", "setting", setting, "on", on)
	writeJSON(w, map[string]bool{setting: on})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}
	snap := s.Sim.Snapshot()
	if err := s.DB.SaveSnapshot(r.Context(), snap); err != nil {
		slog.Error("snapshot save failed", "error", err)
		http.Error(w, "snapshot failed", http.StatusInternalServerError)
		return
	}
	uploaded := false
	if s.S3 != nil {
		if err := s.S3.Upload(r.Context(), snap); err != nil {
			slog.Warn("snapshot upload failed", "error", err)
		} else {
			uploaded = true
		}
	}

	writeJSON(w, map[string]any{
		"time":      engine.SimTime(snap.Clock.Minutes),
		"buildings": len(snap.Buildings),
		"uploaded":  uploaded,
		"message":   "snapshot saved",
	})
}

// handleRestore reloads the saved game from the database, or from S3 when
// ?source=s3 is given.
func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	var (
		snap *engine.Snapshot
		err  error
	)
	switch r.URL.Query().Get("source") {
	case "s3":
		if s.S3 == nil {
			http.Error(w, "s3 not configured", http.StatusServiceUnavailable)
			return
		}
		snap, err = s.S3.Download(r.Context())
	default:
		if s.DB == nil {
			http.Error(w, "database not available", http.StatusServiceUnavailable)
			return
		}
		snap, err = s.DB.LoadSnapshot(r.Context())
	}
	if err != nil {
		if errors.Is(err, persistence.ErrNoSnapshot) {
			writeError(w, err)
			return
		}
		slog.Error("snapshot load failed", "error", err)
		http.Error(w, "load failed", http.StatusInternalServerError)
		return
	}
	if err := s.Sim.Restore(snap); err != nil {
		writeError(w, err)
		return
	}
	s.newGame(r.Context())
	writeJSON(w, s.Sim.Status())
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.Sim.Reset()
	s.newGame(r.Context())
	writeJSON(w, s.Sim.Status())
}

// newGame drops what belonged to the replaced game: queued spawn requests
// and the saved-events cursor.
func (s *Server) newGame(ctx context.Context) {
	if s.Spawns != nil {
		s.Spawns.Drain()
	}
	if s.DB != nil {
		if err := s.DB.ClearEventCursor(ctx); err != nil {
			slog.Warn("event cursor not cleared", "error", err)
		}
	}
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
