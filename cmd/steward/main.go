// Command steward runs the Main Street autopilot. It observes the game
// through the API on a timer and handles routine chores: collecting income,
// screening tenants, restocking shops and banking surplus cash.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/talgya/main-street/internal/steward"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	apiURL := envOrDefault("STREETSIM_API_URL", "http://localhost:8080")
	adminKey := os.Getenv("STREETSIM_ADMIN_KEY")
	interval := time.Duration(envIntOrDefault("STEWARD_INTERVAL", 30)) * time.Second

	st := steward.New(apiURL, adminKey)
	st.Memory = steward.LoadMemory(envOrDefault("STEWARD_MEMORY", "steward_memory.json"))
	if v := os.Getenv("STEWARD_RESERVE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			st.Rules.CashReserve = f
		}
	}
	if v := os.Getenv("STEWARD_MIN_CREDIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			st.Rules.MinCredit = n
		}
	}

	slog.Info("Main Street steward starting", "api_url", apiURL, "interval", interval, "rules", fmt.Sprintf("%+v", st.Rules))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	slog.Info("waiting for streetsim API...")
	if !waitForAPI(ctx, st.Observer) {
		os.Exit(1)
	}

	runCycle(ctx, st)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			runCycle(ctx, st)
		case <-ctx.Done():
			slog.Info("shutting down")
			fmt.Print(st.Memory.Summary(5))
			fmt.Println("Steward stopped.")
			return
		}
	}
}

func runCycle(ctx context.Context, st *steward.Steward) {
	rec, err := st.RunCycle(ctx)
	if err != nil {
		slog.Error("observation failed", "error", err)
		return
	}
	slog.Info("steward cycle complete",
		"time", rec.Time,
		"level", rec.Level,
		"done", rec.Done,
		"failed", rec.Failed,
		"collected", rec.Collected,
	)
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envIntOrDefault(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

// waitForAPI polls the status endpoint with exponential backoff until it
// responds. It gives up after 5 minutes or when ctx ends.
func waitForAPI(ctx context.Context, o *steward.Observer) bool {
	backoff := 2 * time.Second
	maxBackoff := 30 * time.Second
	deadline := time.Now().Add(5 * time.Minute)

	for {
		if o.Ready(ctx) {
			slog.Info("streetsim API is ready")
			return true
		}
		if time.Now().After(deadline) {
			slog.Error("streetsim API did not become ready within 5 minutes")
			return false
		}
		slog.Info("streetsim not ready, retrying...", "backoff", backoff)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return false
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}
