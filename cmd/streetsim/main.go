// Command streetsim runs the Main Street economy server: the real-time
// simulation loop, SQLite saves with an optional S3 copy, and the HTTP
// and WebSocket API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/talgya/main-street/internal/api"
	"github.com/talgya/main-street/internal/config"
	"github.com/talgya/main-street/internal/economy"
	"github.com/talgya/main-street/internal/engine"
	"github.com/talgya/main-street/internal/entropy"
	"github.com/talgya/main-street/internal/persistence"
)

func main() {
	settings := config.FromEnv()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: settings.SlogLevel(),
	}))
	slog.SetDefault(logger)

	slog.Info("Main Street economy server starting", "seed", settings.Seed, "db", settings.DBPath)

	balance, err := config.Load(settings.BalancePath)
	if err != nil {
		slog.Error("failed to load balance file", "path", settings.BalancePath, "error", err)
		os.Exit(1)
	}

	if dir := filepath.Dir(settings.DBPath); dir != "" {
		os.MkdirAll(dir, 0755)
	}
	db, err := persistence.Open(settings.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var store *persistence.S3Store
	if settings.S3Bucket != "" {
		store, err = persistence.NewS3Store(ctx, settings.S3Bucket, settings.S3Key)
		if err != nil {
			slog.Warn("S3 backup disabled", "error", err)
			store = nil
		} else {
			slog.Info("S3 backup enabled", "bucket", settings.S3Bucket, "key", settings.S3Key)
		}
	}

	var source entropy.Source
	if client := entropy.NewClient(settings.RandomOrgKey); client != nil {
		slog.Info("random.org entropy enabled")
		source = client
	}

	hub := api.NewHub()
	spawns := &engine.SpawnQueue{}
	sim := engine.New(balance, engine.Options{
		Seed:    settings.Seed,
		Source:  source,
		Sink:    api.SpawnRelay{Hub: hub, Queue: spawns},
		OnEvent: hub.PublishEvent,
	})

	var backup downloader
	if store != nil {
		backup = store
	}
	keepS3, err := restore(ctx, sim, db, backup)
	if err != nil {
		if !errors.Is(err, persistence.ErrNoSnapshot) {
			slog.Error("saved game could not be restored; move it aside to start over", "error", err)
			os.Exit(1)
		}
		slog.Info("no saved game, starting a new one")
		if err := db.SaveSnapshot(ctx, sim.Snapshot()); err != nil {
			slog.Error("initial save failed", "error", err)
		}
	}
	if !keepS3 {
		slog.Warn("S3 uploads disabled for this run so the unreadable copy is kept")
		store = nil
	}
	if err := db.ClearEventCursor(ctx); err != nil {
		slog.Warn("event cursor not cleared", "error", err)
	}

	save := func(reason string) {
		snap := sim.Snapshot()
		saveCtx, done := context.WithTimeout(context.Background(), 30*time.Second)
		defer done()
		if err := db.SaveSnapshot(saveCtx, snap); err != nil {
			slog.Error("save failed", "reason", reason, "error", err)
			return
		}
		if n, err := db.SaveEvents(saveCtx, sim.RecentEvents(0)); err != nil {
			slog.Error("event save failed", "error", err)
		} else {
			slog.Debug("events saved", "count", n)
		}
		if store != nil {
			if err := store.Upload(saveCtx, snap); err != nil {
				slog.Warn("snapshot upload failed", "error", err)
			}
		}
		slog.Info("game saved", "reason", reason, "time", engine.SimTime(snap.Clock.Minutes))
	}

	eng := engine.NewEngine(settings.FrameInterval)
	eng.OnFrame = func(delta float64) {
		res := sim.Tick(delta)
		if res.Failures > 0 {
			slog.Warn("buildings failed this frame", "count", res.Failures)
		}
		if res.NewDay {
			st := sim.Status()
			slog.Info("new day",
				"day", st.Day,
				"cash", st.Cash,
				"bank", st.BankBalance,
				"loan", st.LoanAmount,
				"buildings", st.Buildings,
				"occupancy", fmt.Sprintf("%d/%d", st.OccupiedUnits, st.Units),
			)
			save("daily")
		}
	}

	if settings.AdminKey == "" {
		slog.Warn("STREETSIM_ADMIN_KEY not set, commands are open to any client")
	}
	server := &api.Server{
		Sim:      sim,
		Eng:      eng,
		DB:       db,
		S3:       store,
		Hub:      hub,
		Spawns:   spawns,
		Port:     settings.Port,
		AdminKey: settings.AdminKey,
	}
	go hub.Run(ctx)
	server.Start()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		eng.Stop()
	}()

	st := sim.Status()
	fmt.Printf("\nMain Street is open: %d buildings, %s cash, %s.\n", st.Buildings, economy.Format(st.Cash), st.Time)
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", settings.Port)
	fmt.Println("Starting simulation... (Ctrl+C to stop)")

	eng.Run(ctx)

	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	server.Shutdown(shutdownCtx)
	done()
	cancel()

	slog.Info("final save...")
	save("shutdown")
	fmt.Println("Simulation stopped. Game saved.")
}

type loader interface {
	LoadSnapshot(ctx context.Context) (*engine.Snapshot, error)
}

type downloader interface {
	Download(ctx context.Context) (*engine.Snapshot, error)
}

// restore loads the saved game from the database, falling back to the S3
// copy. It returns ErrNoSnapshot when the database has no game and S3 has
// none it can read. keepS3 is false when an S3 copy may exist but could
// not be downloaded.
func restore(ctx context.Context, sim *engine.Simulation, db loader, backup downloader) (keepS3 bool, err error) {
	keepS3 = true
	snap, err := db.LoadSnapshot(ctx)
	if err != nil && backup != nil {
		slog.Info("trying S3 copy", "db_error", err)
		remote, s3err := backup.Download(ctx)
		switch {
		case s3err == nil:
			snap, err = remote, nil
		case errors.Is(s3err, persistence.ErrNoSnapshot):
		default:
			slog.Warn("S3 copy could not be downloaded", "error", s3err)
			keepS3 = false
		}
	}
	if err != nil {
		return keepS3, err
	}
	if err := sim.Restore(snap); err != nil {
		return keepS3, fmt.Errorf("restore: %w", err)
	}
	st := sim.Status()
	slog.Info("game restored", "time", st.Time, "buildings", st.Buildings, "cash", st.Cash)
	return keepS3, nil
}
