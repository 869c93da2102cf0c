package main

import (
	"context"
	"errors"
	"testing"

	"github.com/talgya/main-street/internal/buildings"
	"github.com/talgya/main-street/internal/engine"
	"github.com/talgya/main-street/internal/persistence"
)

type fakeLoader struct {
	snap *engine.Snapshot
	err  error
}

func (f fakeLoader) LoadSnapshot(context.Context) (*engine.Snapshot, error) { return f.snap, f.err }

func (f fakeLoader) Download(context.Context) (*engine.Snapshot, error) { return f.snap, f.err }

func savedGame(t *testing.T) *engine.Snapshot {
	t.Helper()
	sim := engine.New(nil, engine.Options{Seed: 1})
	if _, err := sim.PlaceBuilding(buildings.KindHouse, 0, 1); err != nil {
		t.Fatal(err)
	}
	return sim.Snapshot()
}

func TestRestoreFallbacks(t *testing.T) {
	ctx := context.Background()
	corrupt := errors.New("database disk image is malformed")
	network := errors.New("dial tcp: i/o timeout")
	none := fakeLoader{err: persistence.ErrNoSnapshot}

	tests := []struct {
		name      string
		db        fakeLoader
		backup    downloader
		wantErr   error
		keepS3    bool
		buildings int
	}{
		{"db game", fakeLoader{snap: savedGame(t)}, nil, nil, true, 1},
		{"no game anywhere", none, none, persistence.ErrNoSnapshot, true, 0},
		{"no s3 configured", none, nil, persistence.ErrNoSnapshot, true, 0},
		{"s3 copy", none, fakeLoader{snap: savedGame(t)}, nil, true, 1},
		{"s3 unreachable starts new game", none, fakeLoader{err: network}, persistence.ErrNoSnapshot, false, 0},
		{"corrupt db and s3 unreachable", fakeLoader{err: corrupt}, fakeLoader{err: network}, corrupt, false, 0},
		{"corrupt db with s3 copy", fakeLoader{err: corrupt}, fakeLoader{snap: savedGame(t)}, nil, true, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := engine.New(nil, engine.Options{Seed: 2})
			keep, err := restore(ctx, sim, tt.db, tt.backup)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("err = %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if keep != tt.keepS3 {
				t.Errorf("keepS3 = %v, want %v", keep, tt.keepS3)
			}
			if got := sim.Status().Buildings; got != tt.buildings {
				t.Errorf("buildings = %d, want %d", got, tt.buildings)
			}
		})
	}
}
