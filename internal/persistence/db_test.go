package persistence

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/talgya/main-street/internal/buildings"
	"github.com/talgya/main-street/internal/config"
	"github.com/talgya/main-street/internal/engine"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "game.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleGame(t *testing.T, autoFill bool) *engine.Simulation {
	t.Helper()
	cfg := config.Default()
	cfg.StartingCash = 10000
	cfg.StartingBricks = 500
	cfg.AutoFill = autoFill
	sim := engine.New(cfg, engine.Options{Seed: 7})
	for i, k := range []buildings.Kind{buildings.KindHouse, buildings.KindApartment, buildings.KindDiner} {
		if _, err := sim.PlaceBuilding(k, float64(i)*250, 1); err != nil {
			t.Fatalf("place %s: %v", k, err)
		}
	}
	for i := 0; i < 20; i++ {
		sim.Tick(1)
	}
	return sim
}

func TestSnapshotSaveLoad(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	if db.HasSnapshot(ctx) {
		t.Fatal("fresh database reports a snapshot")
	}
	if _, err := db.LoadSnapshot(ctx); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("err = %v, want ErrNoSnapshot", err)
	}

	sim := sampleGame(t, false)
	snap := sim.Snapshot()
	if len(snap.Mailbox) == 0 {
		t.Fatal("sample game has no applications")
	}
	if err := db.SaveSnapshot(ctx, snap); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	if !db.HasSnapshot(ctx) {
		t.Fatal("HasSnapshot false after save")
	}

	loaded, err := db.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	want, _ := json.Marshal(snap)
	got, _ := json.Marshal(loaded)
	if !bytes.Equal(want, got) {
		t.Errorf("loaded snapshot differs\n got  %s\n want %s", got, want)
	}

	restored := engine.New(config.Default(), engine.Options{Seed: 7})
	if err := restored.Restore(loaded); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if restored.Status() != sim.Status() {
		t.Errorf("status differs after reload")
	}
}

func TestSaveReplacesPreviousGame(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	sim := sampleGame(t, true)
	if err := db.SaveSnapshot(ctx, sim.Snapshot()); err != nil {
		t.Fatal(err)
	}

	snap := sim.Snapshot()
	snap.Buildings = snap.Buildings[:1]
	snap.Mailbox = nil
	if err := db.SaveSnapshot(ctx, snap); err != nil {
		t.Fatal(err)
	}
	loaded, err := db.LoadSnapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded.Buildings) != 1 {
		t.Errorf("buildings = %d, want 1", len(loaded.Buildings))
	}
}

func TestEventsAppendOnce(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	events := []engine.Event{
		{Day: 1, Minute: 480, Time: "Day 1, 08:00", Category: engine.CategoryBuilding, Description: "Built a house", BuildingID: "b1"},
		{Day: 1, Minute: 500, Time: "Day 1, 08:20", Category: engine.CategoryIncome, Description: "Collected $20"},
	}
	n, err := db.SaveEvents(ctx, events)
	if err != nil || n != 2 {
		t.Fatalf("SaveEvents = %d, %v", n, err)
	}

	more := append(events, engine.Event{Day: 1, Minute: 530, Category: engine.CategoryBank, Description: "Deposited $10"})
	n, err = db.SaveEvents(ctx, more)
	if err != nil || n != 1 {
		t.Fatalf("second SaveEvents = %d, %v; want only the new event", n, err)
	}

	got, err := db.RecentEvents(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("events = %d, want 3", len(got))
	}
	if got[0].Description != "Deposited $10" || got[2].BuildingID != "b1" {
		t.Errorf("events = %+v", got)
	}
}

func TestClearEventCursorAfterNewGame(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	old := []engine.Event{{Day: 4, Minute: 4480, Category: engine.CategoryIncome, Description: "Collected $40"}}
	if n, err := db.SaveEvents(ctx, old); err != nil || n != 1 {
		t.Fatalf("SaveEvents = %d, %v", n, err)
	}

	fresh := []engine.Event{{Day: 1, Minute: 480, Category: engine.CategoryBank, Description: "Deposited $10"}}
	if n, _ := db.SaveEvents(ctx, fresh); n != 0 {
		t.Fatalf("saved %d events behind the old cursor", n)
	}
	if err := db.ClearEventCursor(ctx); err != nil {
		t.Fatal(err)
	}
	n, err := db.SaveEvents(ctx, fresh)
	if err != nil || n != 1 {
		t.Errorf("after clearing: SaveEvents = %d, %v; want 1", n, err)
	}
}

func TestMeta(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	if err := db.SaveMeta(ctx, "k", "v1"); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveMeta(ctx, "k", "v2"); err != nil {
		t.Fatal(err)
	}
	if v, err := db.GetMeta(ctx, "k"); err != nil || v != "v2" {
		t.Errorf("GetMeta = %q, %v", v, err)
	}
}

// fakeObjects is an in-memory bucket.
type fakeObjects struct {
	objects map[string][]byte
}

func (f *fakeObjects) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*in.Bucket+"/"+*in.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjects) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[*in.Bucket+"/"+*in.Key]
	if !ok {
		return nil, fmt.Errorf("get object: %w", &types.NoSuchKey{})
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func TestS3UploadDownload(t *testing.T) {
	ctx := context.Background()
	store := &S3Store{client: &fakeObjects{objects: map[string][]byte{}}, bucket: "saves", key: "mainstreet/snapshot.json"}

	if _, err := store.Download(ctx); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("err = %v, want ErrNoSnapshot", err)
	}

	snap := sampleGame(t, true).Snapshot()
	if err := store.Upload(ctx, snap); err != nil {
		t.Fatal(err)
	}
	got, err := store.Download(ctx)
	if err != nil {
		t.Fatal(err)
	}
	a, _ := json.Marshal(snap)
	b, _ := json.Marshal(got)
	if !bytes.Equal(a, b) {
		t.Error("downloaded snapshot differs from upload")
	}
}
