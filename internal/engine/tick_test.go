package engine

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestEngineRunsFramesUntilStopped(t *testing.T) {
	e := NewEngine(time.Millisecond)
	var frames atomic.Int64
	var total atomic.Int64
	got := make(chan struct{}, 1)
	e.OnFrame = func(delta float64) {
		total.Add(int64(delta * 1e6))
		if frames.Add(1) == 3 {
			got <- struct{}{}
		}
	}

	done := make(chan struct{})
	go func() {
		e.Run(context.Background())
		close(done)
	}()

	select {
	case <-got:
	case <-time.After(5 * time.Second):
		t.Fatal("no frames within 5s")
	}
	e.Stop()
	e.Stop()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Stop")
	}
	if e.Running() {
		t.Error("engine still running")
	}
	if total.Load() <= 0 {
		t.Error("frames carried no wall time")
	}
}

func TestEngineStopsOnContext(t *testing.T) {
	e := NewEngine(0)
	if e.Interval != DefaultFrameInterval {
		t.Errorf("interval = %v, want default", e.Interval)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		e.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestEngineDrivesSimulation(t *testing.T) {
	s := newSim(t, nil, nil)
	e := NewEngine(time.Millisecond)
	e.OnFrame = func(delta float64) { s.Tick(delta) }

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	e.Run(ctx)

	if c := s.Clock(); c.Minutes <= 480 {
		t.Errorf("clock did not advance: %v", c.Minutes)
	}
}
