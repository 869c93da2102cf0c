package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultFrameInterval is the frame period when none is configured.
const DefaultFrameInterval = 100 * time.Millisecond

// Engine drives the simulation forward in real time. Each frame samples
// the monotonic wall clock once and hands the elapsed seconds to OnFrame.
type Engine struct {
	Interval time.Duration // Frame period
	Frames   uint64        // Frames run so far

	// OnFrame receives the wall seconds since the previous frame.
	OnFrame func(deltaSeconds float64)

	now func() time.Time

	mu      sync.Mutex
	running bool
	stop    chan struct{}
}

// NewEngine creates a frame driver. A non-positive interval uses the default.
func NewEngine(interval time.Duration) *Engine {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &Engine{
		Interval: interval,
		now:      time.Now,
	}
}

// Run executes frames until ctx is cancelled or Stop is called.
func (e *Engine) Run(ctx context.Context) {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.stop = make(chan struct{})
	stop := e.stop
	e.mu.Unlock()

	slog.Info("simulation engine started", "interval", e.Interval)

	ticker := time.NewTicker(e.Interval)
	defer ticker.Stop()

	last := e.now()
	for {
		select {
		case <-ctx.Done():
			e.finish()
			return
		case <-stop:
			e.finish()
			return
		case <-ticker.C:
			now := e.now()
			e.step(now.Sub(last).Seconds())
			last = now
		}
	}
}

func (e *Engine) finish() {
	e.mu.Lock()
	e.running = false
	e.mu.Unlock()
	slog.Info("simulation engine stopped", "frames", e.Frames)
}

// Stop halts the loop. It is safe to call more than once.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running && e.stop != nil {
		close(e.stop)
		e.stop = nil
	}
}

// Running reports whether Run is active.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// step runs one frame.
func (e *Engine) step(delta float64) {
	e.Frames++
	if e.OnFrame != nil {
		e.OnFrame(delta)
	}
}
