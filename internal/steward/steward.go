package steward

import (
	"context"
	"log/slog"
)

// Steward runs observe, decide and act cycles against one game.
type Steward struct {
	Observer *Observer
	Actor    *Actor
	Rules    Rules
	Memory   *CycleMemory
}

// New creates a steward with DefaultRules and an in-process memory.
func New(baseURL, adminKey string) *Steward {
	return &Steward{
		Observer: NewObserver(baseURL),
		Actor:    NewActor(baseURL, adminKey),
		Rules:    DefaultRules(),
		Memory:   LoadMemory(""),
	}
}

// RunCycle executes one cycle. Failed actions are logged and skipped; the
// error is only for a failed observation.
func (s *Steward) RunCycle(ctx context.Context) (CycleRecord, error) {
	obs, err := s.Observer.Observe(ctx)
	if err != nil {
		return CycleRecord{}, err
	}
	health := Triage(obs, s.Rules.CashReserve)
	actions := Decide(obs, s.Rules)
	slog.Info("steward observed",
		"time", obs.Status.Time,
		"level", health.Level,
		"cash", health.Cash,
		"uncollected", health.Uncollected,
		"vacant_units", health.VacantUnits,
		"planned", len(actions),
	)

	rec := CycleRecord{
		Time:      obs.Status.Time,
		Level:     health.Level,
		Cash:      health.Cash,
		Occupancy: health.Occupancy,
		Planned:   len(actions),
	}
	for _, a := range actions {
		if ctx.Err() != nil {
			break
		}
		result, err := s.Actor.Act(ctx, a)
		if err != nil {
			rec.Failed++
			slog.Warn("steward action failed", "kind", a.Kind, "target", a.Target, "error", err)
			continue
		}
		rec.Done++
		if a.Kind == ActionCollect {
			if v, ok := result["collected"].(float64); ok {
				rec.Collected += v
			}
		}
		slog.Info("steward acted", "kind", a.Kind, "target", a.Target, "reason", a.Reason)
	}

	if s.Memory != nil {
		s.Memory.Record(rec)
		s.Memory.Save()
	}
	return rec, nil
}
