package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/main-street/internal/buildings"
	"github.com/talgya/main-street/internal/economy"
)

// CollectIncome drains a building's balance into cash unconditionally and
// returns the amount. Producers hand over their stored resources instead.
func (s *Simulation) CollectIncome(id string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, def, err := s.building(id)
	if err != nil {
		return 0, err
	}
	now := s.g.Clock.Minutes

	if p := b.Producer; p != nil {
		n := int(economy.Floor(p.Stored))
		p.Stored -= float64(n)
		switch p.Resource {
		case buildings.ResourceWood:
			s.g.Treasury.AddWood(n)
		case buildings.ResourceBricks:
			s.g.Treasury.AddBricks(n)
		}
		b.LastAutoCollectAt = now
		if n > 0 {
			s.emitEvent(CategoryResource, b.ID, "Collected %d %s from %s", n, p.Resource, s.label(b))
		}
		return float64(n), nil
	}
	if def.Category == buildings.CategoryRecreation {
		return 0, fmt.Errorf("%s is a %s: %w", b.ID, b.Kind, ErrNotApplicable)
	}

	amount := economy.Floor(b.DrainIncome())
	s.g.Treasury.Credit(amount)
	b.LastAutoCollectAt = now
	if amount > 0 {
		s.emitEvent(CategoryIncome, b.ID, "Collected %s from %s", economy.Format(amount), s.label(b))
	}
	return amount, nil
}

// Deposit moves cash into the bank.
func (s *Simulation) Deposit(amount float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.g.Treasury.Deposit(amount); err != nil {
		slog.Info("deposit refused", "amount", amount, "error", err)
		return err
	}
	s.emitEvent(CategoryBank, "", "Deposited %s", economy.Format(amount))
	return nil
}

// Withdraw moves bank funds into cash.
func (s *Simulation) Withdraw(amount float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.g.Treasury.Withdraw(amount); err != nil {
		slog.Info("withdrawal refused", "amount", amount, "error", err)
		return err
	}
	s.emitEvent(CategoryBank, "", "Withdrew %s", economy.Format(amount))
	return nil
}

// Borrow takes out a loan.
func (s *Simulation) Borrow(amount float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	debt, err := s.g.Treasury.Borrow(amount)
	if err != nil {
		slog.Info("loan refused", "amount", amount, "error", err)
		return err
	}
	s.emitEvent(CategoryBank, "", "Borrowed %s (owing %s)", economy.Format(amount), economy.Format(debt))
	return nil
}

// RepayLoan pays down the loan from cash.
func (s *Simulation) RepayLoan(amount float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	paid, err := s.g.Treasury.Repay(amount)
	if err != nil {
		slog.Info("repayment refused", "amount", amount, "error", err)
		return err
	}
	s.emitEvent(CategoryBank, "", "Repaid %s of the loan, %s outstanding",
		economy.Format(paid), economy.Format(s.g.Treasury.LoanAmount))
	return nil
}

// SetPaused pauses or resumes the clock.
func (s *Simulation) SetPaused(paused bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.g.Clock.Paused = paused
}

// SetSpeed sets the clock speed to 1, 2 or 3.
func (s *Simulation) SetSpeed(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.g.Clock.SetSpeed(n)
}

// ToggleAutoCollection flips auto-collection and returns the new setting.
func (s *Simulation) ToggleAutoCollection() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.g.AutoCollect = !s.g.AutoCollect
	return s.g.AutoCollect
}

// ToggleCreativeMode flips free construction and returns the new setting.
func (s *Simulation) ToggleCreativeMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.g.Creative = !s.g.Creative
	return s.g.Creative
}
