package economy

import (
	"fmt"
	"math"
)

// Treasury is the player's money, construction resources, bank account
// and loan. Cash, bank, loan and resources hold whole units after every
// mutation. Cash may go negative through daily charges.
type Treasury struct {
	Cash   float64 `json:"cash"`
	Wood   int     `json:"wood"`
	Bricks int     `json:"bricks"`

	BankBalance float64 `json:"bank_balance"`
	LoanAmount  float64 `json:"loan_amount"`

	LoanInterestRate    float64 `json:"loan_interest_rate"`    // Flat, charged at borrow time
	SavingsInterestRate float64 `json:"savings_interest_rate"` // Annual, paid daily
	PropertyTaxRate     float64 `json:"property_tax_rate"`     // Fraction of building cost per day
	MaxLoan             float64 `json:"max_loan"`              // 0 = unlimited

	LastInterestDay int `json:"last_interest_day"`
	LastTaxDay      int `json:"last_tax_day"`
}

// CanAfford reports whether the treasury covers a construction cost.
func (t *Treasury) CanAfford(cost float64, wood, bricks int) bool {
	return t.Cash >= cost && t.Wood >= wood && t.Bricks >= bricks
}

// Spend debits a construction cost. Nothing changes on failure.
func (t *Treasury) Spend(cost float64, wood, bricks int) error {
	if !t.CanAfford(cost, wood, bricks) {
		return fmt.Errorf("need %s, %d wood, %d bricks; have %s, %d wood, %d bricks: %w",
			Format(cost), wood, bricks, Format(t.Cash), t.Wood, t.Bricks, ErrInsufficientResources)
	}
	t.Cash = Round(t.Cash - cost)
	t.Wood -= wood
	t.Bricks -= bricks
	return nil
}

// Credit adds income to cash.
func (t *Treasury) Credit(amount float64) {
	t.Cash = Round(t.Cash + amount)
}

// Charge debits an obligation from cash. Cash may go negative.
func (t *Treasury) Charge(amount float64) {
	t.Cash = Round(t.Cash - amount)
}

// AddWood and AddBricks credit collected construction resources.
func (t *Treasury) AddWood(n int)   { t.Wood += n }
func (t *Treasury) AddBricks(n int) { t.Bricks += n }

// InDebt reports whether cash is below zero.
func (t *Treasury) InDebt() bool { return t.Cash < 0 }

// Deposit moves cash into the bank.
func (t *Treasury) Deposit(amount float64) error {
	amount = Round(amount)
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if amount > t.Cash {
		return fmt.Errorf("deposit %s with %s cash: %w", Format(amount), Format(t.Cash), ErrInsufficientFunds)
	}
	t.Cash = Round(t.Cash - amount)
	t.BankBalance = Round(t.BankBalance + amount)
	return nil
}

// Withdraw moves bank funds into cash.
func (t *Treasury) Withdraw(amount float64) error {
	amount = Round(amount)
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if amount > t.BankBalance {
		return fmt.Errorf("withdraw %s with %s banked: %w", Format(amount), Format(t.BankBalance), ErrInsufficientFunds)
	}
	t.BankBalance = Round(t.BankBalance - amount)
	t.Cash = Round(t.Cash + amount)
	return nil
}

// Borrow takes a loan. The flat interest is added to the debt up front.
// It returns the debt incurred.
func (t *Treasury) Borrow(amount float64) (float64, error) {
	amount = Round(amount)
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	debt := Round(amount * (1 + t.LoanInterestRate))
	if t.MaxLoan > 0 && t.LoanAmount+debt > t.MaxLoan {
		return 0, fmt.Errorf("loan of %s would exceed %s: %w", Format(debt), Format(t.MaxLoan), ErrLoanLimit)
	}
	t.LoanAmount = Round(t.LoanAmount + debt)
	t.Cash = Round(t.Cash + amount)
	return debt, nil
}

// Repay pays down the loan from cash, never more than is owed. It returns
// the amount actually repaid.
func (t *Treasury) Repay(amount float64) (float64, error) {
	amount = Round(amount)
	if amount <= 0 || t.LoanAmount <= 0 {
		return 0, ErrInvalidAmount
	}
	amount = math.Min(amount, t.LoanAmount)
	if amount > t.Cash {
		return 0, fmt.Errorf("repay %s with %s cash: %w", Format(amount), Format(t.Cash), ErrInsufficientFunds)
	}
	t.Cash = Round(t.Cash - amount)
	t.LoanAmount = Round(t.LoanAmount - amount)
	return amount, nil
}

// ApplyDailyInterest pays savings interest for day, at most once per day.
// A positive balance always earns at least one unit.
func (t *Treasury) ApplyDailyInterest(day int) (float64, bool) {
	if day <= t.LastInterestDay {
		return 0, false
	}
	t.LastInterestDay = day
	if t.BankBalance <= 0 {
		return 0, false
	}
	interest := math.Max(1, Round(t.BankBalance*t.SavingsInterestRate/365))
	t.BankBalance = Round(t.BankBalance + interest)
	return interest, true
}

// ApplyDailyCharges debits tax and upkeep for day, at most once per day.
func (t *Treasury) ApplyDailyCharges(day int, total float64) bool {
	if day <= t.LastTaxDay {
		return false
	}
	t.LastTaxDay = day
	t.Charge(total)
	return true
}

// PropertyTax returns the daily tax on a building of the given value.
func (t *Treasury) PropertyTax(value float64) float64 {
	return value * t.PropertyTaxRate
}
