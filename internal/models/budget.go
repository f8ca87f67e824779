package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BudgetFrequency string

const (
	BudgetWeekly    BudgetFrequency = "Weekly"
	BudgetMonthly   BudgetFrequency = "Monthly"
	BudgetQuarterly BudgetFrequency = "Quarterly"
	BudgetYearly    BudgetFrequency = "Yearly"
)

func (f BudgetFrequency) Valid() bool {
	switch f {
	case BudgetWeekly, BudgetMonthly, BudgetQuarterly, BudgetYearly:
		return true
	}
	return false
}

// Budget is a spending cap over a date window, expressed in one currency.
type Budget struct {
	ID           uuid.UUID       `json:"id"`
	OwnerID      uuid.UUID       `json:"owner_id"`
	Name         string          `json:"name"`
	CurrencyCode string          `json:"currency_code"`
	Amount       decimal.Decimal `json:"amount"`
	Frequency    BudgetFrequency `json:"frequency"`
	StartDate    time.Time       `json:"start_date"`
	EndDate      time.Time       `json:"end_date"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (b *Budget) Clone() *Budget {
	if b == nil {
		return nil
	}
	cp := *b
	return &cp
}

// BudgetPatch carries the mutable fields of a budget. Nil fields are left
// unchanged.
type BudgetPatch struct {
	Name      *string          `json:"name,omitempty"`
	Amount    *decimal.Decimal `json:"amount,omitempty"`
	Frequency *BudgetFrequency `json:"frequency,omitempty"`
	StartDate *time.Time       `json:"start_date,omitempty"`
	EndDate   *time.Time       `json:"end_date,omitempty"`
}
