package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type GoalStatus string

const (
	GoalActive    GoalStatus = "Active"
	GoalCompleted GoalStatus = "Completed"
	GoalCancelled GoalStatus = "Cancelled"
)

// Goal is a savings target the owner contributes toward. Reaching the
// target flips the status to Completed.
type Goal struct {
	ID            uuid.UUID       `json:"id"`
	OwnerID       uuid.UUID       `json:"owner_id"`
	Name          string          `json:"name"`
	CurrencyCode  string          `json:"currency_code"`
	TargetAmount  decimal.Decimal `json:"target_amount"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	DueDate       *time.Time      `json:"due_date,omitempty"`
	Status        GoalStatus      `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// GoalPatch carries optional field updates; nil leaves a field unchanged.
type GoalPatch struct {
	Name         *string          `json:"name,omitempty"`
	TargetAmount *decimal.Decimal `json:"target_amount,omitempty"`
	DueDate      *time.Time       `json:"due_date,omitempty"`
}

func (g *Goal) Clone() *Goal {
	if g == nil {
		return nil
	}
	cp := *g
	if g.DueDate != nil {
		d := *g.DueDate
		cp.DueDate = &d
	}
	return &cp
}
