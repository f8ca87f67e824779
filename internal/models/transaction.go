package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionKind string

const (
	TransactionIncome   TransactionKind = "Income"
	TransactionExpense  TransactionKind = "Expense"
	TransactionTransfer TransactionKind = "Transfer"
)

func (k TransactionKind) Valid() bool {
	switch k {
	case TransactionIncome, TransactionExpense, TransactionTransfer:
		return true
	}
	return false
}

// Transaction is one signed movement on an account, in the account's own
// currency. The sign is normalized by kind: Income and transfer-in rows are
// positive, Expense and transfer-out rows negative. Rows are immutable once
// written except for the IsVoided correction marker.
type Transaction struct {
	ID        uuid.UUID `json:"id"`
	AccountID uuid.UUID `json:"account_id"`
	// RelatedAccountID points at the other side of a transfer.
	RelatedAccountID *uuid.UUID `json:"related_account_id,omitempty"`
	// TransferGroupID is shared by the two legs of one transfer so they can
	// be voided together.
	TransferGroupID *uuid.UUID      `json:"transfer_group_id,omitempty"`
	Kind            TransactionKind `json:"kind"`
	Amount          decimal.Decimal `json:"amount"`
	OccurredAt      time.Time       `json:"occurred_at"`
	CreatedAt       time.Time       `json:"created_at"`
	IsVoided        bool            `json:"is_voided"`
}

func (t *Transaction) Clone() *Transaction {
	if t == nil {
		return nil
	}
	cp := *t
	if t.RelatedAccountID != nil {
		id := *t.RelatedAccountID
		cp.RelatedAccountID = &id
	}
	if t.TransferGroupID != nil {
		id := *t.TransferGroupID
		cp.TransferGroupID = &id
	}
	return &cp
}

// TransactionFilter narrows a listing by date window and kind. Nil fields
// match everything.
type TransactionFilter struct {
	From *time.Time
	To   *time.Time
	Kind *TransactionKind
}

func (f TransactionFilter) Matches(t *Transaction) bool {
	if f.From != nil && t.OccurredAt.Before(*f.From) {
		return false
	}
	if f.To != nil && t.OccurredAt.After(*f.To) {
		return false
	}
	if f.Kind != nil && t.Kind != *f.Kind {
		return false
	}
	return true
}
