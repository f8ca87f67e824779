package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Topic names for the background dispatcher. Consumers assume at-least-once
// delivery; the ledger engine attempts each publish exactly once.
const (
	TopicBalanceChanged    = "balance.changed"
	TopicTransactionVoided = "transaction.voided"
)

// BalanceChanged is emitted after every committed balance mutation.
type BalanceChanged struct {
	AccountID  uuid.UUID       `json:"account_id"`
	Balance    decimal.Decimal `json:"balance"`
	Version    int64           `json:"version"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// TransactionVoided is emitted when a transaction (and its transfer peer,
// if any) is voided.
type TransactionVoided struct {
	TransactionID uuid.UUID       `json:"transaction_id"`
	AccountID     uuid.UUID       `json:"account_id"`
	Amount        decimal.Decimal `json:"amount"`
	OccurredAt    time.Time       `json:"occurred_at"`
}
