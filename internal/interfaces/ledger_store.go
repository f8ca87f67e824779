package interfaces

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/moneta-app/moneta/internal/models"
)

// ErrNotFound is returned by stores when a row does not exist. Services map
// it into the typed error taxonomy.
var ErrNotFound = errors.New("not found")

// ErrVersionConflict is returned by Commit when an account's version no
// longer matches the expected value, meaning a concurrent mutation won.
var ErrVersionConflict = errors.New("account version conflict")

// ErrAlreadyVoided is returned by Commit when a void marker targets a row
// that is already voided.
var ErrAlreadyVoided = errors.New("transaction already voided")

// BalanceUpdate is one account's share of an atomic commit: the balance to
// persist and the version the caller read it at.
type BalanceUpdate struct {
	AccountID       uuid.UUID
	NewBalance      decimal.Decimal
	ExpectedVersion int64
}

// Mutation is the unit of atomicity for ledger writes. Balance updates,
// appended transaction rows and void markers all land together or not at
// all. Updates must be ordered by ascending account ID so lock-based
// stores cannot deadlock against each other.
type Mutation struct {
	Updates []BalanceUpdate
	Appends []*models.Transaction
	VoidIDs []uuid.UUID
}

// LedgerStore is the persistence boundary of the ledger engine: load,
// save-if-version and append semantics behind one interface so the domain
// logic stays storage-agnostic.
type LedgerStore interface {
	CreateAccount(ctx context.Context, account *models.Account) error
	GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error)
	// ListAccounts returns one page of the owner's live accounts ordered by
	// CreatedAt ascending, ID ascending on ties.
	ListAccounts(ctx context.Context, ownerID uuid.UUID, page, pageSize int) ([]*models.Account, models.Meta, error)
	// ListAccountsByOwner returns every live account of the owner.
	ListAccountsByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Account, error)
	// UpdateAccountMeta persists name, kind, deletion flag and UpdatedAt.
	// Balance and version are untouchable outside Commit.
	UpdateAccountMeta(ctx context.Context, account *models.Account) error

	GetTransaction(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	// ListTransactions returns the account's rows ordered by OccurredAt
	// descending, ID descending on ties.
	ListTransactions(ctx context.Context, accountID uuid.UUID, filter models.TransactionFilter) ([]*models.Transaction, error)
	// GetTransferGroup returns both legs of a transfer.
	GetTransferGroup(ctx context.Context, groupID uuid.UUID) ([]*models.Transaction, error)

	Commit(ctx context.Context, mutation Mutation) error
}
