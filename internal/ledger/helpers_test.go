package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/moneta-app/moneta/internal/cache"
	"github.com/moneta-app/moneta/internal/currency"
	"github.com/moneta-app/moneta/internal/events"
	"github.com/moneta-app/moneta/internal/interfaces"
	"github.com/moneta-app/moneta/internal/logger"
	"github.com/moneta-app/moneta/internal/models"
	"github.com/moneta-app/moneta/internal/storage/memory"
)

type env struct {
	store        *memory.Store
	rates        *currency.StaticRates
	coordinator  *Coordinator
	accounts     *AccountService
	transactions *TransactionService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := memory.NewStore()
	return newEnvWithStore(t, store, store)
}

// newEnvWithStore lets a test substitute the coordinator's store while the
// services still read real data. Passing the same store twice is the normal
// case.
func newEnvWithStore(t *testing.T, serviceStore interfaces.LedgerStore, commitStore interfaces.LedgerStore) *env {
	t.Helper()
	cfg := DefaultConfig()
	cfg.RetryBackoff = time.Millisecond

	log := logger.NewNop()
	rates := currency.NewStaticRates()
	coordinator := NewCoordinator(commitStore, cache.Nop{}, events.Nop{}, log, cfg)

	mem, _ := serviceStore.(*memory.Store)
	return &env{
		store:        mem,
		rates:        rates,
		coordinator:  coordinator,
		accounts:     NewAccountService(serviceStore, cache.Nop{}, coordinator, log, cfg),
		transactions: NewTransactionService(serviceStore, coordinator, events.Nop{}, rates, log),
	}
}

func (e *env) mustCreateAccount(t *testing.T, owner uuid.UUID, kind models.AccountKind, code string, opening string) *models.Account {
	t.Helper()
	account, err := e.accounts.Create(context.Background(), owner, "test account", kind, code, decimal.RequireFromString(opening))
	require.NoError(t, err)
	return account
}

// balanceMatchesLedger asserts the conservation invariant: the stored
// balance equals the sum of the account's non-voided rows.
func (e *env) balanceMatchesLedger(t *testing.T, accountID uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	account, err := e.store.GetAccount(ctx, accountID)
	require.NoError(t, err)
	txs, err := e.store.ListTransactions(ctx, accountID, models.TransactionFilter{})
	require.NoError(t, err)

	sum := decimal.Zero
	for _, tx := range txs {
		if tx.IsVoided {
			continue
		}
		sum = sum.Add(tx.Amount)
	}
	require.True(t, account.Balance.Equal(sum),
		"balance %s diverged from ledger sum %s", account.Balance, sum)
}
