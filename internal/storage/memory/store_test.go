package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moneta-app/moneta/internal/interfaces"
	"github.com/moneta-app/moneta/internal/models"
)

func seedAccount(t *testing.T, s *Store, owner uuid.UUID, createdAt time.Time) *models.Account {
	t.Helper()
	account := &models.Account{
		ID:           uuid.New(),
		OwnerID:      owner,
		Name:         "seed",
		Kind:         models.AccountBank,
		CurrencyCode: "USD",
		Balance:      decimal.Zero,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
		Version:      1,
	}
	require.NoError(t, s.CreateAccount(context.Background(), account))
	return account
}

func TestGetAccountNotFound(t *testing.T) {
	s := NewStore()
	_, err := s.GetAccount(context.Background(), uuid.New())
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}

func TestGetAccountReturnsCopy(t *testing.T) {
	s := NewStore()
	account := seedAccount(t, s, uuid.New(), time.Now().UTC())

	got, err := s.GetAccount(context.Background(), account.ID)
	require.NoError(t, err)
	got.Name = "mutated"

	again, err := s.GetAccount(context.Background(), account.ID)
	require.NoError(t, err)
	assert.Equal(t, "seed", again.Name)
}

func TestCommitVersionConflict(t *testing.T) {
	s := NewStore()
	account := seedAccount(t, s, uuid.New(), time.Now().UTC())

	stale := interfaces.Mutation{Updates: []interfaces.BalanceUpdate{{
		AccountID:       account.ID,
		NewBalance:      decimal.NewFromInt(10),
		ExpectedVersion: account.Version + 1,
	}}}
	assert.ErrorIs(t, s.Commit(context.Background(), stale), interfaces.ErrVersionConflict)

	// Nothing was applied.
	got, err := s.GetAccount(context.Background(), account.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.IsZero())
	assert.Equal(t, account.Version, got.Version)
}

func TestCommitAppliesUpdatesAndAppends(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	account := seedAccount(t, s, uuid.New(), time.Now().UTC())

	tx := &models.Transaction{
		ID:         uuid.New(),
		AccountID:  account.ID,
		Kind:       models.TransactionIncome,
		Amount:     decimal.NewFromInt(40),
		OccurredAt: time.Now().UTC(),
	}
	mutation := interfaces.Mutation{
		Updates: []interfaces.BalanceUpdate{{
			AccountID:       account.ID,
			NewBalance:      decimal.NewFromInt(40),
			ExpectedVersion: account.Version,
		}},
		Appends: []*models.Transaction{tx},
	}
	require.NoError(t, s.Commit(ctx, mutation))

	got, err := s.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "40", got.Balance.String())
	assert.Equal(t, account.Version+1, got.Version)

	stored, err := s.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, account.ID, stored.AccountID)
	assert.False(t, stored.CreatedAt.IsZero())
}

func TestCommitIsAllOrNothing(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	owner := uuid.New()
	a := seedAccount(t, s, owner, time.Now().UTC())
	b := seedAccount(t, s, owner, time.Now().UTC())

	// Second update carries a stale version, so the first must not land
	// either.
	mutation := interfaces.Mutation{
		Updates: []interfaces.BalanceUpdate{
			{AccountID: a.ID, NewBalance: decimal.NewFromInt(-5), ExpectedVersion: a.Version},
			{AccountID: b.ID, NewBalance: decimal.NewFromInt(5), ExpectedVersion: b.Version + 7},
		},
		Appends: []*models.Transaction{{ID: uuid.New(), AccountID: a.ID, Kind: models.TransactionTransfer, Amount: decimal.NewFromInt(-5)}},
	}
	require.ErrorIs(t, s.Commit(ctx, mutation), interfaces.ErrVersionConflict)

	gotA, err := s.GetAccount(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, gotA.Balance.IsZero())

	txs, err := s.ListTransactions(ctx, a.ID, models.TransactionFilter{})
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestCommitVoidAlreadyVoided(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	account := seedAccount(t, s, uuid.New(), time.Now().UTC())

	tx := &models.Transaction{ID: uuid.New(), AccountID: account.ID, Kind: models.TransactionIncome, Amount: decimal.NewFromInt(5), OccurredAt: time.Now().UTC()}
	require.NoError(t, s.Commit(ctx, interfaces.Mutation{Appends: []*models.Transaction{tx}}))

	require.NoError(t, s.Commit(ctx, interfaces.Mutation{VoidIDs: []uuid.UUID{tx.ID}}))
	err := s.Commit(ctx, interfaces.Mutation{VoidIDs: []uuid.UUID{tx.ID}})
	assert.ErrorIs(t, err, interfaces.ErrAlreadyVoided)
}

func TestListAccountsOrderingAndPaging(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	owner := uuid.New()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		a := seedAccount(t, s, owner, base.Add(time.Duration(i)*time.Hour))
		ids = append(ids, a.ID)
	}
	deleted := seedAccount(t, s, owner, base.Add(10*time.Hour))
	deleted.IsDeleted = true
	require.NoError(t, s.UpdateAccountMeta(ctx, deleted))
	seedAccount(t, s, uuid.New(), base) // another owner's account never leaks

	page1, meta, err := s.ListAccounts(ctx, owner, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, meta.TotalItems)
	assert.Equal(t, 3, meta.TotalPages)
	require.Len(t, page1, 2)
	assert.Equal(t, ids[0], page1[0].ID)
	assert.Equal(t, ids[1], page1[1].ID)

	page3, _, err := s.ListAccounts(ctx, owner, 3, 2)
	require.NoError(t, err)
	require.Len(t, page3, 1)
	assert.Equal(t, ids[4], page3[0].ID)

	empty, _, err := s.ListAccounts(ctx, owner, 4, 2)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestListTransactionsFilterAndOrder(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	account := seedAccount(t, s, uuid.New(), time.Now().UTC())
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	mk := func(kind models.TransactionKind, occurredAt time.Time) *models.Transaction {
		return &models.Transaction{ID: uuid.New(), AccountID: account.ID, Kind: kind, Amount: decimal.NewFromInt(1), OccurredAt: occurredAt}
	}
	income := mk(models.TransactionIncome, base)
	expense := mk(models.TransactionExpense, base.Add(time.Hour))
	late := mk(models.TransactionExpense, base.Add(48*time.Hour))
	require.NoError(t, s.Commit(ctx, interfaces.Mutation{Appends: []*models.Transaction{income, expense, late}}))

	all, err := s.ListTransactions(ctx, account.ID, models.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, late.ID, all[0].ID, "newest first")
	assert.Equal(t, income.ID, all[2].ID)

	kind := models.TransactionExpense
	to := base.Add(2 * time.Hour)
	filtered, err := s.ListTransactions(ctx, account.ID, models.TransactionFilter{Kind: &kind, To: &to})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, expense.ID, filtered[0].ID)
}

func TestGetTransferGroup(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	account := seedAccount(t, s, uuid.New(), time.Now().UTC())
	other := seedAccount(t, s, account.OwnerID, time.Now().UTC())

	group := uuid.New()
	out := &models.Transaction{ID: uuid.New(), AccountID: account.ID, TransferGroupID: &group, Kind: models.TransactionTransfer, Amount: decimal.NewFromInt(-5), OccurredAt: time.Now().UTC()}
	in := &models.Transaction{ID: uuid.New(), AccountID: other.ID, TransferGroupID: &group, Kind: models.TransactionTransfer, Amount: decimal.NewFromInt(5), OccurredAt: time.Now().UTC()}
	require.NoError(t, s.Commit(ctx, interfaces.Mutation{Appends: []*models.Transaction{out, in}}))

	legs, err := s.GetTransferGroup(ctx, group)
	require.NoError(t, err)
	assert.Len(t, legs, 2)

	_, err = s.GetTransferGroup(ctx, uuid.New())
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}
