package planning

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moneta-app/moneta/internal/apperr"
	"github.com/moneta-app/moneta/internal/cache"
	"github.com/moneta-app/moneta/internal/currency"
	"github.com/moneta-app/moneta/internal/events"
	"github.com/moneta-app/moneta/internal/ledger"
	"github.com/moneta-app/moneta/internal/logger"
	"github.com/moneta-app/moneta/internal/models"
	"github.com/moneta-app/moneta/internal/storage/memory"
)

type budgetEnv struct {
	store        *memory.Store
	rates        *currency.StaticRates
	budgets      *BudgetService
	accounts     *ledger.AccountService
	transactions *ledger.TransactionService
}

func newBudgetEnv(t *testing.T) *budgetEnv {
	t.Helper()
	store := memory.NewStore()
	log := logger.NewNop()
	rates := currency.NewStaticRates()
	cfg := ledger.DefaultConfig()
	cfg.RetryBackoff = time.Millisecond

	coordinator := ledger.NewCoordinator(store, cache.Nop{}, events.Nop{}, log, cfg)
	return &budgetEnv{
		store:        store,
		rates:        rates,
		budgets:      NewBudgetService(store, store, rates, log),
		accounts:     ledger.NewAccountService(store, cache.Nop{}, coordinator, log, cfg),
		transactions: ledger.NewTransactionService(store, coordinator, events.Nop{}, rates, log),
	}
}

func window() (time.Time, time.Time) {
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

func TestBudgetCreateValidation(t *testing.T) {
	e := newBudgetEnv(t)
	ctx := context.Background()
	owner := uuid.New()
	start, end := window()

	_, err := e.budgets.Create(ctx, owner, " ", "USD", decimal.NewFromInt(100), models.BudgetMonthly, start, end)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = e.budgets.Create(ctx, owner, "food", "NOPE", decimal.NewFromInt(100), models.BudgetMonthly, start, end)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = e.budgets.Create(ctx, owner, "food", "USD", decimal.Zero, models.BudgetMonthly, start, end)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = e.budgets.Create(ctx, owner, "food", "USD", decimal.NewFromInt(100), models.BudgetFrequency("Daily"), start, end)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = e.budgets.Create(ctx, owner, "food", "USD", decimal.NewFromInt(100), models.BudgetMonthly, end, start)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestBudgetLifecycle(t *testing.T) {
	e := newBudgetEnv(t)
	ctx := context.Background()
	owner := uuid.New()
	start, end := window()

	budget, err := e.budgets.Create(ctx, owner, "groceries", "usd", decimal.NewFromInt(400), models.BudgetMonthly, start, end)
	require.NoError(t, err)
	assert.Equal(t, "USD", budget.CurrencyCode)

	got, err := e.budgets.Get(ctx, budget.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, "groceries", got.Name)

	_, err = e.budgets.Get(ctx, budget.ID, uuid.New())
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	newAmount := decimal.NewFromInt(500)
	updated, err := e.budgets.Update(ctx, budget.ID, owner, models.BudgetPatch{Amount: &newAmount})
	require.NoError(t, err)
	assert.Equal(t, "500", updated.Amount.String())

	badStart := end.AddDate(0, 1, 0)
	_, err = e.budgets.Update(ctx, budget.ID, owner, models.BudgetPatch{StartDate: &badStart})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	items, meta, err := e.budgets.List(ctx, owner, 1, 10)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 1, meta.TotalItems)

	require.NoError(t, e.budgets.Delete(ctx, budget.ID, owner))
	_, err = e.budgets.Get(ctx, budget.ID, owner)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestBudgetSpentAggregatesExpenses(t *testing.T) {
	e := newBudgetEnv(t)
	ctx := context.Background()
	owner := uuid.New()
	start, end := window()

	account, err := e.accounts.Create(ctx, owner, "checking", models.AccountBank, "USD", decimal.NewFromInt(1000))
	require.NoError(t, err)

	inWindow := start.Add(24 * time.Hour)
	_, err = e.transactions.Record(ctx, account.ID, owner, models.TransactionExpense, decimal.NewFromInt(120), nil, inWindow)
	require.NoError(t, err)
	_, err = e.transactions.Record(ctx, account.ID, owner, models.TransactionExpense, decimal.NewFromInt(80), nil, inWindow)
	require.NoError(t, err)
	// Outside the window and non-expense rows never count.
	_, err = e.transactions.Record(ctx, account.ID, owner, models.TransactionExpense, decimal.NewFromInt(300), nil, start.AddDate(0, -1, 0))
	require.NoError(t, err)
	_, err = e.transactions.Record(ctx, account.ID, owner, models.TransactionIncome, decimal.NewFromInt(50), nil, inWindow)
	require.NoError(t, err)

	budget, err := e.budgets.Create(ctx, owner, "monthly", "USD", decimal.NewFromInt(400), models.BudgetMonthly, start, end)
	require.NoError(t, err)

	spent, err := e.budgets.Spent(ctx, budget.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, "200", spent.String())
}

func TestBudgetSpentSkipsVoided(t *testing.T) {
	e := newBudgetEnv(t)
	ctx := context.Background()
	owner := uuid.New()
	start, end := window()

	account, err := e.accounts.Create(ctx, owner, "checking", models.AccountBank, "USD", decimal.NewFromInt(1000))
	require.NoError(t, err)

	inWindow := start.Add(24 * time.Hour)
	expense, err := e.transactions.Record(ctx, account.ID, owner, models.TransactionExpense, decimal.NewFromInt(120), nil, inWindow)
	require.NoError(t, err)
	_, err = e.transactions.Record(ctx, account.ID, owner, models.TransactionExpense, decimal.NewFromInt(30), nil, inWindow)
	require.NoError(t, err)

	_, err = e.transactions.Void(ctx, expense.ID, owner)
	require.NoError(t, err)

	budget, err := e.budgets.Create(ctx, owner, "monthly", "USD", decimal.NewFromInt(400), models.BudgetMonthly, start, end)
	require.NoError(t, err)

	spent, err := e.budgets.Spent(ctx, budget.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, "30", spent.String(), "voided rows and their offsets cancel out")
}

func TestBudgetSpentConvertsCurrencies(t *testing.T) {
	e := newBudgetEnv(t)
	ctx := context.Background()
	owner := uuid.New()
	start, end := window()

	usd, err := e.accounts.Create(ctx, owner, "usd", models.AccountBank, "USD", decimal.NewFromInt(1000))
	require.NoError(t, err)
	eur, err := e.accounts.Create(ctx, owner, "eur", models.AccountBank, "EUR", decimal.NewFromInt(1000))
	require.NoError(t, err)

	inWindow := start.Add(24 * time.Hour)
	_, err = e.transactions.Record(ctx, usd.ID, owner, models.TransactionExpense, decimal.NewFromInt(100), nil, inWindow)
	require.NoError(t, err)
	_, err = e.transactions.Record(ctx, eur.ID, owner, models.TransactionExpense, decimal.NewFromInt(50), nil, inWindow)
	require.NoError(t, err)

	budget, err := e.budgets.Create(ctx, owner, "monthly", "USD", decimal.NewFromInt(400), models.BudgetMonthly, start, end)
	require.NoError(t, err)

	// Without a EUR rate the aggregation must refuse, not under-report.
	_, err = e.budgets.Spent(ctx, budget.ID, owner)
	assert.Equal(t, apperr.KindCurrencyMismatch, apperr.KindOf(err))

	e.rates.Set("EUR", "USD", decimal.RequireFromString("1.1"))
	spent, err := e.budgets.Spent(ctx, budget.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, "155", spent.String())
}
