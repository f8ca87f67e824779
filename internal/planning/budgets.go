package planning

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/moneta-app/moneta/internal/apperr"
	"github.com/moneta-app/moneta/internal/currency"
	"github.com/moneta-app/moneta/internal/interfaces"
	"github.com/moneta-app/moneta/internal/ledger"
	"github.com/moneta-app/moneta/internal/logger"
	"github.com/moneta-app/moneta/internal/models"
)

// BudgetService manages spending caps. Budgets observe the ledger but
// never mutate it: Spent is a pure aggregation over committed rows.
type BudgetService struct {
	store  interfaces.PlanningStore
	ledger interfaces.LedgerStore
	rates  interfaces.RateProvider
	log    *logger.Logger
}

func NewBudgetService(store interfaces.PlanningStore, ledgerStore interfaces.LedgerStore, rates interfaces.RateProvider, log *logger.Logger) *BudgetService {
	return &BudgetService{
		store:  store,
		ledger: ledgerStore,
		rates:  rates,
		log:    log.With("service", "BudgetService"),
	}
}

func (s *BudgetService) Create(ctx context.Context, ownerID uuid.UUID, name, currencyCode string, amount decimal.Decimal, frequency models.BudgetFrequency, startDate, endDate time.Time) (*models.Budget, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Errorf(apperr.KindValidation, "name_required", "budget name must not be empty")
	}
	code := strings.ToUpper(strings.TrimSpace(currencyCode))
	if !currency.ValidCode(code) {
		return nil, apperr.Errorf(apperr.KindValidation, "invalid_currency_code", "unknown currency code %q", currencyCode)
	}
	if amount.Sign() <= 0 {
		return nil, apperr.Errorf(apperr.KindValidation, "invalid_amount", "budget amount must be positive, got %s", amount)
	}
	if !frequency.Valid() {
		return nil, apperr.Errorf(apperr.KindValidation, "invalid_frequency", "unknown budget frequency %q", frequency)
	}
	if endDate.Before(startDate) {
		return nil, apperr.Errorf(apperr.KindValidation, "invalid_date_range", "end date precedes start date")
	}

	now := time.Now().UTC()
	budget := &models.Budget{
		ID:           uuid.New(),
		OwnerID:      ownerID,
		Name:         name,
		CurrencyCode: code,
		Amount:       amount,
		Frequency:    frequency,
		StartDate:    startDate,
		EndDate:      endDate,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateBudget(ctx, budget); err != nil {
		return nil, apperr.New(apperr.KindUnavailable, "storage_unavailable", err)
	}
	return budget, nil
}

func (s *BudgetService) Get(ctx context.Context, budgetID, requesterID uuid.UUID) (*models.Budget, error) {
	return s.loadOwned(ctx, budgetID, requesterID)
}

func (s *BudgetService) List(ctx context.Context, ownerID uuid.UUID, page, pageSize int) ([]*models.Budget, models.Meta, error) {
	if pageSize <= 0 {
		return nil, models.Meta{}, apperr.Errorf(apperr.KindValidation, "invalid_page_size", "page_size must be positive, got %d", pageSize)
	}
	if page <= 0 {
		return nil, models.Meta{}, apperr.Errorf(apperr.KindValidation, "invalid_page", "page must be positive, got %d", page)
	}
	items, meta, err := s.store.ListBudgets(ctx, ownerID, page, pageSize)
	if err != nil {
		return nil, models.Meta{}, apperr.New(apperr.KindUnavailable, "storage_unavailable", err)
	}
	return items, meta, nil
}

func (s *BudgetService) Update(ctx context.Context, budgetID, requesterID uuid.UUID, patch models.BudgetPatch) (*models.Budget, error) {
	budget, err := s.loadOwned(ctx, budgetID, requesterID)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, apperr.Errorf(apperr.KindValidation, "name_required", "budget name must not be empty")
		}
		budget.Name = name
	}
	if patch.Amount != nil {
		if patch.Amount.Sign() <= 0 {
			return nil, apperr.Errorf(apperr.KindValidation, "invalid_amount", "budget amount must be positive, got %s", patch.Amount)
		}
		budget.Amount = *patch.Amount
	}
	if patch.Frequency != nil {
		if !patch.Frequency.Valid() {
			return nil, apperr.Errorf(apperr.KindValidation, "invalid_frequency", "unknown budget frequency %q", *patch.Frequency)
		}
		budget.Frequency = *patch.Frequency
	}
	if patch.StartDate != nil {
		budget.StartDate = *patch.StartDate
	}
	if patch.EndDate != nil {
		budget.EndDate = *patch.EndDate
	}
	if budget.EndDate.Before(budget.StartDate) {
		return nil, apperr.Errorf(apperr.KindValidation, "invalid_date_range", "end date precedes start date")
	}
	budget.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateBudget(ctx, budget); err != nil {
		return nil, mapStoreErr(err, "budget_not_found")
	}
	return budget, nil
}

func (s *BudgetService) Delete(ctx context.Context, budgetID, requesterID uuid.UUID) error {
	if _, err := s.loadOwned(ctx, budgetID, requesterID); err != nil {
		return err
	}
	if err := s.store.DeleteBudget(ctx, budgetID); err != nil {
		return mapStoreErr(err, "budget_not_found")
	}
	return nil
}

// Spent sums the owner's non-voided expenses inside the budget window,
// converted into the budget's currency. A mix of currencies with no
// resolvable rate surfaces as CurrencyMismatch rather than a silent
// partial sum.
func (s *BudgetService) Spent(ctx context.Context, budgetID, requesterID uuid.UUID) (decimal.Decimal, error) {
	budget, err := s.loadOwned(ctx, budgetID, requesterID)
	if err != nil {
		return decimal.Zero, err
	}

	accounts, err := s.ledger.ListAccountsByOwner(ctx, budget.OwnerID)
	if err != nil {
		return decimal.Zero, apperr.New(apperr.KindUnavailable, "storage_unavailable", err)
	}

	expense := models.TransactionExpense
	filter := models.TransactionFilter{From: &budget.StartDate, To: &budget.EndDate, Kind: &expense}

	total := decimal.Zero
	for _, account := range accounts {
		txs, err := s.ledger.ListTransactions(ctx, account.ID, filter)
		if err != nil {
			return decimal.Zero, apperr.New(apperr.KindUnavailable, "storage_unavailable", err)
		}
		sum := decimal.Zero
		for _, tx := range txs {
			if tx.IsVoided {
				continue
			}
			sum = sum.Add(tx.Amount.Abs())
		}
		if sum.IsZero() {
			continue
		}
		converted, err := currency.Convert(sum, account.CurrencyCode, budget.CurrencyCode, s.rates)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(converted)
	}
	return total, nil
}

func (s *BudgetService) loadOwned(ctx context.Context, budgetID, requesterID uuid.UUID) (*models.Budget, error) {
	budget, err := s.store.GetBudget(ctx, budgetID)
	if err != nil {
		return nil, mapStoreErr(err, "budget_not_found")
	}
	if err := ledger.Authorize(requesterID, budget.OwnerID); err != nil {
		return nil, err
	}
	return budget, nil
}

func mapStoreErr(err error, notFoundCode string) error {
	if errors.Is(err, interfaces.ErrNotFound) {
		return apperr.New(apperr.KindNotFound, notFoundCode, err)
	}
	return apperr.New(apperr.KindUnavailable, "storage_unavailable", err)
}
