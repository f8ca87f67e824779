package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/moneta-app/moneta/internal/apperr"
	"github.com/moneta-app/moneta/internal/currency"
	"github.com/moneta-app/moneta/internal/interfaces"
	"github.com/moneta-app/moneta/internal/logger"
	"github.com/moneta-app/moneta/internal/models"
)

// AccountService owns account lifecycle: create, read (through the cache),
// metadata updates and soft deletion. Balance is never touched here; every
// balance effect goes through the Coordinator.
type AccountService struct {
	store       interfaces.LedgerStore
	cache       interfaces.Cache
	coordinator *Coordinator
	log         *logger.Logger
	cfg         Config
}

func NewAccountService(store interfaces.LedgerStore, cache interfaces.Cache, coordinator *Coordinator, log *logger.Logger, cfg Config) *AccountService {
	return &AccountService{
		store:       store,
		cache:       cache,
		coordinator: coordinator,
		log:         log.With("service", "AccountService"),
		cfg:         cfg,
	}
}

// Create opens an account. A non-zero opening balance is recorded as an
// opening transaction through the coordinator so the ledger history and
// the balance can never disagree, even at creation.
func (s *AccountService) Create(ctx context.Context, ownerID uuid.UUID, name string, kind models.AccountKind, currencyCode string, openingBalance decimal.Decimal) (*models.Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Errorf(apperr.KindValidation, "name_required", "account name must not be empty")
	}
	if !kind.Valid() {
		return nil, apperr.Errorf(apperr.KindValidation, "invalid_account_kind", "unknown account kind %q", kind)
	}
	code := strings.ToUpper(strings.TrimSpace(currencyCode))
	if !currency.ValidCode(code) {
		return nil, apperr.Errorf(apperr.KindValidation, "invalid_currency_code", "unknown currency code %q", currencyCode)
	}
	if openingBalance.IsNegative() && !s.cfg.overdraftAllowed(kind) {
		return nil, apperr.Errorf(apperr.KindValidation, "negative_opening_balance", "%s accounts cannot open in overdraft", kind)
	}

	now := time.Now().UTC()
	account := &models.Account{
		ID:           uuid.New(),
		OwnerID:      ownerID,
		Name:         name,
		Kind:         kind,
		CurrencyCode: code,
		Balance:      decimal.Zero,
		CreatedAt:    now,
		UpdatedAt:    now,
		Version:      1,
	}
	if err := s.store.CreateAccount(ctx, account); err != nil {
		return nil, apperr.New(apperr.KindUnavailable, "storage_unavailable", err)
	}

	if !openingBalance.IsZero() {
		openingKind := models.TransactionIncome
		if openingBalance.IsNegative() {
			openingKind = models.TransactionExpense
		}
		opening := &models.Transaction{
			ID:         uuid.New(),
			AccountID:  account.ID,
			Kind:       openingKind,
			Amount:     openingBalance,
			OccurredAt: now,
			CreatedAt:  now,
		}
		legs := []Leg{{AccountID: account.ID, Delta: openingBalance}}
		if err := s.coordinator.Commit(ctx, legs, []*models.Transaction{opening}, nil); err != nil {
			// Discard the empty row so a failed open leaves no orphan
			// behind.
			account.IsDeleted = true
			account.UpdatedAt = time.Now().UTC()
			if cleanupErr := s.store.UpdateAccountMeta(ctx, account); cleanupErr != nil {
				s.log.Warn("failed to discard account after opening commit failure", "account_id", account.ID, "error", cleanupErr)
			}
			return nil, err
		}
		account.Balance = openingBalance
		account.Version++
	}

	s.log.Info("account created", "account_id", account.ID, "kind", account.Kind, "currency", account.CurrencyCode)
	return account, nil
}

// Get resolves a live account for its owner. Soft-deleted accounts are
// NotFound on this path; use GetForAudit to inspect them.
func (s *AccountService) Get(ctx context.Context, accountID, requesterID uuid.UUID) (*models.Account, error) {
	return s.get(ctx, accountID, requesterID, false)
}

// GetForAudit resolves an account regardless of its deletion flag so
// owners can inspect retained history.
func (s *AccountService) GetForAudit(ctx context.Context, accountID, requesterID uuid.UUID) (*models.Account, error) {
	return s.get(ctx, accountID, requesterID, true)
}

func (s *AccountService) get(ctx context.Context, accountID, requesterID uuid.UUID, includeDeleted bool) (*models.Account, error) {
	account, err := s.cachedAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if err := Authorize(requesterID, account.OwnerID); err != nil {
		return nil, err
	}
	if account.IsDeleted && !includeDeleted {
		return nil, apperr.Errorf(apperr.KindNotFound, "account_not_found", "account %s is deleted", accountID)
	}
	return account, nil
}

// cachedAccount reads through the cache. Cache failures degrade to the
// store. The coordinator invalidates on commit, and the fill re-checks the
// version afterwards, so a commit racing the fill cannot strand a stale
// entry.
func (s *AccountService) cachedAccount(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	key := AccountCacheKey(id)

	data, err := s.cache.Get(ctx, key)
	if err != nil {
		s.log.Warn("cache read failed", "key", key, "error", err)
	} else if data != nil {
		var account models.Account
		if err := json.Unmarshal(data, &account); err == nil {
			return &account, nil
		}
		s.log.Warn("dropping corrupt cache entry", "key", key)
	}

	account, err := s.store.GetAccount(ctx, id)
	if err != nil {
		return nil, storeErr(err, "account_not_found")
	}
	if data, err := json.Marshal(account); err == nil {
		if err := s.cache.Set(ctx, key, data, s.cfg.CacheTTL); err != nil {
			s.log.Warn("cache write failed", "key", key, "error", err)
		} else if latest, err := s.store.GetAccount(ctx, id); err != nil || latest.Version != account.Version {
			// A commit can land between the store read and the fill, with
			// its invalidation preceding the Set. Drop the entry rather
			// than serve a stale balance until the TTL expires.
			s.invalidate(ctx, id)
			if err == nil {
				return latest, nil
			}
		}
	}
	return account, nil
}

// List pages through the owner's live accounts, oldest first.
func (s *AccountService) List(ctx context.Context, ownerID uuid.UUID, page, pageSize int) ([]*models.Account, models.Meta, error) {
	if pageSize <= 0 {
		return nil, models.Meta{}, apperr.Errorf(apperr.KindValidation, "invalid_page_size", "page_size must be positive, got %d", pageSize)
	}
	if page <= 0 {
		return nil, models.Meta{}, apperr.Errorf(apperr.KindValidation, "invalid_page", "page must be positive, got %d", page)
	}
	items, meta, err := s.store.ListAccounts(ctx, ownerID, page, pageSize)
	if err != nil {
		return nil, models.Meta{}, apperr.New(apperr.KindUnavailable, "storage_unavailable", err)
	}
	return items, meta, nil
}

// Update mutates account metadata only. Balance is out of reach by
// construction.
func (s *AccountService) Update(ctx context.Context, accountID, requesterID uuid.UUID, patch models.AccountPatch) (*models.Account, error) {
	account, err := s.loadOwnedLive(ctx, accountID, requesterID)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, apperr.Errorf(apperr.KindValidation, "name_required", "account name must not be empty")
		}
		account.Name = name
	}
	if patch.Kind != nil {
		if !patch.Kind.Valid() {
			return nil, apperr.Errorf(apperr.KindValidation, "invalid_account_kind", "unknown account kind %q", *patch.Kind)
		}
		account.Kind = *patch.Kind
	}
	account.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateAccountMeta(ctx, account); err != nil {
		return nil, storeErr(err, "account_not_found")
	}
	s.invalidate(ctx, accountID)
	return account, nil
}

// SoftDelete marks the account deleted and reports whether this call did
// the marking. Deleting an already-deleted account is a no-op returning
// false, not an error.
func (s *AccountService) SoftDelete(ctx context.Context, accountID, requesterID uuid.UUID) (bool, error) {
	account, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return false, storeErr(err, "account_not_found")
	}
	if err := Authorize(requesterID, account.OwnerID); err != nil {
		return false, err
	}
	if account.IsDeleted {
		return false, nil
	}

	account.IsDeleted = true
	account.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateAccountMeta(ctx, account); err != nil {
		return false, storeErr(err, "account_not_found")
	}
	s.invalidate(ctx, accountID)
	s.log.Info("account soft-deleted", "account_id", accountID)
	return true, nil
}

// loadOwnedLive fetches an account directly from the store, enforcing
// ownership and liveness. Mutating paths skip the cache so they never act
// on a stale read.
func (s *AccountService) loadOwnedLive(ctx context.Context, accountID, requesterID uuid.UUID) (*models.Account, error) {
	account, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return nil, storeErr(err, "account_not_found")
	}
	if err := Authorize(requesterID, account.OwnerID); err != nil {
		return nil, err
	}
	if account.IsDeleted {
		return nil, apperr.Errorf(apperr.KindNotFound, "account_not_found", "account %s is deleted", accountID)
	}
	return account, nil
}

func (s *AccountService) invalidate(ctx context.Context, accountID uuid.UUID) {
	if err := s.cache.Invalidate(ctx, AccountCacheKey(accountID)); err != nil {
		s.log.Warn("cache invalidation failed", "account_id", accountID, "error", err)
	}
}

// storeErr maps raw store failures into the typed taxonomy: missing rows
// become NotFound, anything else is a transport problem.
func storeErr(err error, notFoundCode string) error {
	if errors.Is(err, interfaces.ErrNotFound) {
		return apperr.New(apperr.KindNotFound, notFoundCode, err)
	}
	return apperr.New(apperr.KindUnavailable, "storage_unavailable", err)
}
