package memory

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/moneta-app/moneta/internal/interfaces"
	"github.com/moneta-app/moneta/internal/models"
)

// Store is an in-memory implementation of both the ledger and planning
// store interfaces. A single mutex makes every Commit atomic; all data is
// deep-copied on the way in and out so callers never share state with the
// store.
type Store struct {
	mu           sync.Mutex
	accounts     map[uuid.UUID]*models.Account
	transactions []*models.Transaction
	txByID       map[uuid.UUID]*models.Transaction
	budgets      map[uuid.UUID]*models.Budget
	goals        map[uuid.UUID]*models.Goal
}

func NewStore() *Store {
	return &Store{
		accounts: make(map[uuid.UUID]*models.Account),
		txByID:   make(map[uuid.UUID]*models.Transaction),
		budgets:  make(map[uuid.UUID]*models.Budget),
		goals:    make(map[uuid.UUID]*models.Goal),
	}
}

func (s *Store) CreateAccount(ctx context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[account.ID]; exists {
		return fmt.Errorf("account %s already exists", account.ID)
	}
	s.accounts[account.ID] = account.Clone()
	return nil
}

func (s *Store) GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return account.Clone(), nil
}

func (s *Store) ListAccounts(ctx context.Context, ownerID uuid.UUID, page, pageSize int) ([]*models.Account, models.Meta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	live := s.liveAccountsLocked(ownerID)

	paged, meta := pageOf(live, page, pageSize)
	items := make([]*models.Account, 0, len(paged))
	for _, a := range paged {
		items = append(items, a.Clone())
	}
	return items, meta, nil
}

func (s *Store) ListAccountsByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	live := s.liveAccountsLocked(ownerID)
	items := make([]*models.Account, 0, len(live))
	for _, a := range live {
		items = append(items, a.Clone())
	}
	return items, nil
}

// liveAccountsLocked returns the owner's non-deleted accounts ordered by
// CreatedAt ascending, ID ascending on ties. Caller must hold s.mu.
func (s *Store) liveAccountsLocked(ownerID uuid.UUID) []*models.Account {
	var live []*models.Account
	for _, a := range s.accounts {
		if a.OwnerID == ownerID && !a.IsDeleted {
			live = append(live, a)
		}
	}
	sort.Slice(live, func(i, j int) bool {
		if !live[i].CreatedAt.Equal(live[j].CreatedAt) {
			return live[i].CreatedAt.Before(live[j].CreatedAt)
		}
		return bytes.Compare(live[i].ID[:], live[j].ID[:]) < 0
	})
	return live
}

func (s *Store) UpdateAccountMeta(ctx context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.accounts[account.ID]
	if !ok {
		return interfaces.ErrNotFound
	}
	existing.Name = account.Name
	existing.Kind = account.Kind
	existing.IsDeleted = account.IsDeleted
	existing.UpdatedAt = account.UpdatedAt
	return nil
}

func (s *Store) GetTransaction(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.txByID[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return tx.Clone(), nil
}

func (s *Store) ListTransactions(ctx context.Context, accountID uuid.UUID, filter models.TransactionFilter) ([]*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []*models.Transaction
	for _, tx := range s.transactions {
		if tx.AccountID != accountID || !filter.Matches(tx) {
			continue
		}
		result = append(result, tx.Clone())
	}
	// OccurredAt descending, ID descending on ties: deterministic even for
	// identical timestamps.
	sort.Slice(result, func(i, j int) bool {
		if !result[i].OccurredAt.Equal(result[j].OccurredAt) {
			return result[i].OccurredAt.After(result[j].OccurredAt)
		}
		return bytes.Compare(result[i].ID[:], result[j].ID[:]) > 0
	})
	return result, nil
}

func (s *Store) GetTransferGroup(ctx context.Context, groupID uuid.UUID) ([]*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var legs []*models.Transaction
	for _, tx := range s.transactions {
		if tx.TransferGroupID != nil && *tx.TransferGroupID == groupID {
			legs = append(legs, tx.Clone())
		}
	}
	if len(legs) == 0 {
		return nil, interfaces.ErrNotFound
	}
	return legs, nil
}

// Commit applies the mutation under one lock: every balance update must
// still match its expected version or nothing is written.
func (s *Store) Commit(ctx context.Context, mutation interfaces.Mutation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate everything before touching state.
	for _, update := range mutation.Updates {
		account, ok := s.accounts[update.AccountID]
		if !ok {
			return interfaces.ErrNotFound
		}
		if account.Version != update.ExpectedVersion {
			return interfaces.ErrVersionConflict
		}
	}
	for _, id := range mutation.VoidIDs {
		tx, ok := s.txByID[id]
		if !ok {
			return interfaces.ErrNotFound
		}
		if tx.IsVoided {
			return fmt.Errorf("%w: %s", interfaces.ErrAlreadyVoided, id)
		}
	}

	now := time.Now().UTC()
	for _, update := range mutation.Updates {
		account := s.accounts[update.AccountID]
		account.Balance = update.NewBalance
		account.Version++
		account.UpdatedAt = now
	}
	for _, tx := range mutation.Appends {
		cp := tx.Clone()
		if cp.CreatedAt.IsZero() {
			cp.CreatedAt = now
		}
		s.transactions = append(s.transactions, cp)
		s.txByID[cp.ID] = cp
	}
	for _, id := range mutation.VoidIDs {
		s.txByID[id].IsVoided = true
	}
	return nil
}

var _ interfaces.LedgerStore = (*Store)(nil)
