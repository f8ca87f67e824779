package ledger

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/moneta-app/moneta/internal/apperr"
	"github.com/moneta-app/moneta/internal/interfaces"
	"github.com/moneta-app/moneta/internal/logger"
	"github.com/moneta-app/moneta/internal/models"
	"github.com/moneta-app/moneta/internal/models/events"
)

// Leg is one account's signed balance delta within a mutation. A simple
// record has one leg; a transfer has two.
type Leg struct {
	AccountID uuid.UUID
	Delta     decimal.Decimal
}

// Coordinator serializes concurrent mutations per account using the
// optimistic-version protocol: read balance and version, compute the new
// balance, commit conditionally on the version still matching, retry on
// conflict. Unrelated accounts mutate fully in parallel; contention is
// bounded to the accounts actually touched.
type Coordinator struct {
	store  interfaces.LedgerStore
	cache  interfaces.Cache
	events interfaces.EventPublisher
	log    *logger.Logger
	cfg    Config
}

func NewCoordinator(store interfaces.LedgerStore, cache interfaces.Cache, publisher interfaces.EventPublisher, log *logger.Logger, cfg Config) *Coordinator {
	return &Coordinator{
		store:  store,
		cache:  cache,
		events: publisher,
		log:    log.With("component", "Coordinator"),
		cfg:    cfg,
	}
}

// Commit atomically applies the legs' balance deltas together with the
// appended rows and void markers. All legs commit or none do. On return
// the transaction rows and updated balances are durable, the affected
// cache keys are invalidated, and a balance.changed event has been
// attempted for every leg.
func (c *Coordinator) Commit(ctx context.Context, legs []Leg, appends []*models.Transaction, voidIDs []uuid.UUID) error {
	// Deterministic account order avoids cross-transaction deadlock in
	// lock-based stores.
	sorted := make([]Leg, len(legs))
	copy(sorted, legs)
	sort.Slice(sorted, func(i, j int) bool {
		return bytes.Compare(sorted[i].AccountID[:], sorted[j].AccountID[:]) < 0
	})

	var lastErr error
	for attempt := 0; attempt < c.cfg.MaxCommitRetries; attempt++ {
		if attempt > 0 {
			if err := c.backoff(ctx); err != nil {
				return err
			}
		}

		updates, err := c.prepareUpdates(ctx, sorted)
		if err != nil {
			var appErr *apperr.Error
			if errors.As(err, &appErr) {
				return err
			}
			// Transport failure reading the account; retry within the
			// same bound.
			lastErr = err
			continue
		}

		err = c.store.Commit(ctx, interfaces.Mutation{Updates: updates, Appends: appends, VoidIDs: voidIDs})
		if err == nil {
			c.afterCommit(ctx, updates)
			return nil
		}
		if errors.Is(err, interfaces.ErrVersionConflict) {
			c.log.Debug("commit lost version race, retrying", "attempt", attempt+1)
			lastErr = err
			continue
		}
		if errors.Is(err, interfaces.ErrAlreadyVoided) {
			return apperr.New(apperr.KindConflict, "already_voided", err)
		}
		if errors.Is(err, interfaces.ErrNotFound) {
			return apperr.New(apperr.KindNotFound, "account_not_found", err)
		}
		lastErr = err
	}

	if errors.Is(lastErr, interfaces.ErrVersionConflict) {
		return apperr.New(apperr.KindConflict, "commit_conflict", lastErr)
	}
	return apperr.New(apperr.KindUnavailable, "storage_unavailable", lastErr)
}

// prepareUpdates reads each account fresh and computes its conditional
// balance update. Deleted accounts and overdraft violations abort the
// whole commit.
func (c *Coordinator) prepareUpdates(ctx context.Context, legs []Leg) ([]interfaces.BalanceUpdate, error) {
	updates := make([]interfaces.BalanceUpdate, 0, len(legs))
	for _, leg := range legs {
		account, err := c.store.GetAccount(ctx, leg.AccountID)
		if err != nil {
			if errors.Is(err, interfaces.ErrNotFound) {
				return nil, apperr.Errorf(apperr.KindNotFound, "account_not_found", "account %s does not exist", leg.AccountID)
			}
			return nil, err
		}
		if account.IsDeleted {
			return nil, apperr.Errorf(apperr.KindNotFound, "account_not_found", "account %s is deleted", leg.AccountID)
		}
		newBalance := account.Balance.Add(leg.Delta)
		if newBalance.IsNegative() && !c.cfg.overdraftAllowed(account.Kind) {
			return nil, apperr.Errorf(apperr.KindInsufficientFunds, "insufficient_funds",
				"%s account %s would drop to %s", account.Kind, account.ID, newBalance)
		}
		updates = append(updates, interfaces.BalanceUpdate{
			AccountID:       account.ID,
			NewBalance:      newBalance,
			ExpectedVersion: account.Version,
		})
	}
	return updates, nil
}

func (c *Coordinator) backoff(ctx context.Context) error {
	base := c.cfg.RetryBackoff
	if base <= 0 {
		base = time.Millisecond
	}
	delay := base + time.Duration(rand.Int63n(int64(base)))
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

// afterCommit invalidates the touched cache keys before the mutation
// returns, then publishes one balance.changed per account. Both are
// best-effort: a dropped notification is a missed side effect, not a
// correctness failure.
func (c *Coordinator) afterCommit(ctx context.Context, updates []interfaces.BalanceUpdate) {
	keys := make([]string, 0, len(updates))
	for _, update := range updates {
		keys = append(keys, AccountCacheKey(update.AccountID))
	}
	if len(keys) > 0 {
		if err := c.cache.Invalidate(ctx, keys...); err != nil {
			c.log.Warn("cache invalidation failed", "keys", keys, "error", err)
		}
	}

	now := time.Now().UTC()
	for _, update := range updates {
		event := events.BalanceChanged{
			AccountID:  update.AccountID,
			Balance:    update.NewBalance,
			Version:    update.ExpectedVersion + 1,
			OccurredAt: now,
		}
		if err := c.events.Publish(ctx, events.TopicBalanceChanged, event); err != nil {
			c.log.Warn("event publish failed", "topic", events.TopicBalanceChanged, "account_id", update.AccountID, "error", err)
		}
	}
}

// AccountCacheKey names the cache entry for one account. The ledger engine
// is the sole invalidator of these keys.
func AccountCacheKey(id uuid.UUID) string {
	return "account:" + id.String()
}
