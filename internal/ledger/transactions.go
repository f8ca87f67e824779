package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/moneta-app/moneta/internal/apperr"
	"github.com/moneta-app/moneta/internal/currency"
	"github.com/moneta-app/moneta/internal/interfaces"
	"github.com/moneta-app/moneta/internal/logger"
	"github.com/moneta-app/moneta/internal/models"
	"github.com/moneta-app/moneta/internal/models/events"
)

// TransactionService is the append-only ledger: it records movements,
// lists history and voids mistakes. Amounts are taken as positive
// magnitudes; the sign on the stored row comes from the kind, never from
// the caller.
type TransactionService struct {
	store       interfaces.LedgerStore
	coordinator *Coordinator
	events      interfaces.EventPublisher
	rates       interfaces.RateProvider
	log         *logger.Logger
}

func NewTransactionService(store interfaces.LedgerStore, coordinator *Coordinator, publisher interfaces.EventPublisher, rates interfaces.RateProvider, log *logger.Logger) *TransactionService {
	return &TransactionService{
		store:       store,
		coordinator: coordinator,
		events:      publisher,
		rates:       rates,
		log:         log.With("service", "TransactionService"),
	}
}

// Record appends a movement to the account. For a Transfer it appends both
// legs in one atomic commit: the debit on accountID and the converted
// credit on relatedAccountID. When Record returns, the rows and the new
// balances are durable.
func (s *TransactionService) Record(ctx context.Context, accountID, requesterID uuid.UUID, kind models.TransactionKind, amount decimal.Decimal, relatedAccountID *uuid.UUID, occurredAt time.Time) (*models.Transaction, error) {
	if !kind.Valid() {
		return nil, apperr.Errorf(apperr.KindValidation, "invalid_transaction_kind", "unknown transaction kind %q", kind)
	}
	if amount.Sign() <= 0 {
		return nil, apperr.Errorf(apperr.KindValidation, "invalid_amount", "amount must be a positive magnitude, got %s", amount)
	}

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

	now := time.Now().UTC()
	if occurredAt.IsZero() {
		occurredAt = now
	}

	if kind == models.TransactionTransfer {
		return s.recordTransfer(ctx, account, requesterID, amount, relatedAccountID, occurredAt, now)
	}

	signed := amount
	if kind == models.TransactionExpense {
		signed = amount.Neg()
	}
	tx := &models.Transaction{
		ID:         uuid.New(),
		AccountID:  account.ID,
		Kind:       kind,
		Amount:     signed,
		OccurredAt: occurredAt,
		CreatedAt:  now,
	}
	legs := []Leg{{AccountID: account.ID, Delta: signed}}
	if err := s.coordinator.Commit(ctx, legs, []*models.Transaction{tx}, nil); err != nil {
		return nil, err
	}
	return tx, nil
}

func (s *TransactionService) recordTransfer(ctx context.Context, source *models.Account, requesterID uuid.UUID, amount decimal.Decimal, relatedAccountID *uuid.UUID, occurredAt, now time.Time) (*models.Transaction, error) {
	if relatedAccountID == nil {
		return nil, apperr.Errorf(apperr.KindValidation, "related_account_required", "transfers require a destination account")
	}
	if *relatedAccountID == source.ID {
		return nil, apperr.Errorf(apperr.KindValidation, "transfer_to_self", "cannot transfer an account to itself")
	}

	destination, err := s.store.GetAccount(ctx, *relatedAccountID)
	if err != nil {
		return nil, storeErr(err, "related_account_not_found")
	}
	if err := Authorize(requesterID, destination.OwnerID); err != nil {
		return nil, err
	}
	if destination.IsDeleted {
		return nil, apperr.Errorf(apperr.KindNotFound, "related_account_not_found", "account %s is deleted", destination.ID)
	}

	converted, err := currency.Convert(amount, source.CurrencyCode, destination.CurrencyCode, s.rates)
	if err != nil {
		return nil, err
	}
	if converted.IsZero() {
		// Rounding to the destination's minor unit swallowed the whole
		// amount; a zero-amount credit leg would debit the source with no
		// balancing entry anywhere.
		return nil, apperr.Errorf(apperr.KindValidation, "amount_too_small",
			"%s %s converts to zero %s", amount, source.CurrencyCode, destination.CurrencyCode)
	}

	group := uuid.New()
	sourceID := source.ID
	destinationID := destination.ID
	out := &models.Transaction{
		ID:               uuid.New(),
		AccountID:        sourceID,
		RelatedAccountID: &destinationID,
		TransferGroupID:  &group,
		Kind:             models.TransactionTransfer,
		Amount:           amount.Neg(),
		OccurredAt:       occurredAt,
		CreatedAt:        now,
	}
	in := &models.Transaction{
		ID:               uuid.New(),
		AccountID:        destinationID,
		RelatedAccountID: &sourceID,
		TransferGroupID:  &group,
		Kind:             models.TransactionTransfer,
		Amount:           converted,
		OccurredAt:       occurredAt,
		CreatedAt:        now,
	}

	legs := []Leg{
		{AccountID: sourceID, Delta: amount.Neg()},
		{AccountID: destinationID, Delta: converted},
	}
	if err := s.coordinator.Commit(ctx, legs, []*models.Transaction{out, in}, nil); err != nil {
		return nil, err
	}
	return out, nil
}

// ListForAccount returns the account's history, newest first. Soft-deleted
// accounts remain listable so retained history stays auditable.
func (s *TransactionService) ListForAccount(ctx context.Context, accountID, requesterID uuid.UUID, filter models.TransactionFilter) ([]*models.Transaction, error) {
	account, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return nil, storeErr(err, "account_not_found")
	}
	if err := Authorize(requesterID, account.OwnerID); err != nil {
		return nil, err
	}
	if filter.Kind != nil && !filter.Kind.Valid() {
		return nil, apperr.Errorf(apperr.KindValidation, "invalid_transaction_kind", "unknown transaction kind %q", *filter.Kind)
	}

	txs, err := s.store.ListTransactions(ctx, accountID, filter)
	if err != nil {
		return nil, apperr.New(apperr.KindUnavailable, "storage_unavailable", err)
	}
	return txs, nil
}

// Void reverses a transaction: an offsetting row is appended for each
// affected leg and the originals are flagged. Voiding either leg of a
// transfer voids both, keeping the cross-account sums intact. The offset
// rows carry the voided flag themselves so each correction pair cancels
// out of the non-voided sum. Returns the offset for the requested
// transaction; a second void of the same transaction is a Conflict.
func (s *TransactionService) Void(ctx context.Context, transactionID, requesterID uuid.UUID) (*models.Transaction, error) {
	original, err := s.store.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, storeErr(err, "transaction_not_found")
	}
	account, err := s.store.GetAccount(ctx, original.AccountID)
	if err != nil {
		return nil, storeErr(err, "account_not_found")
	}
	if err := Authorize(requesterID, account.OwnerID); err != nil {
		return nil, err
	}
	if original.IsVoided {
		return nil, apperr.Errorf(apperr.KindConflict, "already_voided", "transaction %s is already voided", transactionID)
	}

	toVoid := []*models.Transaction{original}
	if original.TransferGroupID != nil {
		group, err := s.store.GetTransferGroup(ctx, *original.TransferGroupID)
		if err != nil {
			return nil, storeErr(err, "transaction_not_found")
		}
		if len(group) != 2 {
			// A transfer without its counter-leg is an invariant breach;
			// abort rather than half-reverse it.
			return nil, apperr.Errorf(apperr.KindInternal, "transfer_leg_missing",
				"transfer group %s has %d legs", *original.TransferGroupID, len(group))
		}
		for _, leg := range group {
			if leg.IsVoided {
				return nil, apperr.Errorf(apperr.KindConflict, "already_voided", "transaction %s is already voided", leg.ID)
			}
		}
		toVoid = group
	}

	now := time.Now().UTC()
	var (
		offsets  []*models.Transaction
		legs     []Leg
		voidIDs  []uuid.UUID
		returned *models.Transaction
	)
	for _, leg := range toVoid {
		offset := &models.Transaction{
			ID:               uuid.New(),
			AccountID:        leg.AccountID,
			RelatedAccountID: cloneID(leg.RelatedAccountID),
			Kind:             leg.Kind,
			Amount:           leg.Amount.Neg(),
			OccurredAt:       now,
			CreatedAt:        now,
			IsVoided:         true,
		}
		offsets = append(offsets, offset)
		legs = append(legs, Leg{AccountID: leg.AccountID, Delta: leg.Amount.Neg()})
		voidIDs = append(voidIDs, leg.ID)
		if leg.ID == original.ID {
			returned = offset
		}
	}

	if err := s.coordinator.Commit(ctx, legs, offsets, voidIDs); err != nil {
		return nil, err
	}

	event := events.TransactionVoided{
		TransactionID: original.ID,
		AccountID:     original.AccountID,
		Amount:        original.Amount,
		OccurredAt:    now,
	}
	if err := s.events.Publish(ctx, events.TopicTransactionVoided, event); err != nil {
		s.log.Warn("event publish failed", "topic", events.TopicTransactionVoided, "transaction_id", original.ID, "error", err)
	}
	return returned, nil
}

func cloneID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	cp := *id
	return &cp
}
