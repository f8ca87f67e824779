package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/moneta-app/moneta/internal/interfaces"
	"github.com/moneta-app/moneta/internal/models"
)

// Store implements the ledger and planning store interfaces over Postgres.
// Commits run inside one database transaction with a conditional UPDATE on
// the account version, so the version check and the write are a single
// atomic step.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) CreateAccount(ctx context.Context, account *models.Account) error {
	const query = `INSERT INTO accounts (id, owner_id, name, kind, currency_code, balance, is_deleted, created_at, updated_at, version)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := s.db.ExecContext(ctx, query,
		account.ID, account.OwnerID, account.Name, account.Kind, account.CurrencyCode,
		account.Balance, account.IsDeleted, account.CreatedAt, account.UpdatedAt, account.Version)
	return err
}

func (s *Store) GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	const query = `SELECT id, owner_id, name, kind, currency_code, balance, is_deleted, created_at, updated_at, version
	FROM accounts WHERE id = $1`

	var account models.Account
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&account.ID, &account.OwnerID, &account.Name, &account.Kind, &account.CurrencyCode,
		&account.Balance, &account.IsDeleted, &account.CreatedAt, &account.UpdatedAt, &account.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, interfaces.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (s *Store) ListAccounts(ctx context.Context, ownerID uuid.UUID, page, pageSize int) ([]*models.Account, models.Meta, error) {
	const countQuery = `SELECT count(*) FROM accounts WHERE owner_id = $1 AND is_deleted = false`

	var total int
	if err := s.db.QueryRowContext(ctx, countQuery, ownerID).Scan(&total); err != nil {
		return nil, models.Meta{}, err
	}

	const query = `SELECT id, owner_id, name, kind, currency_code, balance, is_deleted, created_at, updated_at, version
	FROM accounts WHERE owner_id = $1 AND is_deleted = false
	ORDER BY created_at ASC, id ASC
	LIMIT $2 OFFSET $3`

	rows, err := s.db.QueryContext(ctx, query, ownerID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, models.Meta{}, err
	}
	defer rows.Close()

	accounts, err := scanAccounts(rows)
	if err != nil {
		return nil, models.Meta{}, err
	}
	return accounts, models.NewMeta(page, pageSize, total), nil
}

func (s *Store) ListAccountsByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Account, error) {
	const query = `SELECT id, owner_id, name, kind, currency_code, balance, is_deleted, created_at, updated_at, version
	FROM accounts WHERE owner_id = $1 AND is_deleted = false
	ORDER BY created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAccounts(rows)
}

func scanAccounts(rows *sql.Rows) ([]*models.Account, error) {
	var accounts []*models.Account
	for rows.Next() {
		var account models.Account
		if err := rows.Scan(
			&account.ID, &account.OwnerID, &account.Name, &account.Kind, &account.CurrencyCode,
			&account.Balance, &account.IsDeleted, &account.CreatedAt, &account.UpdatedAt, &account.Version); err != nil {
			return nil, err
		}
		accounts = append(accounts, &account)
	}
	return accounts, rows.Err()
}

func (s *Store) UpdateAccountMeta(ctx context.Context, account *models.Account) error {
	const query = `UPDATE accounts SET name = $2, kind = $3, is_deleted = $4, updated_at = $5 WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query,
		account.ID, account.Name, account.Kind, account.IsDeleted, account.UpdatedAt)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

func (s *Store) GetTransaction(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	const query = `SELECT id, account_id, related_account_id, transfer_group_id, kind, amount, occurred_at, created_at, is_voided
	FROM transactions WHERE id = $1`

	var tx models.Transaction
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&tx.ID, &tx.AccountID, &tx.RelatedAccountID, &tx.TransferGroupID,
		&tx.Kind, &tx.Amount, &tx.OccurredAt, &tx.CreatedAt, &tx.IsVoided)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, interfaces.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (s *Store) ListTransactions(ctx context.Context, accountID uuid.UUID, filter models.TransactionFilter) ([]*models.Transaction, error) {
	var (
		conditions = []string{"account_id = $1"}
		args       = []any{accountID}
	)
	if filter.From != nil {
		args = append(args, *filter.From)
		conditions = append(conditions, fmt.Sprintf("occurred_at >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conditions = append(conditions, fmt.Sprintf("occurred_at <= $%d", len(args)))
	}
	if filter.Kind != nil {
		args = append(args, *filter.Kind)
		conditions = append(conditions, fmt.Sprintf("kind = $%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT id, account_id, related_account_id, transfer_group_id, kind, amount, occurred_at, created_at, is_voided
	FROM transactions WHERE %s
	ORDER BY occurred_at DESC, id DESC`, strings.Join(conditions, " AND "))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTransactions(rows)
}

func (s *Store) GetTransferGroup(ctx context.Context, groupID uuid.UUID) ([]*models.Transaction, error) {
	const query = `SELECT id, account_id, related_account_id, transfer_group_id, kind, amount, occurred_at, created_at, is_voided
	FROM transactions WHERE transfer_group_id = $1`

	rows, err := s.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	legs, err := scanTransactions(rows)
	if err != nil {
		return nil, err
	}
	if len(legs) == 0 {
		return nil, interfaces.ErrNotFound
	}
	return legs, nil
}

func scanTransactions(rows *sql.Rows) ([]*models.Transaction, error) {
	var txs []*models.Transaction
	for rows.Next() {
		var tx models.Transaction
		if err := rows.Scan(
			&tx.ID, &tx.AccountID, &tx.RelatedAccountID, &tx.TransferGroupID,
			&tx.Kind, &tx.Amount, &tx.OccurredAt, &tx.CreatedAt, &tx.IsVoided); err != nil {
			return nil, err
		}
		txs = append(txs, &tx)
	}
	return txs, rows.Err()
}

// Commit applies the whole mutation inside one database transaction. The
// conditional UPDATE carries the version check: zero rows affected means a
// concurrent commit won the race.
func (s *Store) Commit(ctx context.Context, mutation interfaces.Mutation) (err error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = dbTx.Rollback()
		}
	}()

	const updateQuery = `UPDATE accounts SET balance = $2, version = version + 1, updated_at = now()
	WHERE id = $1 AND version = $3`

	for _, update := range mutation.Updates {
		result, execErr := dbTx.ExecContext(ctx, updateQuery, update.AccountID, update.NewBalance, update.ExpectedVersion)
		if execErr != nil {
			err = execErr
			return err
		}
		affected, raErr := result.RowsAffected()
		if raErr != nil {
			err = raErr
			return err
		}
		if affected == 0 {
			// Either the row is gone or the version moved; a ledger
			// account is never hard-deleted, so it is a conflict.
			err = interfaces.ErrVersionConflict
			return err
		}
	}

	const insertQuery = `INSERT INTO transactions (id, account_id, related_account_id, transfer_group_id, kind, amount, occurred_at, created_at, is_voided)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	for _, tx := range mutation.Appends {
		if _, execErr := dbTx.ExecContext(ctx, insertQuery,
			tx.ID, tx.AccountID, tx.RelatedAccountID, tx.TransferGroupID,
			tx.Kind, tx.Amount, tx.OccurredAt, tx.CreatedAt, tx.IsVoided); execErr != nil {
			err = execErr
			return err
		}
	}

	if len(mutation.VoidIDs) > 0 {
		ids := make([]string, 0, len(mutation.VoidIDs))
		for _, id := range mutation.VoidIDs {
			ids = append(ids, id.String())
		}

		const voidQuery = `UPDATE transactions SET is_voided = true WHERE id = ANY($1) AND is_voided = false`

		result, execErr := dbTx.ExecContext(ctx, voidQuery, pq.Array(ids))
		if execErr != nil {
			err = execErr
			return err
		}
		affected, raErr := result.RowsAffected()
		if raErr != nil {
			err = raErr
			return err
		}
		if affected != int64(len(mutation.VoidIDs)) {
			err = interfaces.ErrAlreadyVoided
			return err
		}
	}

	err = dbTx.Commit()
	return err
}

var _ interfaces.LedgerStore = (*Store)(nil)
