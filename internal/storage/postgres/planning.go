package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/moneta-app/moneta/internal/interfaces"
	"github.com/moneta-app/moneta/internal/models"
)

func (s *Store) CreateBudget(ctx context.Context, budget *models.Budget) error {
	const query = `INSERT INTO budgets (id, owner_id, name, currency_code, amount, frequency, start_date, end_date, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := s.db.ExecContext(ctx, query,
		budget.ID, budget.OwnerID, budget.Name, budget.CurrencyCode, budget.Amount,
		budget.Frequency, budget.StartDate, budget.EndDate, budget.CreatedAt, budget.UpdatedAt)
	return err
}

func (s *Store) GetBudget(ctx context.Context, id uuid.UUID) (*models.Budget, error) {
	const query = `SELECT id, owner_id, name, currency_code, amount, frequency, start_date, end_date, created_at, updated_at
	FROM budgets WHERE id = $1`

	var budget models.Budget
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&budget.ID, &budget.OwnerID, &budget.Name, &budget.CurrencyCode, &budget.Amount,
		&budget.Frequency, &budget.StartDate, &budget.EndDate, &budget.CreatedAt, &budget.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, interfaces.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &budget, nil
}

func (s *Store) ListBudgets(ctx context.Context, ownerID uuid.UUID, page, pageSize int) ([]*models.Budget, models.Meta, error) {
	const countQuery = `SELECT count(*) FROM budgets WHERE owner_id = $1`

	var total int
	if err := s.db.QueryRowContext(ctx, countQuery, ownerID).Scan(&total); err != nil {
		return nil, models.Meta{}, err
	}

	const query = `SELECT id, owner_id, name, currency_code, amount, frequency, start_date, end_date, created_at, updated_at
	FROM budgets WHERE owner_id = $1
	ORDER BY created_at ASC, id ASC
	LIMIT $2 OFFSET $3`

	rows, err := s.db.QueryContext(ctx, query, ownerID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, models.Meta{}, err
	}
	defer rows.Close()

	var budgets []*models.Budget
	for rows.Next() {
		var budget models.Budget
		if err := rows.Scan(
			&budget.ID, &budget.OwnerID, &budget.Name, &budget.CurrencyCode, &budget.Amount,
			&budget.Frequency, &budget.StartDate, &budget.EndDate, &budget.CreatedAt, &budget.UpdatedAt); err != nil {
			return nil, models.Meta{}, err
		}
		budgets = append(budgets, &budget)
	}
	if err := rows.Err(); err != nil {
		return nil, models.Meta{}, err
	}
	return budgets, models.NewMeta(page, pageSize, total), nil
}

func (s *Store) UpdateBudget(ctx context.Context, budget *models.Budget) error {
	const query = `UPDATE budgets SET name = $2, amount = $3, frequency = $4, start_date = $5, end_date = $6, updated_at = $7
	WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query,
		budget.ID, budget.Name, budget.Amount, budget.Frequency, budget.StartDate, budget.EndDate, budget.UpdatedAt)
	if err != nil {
		return err
	}
	return requireRow(result)
}

func (s *Store) DeleteBudget(ctx context.Context, id uuid.UUID) error {
	const query = `DELETE FROM budgets WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

func (s *Store) CreateGoal(ctx context.Context, goal *models.Goal) error {
	const query = `INSERT INTO goals (id, owner_id, name, currency_code, target_amount, current_amount, due_date, status, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := s.db.ExecContext(ctx, query,
		goal.ID, goal.OwnerID, goal.Name, goal.CurrencyCode, goal.TargetAmount,
		goal.CurrentAmount, goal.DueDate, goal.Status, goal.CreatedAt, goal.UpdatedAt)
	return err
}

func (s *Store) GetGoal(ctx context.Context, id uuid.UUID) (*models.Goal, error) {
	const query = `SELECT id, owner_id, name, currency_code, target_amount, current_amount, due_date, status, created_at, updated_at
	FROM goals WHERE id = $1`

	var goal models.Goal
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&goal.ID, &goal.OwnerID, &goal.Name, &goal.CurrencyCode, &goal.TargetAmount,
		&goal.CurrentAmount, &goal.DueDate, &goal.Status, &goal.CreatedAt, &goal.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, interfaces.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &goal, nil
}

func (s *Store) ListGoals(ctx context.Context, ownerID uuid.UUID, page, pageSize int) ([]*models.Goal, models.Meta, error) {
	const countQuery = `SELECT count(*) FROM goals WHERE owner_id = $1`

	var total int
	if err := s.db.QueryRowContext(ctx, countQuery, ownerID).Scan(&total); err != nil {
		return nil, models.Meta{}, err
	}

	const query = `SELECT id, owner_id, name, currency_code, target_amount, current_amount, due_date, status, created_at, updated_at
	FROM goals WHERE owner_id = $1
	ORDER BY created_at ASC, id ASC
	LIMIT $2 OFFSET $3`

	rows, err := s.db.QueryContext(ctx, query, ownerID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, models.Meta{}, err
	}
	defer rows.Close()

	var goals []*models.Goal
	for rows.Next() {
		var goal models.Goal
		if err := rows.Scan(
			&goal.ID, &goal.OwnerID, &goal.Name, &goal.CurrencyCode, &goal.TargetAmount,
			&goal.CurrentAmount, &goal.DueDate, &goal.Status, &goal.CreatedAt, &goal.UpdatedAt); err != nil {
			return nil, models.Meta{}, err
		}
		goals = append(goals, &goal)
	}
	if err := rows.Err(); err != nil {
		return nil, models.Meta{}, err
	}
	return goals, models.NewMeta(page, pageSize, total), nil
}

func (s *Store) UpdateGoal(ctx context.Context, goal *models.Goal) error {
	const query = `UPDATE goals SET name = $2, target_amount = $3, current_amount = $4, due_date = $5, status = $6, updated_at = $7
	WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query,
		goal.ID, goal.Name, goal.TargetAmount, goal.CurrentAmount, goal.DueDate, goal.Status, goal.UpdatedAt)
	if err != nil {
		return err
	}
	return requireRow(result)
}

func requireRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

var _ interfaces.PlanningStore = (*Store)(nil)
