package interfaces

import (
	"context"

	"github.com/google/uuid"

	"github.com/moneta-app/moneta/internal/models"
)

// PlanningStore persists budgets and goals. These rows carry no version
// counter; they are owner-scoped metadata outside the balance invariants.
type PlanningStore interface {
	CreateBudget(ctx context.Context, budget *models.Budget) error
	GetBudget(ctx context.Context, id uuid.UUID) (*models.Budget, error)
	ListBudgets(ctx context.Context, ownerID uuid.UUID, page, pageSize int) ([]*models.Budget, models.Meta, error)
	UpdateBudget(ctx context.Context, budget *models.Budget) error
	DeleteBudget(ctx context.Context, id uuid.UUID) error

	CreateGoal(ctx context.Context, goal *models.Goal) error
	GetGoal(ctx context.Context, id uuid.UUID) (*models.Goal, error)
	ListGoals(ctx context.Context, ownerID uuid.UUID, page, pageSize int) ([]*models.Goal, models.Meta, error)
	UpdateGoal(ctx context.Context, goal *models.Goal) error
}
