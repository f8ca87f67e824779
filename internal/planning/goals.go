package planning

import (
	"context"
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

// GoalService tracks savings targets. Goals hold no real funds; they are
// planning markers contributed to explicitly.
type GoalService struct {
	store interfaces.PlanningStore
	log   *logger.Logger
}

func NewGoalService(store interfaces.PlanningStore, log *logger.Logger) *GoalService {
	return &GoalService{store: store, log: log.With("service", "GoalService")}
}

func (s *GoalService) Create(ctx context.Context, ownerID uuid.UUID, name, currencyCode string, targetAmount decimal.Decimal, dueDate *time.Time) (*models.Goal, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Errorf(apperr.KindValidation, "name_required", "goal name must not be empty")
	}
	code := strings.ToUpper(strings.TrimSpace(currencyCode))
	if !currency.ValidCode(code) {
		return nil, apperr.Errorf(apperr.KindValidation, "invalid_currency_code", "unknown currency code %q", currencyCode)
	}
	if targetAmount.Sign() <= 0 {
		return nil, apperr.Errorf(apperr.KindValidation, "invalid_amount", "target amount must be positive, got %s", targetAmount)
	}

	now := time.Now().UTC()
	goal := &models.Goal{
		ID:            uuid.New(),
		OwnerID:       ownerID,
		Name:          name,
		CurrencyCode:  code,
		TargetAmount:  targetAmount,
		CurrentAmount: decimal.Zero,
		DueDate:       dueDate,
		Status:        models.GoalActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.CreateGoal(ctx, goal); err != nil {
		return nil, apperr.New(apperr.KindUnavailable, "storage_unavailable", err)
	}
	return goal, nil
}

func (s *GoalService) Get(ctx context.Context, goalID, requesterID uuid.UUID) (*models.Goal, error) {
	return s.loadOwned(ctx, goalID, requesterID)
}

func (s *GoalService) List(ctx context.Context, ownerID uuid.UUID, page, pageSize int) ([]*models.Goal, models.Meta, error) {
	if pageSize <= 0 {
		return nil, models.Meta{}, apperr.Errorf(apperr.KindValidation, "invalid_page_size", "page_size must be positive, got %d", pageSize)
	}
	if page <= 0 {
		return nil, models.Meta{}, apperr.Errorf(apperr.KindValidation, "invalid_page", "page must be positive, got %d", page)
	}
	items, meta, err := s.store.ListGoals(ctx, ownerID, page, pageSize)
	if err != nil {
		return nil, models.Meta{}, apperr.New(apperr.KindUnavailable, "storage_unavailable", err)
	}
	return items, meta, nil
}

// Update edits an active goal's name, target or due date. Lowering the
// target to or below the current progress completes the goal.
func (s *GoalService) Update(ctx context.Context, goalID, requesterID uuid.UUID, patch models.GoalPatch) (*models.Goal, error) {
	goal, err := s.loadOwned(ctx, goalID, requesterID)
	if err != nil {
		return nil, err
	}
	if goal.Status != models.GoalActive {
		return nil, apperr.Errorf(apperr.KindConflict, "goal_not_active", "goal %s is %s", goalID, goal.Status)
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, apperr.Errorf(apperr.KindValidation, "name_required", "goal name must not be empty")
		}
		goal.Name = name
	}
	if patch.TargetAmount != nil {
		if patch.TargetAmount.Sign() <= 0 {
			return nil, apperr.Errorf(apperr.KindValidation, "invalid_amount", "target amount must be positive, got %s", patch.TargetAmount)
		}
		goal.TargetAmount = *patch.TargetAmount
	}
	if patch.DueDate != nil {
		goal.DueDate = patch.DueDate
	}
	if goal.CurrentAmount.GreaterThanOrEqual(goal.TargetAmount) {
		goal.Status = models.GoalCompleted
	}
	goal.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateGoal(ctx, goal); err != nil {
		return nil, mapStoreErr(err, "goal_not_found")
	}
	return goal, nil
}

// Contribute adds to the goal's progress; crossing the target completes
// it. Contributions to a completed or cancelled goal are a Conflict.
func (s *GoalService) Contribute(ctx context.Context, goalID, requesterID uuid.UUID, amount decimal.Decimal) (*models.Goal, error) {
	if amount.Sign() <= 0 {
		return nil, apperr.Errorf(apperr.KindValidation, "invalid_amount", "contribution must be positive, got %s", amount)
	}
	goal, err := s.loadOwned(ctx, goalID, requesterID)
	if err != nil {
		return nil, err
	}
	if goal.Status != models.GoalActive {
		return nil, apperr.Errorf(apperr.KindConflict, "goal_not_active", "goal %s is %s", goalID, goal.Status)
	}

	goal.CurrentAmount = goal.CurrentAmount.Add(amount)
	if goal.CurrentAmount.GreaterThanOrEqual(goal.TargetAmount) {
		goal.Status = models.GoalCompleted
	}
	goal.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateGoal(ctx, goal); err != nil {
		return nil, mapStoreErr(err, "goal_not_found")
	}
	return goal, nil
}

// Cancel abandons an active goal. Cancelling twice is a Conflict.
func (s *GoalService) Cancel(ctx context.Context, goalID, requesterID uuid.UUID) (*models.Goal, error) {
	goal, err := s.loadOwned(ctx, goalID, requesterID)
	if err != nil {
		return nil, err
	}
	if goal.Status != models.GoalActive {
		return nil, apperr.Errorf(apperr.KindConflict, "goal_not_active", "goal %s is %s", goalID, goal.Status)
	}
	goal.Status = models.GoalCancelled
	goal.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateGoal(ctx, goal); err != nil {
		return nil, mapStoreErr(err, "goal_not_found")
	}
	return goal, nil
}

func (s *GoalService) loadOwned(ctx context.Context, goalID, requesterID uuid.UUID) (*models.Goal, error) {
	goal, err := s.store.GetGoal(ctx, goalID)
	if err != nil {
		return nil, mapStoreErr(err, "goal_not_found")
	}
	if err := ledger.Authorize(requesterID, goal.OwnerID); err != nil {
		return nil, err
	}
	return goal, nil
}
