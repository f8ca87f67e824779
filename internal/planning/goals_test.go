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
	"github.com/moneta-app/moneta/internal/logger"
	"github.com/moneta-app/moneta/internal/models"
	"github.com/moneta-app/moneta/internal/storage/memory"
)

func newGoalService(t *testing.T) *GoalService {
	t.Helper()
	return NewGoalService(memory.NewStore(), logger.NewNop())
}

func TestGoalCreateValidation(t *testing.T) {
	s := newGoalService(t)
	ctx := context.Background()
	owner := uuid.New()

	_, err := s.Create(ctx, owner, "", "USD", decimal.NewFromInt(100), nil)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = s.Create(ctx, owner, "vacation", "NOPE", decimal.NewFromInt(100), nil)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = s.Create(ctx, owner, "vacation", "USD", decimal.Zero, nil)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestGoalContributeCompletesAtTarget(t *testing.T) {
	s := newGoalService(t)
	ctx := context.Background()
	owner := uuid.New()
	due := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)

	goal, err := s.Create(ctx, owner, "vacation", "usd", decimal.NewFromInt(100), &due)
	require.NoError(t, err)
	assert.Equal(t, "USD", goal.CurrencyCode)
	assert.Equal(t, models.GoalActive, goal.Status)

	goal, err = s.Contribute(ctx, goal.ID, owner, decimal.NewFromInt(60))
	require.NoError(t, err)
	assert.Equal(t, models.GoalActive, goal.Status)
	assert.Equal(t, "60", goal.CurrentAmount.String())

	goal, err = s.Contribute(ctx, goal.ID, owner, decimal.NewFromInt(40))
	require.NoError(t, err)
	assert.Equal(t, models.GoalCompleted, goal.Status)

	// A completed goal accepts no more contributions.
	_, err = s.Contribute(ctx, goal.ID, owner, decimal.NewFromInt(1))
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestGoalContributeValidation(t *testing.T) {
	s := newGoalService(t)
	ctx := context.Background()
	owner := uuid.New()

	goal, err := s.Create(ctx, owner, "vacation", "USD", decimal.NewFromInt(100), nil)
	require.NoError(t, err)

	_, err = s.Contribute(ctx, goal.ID, owner, decimal.Zero)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = s.Contribute(ctx, goal.ID, uuid.New(), decimal.NewFromInt(10))
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_, err = s.Contribute(ctx, uuid.New(), owner, decimal.NewFromInt(10))
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestGoalUpdate(t *testing.T) {
	s := newGoalService(t)
	ctx := context.Background()
	owner := uuid.New()

	goal, err := s.Create(ctx, owner, "vacation", "USD", decimal.NewFromInt(100), nil)
	require.NoError(t, err)

	name := "sabbatical"
	target := decimal.NewFromInt(200)
	due := time.Date(2027, 6, 1, 0, 0, 0, 0, time.UTC)
	updated, err := s.Update(ctx, goal.ID, owner, models.GoalPatch{Name: &name, TargetAmount: &target, DueDate: &due})
	require.NoError(t, err)
	assert.Equal(t, "sabbatical", updated.Name)
	assert.Equal(t, "200", updated.TargetAmount.String())
	require.NotNil(t, updated.DueDate)
	assert.True(t, due.Equal(*updated.DueDate))
	assert.Equal(t, models.GoalActive, updated.Status)

	empty := " "
	_, err = s.Update(ctx, goal.ID, owner, models.GoalPatch{Name: &empty})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	zero := decimal.Zero
	_, err = s.Update(ctx, goal.ID, owner, models.GoalPatch{TargetAmount: &zero})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = s.Update(ctx, goal.ID, uuid.New(), models.GoalPatch{Name: &name})
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestGoalUpdateLoweredTargetCompletes(t *testing.T) {
	s := newGoalService(t)
	ctx := context.Background()
	owner := uuid.New()

	goal, err := s.Create(ctx, owner, "vacation", "USD", decimal.NewFromInt(200), nil)
	require.NoError(t, err)
	_, err = s.Contribute(ctx, goal.ID, owner, decimal.NewFromInt(150))
	require.NoError(t, err)

	target := decimal.NewFromInt(150)
	updated, err := s.Update(ctx, goal.ID, owner, models.GoalPatch{TargetAmount: &target})
	require.NoError(t, err)
	assert.Equal(t, models.GoalCompleted, updated.Status)

	// Completed goals are frozen for further edits.
	name := "renamed"
	_, err = s.Update(ctx, goal.ID, owner, models.GoalPatch{Name: &name})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestGoalCancel(t *testing.T) {
	s := newGoalService(t)
	ctx := context.Background()
	owner := uuid.New()

	goal, err := s.Create(ctx, owner, "vacation", "USD", decimal.NewFromInt(100), nil)
	require.NoError(t, err)

	cancelled, err := s.Cancel(ctx, goal.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, models.GoalCancelled, cancelled.Status)

	_, err = s.Cancel(ctx, goal.ID, owner)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	_, err = s.Contribute(ctx, goal.ID, owner, decimal.NewFromInt(10))
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestGoalList(t *testing.T) {
	s := newGoalService(t)
	ctx := context.Background()
	owner := uuid.New()

	for i := 0; i < 3; i++ {
		_, err := s.Create(ctx, owner, "goal", "USD", decimal.NewFromInt(100), nil)
		require.NoError(t, err)
	}
	_, err := s.Create(ctx, uuid.New(), "other", "USD", decimal.NewFromInt(100), nil)
	require.NoError(t, err)

	items, meta, err := s.List(ctx, owner, 1, 2)
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, 3, meta.TotalItems)
	assert.Equal(t, 2, meta.TotalPages)

	_, _, err = s.List(ctx, owner, 0, 2)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}
