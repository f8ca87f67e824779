package memory

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/moneta-app/moneta/internal/interfaces"
	"github.com/moneta-app/moneta/internal/models"
)

func (s *Store) CreateBudget(ctx context.Context, budget *models.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.budgets[budget.ID]; exists {
		return fmt.Errorf("budget %s already exists", budget.ID)
	}
	s.budgets[budget.ID] = budget.Clone()
	return nil
}

func (s *Store) GetBudget(ctx context.Context, id uuid.UUID) (*models.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	budget, ok := s.budgets[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return budget.Clone(), nil
}

func (s *Store) ListBudgets(ctx context.Context, ownerID uuid.UUID, page, pageSize int) ([]*models.Budget, models.Meta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var owned []*models.Budget
	for _, b := range s.budgets {
		if b.OwnerID == ownerID {
			owned = append(owned, b)
		}
	}
	sort.Slice(owned, func(i, j int) bool {
		if !owned[i].CreatedAt.Equal(owned[j].CreatedAt) {
			return owned[i].CreatedAt.Before(owned[j].CreatedAt)
		}
		return bytes.Compare(owned[i].ID[:], owned[j].ID[:]) < 0
	})

	items, meta := pageOf(owned, page, pageSize)
	result := make([]*models.Budget, 0, len(items))
	for _, b := range items {
		result = append(result, b.Clone())
	}
	return result, meta, nil
}

func (s *Store) UpdateBudget(ctx context.Context, budget *models.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.budgets[budget.ID]; !ok {
		return interfaces.ErrNotFound
	}
	s.budgets[budget.ID] = budget.Clone()
	return nil
}

func (s *Store) DeleteBudget(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.budgets[id]; !ok {
		return interfaces.ErrNotFound
	}
	delete(s.budgets, id)
	return nil
}

func (s *Store) CreateGoal(ctx context.Context, goal *models.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.goals[goal.ID]; exists {
		return fmt.Errorf("goal %s already exists", goal.ID)
	}
	s.goals[goal.ID] = goal.Clone()
	return nil
}

func (s *Store) GetGoal(ctx context.Context, id uuid.UUID) (*models.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	goal, ok := s.goals[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return goal.Clone(), nil
}

func (s *Store) ListGoals(ctx context.Context, ownerID uuid.UUID, page, pageSize int) ([]*models.Goal, models.Meta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var owned []*models.Goal
	for _, g := range s.goals {
		if g.OwnerID == ownerID {
			owned = append(owned, g)
		}
	}
	sort.Slice(owned, func(i, j int) bool {
		if !owned[i].CreatedAt.Equal(owned[j].CreatedAt) {
			return owned[i].CreatedAt.Before(owned[j].CreatedAt)
		}
		return bytes.Compare(owned[i].ID[:], owned[j].ID[:]) < 0
	})

	items, meta := pageOf(owned, page, pageSize)
	result := make([]*models.Goal, 0, len(items))
	for _, g := range items {
		result = append(result, g.Clone())
	}
	return result, meta, nil
}

func (s *Store) UpdateGoal(ctx context.Context, goal *models.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.goals[goal.ID]; !ok {
		return interfaces.ErrNotFound
	}
	s.goals[goal.ID] = goal.Clone()
	return nil
}

func pageOf[T any](items []T, page, pageSize int) ([]T, models.Meta) {
	total := len(items)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return items[start:end], models.NewMeta(page, pageSize, total)
}

var _ interfaces.PlanningStore = (*Store)(nil)
