package store

import (
	"context"
	"sync"

	"testament/internal/plan/models"
	"testament/pkg/domain"
	dErrors "testament/pkg/domain-errors"
	"testament/pkg/platform/sentinel"
)

// InMemory keeps plans in a map for tests and development. The mutex is
// held across the whole Execute callback chain, giving the same
// one-mutation-at-a-time isolation the postgres store gets from FOR UPDATE.
type InMemory struct {
	mu    sync.RWMutex
	plans map[domain.PlanID]*models.InheritancePlan
}

func NewInMemory() *InMemory {
	return &InMemory{plans: make(map[domain.PlanID]*models.InheritancePlan)}
}

func (s *InMemory) Create(_ context.Context, plan *models.InheritancePlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.plans[plan.ID]; exists {
		return sentinel.ErrConflict
	}
	s.plans[plan.ID] = plan.Clone()
	return nil
}

func (s *InMemory) FindByID(_ context.Context, planID domain.PlanID) (*models.InheritancePlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	plan, ok := s.plans[planID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return plan.Clone(), nil
}

func (s *InMemory) ListByOwner(_ context.Context, owner domain.AccountID) ([]*models.InheritancePlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var plans []*models.InheritancePlan
	for _, plan := range s.plans {
		if plan.Owner == owner {
			plans = append(plans, plan.Clone())
		}
	}
	return plans, nil
}

// Execute runs the clone-modify-write commit under the store lock. The
// callbacks only ever see a clone, so an aborted mutation cannot leak
// partial changes into the stored plan.
func (s *InMemory) Execute(_ context.Context, planID domain.PlanID,
	validate func(plan *models.InheritancePlan) error,
	mutate func(plan *models.InheritancePlan)) (*models.InheritancePlan, error) {

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.plans[planID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}

	next := current.Clone()
	if err := validate(next); err != nil {
		return nil, err
	}
	mutate(next)
	if err := next.CheckAllocations(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvariantViolation, "refusing to commit inconsistent plan")
	}

	s.plans[planID] = next
	return next.Clone(), nil
}
