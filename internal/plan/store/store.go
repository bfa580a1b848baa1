// Package store persists inheritance plans. Stores are pure I/O: every
// business rule lives in the models or the service, and the store's only
// contribution is the atomic commit boundary that Execute provides.
package store

import (
	"context"

	"testament/internal/plan/models"
	"testament/pkg/domain"
)

// Store is the plan persistence contract.
//
// Execute is the transaction boundary for mutations: the store loads the
// plan, hands a private copy to validate and then mutate, audits the
// allocation ledger, and commits with a single write. If validate or the
// ledger audit fails, nothing is written and the stored plan is untouched.
// Mutating calls against the same plan are serialized by the store's lock,
// so callers need no locking of their own.
type Store interface {
	Create(ctx context.Context, plan *models.InheritancePlan) error
	FindByID(ctx context.Context, planID domain.PlanID) (*models.InheritancePlan, error)
	ListByOwner(ctx context.Context, owner domain.AccountID) ([]*models.InheritancePlan, error)
	Execute(ctx context.Context, planID domain.PlanID,
		validate func(plan *models.InheritancePlan) error,
		mutate func(plan *models.InheritancePlan)) (*models.InheritancePlan, error)
}
