// Package claimindex maintains a lookup from hashed beneficiary email to
// plan ID so the claim flow can resolve a claim without ever seeing the
// plaintext address.
//
// The index is a derived read model: the plan store stays the source of
// truth, and callers treat index maintenance as best-effort.
package claimindex

import (
	"context"
	"sync"

	"testament/internal/privacy"
	"testament/pkg/domain"
	"testament/pkg/platform/sentinel"
)

// Index binds hashed emails to the plan naming them as beneficiary.
type Index interface {
	Bind(ctx context.Context, hashedEmail privacy.Digest, planID domain.PlanID) error
	Unbind(ctx context.Context, hashedEmail privacy.Digest, planID domain.PlanID) error
	Lookup(ctx context.Context, hashedEmail privacy.Digest) (domain.PlanID, error)
}

// InMemory is the test and single-process implementation.
type InMemory struct {
	mu    sync.RWMutex
	plans map[privacy.Digest]domain.PlanID
}

func NewInMemory() *InMemory {
	return &InMemory{plans: make(map[privacy.Digest]domain.PlanID)}
}

func (i *InMemory) Bind(_ context.Context, hashedEmail privacy.Digest, planID domain.PlanID) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.plans[hashedEmail] = planID
	return nil
}

// Unbind removes the binding only when it still points at planID, so a
// re-add under another plan is not clobbered by a stale remove.
func (i *InMemory) Unbind(_ context.Context, hashedEmail privacy.Digest, planID domain.PlanID) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if current, ok := i.plans[hashedEmail]; ok && current == planID {
		delete(i.plans, hashedEmail)
	}
	return nil
}

func (i *InMemory) Lookup(_ context.Context, hashedEmail privacy.Digest) (domain.PlanID, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	planID, ok := i.plans[hashedEmail]
	if !ok {
		return domain.PlanID{}, sentinel.ErrNotFound
	}
	return planID, nil
}
