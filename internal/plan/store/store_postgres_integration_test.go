//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"testament/internal/plan/models"
	"testament/pkg/domain"
	dErrors "testament/pkg/domain-errors"
	"testament/pkg/platform/sentinel"
	"testament/pkg/testutil/containers"
)

func newPostgresStore(t *testing.T) *Postgres {
	t.Helper()
	pc := containers.NewPostgresContainer(t)
	s := NewPostgres(pc.DB)
	require.NoError(t, s.EnsureSchema(context.Background()))
	return s
}

func TestPostgresPlanRoundTrip(t *testing.T) {
	s := newPostgresStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	plan, err := models.NewInheritancePlan(domain.NewPlanID(), "owner-1", models.Metadata{Name: "Estate"}, now)
	require.NoError(t, err)
	require.NoError(t, s.Create(ctx, plan))

	require.ErrorIs(t, s.Create(ctx, plan), sentinel.ErrConflict)

	found, err := s.FindByID(ctx, plan.ID)
	require.NoError(t, err)
	require.Equal(t, plan.Owner, found.Owner)
	require.Equal(t, plan.Metadata.Name, found.Metadata.Name)

	_, err = s.FindByID(ctx, domain.NewPlanID())
	require.ErrorIs(t, err, sentinel.ErrNotFound)

	plans, err := s.ListByOwner(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, plans, 1)
}

func TestPostgresExecuteCommitsAtomically(t *testing.T) {
	s := newPostgresStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	plan, err := models.NewInheritancePlan(domain.NewPlanID(), "owner-1", models.Metadata{Name: "Estate"}, now)
	require.NoError(t, err)
	require.NoError(t, s.Create(ctx, plan))

	b, err := models.NewBeneficiary("Jordan Doe", "heir@example.com", 42, 2500, []byte("IBAN-1"))
	require.NoError(t, err)

	updated, err := s.Execute(ctx, plan.ID,
		func(p *models.InheritancePlan) error { return p.CanAddBeneficiary(b.AllocationBP) },
		func(p *models.InheritancePlan) { p.ApplyAddBeneficiary(b, now) },
	)
	require.NoError(t, err)
	require.Equal(t, 2500, updated.TotalAllocationBP)

	stored, err := s.FindByID(ctx, plan.ID)
	require.NoError(t, err)
	require.Len(t, stored.Beneficiaries, 1)
	require.Equal(t, b.HashedEmail, stored.Beneficiaries[0].HashedEmail)
	require.Equal(t, b.BankAccount, stored.Beneficiaries[0].BankAccount)

	// A failing ledger audit must roll back without a write.
	_, err = s.Execute(ctx, plan.ID,
		func(*models.InheritancePlan) error { return nil },
		func(p *models.InheritancePlan) { p.TotalAllocationBP = 9999 },
	)
	require.Error(t, err)
	require.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	stored, err = s.FindByID(ctx, plan.ID)
	require.NoError(t, err)
	require.Equal(t, 2500, stored.TotalAllocationBP)
}
