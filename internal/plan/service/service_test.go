package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"testament/internal/audit"
	"testament/internal/authz"
	"testament/internal/authz/authztest"
	"testament/internal/claimindex"
	"testament/internal/plan/models"
	"testament/internal/plan/store"
	"testament/internal/privacy"
	"testament/pkg/domain"
	dErrors "testament/pkg/domain-errors"
	"testament/pkg/platform/sentinel"
	"testament/pkg/requestcontext"
)

type RegistrySuite struct {
	suite.Suite
	store    *store.InMemory
	events   *audit.InMemoryStore
	claims   *claimindex.InMemory
	registry *Registry
	ctx      context.Context
	ownerP   authz.Proof
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.store = store.NewInMemory()
	s.events = audit.NewInMemoryStore()
	s.claims = claimindex.NewInMemory()
	s.registry = New(s.store, authztest.Exact{},
		WithAuditPublisher(audit.NewPublisher(s.events)),
		WithClaimIndex(s.claims),
	)
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC))
	s.ownerP = authz.Proof{Token: "owner-1"}
}

func (s *RegistrySuite) newPlan() domain.PlanID {
	plan, err := s.registry.CreatePlan(s.ctx, s.ownerP, CreatePlanInput{Name: "Estate"})
	s.Require().NoError(err)
	return plan.ID
}

func (s *RegistrySuite) addInput(email string, allocationBP int) AddBeneficiaryInput {
	return AddBeneficiaryInput{
		FullName:     "Jordan Doe",
		Email:        email,
		ClaimCode:    123456,
		AllocationBP: allocationBP,
		BankAccount:  []byte("DE89370400440532013000"),
	}
}

func (s *RegistrySuite) storedPlan(planID domain.PlanID) *models.InheritancePlan {
	plan, err := s.store.FindByID(s.ctx, planID)
	s.Require().NoError(err)
	return plan
}

func (s *RegistrySuite) beneficiaryEvents(planID domain.PlanID) []audit.Event {
	all, err := s.events.ListByPlan(s.ctx, planID)
	s.Require().NoError(err)
	var out []audit.Event
	for _, e := range all {
		if e.Topic == audit.TopicBeneficiary {
			out = append(out, e)
		}
	}
	return out
}

func (s *RegistrySuite) TestAddToEmptyPlan() {
	planID := s.newPlan()

	s.Require().NoError(s.registry.AddBeneficiary(s.ctx, s.ownerP, planID, s.addInput("a@example.com", 5000)))

	plan := s.storedPlan(planID)
	s.Len(plan.Beneficiaries, 1)
	s.Equal(5000, plan.TotalAllocationBP)
	s.NoError(plan.CheckAllocations())

	events := s.beneficiaryEvents(planID)
	s.Require().Len(events, 1)
	s.Equal(audit.ActionAdd, events[0].Action)
	s.Equal(privacy.HashString("a@example.com").Hex(), events[0].HashedEmail)
	s.Equal(5000, events[0].AllocationBP)
}

func (s *RegistrySuite) TestAddExceedingCeilingIsRejected() {
	planID := s.newPlan()
	s.Require().NoError(s.registry.AddBeneficiary(s.ctx, s.ownerP, planID, s.addInput("a@example.com", 5000)))

	err := s.registry.AddBeneficiary(s.ctx, s.ownerP, planID, s.addInput("b@example.com", 6000))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, domain.CodeAllocationExceedsLimit))

	plan := s.storedPlan(planID)
	s.Len(plan.Beneficiaries, 1)
	s.Equal(5000, plan.TotalAllocationBP)
	s.Len(s.beneficiaryEvents(planID), 1, "failed add must not emit")
}

func (s *RegistrySuite) TestCapacityLimit() {
	planID := s.newPlan()
	for i := 0; i < models.MaxBeneficiaries; i++ {
		email := fmt.Sprintf("heir-%d@example.com", i)
		s.Require().NoError(s.registry.AddBeneficiary(s.ctx, s.ownerP, planID, s.addInput(email, 500)))
	}

	plan := s.storedPlan(planID)
	s.Len(plan.Beneficiaries, 10)
	s.Equal(5000, plan.TotalAllocationBP)

	err := s.registry.AddBeneficiary(s.ctx, s.ownerP, planID, s.addInput("one-more@example.com", 500))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, domain.CodeTooManyBeneficiaries))

	plan = s.storedPlan(planID)
	s.Len(plan.Beneficiaries, 10)
	s.Equal(5000, plan.TotalAllocationBP)
}

func (s *RegistrySuite) TestRemoveSwapsLastIntoHole() {
	planID := s.newPlan()
	s.Require().NoError(s.registry.AddBeneficiary(s.ctx, s.ownerP, planID, s.addInput("a@example.com", 2000)))
	s.Require().NoError(s.registry.AddBeneficiary(s.ctx, s.ownerP, planID, s.addInput("b@example.com", 3000)))
	s.Require().NoError(s.registry.AddBeneficiary(s.ctx, s.ownerP, planID, s.addInput("c@example.com", 1000)))

	s.Require().NoError(s.registry.RemoveBeneficiary(s.ctx, s.ownerP, planID, 0))

	plan := s.storedPlan(planID)
	s.Require().Len(plan.Beneficiaries, 2)
	s.Equal(privacy.HashString("c@example.com"), plan.Beneficiaries[0].HashedEmail)
	s.Equal(privacy.HashString("b@example.com"), plan.Beneficiaries[1].HashedEmail)
	s.Equal(4000, plan.TotalAllocationBP)

	events := s.beneficiaryEvents(planID)
	s.Require().Len(events, 4)
	last := events[3]
	s.Equal(audit.ActionRemove, last.Action)
	s.Equal(0, last.Index)
	s.Equal(2000, last.AllocationBP)
}

func (s *RegistrySuite) TestNonOwnerIsRejectedFirst() {
	planID := s.newPlan()
	intruder := authz.Proof{Token: "intruder"}

	// Even a request that would also fail validation is rejected with
	// Unauthorized: the owner gate runs before any other check.
	err := s.registry.AddBeneficiary(s.ctx, intruder, planID, AddBeneficiaryInput{AllocationBP: -1})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	err = s.registry.RemoveBeneficiary(s.ctx, intruder, planID, 0)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	plan := s.storedPlan(planID)
	s.Empty(plan.Beneficiaries)
	s.Zero(plan.TotalAllocationBP)
	s.Empty(s.beneficiaryEvents(planID))
}

func (s *RegistrySuite) TestRemoveIndexOnePastEnd() {
	planID := s.newPlan()
	s.Require().NoError(s.registry.AddBeneficiary(s.ctx, s.ownerP, planID, s.addInput("a@example.com", 1000)))

	err := s.registry.RemoveBeneficiary(s.ctx, s.ownerP, planID, 1)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, domain.CodeInvalidBeneficiaryIndex))

	plan := s.storedPlan(planID)
	s.Len(plan.Beneficiaries, 1)
	s.Equal(1000, plan.TotalAllocationBP)
}

func (s *RegistrySuite) TestInputValidation() {
	planID := s.newPlan()
	cases := []struct {
		name     string
		mutate   func(in *AddBeneficiaryInput)
		wantCode dErrors.Code
	}{
		{"empty name", func(in *AddBeneficiaryInput) { in.FullName = "" }, domain.CodeMissingRequiredField},
		{"empty email", func(in *AddBeneficiaryInput) { in.Email = "" }, domain.CodeMissingRequiredField},
		{"empty bank account", func(in *AddBeneficiaryInput) { in.BankAccount = nil }, domain.CodeMissingRequiredField},
		{"zero allocation", func(in *AddBeneficiaryInput) { in.AllocationBP = 0 }, domain.CodeInvalidAllocation},
		{"claim code above range", func(in *AddBeneficiaryInput) { in.ClaimCode = 1000000 }, domain.CodeInvalidClaimCodeRange},
		{"negative claim code", func(in *AddBeneficiaryInput) { in.ClaimCode = -7 }, domain.CodeInvalidClaimCodeRange},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			in := s.addInput("valid@example.com", 100)
			tc.mutate(&in)

			err := s.registry.AddBeneficiary(s.ctx, s.ownerP, planID, in)
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, tc.wantCode), "want %s, got %v", tc.wantCode, err)
			s.Empty(s.storedPlan(planID).Beneficiaries)
		})
	}
}

func (s *RegistrySuite) TestUnknownPlan() {
	err := s.registry.AddBeneficiary(s.ctx, s.ownerP, domain.NewPlanID(), s.addInput("a@example.com", 100))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, domain.CodePlanNotFound))

	err = s.registry.RemoveBeneficiary(s.ctx, s.ownerP, domain.NewPlanID(), 0)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, domain.CodePlanNotFound))
}

func (s *RegistrySuite) TestClaimIndexFollowsMutations() {
	planID := s.newPlan()
	digest := privacy.HashString("heir@example.com")

	s.Require().NoError(s.registry.AddBeneficiary(s.ctx, s.ownerP, planID, s.addInput("heir@example.com", 1000)))
	bound, err := s.claims.Lookup(s.ctx, digest)
	s.Require().NoError(err)
	s.Equal(planID, bound)

	s.Require().NoError(s.registry.RemoveBeneficiary(s.ctx, s.ownerP, planID, 0))
	_, err = s.claims.Lookup(s.ctx, digest)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RegistrySuite) TestGetAndListPlans() {
	planID := s.newPlan()

	plan, err := s.registry.GetPlan(s.ctx, s.ownerP, planID)
	s.Require().NoError(err)
	s.Equal(planID, plan.ID)

	_, err = s.registry.GetPlan(s.ctx, authz.Proof{Token: "intruder"}, planID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	plans, err := s.registry.ListPlans(s.ctx, s.ownerP)
	s.Require().NoError(err)
	s.Len(plans, 1)

	plans, err = s.registry.ListPlans(s.ctx, authz.Proof{Token: "someone-else"})
	s.Require().NoError(err)
	s.Empty(plans)
}

func (s *RegistrySuite) TestCreatePlanValidation() {
	_, err := s.registry.CreatePlan(s.ctx, s.ownerP, CreatePlanInput{})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, domain.CodeMissingRequiredField))

	_, err = s.registry.CreatePlan(s.ctx, authz.Proof{}, CreatePlanInput{Name: "Estate"})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *RegistrySuite) TestDenyAllVerifierBlocksEverything() {
	planID := s.newPlan()
	denied := New(s.store, authztest.DenyAll{})

	err := denied.AddBeneficiary(s.ctx, s.ownerP, planID, s.addInput("a@example.com", 100))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}
