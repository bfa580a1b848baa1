package service

import (
	"context"
	"time"

	"testament/internal/audit"
	"testament/internal/authz"
	"testament/internal/plan/models"
	"testament/internal/privacy"
	"testament/pkg/domain"
	"testament/pkg/requestcontext"
)

// AddBeneficiaryInput carries the raw fields of an add request. Sensitive
// fields are hashed before they reach the plan; the bank account is stored
// as provided.
type AddBeneficiaryInput struct {
	FullName     string
	Email        string
	ClaimCode    int
	AllocationBP int
	BankAccount  []byte
}

// AddBeneficiary appends a beneficiary to the plan's list and increases
// the allocation total, atomically.
//
// Preconditions, checked in order inside the commit boundary: the proof
// authenticates as the plan owner; the plan has room for another
// beneficiary; the input fields are present and within their domains; the
// new total stays at or below 10000 bp. Any failure aborts before the
// list or total is touched.
func (r *Registry) AddBeneficiary(ctx context.Context, proof authz.Proof, planID domain.PlanID, in AddBeneficiaryInput) error {
	start := time.Now()
	now := requestcontext.Now(ctx)

	var added models.Beneficiary
	_, err := r.plans.Execute(ctx, planID,
		func(plan *models.InheritancePlan) error {
			// Owner gate runs before any other validation.
			if err := r.verifier.VerifyOwner(ctx, proof, plan.Owner); err != nil {
				return err
			}
			b, err := models.NewBeneficiary(in.FullName, in.Email, in.ClaimCode, in.AllocationBP, in.BankAccount)
			if err != nil {
				return err
			}
			if err := plan.CanAddBeneficiary(b.AllocationBP); err != nil {
				return err
			}
			added = b
			return nil
		},
		func(plan *models.InheritancePlan) {
			plan.ApplyAddBeneficiary(added, now)
		},
	)
	if err != nil {
		return wrapPlanErr(err)
	}

	r.logAudit(ctx, audit.BeneficiaryAdded(planID, added.HashedEmail.Hex(), added.AllocationBP))
	r.bindClaim(ctx, added.HashedEmail, planID)
	if r.metrics != nil {
		r.metrics.BeneficiariesAdded.Inc()
		r.metrics.ObserveAdd(start)
	}
	return nil
}

// RemoveBeneficiary removes the beneficiary at index via swap-and-pop and
// decreases the allocation total, atomically.
//
// Remaining allocations are not renormalized, and ordering is not
// preserved: an index that was valid before this call may now refer to a
// different beneficiary. Callers must not cache indices across mutations.
func (r *Registry) RemoveBeneficiary(ctx context.Context, proof authz.Proof, planID domain.PlanID, index int) error {
	start := time.Now()
	now := requestcontext.Now(ctx)

	var removed models.Beneficiary
	_, err := r.plans.Execute(ctx, planID,
		func(plan *models.InheritancePlan) error {
			if err := r.verifier.VerifyOwner(ctx, proof, plan.Owner); err != nil {
				return err
			}
			return plan.CanRemoveBeneficiary(index)
		},
		func(plan *models.InheritancePlan) {
			removed = plan.ApplyRemoveBeneficiary(index, now)
		},
	)
	if err != nil {
		return wrapPlanErr(err)
	}

	r.logAudit(ctx, audit.BeneficiaryRemoved(planID, index, removed.AllocationBP))
	r.unbindClaim(ctx, removed.HashedEmail, planID)
	if r.metrics != nil {
		r.metrics.BeneficiariesRemoved.Inc()
		r.metrics.ObserveRemove(start)
	}
	return nil
}

// CreatePlanInput carries the owner-facing plan metadata. The registry
// core never interprets it.
type CreatePlanInput struct {
	Name               string
	Description        string
	AssetType          string
	TotalAmount        string
	DistributionMethod string
}

// CreatePlan registers an empty plan owned by the proven identity.
func (r *Registry) CreatePlan(ctx context.Context, proof authz.Proof, in CreatePlanInput) (*models.InheritancePlan, error) {
	owner, err := r.resolveIdentity(ctx, proof)
	if err != nil {
		return nil, err
	}

	plan, err := models.NewInheritancePlan(domain.NewPlanID(), owner, models.Metadata{
		Name:               in.Name,
		Description:        in.Description,
		AssetType:          in.AssetType,
		TotalAmount:        in.TotalAmount,
		DistributionMethod: in.DistributionMethod,
	}, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	if err := r.plans.Create(ctx, plan); err != nil {
		return nil, wrapPlanErr(err)
	}

	r.logAudit(ctx, audit.PlanCreated(plan.ID, owner))
	if r.metrics != nil {
		r.metrics.PlansCreated.Inc()
	}
	return plan, nil
}

// GetPlan returns a plan to its owner. Reads are gated like writes: a
// proof that does not authenticate as the owner is rejected.
func (r *Registry) GetPlan(ctx context.Context, proof authz.Proof, planID domain.PlanID) (*models.InheritancePlan, error) {
	plan, err := r.plans.FindByID(ctx, planID)
	if err != nil {
		return nil, wrapPlanErr(err)
	}
	if err := r.verifier.VerifyOwner(ctx, proof, plan.Owner); err != nil {
		return nil, err
	}
	return plan, nil
}

// ListPlans returns every plan owned by the proven identity.
func (r *Registry) ListPlans(ctx context.Context, proof authz.Proof) ([]*models.InheritancePlan, error) {
	owner, err := r.resolveIdentity(ctx, proof)
	if err != nil {
		return nil, err
	}
	plans, err := r.plans.ListByOwner(ctx, owner)
	if err != nil {
		return nil, wrapPlanErr(err)
	}
	return plans, nil
}

func (r *Registry) bindClaim(ctx context.Context, hashedEmail privacy.Digest, planID domain.PlanID) {
	if r.claims == nil {
		return
	}
	if err := r.claims.Bind(ctx, hashedEmail, planID); err != nil {
		r.logger.ErrorContext(ctx, "failed to bind claim index entry",
			"error", err, "plan_id", planID.String())
	}
}

func (r *Registry) unbindClaim(ctx context.Context, hashedEmail privacy.Digest, planID domain.PlanID) {
	if r.claims == nil {
		return
	}
	if err := r.claims.Unbind(ctx, hashedEmail, planID); err != nil {
		r.logger.ErrorContext(ctx, "failed to unbind claim index entry",
			"error", err, "plan_id", planID.String())
	}
}
