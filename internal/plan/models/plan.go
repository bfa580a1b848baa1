package models

import (
	"strings"
	"time"

	"testament/pkg/domain"
	dErrors "testament/pkg/domain-errors"
)

// MaxBeneficiaries bounds the beneficiary list per plan.
const MaxBeneficiaries = 10

// Metadata describes a plan for its owner. It is opaque to the registry
// core: plan creation owns it, beneficiary management never reads it.
type Metadata struct {
	Name               string `json:"name"`
	Description        string `json:"description"`
	AssetType          string `json:"asset_type"`
	TotalAmount        string `json:"total_amount"`
	DistributionMethod string `json:"distribution_method"`
}

// InheritancePlan is the aggregate root for one inheritance allocation.
//
// Invariants:
//   - 0 <= len(Beneficiaries) <= MaxBeneficiaries
//   - TotalAllocationBP == sum of Beneficiaries[i].AllocationBP
//   - TotalAllocationBP <= MaxAllocationBP
//   - Owner is the only identity allowed to mutate the beneficiary set,
//     enforced per call at the service layer
//
// TotalAllocationBP changes exactly once per successful add (increase) or
// remove (decrease), in the same atomic step as the list change. Removal
// uses swap-and-pop, so beneficiary ordering is not stable: an index that
// was valid before a removal may refer to a different beneficiary after.
// Callers must not cache indices across mutating calls.
type InheritancePlan struct {
	ID                domain.PlanID    `json:"id"`
	Owner             domain.AccountID `json:"owner"`
	Metadata          Metadata         `json:"metadata"`
	Beneficiaries     []Beneficiary    `json:"beneficiaries"`
	TotalAllocationBP int              `json:"total_allocation_bp"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// NewInheritancePlan constructs an empty plan owned by owner.
func NewInheritancePlan(planID domain.PlanID, owner domain.AccountID, meta Metadata, now time.Time) (*InheritancePlan, error) {
	if owner.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "plan owner is required")
	}
	if strings.TrimSpace(meta.Name) == "" {
		return nil, dErrors.New(domain.CodeMissingRequiredField, "plan name is required")
	}
	return &InheritancePlan{
		ID:        planID,
		Owner:     owner,
		Metadata:  meta,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// CanAddBeneficiary checks whether a beneficiary with the given allocation
// fits the plan. Use with ApplyAddBeneficiary in Execute callbacks.
//
// Errors: CodeTooManyBeneficiaries at capacity, CodeInvalidAllocation for
// non-positive shares, CodeAllocationExceedsLimit past the ceiling.
func (p *InheritancePlan) CanAddBeneficiary(allocationBP int) error {
	if len(p.Beneficiaries) >= MaxBeneficiaries {
		return dErrors.New(domain.CodeTooManyBeneficiaries, "plan already has the maximum number of beneficiaries")
	}
	if allocationBP <= 0 {
		return dErrors.New(domain.CodeInvalidAllocation, "allocation must be positive")
	}
	if _, err := addAllocation(p.TotalAllocationBP, allocationBP); err != nil {
		return err
	}
	return nil
}

// ApplyAddBeneficiary appends b and increases the total in one step.
// Call CanAddBeneficiary first; Apply assumes the checks passed.
func (p *InheritancePlan) ApplyAddBeneficiary(b Beneficiary, now time.Time) {
	total, err := addAllocation(p.TotalAllocationBP, b.AllocationBP)
	if err != nil {
		// CanAddBeneficiary was skipped; refuse to corrupt the ledger.
		panic("plan: ApplyAddBeneficiary without CanAddBeneficiary: " + err.Error())
	}
	p.Beneficiaries = append(p.Beneficiaries, b)
	p.TotalAllocationBP = total
	p.UpdatedAt = now
}

// CanRemoveBeneficiary checks that index addresses an existing entry.
func (p *InheritancePlan) CanRemoveBeneficiary(index int) error {
	if index < 0 || index >= len(p.Beneficiaries) {
		return dErrors.New(domain.CodeInvalidBeneficiaryIndex, "beneficiary index out of range")
	}
	return nil
}

// ApplyRemoveBeneficiary removes the entry at index via swap-and-pop and
// decreases the total by its allocation, returning the removed record.
// O(1), at the cost of ordering: the last entry moves into the vacated
// slot. Remaining allocations are not renormalized; the owner keeps manual
// control and the total may sit below 10000 afterwards.
func (p *InheritancePlan) ApplyRemoveBeneficiary(index int, now time.Time) Beneficiary {
	removed := p.Beneficiaries[index]
	total, err := subAllocation(p.TotalAllocationBP, removed.AllocationBP)
	if err != nil {
		panic("plan: ApplyRemoveBeneficiary underflow: " + err.Error())
	}
	last := len(p.Beneficiaries) - 1
	p.Beneficiaries[index] = p.Beneficiaries[last]
	p.Beneficiaries = p.Beneficiaries[:last]
	p.TotalAllocationBP = total
	p.UpdatedAt = now
	return removed
}

// CheckAllocations audits the allocation ledger: the stored total must
// equal the exact sum of beneficiary shares, stay within the ceiling, and
// the list must respect its length bound. Stores run this before every
// commit so a buggy mutation can never persist an inconsistent record.
func (p *InheritancePlan) CheckAllocations() error {
	if len(p.Beneficiaries) > MaxBeneficiaries {
		return dErrors.New(dErrors.CodeInvariantViolation, "beneficiary list exceeds maximum length")
	}
	sum := 0
	for _, b := range p.Beneficiaries {
		if b.AllocationBP <= 0 {
			return dErrors.New(dErrors.CodeInvariantViolation, "beneficiary allocation must be positive")
		}
		next, err := addAllocation(sum, b.AllocationBP)
		if err != nil {
			return err
		}
		sum = next
	}
	if sum != p.TotalAllocationBP {
		return dErrors.New(dErrors.CodeInvariantViolation, "total allocation does not match beneficiary sum")
	}
	return nil
}

// Clone returns a deep copy for clone-modify-write commits: stores hand
// the copy to callbacks and publish it only after every check passes, so a
// failed mutation never leaves a partially written plan behind.
func (p *InheritancePlan) Clone() *InheritancePlan {
	clone := *p
	clone.Beneficiaries = make([]Beneficiary, len(p.Beneficiaries))
	for i, b := range p.Beneficiaries {
		clone.Beneficiaries[i] = b
		clone.Beneficiaries[i].BankAccount = make([]byte, len(b.BankAccount))
		copy(clone.Beneficiaries[i].BankAccount, b.BankAccount)
	}
	return &clone
}
