// Package domain holds the shared vocabulary of the inheritance registry:
// typed identifiers, the claim code primitive, and the registry error codes.
//
// Identifiers are domain primitives: construct them via Parse* at trust
// boundaries so validity is enforced once; direct casting bypasses
// validation.
package domain

import (
	"github.com/google/uuid"

	dErrors "testament/pkg/domain-errors"
)

// PlanID identifies an inheritance plan.
type PlanID uuid.UUID

// NewPlanID returns a fresh random plan identifier.
func NewPlanID() PlanID {
	return PlanID(uuid.New())
}

// ParsePlanID constructs a PlanID from external input.
func ParsePlanID(s string) (PlanID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return PlanID{}, dErrors.New(dErrors.CodeInvalidInput, "invalid plan id")
	}
	return PlanID(u), nil
}

func (p PlanID) String() string {
	return uuid.UUID(p).String()
}

// IsNil reports whether the plan ID is the zero value.
func (p PlanID) IsNil() bool {
	return uuid.UUID(p) == uuid.Nil
}

// MarshalText encodes the ID in canonical UUID form.
func (p PlanID) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText parses an ID from canonical UUID form.
func (p *PlanID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid plan id")
	}
	*p = PlanID(u)
	return nil
}

// AccountID identifies the external identity that owns a plan. The format
// is opaque to this core: it is whatever subject the identity capability
// vouches for, compared byte-for-byte against the plan's owner.
type AccountID string

// ParseAccountID constructs an AccountID from external input.
func ParseAccountID(s string) (AccountID, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "account id cannot be empty")
	}
	return AccountID(s), nil
}

func (a AccountID) String() string {
	return string(a)
}

// IsNil reports whether the account ID is empty.
func (a AccountID) IsNil() bool {
	return a == ""
}
