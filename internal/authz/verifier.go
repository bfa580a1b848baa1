// Package authz verifies owner proofs for plan mutations.
//
// The registry never trusts an ambient identity: every mutating call
// carries an explicit Proof, and a pluggable OwnerVerifier decides whether
// it authenticates the plan's owner. Verification fails closed: a missing,
// malformed, or mismatched proof is rejected before any other validation.
package authz

import (
	"context"

	"testament/pkg/domain"
)

// Proof is the externally supplied evidence that the caller is a specific
// identity. The registry treats it as opaque and hands it to a verifier.
type Proof struct {
	Token string
}

// OwnerVerifier checks that proof authenticates as owner.
//
// Implementations must return a CodeUnauthorized domain error for every
// failure mode; callers do not distinguish why a proof was rejected.
type OwnerVerifier interface {
	VerifyOwner(ctx context.Context, proof Proof, owner domain.AccountID) error
}

// IdentityResolver extracts the proven identity from a proof without
// comparing it to anything. Used by flows that establish ownership, such
// as plan creation.
type IdentityResolver interface {
	Resolve(ctx context.Context, proof Proof) (domain.AccountID, error)
}
