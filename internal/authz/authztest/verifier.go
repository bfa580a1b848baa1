// Package authztest provides owner-verifier doubles for service tests.
package authztest

import (
	"context"

	"testament/internal/authz"
	"testament/pkg/domain"
	dErrors "testament/pkg/domain-errors"
)

// AllowAll authorizes every proof. The Resolve identity defaults to the
// proof token itself so tests can use plain account strings as tokens.
type AllowAll struct{}

func (AllowAll) VerifyOwner(context.Context, authz.Proof, domain.AccountID) error {
	return nil
}

func (AllowAll) Resolve(_ context.Context, proof authz.Proof) (domain.AccountID, error) {
	return domain.AccountID(proof.Token), nil
}

// DenyAll rejects every proof.
type DenyAll struct{}

func (DenyAll) VerifyOwner(context.Context, authz.Proof, domain.AccountID) error {
	return dErrors.New(dErrors.CodeUnauthorized, "denied by test verifier")
}

func (DenyAll) Resolve(context.Context, authz.Proof) (domain.AccountID, error) {
	return "", dErrors.New(dErrors.CodeUnauthorized, "denied by test verifier")
}

// Exact authorizes only when the proof token equals the owner. It mimics
// the production verifier's subject comparison without real tokens.
type Exact struct{}

func (Exact) VerifyOwner(_ context.Context, proof authz.Proof, owner domain.AccountID) error {
	if domain.AccountID(proof.Token) != owner {
		return dErrors.New(dErrors.CodeUnauthorized, "caller is not the plan owner")
	}
	return nil
}

func (Exact) Resolve(_ context.Context, proof authz.Proof) (domain.AccountID, error) {
	if proof.Token == "" {
		return "", dErrors.New(dErrors.CodeUnauthorized, "owner proof is required")
	}
	return domain.AccountID(proof.Token), nil
}
