package models

import (
	"strings"

	"testament/internal/privacy"
	"testament/pkg/domain"
	dErrors "testament/pkg/domain-errors"
)

// Beneficiary is one recipient's share of a plan. It is a value record:
// created only inside an add, destroyed only inside a remove, never
// updated in place.
//
// Name, email, and claim code are stored as unsalted SHA-256 digests so
// the claim flow can match presented values without plaintext. The bank
// account is kept raw: downstream fiat settlement needs the plaintext, a
// documented privacy trade-off. Keep it a separate field so an encryption
// layer can wrap it later without touching allocation logic.
type Beneficiary struct {
	HashedFullName  privacy.Digest `json:"hashed_full_name"`
	HashedEmail     privacy.Digest `json:"hashed_email"`
	HashedClaimCode privacy.Digest `json:"hashed_claim_code"`
	BankAccount     []byte         `json:"bank_account"`
	AllocationBP    int            `json:"allocation_bp"`
}

// NewBeneficiary validates raw input and returns a fully hashed record.
//
// Errors: CodeMissingRequiredField when name, email, or bank account is
// empty; CodeInvalidAllocation when allocationBP is not positive;
// CodeInvalidClaimCodeRange when claimCode is outside 0..=999999.
func NewBeneficiary(fullName, email string, claimCode int, allocationBP int, bankAccount []byte) (Beneficiary, error) {
	fullName = strings.TrimSpace(fullName)
	email = strings.TrimSpace(email)

	if fullName == "" {
		return Beneficiary{}, dErrors.New(domain.CodeMissingRequiredField, "full name is required")
	}
	if email == "" {
		return Beneficiary{}, dErrors.New(domain.CodeMissingRequiredField, "email is required")
	}
	if len(bankAccount) == 0 {
		return Beneficiary{}, dErrors.New(domain.CodeMissingRequiredField, "bank account is required")
	}
	if allocationBP <= 0 {
		return Beneficiary{}, dErrors.New(domain.CodeInvalidAllocation, "allocation must be positive")
	}

	hashedCode, err := privacy.HashClaimCode(claimCode)
	if err != nil {
		return Beneficiary{}, err
	}

	account := make([]byte, len(bankAccount))
	copy(account, bankAccount)

	return Beneficiary{
		HashedFullName:  privacy.HashString(fullName),
		HashedEmail:     privacy.HashString(email),
		HashedClaimCode: hashedCode,
		BankAccount:     account,
		AllocationBP:    allocationBP,
	}, nil
}
