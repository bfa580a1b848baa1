package domain

import (
	"fmt"

	dErrors "testament/pkg/domain-errors"
)

// MaxClaimCode bounds the numeric claim code domain: six decimal digits.
const MaxClaimCode = 999999

// ClaimCode is a numeric code a beneficiary presents to claim a plan.
// Invariant: 0 <= code <= MaxClaimCode. Only its hash is ever persisted.
type ClaimCode int

// ParseClaimCode constructs a ClaimCode from external input.
//
// Errors: returns CodeInvalidClaimCodeRange when the value falls outside
// 0..=999999; no other errors are expected.
func ParseClaimCode(code int) (ClaimCode, error) {
	if code < 0 || code > MaxClaimCode {
		return 0, dErrors.New(CodeInvalidClaimCodeRange, "claim code must be between 0 and 999999")
	}
	return ClaimCode(code), nil
}

// Padded returns the zero-padded 6-digit ASCII form, e.g. 42 -> "000042".
// This fixes the hash input width so equal codes always hash identically.
func (c ClaimCode) Padded() string {
	return fmt.Sprintf("%06d", int(c))
}

func (c ClaimCode) Int() int {
	return int(c)
}
