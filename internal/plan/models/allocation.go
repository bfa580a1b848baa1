package models

import (
	"math"

	"testament/pkg/domain"
	dErrors "testament/pkg/domain-errors"
)

// MaxAllocationBP is the allocation ceiling: 10000 basis points = 100% of
// the plan's distributable value.
const MaxAllocationBP = 10000

// Checked basis-point arithmetic. Values are bounded by MaxAllocationBP,
// so overflow here indicates a logic error rather than hostile input, but
// the guard must still hold.

// addAllocation returns total + delta, rejecting overflow and any result
// above the ceiling.
func addAllocation(total, delta int) (int, error) {
	if total < 0 || delta < 0 {
		return 0, dErrors.New(dErrors.CodeInvariantViolation, "allocation values cannot be negative")
	}
	if total > math.MaxInt-delta {
		return 0, dErrors.New(dErrors.CodeInvariantViolation, "allocation addition overflows")
	}
	sum := total + delta
	if sum > MaxAllocationBP {
		return 0, dErrors.New(domain.CodeAllocationExceedsLimit, "total allocation cannot exceed 10000 basis points")
	}
	return sum, nil
}

// subAllocation returns total - delta, rejecting negative results.
func subAllocation(total, delta int) (int, error) {
	if total < 0 || delta < 0 {
		return 0, dErrors.New(dErrors.CodeInvariantViolation, "allocation values cannot be negative")
	}
	result := total - delta
	if result < 0 {
		return 0, dErrors.New(dErrors.CodeInvariantViolation, "allocation subtraction underflows")
	}
	return result, nil
}
