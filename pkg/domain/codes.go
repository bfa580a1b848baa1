package domain

import dErrors "testament/pkg/domain-errors"

// Registry error codes. These extend the generic codes in
// pkg/domain-errors with the failure modes of beneficiary management.
// Each code is a hard rejection: the caller must correct and resubmit,
// and the registry guarantees no partial state change accompanied it.
const (
	CodePlanNotFound            dErrors.Code = "plan_not_found"
	CodeTooManyBeneficiaries    dErrors.Code = "too_many_beneficiaries"
	CodeInvalidAllocation       dErrors.Code = "invalid_allocation"
	CodeAllocationExceedsLimit  dErrors.Code = "allocation_exceeds_limit"
	CodeInvalidClaimCodeRange   dErrors.Code = "invalid_claim_code_range"
	CodeMissingRequiredField    dErrors.Code = "missing_required_field"
	CodeInvalidBeneficiaryIndex dErrors.Code = "invalid_beneficiary_index"
)
