// Package shared holds transport helpers used by every handler package.
package shared

import (
	"encoding/json"
	"net/http"

	"testament/pkg/domain"
	dErrors "testament/pkg/domain-errors"
)

// errorResponse is the JSON envelope every error response uses.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WriteError translates a domain error into an HTTP response. Unrecognized
// errors collapse to 500 with a generic body so internals never leak.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := toHTTPStatus(code)

	message := dErrors.MessageOf(err)
	if status == http.StatusInternalServerError {
		message = "internal error"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Error:   string(code),
		Message: message,
	})
}

func toHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeNotFound, domain.CodePlanNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeValidation, dErrors.CodeInvalidInput,
		domain.CodeTooManyBeneficiaries,
		domain.CodeInvalidAllocation,
		domain.CodeAllocationExceedsLimit,
		domain.CodeInvalidClaimCodeRange,
		domain.CodeMissingRequiredField,
		domain.CodeInvalidBeneficiaryIndex:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
