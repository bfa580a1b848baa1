package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCarriesCode(t *testing.T) {
	err := New(CodeNotFound, "plan not found")
	assert.True(t, HasCode(err, CodeNotFound))
	assert.False(t, HasCode(err, CodeConflict))
	assert.Equal(t, CodeNotFound, CodeOf(err))
	assert.Equal(t, "plan not found", MessageOf(err))
}

func TestWrapKeepsCauseReachable(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeInternal, "failed to load plan")

	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.True(t, HasCode(err, CodeInternal))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, CodeInternal, "ignored"))
}

func TestHasCodeWalksChain(t *testing.T) {
	inner := New(CodeValidation, "allocation must be positive")
	outer := Wrap(inner, CodeInvalidInput, "bad beneficiary request")

	assert.True(t, HasCode(outer, CodeInvalidInput))
	assert.True(t, HasCode(outer, CodeValidation))
	assert.False(t, HasCode(outer, CodeUnauthorized))
}

func TestCodeOfUncodedError(t *testing.T) {
	err := fmt.Errorf("raw: %w", errors.New("boom"))
	assert.Equal(t, CodeInternal, CodeOf(err))
	assert.Equal(t, "internal error", MessageOf(err))
}
