package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "testament/pkg/domain-errors"
)

func TestParseClaimCode(t *testing.T) {
	t.Run("accepts boundary values", func(t *testing.T) {
		for _, code := range []int{0, 1, 42, 999999} {
			parsed, err := ParseClaimCode(code)
			require.NoError(t, err)
			assert.Equal(t, code, parsed.Int())
		}
	})

	t.Run("rejects out-of-range values", func(t *testing.T) {
		for _, code := range []int{-1, 1000000, 12345678} {
			_, err := ParseClaimCode(code)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, CodeInvalidClaimCodeRange))
		}
	})
}

func TestClaimCodePadded(t *testing.T) {
	cases := map[int]string{
		0:      "000000",
		42:     "000042",
		999999: "999999",
	}
	for code, want := range cases {
		parsed, err := ParseClaimCode(code)
		require.NoError(t, err)
		assert.Equal(t, want, parsed.Padded())
	}
}

func TestParsePlanID(t *testing.T) {
	id := NewPlanID()

	parsed, err := ParsePlanID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = ParsePlanID("not-a-uuid")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestParseAccountID(t *testing.T) {
	acct, err := ParseAccountID("owner-1")
	require.NoError(t, err)
	assert.Equal(t, AccountID("owner-1"), acct)
	assert.False(t, acct.IsNil())

	_, err = ParseAccountID("")
	require.Error(t, err)
}
