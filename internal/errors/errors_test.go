package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerErrorIsMatchesByCode(t *testing.T) {
	err := ErrUnauthorized.WithDetails(map[string]any{"signer": "x"})
	wrapped := fmt.Errorf("handler: %w", err)

	assert.True(t, Is(wrapped, ErrUnauthorized))
	assert.False(t, Is(wrapped, ErrNotInitialized))
	assert.Equal(t, ErrCodeUnauthorized, CodeOf(wrapped))
}

func TestWithCauseDoesNotMutateSentinel(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := ErrInsufficientFunds.WithCause(cause)

	require.NotSame(t, ErrInsufficientFunds, err)
	assert.Nil(t, ErrInsufficientFunds.Cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "boom")
}

func TestNumberIsStable(t *testing.T) {
	assert.Equal(t, uint32(6000), ErrNotInitialized.Number())
	assert.Equal(t, uint32(6001), ErrUnauthorized.Number())
	assert.Equal(t, uint32(6002), ErrInvalidEntryTier.Number())

	seen := map[uint32]string{}
	for code, ord := range ordinals {
		n := CustomErrorOffset + ord
		if other, ok := seen[n]; ok {
			t.Fatalf("codes %s and %s share number %d", code, other, n)
		}
		seen[n] = code
	}
}

func TestDecodeFailed(t *testing.T) {
	err := DecodeFailed("GlobalState", fmt.Errorf("short buffer"))
	assert.Equal(t, ErrCodeDecodeFailed, err.Code)
	assert.True(t, Is(err, ErrDecodeFailed))
	assert.Contains(t, All(), ErrDecodeFailed)
	assert.Equal(t, "", CodeOf(fmt.Errorf("plain")))
	assert.Nil(t, Wrap(nil, "ctx"))
}

func TestAllIsOrderedAndUnique(t *testing.T) {
	all := All()
	require.NotEmpty(t, all)
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].Number(), all[i].Number())
	}
	assert.Equal(t, ErrNotInitialized, all[0])
}
