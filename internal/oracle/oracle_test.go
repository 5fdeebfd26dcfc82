package oracle

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lugondev/go-soflotto/internal/config"
)

func TestHoldingValue(t *testing.T) {
	o := NewStatic(1_000_000, decimal.RequireFromString("0.0002"))

	// 100,000 whole tokens at 9 decimals.
	v := HoldingValue(o, 100_000_000_000_000, 9)
	assert.True(t, v.Equal(decimal.NewFromInt(20)), v.String())

	v = HoldingValue(o, 99_950_000_000_000, 9)
	assert.True(t, v.Equal(decimal.RequireFromString("19.99")), v.String())

	assert.True(t, HoldingValue(o, 0, 9).IsZero())
}

func TestHoldingValueLargeBalance(t *testing.T) {
	o := NewStatic(1, decimal.NewFromInt(1))
	v := HoldingValue(o, ^uint64(0), 0)
	assert.Equal(t, "18446744073709551615", v.String())
}

func TestFromConfig(t *testing.T) {
	o, err := FromConfig(config.DefaultConfig().Oracle)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000_000_000_000), o.TokensPerSol())
	assert.Equal(t, "0.0002", o.TokenPriceUSD().String())

	_, err = FromConfig(config.OracleConfig{TokensPerSol: 0, TokenPriceUSD: "1"})
	assert.Error(t, err)

	_, err = FromConfig(config.OracleConfig{TokensPerSol: 1, TokenPriceUSD: "abc"})
	assert.Error(t, err)
}

func TestStaticSet(t *testing.T) {
	o := NewStatic(1, decimal.NewFromInt(1))
	o.Set(5, decimal.NewFromInt(2))
	assert.Equal(t, uint64(5), o.TokensPerSol())
	assert.Equal(t, "2", o.TokenPriceUSD().String())
}
