// Package oracle provides the synchronous price source the engine consults
// when pricing trades and valuing holdings.
package oracle

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/lugondev/go-soflotto/internal/config"
)

// PriceOracle reports the current token price. Implementations must be safe
// for concurrent use and must not block.
type PriceOracle interface {
	// TokensPerSol is the number of token base units one SOL buys.
	TokensPerSol() uint64
	// TokenPriceUSD is the USD price of one whole token.
	TokenPriceUSD() decimal.Decimal
}

// HoldingValue converts a base-unit balance into its USD value.
func HoldingValue(o PriceOracle, balance uint64, decimals uint8) decimal.Decimal {
	whole := decimal.NewFromBigInt(new(big.Int).SetUint64(balance), -int32(decimals))
	return whole.Mul(o.TokenPriceUSD())
}

// Static is a PriceOracle with fixed, settable prices.
type Static struct {
	mu           sync.RWMutex
	tokensPerSol uint64
	priceUSD     decimal.Decimal
}

func NewStatic(tokensPerSol uint64, priceUSD decimal.Decimal) *Static {
	return &Static{tokensPerSol: tokensPerSol, priceUSD: priceUSD}
}

// FromConfig builds a Static oracle from the oracle config section.
func FromConfig(cfg config.OracleConfig) (*Static, error) {
	price, err := cfg.PriceUSD()
	if err != nil {
		return nil, err
	}
	if cfg.TokensPerSol == 0 {
		return nil, fmt.Errorf("oracle: tokens_per_sol must be positive")
	}
	return NewStatic(cfg.TokensPerSol, price), nil
}

func (s *Static) TokensPerSol() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokensPerSol
}

func (s *Static) TokenPriceUSD() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.priceUSD
}

// Set replaces both prices.
func (s *Static) Set(tokensPerSol uint64, priceUSD decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokensPerSol = tokensPerSol
	s.priceUSD = priceUSD
}
