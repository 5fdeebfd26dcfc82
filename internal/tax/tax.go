// Package tax computes buy and sell quotes for the SOF token and routes the
// collected tax between the LP fee collector and the lottery jackpot.
//
// All math is integer. Products are formed in 128 bits and every division
// floors; the floor remainder of a split always lands in a named bucket so
// no unit is dropped.
package tax

import (
	"lukechampine.com/uint128"

	"github.com/lugondev/go-soflotto/internal/errors"
)

const (
	// BpsDenominator is 100% in basis points.
	BpsDenominator = 10_000

	// BurnBps is the fixed burn rate applied to every trade.
	BurnBps = 5

	// MaxTaxBps caps admin-set tax rates.
	MaxTaxBps = 2_500

	// LpShareBps is the part of collected tax reserved for the LP pools.
	// The rest accumulates in the jackpot.
	LpShareBps = 500

	// LamportsPerSol is 10^9.
	LamportsPerSol = 1_000_000_000
)

// Deductions is the tax and burn taken from a gross token amount.
type Deductions struct {
	Gross uint64
	Tax   uint64
	Burn  uint64
	Net   uint64
}

// BuyQuote prices a SOL-in, tokens-out trade.
type BuyQuote struct {
	SolIn uint64
	Deductions
}

// SellQuote prices a tokens-in, SOL-out trade. Tax and burn are taken on the
// token leg before conversion.
type SellQuote struct {
	TokensIn uint64
	Deductions
	SolOut uint64
}

// Split is the routing of one tax amount.
type Split struct {
	LpShare      uint64
	JackpotShare uint64
}

// MulDiv returns floor(a*b/d) or ErrArithmeticOverflow if the result does
// not fit in 64 bits.
func MulDiv(a, b, d uint64) (uint64, error) {
	if d == 0 {
		return 0, errors.ErrArithmeticOverflow.WithDetails(map[string]any{"reason": "division by zero"})
	}
	q := uint128.From64(a).Mul64(b).Div64(d)
	if q.Hi != 0 {
		return 0, errors.ErrArithmeticOverflow
	}
	return q.Lo, nil
}

// Bps returns floor(amount*bps/10000). It cannot overflow.
func Bps(amount uint64, bps uint16) uint64 {
	return uint128.From64(amount).Mul64(uint64(bps)).Div64(BpsDenominator).Lo
}

// ValidateRate rejects tax rates above MaxTaxBps.
func ValidateRate(bps uint16) error {
	if bps > MaxTaxBps {
		return errors.ErrInvalidTaxRate.WithDetails(map[string]any{"bps": bps, "max": MaxTaxBps})
	}
	return nil
}

// Deduct applies taxBps and the burn rate to gross.
func Deduct(gross uint64, taxBps uint16) (Deductions, error) {
	if err := ValidateRate(taxBps); err != nil {
		return Deductions{}, err
	}
	d := Deductions{
		Gross: gross,
		Tax:   Bps(gross, taxBps),
		Burn:  Bps(gross, BurnBps),
	}
	d.Net = gross - d.Tax - d.Burn
	return d, nil
}

// QuoteBuy prices solAmount lamports at tokensPerSol base units per SOL.
func QuoteBuy(solAmount, tokensPerSol uint64, taxBps uint16) (BuyQuote, error) {
	if solAmount == 0 {
		return BuyQuote{}, errors.ErrInvalidAmount
	}
	gross, err := MulDiv(solAmount, tokensPerSol, LamportsPerSol)
	if err != nil {
		return BuyQuote{}, err
	}
	d, err := Deduct(gross, taxBps)
	if err != nil {
		return BuyQuote{}, err
	}
	if d.Net == 0 {
		return BuyQuote{}, errors.ErrInvalidAmount.WithDetails(map[string]any{"reason": "amount too small", "gross": gross})
	}
	return BuyQuote{SolIn: solAmount, Deductions: d}, nil
}

// QuoteSell prices tokenAmount base units at tokensPerSol.
func QuoteSell(tokenAmount, tokensPerSol uint64, taxBps uint16) (SellQuote, error) {
	if tokenAmount == 0 {
		return SellQuote{}, errors.ErrInvalidAmount
	}
	d, err := Deduct(tokenAmount, taxBps)
	if err != nil {
		return SellQuote{}, err
	}
	solOut, err := MulDiv(d.Net, LamportsPerSol, tokensPerSol)
	if err != nil {
		return SellQuote{}, err
	}
	if solOut == 0 {
		return SellQuote{}, errors.ErrInvalidAmount.WithDetails(map[string]any{"reason": "amount too small", "net": d.Net})
	}
	return SellQuote{TokensIn: tokenAmount, Deductions: d, SolOut: solOut}, nil
}

// SplitTax routes tax between the LP fee collector and the jackpot. The
// jackpot keeps the floor remainder.
func SplitTax(tax uint64) Split {
	lp := Bps(tax, LpShareBps)
	return Split{LpShare: lp, JackpotShare: tax - lp}
}
