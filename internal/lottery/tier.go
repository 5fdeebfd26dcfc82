package lottery

import (
	"github.com/shopspring/decimal"

	"github.com/lugondev/go-soflotto/internal/errors"
)

// Tier is one row of the holding-value table.
type Tier struct {
	// ID is the value clients pass to enterLottery.
	ID uint8
	// MinUSD is the inclusive lower bound of the bracket.
	MinUSD decimal.Decimal
	// Entries is the number of entries a holder in this bracket gets.
	Entries uint64
}

// Tiers is ordered by MinUSD. Each bracket runs up to the next row's
// minimum, exclusive; the last one is unbounded.
var Tiers = []Tier{
	{ID: 1, MinUSD: decimal.NewFromInt(20), Entries: 1},
	{ID: 2, MinUSD: decimal.NewFromInt(100), Entries: 2},
	{ID: 4, MinUSD: decimal.NewFromInt(1_000), Entries: 3},
	{ID: 8, MinUSD: decimal.NewFromInt(10_000), Entries: 5},
}

// TierByID looks up a tier by its client-facing id.
func TierByID(id uint8) (Tier, bool) {
	for _, t := range Tiers {
		if t.ID == id {
			return t, true
		}
	}
	return Tier{}, false
}

// TierEntries maps a USD holding value to its entry count. Values below the
// first bracket get zero.
func TierEntries(value decimal.Decimal) uint64 {
	var entries uint64
	for _, t := range Tiers {
		if value.LessThan(t.MinUSD) {
			break
		}
		entries = t.Entries
	}
	return entries
}

// CheckEntry validates a claimed tier against the holder's value and returns
// the entries the holder actually earns, which may exceed the claim.
func CheckEntry(tierID uint8, value decimal.Decimal) (uint64, error) {
	t, ok := TierByID(tierID)
	if !ok {
		return 0, errors.ErrInvalidEntryTier.WithDetails(map[string]any{"tier": tierID})
	}
	if value.LessThan(t.MinUSD) {
		return 0, errors.ErrInvalidEntryTier.WithDetails(map[string]any{
			"tier":    tierID,
			"value":   value.StringFixed(2),
			"minimum": t.MinUSD.String(),
		})
	}
	return TierEntries(value), nil
}
