// Package pool keeps the bookkeeping of the two liquidity pools: the
// fee-earning Bank pool and the Locked pool whose LP ownership is renounced
// at bootstrap.
package pool

import (
	"github.com/gagliardetto/solana-go"

	"github.com/lugondev/go-soflotto/internal/errors"
	"github.com/lugondev/go-soflotto/internal/state"
	"github.com/lugondev/go-soflotto/internal/tax"
)

// Reserves are the token accounts backing one pool.
type Reserves struct {
	Sol   solana.PublicKey
	Token solana.PublicKey
}

// Bootstrap creates both pool records, each funded with solPerPool lamports
// and tokensPerPool base units. The Locked pool is renounced on creation.
func Bootstrap(gs *state.GlobalState, bank, locked *state.LiquidityPool, bankRes, lockedRes Reserves, bankBump, lockedBump uint8, solPerPool, tokensPerPool uint64) error {
	if gs.PoolsBootstrapped {
		return errors.ErrPoolAlreadyBootstrapped
	}
	if solPerPool == 0 || tokensPerPool == 0 {
		return errors.ErrInvalidAmount
	}
	*bank = state.LiquidityPool{
		PoolType:     state.PoolBank,
		IsActive:     true,
		Bump:         bankBump,
		SolAccount:   bankRes.Sol,
		TokenAccount: bankRes.Token,
		SolBalance:   solPerPool,
		TokenBalance: tokensPerPool,
	}
	*locked = state.LiquidityPool{
		PoolType:     state.PoolLocked,
		IsRenounced:  true,
		Bump:         lockedBump,
		SolAccount:   lockedRes.Sol,
		TokenAccount: lockedRes.Token,
		SolBalance:   solPerPool,
		TokenBalance: tokensPerPool,
	}
	gs.PoolsBootstrapped = true
	return add(&gs.TotalLiquidityProvided, solPerPool, solPerPool)
}

// AddLiquidity credits a deposit to p. Renounced pools accept nothing.
func AddLiquidity(gs *state.GlobalState, p *state.LiquidityPool, tokenAmount, solAmount uint64) error {
	if !gs.PoolsBootstrapped {
		return errors.ErrPoolsNotBootstrapped
	}
	if p.IsRenounced {
		return errors.ErrPoolRenounced.WithDetails(map[string]any{"pool": p.PoolType.String()})
	}
	if tokenAmount == 0 || solAmount == 0 {
		return errors.ErrInvalidAmount
	}
	if err := add(&p.TokenBalance, tokenAmount); err != nil {
		return err
	}
	if err := add(&p.SolBalance, solAmount); err != nil {
		return err
	}
	if err := add(&gs.TotalLiquidityProvided, solAmount); err != nil {
		return err
	}
	gs.LpParticipants++
	return nil
}

// SyncPlan is the split of one syncDualLp call.
type SyncPlan struct {
	Bank   uint64
	Locked uint64
}

// PlanSync splits tradingFees by the LP ratio. The bank side takes the floor
// remainder.
func PlanSync(gs *state.GlobalState, tradingFees uint64) (SyncPlan, error) {
	if !gs.PoolsBootstrapped {
		return SyncPlan{}, errors.ErrPoolsNotBootstrapped
	}
	if err := ValidateSplit(gs.BankLpBps, gs.LockedLpBps); err != nil {
		return SyncPlan{}, err
	}
	if tradingFees == 0 {
		return SyncPlan{}, errors.ErrInvalidAmount
	}
	if tradingFees > gs.PendingLpFees {
		return SyncPlan{}, errors.ErrInsufficientFunds.WithDetails(map[string]any{
			"pending":   gs.PendingLpFees,
			"requested": tradingFees,
		})
	}
	locked := tax.Bps(tradingFees, gs.LockedLpBps)
	return SyncPlan{Bank: tradingFees - locked, Locked: locked}, nil
}

// ApplySync credits a plan to the pools. Only the Bank pool accrues fees;
// the Locked pool's reserve deepens but earns nothing withdrawable.
func ApplySync(gs *state.GlobalState, bank, locked *state.LiquidityPool, plan SyncPlan, now int64) error {
	if err := add(&bank.TokenBalance, plan.Bank); err != nil {
		return err
	}
	if err := add(&bank.FeesCollected, plan.Bank); err != nil {
		return err
	}
	if err := add(&locked.TokenBalance, plan.Locked); err != nil {
		return err
	}
	total := plan.Bank + plan.Locked
	gs.PendingLpFees -= total
	if err := add(&gs.TotalLpFeesCollected, total); err != nil {
		return err
	}
	gs.LastLpSync = now
	return nil
}

// ValidateSplit enforces bank + locked == 10000.
func ValidateSplit(bankBps, lockedBps uint16) error {
	if uint32(bankBps)+uint32(lockedBps) != tax.BpsDenominator {
		return errors.ErrInvalidPercentageSplit.WithDetails(map[string]any{"bank": bankBps, "locked": lockedBps})
	}
	return nil
}

func add(dst *uint64, amounts ...uint64) error {
	v := *dst
	for _, a := range amounts {
		if v+a < v {
			return errors.ErrArithmeticOverflow
		}
		v += a
	}
	*dst = v
	return nil
}
