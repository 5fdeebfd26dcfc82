// Package lottery implements the holder-weighted jackpot round: entry
// bookkeeping, the commit-reveal draw, winner and runner-up selection and
// the payout split.
//
// Functions here mutate the state records they are given and never touch
// token balances; the program layer moves tokens according to the Payout
// they return.
package lottery

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"sort"

	"github.com/gagliardetto/solana-go"

	"github.com/lugondev/go-soflotto/internal/errors"
	"github.com/lugondev/go-soflotto/internal/state"
	"github.com/lugondev/go-soflotto/internal/tax"
)

// Payout split of the jackpot, in basis points.
const (
	WinnerBps   = 8_200
	RunnerUpBps = 200
	RewardsBps  = 1_200
)

// Holder is one row of an entries snapshot.
type Holder struct {
	User    solana.PublicKey
	Entries uint64
}

// Enter registers entries for a holder in the current round. isNew is true
// when the UserState was created by this call. Re-entering in the same round
// replaces the previous entries instead of adding to them.
func Enter(gs *state.GlobalState, us *state.UserState, isNew bool, tierID uint8, entries, attested uint64) error {
	if gs.DrawPhase != state.PhaseAccumulating {
		return errors.ErrDrawInProgress
	}
	if !isNew && us.Round == gs.CurrentRound {
		gs.TotalEntries -= us.Entries
	} else {
		gs.Participants++
	}
	if gs.TotalEntries+entries < gs.TotalEntries {
		return errors.ErrArithmeticOverflow
	}
	gs.TotalEntries += entries

	us.Round = gs.CurrentRound
	us.Entries = entries
	us.Tier = tierID
	if us.TotalContributed+attested < us.TotalContributed {
		return errors.ErrArithmeticOverflow
	}
	us.TotalContributed += attested
	return nil
}

// MixEntry folds an accepted entry into the round's entry entropy. The
// blockhash is the one of the slot the entry executed in.
func MixEntry(gs *state.GlobalState, user solana.PublicKey, entries uint64, blockhash solana.Hash) {
	h := sha256.New()
	h.Write(gs.EntryEntropy[:])
	h.Write(user[:])
	var n [8]byte
	binary.LittleEndian.PutUint64(n[:], entries)
	h.Write(n[:])
	h.Write(blockhash[:])
	copy(gs.EntryEntropy[:], h.Sum(nil))
}

// Commit records sha256(seed), moves the round to Drawing and fixes the
// target slot whose blockhash the draw will use.
func Commit(gs *state.GlobalState, commitment [32]byte, slot, delay uint64) error {
	if gs.DrawPhase == state.PhaseDrawing {
		return errors.ErrDrawInProgress.WithDetails(map[string]any{"round": gs.CurrentRound})
	}
	if gs.TotalEntries == 0 {
		return errors.ErrNoEligibleEntries
	}
	if delay == 0 {
		delay = 1
	}
	gs.DrawPhase = state.PhaseDrawing
	gs.DrawCommitment = commitment
	gs.DrawCommitSlot = slot
	gs.DrawTargetSlot = slot + delay
	return nil
}

// Cancel abandons a pending draw once timeout slots have passed since the
// commit. Entries of the round are kept.
func Cancel(gs *state.GlobalState, slot, timeout uint64) error {
	if gs.DrawPhase != state.PhaseDrawing {
		return errors.ErrDrawNotCommitted
	}
	if slot < gs.DrawCommitSlot+timeout {
		return errors.ErrRevealTooEarly.WithDetails(map[string]any{
			"commit_slot": gs.DrawCommitSlot,
			"earliest":    gs.DrawCommitSlot + timeout,
		})
	}
	resetCommit(gs)
	return nil
}

// Reveal checks seed against the stored commitment and the reveal window
// [DrawTargetSlot, DrawCommitSlot+timeout), then derives the random number
// from the seed, the entry entropy and the blockhash of the target slot.
// Any slot inside the window yields the same number.
func Reveal(gs *state.GlobalState, seed [32]byte, slot, timeout uint64, blockhashAt func(uint64) (solana.Hash, bool)) (uint64, solana.Hash, error) {
	if gs.DrawPhase != state.PhaseDrawing {
		return 0, solana.Hash{}, errors.ErrDrawNotCommitted
	}
	if slot < gs.DrawTargetSlot {
		return 0, solana.Hash{}, errors.ErrRevealTooEarly.WithDetails(map[string]any{
			"slot":        slot,
			"target_slot": gs.DrawTargetSlot,
		})
	}
	deadline := gs.DrawCommitSlot + timeout
	if slot >= deadline {
		return 0, solana.Hash{}, errors.ErrRevealExpired.WithDetails(map[string]any{
			"slot":     slot,
			"deadline": deadline,
		})
	}
	if Commitment(seed) != gs.DrawCommitment {
		return 0, solana.Hash{}, errors.ErrRandomnessMismatch
	}
	blockhash, ok := blockhashAt(gs.DrawTargetSlot)
	if !ok {
		return 0, solana.Hash{}, errors.ErrRevealExpired.WithDetails(map[string]any{"target_slot": gs.DrawTargetSlot})
	}
	return RandomNumber(seed, gs.EntryEntropy, blockhash, gs.CurrentRound), blockhash, nil
}

// Commitment is the value published at commit time.
func Commitment(seed [32]byte) [32]byte {
	return sha256.Sum256(seed[:])
}

// RandomNumber is u64le(sha256(seed || entropy || blockhash || u64le(round))[:8]).
func RandomNumber(seed, entropy [32]byte, blockhash solana.Hash, round uint64) uint64 {
	h := sha256.New()
	h.Write(seed[:])
	h.Write(entropy[:])
	h.Write(blockhash[:])
	var r [8]byte
	binary.LittleEndian.PutUint64(r[:], round)
	h.Write(r[:])
	return binary.LittleEndian.Uint64(h.Sum(nil)[:8])
}

// SortHolders orders a snapshot by user key, the canonical draw order.
func SortHolders(holders []Holder) {
	sort.Slice(holders, func(i, j int) bool {
		return bytes.Compare(holders[i].User[:], holders[j].User[:]) < 0
	})
}

// TotalEntries sums a snapshot.
func TotalEntries(holders []Holder) (uint64, error) {
	var total uint64
	for _, h := range holders {
		if total+h.Entries < total {
			return 0, errors.ErrArithmeticOverflow
		}
		total += h.Entries
	}
	return total, nil
}

// SelectWinner returns the index of the holder whose entry range contains
// random mod total. Holders are walked in slice order.
func SelectWinner(holders []Holder, random uint64) (int, error) {
	total, err := TotalEntries(holders)
	if err != nil {
		return 0, err
	}
	if total == 0 {
		return 0, errors.ErrNoEligibleEntries
	}
	target := random % total
	var offset uint64
	for i, h := range holders {
		if target < offset+h.Entries {
			return i, nil
		}
		offset += h.Entries
	}
	// unreachable: target < total
	return 0, errors.ErrNoEligibleEntries
}

// RunnerUps returns up to RunnerUpCount indices following the winner in ring
// order, skipping holders with no entries.
func RunnerUps(holders []Holder, winner int) []int {
	out := make([]int, 0, state.RunnerUpCount)
	n := len(holders)
	for step := 1; step < n && len(out) < state.RunnerUpCount; step++ {
		i := (winner + step) % n
		if holders[i].Entries > 0 {
			out = append(out, i)
		}
	}
	return out
}

// Payout is the jackpot distribution of one draw.
type Payout struct {
	Winner    uint64
	RunnerUp  uint64 // per runner-up
	RunnerUps int
	Rewards   uint64
	CarryOver uint64
}

// Split divides jackpot for a draw with runnerUps runner-ups. Unassigned
// runner-up shares and rounding dust carry over.
func Split(jackpot uint64, runnerUps int) Payout {
	if runnerUps > state.RunnerUpCount {
		runnerUps = state.RunnerUpCount
	}
	p := Payout{
		Winner:    tax.Bps(jackpot, WinnerBps),
		RunnerUp:  tax.Bps(jackpot, RunnerUpBps),
		RunnerUps: runnerUps,
		Rewards:   tax.Bps(jackpot, RewardsBps),
	}
	p.CarryOver = jackpot - p.Winner - p.RunnerUp*uint64(runnerUps) - p.Rewards
	return p
}

// Settle closes the round: it fills result, advances the round and seeds the
// next jackpot with the carry-over.
func Settle(gs *state.GlobalState, result *state.DrawResult, holders []Holder, winner int, runnerUps []int, random uint64, p Payout) {
	result.DrawID = gs.CurrentRound
	result.Winner = holders[winner].User
	result.RandomNumber = random
	result.TotalEntries, _ = TotalEntries(holders)
	result.Payout = p.Winner
	result.RunnerUpCount = uint8(len(runnerUps))
	for i, idx := range runnerUps {
		result.RunnerUps[i] = holders[idx].User
	}
	result.RunnerUpPayout = p.RunnerUp
	result.RewardsPayout = p.Rewards
	result.CarryOver = p.CarryOver
	result.Verified = true

	gs.RewardsPoolTotal += p.Rewards
	gs.JackpotAmount = p.CarryOver
	gs.CurrentRound++
	gs.TotalEntries = 0
	gs.Participants = 0
	resetCommit(gs)
}

func resetCommit(gs *state.GlobalState) {
	gs.DrawPhase = state.PhaseAccumulating
	gs.DrawCommitment = [32]byte{}
	gs.DrawCommitSlot = 0
	gs.DrawTargetSlot = 0
}
