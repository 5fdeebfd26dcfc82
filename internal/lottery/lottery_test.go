package lottery

import (
	"crypto/sha256"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lugondev/go-soflotto/internal/errors"
	"github.com/lugondev/go-soflotto/internal/state"
)

func usd(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestTierEntriesBoundaries(t *testing.T) {
	cases := map[string]uint64{
		"0":        0,
		"19.99":    0,
		"20":       1,
		"99":       1,
		"99.99":    1,
		"100":      2,
		"999.99":   2,
		"1000":     3,
		"9999":     3,
		"10000":    5,
		"12345678": 5,
	}
	for v, want := range cases {
		assert.Equal(t, want, TierEntries(usd(v)), "value %s", v)
	}
}

func TestCheckEntry(t *testing.T) {
	entries, err := CheckEntry(1, usd("20"))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), entries)

	_, err = CheckEntry(1, usd("19.99"))
	assert.True(t, errors.Is(err, errors.ErrInvalidEntryTier))

	// a lower claim still earns the holding's real tier
	entries, err = CheckEntry(1, usd("1500"))
	require.NoError(t, err)
	assert.Equal(t, uint64(3), entries)

	_, err = CheckEntry(8, usd("9999.99"))
	assert.True(t, errors.Is(err, errors.ErrInvalidEntryTier))

	for _, id := range []uint8{0, 3, 5, 16} {
		_, err = CheckEntry(id, usd("1000000"))
		assert.True(t, errors.Is(err, errors.ErrInvalidEntryTier), "tier %d", id)
	}
}

func TestEnterDoesNotDoubleCount(t *testing.T) {
	gs := &state.GlobalState{CurrentRound: 3}
	us := &state.UserState{}

	require.NoError(t, Enter(gs, us, true, 1, 1, 100))
	assert.Equal(t, uint64(1), gs.TotalEntries)
	assert.Equal(t, uint64(1), gs.Participants)
	assert.Equal(t, uint64(3), us.Round)

	require.NoError(t, Enter(gs, us, false, 2, 2, 500))
	assert.Equal(t, uint64(2), gs.TotalEntries)
	assert.Equal(t, uint64(1), gs.Participants)
	assert.Equal(t, uint64(600), us.TotalContributed)

	// a stale record from an earlier round counts as a new participant
	gs.CurrentRound = 4
	gs.TotalEntries = 0
	gs.Participants = 0
	require.NoError(t, Enter(gs, us, false, 1, 1, 1))
	assert.Equal(t, uint64(1), gs.TotalEntries)
	assert.Equal(t, uint64(1), gs.Participants)
}

func TestEnterBlockedWhileDrawing(t *testing.T) {
	gs := &state.GlobalState{DrawPhase: state.PhaseDrawing}
	err := Enter(gs, &state.UserState{}, true, 1, 1, 1)
	assert.True(t, errors.Is(err, errors.ErrDrawInProgress))
}

// slotHashes serves blockhashes for a fixed set of slots.
type slotHashes map[uint64]solana.Hash

func (h slotHashes) at(slot uint64) (solana.Hash, bool) {
	bh, ok := h[slot]
	return bh, ok
}

func TestCommitReveal(t *testing.T) {
	gs := &state.GlobalState{TotalEntries: 5, CurrentRound: 7}
	MixEntry(gs, solana.PublicKey{1}, 5, solana.Hash{2})
	seed := sha256.Sum256([]byte("seed"))
	bh := solana.Hash(sha256.Sum256([]byte("blockhash")))
	hashes := slotHashes{12: bh}

	require.NoError(t, Commit(gs, Commitment(seed), 10, 2))
	assert.Equal(t, state.PhaseDrawing, gs.DrawPhase)
	assert.Equal(t, uint64(12), gs.DrawTargetSlot)

	err := Commit(gs, Commitment(seed), 11, 2)
	assert.True(t, errors.Is(err, errors.ErrDrawInProgress))

	_, _, err = Reveal(gs, seed, 11, 150, hashes.at)
	assert.True(t, errors.Is(err, errors.ErrRevealTooEarly))

	_, _, err = Reveal(gs, sha256.Sum256([]byte("other")), 12, 150, hashes.at)
	assert.True(t, errors.Is(err, errors.ErrRandomnessMismatch))

	r, used, err := Reveal(gs, seed, 12, 150, hashes.at)
	require.NoError(t, err)
	assert.Equal(t, bh, used)
	assert.Equal(t, RandomNumber(seed, gs.EntryEntropy, bh, 7), r)
	assert.NotEqual(t, RandomNumber(seed, gs.EntryEntropy, bh, 8), r)
	assert.NotEqual(t, RandomNumber(seed, [32]byte{}, bh, 7), r)
}

func TestRevealIsBoundToTargetSlot(t *testing.T) {
	gs := &state.GlobalState{TotalEntries: 3}
	seed := sha256.Sum256([]byte("seed"))
	hashes := slotHashes{}
	for slot := uint64(100); slot < 260; slot++ {
		hashes[slot] = solana.Hash(sha256.Sum256([]byte{byte(slot), byte(slot >> 8)}))
	}
	require.NoError(t, Commit(gs, Commitment(seed), 100, 4))

	// Every slot in the window yields the target slot's number.
	want, _, err := Reveal(gs, seed, 104, 150, hashes.at)
	require.NoError(t, err)
	for _, slot := range []uint64{105, 180, 249} {
		got, used, err := Reveal(gs, seed, slot, 150, hashes.at)
		require.NoError(t, err)
		assert.Equal(t, want, got, "slot %d", slot)
		assert.Equal(t, hashes[104], used)
	}

	_, _, err = Reveal(gs, seed, 103, 150, hashes.at)
	assert.True(t, errors.Is(err, errors.ErrRevealTooEarly))
	_, _, err = Reveal(gs, seed, 250, 150, hashes.at)
	assert.True(t, errors.Is(err, errors.ErrRevealExpired))

	delete(hashes, 104)
	_, _, err = Reveal(gs, seed, 120, 150, hashes.at)
	assert.True(t, errors.Is(err, errors.ErrRevealExpired))
}

func TestMixEntryChains(t *testing.T) {
	a := &state.GlobalState{}
	b := &state.GlobalState{}
	MixEntry(a, solana.PublicKey{1}, 2, solana.Hash{3})
	MixEntry(b, solana.PublicKey{1}, 2, solana.Hash{3})
	assert.Equal(t, a.EntryEntropy, b.EntryEntropy)
	assert.NotEqual(t, [32]byte{}, a.EntryEntropy)

	MixEntry(b, solana.PublicKey{1}, 1, solana.Hash{3})
	assert.NotEqual(t, a.EntryEntropy, b.EntryEntropy)
}

func TestCommitRequiresEntries(t *testing.T) {
	err := Commit(&state.GlobalState{}, [32]byte{1}, 1, 1)
	assert.True(t, errors.Is(err, errors.ErrNoEligibleEntries))
}

func TestRevealWithoutCommit(t *testing.T) {
	_, _, err := Reveal(&state.GlobalState{}, [32]byte{}, 5, 150, slotHashes{}.at)
	assert.True(t, errors.Is(err, errors.ErrDrawNotCommitted))
}

func TestCancel(t *testing.T) {
	gs := &state.GlobalState{TotalEntries: 1}
	require.NoError(t, Commit(gs, [32]byte{9}, 100, 1))

	err := Cancel(gs, 120, 150)
	assert.True(t, errors.Is(err, errors.ErrRevealTooEarly))

	require.NoError(t, Cancel(gs, 250, 150))
	assert.Equal(t, state.PhaseAccumulating, gs.DrawPhase)
	assert.Equal(t, [32]byte{}, gs.DrawCommitment)
	assert.Zero(t, gs.DrawTargetSlot)
	assert.Equal(t, uint64(1), gs.TotalEntries)

	assert.True(t, errors.Is(Cancel(gs, 500, 150), errors.ErrDrawNotCommitted))
}

func holders(entries ...uint64) []Holder {
	out := make([]Holder, len(entries))
	for i, e := range entries {
		out[i] = Holder{User: solana.PublicKey{byte(i + 1)}, Entries: e}
	}
	return out
}

func TestSelectWinnerRangeWalk(t *testing.T) {
	hs := holders(1, 2, 3, 5) // ranges [0,1) [1,3) [3,6) [6,11)
	cases := map[uint64]int{0: 0, 1: 1, 2: 1, 3: 2, 5: 2, 6: 3, 10: 3, 11: 0, 14: 2}
	for random, want := range cases {
		got, err := SelectWinner(hs, random)
		require.NoError(t, err)
		assert.Equal(t, want, got, "random %d", random)
	}
}

func TestSelectWinnerIsDeterministic(t *testing.T) {
	hs := holders(3, 0, 1, 5, 2)
	first, err := SelectWinner(hs, 0xdeadbeef)
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		got, err := SelectWinner(hs, 0xdeadbeef)
		require.NoError(t, err)
		assert.Equal(t, first, got)
	}
}

func TestSelectWinnerSkipsZeroEntries(t *testing.T) {
	hs := holders(0, 4, 0)
	for r := uint64(0); r < 8; r++ {
		got, err := SelectWinner(hs, r)
		require.NoError(t, err)
		assert.Equal(t, 1, got)
	}

	_, err := SelectWinner(holders(0, 0), 1)
	assert.True(t, errors.Is(err, errors.ErrNoEligibleEntries))
}

func TestSortHolders(t *testing.T) {
	hs := []Holder{{User: solana.PublicKey{3}}, {User: solana.PublicKey{1}}, {User: solana.PublicKey{2}}}
	SortHolders(hs)
	assert.Equal(t, solana.PublicKey{1}, hs[0].User)
	assert.Equal(t, solana.PublicKey{3}, hs[2].User)
}

func TestRunnerUpsRingOrder(t *testing.T) {
	hs := holders(1, 1, 0, 1, 1, 1)
	assert.Equal(t, []int{4, 5, 0}, RunnerUps(hs, 3))
	assert.Equal(t, []int{0, 1, 3}, RunnerUps(hs, 5))

	assert.Equal(t, []int{1}, RunnerUps(holders(2, 1), 0))
	assert.Empty(t, RunnerUps(holders(2), 0))
}

func TestSplitConservesJackpot(t *testing.T) {
	for _, jackpot := range []uint64{0, 1, 99, 10_000, 123_456_789, 1 << 62} {
		for n := 0; n <= state.RunnerUpCount; n++ {
			p := Split(jackpot, n)
			sum := p.Winner + p.RunnerUp*uint64(p.RunnerUps) + p.Rewards + p.CarryOver
			assert.Equal(t, jackpot, sum, "jackpot %d runner-ups %d", jackpot, n)
		}
	}

	p := Split(10_000, 3)
	assert.Equal(t, Payout{Winner: 8_200, RunnerUp: 200, RunnerUps: 3, Rewards: 1_200}, p)

	p = Split(10_000, 1)
	assert.Equal(t, uint64(400), p.CarryOver)
}

func TestSettleAdvancesRound(t *testing.T) {
	gs := &state.GlobalState{CurrentRound: 2, TotalEntries: 6, Participants: 3, JackpotAmount: 10_000}
	require.NoError(t, Commit(gs, [32]byte{1}, 5, 1))

	hs := holders(1, 2, 3)
	p := Split(gs.JackpotAmount, 2)
	var result state.DrawResult
	Settle(gs, &result, hs, 1, []int{2, 0}, 42, p)

	assert.Equal(t, uint64(3), gs.CurrentRound)
	assert.Equal(t, uint64(0), gs.TotalEntries)
	assert.Equal(t, uint64(0), gs.Participants)
	assert.Equal(t, p.CarryOver, gs.JackpotAmount)
	assert.Equal(t, uint64(1_200), gs.RewardsPoolTotal)
	assert.Equal(t, state.PhaseAccumulating, gs.DrawPhase)

	assert.Equal(t, uint64(2), result.DrawID)
	assert.Equal(t, hs[1].User, result.Winner)
	assert.Equal(t, uint8(2), result.RunnerUpCount)
	assert.Equal(t, hs[2].User, result.RunnerUps[0])
	assert.Equal(t, uint64(6), result.TotalEntries)
	assert.True(t, result.Verified)
}
