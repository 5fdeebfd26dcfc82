package program

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lugondev/go-soflotto/internal/errors"
	"github.com/lugondev/go-soflotto/internal/lottery"
	"github.com/lugondev/go-soflotto/internal/receipt"
	"github.com/lugondev/go-soflotto/internal/state"
)

func (h *harness) userState(owner solana.PublicKey) (*state.UserState, bool) {
	h.t.Helper()
	d, err := h.prog.Book().User(owner)
	require.NoError(h.t, err)
	var us state.UserState
	ok := h.record(d.Address, &us)
	return &us, ok
}

func TestEnterLotteryTierBoundary(t *testing.T) {
	h := newHarness(t)
	exact := h.newWallet(0, usd20)
	short := h.newWallet(0, 99_950*sol) // $19.99

	r := h.ok(h.ix(h.b.EnterLottery(exact, 1)))
	ev := event[receipt.LotteryEntered](t, r)
	assert.Equal(t, uint64(1), ev.Entries)
	assert.Equal(t, "20.00", ev.HoldingUSD)

	us, ok := h.userState(exact.Owner)
	require.True(t, ok)
	assert.Equal(t, uint64(1), us.Entries)
	assert.Equal(t, uint8(1), us.Tier)
	assert.Equal(t, uint64(usd20), us.TotalContributed)

	h.fails(errors.ErrInvalidEntryTier, h.ix(h.b.EnterLottery(short, 1)))
	_, ok = h.userState(short.Owner)
	assert.False(t, ok)

	gs := h.state()
	assert.Equal(t, uint64(1), gs.TotalEntries)
	assert.Equal(t, uint64(1), gs.Participants)
}

func TestEnterLotteryRejectsUnbackedTier(t *testing.T) {
	h := newHarness(t)
	w := h.newWallet(0, usd20)

	h.fails(errors.ErrInvalidEntryTier, h.ix(h.b.EnterLottery(w, 2)))
	h.fails(errors.ErrInvalidEntryTier, h.ix(h.b.EnterLottery(w, 3)))
	h.fails(errors.ErrInvalidEntryTier, h.ix(h.b.EnterLottery(w, 0)))
}

func TestEnterLotteryRejectsForeignUserState(t *testing.T) {
	h := newHarness(t)
	w := h.newWallet(0, usd20)
	other := h.newWallet(0, usd20)

	d, err := h.prog.Book().User(other.Owner)
	require.NoError(t, err)
	ix := h.ix(h.b.Build(InstructionEnterLottery, &EnterLotteryArgs{EntryTier: 1}, Accounts{
		"userState":        d.Address,
		"user":             w.Owner,
		"userTokenAccount": w.Token,
	}))
	h.fails(errors.ErrInvalidDerivedAddress, ix)
}

func TestReEnteringReplacesEntries(t *testing.T) {
	h := newHarness(t)
	w := h.newWallet(sol, 0)
	h.ok(h.ix(h.b.BuyTokens(w, sol))) // about $195

	h.ok(h.ix(h.b.EnterLottery(w, 1)))
	h.ok(h.ix(h.b.EnterLottery(w, 2)))

	gs := h.state()
	assert.Equal(t, uint64(1), gs.Participants)
	assert.Equal(t, uint64(2), gs.TotalEntries)
}

// roundFixture is a round with two participants and a funded jackpot:
// alice bought 1 SOL of tokens (2 entries), bob holds exactly $20 (1 entry).
type roundFixture struct {
	*harness
	alice, bob WalletAccounts
	seed       [32]byte
}

func newRound(t *testing.T) *roundFixture {
	t.Helper()
	h := newHarness(t)
	f := &roundFixture{
		harness: h,
		alice:   h.newWallet(sol, 0),
		bob:     h.newWallet(0, usd20),
		seed:    [32]byte{7, 7, 7, 1},
	}
	h.ok(h.ix(h.b.BuyTokens(f.alice, sol)))
	h.ok(h.ix(h.b.EnterLottery(f.alice, 2)))
	h.ok(h.ix(h.b.EnterLottery(f.bob, 1)))
	return f
}

func (f *roundFixture) participants() []WalletAccounts {
	return []WalletAccounts{f.alice, f.bob}
}

func (f *roundFixture) commit() {
	f.t.Helper()
	f.ok(f.ix(f.b.CommitDraw(f.authority, lottery.Commitment(f.seed), false)))
}

func (f *roundFixture) draw(seed [32]byte, participants []WalletAccounts) *solana.GenericInstruction {
	f.t.Helper()
	round := f.state().CurrentRound
	return f.ix(f.b.DrawWinner(f.authority, seed, round, f.alice.Token, participants, false))
}

func TestDrawWinnerLifecycle(t *testing.T) {
	f := newRound(t)
	book := f.prog.Book()
	jackpot := f.state().JackpotAmount
	require.Equal(t, uint64(23_750_000_000_000), jackpot)

	// Reveal without a commitment.
	f.fails(errors.ErrDrawNotCommitted, f.draw(f.seed, f.participants()))

	f.commit()
	assert.Equal(t, state.PhaseDrawing, f.state().DrawPhase)
	f.fails(errors.ErrDrawInProgress, f.ix(f.b.EnterLottery(f.bob, 1)))
	f.fails(errors.ErrDrawInProgress, f.ix(f.b.CommitDraw(f.authority, lottery.Commitment(f.seed), false)))

	f.fails(errors.ErrRandomnessMismatch, f.draw([32]byte{9}, f.participants()))
	f.fails(errors.ErrInvalidParticipantSet, f.draw(f.seed, []WalletAccounts{f.alice}))
	f.fails(errors.ErrInvalidParticipantSet, f.draw(f.seed, []WalletAccounts{f.alice, f.alice}))

	before := map[solana.PublicKey]uint64{
		f.alice.Owner: f.balance(f.alice.Token),
		f.bob.Owner:   f.balance(f.bob.Token),
	}
	tokenOf := map[solana.PublicKey]solana.PublicKey{f.alice.Owner: f.alice.Token, f.bob.Owner: f.bob.Token}

	pending := f.state()
	require.NotZero(t, pending.EntryEntropy)
	r := f.ok(f.draw(f.seed, f.participants()))
	ev := event[receipt.DrawSettled](t, r)

	blockhash, ok := f.prog.Ledger().Blockhash(pending.DrawTargetSlot)
	require.True(t, ok)
	random := lottery.RandomNumber(f.seed, pending.EntryEntropy, blockhash, 0)
	holders := []lottery.Holder{{User: f.alice.Owner, Entries: 2}, {User: f.bob.Owner, Entries: 1}}
	lottery.SortHolders(holders)
	winner, err := lottery.SelectWinner(holders, random)
	require.NoError(t, err)
	runnerUp := holders[1-winner].User

	assert.Equal(t, random, ev.RandomNumber)
	assert.Equal(t, holders[winner].User, ev.Winner)
	assert.Equal(t, uint64(3), ev.TotalEntries)
	assert.Equal(t, uint8(1), ev.RunnerUpCount)
	assert.Equal(t, runnerUp, ev.RunnerUps[0])

	assert.Equal(t, uint64(19_475_000_000_000), ev.Payout)
	assert.Equal(t, uint64(475_000_000_000), ev.RunnerUpPayout)
	assert.Equal(t, uint64(2_850_000_000_000), ev.RewardsPayout)
	assert.Equal(t, uint64(950_000_000_000), ev.CarryOver)
	assert.Equal(t, jackpot, ev.Payout+ev.RunnerUpPayout+ev.RewardsPayout+ev.CarryOver)

	assert.Equal(t, before[ev.Winner]+ev.Payout, f.balance(tokenOf[ev.Winner]))
	assert.Equal(t, before[runnerUp]+ev.RunnerUpPayout, f.balance(tokenOf[runnerUp]))
	assert.Equal(t, ev.RewardsPayout, f.balance(book.RewardsPool.Address))
	assert.Equal(t, ev.CarryOver, f.balance(book.LotteryPool.Address))

	gs := f.state()
	assert.Equal(t, uint64(1), gs.CurrentRound)
	assert.Equal(t, ev.CarryOver, gs.JackpotAmount)
	assert.Equal(t, ev.RewardsPayout, gs.RewardsPoolTotal)
	assert.Zero(t, gs.TotalEntries)
	assert.Zero(t, gs.Participants)
	assert.Equal(t, state.PhaseAccumulating, gs.DrawPhase)
	assert.Equal(t, [32]byte{}, gs.DrawCommitment)

	d, err := book.Draw(0)
	require.NoError(t, err)
	var result state.DrawResult
	require.True(t, f.record(d.Address, &result))
	assert.True(t, result.Verified)
	assert.Equal(t, uint64(0), result.DrawID)
	assert.Equal(t, ev.Winner, result.Winner)
	assert.Equal(t, f.seed, result.Seed)
	assert.Equal(t, [32]byte(blockhash), result.Blockhash)
	assert.Equal(t, pending.DrawTargetSlot, result.TargetSlot)
	assert.Equal(t, pending.EntryEntropy, result.EntryEntropy)
	assert.Equal(t, f.clock.Now().Unix(), result.Timestamp)

	// The next round starts from an empty participant set.
	f.ok(f.ix(f.b.EnterLottery(f.bob, 1)))
	us, ok := f.userState(f.bob.Owner)
	require.True(t, ok)
	assert.Equal(t, uint64(1), us.Round)
	assert.Equal(t, uint64(1), f.state().Participants)
}

func TestDrawWinnerRequiresAuthority(t *testing.T) {
	f := newRound(t)
	f.commit()

	outsider := solana.NewWallet().PublicKey()
	d, err := f.prog.Book().Draw(0)
	require.NoError(t, err)
	ix := f.ix(f.b.DrawWinner(outsider, f.seed, 0, f.alice.Token, f.participants(), false))
	f.fails(errors.ErrUnauthorized, ix)
	f.fails(errors.ErrUnauthorized, f.ix(f.b.CommitDraw(outsider, [32]byte{}, false)))

	_, ok := f.prog.Ledger().Get(d.Address)
	assert.False(t, ok)
}

func TestDrawWinnerRejectsWrongResultAccount(t *testing.T) {
	f := newRound(t)
	f.commit()

	ix := f.ix(f.b.DrawWinner(f.authority, f.seed, 5, f.alice.Token, f.participants(), false))
	f.fails(errors.ErrInvalidDerivedAddress, ix)
}

func TestDrawRecomputesEntriesFromBalances(t *testing.T) {
	f := newRound(t)
	f.commit()

	// bob sells below $20 after entering; he stays listed but cannot win.
	f.ok(f.ix(f.b.SellTokens(f.bob, sol)))
	r := f.ok(f.draw(f.seed, f.participants()))
	ev := event[receipt.DrawSettled](t, r)

	assert.Equal(t, f.alice.Owner, ev.Winner)
	assert.Equal(t, uint64(2), ev.TotalEntries)
	assert.Zero(t, ev.RunnerUpCount)

	us, ok := f.userState(f.bob.Owner)
	require.True(t, ok)
	assert.Zero(t, us.Entries)
}

func TestCancelDrawAfterTimeout(t *testing.T) {
	f := newRound(t)
	f.fails(errors.ErrDrawNotCommitted, f.ix(f.b.CancelDraw(f.authority, false)))

	f.commit()
	f.fails(errors.ErrRevealTooEarly, f.ix(f.b.CancelDraw(f.authority, false)))

	f.prog.Ledger().AdvanceSlots(f.cfg.Lottery.RevealTimeoutSlots)
	r := f.ok(f.ix(f.b.CancelDraw(f.authority, false)))
	assert.Equal(t, uint64(0), event[receipt.DrawCancelled](t, r).Round)

	gs := f.state()
	assert.Equal(t, state.PhaseAccumulating, gs.DrawPhase)
	assert.Equal(t, uint64(0), gs.CurrentRound)
	assert.Equal(t, uint64(3), gs.TotalEntries)

	// A fresh commitment can follow.
	f.seed = [32]byte{42}
	f.commit()
	f.ok(f.draw(f.seed, f.participants()))
}

func TestCommitFixesTargetSlot(t *testing.T) {
	f := newRound(t)
	r := f.ok(f.ix(f.b.CommitDraw(f.authority, lottery.Commitment(f.seed), false)))
	ev := event[receipt.DrawCommitted](t, r)
	assert.Equal(t, r.Slot, ev.Slot)
	assert.Equal(t, r.Slot+f.cfg.Lottery.RevealDelaySlots, ev.TargetSlot)
	assert.Equal(t, ev.TargetSlot, f.state().DrawTargetSlot)
}

func TestBurningSlotsDoesNotChangeTheDraw(t *testing.T) {
	f := newRound(t)
	f.commit()
	pending := f.state()

	// The first failing instruction produces the target slot.
	f.fails(errors.ErrDrawInProgress, f.ix(f.b.CommitDraw(f.authority, lottery.Commitment(f.seed), false)))
	blockhash, ok := f.prog.Ledger().Blockhash(pending.DrawTargetSlot)
	require.True(t, ok)
	want := lottery.RandomNumber(f.seed, pending.EntryEntropy, blockhash, 0)

	for i := 0; i < 5; i++ {
		f.fails(errors.ErrDrawInProgress, f.ix(f.b.CommitDraw(f.authority, lottery.Commitment(f.seed), false)))
	}
	r := f.ok(f.draw(f.seed, f.participants()))
	assert.Equal(t, pending.DrawTargetSlot+6, r.Slot)
	assert.Equal(t, want, event[receipt.DrawSettled](t, r).RandomNumber)
}

func TestRevealWindow(t *testing.T) {
	f := newRound(t)
	f.prog.params.RevealDelaySlots = 3
	f.commit()
	target := f.state().DrawTargetSlot

	// Slots commit+1 and commit+2 are before the target.
	f.fails(errors.ErrRevealTooEarly, f.draw(f.seed, f.participants()))
	f.fails(errors.ErrRevealTooEarly, f.draw(f.seed, f.participants()))
	require.Equal(t, target-1, f.prog.Ledger().Slot())

	f.prog.Ledger().AdvanceSlots(f.cfg.Lottery.RevealTimeoutSlots)
	f.fails(errors.ErrRevealExpired, f.draw(f.seed, f.participants()))

	// The round keeps its entries and can be committed again after cancel.
	f.ok(f.ix(f.b.CancelDraw(f.authority, false)))
	assert.Equal(t, uint64(3), f.state().TotalEntries)
	f.commit()
	f.prog.Ledger().AdvanceSlots(2)
	f.ok(f.draw(f.seed, f.participants()))
}

func TestDrawRequiresAssociatedTokenAccounts(t *testing.T) {
	f := newRound(t)

	// A second token account owned by bob on the same mint.
	spare := solana.NewWallet().PublicKey()
	acc, ok := f.prog.Ledger().Get(f.bob.Token)
	require.True(t, ok)
	f.prog.Ledger().Put(spare, acc)

	ix := f.ix(f.b.EnterLottery(WalletAccounts{Owner: f.bob.Owner, Token: spare}, 1))
	f.fails(errors.ErrInvalidDerivedAddress, ix)

	f.commit()
	withSpare := []WalletAccounts{f.alice, {Owner: f.bob.Owner, Token: spare}}
	f.fails(errors.ErrInvalidDerivedAddress, f.draw(f.seed, withSpare))
	f.ok(f.draw(f.seed, f.participants()))
}
