package program

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lugondev/go-soflotto/internal/errors"
	"github.com/lugondev/go-soflotto/internal/ledger"
	"github.com/lugondev/go-soflotto/internal/receipt"
	"github.com/lugondev/go-soflotto/internal/token"
)

func TestInstructionsRequireInitialize(t *testing.T) {
	h := newBareHarness(t)
	w := h.newWallet(10*sol, 0)

	h.fails(errors.ErrNotInitialized, h.ix(h.b.BuyTokens(w, sol)))
	h.fails(errors.ErrNotInitialized, h.ix(h.b.UpdateTaxRates(h.authority, 300, 300, false)))
}

func TestInitialize(t *testing.T) {
	h := newHarness(t)
	gs := h.state()

	assert.True(t, gs.IsInitialized)
	assert.Equal(t, h.authority, gs.Authority)
	assert.Equal(t, h.mint, gs.TokenMint)
	assert.Equal(t, h.cfg.Program.InitialSupply, gs.TotalSupply)
	assert.Equal(t, uint16(250), gs.BuyTaxBps)
	assert.Equal(t, uint16(250), gs.SellTaxBps)
	assert.Equal(t, uint16(1500), gs.BankLpBps)
	assert.Equal(t, uint16(8500), gs.LockedLpBps)
}

func TestInitializeTwiceFails(t *testing.T) {
	h := newHarness(t)
	before := h.state()

	other := solana.NewWallet().PublicKey()
	h.fails(errors.ErrAlreadyInitialized, h.ix(h.b.Initialize(other, h.mint)))
	assert.Equal(t, before, h.state())
}

func TestInitializeRejectsForeignMint(t *testing.T) {
	h := newBareHarness(t)

	// A token account is not a mint.
	h.fails(errors.ErrInvalidAccountData, h.ix(h.b.Initialize(h.authority, h.treasury.Sol)))

	// A mint the program cannot mint from.
	foreign := solana.NewWallet().PublicKey()
	_, err := h.prog.Ledger().Execute(h.ctx, func(tx *ledger.Txn) error {
		return token.NewBank(tx).CreateMint(foreign, h.authority, 9)
	})
	require.NoError(t, err)
	h.fails(errors.ErrInvalidAccountData, h.ix(h.b.Initialize(h.authority, foreign)))

	_, ok := h.prog.Ledger().Get(h.prog.Book().State.Address)
	assert.False(t, ok)
}

func TestBuyTokensConservesGross(t *testing.T) {
	h := newHarness(t)
	w := h.newWallet(10*sol, 0)
	book := h.prog.Book()
	lpSolBefore := h.balance(book.LpSolPool.Address)
	supplyBefore := h.supply()

	r := h.ok(h.ix(h.b.BuyTokens(w, sol)))
	ev := event[receipt.BuyExecuted](t, r)

	// 1 SOL buys 1e15 base units at the default oracle; 2.5% tax, 0.05% burn.
	assert.Equal(t, uint64(1_000_000_000_000_000), ev.Gross)
	assert.Equal(t, uint64(25_000_000_000_000), ev.Tax)
	assert.Equal(t, uint64(500_000_000_000), ev.Burn)
	assert.Equal(t, uint64(974_500_000_000_000), ev.Net)
	assert.Equal(t, ev.Gross, ev.Net+ev.Tax+ev.Burn)
	assert.Equal(t, uint64(1_250_000_000_000), ev.LpShare)
	assert.Equal(t, uint64(23_750_000_000_000), ev.JackpotShare)
	assert.Equal(t, ev.Tax, ev.LpShare+ev.JackpotShare)

	assert.Equal(t, ev.Net, h.balance(w.Token))
	assert.Equal(t, uint64(9*sol), h.balance(w.Sol))
	assert.Equal(t, lpSolBefore+sol, h.balance(book.LpSolPool.Address))
	assert.Equal(t, ev.LpShare, h.balance(book.FeeCollector.Address))
	assert.Equal(t, ev.JackpotShare, h.balance(book.LotteryPool.Address))
	assert.Equal(t, supplyBefore-ev.Burn, h.supply())

	gs := h.state()
	assert.Equal(t, ev.Burn, gs.BurnedTokens)
	assert.Equal(t, h.supply(), gs.TotalSupply)
	assert.Equal(t, ev.Tax, gs.TotalTaxCollected)
	assert.Equal(t, ev.LpShare, gs.PendingLpFees)
	assert.Equal(t, ev.JackpotShare, gs.JackpotAmount)
}

func TestBuyTokensRejectsBadInput(t *testing.T) {
	h := newHarness(t)
	w := h.newWallet(sol, 0)

	h.fails(errors.ErrInvalidAmount, h.ix(h.b.BuyTokens(w, 0)))
	h.fails(errors.ErrInsufficientFunds, h.ix(h.b.BuyTokens(w, 2*sol)))

	// Someone else's accounts.
	other := h.newWallet(sol, 0)
	stolen := WalletAccounts{Owner: w.Owner, Sol: other.Sol, Token: w.Token}
	h.fails(errors.ErrUnauthorized, h.ix(h.b.BuyTokens(stolen, sol)))

	assert.Equal(t, uint64(sol), h.balance(w.Sol))
	assert.Zero(t, h.state().BurnedTokens)
}

func TestSellTokensPaysFromLpSolPool(t *testing.T) {
	h := newHarness(t)
	w := h.newWallet(0, 1_000_000*sol)
	lpSolBefore := h.balance(h.prog.Book().LpSolPool.Address)

	r := h.ok(h.ix(h.b.SellTokens(w, 100_000*sol)))
	ev := event[receipt.SellExecuted](t, r)

	assert.Equal(t, uint64(2_500_000_000_000), ev.Tax)
	assert.Equal(t, uint64(50_000_000_000), ev.Burn)
	assert.Equal(t, uint64(97_450_000_000_000), ev.Net)
	assert.Equal(t, uint64(97_450_000), ev.SolOut)

	assert.Equal(t, uint64(900_000*sol), h.balance(w.Token))
	assert.Equal(t, ev.SolOut, h.balance(w.Sol))
	assert.Equal(t, lpSolBefore-ev.SolOut, h.balance(h.prog.Book().LpSolPool.Address))
	assert.Equal(t, ev.Burn, h.state().BurnedTokens)
}

func TestSellTokensInsufficientBalance(t *testing.T) {
	h := newHarness(t)
	w := h.newWallet(0, 1_000*sol)

	h.fails(errors.ErrInsufficientFunds, h.ix(h.b.SellTokens(w, 1_001*sol)))
	assert.Equal(t, uint64(1_000*sol), h.balance(w.Token))
}

func TestBurnTokens(t *testing.T) {
	h := newHarness(t)
	w := h.newWallet(0, 1_000*sol)
	supply := h.supply()

	r := h.ok(h.ix(h.b.BurnTokens(w, 400*sol)))
	ev := event[receipt.TokensBurned](t, r)
	assert.Equal(t, uint64(400*sol), ev.BurnedTotal)

	h.ok(h.ix(h.b.BurnTokens(w, 100*sol)))
	assert.Equal(t, uint64(500*sol), h.state().BurnedTokens)
	assert.Equal(t, supply-500*sol, h.supply())
	assert.Zero(t, h.balance(h.prog.Book().Burn.Address))

	h.fails(errors.ErrInvalidAmount, h.ix(h.b.BurnTokens(w, 0)))
	h.fails(errors.ErrInsufficientFunds, h.ix(h.b.BurnTokens(w, 501*sol)))
	assert.Equal(t, uint64(500*sol), h.state().BurnedTokens)
}

func TestBurnedTokensNeverDecrease(t *testing.T) {
	h := newHarness(t)
	w := h.newWallet(5*sol, 0)

	var last uint64
	steps := []*solana.GenericInstruction{
		h.ix(h.b.BuyTokens(w, sol)),
		h.ix(h.b.SellTokens(w, 10_000*sol)),
		h.ix(h.b.BurnTokens(w, sol)),
		h.ix(h.b.SellTokens(w, 0)),
		h.ix(h.b.BuyTokens(w, 2*sol)),
	}
	for _, ix := range steps {
		_, _ = h.prog.Process(h.ctx, ix)
		burned := h.state().BurnedTokens
		require.GreaterOrEqual(t, burned, last)
		last = burned
	}
	assert.NotZero(t, last)
}

func TestEmergencyPauseBlocksTrading(t *testing.T) {
	h := newHarness(t)
	w := h.newWallet(5*sol, 1_000*sol)

	r := h.ok(h.ix(h.b.SetEmergencyPause(h.authority, true, false)))
	assert.True(t, event[receipt.EmergencyPauseSet](t, r).Paused)

	h.fails(errors.ErrEmergencyPaused, h.ix(h.b.BuyTokens(w, sol)))
	h.fails(errors.ErrEmergencyPaused, h.ix(h.b.SellTokens(w, sol)))
	h.fails(errors.ErrEmergencyPaused, h.ix(h.b.BurnTokens(w, sol)))
	h.fails(errors.ErrEmergencyPaused, h.ix(h.b.EnterLottery(w, 1)))

	// Privileged configuration stays available while paused.
	h.ok(h.ix(h.b.UpdateTaxRates(h.authority, 100, 100, false)))

	h.ok(h.ix(h.b.SetEmergencyPause(h.authority, false, false)))
	h.ok(h.ix(h.b.BuyTokens(w, sol)))
}
