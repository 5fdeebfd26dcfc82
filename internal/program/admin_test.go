package program

import (
	"fmt"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lugondev/go-soflotto/internal/errors"
	"github.com/lugondev/go-soflotto/internal/receipt"
	"github.com/lugondev/go-soflotto/internal/state"
	"github.com/lugondev/go-soflotto/internal/tax"
)

func (h *harness) adminState() *state.AdminAccessState {
	h.t.Helper()
	var a state.AdminAccessState
	require.True(h.t, h.record(h.prog.Book().Admin.Address, &a))
	return &a
}

func (h *harness) isAdmin(key solana.PublicKey) bool {
	h.t.Helper()
	r := h.ok(h.ix(h.b.IsAdmin(key)))
	ev := event[receipt.IsAdminResult](h.t, r)
	require.Equal(h.t, key, ev.Pubkey)
	return ev.IsAdmin
}

func TestUpdateTaxRatesScenario(t *testing.T) {
	h := newHarness(t)

	r := h.ok(h.ix(h.b.UpdateTaxRates(h.authority, 300, 300, false)))
	assert.Equal(t, uint16(300), event[receipt.TaxRatesUpdated](t, r).BuyTaxBps)
	assert.Equal(t, uint16(300), h.state().BuyTaxBps)

	outsider := solana.NewWallet().PublicKey()
	h.fails(errors.ErrUnauthorized, h.ix(h.b.UpdateTaxRates(outsider, 100, 100, false)))
	gs := h.state()
	assert.Equal(t, uint16(300), gs.BuyTaxBps)
	assert.Equal(t, uint16(300), gs.SellTaxBps)
}

func TestUpdateTaxRatesBounds(t *testing.T) {
	h := newHarness(t)

	h.ok(h.ix(h.b.UpdateTaxRates(h.authority, tax.MaxTaxBps, 0, false)))
	h.fails(errors.ErrInvalidTaxRate, h.ix(h.b.UpdateTaxRates(h.authority, tax.MaxTaxBps+1, 0, false)))
	h.fails(errors.ErrInvalidTaxRate, h.ix(h.b.UpdateTaxRates(h.authority, 0, 10000, false)))
	assert.Equal(t, uint16(tax.MaxTaxBps), h.state().BuyTaxBps)
}

func TestTransferAuthority(t *testing.T) {
	h := newHarness(t)
	next := solana.NewWallet().PublicKey()

	h.fails(errors.ErrUnauthorized, h.ix(h.b.TransferAuthority(next, next)))
	h.fails(errors.ErrInvalidAccountData, h.ix(h.b.TransferAuthority(h.authority, solana.PublicKey{})))

	r := h.ok(h.ix(h.b.TransferAuthority(h.authority, next)))
	ev := event[receipt.AuthorityTransferred](t, r)
	assert.Equal(t, h.authority, ev.Previous)
	assert.Equal(t, next, ev.Next)

	h.fails(errors.ErrUnauthorized, h.ix(h.b.UpdateTaxRates(h.authority, 100, 100, false)))
	h.ok(h.ix(h.b.UpdateTaxRates(next, 100, 100, false)))
}

func TestAdminProgram(t *testing.T) {
	h := newHarness(t)
	master := solana.NewWallet().PublicKey()
	admin := solana.NewWallet().PublicKey()

	assert.False(t, h.isAdmin(master))
	h.fails(errors.ErrNotInitialized, h.ix(h.b.AddAdmin(master, admin)))

	h.ok(h.ix(h.b.InitializeAdmin(h.authority, master)))
	h.fails(errors.ErrAlreadyInitialized, h.ix(h.b.InitializeAdmin(h.authority, admin)))

	h.fails(errors.ErrUnauthorized, h.ix(h.b.AddAdmin(admin, admin)))
	r := h.ok(h.ix(h.b.AddAdmin(master, admin)))
	assert.Equal(t, admin, event[receipt.AdminAdded](t, r).Admin)
	h.fails(errors.ErrAdminAlreadyExists, h.ix(h.b.AddAdmin(master, admin)))
	h.fails(errors.ErrAdminAlreadyExists, h.ix(h.b.AddAdmin(master, master)))

	assert.True(t, h.isAdmin(master))
	assert.True(t, h.isAdmin(admin))
	assert.False(t, h.isAdmin(h.authority))

	h.fails(errors.ErrCannotRemoveMaster, h.ix(h.b.RemoveAdmin(master, master)))
	h.fails(errors.ErrAdminNotFound, h.ix(h.b.RemoveAdmin(master, h.authority)))
	h.ok(h.ix(h.b.RemoveAdmin(master, admin)))
	assert.False(t, h.isAdmin(admin))
	assert.True(t, h.isAdmin(master))
}

func TestAdminSetIsBounded(t *testing.T) {
	h := newHarness(t)
	master := solana.NewWallet().PublicKey()
	h.ok(h.ix(h.b.InitializeAdmin(h.authority, master)))

	for i := 0; i < state.MaxAdmins; i++ {
		h.ok(h.ix(h.b.AddAdmin(master, solana.NewWallet().PublicKey())))
	}
	extra := solana.NewWallet().PublicKey()
	h.fails(errors.ErrAdminSetFull, h.ix(h.b.AddAdmin(master, extra)))

	a := h.adminState()
	assert.Equal(t, uint8(state.MaxAdmins), a.AdminCount)
	assert.LessOrEqual(t, len(a.Members()), state.MaxAdmins)
	assert.False(t, h.isAdmin(extra))
}

func TestTransferMaster(t *testing.T) {
	h := newHarness(t)
	master := solana.NewWallet().PublicKey()
	admin := solana.NewWallet().PublicKey()
	h.ok(h.ix(h.b.InitializeAdmin(h.authority, master)))
	h.ok(h.ix(h.b.AddAdmin(master, admin)))

	r := h.ok(h.ix(h.b.TransferMaster(master, admin)))
	ev := event[receipt.MasterTransferred](t, r)
	assert.Equal(t, master, ev.Previous)
	assert.Equal(t, admin, ev.Next)

	a := h.adminState()
	assert.Equal(t, admin, a.MasterAdmin)
	assert.Zero(t, a.AdminCount)
	h.fails(errors.ErrUnauthorized, h.ix(h.b.AddAdmin(master, master)))
	h.fails(errors.ErrCannotRemoveMaster, h.ix(h.b.RemoveAdmin(admin, admin)))
}

func TestDelegatedAdminRights(t *testing.T) {
	h := newHarness(t)
	master := solana.NewWallet().PublicKey()
	admin := solana.NewWallet().PublicKey()
	h.ok(h.ix(h.b.InitializeAdmin(h.authority, master)))
	h.ok(h.ix(h.b.AddAdmin(master, admin)))

	// Admin rights apply only when the admin state is passed along.
	h.fails(errors.ErrUnauthorized, h.ix(h.b.UpdateTaxRates(admin, 400, 400, false)))
	h.ok(h.ix(h.b.UpdateTaxRates(admin, 400, 400, true)))
	h.ok(h.ix(h.b.SetEmergencyPause(master, true, true)))
	h.ok(h.ix(h.b.SetEmergencyPause(master, false, true)))

	// Only the authority may hand the program over.
	h.fails(errors.ErrUnauthorized, h.ix(h.b.TransferAuthority(admin, admin)))

	r := h.ok(h.ix(h.b.EmergencyPause(master)))
	assert.True(t, event[receipt.AdminPauseSet](t, r).Paused)
	h.fails(errors.ErrEmergencyPaused, h.ix(h.b.EmergencyPause(master)))
	h.fails(errors.ErrEmergencyPaused, h.ix(h.b.AddAdmin(master, solana.NewWallet().PublicKey())))
	h.fails(errors.ErrUnauthorized, h.ix(h.b.UpdateTaxRates(admin, 500, 500, true)))
	h.fails(errors.ErrUnauthorized, h.ix(h.b.Unpause(admin)))

	// The authority is not affected by the admin kill switch.
	h.ok(h.ix(h.b.UpdateTaxRates(h.authority, 500, 500, true)))

	h.ok(h.ix(h.b.Unpause(master)))
	h.ok(h.ix(h.b.UpdateTaxRates(admin, 600, 600, true)))
	assert.Equal(t, uint16(600), h.state().BuyTaxBps)
}

func TestAdminOperationSequences(t *testing.T) {
	// Random add/remove sequences never grow the set past its bound nor lose
	// the master.
	h := newHarness(t)
	master := solana.NewWallet().PublicKey()
	h.ok(h.ix(h.b.InitializeAdmin(h.authority, master)))

	keys := make([]solana.PublicKey, 14)
	for i := range keys {
		keys[i] = solana.NewWallet().PublicKey()
	}
	for step := 0; step < 60; step++ {
		k := keys[(step*5)%len(keys)]
		var ix *solana.GenericInstruction
		if step%3 == 2 {
			ix = h.ix(h.b.RemoveAdmin(master, k))
		} else {
			ix = h.ix(h.b.AddAdmin(master, k))
		}
		_, _ = h.prog.Process(h.ctx, ix)

		a := h.adminState()
		require.LessOrEqual(t, int(a.AdminCount), state.MaxAdmins, fmt.Sprintf("step %d", step))
		require.Equal(t, master, a.MasterAdmin)
	}
	h.fails(errors.ErrCannotRemoveMaster, h.ix(h.b.RemoveAdmin(master, master)))
}
