package program

import (
	"github.com/lugondev/go-soflotto/internal/access"
	"github.com/lugondev/go-soflotto/internal/errors"
	"github.com/lugondev/go-soflotto/internal/pool"
	"github.com/lugondev/go-soflotto/internal/receipt"
	"github.com/lugondev/go-soflotto/internal/state"
	"github.com/lugondev/go-soflotto/internal/tax"
)

func handleUpdateTaxRates(e *execution) error {
	args := e.args.(*UpdateTaxRatesArgs)
	gs, err := e.authorized()
	if err != nil {
		return err
	}
	if err := tax.ValidateRate(args.BuyTaxBps); err != nil {
		return err
	}
	if err := tax.ValidateRate(args.SellTaxBps); err != nil {
		return err
	}
	gs.BuyTaxBps, gs.SellTaxBps = args.BuyTaxBps, args.SellTaxBps
	if err := e.saveGlobalState(gs); err != nil {
		return err
	}
	e.emit(receipt.TaxRatesUpdated{BuyTaxBps: gs.BuyTaxBps, SellTaxBps: gs.SellTaxBps})
	return nil
}

func handleUpdateLpSplit(e *execution) error {
	args := e.args.(*UpdateLpSplitArgs)
	gs, err := e.authorized()
	if err != nil {
		return err
	}
	if err := pool.ValidateSplit(args.BankLpBps, args.LockedLpBps); err != nil {
		return err
	}
	gs.BankLpBps, gs.LockedLpBps = args.BankLpBps, args.LockedLpBps
	if err := e.saveGlobalState(gs); err != nil {
		return err
	}
	e.emit(receipt.LpSplitUpdated{BankLpBps: gs.BankLpBps, LockedLpBps: gs.LockedLpBps})
	return nil
}

func handleSetEmergencyPause(e *execution) error {
	args := e.args.(*SetEmergencyPauseArgs)
	gs, err := e.authorized()
	if err != nil {
		return err
	}
	gs.IsEmergencyPaused = args.Paused
	if err := e.saveGlobalState(gs); err != nil {
		return err
	}
	e.emit(receipt.EmergencyPauseSet{Paused: args.Paused, By: e.key(1)})
	return nil
}

// handleTransferAuthority is restricted to the current authority; delegated
// admins cannot hand the program away.
func handleTransferAuthority(e *execution) error {
	args := e.args.(*TransferAuthorityArgs)
	gs, err := e.globalState()
	if err != nil {
		return err
	}
	if !gs.Authority.Equals(e.key(1)) {
		return errors.ErrUnauthorized
	}
	if args.NewAuthority.IsZero() {
		return errors.ErrInvalidAccountData.WithDetails(map[string]any{"reason": "zero authority"})
	}
	prev := gs.Authority
	gs.Authority = args.NewAuthority
	if err := e.saveGlobalState(gs); err != nil {
		return err
	}
	e.emit(receipt.AuthorityTransferred{Previous: prev, Next: gs.Authority})
	return nil
}

func (e *execution) loadAdminState() (*state.AdminAccessState, error) {
	var a state.AdminAccessState
	if _, err := e.load(e.program.book.Admin.Address, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (e *execution) saveAdminState(a *state.AdminAccessState) error {
	return e.save(e.program.book.Admin.Address, a)
}

func handleInitializeAdmin(e *execution) error {
	args := e.args.(*InitializeAdminArgs)
	a, err := e.loadAdminState()
	if err != nil {
		return err
	}
	if err := access.Initialize(a, args.MasterAdmin, e.program.book.Admin.Bump); err != nil {
		return err
	}
	if err := e.saveAdminState(a); err != nil {
		return err
	}
	e.emit(receipt.AdminInitialized{Master: a.MasterAdmin})
	return nil
}

// adminOp loads the admin state, applies op and stores the result.
func (e *execution) adminOp(op func(a *state.AdminAccessState) error, ev receipt.Event) error {
	a, err := e.loadAdminState()
	if err != nil {
		return err
	}
	if err := op(a); err != nil {
		return err
	}
	if err := e.saveAdminState(a); err != nil {
		return err
	}
	e.emit(ev)
	return nil
}

func handleAddAdmin(e *execution) error {
	args := e.args.(*AdminArgs)
	return e.adminOp(func(a *state.AdminAccessState) error {
		return access.AddAdmin(a, e.key(1), args.Admin)
	}, receipt.AdminAdded{Admin: args.Admin})
}

func handleRemoveAdmin(e *execution) error {
	args := e.args.(*AdminArgs)
	return e.adminOp(func(a *state.AdminAccessState) error {
		return access.RemoveAdmin(a, e.key(1), args.Admin)
	}, receipt.AdminRemoved{Admin: args.Admin})
}

func handleTransferMaster(e *execution) error {
	args := e.args.(*TransferMasterArgs)
	caller := e.key(1)
	return e.adminOp(func(a *state.AdminAccessState) error {
		return access.TransferMaster(a, caller, args.NewMaster)
	}, receipt.MasterTransferred{Previous: caller, Next: args.NewMaster})
}

func handleEmergencyPause(e *execution) error {
	return e.adminOp(func(a *state.AdminAccessState) error {
		return access.SetPaused(a, e.key(1), true)
	}, receipt.AdminPauseSet{Paused: true})
}

func handleUnpause(e *execution) error {
	return e.adminOp(func(a *state.AdminAccessState) error {
		return access.SetPaused(a, e.key(1), false)
	}, receipt.AdminPauseSet{Paused: false})
}

// handleIsAdmin answers through an IsAdminResult event and writes nothing.
// An absent admin state answers false.
func handleIsAdmin(e *execution) error {
	args := e.args.(*IsAdminArgs)
	a, err := e.loadAdminState()
	if err != nil {
		return err
	}
	e.emit(receipt.IsAdminResult{Pubkey: args.Pubkey, IsAdmin: access.IsAdmin(a, args.Pubkey)})
	return nil
}
