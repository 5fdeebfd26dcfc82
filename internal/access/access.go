// Package access implements the admin access-control program: a master
// admin, a bounded admin set and an admin kill switch, plus the
// authorization check privileged GlobalState instructions share.
//
// Every authorization failure is the bare ErrUnauthorized so callers cannot
// tell which check rejected them.
package access

import (
	"github.com/gagliardetto/solana-go"

	"github.com/lugondev/go-soflotto/internal/errors"
	"github.com/lugondev/go-soflotto/internal/state"
)

// Initialize sets the master admin. It runs once.
func Initialize(a *state.AdminAccessState, master solana.PublicKey, bump uint8) error {
	if a.IsInitialized {
		return errors.ErrAlreadyInitialized
	}
	if master.IsZero() {
		return errors.ErrInvalidAccountData.WithDetails(map[string]any{"reason": "zero master admin"})
	}
	*a = state.AdminAccessState{
		MasterAdmin:   master,
		IsInitialized: true,
		Bump:          bump,
	}
	return nil
}

// requireMaster gates master-only operations. Unless allowPaused is set a
// paused admin state rejects them.
func requireMaster(a *state.AdminAccessState, caller solana.PublicKey, allowPaused bool) error {
	if !a.IsInitialized {
		return errors.ErrNotInitialized
	}
	if !a.MasterAdmin.Equals(caller) {
		return errors.ErrUnauthorized
	}
	if a.IsPaused && !allowPaused {
		return errors.ErrEmergencyPaused
	}
	return nil
}

// AddAdmin registers admin. Master only.
func AddAdmin(a *state.AdminAccessState, caller, admin solana.PublicKey) error {
	if err := requireMaster(a, caller, false); err != nil {
		return err
	}
	if admin.IsZero() {
		return errors.ErrInvalidAccountData.WithDetails(map[string]any{"reason": "zero admin key"})
	}
	if admin.Equals(a.MasterAdmin) || a.IndexOf(admin) >= 0 {
		return errors.ErrAdminAlreadyExists
	}
	if int(a.AdminCount) >= state.MaxAdmins {
		return errors.ErrAdminSetFull.WithDetails(map[string]any{"max": state.MaxAdmins})
	}
	a.Admins[a.AdminCount] = admin
	a.AdminCount++
	return nil
}

// RemoveAdmin drops admin from the set. The master cannot be removed.
func RemoveAdmin(a *state.AdminAccessState, caller, admin solana.PublicKey) error {
	if err := requireMaster(a, caller, false); err != nil {
		return err
	}
	if admin.Equals(a.MasterAdmin) {
		return errors.ErrCannotRemoveMaster
	}
	i := a.IndexOf(admin)
	if i < 0 {
		return errors.ErrAdminNotFound
	}
	remove(a, i)
	return nil
}

func remove(a *state.AdminAccessState, i int) {
	last := int(a.AdminCount) - 1
	copy(a.Admins[i:last], a.Admins[i+1:last+1])
	a.Admins[last] = solana.PublicKey{}
	a.AdminCount--
}

// TransferMaster hands the master role to next. If next was a registered
// admin it leaves the set, so the master is never stored twice.
func TransferMaster(a *state.AdminAccessState, caller, next solana.PublicKey) error {
	if err := requireMaster(a, caller, false); err != nil {
		return err
	}
	if next.IsZero() {
		return errors.ErrInvalidAccountData.WithDetails(map[string]any{"reason": "zero master admin"})
	}
	if i := a.IndexOf(next); i >= 0 {
		remove(a, i)
	}
	a.MasterAdmin = next
	return nil
}

// SetPaused toggles the admin kill switch. Master only; unpausing is allowed
// while paused.
func SetPaused(a *state.AdminAccessState, caller solana.PublicKey, paused bool) error {
	if err := requireMaster(a, caller, !paused); err != nil {
		return err
	}
	a.IsPaused = paused
	return nil
}

// IsAdmin reports whether key is the master or a registered admin.
func IsAdmin(a *state.AdminAccessState, key solana.PublicKey) bool {
	return a != nil && a.IsAdmin(key)
}

// Authorize checks a caller of a privileged GlobalState instruction. The
// GlobalState authority always qualifies. A registered admin qualifies only
// when the admin state is supplied and not paused.
func Authorize(gs *state.GlobalState, a *state.AdminAccessState, caller solana.PublicKey) error {
	if gs.Authority.Equals(caller) {
		return nil
	}
	if a == nil || a.IsPaused || !a.IsAdmin(caller) {
		return errors.ErrUnauthorized
	}
	return nil
}
