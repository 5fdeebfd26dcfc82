package program

import (
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"

	"github.com/lugondev/go-soflotto/internal/errors"
	"github.com/lugondev/go-soflotto/internal/ledger"
	"github.com/lugondev/go-soflotto/internal/receipt"
	"github.com/lugondev/go-soflotto/internal/state"
	soltoken "github.com/lugondev/go-soflotto/internal/token"
	"github.com/lugondev/go-soflotto/pkg/discriminator"
)

func decodeArgs(def *Definition, data []byte) (any, error) {
	if def.newArgs == nil {
		return nil, nil
	}
	args := def.newArgs()
	if err := bin.UnmarshalBorsh(args, data[discriminator.Size:]); err != nil {
		return nil, errors.DecodeFailed(def.Name+" args", err)
	}
	return args, nil
}

// validateAccounts checks presence, signer and writable flags and fixed
// addresses of every position in the definition.
func (p *Program) validateAccounts(def *Definition, metas []*solana.AccountMeta) error {
	if len(metas) < len(def.Accounts) {
		return errors.ErrMissingAccount.WithDetails(map[string]any{
			"instruction": def.Name,
			"expected":    len(def.Accounts),
			"got":         len(metas),
		})
	}
	for i, acct := range def.Accounts {
		m := metas[i]
		if m == nil {
			return errors.ErrMissingAccount.WithDetails(map[string]any{"account": acct.Name})
		}
		if acct.Signer && !m.IsSigner {
			return errors.ErrMissingSigner.WithDetails(map[string]any{"account": acct.Name})
		}
		if acct.Writable && !m.IsWritable {
			return errors.ErrAccountNotWritable.WithDetails(map[string]any{"account": acct.Name})
		}
		if acct.Address == nil {
			continue
		}
		if want := acct.Address(p.book); !m.PublicKey.Equals(want) {
			base := errors.ErrInvalidDerivedAddress
			if acct.Program {
				base = errors.ErrInvalidProgramID
			}
			return base.WithDetails(map[string]any{
				"account":  acct.Name,
				"expected": want.String(),
				"got":      m.PublicKey.String(),
			})
		}
	}
	return nil
}

// execution is the state of one handler invocation.
type execution struct {
	program   *Program
	tx        *ledger.Txn
	bank      *soltoken.Bank
	def       *Definition
	metas     []*solana.AccountMeta
	remaining []*solana.AccountMeta
	args      any
	receipt   *receipt.Receipt
}

// key returns the account at fixed position i.
func (e *execution) key(i int) solana.PublicKey {
	return e.metas[i].PublicKey
}

func (e *execution) emit(ev receipt.Event) {
	e.receipt.Emit(ev)
}

func (e *execution) sysvars() ledger.Sysvars {
	return e.tx.Sysvars()
}

// load decodes a program-owned record. ok is false if the account is absent.
func (e *execution) load(addr solana.PublicKey, r state.Record) (bool, error) {
	raw, ok := e.tx.Get(addr)
	if !ok {
		return false, nil
	}
	if !raw.Owner.Equals(e.program.ID()) {
		return true, errors.ErrInvalidAccountData.WithDetails(map[string]any{
			"account": addr.String(),
			"owner":   raw.Owner.String(),
		})
	}
	return true, state.Decode(raw.Data, r)
}

// save stores a program-owned record.
func (e *execution) save(addr solana.PublicKey, r state.Record) error {
	data, err := state.Encode(r)
	if err != nil {
		return err
	}
	acc, ok := e.tx.Get(addr)
	if !ok {
		acc = &ledger.Account{Owner: e.program.ID()}
	}
	acc.Data = data
	e.tx.Set(addr, acc)
	return nil
}

// globalState loads the initialized GlobalState.
func (e *execution) globalState() (*state.GlobalState, error) {
	var gs state.GlobalState
	ok, err := e.load(e.program.book.State.Address, &gs)
	if err != nil {
		return nil, err
	}
	if !ok || !gs.IsInitialized {
		return nil, errors.ErrNotInitialized
	}
	return &gs, nil
}

func (e *execution) saveGlobalState(gs *state.GlobalState) error {
	return e.save(e.program.book.State.Address, gs)
}

// adminState pops an optional trailing adminState account from the
// remaining accounts. It returns nil when none was passed or the admin
// program is not initialized.
func (e *execution) adminState() (*state.AdminAccessState, error) {
	if !e.def.Has(AcceptsAdminState) || len(e.remaining) == 0 {
		return nil, nil
	}
	last := e.remaining[len(e.remaining)-1]
	if !last.PublicKey.Equals(e.program.book.Admin.Address) {
		return nil, nil
	}
	e.remaining = e.remaining[:len(e.remaining)-1]

	var a state.AdminAccessState
	ok, err := e.load(last.PublicKey, &a)
	if err != nil {
		return nil, err
	}
	if !ok || !a.IsInitialized {
		return nil, nil
	}
	return &a, nil
}

// tokenAccount loads an SPL token account and checks its mint and, when
// owner is non-zero, its owner.
// holdingAccount loads owner's associated token account for mint. Lottery
// holdings are only read from the associated account.
func (e *execution) holdingAccount(addr, mint, owner solana.PublicKey) (*token.Account, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return nil, err
	}
	if !addr.Equals(ata) {
		return nil, errors.ErrInvalidDerivedAddress.WithDetails(map[string]any{
			"account":  "userTokenAccount",
			"expected": ata.String(),
			"got":      addr.String(),
		})
	}
	return e.tokenAccount(addr, mint, owner)
}

func (e *execution) tokenAccount(addr, mint, owner solana.PublicKey) (*token.Account, error) {
	acc, err := e.bank.Account(addr)
	if err != nil {
		return nil, err
	}
	if !acc.Mint.Equals(mint) {
		return nil, errors.ErrInvalidAccountData.WithDetails(map[string]any{
			"account": addr.String(),
			"reason":  "mint mismatch",
		})
	}
	if !owner.IsZero() && !acc.Owner.Equals(owner) {
		return nil, errors.ErrUnauthorized
	}
	return acc, nil
}
