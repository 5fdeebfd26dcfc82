package ledger

import (
	"bytes"

	"github.com/gagliardetto/solana-go"
)

// Txn is the view of the ledger inside one transaction. Accounts are copied
// into the write set on first access so handlers can mutate them in place;
// at commit only accounts that differ from the stored version are written.
type Txn struct {
	ledger  *Ledger
	writes  map[solana.PublicKey]*Account
	sysvars Sysvars
}

func (t *Txn) Sysvars() Sysvars {
	return t.sysvars
}

// Blockhash returns the blockhash of a retained slot.
func (t *Txn) Blockhash(slot uint64) (solana.Hash, bool) {
	h, ok := t.ledger.blockhashes[slot]
	return h, ok
}

// Get returns the transaction-local copy of an account.
func (t *Txn) Get(pubkey solana.PublicKey) (*Account, bool) {
	if acc, ok := t.writes[pubkey]; ok {
		return acc, true
	}
	base, ok := t.ledger.accounts[pubkey]
	if !ok {
		return nil, false
	}
	acc := base.Clone()
	t.writes[pubkey] = acc
	return acc, true
}

// Exists reports whether the account exists in this transaction.
func (t *Txn) Exists(pubkey solana.PublicKey) bool {
	_, ok := t.Get(pubkey)
	return ok
}

// Set replaces or creates an account.
func (t *Txn) Set(pubkey solana.PublicKey, acc *Account) {
	t.writes[pubkey] = acc
}

func (t *Txn) changes() []Change {
	out := make([]Change, 0, len(t.writes))
	for k, acc := range t.writes {
		if acc == nil {
			continue
		}
		if base, ok := t.ledger.accounts[k]; ok && sameAccount(base, acc) {
			continue
		}
		out = append(out, Change{Pubkey: k, Account: acc})
	}
	sortChanges(out)
	return out
}

func sameAccount(a, b *Account) bool {
	return a.Owner == b.Owner &&
		a.Lamports == b.Lamports &&
		a.Executable == b.Executable &&
		bytes.Equal(a.Data, b.Data)
}
