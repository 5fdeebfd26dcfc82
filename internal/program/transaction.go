package program

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"github.com/lugondev/go-soflotto/internal/errors"
	"github.com/lugondev/go-soflotto/internal/receipt"
)

// ExecuteTransaction verifies the signatures of a legacy transaction and runs
// all of its instructions atomically. Signer and writable flags come from the
// message header, not from the caller.
func (p *Program) ExecuteTransaction(ctx context.Context, tx *solana.Transaction) ([]*receipt.Receipt, error) {
	if err := verifySignatures(tx); err != nil {
		return nil, err
	}
	msg := &tx.Message
	if len(msg.AddressTableLookups) > 0 {
		return nil, errors.ErrInvalidAccountData.WithDetails(map[string]any{"reason": "address table lookups are not supported"})
	}

	keys := msg.AccountKeys
	metas := make([]*solana.AccountMeta, len(keys))
	for i, k := range keys {
		metas[i] = &solana.AccountMeta{
			PublicKey:  k,
			IsSigner:   isSigner(msg, i),
			IsWritable: isWritable(msg, i),
		}
	}

	calls := make([]call, 0, len(msg.Instructions))
	for _, ci := range msg.Instructions {
		if int(ci.ProgramIDIndex) >= len(keys) {
			return nil, errors.ErrMissingAccount.WithDetails(map[string]any{"program_index": ci.ProgramIDIndex})
		}
		c := call{
			programID: keys[ci.ProgramIDIndex],
			data:      ci.Data,
			metas:     make([]*solana.AccountMeta, 0, len(ci.Accounts)),
		}
		for _, idx := range ci.Accounts {
			if int(idx) >= len(keys) {
				return nil, errors.ErrMissingAccount.WithDetails(map[string]any{"account_index": idx})
			}
			c.metas = append(c.metas, metas[idx])
		}
		calls = append(calls, c)
	}

	var sig solana.Signature
	if len(tx.Signatures) > 0 {
		sig = tx.Signatures[0]
	}
	return p.run(ctx, sig, calls)
}

func isSigner(msg *solana.Message, i int) bool {
	return i < int(msg.Header.NumRequiredSignatures)
}

func isWritable(msg *solana.Message, i int) bool {
	h := msg.Header
	signers := int(h.NumRequiredSignatures)
	if i < signers {
		return i < signers-int(h.NumReadonlySignedAccounts)
	}
	return i < len(msg.AccountKeys)-int(h.NumReadonlyUnsignedAccounts)
}

func verifySignatures(tx *solana.Transaction) error {
	n := int(tx.Message.Header.NumRequiredSignatures)
	if len(tx.Signatures) != n || len(tx.Message.AccountKeys) < n {
		return errors.ErrInvalidSignature.WithDetails(map[string]any{
			"required": n,
			"got":      len(tx.Signatures),
		})
	}
	content, err := tx.Message.MarshalBinary()
	if err != nil {
		return errors.DecodeFailed("transaction message", err)
	}
	for i := 0; i < n; i++ {
		if !tx.Signatures[i].Verify(tx.Message.AccountKeys[i], content) {
			return errors.ErrInvalidSignature.WithDetails(map[string]any{"signer": tx.Message.AccountKeys[i].String()})
		}
	}
	return nil
}
