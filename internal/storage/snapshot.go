package storage

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/lugondev/go-soflotto/internal/ledger"
)

const defaultSnapshotBatch = 200

// PersistLedger writes every ledger account to repo in batches and returns
// the number of accounts written.
func PersistLedger(ctx context.Context, repo Repository, l *ledger.Ledger, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = defaultSnapshotBatch
	}
	slot := l.Slot()
	snapshot := l.Snapshot()

	batch := make([]*AccountModel, 0, batchSize)
	written := 0
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := repo.Accounts().SaveBatch(ctx, batch); err != nil {
			return fmt.Errorf("failed to save account snapshot batch: %w", err)
		}
		written += len(batch)
		batch = batch[:0]
		return nil
	}

	for _, c := range snapshot {
		batch = append(batch, AccountToModel(c, slot))
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return written, err
			}
		}
	}
	if err := flush(); err != nil {
		return written, err
	}
	return written, nil
}

// HydrateLedger loads every stored account snapshot into l.
func HydrateLedger(ctx context.Context, repo Repository, l *ledger.Ledger, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = defaultSnapshotBatch
	}
	loaded := 0
	for offset := 0; ; offset += batchSize {
		models, err := repo.Accounts().FindAll(ctx, batchSize, offset)
		if err != nil {
			return loaded, fmt.Errorf("failed to load account snapshots: %w", err)
		}
		for _, m := range models {
			pubkey, acc, err := ModelToAccount(m)
			if err != nil {
				return loaded, err
			}
			l.Put(pubkey, acc)
			loaded++
		}
		if len(models) < batchSize {
			return loaded, nil
		}
	}
}

// ModelToAccount converts a snapshot back into a ledger account.
func ModelToAccount(m *AccountModel) (solana.PublicKey, *ledger.Account, error) {
	pubkey, err := solana.PublicKeyFromBase58(m.Pubkey)
	if err != nil {
		return solana.PublicKey{}, nil, fmt.Errorf("invalid account pubkey %q: %w", m.Pubkey, err)
	}
	owner, err := solana.PublicKeyFromBase58(m.Owner)
	if err != nil {
		return solana.PublicKey{}, nil, fmt.Errorf("invalid owner of %s: %w", m.Pubkey, err)
	}
	return pubkey, &ledger.Account{
		Owner:      owner,
		Lamports:   m.Lamports,
		Data:       m.Data,
		Executable: m.Executable,
	}, nil
}
