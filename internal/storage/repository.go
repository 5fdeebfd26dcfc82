package storage

import (
	"context"
)

// AccountRepository stores snapshots of committed ledger accounts.
type AccountRepository interface {
	Save(ctx context.Context, account *AccountModel) error
	SaveBatch(ctx context.Context, accounts []*AccountModel) error
	FindByPubkey(ctx context.Context, pubkey string) (*AccountModel, error)
	FindByOwner(ctx context.Context, owner string, limit int, offset int) ([]*AccountModel, error)
	// FindAll pages through every snapshot ordered by pubkey.
	FindAll(ctx context.Context, limit int, offset int) ([]*AccountModel, error)
	Delete(ctx context.Context, pubkey string) error
}

// InstructionRepository is the journal of executed instructions.
type InstructionRepository interface {
	Save(ctx context.Context, instruction *InstructionModel) error
	SaveBatch(ctx context.Context, instructions []*InstructionModel) error
	FindByID(ctx context.Context, id string) (*InstructionModel, error)
	FindBySignature(ctx context.Context, signature string) ([]*InstructionModel, error)
	FindByInstruction(ctx context.Context, name string, limit int, offset int) ([]*InstructionModel, error)
	FindRecent(ctx context.Context, limit int) ([]*InstructionModel, error)
}

type EventRepository interface {
	SaveBatch(ctx context.Context, events []*EventModel) error
	FindByReceipt(ctx context.Context, receiptID string) ([]*EventModel, error)
	FindByEventName(ctx context.Context, eventName string, limit int, offset int) ([]*EventModel, error)
	FindBySlot(ctx context.Context, slot uint64, limit int, offset int) ([]*EventModel, error)
}

// DrawRepository stores settled lottery draws keyed by round.
type DrawRepository interface {
	Save(ctx context.Context, draw *DrawModel) error
	FindByRound(ctx context.Context, round uint64) (*DrawModel, error)
	FindByWinner(ctx context.Context, winner string, limit int, offset int) ([]*DrawModel, error)
	FindRecent(ctx context.Context, limit int) ([]*DrawModel, error)
}

type Repository interface {
	Accounts() AccountRepository
	Instructions() InstructionRepository
	Events() EventRepository
	Draws() DrawRepository
	Close() error
	Ping(ctx context.Context) error
}
