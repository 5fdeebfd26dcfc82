// Package ledger is the in-memory account store the program executes against.
//
// A Ledger serializes transactions: Execute holds the ledger lock for the
// whole call, hands the callback a Txn that copies accounts on first read and
// commits the write set only when the callback returns nil. A failed
// transaction leaves no trace in the account table, though it still consumes
// a slot.
package ledger

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"sort"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/jonboulle/clockwork"

	"github.com/lugondev/go-soflotto/internal/common"
)

// recentBlockhashes is how many slots of blockhash history are retained.
const recentBlockhashes = 300

// Account is a stored account.
type Account struct {
	Owner      solana.PublicKey
	Lamports   uint64
	Data       []byte
	Executable bool
}

// Clone returns a deep copy.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	c := *a
	c.Data = append([]byte(nil), a.Data...)
	return &c
}

// Sysvars is the clock visible to a transaction.
type Sysvars struct {
	Slot          uint64
	UnixTimestamp int64
	Blockhash     solana.Hash
}

// Change is a committed account write.
type Change struct {
	Pubkey  solana.PublicKey
	Account *Account
}

type Ledger struct {
	common.LoggerMixin

	mu          sync.Mutex
	clock       clockwork.Clock
	accounts    map[solana.PublicKey]*Account
	slot        uint64
	blockhashes map[uint64]solana.Hash
	lastDigest  [32]byte
	// entropy is mixed into every blockhash so a slot's hash cannot be
	// computed before the slot is produced.
	entropy [32]byte
}

// New creates an empty ledger at slot 0 with a genesis blockhash.
func New(clock clockwork.Clock) *Ledger {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	l := &Ledger{
		LoggerMixin: common.NewLoggerMixin(),
		clock:       clock,
		accounts:    make(map[solana.PublicKey]*Account),
		blockhashes: make(map[uint64]solana.Hash),
	}
	if _, err := rand.Read(l.entropy[:]); err != nil {
		panic("ledger: reading entropy: " + err.Error())
	}
	l.blockhashes[0] = solana.Hash(sha256.Sum256([]byte("soflotto:genesis")))
	return l
}

// Slot returns the slot of the last executed transaction.
func (l *Ledger) Slot() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.slot
}

// Blockhash returns the blockhash of a retained slot.
func (l *Ledger) Blockhash(slot uint64) (solana.Hash, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	h, ok := l.blockhashes[slot]
	return h, ok
}

// LatestBlockhash returns the blockhash of the current slot.
func (l *Ledger) LatestBlockhash() solana.Hash {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.blockhashes[l.slot]
}

// Get returns a copy of an account.
func (l *Ledger) Get(pubkey solana.PublicKey) (*Account, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	acc, ok := l.accounts[pubkey]
	return acc.Clone(), ok
}

// Put stores an account outside of any transaction. It is meant for genesis
// seeding and for hydrating from persistent storage.
func (l *Ledger) Put(pubkey solana.PublicKey, acc *Account) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.accounts[pubkey] = acc.Clone()
}

// Len returns the number of stored accounts.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.accounts)
}

// Snapshot returns copies of all accounts ordered by address.
func (l *Ledger) Snapshot() []Change {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Change, 0, len(l.accounts))
	for k, v := range l.accounts {
		out = append(out, Change{Pubkey: k, Account: v.Clone()})
	}
	sortChanges(out)
	return out
}

// AdvanceSlots moves the clock forward without executing anything.
func (l *Ledger) AdvanceSlots(n uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := uint64(0); i < n; i++ {
		l.nextSlotLocked()
	}
}

func (l *Ledger) nextSlotLocked() {
	prev := l.blockhashes[l.slot]
	l.slot++

	h := sha256.New()
	h.Write(prev[:])
	var slotBuf [8]byte
	binary.LittleEndian.PutUint64(slotBuf[:], l.slot)
	h.Write(slotBuf[:])
	h.Write(l.lastDigest[:])
	h.Write(l.entropy[:])
	var next solana.Hash
	copy(next[:], h.Sum(nil))
	l.blockhashes[l.slot] = next

	if l.slot >= recentBlockhashes {
		delete(l.blockhashes, l.slot-recentBlockhashes)
	}
}

// Execute runs fn as one atomic transaction in a fresh slot and returns the
// committed changes. If fn fails nothing is written.
func (l *Ledger) Execute(ctx context.Context, fn func(tx *Txn) error) ([]Change, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextSlotLocked()
	tx := &Txn{
		ledger: l,
		writes: make(map[solana.PublicKey]*Account),
		sysvars: Sysvars{
			Slot:          l.slot,
			UnixTimestamp: l.clock.Now().Unix(),
			Blockhash:     l.blockhashes[l.slot],
		},
	}

	if err := fn(tx); err != nil {
		l.GetLogger().Debug("transaction rolled back", "slot", l.slot, "error", err)
		return nil, err
	}

	changes := tx.changes()
	digest := sha256.New()
	for _, c := range changes {
		l.accounts[c.Pubkey] = c.Account.Clone()
		digest.Write(c.Pubkey[:])
		digest.Write(c.Account.Data)
	}
	copy(l.lastDigest[:], digest.Sum(nil))

	l.GetLogger().Debug("transaction committed", "slot", l.slot, "writes", len(changes))
	return changes, nil
}

func sortChanges(c []Change) {
	sort.Slice(c, func(i, j int) bool {
		return string(c[i].Pubkey[:]) < string(c[j].Pubkey[:])
	})
}
