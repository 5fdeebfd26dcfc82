package storage

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepository keeps everything in process. It backs tests and
// simulations that run without a database.
type MemoryRepository struct {
	mu           sync.RWMutex
	accounts     map[string]*AccountModel
	instructions []*InstructionModel
	events       []*EventModel
	draws        map[uint64]*DrawModel
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		accounts: make(map[string]*AccountModel),
		draws:    make(map[uint64]*DrawModel),
	}
}

func (r *MemoryRepository) Accounts() AccountRepository         { return memoryAccounts{r} }
func (r *MemoryRepository) Instructions() InstructionRepository { return memoryInstructions{r} }
func (r *MemoryRepository) Events() EventRepository             { return memoryEvents{r} }
func (r *MemoryRepository) Draws() DrawRepository               { return memoryDraws{r} }
func (r *MemoryRepository) Close() error                        { return nil }
func (r *MemoryRepository) Ping(ctx context.Context) error      { return ctx.Err() }

// page applies limit/offset to items. A non-positive limit returns the rest.
func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func filter[T any](items []T, keep func(T) bool) []T {
	var out []T
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}

type memoryAccounts struct{ r *MemoryRepository }

func (m memoryAccounts) Save(ctx context.Context, account *AccountModel) error {
	return m.SaveBatch(ctx, []*AccountModel{account})
}

func (m memoryAccounts) SaveBatch(ctx context.Context, accounts []*AccountModel) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	for _, a := range accounts {
		cp := *a
		if prev, ok := m.r.accounts[a.Pubkey]; ok {
			cp.CreatedAt = prev.CreatedAt
		}
		m.r.accounts[a.Pubkey] = &cp
	}
	return nil
}

func (m memoryAccounts) FindByPubkey(ctx context.Context, pubkey string) (*AccountModel, error) {
	m.r.mu.RLock()
	defer m.r.mu.RUnlock()
	a, ok := m.r.accounts[pubkey]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (m memoryAccounts) sorted() []*AccountModel {
	out := make([]*AccountModel, 0, len(m.r.accounts))
	for _, a := range m.r.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Pubkey < out[j].Pubkey })
	return out
}

func (m memoryAccounts) FindByOwner(ctx context.Context, owner string, limit int, offset int) ([]*AccountModel, error) {
	m.r.mu.RLock()
	defer m.r.mu.RUnlock()
	all := filter(m.sorted(), func(a *AccountModel) bool { return a.Owner == owner })
	return page(all, limit, offset), nil
}

func (m memoryAccounts) FindAll(ctx context.Context, limit int, offset int) ([]*AccountModel, error) {
	m.r.mu.RLock()
	defer m.r.mu.RUnlock()
	return page(m.sorted(), limit, offset), nil
}

func (m memoryAccounts) Delete(ctx context.Context, pubkey string) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	delete(m.r.accounts, pubkey)
	return nil
}

type memoryInstructions struct{ r *MemoryRepository }

func (m memoryInstructions) Save(ctx context.Context, instruction *InstructionModel) error {
	return m.SaveBatch(ctx, []*InstructionModel{instruction})
}

func (m memoryInstructions) SaveBatch(ctx context.Context, instructions []*InstructionModel) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	m.r.instructions = append(m.r.instructions, instructions...)
	return nil
}

func (m memoryInstructions) FindByID(ctx context.Context, id string) (*InstructionModel, error) {
	m.r.mu.RLock()
	defer m.r.mu.RUnlock()
	for _, in := range m.r.instructions {
		if in.ID == id {
			return in, nil
		}
	}
	return nil, nil
}

func (m memoryInstructions) FindBySignature(ctx context.Context, signature string) ([]*InstructionModel, error) {
	m.r.mu.RLock()
	defer m.r.mu.RUnlock()
	return filter(m.r.instructions, func(in *InstructionModel) bool { return in.Signature == signature }), nil
}

func (m memoryInstructions) FindByInstruction(ctx context.Context, name string, limit int, offset int) ([]*InstructionModel, error) {
	m.r.mu.RLock()
	defer m.r.mu.RUnlock()
	all := filter(m.r.instructions, func(in *InstructionModel) bool { return in.Instruction == name })
	return page(all, limit, offset), nil
}

// FindRecent returns the newest instructions first.
func (m memoryInstructions) FindRecent(ctx context.Context, limit int) ([]*InstructionModel, error) {
	m.r.mu.RLock()
	defer m.r.mu.RUnlock()
	n := len(m.r.instructions)
	out := make([]*InstructionModel, 0, n)
	for i := n - 1; i >= 0; i-- {
		out = append(out, m.r.instructions[i])
	}
	return page(out, limit, 0), nil
}

type memoryEvents struct{ r *MemoryRepository }

func (m memoryEvents) SaveBatch(ctx context.Context, events []*EventModel) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	m.r.events = append(m.r.events, events...)
	return nil
}

func (m memoryEvents) FindByReceipt(ctx context.Context, receiptID string) ([]*EventModel, error) {
	m.r.mu.RLock()
	defer m.r.mu.RUnlock()
	return filter(m.r.events, func(e *EventModel) bool { return e.ReceiptID == receiptID }), nil
}

func (m memoryEvents) FindByEventName(ctx context.Context, eventName string, limit int, offset int) ([]*EventModel, error) {
	m.r.mu.RLock()
	defer m.r.mu.RUnlock()
	return page(filter(m.r.events, func(e *EventModel) bool { return e.EventName == eventName }), limit, offset), nil
}

func (m memoryEvents) FindBySlot(ctx context.Context, slot uint64, limit int, offset int) ([]*EventModel, error) {
	m.r.mu.RLock()
	defer m.r.mu.RUnlock()
	return page(filter(m.r.events, func(e *EventModel) bool { return e.Slot == slot }), limit, offset), nil
}

type memoryDraws struct{ r *MemoryRepository }

func (m memoryDraws) Save(ctx context.Context, draw *DrawModel) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	cp := *draw
	m.r.draws[draw.Round] = &cp
	return nil
}

func (m memoryDraws) FindByRound(ctx context.Context, round uint64) (*DrawModel, error) {
	m.r.mu.RLock()
	defer m.r.mu.RUnlock()
	d, ok := m.r.draws[round]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

// byRoundDesc lists draws newest round first.
func (m memoryDraws) byRoundDesc() []*DrawModel {
	out := make([]*DrawModel, 0, len(m.r.draws))
	for _, d := range m.r.draws {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Round > out[j].Round })
	return out
}

func (m memoryDraws) FindByWinner(ctx context.Context, winner string, limit int, offset int) ([]*DrawModel, error) {
	m.r.mu.RLock()
	defer m.r.mu.RUnlock()
	return page(filter(m.byRoundDesc(), func(d *DrawModel) bool { return d.Winner == winner }), limit, offset), nil
}

func (m memoryDraws) FindRecent(ctx context.Context, limit int) ([]*DrawModel, error) {
	m.r.mu.RLock()
	defer m.r.mu.RUnlock()
	return page(m.byRoundDesc(), limit, 0), nil
}
