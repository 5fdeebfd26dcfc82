package receipt

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/lugondev/go-soflotto/pkg/discriminator"
)

// Event is a typed program event. Events are serialized like anchor events:
// an 8-byte event discriminator followed by the borsh body.
type Event interface {
	EventName() string
}

type Initialized struct {
	Authority   solana.PublicKey
	TokenMint   solana.PublicKey
	TotalSupply uint64
}

type BuyExecuted struct {
	User         solana.PublicKey
	SolIn        uint64
	Gross        uint64
	Tax          uint64
	Burn         uint64
	Net          uint64
	LpShare      uint64
	JackpotShare uint64
}

type SellExecuted struct {
	User         solana.PublicKey
	TokensIn     uint64
	Tax          uint64
	Burn         uint64
	Net          uint64
	SolOut       uint64
	LpShare      uint64
	JackpotShare uint64
}

type TokensBurned struct {
	User        solana.PublicKey
	Amount      uint64
	BurnedTotal uint64
}

type PoolsBootstrapped struct {
	SolPerPool    uint64
	TokensPerPool uint64
}

type LiquidityAdded struct {
	Provider    solana.PublicKey
	PoolType    uint8
	TokenAmount uint64
	SolAmount   uint64
}

type LpSynced struct {
	Bank      uint64
	Locked    uint64
	Timestamp int64
}

type LotteryEntered struct {
	User         solana.PublicKey
	Round        uint64
	Tier         uint8
	Entries      uint64
	HoldingUSD   string
	TotalEntries uint64
}

type DrawCommitted struct {
	Round      uint64
	Commitment [32]byte
	Slot       uint64
	TargetSlot uint64
}

type DrawSettled struct {
	Round          uint64
	Winner         solana.PublicKey
	RandomNumber   uint64
	TotalEntries   uint64
	Payout         uint64
	RunnerUps      [3]solana.PublicKey
	RunnerUpCount  uint8
	RunnerUpPayout uint64
	RewardsPayout  uint64
	CarryOver      uint64
}

type DrawCancelled struct {
	Round uint64
}

type TaxRatesUpdated struct {
	BuyTaxBps  uint16
	SellTaxBps uint16
}

type LpSplitUpdated struct {
	BankLpBps   uint16
	LockedLpBps uint16
}

type EmergencyPauseSet struct {
	Paused bool
	By     solana.PublicKey
}

type AuthorityTransferred struct {
	Previous solana.PublicKey
	Next     solana.PublicKey
}

type AdminInitialized struct {
	Master solana.PublicKey
}

type AdminAdded struct {
	Admin solana.PublicKey
}

type AdminRemoved struct {
	Admin solana.PublicKey
}

type MasterTransferred struct {
	Previous solana.PublicKey
	Next     solana.PublicKey
}

type AdminPauseSet struct {
	Paused bool
}

// IsAdminResult carries the answer of the read-only isAdmin instruction.
type IsAdminResult struct {
	Pubkey  solana.PublicKey
	IsAdmin bool
}

func (Initialized) EventName() string          { return "Initialized" }
func (BuyExecuted) EventName() string          { return "BuyExecuted" }
func (SellExecuted) EventName() string         { return "SellExecuted" }
func (TokensBurned) EventName() string         { return "TokensBurned" }
func (PoolsBootstrapped) EventName() string    { return "PoolsBootstrapped" }
func (LiquidityAdded) EventName() string       { return "LiquidityAdded" }
func (LpSynced) EventName() string             { return "LpSynced" }
func (LotteryEntered) EventName() string       { return "LotteryEntered" }
func (DrawCommitted) EventName() string        { return "DrawCommitted" }
func (DrawSettled) EventName() string          { return "DrawSettled" }
func (DrawCancelled) EventName() string        { return "DrawCancelled" }
func (TaxRatesUpdated) EventName() string      { return "TaxRatesUpdated" }
func (LpSplitUpdated) EventName() string       { return "LpSplitUpdated" }
func (EmergencyPauseSet) EventName() string    { return "EmergencyPauseSet" }
func (AuthorityTransferred) EventName() string { return "AuthorityTransferred" }
func (AdminInitialized) EventName() string     { return "AdminInitialized" }
func (AdminAdded) EventName() string           { return "AdminAdded" }
func (AdminRemoved) EventName() string         { return "AdminRemoved" }
func (MasterTransferred) EventName() string    { return "MasterTransferred" }
func (AdminPauseSet) EventName() string        { return "AdminPauseSet" }
func (IsAdminResult) EventName() string        { return "IsAdminResult" }

// factories builds a zero event per name. Append only.
var factories = map[string]func() Event{
	"Initialized":          func() Event { return &Initialized{} },
	"BuyExecuted":          func() Event { return &BuyExecuted{} },
	"SellExecuted":         func() Event { return &SellExecuted{} },
	"TokensBurned":         func() Event { return &TokensBurned{} },
	"PoolsBootstrapped":    func() Event { return &PoolsBootstrapped{} },
	"LiquidityAdded":       func() Event { return &LiquidityAdded{} },
	"LpSynced":             func() Event { return &LpSynced{} },
	"LotteryEntered":       func() Event { return &LotteryEntered{} },
	"DrawCommitted":        func() Event { return &DrawCommitted{} },
	"DrawSettled":          func() Event { return &DrawSettled{} },
	"DrawCancelled":        func() Event { return &DrawCancelled{} },
	"TaxRatesUpdated":      func() Event { return &TaxRatesUpdated{} },
	"LpSplitUpdated":       func() Event { return &LpSplitUpdated{} },
	"EmergencyPauseSet":    func() Event { return &EmergencyPauseSet{} },
	"AuthorityTransferred": func() Event { return &AuthorityTransferred{} },
	"AdminInitialized":     func() Event { return &AdminInitialized{} },
	"AdminAdded":           func() Event { return &AdminAdded{} },
	"AdminRemoved":         func() Event { return &AdminRemoved{} },
	"MasterTransferred":    func() Event { return &MasterTransferred{} },
	"AdminPauseSet":        func() Event { return &AdminPauseSet{} },
	"IsAdminResult":        func() Event { return &IsAdminResult{} },
}

// EventNames lists every known event name.
func EventNames() []string {
	out := make([]string, 0, len(factories))
	for name := range factories {
		out = append(out, name)
	}
	return out
}

// NewEvent returns a zero value of the named event.
func NewEvent(name string) (Event, bool) {
	f, ok := factories[name]
	if !ok {
		return nil, false
	}
	return f(), true
}

// EncodeEvent serializes e behind its event discriminator.
func EncodeEvent(e Event) ([]byte, error) {
	body, err := bin.MarshalBorsh(e)
	if err != nil {
		return nil, fmt.Errorf("encode event %s: %w", e.EventName(), err)
	}
	disc := discriminator.Event(e.EventName())
	return append(disc.Bytes(), body...), nil
}

// DecodeEventAs decodes data as the named event.
func DecodeEventAs(name string, data []byte) (Event, error) {
	e, ok := NewEvent(name)
	if !ok {
		return nil, fmt.Errorf("unknown event %q", name)
	}
	if len(data) < discriminator.Size {
		return nil, fmt.Errorf("event %s: data too short", name)
	}
	if err := bin.UnmarshalBorsh(e, data[discriminator.Size:]); err != nil {
		return nil, fmt.Errorf("decode event %s: %w", name, err)
	}
	return e, nil
}
