// Package state defines the persisted account records of the program.
//
// Each record is a fixed-size borsh struct stored behind an 8-byte account
// discriminator. No record holds a variable-length collection, so the encoded
// size of every record type is constant. Flags read on every instruction sit
// directly after the first public key so pkg/view can read them in place.
package state

import (
	"github.com/gagliardetto/solana-go"
)

// MaxAdmins bounds the admin set.
const MaxAdmins = 10

// RunnerUpCount is the number of runner-up winners per draw.
const RunnerUpCount = 3

// DrawPhase is the lottery round state machine position. A round is
// Accumulating until a draw commitment is recorded, Drawing until the reveal
// settles it, then the next round starts Accumulating again.
type DrawPhase uint8

const (
	PhaseAccumulating DrawPhase = iota
	PhaseDrawing
)

func (p DrawPhase) String() string {
	switch p {
	case PhaseAccumulating:
		return "accumulating"
	case PhaseDrawing:
		return "drawing"
	default:
		return "unknown"
	}
}

type PoolType uint8

const (
	PoolBank PoolType = iota
	PoolLocked
)

func (p PoolType) String() string {
	if p == PoolLocked {
		return "locked"
	}
	return "bank"
}

// GlobalState is the deployment singleton.
type GlobalState struct {
	Authority         solana.PublicKey
	IsInitialized     bool
	IsEmergencyPaused bool
	DrawPhase         DrawPhase
	PoolsBootstrapped bool
	Bump              uint8

	TokenMint    solana.PublicKey
	TotalSupply  uint64
	BurnedTokens uint64

	BuyTaxBps   uint16
	SellTaxBps  uint16
	BankLpBps   uint16
	LockedLpBps uint16

	JackpotAmount    uint64
	CurrentRound     uint64
	TotalEntries     uint64
	Participants     uint64
	RewardsPoolTotal uint64

	DrawCommitment [32]byte
	DrawCommitSlot uint64
	DrawTargetSlot uint64
	// EntryEntropy is a running hash of accepted lottery entries.
	EntryEntropy [32]byte

	PendingLpFees          uint64
	TotalLpFeesCollected   uint64
	LastLpSync             int64
	TotalLiquidityProvided uint64
	LpParticipants         uint64
	TotalTaxCollected      uint64
}

func (*GlobalState) AccountName() string { return "GlobalState" }

// UserState tracks a holder's lottery entries for the current round.
type UserState struct {
	User             solana.PublicKey
	Round            uint64
	Entries          uint64
	Tier             uint8
	TotalContributed uint64
	Bump             uint8
}

func (*UserState) AccountName() string { return "UserState" }

// LiquidityPool is the bookkeeping record of one of the two pools.
type LiquidityPool struct {
	PoolType      PoolType
	IsActive      bool
	IsRenounced   bool
	Bump          uint8
	SolAccount    solana.PublicKey
	TokenAccount  solana.PublicKey
	SolBalance    uint64
	TokenBalance  uint64
	FeesCollected uint64
}

func (*LiquidityPool) AccountName() string { return "LiquidityPool" }

// AdminAccessState holds the master admin and the bounded admin set.
// Admins[:AdminCount] are the members; the remaining slots are zero.
type AdminAccessState struct {
	MasterAdmin   solana.PublicKey
	IsPaused      bool
	IsInitialized bool
	Bump          uint8
	AdminCount    uint8
	Admins        [MaxAdmins]solana.PublicKey
}

func (*AdminAccessState) AccountName() string { return "AdminAccessState" }

// Members returns the registered admins, excluding the master.
func (a *AdminAccessState) Members() []solana.PublicKey {
	n := int(a.AdminCount)
	if n > MaxAdmins {
		n = MaxAdmins
	}
	out := make([]solana.PublicKey, n)
	copy(out, a.Admins[:n])
	return out
}

// IsAdmin reports whether key is the master or a registered admin.
func (a *AdminAccessState) IsAdmin(key solana.PublicKey) bool {
	if !a.IsInitialized {
		return false
	}
	if a.MasterAdmin.Equals(key) {
		return true
	}
	return a.IndexOf(key) >= 0
}

// IndexOf returns the slot of key in the admin set, or -1.
func (a *AdminAccessState) IndexOf(key solana.PublicKey) int {
	for i := 0; i < int(a.AdminCount) && i < MaxAdmins; i++ {
		if a.Admins[i].Equals(key) {
			return i
		}
	}
	return -1
}

// DrawResult is the immutable record of a settled round.
type DrawResult struct {
	DrawID         uint64
	Winner         solana.PublicKey
	RandomNumber   uint64
	TotalEntries   uint64
	Payout         uint64
	RunnerUps      [RunnerUpCount]solana.PublicKey
	RunnerUpCount  uint8
	RunnerUpPayout uint64
	RewardsPayout  uint64
	CarryOver      uint64
	Seed           [32]byte
	EntryEntropy   [32]byte
	TargetSlot     uint64
	Blockhash      [32]byte
	Timestamp      int64
	Verified       bool
	Bump           uint8
}

func (*DrawResult) AccountName() string { return "DrawResult" }
