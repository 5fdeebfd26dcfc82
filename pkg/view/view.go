// Package view reads hot fields of program accounts in place, without
// decoding the whole record. The dispatcher uses it to gate instructions on
// the initialized and paused flags before any handler runs.
package view

import (
	"encoding/binary"
	"errors"
	"unsafe"

	"github.com/gagliardetto/solana-go"

	"github.com/lugondev/go-soflotto/pkg/discriminator"
)

var (
	ErrInvalidBuffer      = errors.New("invalid buffer size")
	ErrInvalidAccountData = errors.New("invalid account data")
)

var (
	globalStateDisc = discriminator.Account("GlobalState")
	adminStateDisc  = discriminator.Account("AdminAccessState")
)

// GlobalState field offsets.
const (
	gsAuthority         = 8
	gsIsInitialized     = 40
	gsIsEmergencyPaused = 41
	gsDrawPhase         = 42
	gsPoolsBootstrapped = 43
	gsTokenMint         = 45
	gsJackpotAmount     = 101
	gsCurrentRound      = 109
	gsMinLen            = 117
)

type GlobalStateView struct {
	buffer []byte
}

func NewGlobalStateView(buffer []byte) (*GlobalStateView, error) {
	if len(buffer) < gsMinLen {
		return nil, ErrInvalidBuffer
	}
	if *(*discriminator.Discriminator)(unsafe.Pointer(&buffer[0])) != globalStateDisc {
		return nil, ErrInvalidAccountData
	}
	return &GlobalStateView{buffer: buffer}, nil
}

func (v *GlobalStateView) Authority() solana.PublicKey {
	return *(*solana.PublicKey)(unsafe.Pointer(&v.buffer[gsAuthority]))
}

func (v *GlobalStateView) IsInitialized() bool {
	return v.buffer[gsIsInitialized] != 0
}

func (v *GlobalStateView) IsEmergencyPaused() bool {
	return v.buffer[gsIsEmergencyPaused] != 0
}

func (v *GlobalStateView) DrawPhase() uint8 {
	return v.buffer[gsDrawPhase]
}

func (v *GlobalStateView) PoolsBootstrapped() bool {
	return v.buffer[gsPoolsBootstrapped] != 0
}

func (v *GlobalStateView) TokenMint() solana.PublicKey {
	return *(*solana.PublicKey)(unsafe.Pointer(&v.buffer[gsTokenMint]))
}

func (v *GlobalStateView) JackpotAmount() uint64 {
	return binary.LittleEndian.Uint64(v.buffer[gsJackpotAmount : gsJackpotAmount+8])
}

func (v *GlobalStateView) CurrentRound() uint64 {
	return binary.LittleEndian.Uint64(v.buffer[gsCurrentRound : gsCurrentRound+8])
}

// AdminAccessState field offsets.
const (
	asMasterAdmin   = 8
	asIsPaused      = 40
	asIsInitialized = 41
	asMinLen        = 42
)

type AdminStateView struct {
	buffer []byte
}

func NewAdminStateView(buffer []byte) (*AdminStateView, error) {
	if len(buffer) < asMinLen {
		return nil, ErrInvalidBuffer
	}
	if *(*discriminator.Discriminator)(unsafe.Pointer(&buffer[0])) != adminStateDisc {
		return nil, ErrInvalidAccountData
	}
	return &AdminStateView{buffer: buffer}, nil
}

func (v *AdminStateView) MasterAdmin() solana.PublicKey {
	return *(*solana.PublicKey)(unsafe.Pointer(&v.buffer[asMasterAdmin]))
}

func (v *AdminStateView) IsPaused() bool {
	return v.buffer[asIsPaused] != 0
}

func (v *AdminStateView) IsInitialized() bool {
	return v.buffer[asIsInitialized] != 0
}

// InstructionView splits instruction data into discriminator and arguments.
type InstructionView struct {
	buffer        []byte
	discriminator discriminator.Discriminator
}

func NewInstructionView(buffer []byte) (*InstructionView, error) {
	disc, ok := discriminator.FromBytes(buffer)
	if !ok {
		return nil, ErrInvalidBuffer
	}
	return &InstructionView{
		buffer:        buffer,
		discriminator: disc,
	}, nil
}

func (v *InstructionView) Discriminator() discriminator.Discriminator {
	return v.discriminator
}

func (v *InstructionView) Args() []byte {
	return v.buffer[discriminator.Size:]
}

func (v *InstructionView) FullData() []byte {
	return v.buffer
}
