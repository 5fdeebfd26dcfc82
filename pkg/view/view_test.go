package view

import (
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"

	"github.com/lugondev/go-soflotto/pkg/discriminator"
)

func createGlobalStateBuffer() []byte {
	buf := make([]byte, 200)
	copy(buf[0:8], globalStateDisc[:])

	authority := solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	copy(buf[8:40], authority[:])
	buf[40] = 1
	buf[41] = 1
	buf[42] = 1
	buf[43] = 0
	copy(buf[45:77], solana.SolMint[:])
	binary.LittleEndian.PutUint64(buf[101:109], 5000)
	binary.LittleEndian.PutUint64(buf[109:117], 3)
	return buf
}

func TestGlobalStateView(t *testing.T) {
	v, err := NewGlobalStateView(createGlobalStateBuffer())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if v.Authority().String() != "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA" {
		t.Errorf("unexpected authority %s", v.Authority())
	}
	if !v.IsInitialized() || !v.IsEmergencyPaused() {
		t.Error("expected initialized and paused flags")
	}
	if v.DrawPhase() != 1 {
		t.Errorf("expected draw phase 1, got %d", v.DrawPhase())
	}
	if v.PoolsBootstrapped() {
		t.Error("expected pools not bootstrapped")
	}
	if !v.TokenMint().Equals(solana.SolMint) {
		t.Errorf("unexpected mint %s", v.TokenMint())
	}
	if v.JackpotAmount() != 5000 {
		t.Errorf("expected jackpot 5000, got %d", v.JackpotAmount())
	}
	if v.CurrentRound() != 3 {
		t.Errorf("expected round 3, got %d", v.CurrentRound())
	}
}

func TestGlobalStateViewRejectsBadInput(t *testing.T) {
	if _, err := NewGlobalStateView(make([]byte, 10)); err != ErrInvalidBuffer {
		t.Errorf("expected ErrInvalidBuffer, got %v", err)
	}
	buf := createGlobalStateBuffer()
	buf[0] ^= 0xff
	if _, err := NewGlobalStateView(buf); err != ErrInvalidAccountData {
		t.Errorf("expected ErrInvalidAccountData, got %v", err)
	}
}

func TestAdminStateView(t *testing.T) {
	buf := make([]byte, 64)
	copy(buf[0:8], adminStateDisc[:])
	master := solana.NewWallet().PublicKey()
	copy(buf[8:40], master[:])
	buf[40] = 1
	buf[41] = 1

	v, err := NewAdminStateView(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.MasterAdmin().Equals(master) {
		t.Error("master admin mismatch")
	}
	if !v.IsPaused() || !v.IsInitialized() {
		t.Error("expected paused and initialized")
	}

	if _, err := NewAdminStateView(createGlobalStateBuffer()); err != ErrInvalidAccountData {
		t.Errorf("expected ErrInvalidAccountData, got %v", err)
	}
}

func TestInstructionView(t *testing.T) {
	disc := discriminator.Instruction("buyTokens")
	data := append(disc.Bytes(), 1, 2, 3)

	v, err := NewInstructionView(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Discriminator() != disc {
		t.Error("discriminator mismatch")
	}
	if len(v.Args()) != 3 {
		t.Errorf("expected 3 arg bytes, got %d", len(v.Args()))
	}
	if len(v.FullData()) != 11 {
		t.Errorf("expected 11 bytes, got %d", len(v.FullData()))
	}

	if _, err := NewInstructionView([]byte{1, 2}); err != ErrInvalidBuffer {
		t.Errorf("expected ErrInvalidBuffer, got %v", err)
	}
}
