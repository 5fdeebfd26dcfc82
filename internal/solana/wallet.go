package solana

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"os"

	"github.com/gagliardetto/solana-go"
)

// Wallet represents a Solana wallet
type Wallet struct {
	privateKey solana.PrivateKey
}

// NewWallet generates a new random wallet
func NewWallet() *Wallet {
	account := solana.NewWallet()
	return &Wallet{
		privateKey: account.PrivateKey,
	}
}

// WalletFromBase58 creates a wallet from a base58-encoded private key
func WalletFromBase58(key string) (*Wallet, error) {
	pk, err := solana.PrivateKeyFromBase58(key)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return &Wallet{privateKey: pk}, nil
}

// WalletFromFile loads a wallet from a JSON keypair file (Solana CLI format:
// an array of 64 byte values).
func WalletFromFile(path string) (*Wallet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keypair file: %w", err)
	}

	var values []uint16
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to parse keypair: %w", err)
	}
	if len(values) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("invalid keypair size: expected %d, got %d", ed25519.PrivateKeySize, len(values))
	}

	keypair := make([]byte, len(values))
	for i, v := range values {
		if v > 0xff {
			return nil, fmt.Errorf("invalid keypair byte %d at index %d", v, i)
		}
		keypair[i] = byte(v)
	}
	pk := solana.PrivateKey(keypair)
	if !pk.PublicKey().Equals(solana.PublicKeyFromBytes(keypair[32:])) {
		return nil, fmt.Errorf("keypair public half does not match its secret")
	}
	return &Wallet{privateKey: pk}, nil
}

// PublicKey returns the wallet's public key
func (w *Wallet) PublicKey() solana.PublicKey {
	return w.privateKey.PublicKey()
}

// PrivateKey returns the wallet's private key
func (w *Wallet) PrivateKey() solana.PrivateKey {
	return w.privateKey
}

// Signer returns the key for tx.Sign when key is this wallet.
func (w *Wallet) Signer(key solana.PublicKey) *solana.PrivateKey {
	if key.Equals(w.PublicKey()) {
		return &w.privateKey
	}
	return nil
}

// SaveToFile saves the keypair to a JSON file (Solana CLI format)
func (w *Wallet) SaveToFile(path string) error {
	values := make([]uint16, len(w.privateKey))
	for i, b := range w.privateKey {
		values[i] = uint16(b)
	}
	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to marshal keypair: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write keypair file: %w", err)
	}

	return nil
}

// String returns the public key as a string
func (w *Wallet) String() string {
	return w.PublicKey().String()
}
