// Package token models SPL token mints and accounts on top of the ledger.
//
// Accounts use the SPL layouts from solana-go's token program package, so a
// ledger account holding a token balance is byte-compatible with the real
// token program. SOL balances are held as wrapped SOL accounts.
package token

import (
	"bytes"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"

	"github.com/lugondev/go-soflotto/internal/errors"
	"github.com/lugondev/go-soflotto/internal/ledger"
)

// ProgramID is the SPL token program.
var ProgramID = token.ProgramID

// NativeDecimals is the decimal precision of SOL.
const NativeDecimals = 9

// Encoded sizes of the SPL layouts.
const (
	AccountSize = 165
	MintSize    = 82
)

func EncodeAccount(acc *token.Account) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := acc.MarshalWithEncoder(bin.NewBinEncoder(buf)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeAccount(data []byte) (*token.Account, error) {
	var acc token.Account
	if err := acc.UnmarshalWithDecoder(bin.NewBinDecoder(data)); err != nil {
		return nil, errors.DecodeFailed("token account", err)
	}
	return &acc, nil
}

func EncodeMint(m *token.Mint) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := m.MarshalWithEncoder(bin.NewBinEncoder(buf)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeMint(data []byte) (*token.Mint, error) {
	var m token.Mint
	if err := m.UnmarshalWithDecoder(bin.NewBinDecoder(data)); err != nil {
		return nil, errors.DecodeFailed("mint", err)
	}
	return &m, nil
}

// Bank performs token operations inside one ledger transaction.
type Bank struct {
	tx *ledger.Txn
}

func NewBank(tx *ledger.Txn) *Bank {
	return &Bank{tx: tx}
}

// Account loads a token account. It fails if the account is missing or not
// owned by the token program.
func (b *Bank) Account(pubkey solana.PublicKey) (*token.Account, error) {
	raw, ok := b.tx.Get(pubkey)
	if !ok {
		return nil, errors.ErrMissingAccount.WithDetails(map[string]any{"account": pubkey.String()})
	}
	if !raw.Owner.Equals(ProgramID) {
		return nil, errors.ErrInvalidAccountData.WithDetails(map[string]any{"account": pubkey.String(), "owner": raw.Owner.String()})
	}
	if len(raw.Data) != AccountSize {
		return nil, errors.ErrInvalidAccountData.WithDetails(map[string]any{"account": pubkey.String(), "reason": "not a token account"})
	}
	return DecodeAccount(raw.Data)
}

// Balance returns the amount held by a token account.
func (b *Bank) Balance(pubkey solana.PublicKey) (uint64, error) {
	acc, err := b.Account(pubkey)
	if err != nil {
		return 0, err
	}
	return acc.Amount, nil
}

// Mint loads a mint.
func (b *Bank) Mint(pubkey solana.PublicKey) (*token.Mint, error) {
	raw, ok := b.tx.Get(pubkey)
	if !ok {
		return nil, errors.ErrMissingAccount.WithDetails(map[string]any{"account": pubkey.String()})
	}
	if !raw.Owner.Equals(ProgramID) {
		return nil, errors.ErrInvalidAccountData.WithDetails(map[string]any{"account": pubkey.String(), "owner": raw.Owner.String()})
	}
	if len(raw.Data) != MintSize {
		return nil, errors.ErrInvalidAccountData.WithDetails(map[string]any{"account": pubkey.String(), "reason": "not a mint"})
	}
	return DecodeMint(raw.Data)
}

func (b *Bank) store(pubkey solana.PublicKey, acc *token.Account) error {
	data, err := EncodeAccount(acc)
	if err != nil {
		return err
	}
	b.write(pubkey, data)
	return nil
}

func (b *Bank) storeMint(pubkey solana.PublicKey, m *token.Mint) error {
	data, err := EncodeMint(m)
	if err != nil {
		return err
	}
	b.write(pubkey, data)
	return nil
}

// write replaces the account data and keeps the lamports it already holds.
func (b *Bank) write(pubkey solana.PublicKey, data []byte) {
	next := &ledger.Account{Owner: ProgramID, Data: data}
	if prev, ok := b.tx.Get(pubkey); ok {
		next.Lamports = prev.Lamports
	}
	b.tx.Set(pubkey, next)
}

// CreateMint creates an initialized mint.
func (b *Bank) CreateMint(pubkey solana.PublicKey, authority solana.PublicKey, decimals uint8) error {
	if b.tx.Exists(pubkey) {
		return errors.ErrAlreadyInitialized.WithDetails(map[string]any{"account": pubkey.String()})
	}
	auth := authority
	return b.storeMint(pubkey, &token.Mint{
		MintAuthority: &auth,
		Decimals:      decimals,
		IsInitialized: true,
	})
}

// CreateAccount creates an empty token account for mint owned by owner.
func (b *Bank) CreateAccount(pubkey, mint, owner solana.PublicKey) error {
	if b.tx.Exists(pubkey) {
		return errors.ErrAlreadyInitialized.WithDetails(map[string]any{"account": pubkey.String()})
	}
	acc := &token.Account{
		Mint:  mint,
		Owner: owner,
		State: token.Initialized,
	}
	if mint.Equals(solana.SolMint) {
		rent := uint64(0)
		acc.IsNative = &rent
	}
	return b.store(pubkey, acc)
}

// MintTo creates new supply into an account.
func (b *Bank) MintTo(mint, to, authority solana.PublicKey, amount uint64) error {
	m, err := b.Mint(mint)
	if err != nil {
		return err
	}
	if m.MintAuthority == nil || !m.MintAuthority.Equals(authority) {
		return errors.ErrUnauthorized
	}
	dst, err := b.Account(to)
	if err != nil {
		return err
	}
	if !dst.Mint.Equals(mint) {
		return errors.ErrInvalidAccountData.WithDetails(map[string]any{"account": to.String(), "reason": "mint mismatch"})
	}
	if m.Supply+amount < m.Supply || dst.Amount+amount < dst.Amount {
		return errors.ErrArithmeticOverflow
	}
	m.Supply += amount
	dst.Amount += amount
	if err := b.storeMint(mint, m); err != nil {
		return err
	}
	return b.store(to, dst)
}

// Transfer moves amount between two accounts of the same mint. authority
// must own the source account.
func (b *Bank) Transfer(from, to, authority solana.PublicKey, amount uint64) error {
	if amount == 0 {
		return nil
	}
	src, err := b.Account(from)
	if err != nil {
		return err
	}
	if !src.Owner.Equals(authority) {
		return errors.ErrUnauthorized
	}
	if from.Equals(to) {
		if src.Amount < amount {
			return errors.ErrInsufficientFunds
		}
		return nil
	}
	dst, err := b.Account(to)
	if err != nil {
		return err
	}
	if !src.Mint.Equals(dst.Mint) {
		return errors.ErrInvalidAccountData.WithDetails(map[string]any{"account": to.String(), "reason": "mint mismatch"})
	}
	if src.Amount < amount {
		return errors.ErrInsufficientFunds.WithDetails(map[string]any{"account": from.String(), "balance": src.Amount, "required": amount})
	}
	if dst.Amount+amount < dst.Amount {
		return errors.ErrArithmeticOverflow
	}
	src.Amount -= amount
	dst.Amount += amount
	if err := b.store(from, src); err != nil {
		return err
	}
	return b.store(to, dst)
}

// Burn destroys amount from an account and reduces the mint supply.
func (b *Bank) Burn(account, mint, authority solana.PublicKey, amount uint64) error {
	if amount == 0 {
		return nil
	}
	src, err := b.Account(account)
	if err != nil {
		return err
	}
	if !src.Owner.Equals(authority) {
		return errors.ErrUnauthorized
	}
	if !src.Mint.Equals(mint) {
		return errors.ErrInvalidAccountData.WithDetails(map[string]any{"account": account.String(), "reason": "mint mismatch"})
	}
	m, err := b.Mint(mint)
	if err != nil {
		return err
	}
	if src.Amount < amount || m.Supply < amount {
		return errors.ErrInsufficientFunds
	}
	src.Amount -= amount
	m.Supply -= amount
	if err := b.store(account, src); err != nil {
		return err
	}
	return b.storeMint(mint, m)
}

// Wrap credits lamports to a wrapped SOL account, as a native deposit
// followed by a sync would.
func (b *Bank) Wrap(account solana.PublicKey, lamports uint64) error {
	acc, err := b.Account(account)
	if err != nil {
		return err
	}
	if !acc.Mint.Equals(solana.SolMint) {
		return errors.ErrInvalidAccountData.WithDetails(map[string]any{"account": account.String(), "reason": "not a native account"})
	}
	if acc.Amount+lamports < acc.Amount {
		return errors.ErrArithmeticOverflow
	}
	acc.Amount += lamports
	return b.store(account, acc)
}
