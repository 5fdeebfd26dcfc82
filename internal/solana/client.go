package solana

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/lugondev/go-soflotto/internal/address"
	"github.com/lugondev/go-soflotto/internal/receipt"
	"github.com/lugondev/go-soflotto/internal/state"
	"github.com/lugondev/go-soflotto/pkg/log"
)

// ErrAccountNotFound is returned when a fetched account does not exist.
var ErrAccountNotFound = errors.New("account not found")

// rpcAPI is the subset of rpc.Client used here.
type rpcAPI interface {
	GetBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetBalanceResult, error)
	GetMultipleAccounts(ctx context.Context, accounts ...solana.PublicKey) (*rpc.GetMultipleAccountsResult, error)
	GetTransaction(ctx context.Context, sig solana.Signature, opts *rpc.GetTransactionOpts) (*rpc.GetTransactionResult, error)
	RequestAirdrop(ctx context.Context, account solana.PublicKey, lamports uint64, commitment rpc.CommitmentType) (solana.Signature, error)
}

// Client reads a deployed SOF program through a Solana RPC node.
type Client struct {
	rpc rpcAPI
}

// NewClient creates a new Solana client
func NewClient(endpoint string) *Client {
	return &Client{
		rpc: rpc.New(endpoint),
	}
}

// GetBalance returns the balance of an account in lamports
func (c *Client) GetBalance(ctx context.Context, pubkey solana.PublicKey) (uint64, error) {
	result, err := c.rpc.GetBalance(ctx, pubkey, rpc.CommitmentFinalized)
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return result.Value, nil
}

// GetBalanceSOL returns the balance in SOL (not lamports)
func (c *Client) GetBalanceSOL(ctx context.Context, pubkey solana.PublicKey) (float64, error) {
	lamports, err := c.GetBalance(ctx, pubkey)
	if err != nil {
		return 0, err
	}
	return float64(lamports) / float64(solana.LAMPORTS_PER_SOL), nil
}

// RequestAirdrop requests an airdrop of SOL (only works on devnet/testnet)
func (c *Client) RequestAirdrop(ctx context.Context, pubkey solana.PublicKey, lamports uint64) (solana.Signature, error) {
	sig, err := c.rpc.RequestAirdrop(ctx, pubkey, lamports, rpc.CommitmentFinalized)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to request airdrop: %w", err)
	}
	return sig, nil
}

// Deployment is the decoded program state of a live deployment. Admin is nil
// when the admin registry was never initialized.
type Deployment struct {
	Slot       uint64
	Global     *state.GlobalState
	Admin      *state.AdminAccessState
	BankPool   *state.LiquidityPool
	LockedPool *state.LiquidityPool
}

// FetchDeployment loads and decodes the singleton accounts of book in a
// single round trip.
func (c *Client) FetchDeployment(ctx context.Context, book *address.Book) (*Deployment, error) {
	keys := []solana.PublicKey{
		book.State.Address,
		book.Admin.Address,
		book.BankPool.Address,
		book.LockedPool.Address,
	}
	result, err := c.rpc.GetMultipleAccounts(ctx, keys...)
	if err != nil {
		return nil, fmt.Errorf("failed to get program accounts: %w", err)
	}
	if len(result.Value) != len(keys) {
		return nil, fmt.Errorf("expected %d accounts, got %d", len(keys), len(result.Value))
	}

	program := book.ProgramID()
	d := &Deployment{Slot: result.Context.Slot, Global: &state.GlobalState{}}
	if err := DecodeAccount(result.Value[0], program, d.Global); err != nil {
		return nil, fmt.Errorf("global state at %s: %w", keys[0], err)
	}

	admin := &state.AdminAccessState{}
	if ok, err := decodeOptional(result.Value[1], program, admin); err != nil {
		return nil, fmt.Errorf("admin state at %s: %w", keys[1], err)
	} else if ok {
		d.Admin = admin
	}
	bank := &state.LiquidityPool{}
	if ok, err := decodeOptional(result.Value[2], program, bank); err != nil {
		return nil, fmt.Errorf("bank pool at %s: %w", keys[2], err)
	} else if ok {
		d.BankPool = bank
	}
	locked := &state.LiquidityPool{}
	if ok, err := decodeOptional(result.Value[3], program, locked); err != nil {
		return nil, fmt.Errorf("locked pool at %s: %w", keys[3], err)
	} else if ok {
		d.LockedPool = locked
	}
	return d, nil
}

func decodeOptional(acc *rpc.Account, program solana.PublicKey, rec state.Record) (bool, error) {
	err := DecodeAccount(acc, program, rec)
	if errors.Is(err, ErrAccountNotFound) {
		return false, nil
	}
	return err == nil, err
}

// DecodeAccount decodes acc into rec after checking that it is owned by
// program.
func DecodeAccount(acc *rpc.Account, program solana.PublicKey, rec state.Record) error {
	if acc == nil {
		return ErrAccountNotFound
	}
	if !acc.Owner.Equals(program) {
		return fmt.Errorf("owned by %s, not %s", acc.Owner, program)
	}
	if acc.Data == nil {
		return fmt.Errorf("account has no data")
	}
	return state.Decode(acc.Data.GetBinary(), rec)
}

// TransactionReport is a confirmed transaction seen through its logs.
type TransactionReport struct {
	Signature solana.Signature
	Slot      uint64
	Outcome   log.Outcome
	Events    []receipt.Event
	Logs      []string
}

// FetchTransaction loads a confirmed transaction and decodes the program
// events in its log transcript.
func (c *Client) FetchTransaction(ctx context.Context, sig solana.Signature) (*TransactionReport, error) {
	maxVersion := uint64(0)
	result, err := c.rpc.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		MaxSupportedTransactionVersion: &maxVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	if result.Meta == nil {
		return nil, fmt.Errorf("transaction %s has no metadata", sig)
	}
	return BuildReport(sig, result.Slot, result.Meta.LogMessages)
}

// BuildReport summarizes a log transcript.
func BuildReport(sig solana.Signature, slot uint64, logs []string) (*TransactionReport, error) {
	events, err := receipt.DecodeLogs(logs)
	if err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}
	return &TransactionReport{
		Signature: sig,
		Slot:      slot,
		Outcome:   log.NewParser().Summarize(logs),
		Events:    events,
		Logs:      logs,
	}, nil
}
