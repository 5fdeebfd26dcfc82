package program

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/lugondev/go-soflotto/internal/address"
	"github.com/lugondev/go-soflotto/internal/config"
	"github.com/lugondev/go-soflotto/internal/errors"
	"github.com/lugondev/go-soflotto/internal/ledger"
	"github.com/lugondev/go-soflotto/internal/oracle"
	"github.com/lugondev/go-soflotto/internal/receipt"
	"github.com/lugondev/go-soflotto/internal/state"
	"github.com/lugondev/go-soflotto/internal/token"
)

const sol = 1_000_000_000

// usd20 is the base-unit balance worth $20 at the default oracle price.
const usd20 = 100_000 * sol

type harness struct {
	t         *testing.T
	ctx       context.Context
	cfg       *config.Config
	clock     *clockwork.FakeClock
	prog      *Program
	b         *Builder
	mint      solana.PublicKey
	authority solana.PublicKey
	treasury  WalletAccounts
}

// newBareHarness writes genesis and funds the treasury but does not run
// initialize.
func newBareHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	cfg := config.DefaultConfig()

	programID := solana.MustPublicKeyFromBase58(cfg.Program.ID)
	book, err := address.NewBook(address.NewHashDeriver(programID))
	require.NoError(t, err)
	o, err := oracle.FromConfig(cfg.Oracle)
	require.NoError(t, err)

	clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	prog := New(ledger.New(clock), book, o, ParamsFromConfig(cfg),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	h := &harness{
		t:         t,
		ctx:       ctx,
		cfg:       cfg,
		clock:     clock,
		prog:      prog,
		b:         NewBuilder(book),
		mint:      solana.NewWallet().PublicKey(),
		authority: solana.NewWallet().PublicKey(),
	}
	require.NoError(t, prog.Genesis(ctx, Genesis{
		Mint:     h.mint,
		Decimals: cfg.Program.TokenDecimals,
		Supply:   cfg.Program.InitialSupply,
		LpSol:    1_000 * sol,
	}))
	h.treasury = h.wallet(h.authority, 500*sol, 3*cfg.Economics.BootstrapTokens)
	return h
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := newBareHarness(t)
	h.ok(h.ix(h.b.Initialize(h.authority, h.mint)))
	return h
}

func (h *harness) wallet(owner solana.PublicKey, lamports, tokens uint64) WalletAccounts {
	h.t.Helper()
	w, err := h.prog.Airdrop(h.ctx, owner, h.mint, lamports, tokens)
	require.NoError(h.t, err)
	return w
}

func (h *harness) newWallet(lamports, tokens uint64) WalletAccounts {
	h.t.Helper()
	return h.wallet(solana.NewWallet().PublicKey(), lamports, tokens)
}

// ix unwraps a builder result.
func (h *harness) ix(ix *solana.GenericInstruction, err error) *solana.GenericInstruction {
	h.t.Helper()
	require.NoError(h.t, err)
	return ix
}

func (h *harness) ok(ix *solana.GenericInstruction) *receipt.Receipt {
	h.t.Helper()
	r, err := h.prog.Process(h.ctx, ix)
	require.NoError(h.t, err)
	require.True(h.t, r.Success)
	return r
}

func (h *harness) fails(target error, ix *solana.GenericInstruction) *receipt.Receipt {
	h.t.Helper()
	r, err := h.prog.Process(h.ctx, ix)
	require.Error(h.t, err)
	require.True(h.t, errors.Is(err, target), "got %v, want %v", err, target)
	require.NotNil(h.t, r)
	require.False(h.t, r.Success)
	require.Equal(h.t, errors.CodeOf(target), r.ErrorCode)
	return r
}

func (h *harness) record(addr solana.PublicKey, r state.Record) bool {
	h.t.Helper()
	raw, ok := h.prog.Ledger().Get(addr)
	if !ok {
		return false
	}
	require.NoError(h.t, state.Decode(raw.Data, r))
	return true
}

func (h *harness) state() *state.GlobalState {
	h.t.Helper()
	var gs state.GlobalState
	require.True(h.t, h.record(h.prog.Book().State.Address, &gs))
	return &gs
}

func (h *harness) balance(addr solana.PublicKey) uint64 {
	h.t.Helper()
	raw, ok := h.prog.Ledger().Get(addr)
	require.True(h.t, ok, "missing token account %s", addr)
	acc, err := token.DecodeAccount(raw.Data)
	require.NoError(h.t, err)
	return acc.Amount
}

func (h *harness) supply() uint64 {
	h.t.Helper()
	raw, ok := h.prog.Ledger().Get(h.mint)
	require.True(h.t, ok)
	m, err := token.DecodeMint(raw.Data)
	require.NoError(h.t, err)
	return m.Supply
}

func event[T receipt.Event](t *testing.T, r *receipt.Receipt) T {
	t.Helper()
	var zero T
	e, ok := r.Event(zero.EventName())
	require.True(t, ok, "missing event %s", zero.EventName())
	out, ok := e.(T)
	require.True(t, ok)
	return out
}
