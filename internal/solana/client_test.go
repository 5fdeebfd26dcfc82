package solana

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lugondev/go-soflotto/internal/address"
	"github.com/lugondev/go-soflotto/internal/receipt"
	"github.com/lugondev/go-soflotto/internal/state"
)

type fakeRPC struct {
	accounts map[solana.PublicKey]*rpc.Account
	logs     []string
}

func (f *fakeRPC) GetBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetBalanceResult, error) {
	return &rpc.GetBalanceResult{Value: 2_500_000_000}, nil
}

func (f *fakeRPC) GetMultipleAccounts(ctx context.Context, accounts ...solana.PublicKey) (*rpc.GetMultipleAccountsResult, error) {
	out := &rpc.GetMultipleAccountsResult{Value: make([]*rpc.Account, len(accounts))}
	out.Context.Slot = 77
	for i, a := range accounts {
		out.Value[i] = f.accounts[a]
	}
	return out, nil
}

func (f *fakeRPC) GetTransaction(ctx context.Context, sig solana.Signature, opts *rpc.GetTransactionOpts) (*rpc.GetTransactionResult, error) {
	return &rpc.GetTransactionResult{Slot: 12, Meta: &rpc.TransactionMeta{LogMessages: f.logs}}, nil
}

func (f *fakeRPC) RequestAirdrop(ctx context.Context, account solana.PublicKey, lamports uint64, commitment rpc.CommitmentType) (solana.Signature, error) {
	return solana.Signature{1}, nil
}

func testBook(t *testing.T) *address.Book {
	t.Helper()
	book, err := address.NewBook(address.NewHashDeriver(solana.NewWallet().PublicKey()))
	require.NoError(t, err)
	return book
}

func encoded(t *testing.T, owner solana.PublicKey, r state.Record) *rpc.Account {
	t.Helper()
	data, err := state.Encode(r)
	require.NoError(t, err)
	return &rpc.Account{Owner: owner, Lamports: 1, Data: rpc.DataBytesOrJSONFromBytes(data)}
}

func TestFetchDeployment(t *testing.T) {
	book := testBook(t)
	authority := solana.NewWallet().PublicKey()
	fake := &fakeRPC{accounts: map[solana.PublicKey]*rpc.Account{
		book.State.Address:    encoded(t, book.ProgramID(), &state.GlobalState{Authority: authority, IsInitialized: true, CurrentRound: 3}),
		book.BankPool.Address: encoded(t, book.ProgramID(), &state.LiquidityPool{PoolType: state.PoolBank, IsActive: true}),
	}}
	c := &Client{rpc: fake}

	d, err := c.FetchDeployment(context.Background(), book)
	require.NoError(t, err)
	assert.Equal(t, uint64(77), d.Slot)
	assert.Equal(t, authority, d.Global.Authority)
	assert.Equal(t, uint64(3), d.Global.CurrentRound)
	assert.Nil(t, d.Admin)
	require.NotNil(t, d.BankPool)
	assert.True(t, d.BankPool.IsActive)
	assert.Nil(t, d.LockedPool)
}

func TestFetchDeploymentRequiresGlobalState(t *testing.T) {
	book := testBook(t)
	c := &Client{rpc: &fakeRPC{accounts: map[solana.PublicKey]*rpc.Account{}}}

	_, err := c.FetchDeployment(context.Background(), book)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestDecodeAccountChecksOwner(t *testing.T) {
	program := solana.NewWallet().PublicKey()
	acc := encoded(t, solana.SystemProgramID, &state.GlobalState{})

	assert.Error(t, DecodeAccount(acc, program, &state.GlobalState{}))
	assert.NoError(t, DecodeAccount(acc, solana.SystemProgramID, &state.GlobalState{}))
	assert.Error(t, DecodeAccount(acc, solana.SystemProgramID, &state.UserState{}))
}

func TestFetchTransaction(t *testing.T) {
	r := receipt.New(solana.NewWallet().PublicKey(), "burnTokens", 0, nil)
	r.Success = true
	r.Emit(receipt.TokensBurned{Amount: 40})
	require.NoError(t, r.BuildLogs())

	c := &Client{rpc: &fakeRPC{logs: r.Logs}}
	report, err := c.FetchTransaction(context.Background(), solana.Signature{9})
	require.NoError(t, err)

	assert.Equal(t, uint64(12), report.Slot)
	assert.True(t, report.Outcome.Success)
	assert.Equal(t, "BurnTokens", report.Outcome.Instruction)
	require.Len(t, report.Events, 1)
	assert.Equal(t, "TokensBurned", report.Events[0].EventName())
}

func TestBalanceAndAirdrop(t *testing.T) {
	c := &Client{rpc: &fakeRPC{}}
	ctx := context.Background()

	sol, err := c.GetBalanceSOL(ctx, solana.SystemProgramID)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, sol, 1e-9)

	sig, err := c.RequestAirdrop(ctx, solana.SystemProgramID, 1)
	require.NoError(t, err)
	assert.Equal(t, solana.Signature{1}, sig)
}

func TestWalletFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "id.json")
	w := NewWallet()
	require.NoError(t, w.SaveToFile(path))

	loaded, err := WalletFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, w.PublicKey(), loaded.PublicKey())
	assert.Equal(t, w.String(), loaded.String())

	assert.NotNil(t, loaded.Signer(w.PublicKey()))
	assert.Nil(t, loaded.Signer(solana.SystemProgramID))

	fromB58, err := WalletFromBase58(w.PrivateKey().String())
	require.NoError(t, err)
	assert.Equal(t, w.PublicKey(), fromB58.PublicKey())

	_, err = WalletFromFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
