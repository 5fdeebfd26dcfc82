package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lugondev/go-soflotto/internal/config"
	"github.com/lugondev/go-soflotto/internal/ledger"
	"github.com/lugondev/go-soflotto/internal/receipt"
)

func newLedger() *ledger.Ledger {
	return ledger.New(clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)))
}

func TestPersistAndHydrateLedger(t *testing.T) {
	ctx := context.Background()
	src := newLedger()
	owner := solana.NewWallet().PublicKey()
	keys := make([]solana.PublicKey, 5)
	for i := range keys {
		keys[i] = solana.NewWallet().PublicKey()
		src.Put(keys[i], &ledger.Account{Owner: owner, Lamports: uint64(i + 1), Data: []byte{byte(i), 0xff}})
	}

	repo := NewMemoryRepository()
	written, err := PersistLedger(ctx, repo, src, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, written)

	owned, err := repo.Accounts().FindByOwner(ctx, owner.String(), 10, 0)
	require.NoError(t, err)
	assert.Len(t, owned, 5)

	dst := newLedger()
	loaded, err := HydrateLedger(ctx, repo, dst, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, loaded)
	assert.Equal(t, src.Snapshot(), dst.Snapshot())
}

func TestModelToAccountRejectsBadKeys(t *testing.T) {
	_, _, err := ModelToAccount(&AccountModel{Pubkey: "not-a-key", Owner: solana.SystemProgramID.String()})
	assert.Error(t, err)

	_, _, err = ModelToAccount(&AccountModel{Pubkey: solana.SystemProgramID.String(), Owner: "??"})
	assert.Error(t, err)
}

func drawReceipt() *receipt.Receipt {
	winner := solana.NewWallet().PublicKey()
	runnerUp := solana.NewWallet().PublicKey()
	r := receipt.New(solana.SystemProgramID, "drawWinner", 0, []*solana.AccountMeta{
		solana.Meta(winner).SIGNER(),
		solana.Meta(runnerUp),
	})
	r.Slot = 42
	r.Timestamp = time.Unix(1714521600, 0).UTC()
	r.Success = true
	r.Duration = 1500 * time.Microsecond
	r.Emit(receipt.DrawSettled{
		Round:          1,
		Winner:         winner,
		RandomNumber:   ^uint64(0),
		TotalEntries:   5,
		Payout:         19_475_000_000_000,
		RunnerUps:      [3]solana.PublicKey{runnerUp},
		RunnerUpCount:  1,
		RunnerUpPayout: 475_000_000_000,
		RewardsPayout:  2_850_000_000_000,
		CarryOver:      950_000_000_000,
	})
	return r
}

func TestReceiptModels(t *testing.T) {
	r := drawReceipt()

	in := ReceiptToModel(r)
	assert.Equal(t, r.ID.String(), in.ID)
	assert.Equal(t, "drawWinner", in.Instruction)
	assert.Equal(t, uint64(42), in.Slot)
	assert.Equal(t, int64(1500), in.DurationUs)
	assert.Equal(t, []string{r.Accounts[0].String()}, in.Signers)
	assert.Len(t, in.Accounts, 2)

	events, err := EventsToModels(r)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "DrawSettled", events[0].EventName)
	assert.Equal(t, r.ID.String()+"_0", events[0].ID)
	assert.Equal(t, "19475000000000", events[0].Data["Payout"].(interface{ String() string }).String())

	draw, ok := DrawToModel(r)
	require.True(t, ok)
	assert.Equal(t, uint64(1), draw.Round)
	assert.Equal(t, ^uint64(0), draw.RandomNumber)
	assert.Equal(t, []string{r.Accounts[1].String()}, draw.RunnerUps)
	assert.Equal(t, r.Timestamp, draw.SettledAt)
}

func TestDrawToModelWithoutDraw(t *testing.T) {
	r := receipt.New(solana.SystemProgramID, "buyTokens", 0, nil)
	r.Emit(receipt.TokensBurned{Amount: 1})
	_, ok := DrawToModel(r)
	assert.False(t, ok)
}

func TestMemoryJournal(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	r := drawReceipt()
	require.NoError(t, repo.Instructions().Save(ctx, ReceiptToModel(r)))
	second := receipt.New(solana.SystemProgramID, "commitDraw", 0, nil)
	require.NoError(t, repo.Instructions().Save(ctx, ReceiptToModel(second)))

	got, err := repo.Instructions().FindByID(ctx, r.ID.String())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "drawWinner", got.Instruction)

	recent, err := repo.Instructions().FindRecent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "commitDraw", recent[0].Instruction)

	byName, err := repo.Instructions().FindByInstruction(ctx, "drawWinner", 10, 0)
	require.NoError(t, err)
	assert.Len(t, byName, 1)

	missing, err := repo.Instructions().FindByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	draw, _ := DrawToModel(r)
	require.NoError(t, repo.Draws().Save(ctx, draw))
	stored, err := repo.Draws().FindByRound(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, draw, stored)

	wins, err := repo.Draws().FindByWinner(ctx, draw.Winner, 10, 0)
	require.NoError(t, err)
	assert.Len(t, wins, 1)

	events, _ := EventsToModels(r)
	require.NoError(t, repo.Events().SaveBatch(ctx, events))
	bySlot, err := repo.Events().FindBySlot(ctx, 42, 10, 0)
	require.NoError(t, err)
	assert.Len(t, bySlot, 1)
	byReceipt, err := repo.Events().FindByReceipt(ctx, r.ID.String())
	require.NoError(t, err)
	assert.Len(t, byReceipt, 1)
}

func TestPage(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	assert.Equal(t, []int{3, 4}, page(items, 2, 2))
	assert.Equal(t, []int{5}, page(items, 10, 4))
	assert.Nil(t, page(items, 2, 5))
	assert.Equal(t, items, page(items, 0, 0))
}

func TestConnectionManager(t *testing.T) {
	ctx := context.Background()

	_, err := NewConnectionManager(&config.DatabaseConfig{Enabled: false})
	assert.Error(t, err)

	cm, err := NewConnectionManager(&config.DatabaseConfig{Enabled: true, Type: "memory"})
	require.NoError(t, err)
	_, err = cm.GetRepository()
	assert.Error(t, err)

	repo, err := cm.Connect(ctx)
	require.NoError(t, err)
	again, err := cm.Connect(ctx)
	require.NoError(t, err)
	assert.Same(t, repo, again)
	require.NoError(t, cm.Close())

	cm, err = NewConnectionManager(&config.DatabaseConfig{Enabled: true, Type: "sqlite"})
	require.NoError(t, err)
	_, err = cm.Connect(ctx)
	assert.Error(t, err)
}

func TestPingHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewMemoryRepository().Ping(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}
