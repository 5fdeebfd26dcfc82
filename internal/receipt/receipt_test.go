package receipt

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lugondev/go-soflotto/internal/errors"
	"github.com/lugondev/go-soflotto/pkg/discriminator"
)

func TestNewCollectsSigners(t *testing.T) {
	user := solana.NewWallet().PublicKey()
	state := solana.NewWallet().PublicKey()
	r := New(solana.NewWallet().PublicKey(), "buyTokens", 2, []*solana.AccountMeta{
		solana.Meta(state).WRITE(),
		solana.Meta(user).SIGNER().WRITE(),
	})

	assert.NotEqual(t, [16]byte{}, [16]byte(r.ID))
	assert.Equal(t, 2, r.Index)
	assert.Equal(t, []solana.PublicKey{state, user}, r.Accounts)
	assert.Equal(t, []solana.PublicKey{user}, r.Signers)
}

func TestEventLookupAndFail(t *testing.T) {
	r := New(solana.NewWallet().PublicKey(), "burnTokens", 0, nil)
	r.Emit(TokensBurned{Amount: 5, BurnedTotal: 5})

	e, ok := r.Event("TokensBurned")
	require.True(t, ok)
	assert.Equal(t, uint64(5), e.(TokensBurned).Amount)
	_, ok = r.Event("BuyExecuted")
	assert.False(t, ok)

	r.Fail(errors.Wrap(errors.ErrEmergencyPaused, "burn"))
	assert.False(t, r.Success)
	assert.Equal(t, errors.ErrCodeEmergencyPaused, r.ErrorCode)
	assert.Contains(t, r.Error, "burn")
}

func TestLogsRoundTrip(t *testing.T) {
	user := solana.NewWallet().PublicKey()
	r := New(solana.NewWallet().PublicKey(), "buyTokens", 0, nil)
	r.Success = true
	r.Emit(BuyExecuted{User: user, SolIn: 1_000_000_000, Gross: 10, Tax: 1, Burn: 0, Net: 9, LpShare: 1})
	r.Emit(LotteryEntered{User: user, Round: 3, Tier: 2, Entries: 4, HoldingUSD: "25.5"})
	require.NoError(t, r.BuildLogs())

	require.Len(t, r.Logs, 5)
	assert.Equal(t, "Program log: Instruction: BuyTokens", r.Logs[1])
	assert.Contains(t, r.Logs[4], "success")

	events, err := DecodeLogs(append(r.Logs, "Program data: AAAAAAAAAAAA"))
	require.NoError(t, err)
	require.Len(t, events, 2)
	buy, ok := events[0].(*BuyExecuted)
	require.True(t, ok)
	assert.Equal(t, user, buy.User)
	assert.Equal(t, uint64(9), buy.Net)
	entered, ok := events[1].(*LotteryEntered)
	require.True(t, ok)
	assert.Equal(t, "25.5", entered.HoldingUSD)
}

func TestFailedLogs(t *testing.T) {
	r := New(solana.NewWallet().PublicKey(), "commitDraw", 0, nil)
	r.Fail(errors.ErrDrawInProgress)
	require.NoError(t, r.BuildLogs())
	assert.Contains(t, r.Logs[len(r.Logs)-1], "failed: ")
}

func TestEncodeEvent(t *testing.T) {
	data, err := EncodeEvent(DrawCancelled{Round: 7})
	require.NoError(t, err)
	d := discriminator.Event("DrawCancelled")
	assert.Equal(t, d.Bytes(), data[:discriminator.Size])

	e, err := DecodeEventAs("DrawCancelled", data)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), e.(*DrawCancelled).Round)

	_, err = DecodeEventAs("Nope", data)
	assert.Error(t, err)
	_, err = DecodeEventAs("DrawCancelled", data[:4])
	assert.Error(t, err)
}

func TestEventRegistry(t *testing.T) {
	names := EventNames()
	assert.Len(t, names, 21)
	for _, name := range names {
		e, ok := NewEvent(name)
		require.True(t, ok, name)
		assert.Equal(t, name, e.EventName())
	}
	_, ok := NewEvent("Unknown")
	assert.False(t, ok)
}
