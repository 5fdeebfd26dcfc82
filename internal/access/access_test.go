package access

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lugondev/go-soflotto/internal/errors"
	"github.com/lugondev/go-soflotto/internal/state"
)

func key(b byte) solana.PublicKey { return solana.PublicKey{b} }

func initialized(t *testing.T, master solana.PublicKey) *state.AdminAccessState {
	t.Helper()
	a := &state.AdminAccessState{}
	require.NoError(t, Initialize(a, master, 254))
	return a
}

func TestInitializeOnce(t *testing.T) {
	a := initialized(t, key(1))
	assert.Equal(t, key(1), a.MasterAdmin)
	assert.Equal(t, uint8(254), a.Bump)

	err := Initialize(a, key(2), 254)
	assert.True(t, errors.Is(err, errors.ErrAlreadyInitialized))
	assert.Equal(t, key(1), a.MasterAdmin)
}

func TestAdminSetNeverExceedsCap(t *testing.T) {
	master := key(1)
	a := initialized(t, master)

	for i := 0; i < state.MaxAdmins; i++ {
		require.NoError(t, AddAdmin(a, master, key(byte(10+i))))
	}
	err := AddAdmin(a, master, key(200))
	assert.True(t, errors.Is(err, errors.ErrAdminSetFull))
	assert.Equal(t, uint8(state.MaxAdmins), a.AdminCount)

	require.NoError(t, RemoveAdmin(a, master, key(10)))
	require.NoError(t, AddAdmin(a, master, key(200)))
	assert.Len(t, a.Members(), state.MaxAdmins)
}

func TestAddAdminRejects(t *testing.T) {
	master := key(1)
	a := initialized(t, master)

	assert.True(t, errors.Is(AddAdmin(a, key(9), key(2)), errors.ErrUnauthorized))
	require.NoError(t, AddAdmin(a, master, key(2)))
	assert.True(t, errors.Is(AddAdmin(a, master, key(2)), errors.ErrAdminAlreadyExists))
	assert.True(t, errors.Is(AddAdmin(a, master, master), errors.ErrAdminAlreadyExists))

	// admins cannot grow the set themselves
	assert.True(t, errors.Is(AddAdmin(a, key(2), key(3)), errors.ErrUnauthorized))
}

func TestMasterCannotBeRemoved(t *testing.T) {
	master := key(1)
	a := initialized(t, master)
	require.NoError(t, AddAdmin(a, master, key(2)))

	assert.True(t, errors.Is(RemoveAdmin(a, master, master), errors.ErrCannotRemoveMaster))
	assert.True(t, errors.Is(RemoveAdmin(a, key(2), master), errors.ErrUnauthorized))
	assert.True(t, a.IsAdmin(master))
}

func TestRemoveAdminKeepsOrder(t *testing.T) {
	master := key(1)
	a := initialized(t, master)
	for _, k := range []byte{2, 3, 4} {
		require.NoError(t, AddAdmin(a, master, key(k)))
	}

	require.NoError(t, RemoveAdmin(a, master, key(3)))
	assert.Equal(t, []solana.PublicKey{key(2), key(4)}, a.Members())
	assert.Equal(t, solana.PublicKey{}, a.Admins[2])

	assert.True(t, errors.Is(RemoveAdmin(a, master, key(3)), errors.ErrAdminNotFound))
}

func TestTransferMaster(t *testing.T) {
	master := key(1)
	a := initialized(t, master)
	require.NoError(t, AddAdmin(a, master, key(2)))

	require.NoError(t, TransferMaster(a, master, key(2)))
	assert.Equal(t, key(2), a.MasterAdmin)
	assert.Empty(t, a.Members())
	assert.False(t, a.IsAdmin(master))

	assert.True(t, errors.Is(TransferMaster(a, master, key(1)), errors.ErrUnauthorized))
}

func TestPauseIsMasterOnly(t *testing.T) {
	master := key(1)
	a := initialized(t, master)
	require.NoError(t, AddAdmin(a, master, key(2)))

	assert.True(t, errors.Is(SetPaused(a, key(2), true), errors.ErrUnauthorized))
	require.NoError(t, SetPaused(a, master, true))

	assert.True(t, errors.Is(AddAdmin(a, master, key(3)), errors.ErrEmergencyPaused))
	assert.True(t, errors.Is(SetPaused(a, master, true), errors.ErrEmergencyPaused))

	require.NoError(t, SetPaused(a, master, false))
	require.NoError(t, AddAdmin(a, master, key(3)))
}

func TestIsAdmin(t *testing.T) {
	assert.False(t, IsAdmin(nil, key(1)))
	assert.False(t, IsAdmin(&state.AdminAccessState{MasterAdmin: key(1)}, key(1)))

	a := initialized(t, key(1))
	require.NoError(t, AddAdmin(a, key(1), key(2)))
	assert.True(t, IsAdmin(a, key(1)))
	assert.True(t, IsAdmin(a, key(2)))
	assert.False(t, IsAdmin(a, key(3)))
}

func TestAuthorize(t *testing.T) {
	gs := &state.GlobalState{Authority: key(1)}
	a := initialized(t, key(5))
	require.NoError(t, AddAdmin(a, key(5), key(2)))

	assert.NoError(t, Authorize(gs, nil, key(1)))
	assert.NoError(t, Authorize(gs, a, key(2)))
	assert.NoError(t, Authorize(gs, a, key(5)))
	assert.True(t, errors.Is(Authorize(gs, nil, key(2)), errors.ErrUnauthorized))
	assert.True(t, errors.Is(Authorize(gs, a, key(3)), errors.ErrUnauthorized))

	require.NoError(t, SetPaused(a, key(5), true))
	assert.True(t, errors.Is(Authorize(gs, a, key(2)), errors.ErrUnauthorized))
	assert.NoError(t, Authorize(gs, a, key(1)))
}
