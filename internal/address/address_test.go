package address

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testProgramID = solana.MustPublicKeyFromBase58("Cmkuew2GUYTjZh8QQnP8NzSq9wAJtoJ64vUViPUkdgUk")

func TestPDADeriverMatchesFindProgramAddress(t *testing.T) {
	d := NewPDADeriver(testProgramID)

	got, bump, err := d.Derive(SeedState)
	require.NoError(t, err)

	want, wantBump, err := solana.FindProgramAddress([][]byte{[]byte("state")}, testProgramID)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, wantBump, bump)
	assert.False(t, got.IsOnCurve())
}

func TestHashDeriverSeparatesSeedBoundaries(t *testing.T) {
	d := NewHashDeriver(testProgramID)

	a, _, err := d.Derive([]byte("ab"), []byte("c"))
	require.NoError(t, err)
	b, _, err := d.Derive([]byte("a"), []byte("bc"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	again, _, err := d.Derive([]byte("ab"), []byte("c"))
	require.NoError(t, err)
	assert.Equal(t, a, again)
}

func TestHashDeriverDependsOnProgram(t *testing.T) {
	other := solana.MustPublicKeyFromBase58("6fF8UsauBAfBoQYxcnFBHsqX25yy5dM5VpAUcPtnZAtq")
	a, _, _ := NewHashDeriver(testProgramID).Derive(SeedState)
	b, _, _ := NewHashDeriver(other).Derive(SeedState)
	assert.NotEqual(t, a, b)
}

func TestNewDeriver(t *testing.T) {
	d, err := NewDeriver("pda", testProgramID)
	require.NoError(t, err)
	assert.IsType(t, &PDADeriver{}, d)

	d, err = NewDeriver("hash", testProgramID)
	require.NoError(t, err)
	assert.IsType(t, &HashDeriver{}, d)

	_, err = NewDeriver("bogus", testProgramID)
	assert.Error(t, err)
}

func TestBookAddressesAreDistinct(t *testing.T) {
	for _, d := range []Deriver{NewPDADeriver(testProgramID), NewHashDeriver(testProgramID)} {
		book, err := NewBook(d)
		require.NoError(t, err)

		seen := map[solana.PublicKey]string{}
		for _, n := range book.Named() {
			if prev, ok := seen[n.Address]; ok {
				t.Fatalf("%s and %s share address %s", prev, n.Name, n.Address)
			}
			seen[n.Address] = n.Name
		}
		assert.Len(t, seen, 17)
		assert.Equal(t, testProgramID, book.ProgramID())
	}
}

func TestBookUserAndDraw(t *testing.T) {
	book, err := NewBook(NewPDADeriver(testProgramID))
	require.NoError(t, err)

	user := solana.NewWallet().PublicKey()
	u, err := book.User(user)
	require.NoError(t, err)
	want, _, err := solana.FindProgramAddress([][]byte{[]byte("user"), user[:]}, testProgramID)
	require.NoError(t, err)
	assert.Equal(t, want, u.Address)

	r1, err := book.Draw(1)
	require.NoError(t, err)
	r2, err := book.Draw(2)
	require.NoError(t, err)
	assert.NotEqual(t, r1.Address, r2.Address)
	assert.Equal(t, []byte{1, 0, 0, 0, 0, 0, 0, 0}, RoundSeed(1))
}
