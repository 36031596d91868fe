package keys

import (
	"testing"

	"github.com/restakelabs/resolver/testing/assert"
	"github.com/restakelabs/resolver/testing/require"
	"github.com/restakelabs/resolver/types"
)

func TestDerive_Deterministic(t *testing.T) {
	programID := types.BytesToPublicKey([]byte("program"))
	seeds := [][]byte{[]byte("slash_proposal"), []byte("ncn"), []byte("operator")}

	addr1, bump1, err := Derive(programID, seeds...)
	require.NoError(t, err)
	addr2, bump2, err := Derive(programID, seeds...)
	require.NoError(t, err)
	assert.Equal(t, addr1, addr2)
	assert.Equal(t, bump1, bump2)
	assert.Equal(t, false, addr1.IsZero())

	// Different seeds land at a different address.
	other, _, err := Derive(programID, []byte("slash_proposal"), []byte("ncn"), []byte("other"))
	require.NoError(t, err)
	assert.NotEqual(t, addr1, other)

	// Different program identity lands at a different address.
	foreign, _, err := Derive(types.BytesToPublicKey([]byte("other program")), seeds...)
	require.NoError(t, err)
	assert.NotEqual(t, addr1, foreign)
}

func TestDeriveWithBump_MatchesSearch(t *testing.T) {
	programID := types.BytesToPublicKey([]byte("program"))
	seeds := [][]byte{[]byte("resolver"), []byte("ncn"), []byte("operator")}

	addr, bump, err := Derive(programID, seeds...)
	require.NoError(t, err)
	assert.Equal(t, addr, DeriveWithBump(programID, bump, seeds...))
}

func TestVerify(t *testing.T) {
	programID := types.BytesToPublicKey([]byte("program"))
	seeds := [][]byte{[]byte("config")}

	addr, _, err := Derive(programID, seeds...)
	require.NoError(t, err)
	require.NoError(t, Verify(programID, addr, seeds...))

	// A forged address never verifies.
	forged := types.BytesToPublicKey([]byte("forged"))
	require.ErrorIs(t, Verify(programID, forged, seeds...), ErrAddressMismatch)
}
