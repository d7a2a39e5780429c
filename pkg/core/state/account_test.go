package state

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/quillchain/quill-go/internal/random"
	"github.com/quillchain/quill-go/pkg/util"
	"github.com/stretchr/testify/require"
)

func TestAccountSerialization(t *testing.T) {
	a := &Account{
		Nonce:       42,
		Balance:     uint256.NewInt(100500),
		StorageRoot: random.Uint256(),
		CodeHash:    random.Uint256(),
	}
	data, err := a.Bytes()
	require.NoError(t, err)
	actual, err := AccountFromBytes(data)
	require.NoError(t, err)
	require.Equal(t, a, actual)

	t.Run("invalid data", func(t *testing.T) {
		_, err := AccountFromBytes(data[:len(data)-1])
		require.Error(t, err)
	})
}

func TestAccountFlags(t *testing.T) {
	a := NewAccount()
	require.False(t, a.HasStorage())
	require.False(t, a.HasCode())

	a.StorageRoot = random.Uint256()
	require.True(t, a.HasStorage())

	a.CodeHash = EmptyCodeHash
	require.False(t, a.HasCode())
	a.CodeHash = util.Uint256{}
	require.False(t, a.HasCode())
	a.CodeHash = random.Uint256()
	require.True(t, a.HasCode())
}
