package storage

import (
	"testing"

	"github.com/quillchain/quill-go/internal/random"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorePutGetDelete(t *testing.T) {
	s := NewMemoryStore()
	key := random.Bytes(10)
	value := random.Bytes(24)

	_, err := s.Get(key)
	require.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, s.Put(key, value))
	actual, err := s.Get(key)
	require.NoError(t, err)
	require.Equal(t, value, actual)

	require.NoError(t, s.Delete(key))
	_, err = s.Get(key)
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func TestMemoryStorePutChangeSet(t *testing.T) {
	s := NewMemoryStore()
	key := random.Bytes(10)
	require.NoError(t, s.Put(key, []byte{0x01}))

	added := random.Bytes(12)
	puts := map[string][]byte{
		string(key):   nil,
		string(added): {0x03},
	}
	require.NoError(t, s.PutChangeSet(puts))
	_, err := s.Get(key)
	require.ErrorIs(t, err, ErrKeyNotFound)
	actual, err := s.Get(added)
	require.NoError(t, err)
	require.Equal(t, []byte{0x03}, actual)
}

func TestMemoryStoreSeek(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Put([]byte{0x01, 0x02}, []byte("a")))
	require.NoError(t, s.Put([]byte{0x01, 0x03}, []byte("b")))
	require.NoError(t, s.Put([]byte{0x02, 0x01}, []byte("c")))

	var keys [][]byte
	s.Seek(SeekRange{Prefix: []byte{0x01}}, func(k, v []byte) bool {
		keys = append(keys, append([]byte{}, k...))
		return true
	})
	require.Equal(t, [][]byte{{0x01, 0x02}, {0x01, 0x03}}, keys)

	t.Run("backwards", func(t *testing.T) {
		var keys [][]byte
		s.Seek(SeekRange{Prefix: []byte{0x01}, Backwards: true}, func(k, v []byte) bool {
			keys = append(keys, append([]byte{}, k...))
			return true
		})
		require.Equal(t, [][]byte{{0x01, 0x03}, {0x01, 0x02}}, keys)
	})
	t.Run("start", func(t *testing.T) {
		var keys [][]byte
		s.Seek(SeekRange{Prefix: []byte{0x01}, Start: []byte{0x03}}, func(k, v []byte) bool {
			keys = append(keys, append([]byte{}, k...))
			return true
		})
		require.Equal(t, [][]byte{{0x01, 0x03}}, keys)
	})
	t.Run("early stop", func(t *testing.T) {
		var count int
		s.Seek(SeekRange{}, func(k, v []byte) bool {
			count++
			return false
		})
		require.Equal(t, 1, count)
	})
}
