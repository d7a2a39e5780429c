package mpt

import (
	"testing"

	"github.com/quillchain/quill-go/internal/random"
	"github.com/quillchain/quill-go/pkg/core/storage"
	"github.com/stretchr/testify/require"
)

func newTestStore() *storage.MemCachedStore {
	return storage.NewMemCachedStore(storage.NewMemoryStore())
}

func TestTriePutGet(t *testing.T) {
	tr := NewTrie(nil, newTestStore())
	kvs := prepareLeaves(t, 30)
	for _, kv := range kvs {
		require.NoError(t, tr.Put(kv.key.BytesBE(), kv.value))
	}
	for _, kv := range kvs {
		v, err := tr.Get(kv.key.BytesBE())
		require.NoError(t, err)
		require.Equal(t, kv.value, v)
	}
	_, err := tr.Get(random.Uint256().BytesBE())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestTriePutInvalid(t *testing.T) {
	tr := NewTrie(nil, newTestStore())
	key := random.Uint256().BytesBE()
	require.Error(t, tr.Put(key, nil))
	require.Error(t, tr.Put(key, make([]byte, MaxValueLength+1)))
	require.Error(t, tr.Put(make([]byte, MaxKeyLength+1), []byte{0x01}))
}

func TestTriePutReplace(t *testing.T) {
	tr := NewTrie(nil, newTestStore())
	key := random.Uint256().BytesBE()
	require.NoError(t, tr.Put(key, []byte("old")))
	require.NoError(t, tr.Put(key, []byte("new")))
	v, err := tr.Get(key)
	require.NoError(t, err)
	require.Equal(t, []byte("new"), v)
}

func TestTrieStateRootIsOrderIndependent(t *testing.T) {
	kvs := prepareLeaves(t, 30)
	tr1 := NewTrie(nil, newTestStore())
	for _, kv := range kvs {
		require.NoError(t, tr1.Put(kv.key.BytesBE(), kv.value))
	}
	tr2 := NewTrie(nil, newTestStore())
	for i := len(kvs) - 1; i >= 0; i-- {
		require.NoError(t, tr2.Put(kvs[i].key.BytesBE(), kvs[i].value))
	}
	require.Equal(t, tr1.StateRoot(), tr2.StateRoot())
}

func TestTrieFlushAndRestore(t *testing.T) {
	ps := storage.NewMemoryStore()
	cache := storage.NewMemCachedStore(ps)
	tr := NewTrie(nil, cache)
	kvs := prepareLeaves(t, 30)
	for _, kv := range kvs {
		require.NoError(t, tr.Put(kv.key.BytesBE(), kv.value))
	}
	root := tr.StateRoot()
	tr.Flush()
	_, err := cache.Persist()
	require.NoError(t, err)

	restored := NewTrie(NewHashNode(root), storage.NewMemCachedStore(ps))
	for _, kv := range kvs {
		v, err := restored.Get(kv.key.BytesBE())
		require.NoError(t, err)
		require.Equal(t, kv.value, v)
	}
	require.Equal(t, root, restored.StateRoot())
}

func TestTrieCollapse(t *testing.T) {
	tr := NewTrie(nil, newTestStore())
	kvs := prepareLeaves(t, 30)
	for _, kv := range kvs {
		require.NoError(t, tr.Put(kv.key.BytesBE(), kv.value))
	}
	root := tr.StateRoot()
	tr.Flush()
	tr.Collapse(1)
	require.Equal(t, root, tr.StateRoot())
	// The collapsed parts are still reachable through the store.
	for _, kv := range kvs {
		v, err := tr.Get(kv.key.BytesBE())
		require.NoError(t, err)
		require.Equal(t, kv.value, v)
	}
}

func TestTrieProof(t *testing.T) {
	tr := NewTrie(nil, newTestStore())
	kvs := prepareLeaves(t, 30)
	for _, kv := range kvs {
		require.NoError(t, tr.Put(kv.key.BytesBE(), kv.value))
	}
	root := tr.StateRoot()
	for _, kv := range kvs {
		proof, err := tr.GetProof(kv.key.BytesBE())
		require.NoError(t, err)
		v, ok := VerifyProof(root, kv.key.BytesBE(), proof)
		require.True(t, ok)
		require.Equal(t, kv.value, v)
	}

	t.Run("missing key", func(t *testing.T) {
		_, err := tr.GetProof(random.Uint256().BytesBE())
		require.ErrorIs(t, err, ErrNotFound)
	})
	t.Run("bad proof", func(t *testing.T) {
		proof, err := tr.GetProof(kvs[0].key.BytesBE())
		require.NoError(t, err)
		proof[len(proof)-1] = proof[len(proof)-1][:len(proof[len(proof)-1])-1]
		_, ok := VerifyProof(root, kvs[0].key.BytesBE(), proof)
		require.False(t, ok)
	})
}
