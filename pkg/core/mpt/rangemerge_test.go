package mpt

import (
	"sort"
	"testing"

	"github.com/quillchain/quill-go/internal/random"
	"github.com/quillchain/quill-go/pkg/core/storage"
	"github.com/quillchain/quill-go/pkg/util"
	"github.com/stretchr/testify/require"
)

type kvPair struct {
	key   util.Uint256
	value []byte
}

func prepareLeaves(t *testing.T, n int) []kvPair {
	uniq := make(map[util.Uint256][]byte, n)
	for len(uniq) < n {
		uniq[random.Uint256()] = random.Bytes(random.Int(1, 64))
	}
	kvs := make([]kvPair, 0, n)
	for k, v := range uniq {
		kvs = append(kvs, kvPair{key: k, value: v})
	}
	sort.Slice(kvs, func(i, j int) bool {
		return kvs[i].key.CompareTo(kvs[j].key) < 0
	})
	return kvs
}

func buildReference(t *testing.T, kvs []kvPair) *Trie {
	tr := NewTrie(nil, newTestStore())
	for _, kv := range kvs {
		require.NoError(t, tr.Put(kv.key.BytesBE(), kv.value))
	}
	tr.Flush()
	return tr
}

func rangeProof(t *testing.T, tr *Trie, first, last util.Uint256) [][]byte {
	p1, err := tr.GetProof(first.BytesBE())
	require.NoError(t, err)
	p2, err := tr.GetProof(last.BytesBE())
	require.NoError(t, err)
	return append(p1, p2...)
}

func toRangeLeaves(kvs []kvPair) []RangeLeaf {
	leaves := make([]RangeLeaf, len(kvs))
	for i := range kvs {
		leaves[i] = RangeLeaf{Path: kvs[i].key, Value: kvs[i].value}
	}
	return leaves
}

// nextPath returns the path immediately following u.
func nextPath(u util.Uint256) util.Uint256 {
	b := u.BytesBE()
	for i := len(b) - 1; i >= 0; i-- {
		b[i]++
		if b[i] != 0 {
			break
		}
	}
	res, _ := util.Uint256DecodeBytesBE(b)
	return res
}

func checkSynced(t *testing.T, ps storage.Store, root util.Uint256, kvs []kvPair) {
	synced := NewTrie(NewHashNode(root), storage.NewMemCachedStore(ps))
	for _, kv := range kvs {
		v, err := synced.Get(kv.key.BytesBE())
		require.NoError(t, err)
		require.Equal(t, kv.value, v)
	}
}

func TestMergeRangeWhole(t *testing.T) {
	kvs := prepareLeaves(t, 100)
	ref := buildReference(t, kvs)
	root := ref.StateRoot()
	proofs := rangeProof(t, ref, kvs[0].key, kvs[len(kvs)-1].key)

	ps := storage.NewMemoryStore()
	cache := storage.NewMemCachedStore(ps)
	tr := NewTrie(nil, cache)
	res, more, err := tr.MergeRange(root, util.Uint256{}, nil, toRangeLeaves(kvs), proofs)
	require.NoError(t, err)
	require.Equal(t, RangeOK, res)
	require.False(t, more)
	_, err = cache.Persist()
	require.NoError(t, err)

	checkSynced(t, ps, root, kvs)
}

func TestMergeRangeTwoRanges(t *testing.T) {
	kvs := prepareLeaves(t, 100)
	ref := buildReference(t, kvs)
	root := ref.StateRoot()
	mid := len(kvs) / 2
	ps := storage.NewMemoryStore()

	cache := storage.NewMemCachedStore(ps)
	tr := NewTrie(nil, cache)
	res, more, err := tr.MergeRange(root, util.Uint256{}, nil,
		toRangeLeaves(kvs[:mid]), rangeProof(t, ref, kvs[0].key, kvs[mid-1].key))
	require.NoError(t, err)
	require.Equal(t, RangeOK, res)
	require.True(t, more)
	_, err = cache.Persist()
	require.NoError(t, err)

	// The root node is not durable yet, its right side is unknown.
	_, err = ps.Get(makeStorageKey(root))
	require.ErrorIs(t, err, storage.ErrKeyNotFound)

	cache = storage.NewMemCachedStore(ps)
	tr = NewTrie(nil, cache)
	res, more, err = tr.MergeRange(root, nextPath(kvs[mid-1].key), nil,
		toRangeLeaves(kvs[mid:]), rangeProof(t, ref, kvs[mid].key, kvs[len(kvs)-1].key))
	require.NoError(t, err)
	require.Equal(t, RangeOK, res)
	require.False(t, more)
	_, err = cache.Persist()
	require.NoError(t, err)

	// Both boundary paths are stitched now, the root node included.
	_, err = ps.Get(makeStorageKey(root))
	require.NoError(t, err)
	checkSynced(t, ps, root, kvs)
}

func TestMergeRangeTampered(t *testing.T) {
	kvs := prepareLeaves(t, 50)
	ref := buildReference(t, kvs)
	root := ref.StateRoot()
	proofs := rangeProof(t, ref, kvs[0].key, kvs[len(kvs)-1].key)

	leaves := toRangeLeaves(kvs)
	leaves[10].Value = copySlice(leaves[10].Value)
	leaves[10].Value[0] ^= 0xFF

	ps := storage.NewMemoryStore()
	cache := storage.NewMemCachedStore(ps)
	tr := NewTrie(nil, cache)
	res, _, err := tr.MergeRange(root, util.Uint256{}, nil, leaves, proofs)
	require.NoError(t, err)
	require.Equal(t, RangeDifferentRoot, res)

	// Nothing is allowed to reach the storage layer.
	batch := cache.GetBatch()
	require.Empty(t, batch.Put)
	require.Empty(t, batch.Deleted)
}

func TestMergeRangeMissingRootProof(t *testing.T) {
	kvs := prepareLeaves(t, 50)
	ref := buildReference(t, kvs)
	root := ref.StateRoot()
	p1, err := ref.GetProof(kvs[0].key.BytesBE())
	require.NoError(t, err)
	p2, err := ref.GetProof(kvs[len(kvs)-1].key.BytesBE())
	require.NoError(t, err)
	// Drop the root node from both proofs.
	proofs := append(p1[1:], p2[1:]...)

	tr := NewTrie(nil, newTestStore())
	res, _, err := tr.MergeRange(root, util.Uint256{}, nil, toRangeLeaves(kvs), proofs)
	require.NoError(t, err)
	require.Equal(t, RangeMissingRootProof, res)
}

func TestMergeRangeNoProofs(t *testing.T) {
	kvs := prepareLeaves(t, 50)
	ref := buildReference(t, kvs)
	root := ref.StateRoot()

	t.Run("good", func(t *testing.T) {
		ps := storage.NewMemoryStore()
		cache := storage.NewMemCachedStore(ps)
		tr := NewTrie(nil, cache)
		res, more, err := tr.MergeRange(root, util.Uint256{}, nil, toRangeLeaves(kvs), nil)
		require.NoError(t, err)
		require.Equal(t, RangeOK, res)
		require.False(t, more)
		_, err = cache.Persist()
		require.NoError(t, err)
		checkSynced(t, ps, root, kvs)
	})
	t.Run("tampered", func(t *testing.T) {
		leaves := toRangeLeaves(kvs)
		leaves[0].Value = copySlice(leaves[0].Value)
		leaves[0].Value[0] ^= 0xFF
		tr := NewTrie(nil, newTestStore())
		res, _, err := tr.MergeRange(root, util.Uint256{}, nil, leaves, nil)
		require.NoError(t, err)
		require.Equal(t, RangeDifferentRoot, res)
	})
}

func TestMergeRangeIdempotent(t *testing.T) {
	kvs := prepareLeaves(t, 50)
	ref := buildReference(t, kvs)
	root := ref.StateRoot()
	proofs := rangeProof(t, ref, kvs[0].key, kvs[len(kvs)-1].key)
	ps := storage.NewMemoryStore()

	for i := 0; i < 2; i++ {
		cache := storage.NewMemCachedStore(ps)
		tr := NewTrie(nil, cache)
		res, more, err := tr.MergeRange(root, util.Uint256{}, nil, toRangeLeaves(kvs), proofs)
		require.NoError(t, err)
		require.Equal(t, RangeOK, res)
		require.False(t, more)
		_, err = cache.Persist()
		require.NoError(t, err)
	}
	checkSynced(t, ps, root, kvs)
}

func TestMergeRangeMoreChildrenToRight(t *testing.T) {
	k1, err := util.Uint256DecodeStringBE("0000000000000000000000000000000000000000000000000000000000000001")
	require.NoError(t, err)
	k2, err := util.Uint256DecodeStringBE("8000000000000000000000000000000000000000000000000000000000000000")
	require.NoError(t, err)
	kvs := []kvPair{
		{key: k1, value: []byte("first")},
		{key: k2, value: []byte("second")},
	}
	ref := buildReference(t, kvs)
	root := ref.StateRoot()
	proofs := rangeProof(t, ref, k1, k1)

	t.Run("no limit", func(t *testing.T) {
		tr := NewTrie(nil, newTestStore())
		res, more, err := tr.MergeRange(root, util.Uint256{}, nil, toRangeLeaves(kvs[:1]), proofs)
		require.NoError(t, err)
		require.Equal(t, RangeOK, res)
		require.True(t, more)
	})
	t.Run("limit left of the remaining child", func(t *testing.T) {
		limit, err := util.Uint256DecodeStringBE("7000000000000000000000000000000000000000000000000000000000000000")
		require.NoError(t, err)
		tr := NewTrie(nil, newTestStore())
		res, more, err := tr.MergeRange(root, util.Uint256{}, &limit, toRangeLeaves(kvs[:1]), proofs)
		require.NoError(t, err)
		require.Equal(t, RangeOK, res)
		require.False(t, more)
	})
	t.Run("limit right of the remaining child", func(t *testing.T) {
		limit, err := util.Uint256DecodeStringBE("9000000000000000000000000000000000000000000000000000000000000000")
		require.NoError(t, err)
		tr := NewTrie(nil, newTestStore())
		res, more, err := tr.MergeRange(root, util.Uint256{}, &limit, toRangeLeaves(kvs[:1]), proofs)
		require.NoError(t, err)
		require.Equal(t, RangeOK, res)
		require.True(t, more)
	})

	// The second range completes the trie.
	ps := storage.NewMemoryStore()
	cache := storage.NewMemCachedStore(ps)
	tr := NewTrie(nil, cache)
	res, more, err := tr.MergeRange(root, util.Uint256{}, nil, toRangeLeaves(kvs[:1]), proofs)
	require.NoError(t, err)
	require.Equal(t, RangeOK, res)
	require.True(t, more)
	_, err = cache.Persist()
	require.NoError(t, err)

	cache = storage.NewMemCachedStore(ps)
	tr = NewTrie(nil, cache)
	res, more, err = tr.MergeRange(root, nextPath(k1), nil, toRangeLeaves(kvs[1:]), rangeProof(t, ref, k2, k2))
	require.NoError(t, err)
	require.Equal(t, RangeOK, res)
	require.False(t, more)
	_, err = cache.Persist()
	require.NoError(t, err)
	checkSynced(t, ps, root, kvs)
}

func TestMergeRangeBadLeaves(t *testing.T) {
	kvs := prepareLeaves(t, 10)
	ref := buildReference(t, kvs)
	root := ref.StateRoot()
	proofs := rangeProof(t, ref, kvs[0].key, kvs[len(kvs)-1].key)

	t.Run("unsorted", func(t *testing.T) {
		leaves := toRangeLeaves(kvs)
		leaves[2], leaves[3] = leaves[3], leaves[2]
		tr := NewTrie(nil, newTestStore())
		_, _, err := tr.MergeRange(root, util.Uint256{}, nil, leaves, proofs)
		require.ErrorIs(t, err, ErrLeavesUnsorted)
	})
	t.Run("before start", func(t *testing.T) {
		tr := NewTrie(nil, newTestStore())
		_, _, err := tr.MergeRange(root, nextPath(kvs[0].key), nil, toRangeLeaves(kvs), proofs)
		require.ErrorIs(t, err, ErrLeafOutOfRange)
	})
	t.Run("empty value", func(t *testing.T) {
		leaves := toRangeLeaves(kvs)
		leaves[0].Value = nil
		tr := NewTrie(nil, newTestStore())
		_, _, err := tr.MergeRange(root, util.Uint256{}, nil, leaves, proofs)
		require.Error(t, err)
	})
	t.Run("garbage proof", func(t *testing.T) {
		tr := NewTrie(nil, newTestStore())
		_, _, err := tr.MergeRange(root, util.Uint256{}, nil, toRangeLeaves(kvs), [][]byte{{0xFF, 0x01}})
		require.Error(t, err)
	})
}
