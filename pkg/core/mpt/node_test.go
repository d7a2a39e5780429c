package mpt

import (
	"testing"

	"github.com/quillchain/quill-go/internal/random"
	"github.com/quillchain/quill-go/pkg/io"
	"github.com/stretchr/testify/require"
)

func testNodeRoundtrip(t *testing.T, n Node) Node {
	data, err := io.ToByteArray(&NodeObject{Node: n})
	require.NoError(t, err)
	var decoded NodeObject
	require.NoError(t, io.FromByteArray(&decoded, data))
	require.Equal(t, n.Type(), decoded.Type())
	require.Equal(t, n.Hash(), decoded.Hash())
	return decoded.Node
}

func TestNodeSerialization(t *testing.T) {
	t.Run("leaf", func(t *testing.T) {
		l := NewLeafNode(random.Bytes(42))
		res := testNodeRoundtrip(t, l)
		require.Equal(t, l.value, res.(*LeafNode).value)
	})
	t.Run("extension", func(t *testing.T) {
		e := NewExtensionNode([]byte{0x01, 0x02, 0x03}, NewHashNode(random.Uint256()))
		res := testNodeRoundtrip(t, e)
		require.Equal(t, e.key, res.(*ExtensionNode).key)
		require.Equal(t, e.next.Hash(), res.(*ExtensionNode).next.Hash())
	})
	t.Run("branch", func(t *testing.T) {
		b := NewBranchNode()
		b.Children[0] = NewHashNode(random.Uint256())
		b.Children[10] = NewHashNode(random.Uint256())
		res := testNodeRoundtrip(t, b)
		require.Equal(t, b.Children[0].Hash(), res.(*BranchNode).Children[0].Hash())
		require.True(t, isEmpty(res.(*BranchNode).Children[5]))
	})
	t.Run("invalid type", func(t *testing.T) {
		var decoded NodeObject
		require.Error(t, io.FromByteArray(&decoded, []byte{0xFF}))
	})
	t.Run("extension key too big", func(t *testing.T) {
		e := NewExtensionNode(make([]byte, maxPathLength+1), NewHashNode(random.Uint256()))
		data, err := io.ToByteArray(&NodeObject{Node: e})
		require.NoError(t, err)
		var decoded NodeObject
		require.Error(t, io.FromByteArray(&decoded, data))
	})
}

func TestNibbles(t *testing.T) {
	key := random.Bytes(32)
	nibbles := toNibbles(key)
	require.Equal(t, len(key)*2, len(nibbles))
	for _, n := range nibbles {
		require.Less(t, n, byte(0x10))
	}
	require.Equal(t, key, fromNibbles(nibbles))
}

func TestLCP(t *testing.T) {
	require.Equal(t, []byte{1, 2}, lcp([]byte{1, 2, 3}, []byte{1, 2, 4}))
	require.Equal(t, []byte{1, 2, 3}, lcp([]byte{1, 2, 3}, []byte{1, 2, 3}))
	require.Empty(t, lcp([]byte{1}, []byte{2}))
	require.Empty(t, lcp(nil, []byte{1}))
}
