package mpt

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/quillchain/quill-go/pkg/core/storage"
	"github.com/quillchain/quill-go/pkg/io"
	"github.com/quillchain/quill-go/pkg/util"
)

// Trie is an MPT trie storing all key-value pairs.
type Trie struct {
	Store *storage.MemCachedStore

	root Node
}

// ErrNotFound is returned when the requested trie item is missing.
var ErrNotFound = errors.New("item not found")

// NewTrie returns a new MPT trie. It accepts a MemCachedStore to decouple
// storage errors from logic errors, so that all storage errors are
// processed during `store.Persist()` at the caller side. The trie doesn't
// natively handle the store's errors, some functions can panic if the
// storage is unavailable.
func NewTrie(root Node, store *storage.MemCachedStore) *Trie {
	if root == nil {
		root = EmptyNode{}
	}
	return &Trie{
		Store: store,
		root:  root,
	}
}

// Get returns the value for the provided key in t.
func (t *Trie) Get(key []byte) ([]byte, error) {
	if len(key) > MaxKeyLength {
		return nil, errors.New("key is too big")
	}
	path := toNibbles(key)
	r, leaf, err := t.getWithPath(t.root, path)
	if err != nil {
		return nil, err
	}
	t.root = r
	return copySlice(leaf.(*LeafNode).value), nil
}

// getWithPath returns the current node with all hash nodes along the path
// replaced by their "unhashed" counterparts.
func (t *Trie) getWithPath(curr Node, path []byte) (Node, Node, error) {
	switch n := curr.(type) {
	case *LeafNode:
		if len(path) == 0 {
			return curr, n, nil
		}
	case *BranchNode:
		i, path := splitPath(path)
		r, leaf, err := t.getWithPath(n.Children[i], path)
		if err != nil {
			return nil, nil, err
		}
		n.Children[i] = r
		return n, leaf, nil
	case EmptyNode:
	case *HashNode:
		if r, err := t.getFromStore(n.hash); err == nil {
			return t.getWithPath(r, path)
		}
	case *ExtensionNode:
		if bytes.HasPrefix(path, n.key) {
			r, leaf, err := t.getWithPath(n.next, path[len(n.key):])
			if err != nil {
				return nil, nil, err
			}
			n.next = r
			return curr, leaf, nil
		}
	default:
		panic("invalid MPT node type")
	}
	return curr, nil, ErrNotFound
}

// MaxKeyLength is the max length of the extension node key.
const MaxKeyLength = util.Uint256Size

// Put puts key-value pair in t.
func (t *Trie) Put(key, value []byte) error {
	if len(key) > MaxKeyLength {
		return errors.New("key is too big")
	} else if len(value) > MaxValueLength {
		return errors.New("value is too big")
	} else if len(value) == 0 {
		return errors.New("value is empty")
	}
	path := toNibbles(key)
	n := NewLeafNode(value)
	r, err := t.putIntoNode(t.root, path, n)
	if err != nil {
		return err
	}
	t.root = r
	return nil
}

// putIntoLeaf puts the val to the trie if the current node is a Leaf.
// It returns a Node if curr needs to be replaced and an error has occurred,
// if any.
func (t *Trie) putIntoLeaf(curr *LeafNode, path []byte, val Node) (Node, error) {
	if len(path) == 0 {
		return val, nil
	}
	// All keys have the same fixed length, the path can't diverge
	// in the middle of a leaf.
	return nil, errors.New("leaf found on the non-final key position")
}

// putIntoBranch puts the val to the trie if the current node is a Branch.
// It returns the Node if curr needs to be replaced and an error has occurred,
// if any.
func (t *Trie) putIntoBranch(curr *BranchNode, path []byte, val Node) (Node, error) {
	i, path := splitPath(path)
	r, err := t.putIntoNode(curr.Children[i], path, val)
	if err != nil {
		return nil, err
	}
	curr.Children[i] = r
	curr.invalidateCache()
	return curr, nil
}

// putIntoExtension puts the val to the trie if the current node is an
// Extension. It returns the Node if curr needs to be replaced and an error
// has occurred, if any.
func (t *Trie) putIntoExtension(curr *ExtensionNode, path []byte, val Node) (Node, error) {
	if bytes.HasPrefix(path, curr.key) {
		r, err := t.putIntoNode(curr.next, path[len(curr.key):], val)
		if err != nil {
			return nil, err
		}
		curr.next = r
		curr.invalidateCache()
		return curr, nil
	}

	pref := lcp(curr.key, path)
	lp := len(pref)
	keyTail := curr.key[lp:]
	pathTail := path[lp:]

	b := NewBranchNode()
	b.Children[keyTail[0]] = t.newSubTrie(keyTail[1:], curr.next)

	i, pathTail := splitPath(pathTail)
	s2, err := t.newSubTrieFromPath(pathTail, val)
	if err != nil {
		return nil, err
	}
	b.Children[i] = s2

	if lp > 0 {
		return NewExtensionNode(copySlice(pref), b), nil
	}
	return b, nil
}

// putIntoHash puts the val to the trie if the current node is a HashNode.
// It returns the Node if curr needs to be replaced and an error has
// occurred, if any.
func (t *Trie) putIntoHash(curr *HashNode, path []byte, val Node) (Node, error) {
	result, err := t.getFromStore(curr.hash)
	if err != nil {
		return nil, err
	}
	return t.putIntoNode(result, path, val)
}

// putIntoEmpty puts the val to the trie if the current node is an EmptyNode.
// It returns the Node if curr needs to be replaced and an error has
// occurred, if any.
func (t *Trie) putIntoEmpty(path []byte, val Node) (Node, error) {
	return t.newSubTrieFromPath(path, val)
}

// newSubTrie creates a new trie containing the node at the provided path.
func (t *Trie) newSubTrie(path []byte, val Node) Node {
	if len(path) == 0 {
		return val
	}
	return NewExtensionNode(path, val)
}

// newSubTrieFromPath creates a new trie containing the node at the provided
// path, copying the path slice.
func (t *Trie) newSubTrieFromPath(path []byte, val Node) (Node, error) {
	if len(path) == 0 {
		return val, nil
	}
	return NewExtensionNode(copySlice(path), val), nil
}

// putIntoNode puts the val with the provided path inside curr and returns
// an updated node.
func (t *Trie) putIntoNode(curr Node, path []byte, val Node) (Node, error) {
	switch n := curr.(type) {
	case *LeafNode:
		return t.putIntoLeaf(n, path, val)
	case *BranchNode:
		return t.putIntoBranch(n, path, val)
	case *ExtensionNode:
		return t.putIntoExtension(n, path, val)
	case *HashNode:
		return t.putIntoHash(n, path, val)
	case EmptyNode:
		return t.putIntoEmpty(path, val)
	default:
		panic("invalid MPT node type")
	}
}

// StateRoot returns the root hash of t. Note: this can be different from
// the root hash of the underlying store.
func (t *Trie) StateRoot() util.Uint256 {
	if isEmpty(t.root) {
		return util.Uint256{}
	}
	return t.root.Hash()
}

// Flush puts every new node in the trie to the storage layer, boundary
// nodes are kept in memory until they're stitched.
func (t *Trie) Flush() {
	t.flush(t.root)
}

func (t *Trie) flush(node Node) {
	if node.IsFlushed() {
		return
	}
	switch n := node.(type) {
	case *BranchNode:
		for i := range n.Children {
			t.flush(n.Children[i])
		}
	case *ExtensionNode:
		t.flush(n.next)
	case *HashNode, EmptyNode:
		return
	}
	if node.IsBoundary() {
		return
	}
	t.putToStore(node)
}

func (t *Trie) putToStore(n Node) {
	if n.Type() == HashT || n.Type() == EmptyT {
		panic("can't put hash or empty node in trie")
	}
	_ = t.Store.Put(makeStorageKey(n.Hash()), n.Bytes()) // put never errors
	n.SetFlushed()
}

func (t *Trie) getFromStore(h util.Uint256) (Node, error) {
	data, err := t.Store.Get(makeStorageKey(h))
	if err != nil {
		return nil, err
	}

	var n NodeObject
	r := io.NewBinReaderFromBuf(data)
	n.DecodeBinary(r)
	if r.Err != nil {
		return nil, r.Err
	}

	n.Node.(flushedNode).setCache(data, h)
	n.Node.SetFlushed()
	return n.Node, nil
}

// nodeIsPersisted checks whether the node behind the given hash is available
// from the storage layer.
func (t *Trie) nodeIsPersisted(h util.Uint256) bool {
	_, err := t.Store.Get(makeStorageKey(h))
	return err == nil
}

// makeStorageKey mangles the given hash with the MPT data prefix.
func makeStorageKey(mptKey util.Uint256) []byte {
	return append([]byte{byte(storage.DataMPT)}, mptKey.BytesBE()...)
}

// Collapse compresses all nodes at depth n to the hash nodes. Note: this
// function is `impure`, the node's hashes are used, so a flush is expected
// beforehand.
func (t *Trie) Collapse(depth int) {
	if depth < 0 {
		panic("negative depth")
	}
	t.root = collapse(depth, t.root)
}

func collapse(depth int, node Node) Node {
	switch node.(type) {
	case *HashNode, EmptyNode:
		return node
	}
	if depth == 0 {
		return NewHashNode(node.Hash())
	}

	switch n := node.(type) {
	case *BranchNode:
		for i := range n.Children {
			n.Children[i] = collapse(depth-1, n.Children[i])
		}
	case *ExtensionNode:
		n.next = collapse(depth-1, n.next)
	case *LeafNode:
	default:
		panic(fmt.Sprintf("collapse: invalid MPT node type %T", node))
	}
	return node
}
