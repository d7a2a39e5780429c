package mpt

import (
	"bytes"
	"errors"

	"github.com/quillchain/quill-go/pkg/core/storage"
	"github.com/quillchain/quill-go/pkg/crypto/hash"
	"github.com/quillchain/quill-go/pkg/util"
)

// GetProof returns a proof of existence of the key in t. The proof consists
// of serialized nodes on the path from the root to the leaf, root node
// included.
func (t *Trie) GetProof(key []byte) ([][]byte, error) {
	var proof [][]byte
	if len(key) > MaxKeyLength {
		return nil, errors.New("key is too big")
	}
	path := toNibbles(key)
	r, err := t.getProof(t.root, path, &proof)
	if err != nil {
		return proof, err
	}
	t.root = r
	return proof, nil
}

func (t *Trie) getProof(curr Node, path []byte, proofs *[][]byte) (Node, error) {
	switch n := curr.(type) {
	case *LeafNode:
		if len(path) == 0 {
			*proofs = append(*proofs, copySlice(n.Bytes()))
			return n, nil
		}
	case *BranchNode:
		*proofs = append(*proofs, copySlice(n.Bytes()))
		i, path := splitPath(path)
		r, err := t.getProof(n.Children[i], path, proofs)
		if err != nil {
			return nil, err
		}
		n.Children[i] = r
		return n, nil
	case *ExtensionNode:
		if bytes.HasPrefix(path, n.key) {
			*proofs = append(*proofs, copySlice(n.Bytes()))
			r, err := t.getProof(n.next, path[len(n.key):], proofs)
			if err != nil {
				return nil, err
			}
			n.next = r
			return n, nil
		}
	case *HashNode:
		r, err := t.getFromStore(n.Hash())
		if err != nil {
			return nil, err
		}
		return t.getProof(r, path, proofs)
	}
	return nil, ErrNotFound
}

// VerifyProof verifies the given proof. The key is a trie path, the proof is
// a set of serialized nodes, root node first. It returns the value for the
// key if it's proven to be a part of the trie with the specified root hash.
func VerifyProof(rh util.Uint256, key []byte, proofs [][]byte) ([]byte, bool) {
	path := toNibbles(key)
	tr := NewTrie(NewHashNode(rh), storage.NewMemCachedStore(storage.NewMemoryStore()))
	for i := range proofs {
		h := hash.DoubleSha256(proofs[i])
		_ = tr.Store.Put(makeStorageKey(h), proofs[i]) // Put never errors.
	}
	_, leaf, err := tr.getWithPath(tr.root, path)
	if err != nil {
		return nil, false
	}
	return leaf.(*LeafNode).value, true
}
