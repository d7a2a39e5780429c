package mpt

import (
	"errors"

	"github.com/quillchain/quill-go/pkg/core/storage"
	"github.com/quillchain/quill-go/pkg/io"
	"github.com/quillchain/quill-go/pkg/util"
)

// MaxValueLength is the max length of a leaf node value.
const MaxValueLength = storage.MaxStorageValueLen

// LeafNode represents an MPT's leaf node.
type LeafNode struct {
	BaseNode
	value []byte
}

var _ Node = (*LeafNode)(nil)

// NewLeafNode returns a hash node with the specified value.
func NewLeafNode(value []byte) *LeafNode {
	return &LeafNode{value: value}
}

// Type implements the Node interface.
func (n LeafNode) Type() NodeType { return LeafT }

// Hash implements the BaseNodeIface interface.
func (n *LeafNode) Hash() util.Uint256 {
	return n.getHash(n)
}

// Bytes implements the BaseNodeIface interface.
func (n *LeafNode) Bytes() []byte {
	return n.getBytes(n)
}

// DecodeBinary implements io.Serializable.
func (n *LeafNode) DecodeBinary(r *io.BinReader) {
	sz := r.ReadVarUint()
	if sz > MaxValueLength {
		r.Err = errors.New("leaf node value is too big")
		return
	}
	n.value = make([]byte, sz)
	r.ReadBytes(n.value)
	n.invalidateCache()
}

// EncodeBinary implements io.Serializable.
func (n LeafNode) EncodeBinary(w *io.BinWriter) {
	w.WriteVarBytes(n.value)
}
