package mpt

import (
	"errors"

	"github.com/quillchain/quill-go/pkg/io"
	"github.com/quillchain/quill-go/pkg/util"
)

// maxPathLength is the max length of the extension node key in nibbles.
const maxPathLength = util.Uint256Size * 2

// ExtensionNode represents an MPT's extension node.
type ExtensionNode struct {
	BaseNode
	key  []byte
	next Node
}

var _ Node = (*ExtensionNode)(nil)

// NewExtensionNode returns a hash node with the specified key and the next
// node. Note: because it is a part of a Trie, the key must be mangled, i.e.
// must contain only bytes with high half = 0.
func NewExtensionNode(key []byte, next Node) *ExtensionNode {
	return &ExtensionNode{
		key:  key,
		next: next,
	}
}

// Type implements the Node interface.
func (e ExtensionNode) Type() NodeType { return ExtensionT }

// Hash implements the BaseNodeIface interface.
func (e *ExtensionNode) Hash() util.Uint256 {
	return e.getHash(e)
}

// Bytes implements the BaseNodeIface interface.
func (e *ExtensionNode) Bytes() []byte {
	return e.getBytes(e)
}

// DecodeBinary implements io.Serializable.
func (e *ExtensionNode) DecodeBinary(r *io.BinReader) {
	sz := r.ReadVarUint()
	if sz > maxPathLength {
		r.Err = errors.New("extension node key is too big")
		return
	}
	e.key = make([]byte, sz)
	r.ReadBytes(e.key)
	e.next = decodeBinaryAsChild(r)
	e.invalidateCache()
}

// EncodeBinary implements io.Serializable.
func (e ExtensionNode) EncodeBinary(w *io.BinWriter) {
	w.WriteVarBytes(e.key)
	encodeBinaryAsChild(e.next, w)
}
