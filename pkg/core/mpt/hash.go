package mpt

import (
	"github.com/quillchain/quill-go/pkg/io"
	"github.com/quillchain/quill-go/pkg/util"
)

// HashNode represents an MPT's hash node.
type HashNode struct {
	BaseNode
}

var _ Node = (*HashNode)(nil)

// NewHashNode returns a hash node with the specified hash.
func NewHashNode(h util.Uint256) *HashNode {
	return &HashNode{
		BaseNode: BaseNode{
			hash:      h,
			hashValid: true,
		},
	}
}

// Type implements the Node interface.
func (h *HashNode) Type() NodeType { return HashT }

// Hash implements the BaseNodeIface interface.
func (h *HashNode) Hash() util.Uint256 {
	if !h.hashValid {
		panic("can't get hash of an empty HashNode")
	}
	return h.hash
}

// Bytes returns the serialized representation of this node.
func (h *HashNode) Bytes() []byte {
	return h.getBytes(h)
}

// DecodeBinary implements io.Serializable.
func (h *HashNode) DecodeBinary(r *io.BinReader) {
	if h.hashValid {
		r.ReadBytes(h.hash[:])
	}
}

// EncodeBinary implements io.Serializable.
func (h HashNode) EncodeBinary(w *io.BinWriter) {
	if !h.hashValid {
		return
	}
	w.WriteBytes(h.hash[:])
}
