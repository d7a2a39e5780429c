package mpt

import (
	"github.com/quillchain/quill-go/pkg/io"
	"github.com/quillchain/quill-go/pkg/util"
)

// EmptyNode represents an empty node.
type EmptyNode struct{}

// DecodeBinary implements io.Serializable.
func (e EmptyNode) DecodeBinary(*io.BinReader) {
}

// EncodeBinary implements io.Serializable.
func (e EmptyNode) EncodeBinary(*io.BinWriter) {
}

// Hash implements the Node interface.
func (e EmptyNode) Hash() util.Uint256 {
	panic("can't get hash of an EmptyNode")
}

// Type implements the Node interface.
func (e EmptyNode) Type() NodeType {
	return EmptyT
}

// Bytes implements the Node interface.
func (e EmptyNode) Bytes() []byte {
	return nil
}

// IsFlushed implements the Node interface, an empty node is always
// considered flushed.
func (e EmptyNode) IsFlushed() bool {
	return true
}

// SetFlushed implements the Node interface, it's a no-op for an empty node.
func (e EmptyNode) SetFlushed() {
}

// IsBoundary implements the Node interface, an empty node is never a
// boundary one.
func (e EmptyNode) IsBoundary() bool {
	return false
}

// SetBoundary implements the Node interface, it's a no-op for an empty node.
func (e EmptyNode) SetBoundary(bool) {
}
