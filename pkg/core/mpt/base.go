package mpt

import (
	"github.com/quillchain/quill-go/pkg/crypto/hash"
	"github.com/quillchain/quill-go/pkg/io"
	"github.com/quillchain/quill-go/pkg/util"
)

// BaseNode implements basic things every node needs like caching hash and
// serialized representation. It's a basic node building block intended to be
// included into all node types.
type BaseNode struct {
	hash       util.Uint256
	bytes      []byte
	hashValid  bool
	bytesValid bool

	isFlushed bool
	// isBoundary is true for nodes decoded from a range proof whose full
	// subtree is not yet guaranteed to be persisted.
	isBoundary bool
}

// BaseNodeIface abstracts away basic Node functions.
type BaseNodeIface interface {
	Hash() util.Uint256
	Type() NodeType
	Bytes() []byte
	IsFlushed() bool
	SetFlushed()
	IsBoundary() bool
	SetBoundary(bool)
}

type flushedNode interface {
	setCache([]byte, util.Uint256)
}

func (b *BaseNode) setCache(bs []byte, h util.Uint256) {
	b.bytes = bs
	b.hash = h
	b.bytesValid = true
	b.hashValid = true
}

// getHash returns a hash of this BaseNode.
func (b *BaseNode) getHash(n Node) util.Uint256 {
	if !b.hashValid {
		b.updateHash(n)
	}
	return b.hash
}

// getBytes returns a slice of bytes representing this node.
func (b *BaseNode) getBytes(n Node) []byte {
	if !b.bytesValid {
		b.updateBytes(n)
	}
	return b.bytes
}

// updateHash updates the hash field for this BaseNode.
func (b *BaseNode) updateHash(n Node) {
	if n.Type() == HashT || n.Type() == EmptyT {
		panic("can't update hash for HashNode or EmptyNode")
	}
	b.hash = hash.DoubleSha256(b.getBytes(n))
	b.hashValid = true
}

// updateBytes updates the bytes field for this BaseNode.
func (b *BaseNode) updateBytes(n Node) {
	buf := io.NewBufBinWriter()
	encodeNodeWithType(n, buf.BinWriter)
	b.bytes = buf.Bytes()
	b.bytesValid = true
}

// invalidateCache sets all cache fields to an invalid state.
func (b *BaseNode) invalidateCache() {
	b.bytesValid = false
	b.hashValid = false
	b.isFlushed = false
}

// IsFlushed checks for the node flush status.
func (b *BaseNode) IsFlushed() bool {
	return b.isFlushed
}

// SetFlushed sets the 'flushed' flag to true for this node.
func (b *BaseNode) SetFlushed() {
	b.isFlushed = true
}

// IsBoundary checks whether the node is an incompletely known range proof
// node.
func (b *BaseNode) IsBoundary() bool {
	return b.isBoundary
}

// SetBoundary sets the 'boundary' flag for this node.
func (b *BaseNode) SetBoundary(v bool) {
	b.isBoundary = v
}

// encodeNodeWithType encodes the node together with its type.
func encodeNodeWithType(n Node, w *io.BinWriter) {
	w.WriteB(byte(n.Type()))
	n.EncodeBinary(w)
}
