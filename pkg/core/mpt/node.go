package mpt

import (
	"fmt"

	"github.com/quillchain/quill-go/pkg/io"
	"github.com/quillchain/quill-go/pkg/util"
)

// NodeType represents a node type.
type NodeType byte

// Node types definitions.
const (
	BranchT    NodeType = 0x00
	ExtensionT NodeType = 0x01
	HashT      NodeType = 0x02
	LeafT      NodeType = 0x03
	EmptyT     NodeType = 0x04
)

// NodeObject represents Node together with it's type.
// It is used for serialization/deserialization where type info
// is also expected.
type NodeObject struct {
	Node
}

// Node represents a common interface of all MPT nodes.
type Node interface {
	io.Serializable
	BaseNodeIface
}

// EncodeBinary implements io.Serializable.
func (n NodeObject) EncodeBinary(w *io.BinWriter) {
	encodeNodeWithType(n.Node, w)
}

// DecodeBinary implements io.Serializable.
func (n *NodeObject) DecodeBinary(r *io.BinReader) {
	n.Node = DecodeNodeWithType(r)
}

// DecodeNodeWithType decodes a node together with its type.
func DecodeNodeWithType(r *io.BinReader) Node {
	if r.Err != nil {
		return nil
	}
	var n Node
	switch typ := NodeType(r.ReadB()); typ {
	case BranchT:
		n = new(BranchNode)
	case ExtensionT:
		n = new(ExtensionNode)
	case HashT:
		n = &HashNode{
			BaseNode: BaseNode{
				hashValid: true,
			},
		}
	case LeafT:
		n = new(LeafNode)
	case EmptyT:
		n = EmptyNode{}
	default:
		r.Err = fmt.Errorf("invalid node type: %x", typ)
		return nil
	}
	n.DecodeBinary(r)
	return n
}

// encodeBinaryAsChild encodes a node in the compressed form suitable for
// being a child of another node.
func encodeBinaryAsChild(n Node, w *io.BinWriter) {
	if isEmpty(n) {
		w.WriteB(byte(EmptyT))
		return
	}
	w.WriteB(byte(HashT))
	w.WriteBytes(n.Hash().BytesBE())
}

// decodeBinaryAsChild decodes a child node reference, which can only be
// a hash reference or an empty node.
func decodeBinaryAsChild(r *io.BinReader) Node {
	if r.Err != nil {
		return nil
	}
	switch typ := NodeType(r.ReadB()); typ {
	case HashT:
		var h util.Uint256
		r.ReadBytes(h[:])
		return NewHashNode(h)
	case EmptyT:
		return EmptyNode{}
	default:
		r.Err = fmt.Errorf("invalid child node type: %x", typ)
		return nil
	}
}
