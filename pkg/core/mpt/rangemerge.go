package mpt

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/quillchain/quill-go/pkg/crypto/hash"
	"github.com/quillchain/quill-go/pkg/io"
	"github.com/quillchain/quill-go/pkg/util"
)

// RangeResult is the verdict of a single range merge.
type RangeResult byte

// Possible range merge verdicts.
const (
	// RangeOK means the range was verified and persisted.
	RangeOK RangeResult = iota
	// RangeDifferentRoot means the recomputed root hash doesn't match the
	// expected one, nothing was persisted.
	RangeDifferentRoot
	// RangeMissingRootProof means a non-empty proof set was given, but the
	// node with the expected root hash is not among the proofs.
	RangeMissingRootProof
)

// String implements the fmt.Stringer interface.
func (r RangeResult) String() string {
	switch r {
	case RangeOK:
		return "OK"
	case RangeDifferentRoot:
		return "DifferentRoot"
	case RangeMissingRootProof:
		return "MissingRootProof"
	default:
		return fmt.Sprintf("RangeResult(%d)", byte(r))
	}
}

// RangeLeaf is a single leaf of a range response, a fixed-width key path
// together with its raw value.
type RangeLeaf struct {
	Path  util.Uint256
	Value []byte
}

// Errors returned by MergeRange for malformed range responses.
var (
	ErrLeavesUnsorted = errors.New("leaves are not in strictly ascending order")
	ErrLeafOutOfRange = errors.New("leaf precedes the requested range start")
)

// rangeMerge holds the scratch state of a single MergeRange call.
type rangeMerge struct {
	trie   *Trie
	proofs map[util.Uint256]Node
	// left, right and limit are nibble paths of the requested range start,
	// the last supplied leaf and the response window end (nil when the
	// requester set no window).
	left  []byte
	right []byte
	limit []byte
	// boundary is the list of attached proof nodes together with their
	// trie paths, in attach (top-down) order.
	boundary []boundaryEntry
	// stubs are branch slots whose child subtree was pruned but whose
	// child hash is known from the proofs.
	stubs []hashStub
	more  bool
}

type boundaryEntry struct {
	node Node
	path []byte
}

type hashStub struct {
	// path leads to the branch slot, the last nibble is the child index.
	path []byte
	hash util.Uint256
}

// MergeRange merges a contiguous range of leaves into the trie. The leaves
// must be sorted in strictly ascending path order and start at or after the
// start path. The proofs are serialized trie nodes covering the paths to the
// first and the last leaf of the range, an empty proof set means the range
// is complete and is taken starting from an empty trie. The limit, if given,
// is the upper bound of the response window requested from the remote side,
// it only affects the moreChildrenToRight reply.
//
// On RangeOK every node with a fully known subtree is written to t.Store
// along with the incomplete boundary nodes whose children are all already
// persisted. On any other result or error nothing is written, but t must
// not be reused afterwards.
//
// The second return value reports whether the remote side has more leaves
// to the right of the merged range.
func (t *Trie) MergeRange(root util.Uint256, start util.Uint256, limit *util.Uint256, leaves []RangeLeaf, proofs [][]byte) (RangeResult, bool, error) {
	if err := validateLeaves(start, leaves); err != nil {
		return RangeDifferentRoot, false, err
	}

	if len(proofs) == 0 {
		// Complete range, the whole trie is rebuilt from the leaves.
		t.root = EmptyNode{}
		if err := t.applyRangeLeaves(leaves); err != nil {
			return RangeDifferentRoot, false, err
		}
		if !t.StateRoot().Equals(root) {
			return RangeDifferentRoot, false, nil
		}
		t.Flush()
		return RangeOK, false, nil
	}

	dict, err := decodeProofNodes(proofs)
	if err != nil {
		return RangeDifferentRoot, false, err
	}
	rootNode, ok := dict[root]
	if !ok {
		return RangeMissingRootProof, false, nil
	}

	m := &rangeMerge{
		trie:   t,
		proofs: dict,
		left:   toNibbles(start.BytesBE()),
	}
	if len(leaves) > 0 {
		m.right = toNibbles(leaves[len(leaves)-1].Path.BytesBE())
	} else {
		m.right = m.left
	}
	if limit != nil {
		m.limit = toNibbles(limit.BytesBE())
	}

	m.buildBoundary(rootNode)
	t.root = rootNode
	if err := t.applyRangeLeaves(leaves); err != nil {
		return RangeDifferentRoot, false, err
	}
	m.applyStubs()

	if !t.StateRoot().Equals(root) {
		return RangeDifferentRoot, false, nil
	}
	t.Flush()
	m.stitchBoundary()
	return RangeOK, m.more, nil
}

// validateLeaves checks that the leaves are non-empty, sorted in strictly
// ascending path order and don't precede the range start.
func validateLeaves(start util.Uint256, leaves []RangeLeaf) error {
	for i := range leaves {
		if len(leaves[i].Value) == 0 {
			return fmt.Errorf("leaf %s: empty value", leaves[i].Path.StringBE())
		}
		if leaves[i].Path.CompareTo(start) < 0 {
			return fmt.Errorf("%w: %s", ErrLeafOutOfRange, leaves[i].Path.StringBE())
		}
		if i > 0 && leaves[i].Path.CompareTo(leaves[i-1].Path) <= 0 {
			return fmt.Errorf("%w: %s", ErrLeavesUnsorted, leaves[i].Path.StringBE())
		}
	}
	return nil
}

// decodeProofNodes decodes the serialized proof nodes into a dictionary
// keyed by the node hash. Every decoded node is marked as a boundary one.
func decodeProofNodes(proofs [][]byte) (map[util.Uint256]Node, error) {
	dict := make(map[util.Uint256]Node, len(proofs))
	for i := range proofs {
		r := io.NewBinReaderFromBuf(proofs[i])
		n := DecodeNodeWithType(r)
		if r.Err != nil {
			return nil, fmt.Errorf("proof node #%d: %w", i, r.Err)
		}
		if r.Len() > 0 {
			return nil, fmt.Errorf("proof node #%d: trailing bytes", i)
		}
		switch n.(type) {
		case *HashNode, EmptyNode:
			return nil, fmt.Errorf("proof node #%d: not a full node", i)
		}
		n.(flushedNode).setCache(copySlice(proofs[i]), hash.DoubleSha256(proofs[i]))
		n.SetBoundary(true)
		dict[n.Hash()] = n
	}
	return dict, nil
}

// applyRangeLeaves puts the range leaves into the trie.
func (t *Trie) applyRangeLeaves(leaves []RangeLeaf) error {
	for i := range leaves {
		if err := t.Put(leaves[i].Path.BytesBE(), leaves[i].Value); err != nil {
			return fmt.Errorf("failed to put leaf %s: %w", leaves[i].Path.StringBE(), err)
		}
	}
	return nil
}

// buildBoundary walks the proof nodes reachable from the root, resolving
// hash references through the proof dictionary, pruning the branch children
// covered by the range and keeping track of the incompletely known nodes.
func (m *rangeMerge) buildBoundary(root Node) {
	type frame struct {
		parent Node
		node   Node
		path   []byte
	}
	stack := []frame{{nil, root, []byte{}}}
	m.boundary = append(m.boundary, boundaryEntry{root, []byte{}})
	for len(stack) > 0 {
		fr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		switch n := fr.node.(type) {
		case *ExtensionNode:
			hn, ok := n.next.(*HashNode)
			if !ok {
				continue
			}
			child, ok := m.proofs[hn.Hash()]
			if ok {
				n.next = child
				n.invalidateCache()
				childPath := append(copySlice(fr.path), n.key...)
				stack = append(stack, frame{n, child, childPath})
				m.boundary = append(m.boundary, boundaryEntry{child, childPath})
				continue
			}
			// An unresolved extension inside the range window can't be
			// reconciled with the leaves to come, detach it from the
			// parent branch and let the leaves rebuild the slot.
			lp := len(fr.path)
			if lp > len(m.left) {
				lp = len(m.left)
			}
			if bytes.Compare(fr.path[:lp], m.left[:lp]) >= 0 {
				if p, ok := fr.parent.(*BranchNode); ok {
					for i := range p.Children {
						if p.Children[i] == fr.node {
							p.Children[i] = EmptyNode{}
							p.invalidateCache()
							break
						}
					}
				}
			}
		case *BranchNode:
			m.pruneBranch(n, fr.path, func(child Node, childPath []byte) {
				stack = append(stack, frame{n, child, childPath})
			})
		}
	}
}

// pruneBranch clears the branch children covered by the range, attaches the
// boundary children resolvable through the proofs and detects whether more
// leaves exist to the right of the range.
func (m *rangeMerge) pruneBranch(b *BranchNode, path []byte, push func(child Node, childPath []byte)) {
	depth := len(path)
	if depth >= len(m.left) {
		return
	}
	left, right := byte(0), byte(0x0F)
	if bytes.Equal(path, m.left[:depth]) {
		left = m.left[depth]
	}
	if bytes.Equal(path, m.right[:depth]) {
		right = m.right[depth]
	}
	limit, hasLimit := byte(0x0F), false
	if m.limit != nil && bytes.Equal(path, m.limit[:depth]) {
		limit, hasLimit = m.limit[depth], true
	}
	// Once a signal about nodes to the right has fired, everything right
	// of the last leaf is already known to be out of this response.
	max := byte(0x0F)
	if m.more {
		max = right
	}
	for ci := left; ci <= max; ci++ {
		hn, hasHash := b.Children[ci].(*HashNode)
		if hasHash && ci > right && (!hasLimit || ci < limit) {
			m.more = true
		}
		if ci > right {
			continue
		}
		if hasHash && (ci == left || ci == right) {
			if child, ok := m.proofs[hn.Hash()]; ok && child.Type() != LeafT {
				b.Children[ci] = child
				childPath := append(copySlice(path), ci)
				push(child, childPath)
				m.boundary = append(m.boundary, boundaryEntry{child, childPath})
				continue
			}
		}
		if hasHash {
			m.stubs = append(m.stubs, hashStub{
				path: append(copySlice(path), ci),
				hash: hn.Hash(),
			})
		}
		if !isEmpty(b.Children[ci]) {
			b.Children[ci] = EmptyNode{}
		}
	}
	b.invalidateCache()
}

// applyStubs restores hash references for the pruned branch slots that got
// no leaves of their own. Such slots belong to subtrees merged by previous
// ranges, keeping the reference makes the root recomputation see them.
func (m *rangeMerge) applyStubs() {
	for i := range m.stubs {
		m.applyStub(m.stubs[i])
	}
}

func (m *rangeMerge) applyStub(st hashStub) {
	n := m.trie.root
	path := st.path
	for {
		switch curr := n.(type) {
		case *BranchNode:
			if len(path) == 0 {
				return
			}
			i, rest := splitPath(path)
			if len(rest) == 0 {
				if isEmpty(curr.Children[i]) {
					curr.Children[i] = NewHashNode(st.hash)
					curr.invalidateCache()
				}
				return
			}
			n, path = curr.Children[i], rest
		case *ExtensionNode:
			if !bytes.HasPrefix(path, curr.key) {
				return
			}
			n, path = curr.next, path[len(curr.key):]
		default:
			return
		}
	}
}

// stitchBoundary walks the attached boundary nodes deepest-first and
// persists every node whose children are all durable already, clearing its
// boundary flag. The remaining boundary nodes stay in memory only, their
// subtrees are to be completed by the ranges to come.
func (m *rangeMerge) stitchBoundary() {
	for i := len(m.boundary) - 1; i >= 0; i-- {
		n := m.boundary[i].node
		if !n.IsBoundary() {
			continue
		}
		switch curr := n.(type) {
		case *BranchNode:
			stitched := true
			for ci := range curr.Children {
				if !m.childIsDurable(curr.Children[ci]) {
					stitched = false
					break
				}
			}
			if !stitched {
				continue
			}
		case *ExtensionNode:
			if !m.childIsDurable(curr.next) {
				continue
			}
		}
		n.SetBoundary(false)
		m.trie.putToStore(n)
	}
}

// childIsDurable checks whether the child node is already available from
// the storage layer.
func (m *rangeMerge) childIsDurable(n Node) bool {
	switch curr := n.(type) {
	case EmptyNode:
		return true
	case *HashNode:
		return m.trie.nodeIsPersisted(curr.Hash())
	default:
		return !n.IsBoundary()
	}
}
