/*
Package mpt implements a Merkle Patricia Trie over 32-byte keys.

The trie is a content-addressed graph of nodes. A node is referenced by the
double SHA-256 hash of its serialized representation and is stored under
that hash in the backing store. There are four full node types, branch
(17 children), extension (a shared nibble prefix in front of a single
child) and leaf (a value), plus two reference forms, a hash node standing
for a known-but-not-loaded node and an empty node standing for absence.
Keys are mangled into 4-bit nibbles before traversal, so every path is at
most 64 nibbles long and leaves always sit at full depth.

Besides the usual Get/Put operations the package implements verified range
merging (see Trie.MergeRange): a contiguous window of leaves accompanied by
Merkle range proofs is reconciled with the partially-known trie, checked
against the expected root hash and flushed to the store, while the nodes
whose subtrees extend beyond the window are tracked as boundary nodes and
persisted only once the neighbouring windows complete them.
*/
package mpt
