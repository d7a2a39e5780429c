package mpt

// lcp returns the longest common prefix of a and b.
// Note: it does no allocations.
func lcp(a, b []byte) []byte {
	if len(a) < len(b) {
		return lcp(b, a)
	}

	var i int
	for i = range b {
		if a[i] != b[i] {
			break
		} else if i == len(b)-1 {
			i++
			break
		}
	}

	return b[:i]
}

// copySlice returns a copy of the provided slice.
func copySlice(a []byte) []byte {
	b := make([]byte, len(a))
	copy(b, a)
	return b
}

// toNibbles mangles the path by splitting every byte into 2 containing
// low- and high- 4-byte part.
func toNibbles(path []byte) []byte {
	result := make([]byte, len(path)*2)
	for i := range path {
		result[i*2] = path[i] >> 4
		result[i*2+1] = path[i] & 0x0F
	}
	return result
}

// fromNibbles performs an operation opposite to toNibbles and does no path
// validity checks.
func fromNibbles(path []byte) []byte {
	result := make([]byte, len(path)/2)
	for i := range result {
		result[i] = path[2*i]<<4 + path[2*i+1]
	}
	return result
}

// isEmpty returns true iff the node is an empty node.
func isEmpty(n Node) bool {
	_, ok := n.(EmptyNode)
	return ok
}
