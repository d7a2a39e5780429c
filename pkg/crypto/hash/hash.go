package hash

import (
	"crypto/sha256"

	"github.com/quillchain/quill-go/pkg/util"
	"golang.org/x/crypto/sha3"
)

// Sha256 hashes the incoming byte slice using the sha256 algorithm.
func Sha256(data []byte) util.Uint256 {
	return util.Uint256(sha256.Sum256(data))
}

// DoubleSha256 performs sha256 twice on the given data. It is used for
// content-addressing trie nodes.
func DoubleSha256(data []byte) util.Uint256 {
	h1 := sha256.Sum256(data)
	return util.Uint256(sha256.Sum256(h1[:]))
}

// Keccak256 hashes the incoming byte slice using the legacy keccak256
// algorithm. It is used for contract code hashes.
func Keccak256(data []byte) util.Uint256 {
	var hash util.Uint256
	hasher := sha3.NewLegacyKeccak256()
	_, _ = hasher.Write(data)

	copy(hash[:], hasher.Sum(nil))
	return hash
}
