package random

import (
	"math/rand"
	"time"

	"github.com/quillchain/quill-go/pkg/util"
)

// Int returns a random integer in [min,max).
func Int(min, max int) int {
	return min + rand.Intn(max-min)
}

// Bytes returns a random byte slice of the specified length.
func Bytes(n int) []byte {
	b := make([]byte, n)
	Fill(b)
	return b
}

// Uint256 returns a random Uint256.
func Uint256() util.Uint256 {
	u, _ := util.Uint256DecodeBytesBE(Bytes(util.Uint256Size))
	return u
}

// Fill fills the buffer with random bytes.
func Fill(buf []byte) {
	_, _ = rand.Read(buf)
}

func init() {
	rand.Seed(time.Now().UTC().UnixNano())
}
