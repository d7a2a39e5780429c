package state

import (
	"github.com/holiman/uint256"
	"github.com/quillchain/quill-go/pkg/crypto/hash"
	"github.com/quillchain/quill-go/pkg/io"
	"github.com/quillchain/quill-go/pkg/util"
)

// EmptyCodeHash is the hash of empty contract code.
var EmptyCodeHash = hash.Keccak256(nil)

// Account is a state item of a single account, it's the value stored behind
// an account leaf of the state trie.
type Account struct {
	Nonce       uint64
	Balance     *uint256.Int
	StorageRoot util.Uint256
	CodeHash    util.Uint256
}

// NewAccount returns a new account with zero balance and no code.
func NewAccount() *Account {
	return &Account{
		Balance:  new(uint256.Int),
		CodeHash: EmptyCodeHash,
	}
}

// HasStorage checks whether the account has a non-empty storage trie.
func (a *Account) HasStorage() bool {
	return !a.StorageRoot.Equals(util.Uint256{})
}

// HasCode checks whether the account has contract code deployed.
func (a *Account) HasCode() bool {
	return !a.CodeHash.Equals(util.Uint256{}) && !a.CodeHash.Equals(EmptyCodeHash)
}

// EncodeBinary implements the io.Serializable interface.
func (a *Account) EncodeBinary(w *io.BinWriter) {
	w.WriteU64LE(a.Nonce)
	w.WriteVarBytes(a.Balance.Bytes())
	a.StorageRoot.EncodeBinary(w)
	a.CodeHash.EncodeBinary(w)
}

// DecodeBinary implements the io.Serializable interface.
func (a *Account) DecodeBinary(r *io.BinReader) {
	a.Nonce = r.ReadU64LE()
	b := r.ReadVarBytes(util.Uint256Size)
	if r.Err != nil {
		return
	}
	a.Balance = new(uint256.Int).SetBytes(b)
	a.StorageRoot.DecodeBinary(r)
	a.CodeHash.DecodeBinary(r)
}

// Bytes returns the serialized representation of the account.
func (a *Account) Bytes() ([]byte, error) {
	return io.ToByteArray(a)
}

// AccountFromBytes deserializes an account from the given byte slice.
func AccountFromBytes(b []byte) (*Account, error) {
	a := new(Account)
	if err := io.FromByteArray(a, b); err != nil {
		return nil, err
	}
	return a, nil
}
