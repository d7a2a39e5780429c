/*
Package statesync implements the state synchronization module. It accepts
contiguous ranges of state trie leaves together with Merkle range proofs,
verifies them against the expected state root and persists the verified
parts of the trie along with the raw account and contract storage data.

Ranges are applied atomically, a range that fails verification leaves the
storage untouched. The module keeps track of the trie nodes whose subtrees
are not fully known yet (boundary nodes), such nodes become persistent as
soon as the ranges covering their subtrees arrive.
*/
package statesync

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/quillchain/quill-go/pkg/config"
	"github.com/quillchain/quill-go/pkg/core/mpt"
	"github.com/quillchain/quill-go/pkg/core/state"
	"github.com/quillchain/quill-go/pkg/core/storage"
	"github.com/quillchain/quill-go/pkg/util"
	"go.uber.org/zap"
)

// defaultCodeHashCacheSize is the default size of the requested contract
// code hashes cache.
const defaultCodeHashCacheSize = 10000

type (
	// AccountEntry is a single account of an account range response.
	AccountEntry struct {
		Path    util.Uint256
		Account *state.Account
	}

	// StorageEntry is a single slot of a storage range response.
	StorageEntry struct {
		Path  util.Uint256
		Value []byte
	}

	// StorageRequest asks for a storage trie range of the given account.
	StorageRequest struct {
		Owner util.Uint256
		Root  util.Uint256
	}

	// AccountRangeResult is the outcome of a single account range merge.
	AccountRangeResult struct {
		Result              mpt.RangeResult
		MoreChildrenToRight bool
		// WithStorage lists the accounts of the range owning non-empty
		// storage tries, their storage is to be requested separately.
		WithStorage []StorageRequest
		// CodeHashes lists contract code hashes of the range not
		// requested before.
		CodeHashes []util.Uint256
	}

	// StorageRangeResult is the outcome of a single storage range merge.
	StorageRangeResult struct {
		Result              mpt.RangeResult
		MoreChildrenToRight bool
	}
)

// Module represents a state synchronization module.
type Module struct {
	lock sync.Mutex
	log  *zap.Logger
	ps   storage.Store

	codeHashes *lru.Cache
}

// NewModule returns a new instance of the state sync module.
func NewModule(cfg config.StateSync, log *zap.Logger, ps storage.Store) (*Module, error) {
	size := cfg.CodeHashCacheSize
	if size <= 0 {
		size = defaultCodeHashCacheSize
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create code hash cache: %w", err)
	}
	return &Module{
		log:        log,
		ps:         ps,
		codeHashes: cache,
	}, nil
}

// AddAccountRange merges a contiguous range of accounts of the state trie
// with the given root. The accounts must be sorted in strictly ascending
// path order starting at or after the start path, the proofs must cover the
// paths to the first and the last account of the range. On success the
// result carries the follow-up work extracted from the accounts, storage
// tries to fetch and contract code hashes to download.
func (s *Module) AddAccountRange(root, start util.Uint256, limit *util.Uint256, accounts []AccountEntry, proofs [][]byte) (*AccountRangeResult, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	leaves := make([]mpt.RangeLeaf, len(accounts))
	raw := make([][]byte, len(accounts))
	for i := range accounts {
		data, err := accounts[i].Account.Bytes()
		if err != nil {
			return nil, fmt.Errorf("failed to serialize account %s: %w", accounts[i].Path.StringBE(), err)
		}
		raw[i] = data
		leaves[i] = mpt.RangeLeaf{Path: accounts[i].Path, Value: data}
	}

	cache := storage.NewMemCachedStore(s.ps)
	tr := mpt.NewTrie(nil, cache)
	verdict, more, err := tr.MergeRange(root, start, limit, leaves, proofs)
	if err != nil {
		accountRangesFailed.Inc()
		return nil, fmt.Errorf("failed to merge account range: %w", err)
	}
	res := &AccountRangeResult{
		Result:              verdict,
		MoreChildrenToRight: more,
	}
	if verdict != mpt.RangeOK {
		accountRangesFailed.Inc()
		s.log.Warn("account range rejected",
			zap.Stringer("root", root),
			zap.Stringer("result", verdict),
			zap.Int("accounts", len(accounts)))
		return res, nil
	}

	for i := range accounts {
		_ = cache.Put(makeAccountKey(accounts[i].Path), raw[i]) // Put never errors.
		acc := accounts[i].Account
		if acc.HasStorage() {
			res.WithStorage = append(res.WithStorage, StorageRequest{
				Owner: accounts[i].Path,
				Root:  acc.StorageRoot,
			})
		}
		if acc.HasCode() {
			if _, ok := s.codeHashes.Get(acc.CodeHash); !ok {
				s.codeHashes.Add(acc.CodeHash, struct{}{})
				res.CodeHashes = append(res.CodeHashes, acc.CodeHash)
			}
		}
	}
	if _, err := cache.Persist(); err != nil {
		return nil, fmt.Errorf("failed to persist account range: %w", err)
	}
	accountRangesApplied.Inc()
	leavesApplied.Add(float64(len(accounts)))
	s.log.Info("account range applied",
		zap.Stringer("root", root),
		zap.Int("accounts", len(accounts)),
		zap.Bool("more", more))
	return res, nil
}

// AddStorageRange merges a contiguous range of storage slots of the storage
// trie with the given root belonging to the owner account. The requirements
// for slot ordering and proofs match those of AddAccountRange.
func (s *Module) AddStorageRange(owner util.Uint256, root, start util.Uint256, slots []StorageEntry, proofs [][]byte) (*StorageRangeResult, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	leaves := make([]mpt.RangeLeaf, len(slots))
	for i := range slots {
		leaves[i] = mpt.RangeLeaf{Path: slots[i].Path, Value: slots[i].Value}
	}

	cache := storage.NewMemCachedStore(s.ps)
	tr := mpt.NewTrie(nil, cache)
	verdict, more, err := tr.MergeRange(root, start, nil, leaves, proofs)
	if err != nil {
		storageRangesFailed.Inc()
		return nil, fmt.Errorf("failed to merge storage range: %w", err)
	}
	res := &StorageRangeResult{
		Result:              verdict,
		MoreChildrenToRight: more,
	}
	if verdict != mpt.RangeOK {
		storageRangesFailed.Inc()
		s.log.Warn("storage range rejected",
			zap.Stringer("owner", owner),
			zap.Stringer("root", root),
			zap.Stringer("result", verdict),
			zap.Int("slots", len(slots)))
		return res, nil
	}

	for i := range slots {
		_ = cache.Put(makeStorageItemKey(owner, slots[i].Path), slots[i].Value) // Put never errors.
	}
	if _, err := cache.Persist(); err != nil {
		return nil, fmt.Errorf("failed to persist storage range: %w", err)
	}
	storageRangesApplied.Inc()
	leavesApplied.Add(float64(len(slots)))
	s.log.Info("storage range applied",
		zap.Stringer("owner", owner),
		zap.Stringer("root", root),
		zap.Int("slots", len(slots)),
		zap.Bool("more", more))
	return res, nil
}

// GetAccount returns the previously synchronized account behind the given
// path.
func (s *Module) GetAccount(path util.Uint256) (*state.Account, error) {
	data, err := s.ps.Get(makeAccountKey(path))
	if err != nil {
		return nil, err
	}
	return state.AccountFromBytes(data)
}

// GetStorageItem returns the previously synchronized storage slot value of
// the given account.
func (s *Module) GetStorageItem(owner, path util.Uint256) ([]byte, error) {
	return s.ps.Get(makeStorageItemKey(owner, path))
}

func makeAccountKey(path util.Uint256) []byte {
	return append([]byte{byte(storage.STAccount)}, path.BytesBE()...)
}

func makeStorageItemKey(owner, path util.Uint256) []byte {
	key := make([]byte, 1+2*util.Uint256Size)
	key[0] = byte(storage.STStorage)
	copy(key[1:], owner.BytesBE())
	copy(key[1+util.Uint256Size:], path.BytesBE())
	return key
}
