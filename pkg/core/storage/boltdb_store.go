package storage

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/quillchain/quill-go/pkg/core/storage/dbconfig"
	"github.com/syndtr/goleveldb/leveldb/util"
	"go.etcd.io/bbolt"
)

// Bucket represents bucket used in boltdb to store all the data.
var Bucket = []byte("DB")

// BoltDBStore it is the storage implementation for storing and retrieving
// state data.
type BoltDBStore struct {
	db *bbolt.DB
}

// NewBoltDBStore returns a new ready to use BoltDB storage with created
// bucket.
func NewBoltDBStore(cfg dbconfig.BoltDBOptions) (*BoltDBStore, error) {
	cp := *bbolt.DefaultOptions
	cp.ReadOnly = cfg.ReadOnly
	cp.Timeout = time.Second
	fileMode := os.FileMode(0600) // should be exposed via BoltDBOptions if anything needed
	fileName := cfg.FilePath
	if !cp.ReadOnly {
		if err := os.MkdirAll(filepath.Dir(fileName), os.ModePerm); err != nil {
			return nil, fmt.Errorf("could not create dir for BoltDB: %w", err)
		}
	}
	db, err := bbolt.Open(fileName, fileMode, &cp)
	if err != nil {
		return nil, fmt.Errorf("failed to open BoltDB instance: %w", err)
	}
	if !cp.ReadOnly {
		err = db.Update(func(tx *bbolt.Tx) error {
			_, err = tx.CreateBucketIfNotExists(Bucket)
			if err != nil {
				return fmt.Errorf("could not create root bucket: %w", err)
			}
			return nil
		})
		if err != nil {
			closeErr := db.Close()
			err = fmt.Errorf("failed to initialize BoltDB instance: %w", err)
			if closeErr != nil {
				err = fmt.Errorf("%w, failed to close BoltDB instance: %v", err, closeErr)
			}
			return nil, err
		}
	}

	return &BoltDBStore{db: db}, nil
}

// Get implements the Store interface.
func (s *BoltDBStore) Get(key []byte) (val []byte, err error) {
	err = s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(Bucket)
		val = b.Get(key)
		// Value from Get is only valid for the lifetime of transaction.
		if val != nil {
			var valCopy = make([]byte, len(val))
			copy(valCopy, val)
			val = valCopy
		}
		return nil
	})
	if val == nil {
		err = ErrKeyNotFound
	}
	return
}

// PutChangeSet implements the Store interface.
func (s *BoltDBStore) PutChangeSet(puts map[string][]byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(Bucket)
		for k, v := range puts {
			var err error
			if v != nil {
				err = b.Put([]byte(k), v)
			} else {
				err = b.Delete([]byte(k))
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// Seek implements the Store interface.
func (s *BoltDBStore) Seek(rng SeekRange, f func(k, v []byte) bool) {
	start := make([]byte, len(rng.Prefix)+len(rng.Start))
	copy(start, rng.Prefix)
	copy(start[len(rng.Prefix):], rng.Start)

	if rng.Backwards {
		s.seekBackwards(rng.Prefix, start, f)
	} else {
		s.seek(rng.Prefix, start, f)
	}
}

func (s *BoltDBStore) seek(key []byte, start []byte, f func(k, v []byte) bool) {
	prefix := util.BytesPrefix(key)
	prefix.Start = start
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(Bucket).Cursor()
		for k, v := c.Seek(prefix.Start); k != nil && (len(prefix.Limit) == 0 || bytes.Compare(k, prefix.Limit) <= 0); k, v = c.Next() {
			if !f(k, v) {
				break
			}
		}
		return nil
	})
	if err != nil {
		panic(fmt.Errorf("failed to perform prefixed Seek in BoltDB: %w", err))
	}
}

func (s *BoltDBStore) seekBackwards(key []byte, start []byte, f func(k, v []byte) bool) {
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(Bucket).Cursor()
		// Move cursor to the first kv pair which is followed by the pair
		// matching the specified prefix.
		if len(start) == 0 {
			lastKey, _ := c.Last()
			start = lastKey
		}
		rng := util.BytesPrefix(start)
		c.Seek(rng.Limit)
		for k, v := c.Prev(); k != nil && bytes.HasPrefix(k, key); k, v = c.Prev() {
			if !f(k, v) {
				break
			}
		}
		return nil
	})
	if err != nil {
		panic(fmt.Errorf("failed to perform backwards Seek in BoltDB: %w", err))
	}
}

// Close releases all db resources.
func (s *BoltDBStore) Close() error {
	return s.db.Close()
}
