package storage

// MemCachedStore is a wrapper around a persistent store that caches all
// changes being made for them to be later flushed in one batch.
type MemCachedStore struct {
	MemoryStore

	// del is a set of keys to be deleted from the persistent store.
	del map[string]bool
	// ps is the persistent Store.
	ps Store
}

type (
	// KeyValue represents a key-value pair.
	KeyValue struct {
		Key   []byte
		Value []byte
	}

	// KeyValueExists represents a key-value pair with the Exists flag.
	KeyValueExists struct {
		KeyValue

		Exists bool
	}

	// MemBatch represents a changeset to be persisted.
	MemBatch struct {
		Put     []KeyValueExists
		Deleted []KeyValueExists
	}
)

// NewMemCachedStore creates a new MemCachedStore object.
func NewMemCachedStore(lower Store) *MemCachedStore {
	return &MemCachedStore{
		MemoryStore: *NewMemoryStore(),
		del:         make(map[string]bool),
		ps:          lower,
	}
}

// Get implements the Store interface.
func (s *MemCachedStore) Get(key []byte) ([]byte, error) {
	s.mut.RLock()
	defer s.mut.RUnlock()
	k := string(key)
	if val, ok := s.mem[k]; ok {
		return val, nil
	}
	if _, ok := s.del[k]; ok {
		return nil, ErrKeyNotFound
	}
	return s.ps.Get(key)
}

// Delete drops a key-value pair from the store. Never returns an error.
func (s *MemCachedStore) Delete(key []byte) error {
	k := string(key)
	s.mut.Lock()
	s.drop(k)
	s.del[k] = true
	s.mut.Unlock()
	return nil
}

// Put puts a key-value pair into the store. Never returns an error.
func (s *MemCachedStore) Put(key, value []byte) error {
	k := string(key)
	vcopy := make([]byte, len(value))
	copy(vcopy, value)
	s.mut.Lock()
	s.put(k, vcopy)
	delete(s.del, k)
	s.mut.Unlock()
	return nil
}

// GetBatch returns the currently accumulated changeset.
func (s *MemCachedStore) GetBatch() *MemBatch {
	s.mut.RLock()
	defer s.mut.RUnlock()

	var b MemBatch

	b.Put = make([]KeyValueExists, 0, len(s.mem))
	for k, v := range s.mem {
		key := []byte(k)
		_, err := s.ps.Get(key)
		b.Put = append(b.Put, KeyValueExists{KeyValue: KeyValue{Key: key, Value: v}, Exists: err == nil})
	}

	b.Deleted = make([]KeyValueExists, 0, len(s.del))
	for k := range s.del {
		key := []byte(k)
		_, err := s.ps.Get(key)
		b.Deleted = append(b.Deleted, KeyValueExists{KeyValue: KeyValue{Key: key}, Exists: err == nil})
	}

	return &b
}

// Seek implements the Store interface. It iterates over both the cached and
// the persistent layer, cached values shadowing persistent ones.
func (s *MemCachedStore) Seek(rng SeekRange, f func(k, v []byte) bool) {
	s.mut.RLock()
	defer s.mut.RUnlock()

	done := false
	s.MemoryStore.seek(rng, func(k, v []byte) bool {
		done = !f(k, v)
		return !done
	})
	if done {
		return
	}
	s.ps.Seek(rng, func(k, v []byte) bool {
		elem := string(k)
		// If it's in mem, we already called f() for it in MemoryStore.seek().
		_, present := s.mem[elem]
		if !present {
			// If it's in del, we shouldn't be calling f() anyway.
			_, present = s.del[elem]
		}
		if !present {
			return f(k, v)
		}
		return true
	})
}

// Persist flushes all the MemoryStore contents into the (supposedly)
// persistent store ps. Accumulated changes are dropped on success, so
// MemCachedStore remains usable afterwards.
func (s *MemCachedStore) Persist() (int, error) {
	s.mut.Lock()
	defer s.mut.Unlock()

	keys := len(s.mem) + len(s.del)
	if keys == 0 {
		return 0, nil
	}

	puts := make(map[string][]byte, keys)
	for k, v := range s.mem {
		puts[k] = v
	}
	for k := range s.del {
		puts[k] = nil
	}
	err := s.ps.PutChangeSet(puts)
	if err != nil {
		return 0, err
	}
	s.mem = make(map[string][]byte)
	s.del = make(map[string]bool)
	return keys, nil
}

// Close implements the Store interface, clears up memory and closes the lower
// layer Store.
func (s *MemCachedStore) Close() error {
	// It's always successful.
	_ = s.MemoryStore.Close()
	return s.ps.Close()
}
