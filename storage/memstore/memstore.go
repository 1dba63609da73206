// Package memstore is the in-memory ContentStore used for network nodes.
package memstore

import (
	"sort"
	"sync"

	"xdao.co/cidnet/cidutil"
	"xdao.co/cidnet/storage"
)

// Store maps CIDs to payloads for a single node.
//
// Content lives only as long as the Store value does. Store is safe for
// concurrent use.
type Store struct {
	mu      sync.RWMutex
	objects map[storage.CID][]byte
}

var (
	_ storage.ContentStore = (*Store)(nil)
	_ storage.Lister       = (*Store)(nil)
)

// New returns an empty Store.
func New() *Store {
	return &Store{objects: make(map[storage.CID][]byte)}
}

// Put inserts payload under its CID unless an entry already exists.
// It never fails.
func (s *Store) Put(payload []byte) (storage.CID, error) {
	id := cidutil.Generate(payload)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[id]; !ok {
		s.objects[id] = clone(payload)
	}
	return id, nil
}

func (s *Store) Get(id storage.CID) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.objects[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return clone(b), nil
}

func (s *Store) Has(id storage.CID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[id]
	return ok
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// CIDs returns the held CIDs in lexicographic order.
func (s *Store) CIDs() []storage.CID {
	s.mu.RLock()
	out := make([]storage.CID, 0, len(s.objects))
	for id := range s.objects {
		out = append(out, id)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
