// Package boltstore keeps a node's content in a single bbolt file.
package boltstore

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	bolt "go.etcd.io/bbolt"

	"xdao.co/cidnet/cidutil"
	"xdao.co/cidnet/storage"
)

var bucketObjects = []byte("objects")

// Config configures the bbolt-backed store.
type Config struct {
	Path    string
	NoSync  bool
	Timeout time.Duration
}

// Store persists one node's objects in bbolt.
type Store struct {
	cfg Config
	db  *bolt.DB
}

var (
	_ storage.ContentStore = (*Store)(nil)
	_ storage.Destroyer    = (*Store)(nil)
	_ storage.Lister       = (*Store)(nil)
)

// Open opens (or creates) the bbolt file at cfg.Path.
func Open(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, errors.New("boltstore: path is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 1 * time.Second
	}
	db, err := bolt.Open(cfg.Path, 0o600, &bolt.Options{Timeout: cfg.Timeout, NoSync: cfg.NoSync})
	if err != nil {
		return nil, fmt.Errorf("boltstore: open: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketObjects)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("boltstore: init: %w", err)
	}
	return &Store{cfg: cfg, db: db}, nil
}

func (s *Store) Path() string { return s.cfg.Path }

func (s *Store) Put(payload []byte) (storage.CID, error) {
	id := cidutil.Generate(payload)
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketObjects)
		if existing, ok := lookup(b, id); ok {
			if !bytes.Equal(existing, payload) {
				return storage.ErrImmutable
			}
			return nil
		}
		return b.Put([]byte(id), append([]byte{}, payload...))
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) Get(id storage.CID) ([]byte, error) {
	if err := cidutil.Validate(id); err != nil {
		return nil, err
	}
	var out []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v, ok := lookup(tx.Bucket(bucketObjects), id)
		if !ok {
			return storage.ErrNotFound
		}
		// Values are only valid for the life of the transaction.
		out = append([]byte{}, v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if cidutil.Generate(out) != id {
		return nil, storage.ErrCIDMismatch
	}
	return out, nil
}

func (s *Store) Has(id storage.CID) bool {
	found := false
	_ = s.db.View(func(tx *bolt.Tx) error {
		_, found = lookup(tx.Bucket(bucketObjects), id)
		return nil
	})
	return found
}

func (s *Store) Len() int {
	n := 0
	_ = s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(bucketObjects).Stats().KeyN
		return nil
	})
	return n
}

// CIDs returns held CIDs in key order, which is lexicographic.
func (s *Store) CIDs() []storage.CID {
	var out []storage.CID
	_ = s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketObjects).ForEach(func(k, _ []byte) error {
			out = append(out, storage.CID(k))
			return nil
		})
	})
	return out
}

// lookup distinguishes a missing key from a zero-length payload, which
// Bucket.Get cannot.
func lookup(b *bolt.Bucket, id storage.CID) ([]byte, bool) {
	if id == "" {
		return nil, false
	}
	k, v := b.Cursor().Seek([]byte(id))
	if !bytes.Equal(k, []byte(id)) {
		return nil, false
	}
	return v, true
}

func (s *Store) Close() error { return s.db.Close() }

// Destroy closes the database and deletes its file.
func (s *Store) Destroy() error {
	if err := s.db.Close(); err != nil {
		return err
	}
	if err := os.Remove(s.cfg.Path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
