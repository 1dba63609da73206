package localfs

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"sort"

	"xdao.co/cidnet/cidutil"
	"xdao.co/cidnet/storage"
)

// Store is a local filesystem-backed ContentStore for one node.
//
// Objects are stored immutably and keyed strictly by CID. Destroy removes
// the whole root directory, which is how a node removal discards content.
type Store struct {
	root string
}

var (
	_ storage.ContentStore = (*Store)(nil)
	_ storage.Destroyer    = (*Store)(nil)
	_ storage.Lister       = (*Store)(nil)
)

// New constructs a filesystem store rooted at root. The directory will be created if needed.
func New(root string) (*Store, error) {
	if root == "" {
		return nil, errors.New("localfs: root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &Store{root: root}, nil
}

func (s *Store) Root() string { return s.root }

func (s *Store) Put(payload []byte) (storage.CID, error) {
	id := cidutil.Generate(payload)
	if id == "" {
		return "", storage.ErrInvalidCID
	}

	path := s.pathFor(id)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o444)
	if err != nil {
		if os.IsExist(err) {
			existing, rerr := s.Get(id)
			if rerr != nil {
				// If the file exists but is unreadable or corrupted, treat as an immutability violation.
				return "", storage.ErrImmutable
			}
			if !bytes.Equal(existing, payload) {
				return "", storage.ErrImmutable
			}
			return id, nil
		}
		return "", err
	}

	if _, err := f.Write(payload); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return id, nil
}

func (s *Store) Get(id storage.CID) ([]byte, error) {
	if err := cidutil.Validate(id); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(s.pathFor(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	if cidutil.Generate(b) != id {
		return nil, storage.ErrCIDMismatch
	}
	return b, nil
}

func (s *Store) Has(id storage.CID) bool {
	if cidutil.Validate(id) != nil {
		return false
	}
	_, err := os.Stat(s.pathFor(id))
	return err == nil
}

func (s *Store) Len() int { return len(s.CIDs()) }

// CIDs walks the shard directories and returns held CIDs in lexicographic order.
func (s *Store) CIDs() []storage.CID {
	var out []storage.CID
	_ = filepath.WalkDir(s.root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		id := storage.CID(d.Name())
		if cidutil.Validate(id) == nil {
			out = append(out, id)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Destroy deletes every object and the root directory.
func (s *Store) Destroy() error {
	return os.RemoveAll(s.root)
}

// pathFor shards objects by the first digest bytes; every CID shares the
// "1220" multihash prefix so it is skipped.
func (s *Store) pathFor(id storage.CID) string {
	str := string(id)
	if len(str) < 8 {
		return filepath.Join(s.root, str)
	}
	return filepath.Join(s.root, str[4:8], str)
}
