package storage

// CID is a content identifier: the lowercase hex rendering of a payload's
// sha2-256 multihash (see cidutil.Generate).
type CID string

func (c CID) String() string { return string(c) }

// ContentStore is a single node's content-addressed store.
//
// Contract:
// - Put MUST be idempotent: storing identical bytes twice leaves the store unchanged.
// - Stored objects MUST be immutable.
// - The CID MUST be derived from the bytes written.
// - Get MUST return ErrNotFound when the CID is absent.
// - Len reports the number of distinct CIDs held.
type ContentStore interface {
	Put(payload []byte) (CID, error)
	Get(id CID) ([]byte, error)
	Has(id CID) bool
	Len() int
}

// Destroyer is implemented by stores whose content outlives the Go value
// (files on disk, database files). Destroy discards all content irrecoverably.
type Destroyer interface {
	Destroy() error
}

// Lister is implemented by stores that can enumerate their CIDs.
type Lister interface {
	CIDs() []CID
}

// Counter is implemented by stores whose object count can fail to load,
// such as remote nodes. Len reports 0 in that case; Count reports the error.
type Counter interface {
	Count() (int, error)
}
