package testkit

import (
	"bytes"
	"testing"

	"xdao.co/cidnet/cidutil"
	"xdao.co/cidnet/storage"
)

// NewStore constructs a fresh, empty store for a test.
// The returned store MUST be isolated from other tests.
type NewStore func(t *testing.T) storage.ContentStore

func RunContentStoreConformance(t *testing.T, newStore NewStore) {
	t.Helper()

	t.Run("PutGetRoundTrip", func(t *testing.T) {
		s := newStore(t)
		want := []byte("hello, cidnet storage")

		id, err := s.Put(want)
		if err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if wantID := cidutil.Generate(want); id != wantID {
			t.Fatalf("Put CID mismatch: got %s want %s", id, wantID)
		}

		got, err := s.Get(id)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("Get bytes mismatch")
		}
		if cidutil.Generate(got) != id {
			t.Fatalf("Get returned bytes not matching requested CID")
		}
	})

	t.Run("PutIdempotent", func(t *testing.T) {
		s := newStore(t)
		b := []byte("same bytes")

		id1, err := s.Put(b)
		if err != nil {
			t.Fatalf("Put(1) failed: %v", err)
		}
		n := s.Len()
		id2, err := s.Put(b)
		if err != nil {
			t.Fatalf("Put(2) failed: %v", err)
		}
		if id1 != id2 {
			t.Fatalf("Put not idempotent: %s vs %s", id1, id2)
		}
		if s.Len() != n {
			t.Fatalf("Len changed after repeated Put: %d -> %d", n, s.Len())
		}
	})

	t.Run("EmptyPayload", func(t *testing.T) {
		s := newStore(t)
		id, err := s.Put(nil)
		if err != nil {
			t.Fatalf("Put(nil) failed: %v", err)
		}
		got, err := s.Get(id)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if len(got) != 0 {
			t.Fatalf("expected empty payload, got %d bytes", len(got))
		}
	})

	t.Run("HasAndNotFound", func(t *testing.T) {
		s := newStore(t)
		b := []byte("missing")
		id := cidutil.Generate(b)

		if s.Has(id) {
			t.Fatalf("Has returned true for missing CID")
		}
		_, err := s.Get(id)
		if !storage.IsNotFound(err) {
			t.Fatalf("Get missing: got err=%v want ErrNotFound", err)
		}

		if _, err := s.Put(b); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if !s.Has(id) {
			t.Fatalf("Has returned false after Put")
		}
	})

	t.Run("UnknownCID", func(t *testing.T) {
		s := newStore(t)
		var empty storage.CID
		if s.Has(empty) {
			t.Fatalf("Has should be false for empty CID")
		}
		if _, err := s.Get(empty); err == nil {
			t.Fatalf("Get should fail for empty CID")
		}
	})

	t.Run("StoredBytesAreImmutable", func(t *testing.T) {
		s := newStore(t)
		b := []byte("do not touch")
		id, err := s.Put(b)
		if err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		b[0] = 'X'
		got, err := s.Get(id)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		got[1] = 'Y'
		again, err := s.Get(id)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if string(again) != "do not touch" {
			t.Fatalf("stored bytes changed: %q", again)
		}
	})
}
