package memstore

import (
	"testing"

	"xdao.co/cidnet/storage"
	"xdao.co/cidnet/storage/registry"
	"xdao.co/cidnet/storage/testkit"
)

func TestMemstore_Conformance(t *testing.T) {
	testkit.RunContentStoreConformance(t, func(t *testing.T) storage.ContentStore {
		return New()
	})
}

func TestMemstore_IdempotentKeepsSingleEntry(t *testing.T) {
	s := New()
	for i := 0; i < 3; i++ {
		if _, err := s.Put([]byte("PLDG FTW!!!!")); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", s.Len())
	}
}

func TestMemstore_CIDsSorted(t *testing.T) {
	s := New()
	for _, p := range []string{"c", "a", "b", "a"} {
		if _, err := s.Put([]byte(p)); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
	ids := s.CIDs()
	if len(ids) != 3 {
		t.Fatalf("expected 3 CIDs, got %d", len(ids))
	}
	for i := 1; i < len(ids); i++ {
		if ids[i-1] >= ids[i] {
			t.Fatalf("CIDs not sorted: %v", ids)
		}
	}
}

func TestMemstore_Registered(t *testing.T) {
	s, closeFn, err := registry.Open("memory", registry.UsageNetwork, "n1", nil)
	if err != nil {
		t.Fatalf("registry.Open: %v", err)
	}
	if closeFn != nil {
		t.Fatalf("memory backend should not need closing")
	}
	if s.Len() != 0 {
		t.Fatalf("expected empty store")
	}
}
