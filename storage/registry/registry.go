package registry

import (
	"fmt"
	"sort"
	"sync"

	"xdao.co/cidnet/storage"
)

// Backend is a build-time plugin that can open a storage.ContentStore.
//
// Backends typically register themselves in init():
//
//	registry.MustRegister(registry.Backend{ ... })
//
// The binary must import the backend package for registration to occur.
type Backend struct {
	Name        string
	Description string
	Usage       Usage

	// Open constructs the store for nodeID from backend-specific config values.
	// It returns an optional close function.
	Open func(nodeID string, cfg map[string]string) (storage.ContentStore, func() error, error)

	// Location is optional. It names the resource Open would use for nodeID
	// (a directory, a file, a remote target) without opening it. Two nodes
	// resolving to the same location would share content.
	Location func(nodeID string, cfg map[string]string) (string, error)
}

var (
	mu       sync.RWMutex
	backends = map[string]Backend{}
)

// Register registers a backend.
func Register(b Backend) error {
	if b.Name == "" {
		return fmt.Errorf("registry: backend name is required")
	}
	if b.Open == nil {
		return fmt.Errorf("registry: backend %q missing Open", b.Name)
	}
	if b.Usage == 0 {
		return fmt.Errorf("registry: backend %q missing Usage", b.Name)
	}

	mu.Lock()
	defer mu.Unlock()
	if _, exists := backends[b.Name]; exists {
		return fmt.Errorf("registry: backend %q already registered", b.Name)
	}
	backends[b.Name] = b
	return nil
}

// MustRegister is like Register but panics on error.
func MustRegister(b Backend) {
	if err := Register(b); err != nil {
		panic(err)
	}
}

// List returns backends matching usage, sorted by name.
func List(usage Usage) []Backend {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Backend, 0, len(backends))
	for _, b := range backends {
		if b.Usage.allows(usage) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns backend names matching usage, sorted.
func Names(usage Usage) []string {
	bs := List(usage)
	n := make([]string, 0, len(bs))
	for _, b := range bs {
		n = append(n, b.Name)
	}
	return n
}

// Open opens the named backend for nodeID if it exists and matches usage.
func Open(name string, usage Usage, nodeID string, cfg map[string]string) (storage.ContentStore, func() error, error) {
	mu.RLock()
	b, ok := backends[name]
	mu.RUnlock()
	if !ok {
		return nil, nil, fmt.Errorf("registry: unknown backend %q", name)
	}
	if !b.Usage.allows(usage) {
		return nil, nil, fmt.Errorf("registry: backend %q not supported here", name)
	}
	return b.Open(nodeID, cfg)
}

// Location resolves where the named backend would keep nodeID's content.
// It returns "" when the backend does not report locations.
func Location(name string, nodeID string, cfg map[string]string) (string, error) {
	mu.RLock()
	b, ok := backends[name]
	mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("registry: unknown backend %q", name)
	}
	if b.Location == nil {
		return "", nil
	}
	loc, err := b.Location(nodeID, cfg)
	if err != nil {
		return "", err
	}
	return name + ":" + loc, nil
}
