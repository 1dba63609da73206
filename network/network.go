// Package network replicates content across a named set of ContentStores.
//
// Nodes are kept in insertion order. That order decides which nodes receive
// replicas on Put and which node answers a Get, so both are reproducible.
package network

import (
	"sync"

	"github.com/rs/zerolog"

	"xdao.co/cidnet/storage"
	"xdao.co/cidnet/storage/memstore"
)

// Factory opens the store for a newly added node. The close function is optional.
type Factory func(nodeID string) (storage.ContentStore, func() error, error)

type Option func(*Network)

// WithLogger sets the logger used for replication diagnostics.
func WithLogger(log zerolog.Logger) Option {
	return func(n *Network) { n.log = log }
}

// WithFactory overrides how AddNode creates stores. The default is an empty memstore.
func WithFactory(f Factory) Option {
	return func(n *Network) {
		if f != nil {
			n.factory = f
		}
	}
}

type node struct {
	id    string
	store storage.ContentStore
	close func() error
}

// Network owns a set of node stores and fans writes out to a subset of them.
//
// Network satisfies storage.ContentStore so it can be served or tested like
// any single store. Network is safe for concurrent use; each store carries
// its own synchronization.
type Network struct {
	mu      sync.RWMutex
	order   []string
	nodes   map[string]*node
	factory Factory
	log     zerolog.Logger
}

var _ storage.ContentStore = (*Network)(nil)

func New(opts ...Option) *Network {
	n := &Network{
		nodes:   make(map[string]*node),
		factory: memoryFactory,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func memoryFactory(string) (storage.ContentStore, func() error, error) {
	return memstore.New(), nil, nil
}

// ReplicationFactor returns the target copy count for the current cluster size:
// max(1, n/2), clamped to n when n > 0. An empty network still reports 1.
func (n *Network) ReplicationFactor() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return replicationFactor(len(n.order))
}

func replicationFactor(nodes int) int {
	rf := max(1, nodes/2)
	if nodes > 0 {
		rf = min(rf, nodes)
	}
	return rf
}

// NodeCount returns the number of nodes currently in the network.
func (n *Network) NodeCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.order)
}

// NodeIDs returns node IDs in iteration order.
func (n *Network) NodeIDs() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return append([]string(nil), n.order...)
}

// Store returns the store backing nodeID.
func (n *Network) Store(nodeID string) (storage.ContentStore, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	nd, ok := n.nodes[nodeID]
	if !ok {
		return nil, false
	}
	return nd.store, true
}
