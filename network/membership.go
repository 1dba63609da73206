package network

import (
	"errors"
	"fmt"

	"xdao.co/cidnet/storage"
)

// AddNode adds an empty store under nodeID, created by the network's Factory.
//
// Re-adding an existing nodeID silently replaces it: the prior store and its
// content are discarded and the node keeps its position in iteration order.
// The prior store is released before the factory runs, so a backend that
// derives its location from nodeID starts out empty. If the factory fails the
// node is left absent.
func (n *Network) AddNode(nodeID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	replacing := n.replaceLocked(nodeID)

	s, closeFn, err := n.factory(nodeID)
	if err != nil {
		if replacing {
			n.dropLocked(nodeID)
		}
		return fmt.Errorf("network: open node %q: %w", nodeID, err)
	}
	n.insertLocked(nodeID, s, closeFn, replacing)
	return nil
}

// AddStore adds a caller-provided store under nodeID with the same replacement
// policy as AddNode. closeFn is optional and runs when the node is removed,
// unless the store implements storage.Destroyer.
func (n *Network) AddStore(nodeID string, s storage.ContentStore, closeFn func() error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	replacing := n.replaceLocked(nodeID)
	n.insertLocked(nodeID, s, closeFn, replacing)
}

// RemoveNode drops nodeID and irrecoverably discards its content, simulating
// a node failure. Removing an unknown node is a no-op that returns false.
func (n *Network) RemoveNode(nodeID string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := n.nodes[nodeID]; !ok {
		return false
	}
	n.releaseLocked(nodeID)
	n.dropLocked(nodeID)
	n.log.Info().
		Str("node", nodeID).
		Int("nodes", len(n.order)).
		Msg("node removed (simulated failure)")
	return true
}

// Close releases every node's backend without destroying content.
// The network is empty afterwards.
func (n *Network) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	var errs []error
	for _, id := range n.order {
		if nd := n.nodes[id]; nd.close != nil {
			if err := nd.close(); err != nil {
				errs = append(errs, fmt.Errorf("network: close node %q: %w", id, err))
			}
		}
	}
	n.order = nil
	n.nodes = make(map[string]*node)
	return errors.Join(errs...)
}

func (n *Network) insertLocked(nodeID string, s storage.ContentStore, closeFn func() error, replacing bool) {
	if !replacing {
		n.order = append(n.order, nodeID)
	}
	n.nodes[nodeID] = &node{id: nodeID, store: s, close: closeFn}
	n.log.Debug().
		Str("node", nodeID).
		Bool("replaced", replacing).
		Int("nodes", len(n.order)).
		Msg("node added")
}

// replaceLocked discards the content of an existing nodeID ahead of a
// re-add and reports whether the node existed.
func (n *Network) replaceLocked(nodeID string) bool {
	if _, ok := n.nodes[nodeID]; !ok {
		return false
	}
	n.log.Info().Str("node", nodeID).Msg("node re-added; prior content discarded")
	n.releaseLocked(nodeID)
	return true
}

// releaseLocked discards a node's content. The node stays in the table.
func (n *Network) releaseLocked(nodeID string) {
	nd := n.nodes[nodeID]
	var err error
	if d, ok := nd.store.(storage.Destroyer); ok {
		err = d.Destroy()
	} else if nd.close != nil {
		err = nd.close()
	}
	if err != nil {
		n.log.Warn().Err(err).Str("node", nodeID).Msg("release node store")
	}
}

func (n *Network) dropLocked(nodeID string) {
	delete(n.nodes, nodeID)
	for i, id := range n.order {
		if id == nodeID {
			n.order = append(n.order[:i], n.order[i+1:]...)
			break
		}
	}
}
