package network

import (
	"fmt"

	"xdao.co/cidnet/cidutil"
	"xdao.co/cidnet/storage"
)

// Placement records where a Put landed.
type Placement struct {
	CID storage.CID
	// Target is the replication factor in effect for the Put.
	Target int
	// Nodes received a copy, in iteration order.
	Nodes []string
	// Failed maps nodes whose store rejected the write to the error returned.
	Failed map[string]error
}

// UnderReplicated reports whether fewer than Target nodes hold a copy.
func (p Placement) UnderReplicated() bool { return len(p.Nodes) < p.Target }

// PutAll stores payload on the first ReplicationFactor nodes in iteration
// order and reports where copies went.
//
// The CID is computed once from payload, independent of any node. A node
// whose store fails or returns a different CID does not count toward the
// target and the scan moves on. Under-replication, including the empty
// network, is logged as a warning and is not an error.
func (n *Network) PutAll(payload []byte) (storage.CID, Placement) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	rf := replicationFactor(len(n.order))
	n.log.Info().
		Int("replication_factor", rf).
		Int("nodes", len(n.order)).
		Msg("replication factor calculated")

	id := cidutil.Generate(payload)
	p := Placement{CID: id, Target: rf}

	for _, nodeID := range n.order {
		if len(p.Nodes) >= rf {
			break
		}
		got, err := n.nodes[nodeID].store.Put(payload)
		if err == nil && got != id {
			err = fmt.Errorf("%w: node returned %s", storage.ErrCIDMismatch, got)
		}
		if err != nil {
			if p.Failed == nil {
				p.Failed = make(map[string]error)
			}
			p.Failed[nodeID] = err
			n.log.Warn().Err(err).Str("node", nodeID).Str("cid", id.String()).Msg("replica write failed")
			continue
		}
		p.Nodes = append(p.Nodes, nodeID)
	}

	if p.UnderReplicated() {
		n.log.Warn().
			Int("replicated", len(p.Nodes)).
			Int("replication_factor", rf).
			Str("cid", id.String()).
			Msg("could not replicate to all nodes")
	}
	return id, p
}

// Put implements storage.ContentStore. It never returns an error; see PutAll.
func (n *Network) Put(payload []byte) (storage.CID, error) {
	id, _ := n.PutAll(payload)
	return id, nil
}

// Locate scans nodes in iteration order and returns the payload together with
// the node that answered. A miss on every node returns storage.ErrNotFound;
// that is a normal outcome, not a fault.
func (n *Network) Locate(id storage.CID) ([]byte, string, error) {
	if err := cidutil.Validate(id); err != nil {
		return nil, "", err
	}

	n.mu.RLock()
	defer n.mu.RUnlock()

	for _, nodeID := range n.order {
		b, err := n.nodes[nodeID].store.Get(id)
		if err == nil {
			n.log.Info().Str("node", nodeID).Str("cid", id.String()).Msg("data found on node")
			return b, nodeID, nil
		}
		if !storage.IsNotFound(err) {
			n.log.Warn().Err(err).Str("node", nodeID).Str("cid", id.String()).Msg("replica read failed")
		}
	}
	n.log.Info().Str("cid", id.String()).Int("nodes", len(n.order)).Msg("data not found on any node")
	return nil, "", storage.ErrNotFound
}

func (n *Network) Get(id storage.CID) ([]byte, error) {
	b, _, err := n.Locate(id)
	return b, err
}

func (n *Network) Has(id storage.CID) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	for _, nodeID := range n.order {
		if n.nodes[nodeID].store.Has(id) {
			return true
		}
	}
	return false
}

// Len returns the total number of stored copies across all nodes.
func (n *Network) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	total := 0
	for _, nodeID := range n.order {
		total += n.nodes[nodeID].store.Len()
	}
	return total
}

// Holders returns the nodes currently holding id, in iteration order.
// The network keeps no index; this scans every node.
func (n *Network) Holders(id storage.CID) []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	var out []string
	for _, nodeID := range n.order {
		if n.nodes[nodeID].store.Has(id) {
			out = append(out, nodeID)
		}
	}
	return out
}
