package netconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"xdao.co/cidnet/network"
	"xdao.co/cidnet/storage"
	"xdao.co/cidnet/storage/registry"
)

// Config describes the nodes of a network and the backend behind each one.
//
// Nodes are added in file order, which is the network's iteration order.
// Backends are resolved through the registry, so binaries must link the
// backend packages they accept (usually via blank imports).
//
// Example (JSON):
//
//	{
//	  "nodes": [
//	    {"id": "node1", "backend": "memory"},
//	    {"id": "node2", "backend": "localfs", "config": {"base-dir": "/tmp/cidnet"}},
//	    {"id": "node3", "backend": "grpc", "config": {"target": "127.0.0.1:7777"}}
//	  ]
//	}
//
// Example (TOML):
//
//	[[nodes]]
//	id = "node1"
//	backend = "bolt"
//	config = { base-dir = "/tmp/cidnet" }
//
// Config values are backend-specific.
type Config struct {
	// Defaults are merged under every node's Config.
	Defaults map[string]string `json:"defaults,omitempty" toml:"defaults"`
	Nodes    []NodeConfig      `json:"nodes" toml:"nodes"`
}

type NodeConfig struct {
	ID string `json:"id" toml:"id"`
	// Backend is the registry backend name (e.g. "memory", "localfs", "bolt", "grpc").
	// If empty, "memory" is used.
	Backend string            `json:"backend,omitempty" toml:"backend"`
	Config  map[string]string `json:"config,omitempty" toml:"config"`
}

// LoadFile reads a JSON or TOML config, chosen by file extension.
func LoadFile(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, errors.New("netconfig: empty config path")
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("netconfig: %w", err)
		}
	case ".json":
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("netconfig: %w", err)
		}
	default:
		return cfg, fmt.Errorf("netconfig: unsupported config extension %q", filepath.Ext(path))
	}
	return cfg, cfg.Validate()
}

// nodeKeys are backend settings that name one node's storage. They are
// rejected anywhere a value would be shared by several nodes.
var nodeKeys = []string{"dir", "path", "target"}

func sharedNodeKey(cfg map[string]string) string {
	for _, k := range nodeKeys {
		if cfg[k] != "" {
			return k
		}
	}
	return ""
}

// Validate checks node IDs and defaults. An empty node list is valid: it
// describes the empty network. Unlike Network.AddNode, a config may not name
// a node twice.
func (c Config) Validate() error {
	if k := sharedNodeKey(c.Defaults); k != "" {
		return fmt.Errorf("netconfig: defaults: %q is per node (use base-dir)", k)
	}
	seen := make(map[string]struct{}, len(c.Nodes))
	for i, n := range c.Nodes {
		if n.ID == "" {
			return fmt.Errorf("netconfig: node %d: id is required", i)
		}
		if _, ok := seen[n.ID]; ok {
			return fmt.Errorf("netconfig: duplicate node id %q", n.ID)
		}
		seen[n.ID] = struct{}{}
	}
	return nil
}

func (n NodeConfig) backend() string {
	if n.Backend == "" {
		return "memory"
	}
	return n.Backend
}

func (c Config) nodeConfig(n NodeConfig) map[string]string {
	out := make(map[string]string, len(c.Defaults)+len(n.Config))
	for k, v := range c.Defaults {
		out[k] = v
	}
	for k, v := range n.Config {
		out[k] = v
	}
	return out
}

// checkLocations rejects two nodes whose backends resolve to the same
// directory, file or remote target.
func (c Config) checkLocations() error {
	owner := make(map[string]string, len(c.Nodes))
	for _, n := range c.Nodes {
		loc, err := registry.Location(n.backend(), n.ID, c.nodeConfig(n))
		if err != nil {
			return fmt.Errorf("netconfig: node %q: %w", n.ID, err)
		}
		if loc == "" {
			continue
		}
		if prev, ok := owner[loc]; ok {
			return fmt.Errorf("netconfig: nodes %q and %q share storage %s", prev, n.ID, loc)
		}
		owner[loc] = n.ID
	}
	return nil
}

// Build opens every node's backend in order and returns the network.
// On failure, already-opened backends are closed.
func (c Config) Build(opts ...network.Option) (*network.Network, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := c.checkLocations(); err != nil {
		return nil, err
	}
	net := network.New(opts...)
	for _, n := range c.Nodes {
		s, closeFn, err := registry.Open(n.backend(), registry.UsageNetwork, n.ID, c.nodeConfig(n))
		if err != nil {
			_ = net.Close()
			return nil, fmt.Errorf("netconfig: node %q: %w", n.ID, err)
		}
		net.AddStore(n.ID, s, closeFn)
	}
	return net, nil
}

// Factory returns a network.Factory opening nodes with the given backend and
// config, for networks that grow through AddNode. The config is shared by
// every node, so per-node keys such as dir are refused.
func Factory(backend string, cfg map[string]string) network.Factory {
	return func(nodeID string) (storage.ContentStore, func() error, error) {
		if k := sharedNodeKey(cfg); k != "" {
			return nil, nil, fmt.Errorf("netconfig: factory: %q is per node (use base-dir)", k)
		}
		return registry.Open(backend, registry.UsageNetwork, nodeID, cfg)
	}
}
