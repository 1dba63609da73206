package boltstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"xdao.co/cidnet/storage"
	"xdao.co/cidnet/storage/registry"
)

func init() {
	registry.MustRegister(registry.Backend{
		Name:        "bolt",
		Description: "bbolt database file (one file per node)",
		Usage:       registry.UsageNetwork | registry.UsageDaemon,
		Open: func(nodeID string, cfg map[string]string) (storage.ContentStore, func() error, error) {
			path, err := pathFor(nodeID, cfg)
			if err != nil {
				return nil, nil, err
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return nil, nil, err
			}
			c := Config{Path: path, NoSync: cfg["no-sync"] == "true"}
			if v := cfg["timeout"]; v != "" {
				d, err := time.ParseDuration(v)
				if err != nil {
					return nil, nil, fmt.Errorf("boltstore: timeout: %w", err)
				}
				c.Timeout = d
			}
			s, err := Open(c)
			if err != nil {
				return nil, nil, err
			}
			return s, s.Close, nil
		},
		Location: func(nodeID string, cfg map[string]string) (string, error) {
			path, err := pathFor(nodeID, cfg)
			if err != nil {
				return "", err
			}
			return filepath.Abs(path)
		},
	})
}

// pathFor resolves the node's database file: "path" verbatim, else
// base-dir/<nodeID>.db.
func pathFor(nodeID string, cfg map[string]string) (string, error) {
	if path := cfg["path"]; path != "" {
		return path, nil
	}
	base := cfg["base-dir"]
	if base == "" {
		return "", fmt.Errorf("boltstore: missing path or base-dir")
	}
	if nodeID == "" || strings.ContainsAny(nodeID, `/\`) || strings.HasPrefix(nodeID, ".") {
		return "", fmt.Errorf("boltstore: node id %q is not a valid file name", nodeID)
	}
	return filepath.Join(base, nodeID+".db"), nil
}
