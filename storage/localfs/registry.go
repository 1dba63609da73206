package localfs

import (
	"fmt"
	"path/filepath"
	"strings"

	"xdao.co/cidnet/storage"
	"xdao.co/cidnet/storage/registry"
)

func init() {
	registry.MustRegister(registry.Backend{
		Name:        "localfs",
		Description: "Local filesystem store (one directory per node)",
		Usage:       registry.UsageNetwork | registry.UsageDaemon,
		Open: func(nodeID string, cfg map[string]string) (storage.ContentStore, func() error, error) {
			root, err := rootFor(nodeID, cfg)
			if err != nil {
				return nil, nil, err
			}
			s, err := New(root)
			return s, nil, err
		},
		Location: func(nodeID string, cfg map[string]string) (string, error) {
			root, err := rootFor(nodeID, cfg)
			if err != nil {
				return "", err
			}
			return filepath.Abs(root)
		},
	})
}

// rootFor resolves the node's directory: "dir" verbatim, else base-dir/<nodeID>.
func rootFor(nodeID string, cfg map[string]string) (string, error) {
	if root := cfg["dir"]; root != "" {
		return root, nil
	}
	base := cfg["base-dir"]
	if base == "" {
		return "", fmt.Errorf("localfs: missing dir or base-dir")
	}
	if nodeID == "" || nodeID == "." || nodeID == ".." || strings.ContainsAny(nodeID, `/\`) {
		return "", fmt.Errorf("localfs: node id %q is not a valid directory name", nodeID)
	}
	return filepath.Join(base, nodeID), nil
}
