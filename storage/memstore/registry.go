package memstore

import (
	"xdao.co/cidnet/storage"
	"xdao.co/cidnet/storage/registry"
)

func init() {
	registry.MustRegister(registry.Backend{
		Name:        "memory",
		Description: "In-memory store (content is lost when the node is removed)",
		Usage:       registry.UsageNetwork | registry.UsageDaemon,
		Open: func(string, map[string]string) (storage.ContentStore, func() error, error) {
			return New(), nil, nil
		},
	})
}
