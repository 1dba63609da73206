package grpcstore

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"xdao.co/cidnet/storage"
	"xdao.co/cidnet/storage/registry"
)

func init() {
	registry.MustRegister(registry.Backend{
		Name:        "grpc",
		Description: "Remote node reached over gRPC (talks to cidnet serve)",
		Usage:       registry.UsageNetwork,
		Open: func(nodeID string, cfg map[string]string) (storage.ContentStore, func() error, error) {
			target := strings.TrimSpace(cfg["target"])
			if target == "" {
				return nil, nil, fmt.Errorf("grpcstore: node %q: missing target", nodeID)
			}
			var opts DialOptions
			var timeout time.Duration
			var err error
			if v := cfg["dial-timeout"]; v != "" {
				if opts.Timeout, err = time.ParseDuration(v); err != nil {
					return nil, nil, fmt.Errorf("grpcstore: dial-timeout: %w", err)
				}
			}
			if v := cfg["timeout"]; v != "" {
				if timeout, err = time.ParseDuration(v); err != nil {
					return nil, nil, fmt.Errorf("grpcstore: timeout: %w", err)
				}
			}
			if v := cfg["max-msg-bytes"]; v != "" {
				if opts.MaxMsgBytes, err = strconv.Atoi(v); err != nil {
					return nil, nil, fmt.Errorf("grpcstore: max-msg-bytes: %w", err)
				}
			}
			client, err := Dial(target, opts)
			if err != nil {
				return nil, nil, err
			}
			client.Timeout = timeout
			return client, client.Close, nil
		},
		Location: func(nodeID string, cfg map[string]string) (string, error) {
			target := strings.TrimSpace(cfg["target"])
			if target == "" {
				return "", fmt.Errorf("grpcstore: node %q: missing target", nodeID)
			}
			return target, nil
		},
	})
}
