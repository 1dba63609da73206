package main

import (
	"fmt"
	"net"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"xdao.co/cidnet/storage/grpcstore"
	"xdao.co/cidnet/storage/registry"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		backendOpts  map[string]string
		listBackends bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve one node's ContentStore over gRPC",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listBackends {
				for _, b := range registry.List(registry.UsageDaemon) {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", b.Name, b.Description)
				}
				return nil
			}

			backend := a.v.GetString("serve.backend")
			nodeID := a.v.GetString("serve.node_id")
			store, closeFn, err := registry.Open(backend, registry.UsageDaemon, nodeID, backendOpts)
			if err != nil {
				return err
			}
			if closeFn != nil {
				defer closeFn()
			}

			lis, err := net.Listen("tcp", a.v.GetString("serve.listen"))
			if err != nil {
				return err
			}
			defer lis.Close()

			log := a.log.With().Str("node", nodeID).Logger()
			s := grpc.NewServer()
			grpcstore.RegisterContentStoreServer(s, &grpcstore.Server{Store: store, Log: &log})

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			go func() {
				<-ctx.Done()
				s.GracefulStop()
			}()

			a.log.Info().
				Str("addr", lis.Addr().String()).
				Str("backend", backend).
				Str("node", nodeID).
				Msg("cidnet node listening")
			return s.Serve(lis)
		},
	}
	fs := cmd.Flags()
	fs.String("listen", "127.0.0.1:7777", "listen address")
	fs.String("backend", "memory", "store backend name")
	fs.String("node-id", "node", "node identifier passed to the backend")
	fs.StringToStringVar(&backendOpts, "backend-opt", nil, "backend option key=value (repeatable)")
	fs.BoolVar(&listBackends, "list-backends", false, "list supported backends and exit")

	bindConfig(a.v, "serve.listen", fs.Lookup("listen"))
	bindConfig(a.v, "serve.backend", fs.Lookup("backend"))
	bindConfig(a.v, "serve.node_id", fs.Lookup("node-id"))
	return cmd
}

