package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"xdao.co/cidnet/storage"
)

func readInput(cmd *cobra.Command, arg string) ([]byte, error) {
	if arg == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(arg)
}

func newPutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "put <file|->",
		Short: "Replicate a payload across the network and print its CID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := a.ensureNetwork()
			if err != nil {
				return err
			}
			payload, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			id, p := n.PutAll(payload)
			fmt.Fprintln(cmd.OutOrStdout(), id)
			if p.UnderReplicated() {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: replicated to %d of %d nodes\n", len(p.Nodes), p.Target)
			}
			return nil
		},
	}
}

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <cid>",
		Short: "Retrieve a payload by CID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := a.ensureNetwork()
			if err != nil {
				return err
			}
			b, _, err := n.Locate(storage.CID(args[0]))
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		},
	}
}

func newHoldersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "holders <cid>",
		Short: "List the nodes holding a CID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := a.ensureNetwork()
			if err != nil {
				return err
			}
			for _, id := range n.Holders(storage.CID(args[0])) {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
}

func newNodesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "nodes",
		Short: "List nodes in iteration order with their object counts (\"unreachable\" for remote nodes that do not answer)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := a.ensureNetwork()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "replication factor: %d\n", n.ReplicationFactor())
			for _, id := range n.NodeIDs() {
				s, _ := n.Store(id)
				if c, ok := s.(storage.Counter); ok {
					count, err := c.Count()
					if err != nil {
						a.log.Warn().Err(err).Str("node", id).Msg("node count unavailable")
						fmt.Fprintf(out, "%s\tunreachable\n", id)
						continue
					}
					fmt.Fprintf(out, "%s\t%d\n", id, count)
					continue
				}
				fmt.Fprintf(out, "%s\t%d\n", id, s.Len())
			}
			return nil
		},
	}
}
