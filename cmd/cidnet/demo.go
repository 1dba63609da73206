package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"xdao.co/cidnet/network"
	"xdao.co/cidnet/storage"
)

func newDemoCmd(a *app) *cobra.Command {
	var (
		nodes int
		data  string
		fail  string
	)
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Store a payload on an in-memory network, fail a node, and retrieve again",
		RunE: func(cmd *cobra.Command, args []string) error {
			if nodes < 0 {
				return errors.New("--nodes must not be negative")
			}
			out := cmd.OutOrStdout()
			n := network.New(network.WithLogger(a.log))
			for i := 1; i <= nodes; i++ {
				if err := n.AddNode(fmt.Sprintf("node%d", i)); err != nil {
					return err
				}
			}

			id, p := n.PutAll([]byte(data))
			fmt.Fprintf(out, "replication factor: %d (based on %d nodes)\n", p.Target, n.NodeCount())
			fmt.Fprintf(out, "data stored with CID: %s\n", id)
			fmt.Fprintf(out, "replicas: %v\n", p.Nodes)

			report := func(label string) error {
				b, from, err := n.Locate(id)
				switch {
				case err == nil:
					fmt.Fprintf(out, "%s: %q (from %s)\n", label, b, from)
				case storage.IsNotFound(err):
					fmt.Fprintf(out, "%s: data unavailable across the network\n", label)
				default:
					return err
				}
				return nil
			}

			if err := report("retrieved data"); err != nil {
				return err
			}
			if n.RemoveNode(fail) {
				fmt.Fprintf(out, "node %q has been removed (simulated failure)\n", fail)
			} else {
				fmt.Fprintf(out, "node %q not present; nothing removed\n", fail)
			}
			return report("retrieved data after failure")
		},
	}
	cmd.Flags().IntVar(&nodes, "nodes", 3, "number of in-memory nodes")
	cmd.Flags().StringVar(&data, "data", "PLDG FTW!!!!", "payload to store")
	cmd.Flags().StringVar(&fail, "fail", "node1", "node to remove after storing")
	return cmd
}
