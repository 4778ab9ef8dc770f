package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/thedub2001/skull01/internal/application/graphops"
)

func (c *CLI) nodesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nodes",
		Short: "Inspect and edit the nodes of a dataset",
	}

	list := &cobra.Command{
		Use:   "list <dataset>",
		Short: "List the nodes of a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := c.mode()
			if err != nil {
				return err
			}
			nodes, err := c.app.Adapter.FetchNodes(cmd.Context(), mode, args[0])
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(out(cmd), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tLABEL\tLEVEL\tTYPE")
			for _, n := range nodes {
				level := "-"
				if n.Level != nil {
					level = strconv.Itoa(*n.Level)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", n.ID, n.Label, level, n.Type)
			}
			return tw.Flush()
		},
	}

	var recursive bool
	del := &cobra.Command{
		Use:   "delete <dataset> <id>",
		Short: "Delete a node with its links and visual links",
		Long: `Delete removes the node together with every link and visual link touching
it. With --recursive every node below it over parent-child links goes too.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := c.mode()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			scope := c.app.Adapter.Scope(mode, args[0])
			snap, err := scope.Snapshot(ctx)
			if err != nil {
				return err
			}

			remove := c.app.GraphOps.DeleteNode
			if recursive {
				remove = c.app.GraphOps.DeleteNodeRecursive
			}
			result, err := remove(ctx, scope, args[1], snap)
			printDeleted(cmd, result)
			return err
		},
	}
	del.Flags().BoolVarP(&recursive, "recursive", "r", false, "delete the subtree below the node")

	addChild := &cobra.Command{
		Use:   "add-child <dataset> <parent>",
		Short: "Create a child node linked to its parent",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := c.mode()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			nodes, err := c.app.Adapter.FetchNodes(ctx, mode, args[0])
			if err != nil {
				return err
			}
			result, err := c.app.GraphOps.AddChildNode(ctx, c.app.Adapter.Scope(mode, args[0]), args[1], nodes)
			if err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "Created node %s (%s) linked by %s\n", result.Node.ID, result.Node.Label, result.Link.ID)
			return nil
		},
	}

	cmd.AddCommand(list, del, addChild)
	return cmd
}

func printDeleted(cmd *cobra.Command, r graphops.DeleteResult) {
	fmt.Fprintf(out(cmd), "Deleted %d nodes, %d links, %d visual links\n", len(r.Nodes), len(r.Links), len(r.VisualLinks))
}
