package cli

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/thedub2001/skull01/internal/application/reconcile"
)

func (c *CLI) pullCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pull <dataset>",
		Short: "Replace the local copy of a dataset with the remote rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := c.app.Engine.Pull(cmd.Context(), args[0])
			if report != nil {
				printReport(out(cmd), report)
			}
			return err
		},
	}
}

func (c *CLI) pushCommand() *cobra.Command {
	var retry bool
	cmd := &cobra.Command{
		Use:   "push <dataset>",
		Short: "Replace the remote rows of a dataset with the local ones",
		Long: `Push deletes the remote rows of the dataset and inserts the local ones.
A run where some rows failed is reported as partial; with --retry the failed
operations are replayed once.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			report, err := c.app.Engine.Push(ctx, args[0])
			if report != nil {
				printReport(out(cmd), report)
			}
			if !retry || !reconcile.IsPartialSync(err) {
				return err
			}

			fmt.Fprintf(out(cmd), "Retrying %d failed operations\n", len(report.Failed()))
			report, err = c.app.Engine.Retry(ctx, report)
			if report != nil {
				printReport(out(cmd), report)
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&retry, "retry", false, "replay failed operations once")
	return cmd
}

func printReport(w io.Writer, r *reconcile.Report) {
	failed := r.Failed()
	fmt.Fprintf(w, "%s %s: %d operations, %d failed, %s\n",
		r.Direction, r.DatasetID, len(r.Ops), len(failed), r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))

	transferred := r.Transferred()
	for _, c := range slices.Sorted(maps.Keys(transferred)) {
		fmt.Fprintf(w, "  %-13s %d\n", c, transferred[c])
	}
	for _, op := range failed {
		fmt.Fprintf(w, "  failed %s %s/%s: %s\n", op.Phase, op.Collection, op.ID, op.Error)
	}
}
