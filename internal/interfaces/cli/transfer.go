package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/thedub2001/skull01/internal/domain/graph"
)

func (c *CLI) exportCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export <dataset>",
		Short: "Write the local rows of a dataset as a JSON snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := c.app.Local.Export(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if output == "-" {
				return encodeSnapshot(out(cmd), snap)
			}

			f, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := writeSnapshot(f, snap); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(out(cmd), "Exported %d rows of %s to %s\n", snap.Len(), args[0], output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file, - for stdout")
	return cmd
}

func encodeSnapshot(w io.Writer, snap graph.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}

// writeSnapshot encodes snap into w and closes it. A failed close means the
// file may be truncated, so it is reported like a failed write.
func writeSnapshot(w io.WriteCloser, snap graph.Snapshot) (err error) {
	defer func() {
		if cerr := w.Close(); err == nil {
			err = cerr
		}
	}()
	return encodeSnapshot(w, snap)
}

func (c *CLI) importCommand() *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "import <dataset>",
		Short: "Load a JSON snapshot into a local dataset",
		Long: `Import stores every row of the snapshot in the local store, stamping the
target dataset on nodes, links and visual links. Existing rows with the same
ids are replaced.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(input)
			if err != nil {
				return err
			}
			var snap graph.Snapshot
			if err := json.Unmarshal(data, &snap); err != nil {
				return fmt.Errorf("parse %s: %w", input, err)
			}

			if err := c.app.Local.Import(cmd.Context(), snap, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "Imported %d rows into %s\n", snap.Len(), args[0])
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "file", "f", "", "snapshot file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func (c *CLI) resetCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete the local database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("reset deletes every local row; pass --yes to confirm")
			}
			if err := c.app.Local.Reset(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "Deleted local store %s\n", c.app.Local.Path())
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")
	return cmd
}

func (c *CLI) statsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count the rows of the local store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := c.app.Local.Stats(cmd.Context())
			if err != nil {
				return err
			}

			w := out(cmd)
			fmt.Fprintf(w, "Path:           %s\n", stats.Path)
			fmt.Fprintf(w, "Schema version: %d\n", stats.SchemaVersion)
			for _, col := range graph.Collections {
				fmt.Fprintf(w, "%-15s %d\n", col.String()+":", stats.Counts[col])
			}
			if len(stats.NodesByDataset) > 0 {
				fmt.Fprintln(w, "Nodes by dataset:")
				for _, ds := range slices.Sorted(maps.Keys(stats.NodesByDataset)) {
					fmt.Fprintf(w, "  %s  %d\n", ds, stats.NodesByDataset[ds])
				}
			}
			return nil
		},
	}
}
