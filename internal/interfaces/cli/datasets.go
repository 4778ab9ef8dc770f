package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (c *CLI) datasetsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "datasets",
		Aliases: []string{"ds"},
		Short:   "List and create datasets",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List every dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := c.mode()
			if err != nil {
				return err
			}
			datasets, err := c.app.Adapter.FetchDatasets(cmd.Context(), mode)
			if err != nil {
				return err
			}

			if len(datasets) == 0 {
				fmt.Fprintln(out(cmd), "No datasets")
				return nil
			}
			tw := tabwriter.NewWriter(out(cmd), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tUSER\tCREATED")
			for _, ds := range datasets {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", ds.ID, ds.Name, ds.User, ds.CreatedAt.Format("2006-01-02 15:04"))
			}
			return tw.Flush()
		},
	}

	var user string
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a dataset seeded with a root node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := c.mode()
			if err != nil {
				return err
			}
			ds, err := c.app.Adapter.CreateDataset(cmd.Context(), mode, args[0], user)
			if err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "Created dataset %s (%s)\n", ds.ID, ds.Name)
			return nil
		},
	}
	create.Flags().StringVarP(&user, "user", "u", "", "owner recorded on the dataset")

	cmd.AddCommand(list, create)
	return cmd
}
