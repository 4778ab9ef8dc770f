package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thedub2001/skull01/internal/config"
	"github.com/thedub2001/skull01/internal/domain/graph"
)

func (c *CLI) settingsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the db mode and selected dataset",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the current settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := c.app.Settings.Get()
			dataset := s.Dataset
			if dataset == "" {
				dataset = "(none)"
			}
			fmt.Fprintf(out(cmd), "Mode:    %s\nDataset: %s\nFile:    %s\n", s.DbMode, dataset, c.app.Settings.Path())
			return nil
		},
	}

	var dataset string
	set := &cobra.Command{
		Use:   "set",
		Short: "Update the settings file",
		Long: `Set persists the db mode given by --mode and the dataset given by
--dataset. Flags left out keep their current value.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch config.SettingsPatch
			if cmd.Flags().Changed("mode") {
				mode, err := graph.ParseDbMode(c.modeName)
				if err != nil {
					return err
				}
				patch.DbMode = &mode
			}
			if cmd.Flags().Changed("dataset") {
				patch.Dataset = &dataset
			}
			if patch.DbMode == nil && patch.Dataset == nil {
				return errors.New("nothing to set; pass --mode or --dataset")
			}

			s, err := c.app.Settings.Update(patch)
			if err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "Settings updated: mode=%s dataset=%q\n", s.DbMode, s.Dataset)
			return nil
		},
	}
	set.Flags().StringVar(&dataset, "dataset", "", "selected dataset id, empty to clear")

	cmd.AddCommand(show, set)
	return cmd
}
