// Package cli is the meshctl command line: dataset management, sync runs,
// snapshot transfer and user settings, over the same adapter the HTTP API
// uses.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/thedub2001/skull01/internal/application/adapter"
	"github.com/thedub2001/skull01/internal/application/graphops"
	"github.com/thedub2001/skull01/internal/application/reconcile"
	"github.com/thedub2001/skull01/internal/config"
	"github.com/thedub2001/skull01/internal/domain/graph"
	"github.com/thedub2001/skull01/internal/infrastructure/persistence/sqlite"
)

// App is what the commands operate on.
type App struct {
	Adapter  *adapter.Adapter
	Engine   *reconcile.Engine
	GraphOps *graphops.Handler
	Local    *sqlite.Store
	Settings *config.SettingsStore
	Logger   *zap.Logger
}

// Opener builds the App from a configuration directory. The returned func
// releases it.
type Opener func(ctx context.Context, configDir string) (*App, func(), error)

// CLI holds the root command and the state shared by its subcommands.
type CLI struct {
	open      Opener
	configDir string
	modeName  string

	app     *App
	release func()
	root    *cobra.Command
}

// New builds the command tree.
func New(open Opener) *CLI {
	c := &CLI{open: open}

	c.root = &cobra.Command{
		Use:   "meshctl",
		Short: "Manage mesh graph datasets and their sync",
		Long: `meshctl manages the graph datasets of the mesh service.

It reads and writes through the same mode routing as the API: local, remote
or sync, taken from the settings file unless --mode overrides it. Pull and
push reconcile one dataset between the embedded store and the remote.`,
		SilenceUsage:      true,
		PersistentPreRunE: c.init,
	}
	c.root.PersistentFlags().StringVarP(&c.configDir, "config", "c", "config", "configuration directory")
	c.root.PersistentFlags().StringVarP(&c.modeName, "mode", "m", "", "db mode override (local, remote or sync)")

	c.root.AddCommand(
		c.datasetsCommand(),
		c.pullCommand(),
		c.pushCommand(),
		c.exportCommand(),
		c.importCommand(),
		c.resetCommand(),
		c.statsCommand(),
		c.settingsCommand(),
		c.nodesCommand(),
	)
	return c
}

// Command returns the root command.
func (c *CLI) Command() *cobra.Command {
	return c.root
}

// Execute runs the command line in args and releases the App afterwards.
func (c *CLI) Execute(ctx context.Context, args []string) error {
	defer c.close()
	c.root.SetArgs(args)
	return c.root.ExecuteContext(ctx)
}

func (c *CLI) init(cmd *cobra.Command, args []string) error {
	// Skip initialization for help commands
	if cmd.Name() == "help" || cmd.Name() == "completion" {
		return nil
	}
	if c.app != nil {
		return nil
	}
	app, release, err := c.open(cmd.Context(), c.configDir)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	c.app = app
	c.release = release
	return nil
}

func (c *CLI) close() {
	if c.release != nil {
		c.release()
	}
	c.app = nil
	c.release = nil
}

// mode is the --mode flag when set, the settings mode otherwise.
func (c *CLI) mode() (graph.DbMode, error) {
	if c.modeName != "" {
		return graph.ParseDbMode(c.modeName)
	}
	return c.app.Settings.Get().DbMode, nil
}

func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
