// Package cli holds the counterparty client's commands.
package cli

import (
	"context"
	"os"

	"github.com/jrsteele09/go-counterparty-client/internal/config"
	"github.com/jrsteele09/go-counterparty-client/internal/logging"
	"github.com/spf13/cobra"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "counterparty-client",
	Short: "Local web client for managing counterparties behind Keycloak sign in",
	Long: `counterparty-client serves a small web application for keeping a list of
counterparties ("clients"), picking a profile picture and simulating transactions.

Pages are only reachable once the Keycloak session has been established. Settings are
read from environment variables, optionally backed by a YAML file given with --config.`,
	SilenceUsage: true,
}

// ExecuteContext runs the root command with ctx
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML file of settings (default is $CONFIG_FILE)")
}

// loadConfig reads the configuration and sets up logging from it.
func loadConfig() (config.Config, error) {
	c, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	logging.Configure(os.Stderr, c.GetEnv(), c.GetLogLevel())
	return c, nil
}
