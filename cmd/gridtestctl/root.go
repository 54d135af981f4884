package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/terra-clan/grid-test-engine/pkg/client"
)

var (
	serverURL string
	timeout   time.Duration
	asJSON    bool
)

var rootCmd = &cobra.Command{
	Use:   "gridtestctl",
	Short: "Command line client for grid-test-engine",
	Long: `gridtestctl talks to a running grid-test-engine server.
It lists topics, shows stored tests, generates mixed tests and
follows the live feed of newly generated tests.`,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	defaultServer := os.Getenv("GRID_TEST_SERVER")
	if defaultServer == "" {
		defaultServer = "http://localhost:3000"
	}

	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", defaultServer, "grid-test-engine base URL")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 60*time.Second, "request timeout")
	rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "print raw JSON instead of tables")
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newClient() *client.Client {
	return client.NewClient(serverURL, client.WithTimeout(timeout))
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
