// Package commands implements the CLI commands for sdcgoctl.
package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/sdcgo/pkg/statusclient"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var serverURL string

var rootCmd = &cobra.Command{
	Use:   "sdcgoctl",
	Short: "sdcgoctl - operator client for a running sdcgo provider",
	Long: `sdcgoctl is the command-line client for inspecting a running sdcgo
provider's status listener: MDIB version, subscription table, and health.

Use "sdcgoctl [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:9090", "Status listener base URL")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(mdibCmd)
	rootCmd.AddCommand(subscriptionsCmd)
}

func client() *statusclient.Client {
	return statusclient.New(serverURL)
}

// Exit prints an error and exits with code 1.
func Exit(format string, args ...any) {
	rootCmd.PrintErrf(format+"\n", args...)
	os.Exit(1)
}
