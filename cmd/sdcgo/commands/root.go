// Package commands implements the sdcgo CLI: start the device-side
// runtime, initialize a sample configuration, and report version info.
package commands

import (
	"github.com/spf13/cobra"
)

var cfgFile string

// Version information injected at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "sdcgo",
	Short: "sdcgo - IEEE 11073 SDC device-side runtime",
	Long: `sdcgo runs a service-oriented device connectivity participant: an
MDIB, its transaction manager, and the WS-Eventing subscription and
periodic-report machinery that keep consumers in sync with it.

Use "sdcgo [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/sdcgo/config.yaml)")
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
}

// GetConfigFile returns the config file path from the global flag.
func GetConfigFile() string { return cfgFile }
