package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/marmos91/sdcgo/internal/prompt"
	"github.com/marmos91/sdcgo/pkg/config"
	"github.com/spf13/cobra"
)

var (
	initForce       bool
	initInteractive bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample sdcgo configuration file.

By default, the configuration file is created at $XDG_CONFIG_HOME/sdcgo/config.yaml.
Use --config to specify a custom path.

With --interactive, prompts for the provider's device identity and status
listener port instead of writing the bare defaults.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
	initCmd.Flags().BoolVarP(&initInteractive, "interactive", "i", false, "Prompt for identity and listener settings")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := GetConfigFile()
	if path == "" {
		path = config.GetDefaultConfigPath()
	}
	if _, statErr := os.Stat(path); !initForce && statErr == nil {
		return fmt.Errorf("configuration file already exists at %s (use --force to overwrite)", path)
	}

	cfg := config.GetDefaultConfig()
	if initInteractive {
		if err := promptForIdentity(cfg); err != nil {
			if errors.Is(err, prompt.ErrAborted) {
				fmt.Println("aborted")
				return nil
			}
			return fmt.Errorf("interactive setup failed: %w", err)
		}
	}

	if err := config.SaveConfig(cfg, path); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", path)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the configuration file to customize your identity and endpoints")
	fmt.Printf("  2. Start the runtime with: sdcgo start --config %s\n", path)
	return nil
}

func promptForIdentity(cfg *config.Config) error {
	var err error
	if cfg.Identity.FriendlyName, err = prompt.Input("Friendly name", cfg.Identity.FriendlyName); err != nil {
		return err
	}
	if cfg.Identity.Manufacturer, err = prompt.Input("Manufacturer", cfg.Identity.Manufacturer); err != nil {
		return err
	}
	if cfg.Identity.ModelName, err = prompt.Input("Model name", cfg.Identity.ModelName); err != nil {
		return err
	}
	if cfg.Identity.InstanceID, err = prompt.InputInt("Instance ID", cfg.Identity.InstanceID); err != nil {
		return err
	}
	if cfg.Status.Port, err = prompt.InputPort("Status listener port", cfg.Status.Port); err != nil {
		return err
	}
	mode, err := prompt.SelectString("Periodic report mode", []string{string(config.PeriodicModeRetrievability), string(config.PeriodicModeSnapshot)})
	if err != nil {
		return err
	}
	cfg.Periodic.Mode = config.PeriodicMode(mode)
	return nil
}
