package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mrz1836/brewbar/internal/config"
	brewerr "github.com/mrz1836/brewbar/pkg/errors"
)

// configCmd is the parent command for configuration operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `View and create the brewbar configuration file.`,
}

// configInitCmd initializes the configuration.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	Long: `Create a default configuration file at ~/.brewbar/config.yaml.

If a configuration file already exists, this command will not overwrite it
unless --force is specified.

Example:
  brewbar config init
  brewbar config init --force`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

// configShowCmd shows the current configuration.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Display the effective configuration: the file, then environment
variables, then command-line flags.

Example:
  brewbar config show
  brewbar config show -o json`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

// configPathCmd prints the configuration file path.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		outln(cmd.OutOrStdout(), config.Path(cfg.Home))
		return nil
	},
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var configForce bool

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)

	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite existing configuration")
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	configPath := config.Path(cfg.Home)

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil && !configForce {
		return brewerr.WithSuggestion(
			brewerr.WithMessage(brewerr.ErrGeneral, "configuration already exists at "+configPath),
			"use --force to overwrite",
		)
	}

	defaultCfg := config.Defaults()
	defaultCfg.Home = cfg.Home

	if err := config.Save(defaultCfg, configPath); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	w := cmd.OutOrStdout()
	out(w, "Configuration initialized at %s\n", configPath)
	outln(w)
	outln(w, "Edit this file to configure:")
	outln(w, "  - provider.url: Your wallet's JSON-RPC endpoint")
	outln(w, "  - store.cafe_address: Where coffee payments are sent")
	outln(w, "  - store.factory_address: The StorageFactory contract")
	outln(w, "  - output.default_format: Output format (text/json)")
	outln(w, "  - logging.level: Log level (off/error/debug)")

	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	if formatter.IsJSON() {
		// Round-trip through YAML so JSON keys match the file.
		var tree map[string]any
		if err := yaml.Unmarshal(data, &tree); err != nil {
			return err
		}
		return formatter.Print(tree)
	}

	w := cmd.OutOrStdout()
	out(w, "# %s\n", config.Path(cfg.Home))
	_, err = w.Write(data)
	return err
}
