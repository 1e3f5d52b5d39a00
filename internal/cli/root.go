// Package cli implements the brewbar command-line interface.
//
// This package uses global variables to manage CLI state, which is the standard
// pattern for Cobra-based CLI applications. The globals are initialized in
// PersistentPreRunE and cleaned up in PersistentPostRun.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/mrz1836/brewbar/internal/config"
	"github.com/mrz1836/brewbar/internal/output"
	brewerr "github.com/mrz1836/brewbar/pkg/errors"
)

// BuildInfo is the version information stamped in at build time.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

var (
	// Global flags
	homeDir      string
	outputFormat string
	verbose      bool
	providerURL  string

	// Global state initialized in PersistentPreRunE
	cfg       *config.Config
	logger    *config.Logger
	formatter *output.Formatter
	cmdCtx    *CommandContext
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "brewbar",
	Short: "A coffee shop and storage registry for your Ethereum wallet",
	Long: `Brewbar is a terminal storefront that talks to your wallet over JSON-RPC.

It sells coffee for ETH and drives a StorageFactory contract that creates
simple storage contracts and reads or writes their values.

Example:
  brewbar menu
  brewbar buy latte
  brewbar storage get 0
  brewbar shell`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return initGlobals(cmd)
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		cleanup()
	},
}

// Execute runs the root command.
func Execute(info BuildInfo) error {
	rootCmd.Version = formatVersion(info)
	enrichHelp(rootCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		formatErr(err)
		return err
	}
	return nil
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	return brewerr.ExitCode(err)
}

func formatVersion(info BuildInfo) string {
	version, commit, date := info.Version, info.Commit, info.Date
	if version == "" {
		version = "dev"
	}
	if commit == "" {
		commit = "unknown"
	}
	if date == "" {
		date = "unknown"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
}

// formatErr prints err to stderr unless a notice already reported it.
func formatErr(err error) {
	var reported *reportedError
	if errors.As(err, &reported) {
		return
	}
	if formatter != nil {
		_ = output.FormatError(os.Stderr, err, formatter.Format())
		return
	}
	_ = output.FormatError(os.Stderr, err, output.FormatText)
}

// initGlobals initializes global configuration, logger, and formatter.
func initGlobals(cmd *cobra.Command) error {
	// Determine home directory
	home := homeDir
	if home == "" {
		home = os.Getenv(config.EnvHome)
	}
	if home == "" {
		home = config.DefaultHome()
	}

	// Load or create config
	var err error
	cfg, err = config.Load(config.Path(home))
	if err != nil {
		// A broken file is replaced by defaults only for the config commands.
		if !brewerr.Is(err, brewerr.ErrConfigNotFound) &&
			(!isConfigCommand(cmd) || !brewerr.Is(err, brewerr.ErrConfigInvalid)) {
			return err
		}
		cfg = config.Defaults()
		cfg.Home = home
	}

	// Apply environment variable overrides
	config.ApplyEnvironment(cfg)

	// Override with command-line flags
	if homeDir != "" {
		cfg.Home = homeDir
	}
	if providerURL != "" {
		cfg.Provider.URL = config.SanitizeURL(providerURL)
	}
	if verbose {
		cfg.Output.Verbose = true
		cfg.Logging.Level = "debug"
	}
	if outputFormat != "" && outputFormat != "auto" {
		cfg.Output.DefaultFormat = outputFormat
	}

	// The config commands stay usable so a broken file can be inspected and replaced.
	if !isConfigCommand(cmd) {
		if err = cfg.Validate(); err != nil {
			return err
		}
	}

	// Initialize logger
	logger, err = config.NewLogger(config.ParseLogLevel(cfg.Logging.Level), cfg.Logging.File)
	if err != nil {
		// Use null logger if we can't create the file
		logger = config.NullLogger()
	}

	// Initialize formatter
	w := cmd.OutOrStdout()
	detected := output.DetectFormat(w, output.ParseFormat(cfg.Output.DefaultFormat))
	formatter = output.NewFormatter(detected, w).WithColor(output.ColorEnabled(cfg.Output.Color, w))

	cmdCtx = NewCommandContext(cfg, logger, formatter)
	return nil
}

func isConfigCommand(cmd *cobra.Command) bool {
	for c := cmd; c.HasParent(); c = c.Parent() {
		if c.Name() == "config" && !c.Parent().HasParent() {
			return true
		}
	}
	return false
}

// cleanup releases resources.
func cleanup() {
	if cmdCtx != nil {
		cmdCtx.Close()
	}
	if logger != nil {
		_ = logger.Close()
	}
}

// Config returns the global configuration.
func Config() *config.Config {
	return cfg
}

// Logger returns the global logger.
func Logger() *config.Logger {
	return logger
}

// Formatter returns the global output formatter.
func Formatter() *output.Formatter {
	return formatter
}

// Context returns the command context.
func Context() *CommandContext {
	return cmdCtx
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for flag registration
func init() {
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "brewbar data directory (default: ~/.brewbar)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "auto", "output format: text, json, auto")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&providerURL, "provider", "", "wallet JSON-RPC endpoint (default: "+config.DefaultProviderURL+")")
}
