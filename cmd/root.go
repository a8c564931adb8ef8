// =============================================================================
// QDX Converter - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Every other command
// is attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (qdx)
//   ├── parseCmd   (qdx parse)
//   ├── inspectCmd (qdx inspect)
//   └── versionCmd (qdx version)
//
// CONFIGURATION:
//   The root command owns the global flags (--config, --verbose) and the
//   helpers that turn them into a loaded configuration and a logger.
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/qdx-converter/internal/config"
	"github.com/ginjaninja78/qdx-converter/internal/logger"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose forces debug logging.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "qdx",
	Short: "QDX Converter - Extract retail tickets from POS QDX logs",
	Long: `QDX Converter reads the binary transaction logs written by QDX point-of-sale
terminals and rebuilds completed customer tickets from them.

Each log is a sequence of 64-byte slots. Slots from the same terminal and
ticket number are folded into one ticket, which is emitted when its total
record arrives. Voided tickets, tickets without items, implausible totals
and (by default) tickets without a loyalty card are dropped.

Example Usage:
  qdx parse                         # Process every log in the input directory
  qdx parse --file POS12.qdx        # Process one log
  qdx parse --format xlsx --dry-run # Scan without writing anything
  qdx inspect --file POS12.qdx      # Dump slot headers`,

	SilenceUsage: true,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the CLI. Interrupts cancel the running command's context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		config.DefaultConfigPath,
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// loadConfig reads --config. A missing file is only an error when the flag
// was given explicitly.
func loadConfig() (*config.MainConfig, error) {
	if rootCmd.PersistentFlags().Changed("config") {
		return config.LoadMainConfig(cfgFile)
	}
	return config.LoadMainConfigOrDefault(cfgFile)
}

// newLogger builds the logger described by the configuration.
func newLogger(cfg *config.MainConfig) (*logger.Zap, error) {
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	var outputs []string
	if cfg.LogFile != "" {
		outputs = append(outputs, cfg.LogFile)
	}
	return logger.New(cfg.LogMode, level, outputs...)
}
