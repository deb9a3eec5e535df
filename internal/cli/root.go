// Package cli provides the command-line interface for the simulated
// trading application.
package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"papertrade/internal/config"
	"papertrade/internal/logging"
)

// Version information
const (
	Version = "0.1.0"
)

// App holds the application dependencies.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	rootCmd := &cobra.Command{
		Use:   "papertrade",
		Short: "papertrade - portfolio accounting and simulated order execution",
		Long: `papertrade tracks a portfolio of positions and cash and simulates
order execution against a fake brokerage with commission and margin rules.

Orders are processed asynchronously: each submitted order fills, expires
or is cancelled, and the resulting transactions are folded into the
portfolio for performance reporting.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/papertrade)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSessionCmd(app))
	rootCmd.AddCommand(newReportCmd(app))

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("papertrade %s\n", Version)
		},
	}
}
