// Package cmd provides the CLI commands for move-quote.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"move-quote/core/ui"
	"move-quote/internal/app"
	"move-quote/internal/config"
	"move-quote/internal/logging"
)

// Version is set at build time
var Version = "0.1.0"

var (
	cfgFile string
	verbose bool
	noColor bool

	appConfig *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "move-quote",
	Short: "Price house removals",
	Long: `move-quote computes itemised removal quotes from a move description.

Items are matched against the catalog, priced against the versioned
pricing settings, and returned as an auditable breakdown.

Examples:
  move-quote quote request.json
  move-quote quote --format json - < request.json
  move-quote catalog resolve "chest of drawers"
  move-quote settings import rates.json --note "spring rates"
  move-quote serve`,
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.move-quote.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(versionCmd)
}

func initConfig(cmd *cobra.Command, args []string) error {
	path := cfgFile
	if path == "" {
		if home, err := os.UserHomeDir(); err == nil {
			path = home + string(os.PathSeparator) + ".move-quote.json"
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if noColor {
		cfg.Output.NoColor = true
	}
	if err := logging.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
	}
	appConfig = cfg
	return nil
}

// newApp wires the application from the loaded config
func newApp(ctx context.Context) (*app.App, error) {
	return app.New(ctx, appConfig, logging.Logger)
}

func newWriter(cmd *cobra.Command) *ui.Writer {
	w := ui.NewWriter(cmd.OutOrStdout(), appConfig.Output.NoColor)
	if verbose {
		w.SetVerbosity(2)
	}
	return w
}

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "move-quote version %s\n", Version)
	},
}
