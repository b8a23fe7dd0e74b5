package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sawpanic/cfactor/internal/config"
	"github.com/sawpanic/cfactor/internal/factors"
)

const (
	appName = "cfactor"
	version = "v0.4.0"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Commodity futures factor calculator",
		Version: version,
		Long: `cfactor computes ten cross-sectional commodity futures factors and their
tercile long-short weights from pre-aligned monthly, daily, futures curve,
CFTC positioning, inflation and open interest tables.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(logLevel)
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (trace|debug|info|warn|error)")
	rootCmd.PersistentFlags().String("config", "", "YAML config file (defaults apply when empty)")

	rootCmd.AddCommand(newComputeCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newNamesCmd())

	return rootCmd
}

// setupLogging writes human-readable logs on a terminal and JSON otherwise
func setupLogging(level string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339

	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	return nil
}

// loadConfig reads --config when given; otherwise defaults plus CFACTOR_* env overrides
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		return config.Load(path)
	}

	cfg := config.Default()
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newNamesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "names",
		Short: "List the ten factor names in output order",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			for _, n := range factors.AllNames() {
				fmt.Fprintf(out, "%-18s %s\n", n, n.Slug())
			}
		},
	}
}
