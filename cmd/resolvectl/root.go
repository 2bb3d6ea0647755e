package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"stream-resolver/internal/config"
	"stream-resolver/pkg/log"
	"stream-resolver/pkg/log/transporters"
)

// Global flags
var (
	flagConfig string
	flagJSON   bool
	flagDebug  bool
)

// cfg holds the loaded configuration (defaults < config file < env).
var cfg config.Config

var rootCmd = &cobra.Command{
	Use:               "resolvectl",
	Short:             "Resolve stream links and read the top 10 listing",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "config/config.yaml", "Path to the YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&flagJSON, "json", "j", false, "Print JSON instead of plain text")
	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "x", false, "Debug logging to stderr")

	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(linkCmd)
	rootCmd.AddCommand(top10Cmd)
	rootCmd.AddCommand(historyCmd)
}

// loadConfig loads the configuration and routes logs to stderr so stdout
// stays clean for command output.
func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	level := log.Warn
	if flagDebug {
		level = log.Debug
	}
	log.SetDefault(log.New(level, transporters.NewStdoutWithWriter(os.Stderr)))
	cobra.OnFinalize(func() { log.Default().Close() })
	return nil
}
