package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "binq",
	Short: "binq CLI - derived-query inspection tools",
	Long: `binq derives database queries from repository method names. This CLI
inspects that machinery offline: parse a method name against an entity
descriptor, see the qualifier tree it compiles to, and check which
secondary index a cached statistics snapshot would select.

Examples:
  # Show the compiled plan for a derived method
  binq explain --entity person.yaml findByLastNameAndAgeGreaterThan --args '[Anders, 30]'

  # List the recognized predicate keywords
  binq keywords

  # Inspect a saved index statistics snapshot
  binq indexes --snapshot indexes.json`,
}

var (
	// Global flags that apply to all commands
	configFile string
	logLevel   string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default binq.yaml in the working directory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug|info|warn|error")

	cobra.OnInitialize(initConfig, initLogging)

	rootCmd.AddCommand(explainCmd)
	rootCmd.AddCommand(keywordsCmd)
	rootCmd.AddCommand(indexesCmd)
}

// initConfig wires viper: explicit config file, else binq.yaml next to the
// working directory, plus BINQ_* environment variables.
func initConfig() {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("binq")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}
	viper.SetEnvPrefix("BINQ")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// A missing config file is fine; flags and env cover everything.
	_ = viper.ReadInConfig()

	if viper.IsSet("log-level") && !rootCmd.PersistentFlags().Changed("log-level") {
		logLevel = viper.GetString("log-level")
	}
}

func initLogging() {
	var level slog.Level
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelWarn
	}
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
