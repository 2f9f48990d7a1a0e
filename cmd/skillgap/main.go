package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/skillgap/internal/config"
)

// Version is set at build time via ldflags
var Version = "dev"

const (
	pidFile = "skillgapd.pid"
)

var (
	logLevel   string
	daemonAddr string
)

var rootCmd = &cobra.Command{
	Use:   "skillgap",
	Short: "Skill gap analysis against role profiles",
	Long: `skillgap compares current skill levels against a target role, ranks the
gaps by impact and estimates the time to close them.

Run analyses offline against a catalog file, through the skillgapd daemon,
or as background jobs on RabbitMQ.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: parseLogLevel(logLevel),
		})))
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "skillgap %s\n", Version)
	},
}

func init() {
	defaults := config.DefaultLocalConfig()
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&daemonAddr, "addr",
		fmt.Sprintf("http://%s:%d", defaults.Daemon.Bind, defaults.Daemon.Port), "Daemon address")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(workerCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(startCmd, stopCmd, statusCmd, logsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func parseLogLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// loadConfig loads and validates ~/.skillgap configuration
func loadConfig() (*config.LocalConfig, error) {
	cfg, err := config.LoadLocalConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
