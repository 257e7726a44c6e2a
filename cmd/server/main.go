package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/good-yellow-bee/incidash/internal/clock"
	"github.com/good-yellow-bee/incidash/internal/logging"
	"github.com/good-yellow-bee/incidash/pkg/config"
)

var (
	configFile  string
	httpAddr    string
	metricsAddr string
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "incidash-server",
	Short: "incidash - incident ticket dashboard server",
	Long: `incidash-server keeps an in-memory set of incident tickets, refreshes
it on a fixed interval and serves the filtered dashboard (summary, SLA
compliance, escalation trend and ticket table) as a JSON API.`,
	SilenceUsage: true,
	RunE:         runServer,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(config.VersionString("incidash-server"))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (optional)")
	rootCmd.PersistentFlags().StringVarP(&httpAddr, "address", "a", "", "HTTP API listen address (overrides config)")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-address", "", "Prometheus listen address (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every request")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	var cfg *Config

	// Load configuration from file if provided
	if configFile != "" {
		var err error
		cfg, err = LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	} else {
		cfg = DefaultConfig()
	}

	// Override with CLI flags
	if httpAddr != "" {
		cfg.Server.HTTPAddress = httpAddr
	}
	if metricsAddr != "" {
		cfg.Server.MetricsAddress = metricsAddr
	}
	cfg.Verbose = verbose

	if err := cfg.applyEnv(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cfg, clock.Real(), logger)
	if err != nil {
		return err
	}

	info := config.GetBuildInfo()
	logger.Info("starting incidash-server",
		zap.String("version", info.Version),
		zap.String("commit", info.Commit),
	)

	if err := a.run(ctx); err != nil {
		return fmt.Errorf("run server: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
