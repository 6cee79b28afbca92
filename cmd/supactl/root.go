package main

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"sync"

	"github.com/operator888/supactl/pkg/client"
	"github.com/operator888/supactl/pkg/config"
	"github.com/operator888/supactl/pkg/metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile  string
	logLevel string
	cfg      *config.Config
	logger   *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "supactl",
	Short: "supactl is an admin client for Supabase projects",
	Long: `supactl connects to a hosted database REST gateway with a project URL
and API key, discovers tables, browses and edits rows, and moves data
in and out as JSON or SQL.`,
	Run: func(cmd *cobra.Command, args []string) {
		versionFlag, _ := cmd.Flags().GetBool("version")
		if versionFlag {
			fmt.Println(config.Version)
			return
		}
		cmd.Help()
	},
}

func main() {
	defer func() {
		if logger != nil {
			logger.Sync()
		}
	}()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/supactl.yaml)")
	pf.StringVarP(&logLevel, "log-level", "L", "info", "log level (debug, info, warn, error)")
	pf.BoolP("version", "v", false, "Print the version number")

	pf.StringP("api.endpoint", "e", "", "Project endpoint URL (https://<ref>.supabase.co)")
	pf.StringP("api.apiKey", "k", "", "Project API key")
	pf.String("api.displayName", "", "Display name for this connection")
	pf.String("pg.connString", "", "Optional direct Postgres connection string (enables catalog strategies)")
	pf.Bool("allow-any-host", false, "Skip hosted-domain endpoint validation (self-hosted gateways)")
	pf.Int("discovery.probeBudget", 0, "Probe budget for dictionary/brute-force discovery (negative = unbounded)")
	pf.Bool("metrics.enabled", false, "Serve Prometheus metrics while running")
	pf.String("metrics.listenAddr", ":9100", "Metrics listen address")

	viper.BindPFlags(pf)
}

func initConfig() {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error loading config:", err)
		os.Exit(1)
	}

	level, err := zap.ParseAtomicLevel(logLevel)
	if err != nil {
		level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = level
	logger, err = zcfg.Build()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error creating logger:", err)
		os.Exit(1)
	}
}

// connect establishes the session connection from flags, environment, and
// config file, flags winning.
func connect(ctx context.Context) (*client.Connection, error) {
	endpoint := firstNonEmpty(viper.GetString("api.endpoint"), cfg.API.Endpoint, os.Getenv("SUPACTL_API_ENDPOINT"))
	apiKey := firstNonEmpty(viper.GetString("api.apiKey"), cfg.API.APIKey, os.Getenv("SUPACTL_API_KEY"))
	if endpoint == "" || apiKey == "" {
		return nil, fmt.Errorf("endpoint and API key are required (flags, config file, or SUPACTL_API_* env)")
	}

	opts := []client.Option{
		client.WithLogger(logger),
		client.WithDisplayName(firstNonEmpty(viper.GetString("api.displayName"), cfg.API.DisplayName)),
	}
	if viper.GetBool("allow-any-host") {
		opts = append(opts, client.WithHostPattern(regexp.MustCompile(`^https?://\S+$`)))
	}
	return client.Connect(ctx, endpoint, apiKey, opts...)
}

// startMetrics starts the optional metrics endpoint for long-running
// commands like brute-force discovery.
func startMetrics(ctx context.Context, wg *sync.WaitGroup) {
	if !viper.GetBool("metrics.enabled") && !cfg.Metrics.Enabled {
		return
	}
	addr := firstNonEmpty(viper.GetString("metrics.listenAddr"), cfg.Metrics.ListenAddr)
	metrics.StartServer(ctx, wg, logger, &metrics.ServerOpts{Addr: addr})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
