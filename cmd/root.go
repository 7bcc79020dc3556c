package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/discovery-cli/internal/config"
	"github.com/sells-group/discovery-cli/pkg/discovery"
)

// fullScreen marks commands that own the terminal; their logs must not
// reach stderr.
const fullScreen = "full-screen"

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "discovery",
	Short: "Form D startup discovery dashboard",
	Long:  "Browse newly founded companies discovered from SEC Form D filings, trigger filing scans and AI enrichment through the discovery API.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		c, err := config.Load(config.WithConfigFile(path), config.WithFlags(cmd.Flags()))
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := c.Validate(); err != nil {
			return fmt.Errorf("validate config: %w", err)
		}
		cfg = c

		initLogger := config.InitLogger
		if cmd.Annotations[fullScreen] == "true" {
			initLogger = config.InitScreenLogger
		}
		if err := initLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default ./discovery.yaml or ~/.config/discovery/discovery.yaml)")
	rootCmd.PersistentFlags().String("api-url", "", "discovery API base URL (overrides api.base_url)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-file", "", "write logs to this file")
}

// newClient builds the API client from configuration.
func newClient(c *config.Config) discovery.Client {
	opts := []discovery.Option{
		discovery.WithBaseURL(c.API.BaseURL),
		discovery.WithTimeout(c.API.Timeout()),
		discovery.WithUserAgent(c.API.UserAgent),
	}
	if c.API.RateLimit > 0 {
		opts = append(opts, discovery.WithRateLimit(rate.Limit(c.API.RateLimit), c.API.RateBurst))
	}
	return discovery.NewClient(opts...)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
