// Package cmd defines and implements the CLI commands for the newscrawler executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/news-article-crawler/internal/app"
	"github.com/JakeFAU/news-article-crawler/internal/config"
	"github.com/JakeFAU/news-article-crawler/internal/logging"
)

// runtimeKeyType is the key for storing loaded settings in the command context.
type runtimeKeyType string

const runtimeKey runtimeKeyType = "runtime"

// runtime is what PersistentPreRunE hands to subcommands.
type runtime struct {
	cfg    config.Config
	logger *zap.Logger
}

// newApp is the backend factory. It's a variable so tests can swap in
// in-memory backends.
var newApp = app.New

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	var cfgFile string
	cmd := &cobra.Command{
		Use:   "newscrawler",
		Short: "Crawls news article pages into a document store.",
		Long: `newscrawler reads a list of article URLs, fetches each page politely
(robots.txt, per-host delay), keeps only pages whose origin status header
reports success, extracts headline, byline, body, images and tags, and stores
one record per URL. Rejected URLs are appended to an error log.`,
		SilenceUsage:  true,
		SilenceErrors: true,

		// Load config and logger once; subcommands read them from the context.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			logger, err := logging.New(cfg.Logging.Development, cfg.Logging.OutputPaths...)
			if err != nil {
				return fmt.Errorf("failed to build logger: %w", err)
			}
			ctx := context.WithValue(cmd.Context(), runtimeKey, &runtime{cfg: cfg, logger: logger})
			cmd.SetContext(ctx)
			return nil
		},

		// Flushing the logger buffer ensures all logs are written before exit.
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if rt, ok := cmd.Context().Value(runtimeKey).(*runtime); ok && rt != nil {
				_ = rt.logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")

	cmd.AddCommand(newCrawlCmd())
	cmd.AddCommand(newExtractCmd())

	return cmd
}

func resolveRuntime(ctx context.Context) (*runtime, error) {
	rt, ok := ctx.Value(runtimeKey).(*runtime)
	if !ok || rt == nil {
		return nil, errors.New("configuration not loaded")
	}
	return rt, nil
}

// Execute is the main entry point. SIGINT and SIGTERM cancel the command
// context, which stops dispatch and lets in-flight URLs finish.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
