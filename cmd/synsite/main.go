package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	synsiteembed "github.com/synvert-hq/synsite/embed"
	"github.com/synvert-hq/synsite/internal/config"
	"github.com/synvert-hq/synsite/internal/logging"
	"github.com/synvert-hq/synsite/internal/server"
	"github.com/synvert-hq/synsite/internal/snippetsync"
)

// Set by linker via -ldflags.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	// Check for --version before full flag parsing
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" {
			fmt.Printf("synsite %s (%s) built %s\n", version, commit, date)
			os.Exit(0)
		}
	}

	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "synsite: %v\n", err)
		os.Exit(1)
	}

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "synsite: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "synsite",
		Short: "Serve and maintain the Synvert website",
		Long: `synsite serves the built Synvert website with navigation highlighting,
language switching and desktop app download redirects, and regenerates
the Official Snippets pages from the synvert tool images.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newSyncCmd())
	return root
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the built site",
		Args:  cobra.NoArgs,
	}
	flags := config.BindServe(cmd.Flags())

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := flags.Finish()
		if err != nil {
			return err
		}
		return serve(cfg)
	}
	return cmd
}

func serve(cfg *config.ServeConfig) error {
	logger := logging.Setup(os.Stdout, cfg.LogLevel)

	logger.Info("config loaded",
		"listen", cfg.Listen,
		"site_dir", cfg.SiteDir,
		"release_repo", cfg.ReleaseRepo,
		"api_url", cfg.APIURL,
		"github_token", cfg.GitHubToken != "",
		"download_hosts", cfg.DownloadHosts,
		"languages", cfg.Languages,
		"cache_ttl", cfg.CacheTTL.String(),
		"cache_max_size", cfg.CacheMaxSize,
		"fetch_timeout", cfg.FetchTimeout.String(),
	)

	if info, err := os.Stat(cfg.SiteDir); err != nil || !info.IsDir() {
		logger.Warn("site directory missing, only redirects will work", "site_dir", cfg.SiteDir)
	}

	srv, err := server.New(cfg, version, synsiteembed.Assets, server.WithLogger(logger))
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.Listen,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in background
	listenErr := make(chan error, 1)
	go func() {
		logger.Info("server started", "listen", cfg.Listen, "version", version)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
		}
		close(listenErr)
	}()

	// Wait for shutdown signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	select {
	case err := <-listenErr:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	// Graceful shutdown with 30s timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("shutdown complete")
	return nil
}

func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Regenerate <language>/official_snippets.md from the synvert tool images",
		Args:  cobra.NoArgs,
	}
	flags := config.BindSync(cmd.Flags())

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := flags.Finish()
		if err != nil {
			return err
		}

		// Pages go to stdout in dry-run mode, so logs stay on stderr.
		logger := logging.Setup(os.Stderr, cfg.LogLevel)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
		defer stop()

		results, err := snippetsync.New(cfg, snippetsync.ExecRunner{}, logger, cmd.OutOrStdout()).Run(ctx)
		if err != nil {
			return err
		}

		total := 0
		for _, res := range results {
			total += res.Snippets
		}
		logger.Info("sync complete",
			slog.Int("languages", len(results)),
			slog.Int("snippets", total),
			slog.Bool("dry_run", cfg.DryRun),
		)
		return nil
	}
	return cmd
}
