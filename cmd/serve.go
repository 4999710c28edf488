package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"liftlog/internal/config"
	"liftlog/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the reference sync server",
	Long: `Run the reference sync server. Accounts come from the [serve] tokens
list in config.toml (or LIFTLOG_SERVE_TOKEN), one "username:token"
entry per account.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		logLevel := slog.LevelInfo
		switch cfg.LogLevel {
		case "debug":
			logLevel = slog.LevelDebug
		case "warn":
			logLevel = slog.LevelWarn
		case "error":
			logLevel = slog.LevelError
		}
		logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: logLevel,
		}))
		slog.SetDefault(logger)

		if len(cfg.Serve.Tokens) == 0 {
			return fmt.Errorf("no accounts configured, add serve.tokens entries as \"username:token\"")
		}

		if err := os.MkdirAll(filepath.Dir(cfg.Serve.DatabasePath), 0o755); err != nil {
			return fmt.Errorf("failed to create data dir: %w", err)
		}
		store, err := server.OpenStore(cfg.Serve.DatabasePath)
		if err != nil {
			return err
		}
		defer store.Close()

		for _, entry := range cfg.Serve.Tokens {
			username, token, ok := strings.Cut(entry, ":")
			if !ok || username == "" || token == "" {
				return fmt.Errorf("invalid token entry %q, want \"username:token\"", entry)
			}
			id, err := store.EnsureAccount(username, token)
			if err != nil {
				return err
			}
			logger.Info("account ready", "username", username, "user_id", id)
		}

		addr := fmt.Sprintf("%s:%d", cfg.Serve.Host, cfg.Serve.Port)
		srv := &http.Server{
			Addr:         addr,
			Handler:      server.New(store, logger),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info("sync server listening", "addr", addr, "database", cfg.Serve.DatabasePath)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errCh <- err
			}
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return fmt.Errorf("sync server failed: %w", err)
		case <-sigCh:
		}

		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
