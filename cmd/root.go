package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"liftlog/internal/api"
	"liftlog/internal/config"
	"liftlog/internal/database"
	"liftlog/internal/engine"
)

var rootCmd = &cobra.Command{
	Use:           "liftlog",
	Short:         "Offline-first workout log with background sync",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

// app bundles the pieces most commands need: configuration, the local
// store and a logger at the configured level
type app struct {
	cfg    *config.Config
	db     *database.DB
	logger *slog.Logger
}

func openApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logLevel := slog.LevelWarn
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "error":
		logLevel = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &app{cfg: cfg, db: db, logger: logger}, nil
}

func (a *app) Close() {
	a.db.Close()
}

// engine builds a sync engine against the configured server
func (a *app) engine() (*engine.Engine, error) {
	deviceID, err := a.db.DeviceID()
	if err != nil {
		return nil, err
	}
	client := api.NewClient(a.cfg.ServerURL, deviceID, a.logger)
	return engine.New(a.db, client, a.logger), nil
}

// userID is the owner of local data: the signed-in account, or 0 for
// the anonymous identity
func (a *app) userID() (int64, error) {
	id, _, err := a.db.Session()
	return id, err
}
