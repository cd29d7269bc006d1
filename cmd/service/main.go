// cmd/service/main.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github-commit-sync/internal/catalog"
	"github-commit-sync/internal/config"
	"github-commit-sync/internal/database"
	"github-commit-sync/internal/github"
	"github-commit-sync/internal/registry"
	"github-commit-sync/internal/syncer"
	"github-commit-sync/internal/users"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "commit-sync",
	Short: "Mirror the commit history of tracked GitHub repositories into PostgreSQL",
	Long: `commit-sync keeps a PostgreSQL copy of the commit history of a set of
tracked GitHub repositories. Each run walks forward from the newest stored
commit and, until the root commit is reached, backward from the oldest one.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to an env file (default: ./.env when present)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("Application error", "error", err)
		os.Exit(1)
	}
}

// app holds the wired components shared by the commands.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	pool   *pgxpool.Pool
	gh     *github.Client
	db     *database.Queries
}

// bootstrap loads configuration, sets up logging and opens the database pool.
// The returned context is cancelled on SIGINT or SIGTERM.
func bootstrap(parent context.Context) (context.Context, *app, func(), error) {
	logLevel := new(slog.LevelVar)
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(handler)
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	setLogLevel(cfg.LogLevel, logLevel)
	logger.Info("Configuration loaded successfully")

	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)

	pool, err := pgxpool.New(ctx, cfg.DBURL)
	if err != nil {
		cancel()
		return nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	logger.Info("Database connection established")

	gh, err := github.NewClient(cfg.GithubToken, logger).WithEndpoints(cfg.GithubGraphQLURL, cfg.GithubAPIURL)
	if err != nil {
		pool.Close()
		cancel()
		return nil, nil, nil, err
	}

	a := &app{
		cfg:    cfg,
		logger: logger,
		pool:   pool,
		gh:     gh,
		db:     database.New(pool),
	}
	cleanup := func() {
		pool.Close()
		cancel()
	}
	return ctx, a, cleanup, nil
}

func (a *app) syncer() *syncer.Syncer {
	return syncer.NewSyncer(
		a.db,
		catalog.New(a.db, a.logger),
		a.gh,
		users.NewResolver(a.db, a.gh, a.logger),
		a.logger,
		syncer.Options{DefaultSince: a.cfg.DefaultSyncSinceTime, MaxPages: a.cfg.MaxPages},
	)
}

func (a *app) registrar() *registry.Registrar {
	return registry.NewRegistrar(a.db, a.gh, a.logger)
}

func (a *app) migrate() error {
	if err := database.Migrate(a.cfg.DBURL); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}
	a.logger.Info("Database migrations applied successfully")
	return nil
}

func setLogLevel(level string, v *slog.LevelVar) {
	switch level {
	case "debug":
		v.Set(slog.LevelDebug)
	case "warn":
		v.Set(slog.LevelWarn)
	case "error":
		v.Set(slog.LevelError)
	default:
		v.Set(slog.LevelInfo)
	}
}
