// cmd/service/commands.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github-commit-sync/internal/api"
	custom_errors "github-commit-sync/internal/errors"
	"github-commit-sync/internal/syncer"
)

const shutdownTimeout = 10 * time.Second

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one synchronization pass over every tracked repository",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, a, cleanup, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		if err := a.migrate(); err != nil {
			return err
		}

		runner := syncer.NewRunner(a.syncer(), a.cfg.SyncInterval, a.logger)
		_, err = runner.RunOnce(ctx)
		return err
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the periodic scheduler and the ops HTTP server",
	Long: `serve runs a synchronization pass at startup and then once per SYNC_INTERVAL.
GET /health reports the last run and POST /v1/sync starts one on demand.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, a, cleanup, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		if err := a.migrate(); err != nil {
			return err
		}
		trackConfigured(ctx, a)

		runner := syncer.NewRunner(a.syncer(), a.cfg.SyncInterval, a.logger)
		server := &http.Server{
			Addr:              a.cfg.HTTPAddr,
			Handler:           api.NewRouter(ctx, runner, a.logger),
			ReadHeaderTimeout: 5 * time.Second,
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			runner.Start(gctx)
			return nil
		})
		g.Go(func() error {
			a.logger.Info("HTTP server listening", "addr", server.Addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			a.logger.Info("Shutdown signal received. Exiting.")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})

		err = g.Wait()
		runner.Wait()
		return err
	},
}

var trackBranch string

var trackCmd = &cobra.Command{
	Use:   "track [owner/name...]",
	Short: "Register repositories for synchronization",
	Long: `track stores the given repositories, or the TRACK_REPOS list when none is
given, together with their owner. The default branch is tracked unless
--branch is set. Repositories that are already tracked are skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, a, cleanup, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		if err := a.migrate(); err != nil {
			return err
		}

		repos := args
		if len(repos) == 0 {
			repos = a.cfg.TrackRepos
		}
		if len(repos) == 0 {
			return errors.New("no repository given and TRACK_REPOS is empty")
		}

		registrar := a.registrar()
		for _, repo := range repos {
			if _, err := registrar.Track(ctx, repo, trackBranch); err != nil && !errors.Is(err, custom_errors.ErrAlreadyTracked) {
				return err
			}
		}
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, a, cleanup, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		return a.migrate()
	},
}

// trackConfigured registers TRACK_REPOS at startup. Failures are logged and
// do not prevent the service from starting.
func trackConfigured(ctx context.Context, a *app) {
	registrar := a.registrar()
	for _, repo := range a.cfg.TrackRepos {
		_, err := registrar.Track(ctx, repo, "")
		if err != nil && !errors.Is(err, custom_errors.ErrAlreadyTracked) {
			a.logger.Error("Failed to track configured repository", "repo", repo, "error", err)
		}
	}
}

func init() {
	trackCmd.Flags().StringVar(&trackBranch, "branch", "", "branch to track (default: the repository default branch)")

	rootCmd.AddCommand(runCmd, serveCmd, trackCmd, migrateCmd)
}
