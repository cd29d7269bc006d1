// internal/users/resolver.go

// Package users resolves GitHub user ids referenced by commits to stored
// git_user rows, fetching the ones seen for the first time.
package users

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github-commit-sync/internal/database"
	"github-commit-sync/internal/model"
)

// Fetcher looks up one GitHub user by node id.
type Fetcher interface {
	FetchUser(ctx context.Context, id string) (model.GitUser, error)
}

// Resolver maps user ids to GitUser records.
type Resolver struct {
	db      database.Querier
	fetcher Fetcher
	logger  *slog.Logger
}

// NewResolver creates a new Resolver instance.
func NewResolver(db database.Querier, fetcher Fetcher, logger *slog.Logger) *Resolver {
	return &Resolver{db: db, fetcher: fetcher, logger: logger}
}

// Resolve returns a record for every id in ids. Ids unknown to storage are
// fetched from GitHub one at a time and persisted. The first failure aborts
// the whole resolution.
func (r *Resolver) Resolve(ctx context.Context, ids map[string]struct{}) (map[string]model.GitUser, error) {
	resolved := make(map[string]model.GitUser, len(ids))
	if len(ids) == 0 {
		return resolved, nil
	}

	wanted := make([]string, 0, len(ids))
	for id := range ids {
		wanted = append(wanted, id)
	}
	sort.Strings(wanted)

	stored, err := r.db.ListGitUsersByID(ctx, wanted)
	if err != nil {
		return nil, fmt.Errorf("load git users: %w", err)
	}
	for _, u := range stored {
		resolved[u.ID] = u
	}

	var missing []string
	for _, id := range wanted {
		if _, ok := resolved[id]; !ok {
			missing = append(missing, id)
		}
	}
	r.logger.Info("Resolving git users", "referenced", len(wanted), "missing", len(missing))

	for _, id := range missing {
		r.logger.Debug("Fetching git user from GitHub", "user_id", id)
		user, err := r.fetcher.FetchUser(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("fetch git user %s: %w", id, err)
		}
		user.ID = id

		if err := r.db.CreateGitUser(ctx, user); err != nil {
			return nil, fmt.Errorf("store git user %s: %w", id, err)
		}
		resolved[id] = user
	}

	return resolved, nil
}
