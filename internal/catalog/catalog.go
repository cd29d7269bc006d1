// internal/catalog/catalog.go
package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github-commit-sync/internal/database"
	custom_errors "github-commit-sync/internal/errors"
	"github-commit-sync/internal/model"
)

// Catalog loads the tracked repositories.
type Catalog struct {
	db     database.Querier
	logger *slog.Logger
}

// New creates a new Catalog instance.
func New(db database.Querier, logger *slog.Logger) *Catalog {
	return &Catalog{db: db, logger: logger}
}

// Load returns every tracked repository with OwnerLogin filled in from the
// owning user or organization. Nothing is returned on failure.
func (c *Catalog) Load(ctx context.Context) ([]model.Repository, error) {
	c.logger.Info("Fetching repositories from database")

	repos, err := c.db.ListRepositories(ctx)
	if err != nil {
		return nil, fmt.Errorf("load repositories: %w", err)
	}

	var orgIDs, userIDs []string
	for _, repo := range repos {
		if repo.OwnerIsOrganization {
			orgIDs = append(orgIDs, repo.OwnerID)
		} else {
			userIDs = append(userIDs, repo.OwnerID)
		}
	}

	orgs, err := c.db.ListGitOrganizationsByID(ctx, dedupe(orgIDs))
	if err != nil {
		return nil, fmt.Errorf("load repository organizations: %w", err)
	}
	users, err := c.db.ListGitUsersByID(ctx, dedupe(userIDs))
	if err != nil {
		return nil, fmt.Errorf("load repository users: %w", err)
	}

	orgLogins := make(map[string]string, len(orgs))
	for _, o := range orgs {
		orgLogins[o.ID] = o.Login
	}
	userLogins := make(map[string]string, len(users))
	for _, u := range users {
		userLogins[u.ID] = u.Login
	}

	for i := range repos {
		logins := userLogins
		if repos[i].OwnerIsOrganization {
			logins = orgLogins
		}
		login, ok := logins[repos[i].OwnerID]
		if !ok {
			return nil, &custom_errors.UnknownOwnerError{RepositoryID: repos[i].ID, OwnerID: repos[i].OwnerID}
		}
		repos[i].OwnerLogin = login
	}

	c.logger.Info("Fetched repositories", "count", len(repos))
	return repos, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
