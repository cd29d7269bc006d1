// internal/registry/registry.go
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github-commit-sync/internal/database"
	custom_errors "github-commit-sync/internal/errors"
	"github-commit-sync/internal/github"
	"github-commit-sync/internal/model"
)

const branchRefPrefix = "refs/heads/"

// RepoIdentifier holds the owner and name of a repository.
type RepoIdentifier struct {
	Owner string
	Name  string
}

func (r RepoIdentifier) String() string {
	return r.Owner + "/" + r.Name
}

// ParseRepoIdentifier parses an 'owner/name' string.
func ParseRepoIdentifier(repo string) (RepoIdentifier, error) {
	parts := strings.Split(repo, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return RepoIdentifier{}, &custom_errors.ErrInvalidRepoFormat{Repo: repo}
	}
	return RepoIdentifier{Owner: parts[0], Name: parts[1]}, nil
}

// GitHub is the REST surface needed to register a repository.
type GitHub interface {
	GetRepository(ctx context.Context, owner, name string) (*github.RepositoryInfo, error)
	GetOrganization(ctx context.Context, login string) (model.GitOrganization, error)
	GetUser(ctx context.Context, login string) (model.GitUser, error)
}

// Registrar adds repositories to the set of tracked repositories.
type Registrar struct {
	db     database.Querier
	gh     GitHub
	logger *slog.Logger
}

// NewRegistrar creates a new Registrar instance.
func NewRegistrar(db database.Querier, gh GitHub, logger *slog.Logger) *Registrar {
	return &Registrar{db: db, gh: gh, logger: logger}
}

// Track stores the repository, and its owner when unknown, so that the next
// sync pulls its history. An empty branch tracks the default branch.
// ErrAlreadyTracked is returned when the repository is already stored.
func (r *Registrar) Track(ctx context.Context, repo, branch string) (model.Repository, error) {
	id, err := ParseRepoIdentifier(repo)
	if err != nil {
		return model.Repository{}, err
	}
	logger := r.logger.With("repo", id.String())

	info, err := r.gh.GetRepository(ctx, id.Owner, id.Name)
	if err != nil {
		return model.Repository{}, err
	}

	if err := r.storeOwner(ctx, info.Owner); err != nil {
		return model.Repository{}, err
	}

	if branch == "" {
		branch = info.DefaultBranch
	}
	stored := model.Repository{
		ID:                  info.NodeID,
		Name:                info.Name,
		OwnerID:             info.Owner.NodeID,
		OwnerIsOrganization: info.Owner.IsOrganization,
		OwnerLogin:          info.Owner.Login,
		TrackedBranchRef:    branchRefPrefix + strings.TrimPrefix(branch, branchRefPrefix),
	}

	err = r.db.CreateRepository(ctx, stored)
	if errors.Is(err, custom_errors.ErrConflict) {
		logger.Warn("Repository is already tracked", "repo_id", stored.ID)
		return stored, fmt.Errorf("%s: %w", id, custom_errors.ErrAlreadyTracked)
	}
	if err != nil {
		return model.Repository{}, err
	}

	logger.Info("Repository tracked", "repo_id", stored.ID, "ref", stored.TrackedBranchRef)
	return stored, nil
}

// storeOwner inserts the owning organization or user, ignoring rows that already exist.
func (r *Registrar) storeOwner(ctx context.Context, owner github.OwnerInfo) error {
	if owner.IsOrganization {
		org, err := r.gh.GetOrganization(ctx, owner.Login)
		if err != nil {
			return err
		}
		return r.db.CreateGitOrganization(ctx, org)
	}

	user, err := r.gh.GetUser(ctx, owner.Login)
	if err != nil {
		return err
	}
	return r.db.CreateGitUser(ctx, user)
}
