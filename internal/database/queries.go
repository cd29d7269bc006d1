// internal/database/queries.go
package database

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github-commit-sync/internal/model"
)

const (
	TableRepository      = "repository"
	TableGitUser         = "git_user"
	TableGitOrganization = "git_organization"
	TableCommit          = "commit"
)

var (
	repositoryColumns = []string{"id", "name", "owner_id", "owner_is_organization", "tracked_branch_ref", "root_commit_is_reached"}
	gitUserColumns    = []string{"id", "login", "name", "email", "avatar_url"}
	orgColumns        = []string{"id", "login", "name"}
	commitRefColumns  = []string{"id", "committed_date"}
)

// Querier is the storage surface used by the synchronizer.
type Querier interface {
	ListRepositories(ctx context.Context) ([]model.Repository, error)
	CreateRepository(ctx context.Context, repo model.Repository) error
	MarkRootCommitReached(ctx context.Context, repositoryID string) error

	ListGitOrganizationsByID(ctx context.Context, ids []string) ([]model.GitOrganization, error)
	CreateGitOrganization(ctx context.Context, org model.GitOrganization) error

	ListGitUsersByID(ctx context.Context, ids []string) ([]model.GitUser, error)
	CreateGitUser(ctx context.Context, user model.GitUser) error

	// GetLatestCommit and GetOldestCommit return pgx.ErrNoRows when the
	// repository has no stored commit.
	GetLatestCommit(ctx context.Context, repositoryID string) (model.CommitRef, error)
	GetOldestCommit(ctx context.Context, repositoryID string) (model.CommitRef, error)
	CommitExists(ctx context.Context, id string) (bool, error)
	// CreateCommit reports whether the commit was written.
	CreateCommit(ctx context.Context, commit model.Commit) (bool, error)
}

// Queries implements Querier on a Gateway.
type Queries struct {
	g *Gateway
}

var _ Querier = (*Queries)(nil)

// New returns Queries running against db.
func New(db DBTX) *Queries {
	return &Queries{g: NewGateway(db)}
}

func (q *Queries) ListRepositories(ctx context.Context) ([]model.Repository, error) {
	return Select[model.Repository](ctx, q.g, Query{
		Table:     TableRepository,
		Columns:   repositoryColumns,
		OrderBy:   "id",
		Ascending: true,
	})
}

// CreateRepository returns ErrConflict (wrapped) when the repository is already stored.
func (q *Queries) CreateRepository(ctx context.Context, repo model.Repository) error {
	return q.g.InsertOne(ctx, TableRepository, map[string]any{
		"id":                     repo.ID,
		"name":                   repo.Name,
		"owner_id":               repo.OwnerID,
		"owner_is_organization":  repo.OwnerIsOrganization,
		"tracked_branch_ref":     repo.TrackedBranchRef,
		"root_commit_is_reached": repo.RootCommitIsReached,
	})
}

func (q *Queries) MarkRootCommitReached(ctx context.Context, repositoryID string) error {
	return q.g.UpdateByID(ctx, TableRepository, repositoryID, map[string]any{
		"root_commit_is_reached": true,
	})
}

func (q *Queries) ListGitOrganizationsByID(ctx context.Context, ids []string) ([]model.GitOrganization, error) {
	return Select[model.GitOrganization](ctx, q.g, Query{
		Table:   TableGitOrganization,
		Columns: orgColumns,
		In:      map[string][]string{"id": ids},
	})
}

func (q *Queries) CreateGitOrganization(ctx context.Context, org model.GitOrganization) error {
	_, err := q.g.InsertOneIgnoreConflict(ctx, TableGitOrganization, map[string]any{
		"id":    org.ID,
		"login": org.Login,
		"name":  org.Name,
	})
	return err
}

func (q *Queries) ListGitUsersByID(ctx context.Context, ids []string) ([]model.GitUser, error) {
	return Select[model.GitUser](ctx, q.g, Query{
		Table:   TableGitUser,
		Columns: gitUserColumns,
		In:      map[string][]string{"id": ids},
	})
}

func (q *Queries) CreateGitUser(ctx context.Context, user model.GitUser) error {
	_, err := q.g.InsertOneIgnoreConflict(ctx, TableGitUser, map[string]any{
		"id":         user.ID,
		"login":      user.Login,
		"name":       user.Name,
		"email":      user.Email,
		"avatar_url": user.AvatarURL,
	})
	return err
}

func (q *Queries) GetLatestCommit(ctx context.Context, repositoryID string) (model.CommitRef, error) {
	return q.commitBoundary(ctx, repositoryID, false)
}

func (q *Queries) GetOldestCommit(ctx context.Context, repositoryID string) (model.CommitRef, error) {
	return q.commitBoundary(ctx, repositoryID, true)
}

func (q *Queries) commitBoundary(ctx context.Context, repositoryID string, ascending bool) (model.CommitRef, error) {
	refs, err := Select[model.CommitRef](ctx, q.g, Query{
		Table:     TableCommit,
		Columns:   commitRefColumns,
		Eq:        map[string]any{"repository_id": repositoryID},
		OrderBy:   "committed_date",
		Ascending: ascending,
		Limit:     1,
	})
	if err != nil {
		return model.CommitRef{}, err
	}
	if len(refs) == 0 {
		return model.CommitRef{}, pgx.ErrNoRows
	}
	return refs[0], nil
}

func (q *Queries) CommitExists(ctx context.Context, id string) (bool, error) {
	return q.g.IDExists(ctx, TableCommit, id)
}

func (q *Queries) CreateCommit(ctx context.Context, c model.Commit) (bool, error) {
	return q.g.InsertOneIgnoreConflict(ctx, TableCommit, map[string]any{
		"id":                   c.ID,
		"repository_id":        c.RepositoryID,
		"additions":            c.Additions,
		"deletions":            c.Deletions,
		"authored_date":        c.AuthoredDate,
		"author_id":            c.AuthorID,
		"author_name":          c.AuthorName,
		"author_email":         c.AuthorEmail,
		"author_avatar_url":    c.AuthorAvatarURL,
		"committed_date":       c.CommittedDate,
		"committer_id":         c.CommitterID,
		"committer_name":       c.CommitterName,
		"committer_email":      c.CommitterEmail,
		"committer_avatar_url": c.CommitterAvatarURL,
	})
}
