// internal/database/dbtest/memory.go
package dbtest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jackc/pgx/v5"

	"github-commit-sync/internal/database"
	custom_errors "github-commit-sync/internal/errors"
	"github-commit-sync/internal/model"
)

// MemoryQuerier is an in-memory database.Querier with the same semantics as
// the PostgreSQL implementation.
type MemoryQuerier struct {
	mu            sync.Mutex
	Repositories  map[string]model.Repository
	Organizations map[string]model.GitOrganization
	Users         map[string]model.GitUser
	Commits       map[string]model.Commit

	// UserInserts counts CreateGitUser calls that wrote a row.
	UserInserts int
}

var _ database.Querier = (*MemoryQuerier)(nil)

// NewMemoryQuerier returns an empty store.
func NewMemoryQuerier() *MemoryQuerier {
	return &MemoryQuerier{
		Repositories:  make(map[string]model.Repository),
		Organizations: make(map[string]model.GitOrganization),
		Users:         make(map[string]model.GitUser),
		Commits:       make(map[string]model.Commit),
	}
}

func (m *MemoryQuerier) ListRepositories(_ context.Context) ([]model.Repository, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	repos := make([]model.Repository, 0, len(m.Repositories))
	for _, id := range sortedIDs(m.Repositories) {
		repos = append(repos, m.Repositories[id])
	}
	return repos, nil
}

func (m *MemoryQuerier) CreateRepository(_ context.Context, repo model.Repository) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Repositories[repo.ID]; ok {
		return &custom_errors.DataFetchError{Op: "insert into", Table: database.TableRepository, Err: custom_errors.ErrConflict}
	}
	repo.OwnerLogin = ""
	m.Repositories[repo.ID] = repo
	return nil
}

func (m *MemoryQuerier) MarkRootCommitReached(_ context.Context, repositoryID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	repo, ok := m.Repositories[repositoryID]
	if !ok {
		return &custom_errors.DataFetchError{Op: "update", Table: database.TableRepository, Err: custom_errors.ErrRowsAffected}
	}
	repo.RootCommitIsReached = true
	m.Repositories[repositoryID] = repo
	return nil
}

func (m *MemoryQuerier) ListGitOrganizationsByID(_ context.Context, ids []string) ([]model.GitOrganization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var orgs []model.GitOrganization
	for _, id := range ids {
		if org, ok := m.Organizations[id]; ok {
			orgs = append(orgs, org)
		}
	}
	return orgs, nil
}

func (m *MemoryQuerier) CreateGitOrganization(_ context.Context, org model.GitOrganization) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Organizations[org.ID]; !ok {
		m.Organizations[org.ID] = org
	}
	return nil
}

func (m *MemoryQuerier) ListGitUsersByID(_ context.Context, ids []string) ([]model.GitUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var users []model.GitUser
	for _, id := range ids {
		if u, ok := m.Users[id]; ok {
			users = append(users, u)
		}
	}
	return users, nil
}

func (m *MemoryQuerier) CreateGitUser(_ context.Context, user model.GitUser) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Users[user.ID]; !ok {
		m.Users[user.ID] = user
		m.UserInserts++
	}
	return nil
}

func (m *MemoryQuerier) GetLatestCommit(_ context.Context, repositoryID string) (model.CommitRef, error) {
	return m.boundary(repositoryID, func(a, b model.Commit) bool { return a.CommittedDate.After(b.CommittedDate) })
}

func (m *MemoryQuerier) GetOldestCommit(_ context.Context, repositoryID string) (model.CommitRef, error) {
	return m.boundary(repositoryID, func(a, b model.Commit) bool { return a.CommittedDate.Before(b.CommittedDate) })
}

func (m *MemoryQuerier) boundary(repositoryID string, better func(a, b model.Commit) bool) (model.CommitRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var (
		best  model.Commit
		found bool
	)
	for _, c := range m.Commits {
		if c.RepositoryID != repositoryID {
			continue
		}
		if !found || better(c, best) {
			best, found = c, true
		}
	}
	if !found {
		return model.CommitRef{}, pgx.ErrNoRows
	}
	return model.CommitRef{ID: best.ID, CommittedDate: best.CommittedDate}, nil
}

func (m *MemoryQuerier) CommitExists(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.Commits[id]
	return ok, nil
}

func (m *MemoryQuerier) CreateCommit(_ context.Context, c model.Commit) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Repositories[c.RepositoryID]; !ok {
		return false, fmt.Errorf("commit %s references unknown repository %s", c.ID, c.RepositoryID)
	}
	for _, ref := range []*string{c.AuthorID, c.CommitterID} {
		if ref == nil {
			continue
		}
		if _, ok := m.Users[*ref]; !ok {
			return false, fmt.Errorf("commit %s references unknown git user %s", c.ID, *ref)
		}
	}
	if _, ok := m.Commits[c.ID]; ok {
		return false, nil
	}
	m.Commits[c.ID] = c
	return true, nil
}

// CommitsFor returns the number of stored commits of a repository.
func (m *MemoryQuerier) CommitsFor(repositoryID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.Commits {
		if c.RepositoryID == repositoryID {
			n++
		}
	}
	return n
}

func sortedIDs[V any](m map[string]V) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
