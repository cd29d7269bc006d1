// internal/database/dbtest/mock.go

// Package dbtest provides Querier doubles for tests.
package dbtest

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github-commit-sync/internal/database"
	"github-commit-sync/internal/model"
)

// MockQuerier is a mock of the database.Querier interface.
type MockQuerier struct {
	mock.Mock
}

var _ database.Querier = (*MockQuerier)(nil)

func (m *MockQuerier) ListRepositories(ctx context.Context) ([]model.Repository, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.Repository), args.Error(1)
}
func (m *MockQuerier) CreateRepository(ctx context.Context, repo model.Repository) error {
	args := m.Called(ctx, repo)
	return args.Error(0)
}
func (m *MockQuerier) MarkRootCommitReached(ctx context.Context, repositoryID string) error {
	args := m.Called(ctx, repositoryID)
	return args.Error(0)
}
func (m *MockQuerier) ListGitOrganizationsByID(ctx context.Context, ids []string) ([]model.GitOrganization, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]model.GitOrganization), args.Error(1)
}
func (m *MockQuerier) CreateGitOrganization(ctx context.Context, org model.GitOrganization) error {
	args := m.Called(ctx, org)
	return args.Error(0)
}
func (m *MockQuerier) ListGitUsersByID(ctx context.Context, ids []string) ([]model.GitUser, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]model.GitUser), args.Error(1)
}
func (m *MockQuerier) CreateGitUser(ctx context.Context, user model.GitUser) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}
func (m *MockQuerier) GetLatestCommit(ctx context.Context, repositoryID string) (model.CommitRef, error) {
	args := m.Called(ctx, repositoryID)
	return args.Get(0).(model.CommitRef), args.Error(1)
}
func (m *MockQuerier) GetOldestCommit(ctx context.Context, repositoryID string) (model.CommitRef, error) {
	args := m.Called(ctx, repositoryID)
	return args.Get(0).(model.CommitRef), args.Error(1)
}
func (m *MockQuerier) CommitExists(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}
func (m *MockQuerier) CreateCommit(ctx context.Context, commit model.Commit) (bool, error) {
	args := m.Called(ctx, commit)
	return args.Bool(0), args.Error(1)
}
