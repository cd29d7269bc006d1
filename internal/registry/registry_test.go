// internal/registry/registry_test.go
package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github-commit-sync/internal/database/dbtest"
	custom_errors "github-commit-sync/internal/errors"
	"github-commit-sync/internal/github"
	"github-commit-sync/internal/model"
)

func TestParseRepoIdentifier(t *testing.T) {
	testCases := []struct {
		input   string
		want    RepoIdentifier
		wantErr bool
	}{
		{input: "acme/api", want: RepoIdentifier{Owner: "acme", Name: "api"}},
		{input: "acme", wantErr: true},
		{input: "acme/", wantErr: true},
		{input: "/api", wantErr: true},
		{input: "acme/api/extra", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseRepoIdentifier(tc.input)
			if tc.wantErr {
				var formatErr *custom_errors.ErrInvalidRepoFormat
				require.ErrorAs(t, err, &formatErr)
				assert.Equal(t, tc.input, formatErr.Repo)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.input, got.String())
		})
	}
}

func newGitHubServer(t *testing.T) *github.Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/acme/api":
			fmt.Fprint(w, `{"node_id": "R_api", "name": "api", "default_branch": "main", "owner": {"login": "acme", "node_id": "O_acme", "type": "Organization"}}`)
		case "/repos/jdoe/dotfiles":
			fmt.Fprint(w, `{"node_id": "R_dot", "name": "dotfiles", "default_branch": "master", "owner": {"login": "jdoe", "node_id": "U_jdoe", "type": "User"}}`)
		case "/orgs/acme":
			fmt.Fprint(w, `{"login": "acme", "node_id": "O_acme", "name": "Acme Inc"}`)
		case "/users/jdoe":
			fmt.Fprint(w, `{"login": "jdoe", "node_id": "U_jdoe", "name": "Jane Doe", "email": "jane@example.com", "avatar_url": "https://a/jdoe"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message": "Not Found"}`)
		}
	}))
	t.Cleanup(server.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client, err := github.NewClient("test-token", logger).WithEndpoints("", server.URL)
	require.NoError(t, err)
	return client
}

func TestRegistrar_Track(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	t.Run("organization owned repository on its default branch", func(t *testing.T) {
		store := dbtest.NewMemoryQuerier()
		r := NewRegistrar(store, newGitHubServer(t), logger)

		repo, err := r.Track(ctx, "acme/api", "")

		require.NoError(t, err)
		assert.Equal(t, "refs/heads/main", repo.TrackedBranchRef)
		assert.Equal(t, "acme", repo.OwnerLogin)

		stored := store.Repositories["R_api"]
		assert.Equal(t, "api", stored.Name)
		assert.Equal(t, "O_acme", stored.OwnerID)
		assert.True(t, stored.OwnerIsOrganization)
		assert.False(t, stored.RootCommitIsReached)
		assert.Equal(t, "acme", store.Organizations["O_acme"].Login)
	})

	t.Run("user owned repository on an explicit branch", func(t *testing.T) {
		store := dbtest.NewMemoryQuerier()
		r := NewRegistrar(store, newGitHubServer(t), logger)

		_, err := r.Track(ctx, "jdoe/dotfiles", "refs/heads/release")

		require.NoError(t, err)
		assert.Equal(t, "refs/heads/release", store.Repositories["R_dot"].TrackedBranchRef)
		assert.False(t, store.Repositories["R_dot"].OwnerIsOrganization)
		assert.Equal(t, "jane@example.com", store.Users["U_jdoe"].Email)
	})

	t.Run("tracking twice reports already tracked", func(t *testing.T) {
		store := dbtest.NewMemoryQuerier()
		r := NewRegistrar(store, newGitHubServer(t), logger)

		_, err := r.Track(ctx, "acme/api", "")
		require.NoError(t, err)
		_, err = r.Track(ctx, "acme/api", "develop")

		assert.ErrorIs(t, err, custom_errors.ErrAlreadyTracked)
		assert.Equal(t, "refs/heads/main", store.Repositories["R_api"].TrackedBranchRef)
	})

	t.Run("unknown repository", func(t *testing.T) {
		store := dbtest.NewMemoryQuerier()
		r := NewRegistrar(store, newGitHubServer(t), logger)

		_, err := r.Track(ctx, "acme/missing", "")

		var reqErr *custom_errors.RequestError
		require.ErrorAs(t, err, &reqErr)
		assert.Equal(t, http.StatusNotFound, reqErr.StatusCode)
		assert.Empty(t, store.Repositories)
	})

	t.Run("invalid identifier never reaches GitHub", func(t *testing.T) {
		mockQ := new(dbtest.MockQuerier)
		r := NewRegistrar(mockQ, nil, logger)

		_, err := r.Track(ctx, "not-a-repo", "")

		var formatErr *custom_errors.ErrInvalidRepoFormat
		assert.ErrorAs(t, err, &formatErr)
		mockQ.AssertNotCalled(t, "CreateRepository", mock.Anything, mock.Anything)
	})

	t.Run("owner storage failure stops registration", func(t *testing.T) {
		mockQ := new(dbtest.MockQuerier)
		dbErr := errors.New("connection refused")
		mockQ.On("CreateGitOrganization", ctx, model.GitOrganization{ID: "O_acme", Login: "acme", Name: strPtr("Acme Inc")}).Return(dbErr).Once()
		r := NewRegistrar(mockQ, newGitHubServer(t), logger)

		_, err := r.Track(ctx, "acme/api", "")

		assert.ErrorIs(t, err, dbErr)
		mockQ.AssertExpectations(t)
		mockQ.AssertNotCalled(t, "CreateRepository", mock.Anything, mock.Anything)
	})
}

func strPtr(s string) *string { return &s }
