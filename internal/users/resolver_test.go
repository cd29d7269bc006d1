// internal/users/resolver_test.go
package users

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github-commit-sync/internal/database/dbtest"
	custom_errors "github-commit-sync/internal/errors"
	"github-commit-sync/internal/model"
)

type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) FetchUser(ctx context.Context, id string) (model.GitUser, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.GitUser), args.Error(1)
}

func idSet(ids ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func TestResolver_Resolve(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	t.Run("empty set does not touch storage", func(t *testing.T) {
		mockQ := new(dbtest.MockQuerier)
		fetcher := new(MockFetcher)

		got, err := NewResolver(mockQ, fetcher, logger).Resolve(ctx, nil)

		require.NoError(t, err)
		assert.Empty(t, got)
		mockQ.AssertNotCalled(t, "ListGitUsersByID", mock.Anything, mock.Anything)
	})

	t.Run("fetches and stores only unknown users", func(t *testing.T) {
		mockQ := new(dbtest.MockQuerier)
		fetcher := new(MockFetcher)

		known := model.GitUser{ID: "U_1", Login: "known"}
		mockQ.On("ListGitUsersByID", ctx, []string{"U_1", "U_2"}).Return([]model.GitUser{known}, nil).Once()

		fetched := model.GitUser{Login: "newcomer", AvatarURL: "https://a/2"}
		fetcher.On("FetchUser", ctx, "U_2").Return(fetched, nil).Once()
		mockQ.On("CreateGitUser", ctx, model.GitUser{ID: "U_2", Login: "newcomer", AvatarURL: "https://a/2"}).Return(nil).Once()

		got, err := NewResolver(mockQ, fetcher, logger).Resolve(ctx, idSet("U_2", "U_1"))

		require.NoError(t, err)
		assert.Equal(t, known, got["U_1"])
		assert.Equal(t, "U_2", got["U_2"].ID)
		assert.Equal(t, "newcomer", got["U_2"].Login)
		mockQ.AssertExpectations(t)
		fetcher.AssertExpectations(t)
		fetcher.AssertNotCalled(t, "FetchUser", ctx, "U_1")
	})

	t.Run("a failed lookup aborts the batch", func(t *testing.T) {
		mockQ := new(dbtest.MockQuerier)
		fetcher := new(MockFetcher)
		apiErr := &custom_errors.RequestError{StatusCode: 502, Detail: "bad gateway"}

		mockQ.On("ListGitUsersByID", ctx, []string{"U_1", "U_2"}).Return([]model.GitUser{}, nil).Once()
		fetcher.On("FetchUser", ctx, "U_1").Return(model.GitUser{}, apiErr).Once()

		_, err := NewResolver(mockQ, fetcher, logger).Resolve(ctx, idSet("U_1", "U_2"))

		assert.ErrorIs(t, err, apiErr)
		fetcher.AssertNotCalled(t, "FetchUser", ctx, "U_2")
		mockQ.AssertNotCalled(t, "CreateGitUser", mock.Anything, mock.Anything)
	})

	t.Run("storage failure is returned", func(t *testing.T) {
		mockQ := new(dbtest.MockQuerier)
		dbErr := &custom_errors.DataFetchError{Op: "select from", Table: "git_user", Err: errors.New("down")}
		mockQ.On("ListGitUsersByID", ctx, []string{"U_1"}).Return([]model.GitUser(nil), dbErr).Once()

		_, err := NewResolver(mockQ, new(MockFetcher), logger).Resolve(ctx, idSet("U_1"))

		var dfErr *custom_errors.DataFetchError
		assert.ErrorAs(t, err, &dfErr)
	})
}
