// internal/database/gateway_test.go
package database

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	custom_errors "github-commit-sync/internal/errors"
	"github-commit-sync/internal/model"
)

// recordingDB captures statements and answers Exec with a fixed tag or error.
type recordingDB struct {
	statements []string
	args       [][]any
	tag        string
	execErr    error
	row        pgx.Row
}

func (r *recordingDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	r.statements = append(r.statements, sql)
	r.args = append(r.args, args)
	if r.execErr != nil {
		return pgconn.CommandTag{}, r.execErr
	}
	return pgconn.NewCommandTag(r.tag), nil
}

func (r *recordingDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	r.statements = append(r.statements, sql)
	r.args = append(r.args, args)
	return nil, errors.New("query not expected")
}

func (r *recordingDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	r.statements = append(r.statements, sql)
	r.args = append(r.args, args)
	return r.row
}

type scanRow struct {
	err error
}

func (s scanRow) Scan(dest ...any) error {
	if s.err != nil {
		return s.err
	}
	*(dest[0].(*int)) = 1
	return nil
}

func TestQuery_ToSQL(t *testing.T) {
	t.Run("boundary commit lookup", func(t *testing.T) {
		sql, args, err := Query{
			Table:   TableCommit,
			Columns: []string{"id", "committed_date"},
			Eq:      map[string]any{"repository_id": "R_1"},
			OrderBy: "committed_date",
			Limit:   1,
		}.ToSQL()

		require.NoError(t, err)
		assert.Equal(t, "SELECT id, committed_date FROM commit WHERE repository_id = $1 ORDER BY committed_date DESC LIMIT 1", sql)
		assert.Equal(t, []any{"R_1"}, args)
	})

	t.Run("membership filter", func(t *testing.T) {
		sql, args, err := Query{
			Table:   TableGitUser,
			Columns: []string{"id", "login"},
			In:      map[string][]string{"id": {"U_1", "U_2"}},
		}.ToSQL()

		require.NoError(t, err)
		assert.Equal(t, "SELECT id, login FROM git_user WHERE id IN ($1,$2)", sql)
		assert.Equal(t, []any{"U_1", "U_2"}, args)
	})

	t.Run("equality before membership and ascending order", func(t *testing.T) {
		sql, _, err := Query{
			Table:     TableCommit,
			Columns:   []string{"id"},
			Eq:        map[string]any{"repository_id": "R_1"},
			In:        map[string][]string{"id": {"C_1"}},
			OrderBy:   "committed_date",
			Ascending: true,
		}.ToSQL()

		require.NoError(t, err)
		assert.Equal(t, "SELECT id FROM commit WHERE repository_id = $1 AND id IN ($2) ORDER BY committed_date ASC", sql)
	})
}

func TestSelect_EmptyMembershipSkipsRoundTrip(t *testing.T) {
	db := &recordingDB{}
	g := NewGateway(db)

	users, err := Select[model.GitUser](context.Background(), g, Query{
		Table: TableGitUser,
		In:    map[string][]string{"id": {}},
	})

	require.NoError(t, err)
	assert.Empty(t, users)
	assert.Empty(t, db.statements)
}

func TestSelect_WrapsQueryErrors(t *testing.T) {
	g := NewGateway(&recordingDB{})

	_, err := Select[model.Repository](context.Background(), g, Query{Table: TableRepository})

	var dfErr *custom_errors.DataFetchError
	require.ErrorAs(t, err, &dfErr)
	assert.Equal(t, TableRepository, dfErr.Table)
}

func TestGateway_InsertOne(t *testing.T) {
	ctx := context.Background()

	t.Run("inserts a row", func(t *testing.T) {
		db := &recordingDB{tag: "INSERT 0 1"}
		err := NewGateway(db).InsertOne(ctx, TableRepository, map[string]any{"id": "R_1", "name": "repo"})

		require.NoError(t, err)
		require.Len(t, db.statements, 1)
		assert.Contains(t, db.statements[0], "INSERT INTO repository")
		assert.Equal(t, []any{"R_1", "repo"}, db.args[0])
	})

	t.Run("maps unique violations to ErrConflict", func(t *testing.T) {
		db := &recordingDB{execErr: &pgconn.PgError{Code: "23505"}}
		err := NewGateway(db).InsertOne(ctx, TableRepository, map[string]any{"id": "R_1"})

		assert.ErrorIs(t, err, custom_errors.ErrConflict)
	})

	t.Run("other errors are wrapped untouched", func(t *testing.T) {
		cause := errors.New("connection refused")
		db := &recordingDB{execErr: cause}
		err := NewGateway(db).InsertOne(ctx, TableRepository, map[string]any{"id": "R_1"})

		assert.ErrorIs(t, err, cause)
		assert.NotErrorIs(t, err, custom_errors.ErrConflict)
	})
}

func TestGateway_InsertOneIgnoreConflict(t *testing.T) {
	ctx := context.Background()

	t.Run("reports a written row", func(t *testing.T) {
		db := &recordingDB{tag: "INSERT 0 1"}
		inserted, err := NewGateway(db).InsertOneIgnoreConflict(ctx, TableCommit, map[string]any{"id": "C_1"})

		require.NoError(t, err)
		assert.True(t, inserted)
		assert.Contains(t, db.statements[0], "ON CONFLICT (id) DO NOTHING")
	})

	t.Run("reports a skipped row", func(t *testing.T) {
		db := &recordingDB{tag: "INSERT 0 0"}
		inserted, err := NewGateway(db).InsertOneIgnoreConflict(ctx, TableCommit, map[string]any{"id": "C_1"})

		require.NoError(t, err)
		assert.False(t, inserted)
	})
}

func TestGateway_UpdateByID(t *testing.T) {
	ctx := context.Background()

	t.Run("updates one row", func(t *testing.T) {
		db := &recordingDB{tag: "UPDATE 1"}
		err := NewGateway(db).UpdateByID(ctx, TableRepository, "R_1", map[string]any{"root_commit_is_reached": true})

		require.NoError(t, err)
		assert.Equal(t, "UPDATE repository SET root_commit_is_reached = $1 WHERE id = $2", db.statements[0])
		assert.Equal(t, []any{true, "R_1"}, db.args[0])
	})

	t.Run("fails when no row matched", func(t *testing.T) {
		db := &recordingDB{tag: "UPDATE 0"}
		err := NewGateway(db).UpdateByID(ctx, TableRepository, "R_404", map[string]any{"root_commit_is_reached": true})

		assert.ErrorIs(t, err, custom_errors.ErrRowsAffected)
	})
}

func TestGateway_IDExists(t *testing.T) {
	ctx := context.Background()

	exists, err := NewGateway(&recordingDB{row: scanRow{}}).IDExists(ctx, TableCommit, "C_1")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = NewGateway(&recordingDB{row: scanRow{err: pgx.ErrNoRows}}).IDExists(ctx, TableCommit, "C_2")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = NewGateway(&recordingDB{row: scanRow{err: errors.New("boom")}}).IDExists(ctx, TableCommit, "C_3")
	var dfErr *custom_errors.DataFetchError
	assert.ErrorAs(t, err, &dfErr)
}

func TestUniqueConstraint(t *testing.T) {
	assert.True(t, UniqueConstraint(&pgconn.PgError{Code: "23505"}))
	assert.False(t, UniqueConstraint(&pgconn.PgError{Code: "23502"}))
	assert.False(t, UniqueConstraint(errors.New("plain")))
}
