// internal/database/gateway.go
package database

import (
	"context"
	"errors"
	"sort"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	custom_errors "github-commit-sync/internal/errors"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Query describes a single-table select.
type Query struct {
	Table   string
	Columns []string
	// Eq filters on column = value.
	Eq map[string]any
	// In filters on column IN (values). An empty value list matches nothing.
	In        map[string][]string
	OrderBy   string
	Ascending bool
	Limit     uint64
}

// ToSQL renders the query for PostgreSQL.
func (q Query) ToSQL() (string, []any, error) {
	cols := q.Columns
	if len(cols) == 0 {
		cols = []string{"*"}
	}
	b := psql.Select(cols...).From(q.Table)

	for _, col := range sortedKeys(q.Eq) {
		b = b.Where(sq.Eq{col: q.Eq[col]})
	}
	for _, col := range sortedKeys(q.In) {
		b = b.Where(sq.Eq{col: q.In[col]})
	}

	if q.OrderBy != "" {
		dir := "DESC"
		if q.Ascending {
			dir = "ASC"
		}
		b = b.OrderBy(q.OrderBy + " " + dir)
	}
	if q.Limit > 0 {
		b = b.Limit(q.Limit)
	}
	return b.ToSql()
}

func (q Query) matchesNothing() bool {
	for _, vals := range q.In {
		if len(vals) == 0 {
			return true
		}
	}
	return false
}

// Gateway runs generic statements against named tables.
type Gateway struct {
	db DBTX
}

// NewGateway creates a Gateway on top of db.
func NewGateway(db DBTX) *Gateway {
	return &Gateway{db: db}
}

// Select runs q and scans every row into a T by matching `db` struct tags.
func Select[T any](ctx context.Context, g *Gateway, q Query) ([]T, error) {
	if q.matchesNothing() {
		return nil, nil
	}

	query, args, err := q.ToSQL()
	if err != nil {
		return nil, &custom_errors.DataFetchError{Op: "select from", Table: q.Table, Err: err}
	}

	rows, err := g.db.Query(ctx, query, args...)
	if err != nil {
		return nil, &custom_errors.DataFetchError{Op: "select from", Table: q.Table, Err: err}
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByNameLax[T])
	if err != nil {
		return nil, &custom_errors.DataFetchError{Op: "select from", Table: q.Table, Err: err}
	}
	return items, nil
}

// InsertOne inserts a single row. A unique violation is reported as ErrConflict.
func (g *Gateway) InsertOne(ctx context.Context, table string, values map[string]any) error {
	query, args, err := psql.Insert(table).SetMap(values).ToSql()
	if err != nil {
		return &custom_errors.DataFetchError{Op: "insert into", Table: table, Err: err}
	}

	tag, err := g.db.Exec(ctx, query, args...)
	if err != nil {
		if UniqueConstraint(err) {
			err = custom_errors.ErrConflict
		}
		return &custom_errors.DataFetchError{Op: "insert into", Table: table, Err: err}
	}
	if tag.RowsAffected() != 1 {
		return &custom_errors.DataFetchError{Op: "insert into", Table: table, Err: custom_errors.ErrRowsAffected}
	}
	return nil
}

// InsertOneIgnoreConflict inserts a single row unless a row with the same id
// exists. It reports whether a row was written.
func (g *Gateway) InsertOneIgnoreConflict(ctx context.Context, table string, values map[string]any) (bool, error) {
	query, args, err := psql.Insert(table).SetMap(values).Suffix("ON CONFLICT (id) DO NOTHING").ToSql()
	if err != nil {
		return false, &custom_errors.DataFetchError{Op: "insert into", Table: table, Err: err}
	}

	tag, err := g.db.Exec(ctx, query, args...)
	if err != nil {
		return false, &custom_errors.DataFetchError{Op: "insert into", Table: table, Err: err}
	}
	return tag.RowsAffected() == 1, nil
}

// UpdateByID sets values on the row identified by id.
func (g *Gateway) UpdateByID(ctx context.Context, table, id string, values map[string]any) error {
	query, args, err := psql.Update(table).SetMap(values).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return &custom_errors.DataFetchError{Op: "update", Table: table, Err: err}
	}

	tag, err := g.db.Exec(ctx, query, args...)
	if err != nil {
		return &custom_errors.DataFetchError{Op: "update", Table: table, Err: err}
	}
	if tag.RowsAffected() != 1 {
		return &custom_errors.DataFetchError{Op: "update", Table: table, Err: custom_errors.ErrRowsAffected}
	}
	return nil
}

// IDExists reports whether table holds a row with the given id.
func (g *Gateway) IDExists(ctx context.Context, table, id string) (bool, error) {
	query, args, err := psql.Select("1").From(table).Where(sq.Eq{"id": id}).Limit(1).ToSql()
	if err != nil {
		return false, &custom_errors.DataFetchError{Op: "check id in", Table: table, Err: err}
	}

	var one int
	err = g.db.QueryRow(ctx, query, args...).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, &custom_errors.DataFetchError{Op: "check id in", Table: table, Err: err}
	}
	return true, nil
}

// UniqueConstraint matches a PostgreSQL unique constraint violation.
func UniqueConstraint(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// https://www.postgresql.org/docs/current/errcodes-appendix.html
		return pgErr.Code == "23505"
	}
	return false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
