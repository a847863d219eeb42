package db

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
)

// Session is a single pooled connection scoped to one unit of work.
// Queries use ? placeholders and are rebound for the session's dialect.
type Session struct {
	conn    *sql.Conn
	dialect Dialect
}

func (s *Session) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.conn.ExecContext(ctx, Rebind(s.dialect, query), args...)
}

func (s *Session) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.conn.QueryContext(ctx, Rebind(s.dialect, query), args...)
}

func (s *Session) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return s.conn.QueryRowContext(ctx, Rebind(s.dialect, query), args...)
}

func (s *Session) Dialect() Dialect {
	return s.dialect
}

// Close returns the connection to the pool. It is safe to call twice.
func (s *Session) Close() error {
	err := s.conn.Close()
	if errors.Is(err, sql.ErrConnDone) {
		return nil
	}
	return err
}

// Rebind rewrites ? placeholders to $N for Postgres.
func Rebind(dialect Dialect, query string) string {
	if dialect != DialectPostgres || !strings.Contains(query, "?") {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
