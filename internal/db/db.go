package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	defaultPingTimeout  = 5 * time.Second
	defaultConnMaxIdle  = 2 * time.Minute
	defaultConnMaxLife  = 30 * time.Minute
	defaultMaxIdleConns = 5
	defaultMaxOpenConns = 25
)

// DB is the storage handle: a connection pool plus the dialect it speaks.
// It is safe for concurrent use by request goroutines.
type DB struct {
	sql    *sql.DB
	target Target
}

// Open parses databaseURL, opens the pool and verifies the database answers.
func Open(ctx context.Context, databaseURL string) (*DB, error) {
	target, err := ParseURL(databaseURL)
	if err != nil {
		return nil, err
	}

	conn, err := sql.Open(target.DriverName, target.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", target.Dialect, err)
	}

	if target.InMemory() {
		// Every connection to :memory: is a separate database, so pin the pool
		// to one connection that is never recycled.
		conn.SetMaxOpenConns(1)
		conn.SetMaxIdleConns(1)
		conn.SetConnMaxIdleTime(0)
		conn.SetConnMaxLifetime(0)
	} else {
		conn.SetConnMaxIdleTime(defaultConnMaxIdle)
		conn.SetConnMaxLifetime(defaultConnMaxLife)
		conn.SetMaxIdleConns(defaultMaxIdleConns)
		conn.SetMaxOpenConns(defaultMaxOpenConns)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping %s database: %w", target.Dialect, err)
	}

	return &DB{sql: conn, target: target}, nil
}

// Dialect returns the backend dialect.
func (d *DB) Dialect() Dialect {
	return d.target.Dialect
}

// SQL exposes the underlying pool.
func (d *DB) SQL() *sql.DB {
	return d.sql
}

// Close releases the pool.
func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// Session checks a connection out of the pool and verifies it is alive.
// Callers must Close the session on every path.
func (d *DB) Session(ctx context.Context) (*Session, error) {
	conn, err := d.sql.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire session: %w", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping session: %w", err)
	}
	return &Session{conn: conn, dialect: d.target.Dialect}, nil
}
