package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	handle, err := Open(context.Background(), "sqlite:///"+path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = handle.Close() })
	return handle
}

func TestOpenSQLiteAndEnsureSchemaIsIdempotent(t *testing.T) {
	ctx := context.Background()
	handle := openTemp(t)
	assert.Equal(t, DialectSQLite, handle.Dialect())

	require.NoError(t, handle.EnsureSchema(ctx))

	_, err := handle.SQL().ExecContext(ctx,
		`INSERT INTO usuarios (nombre, correo, password, fecha_reg) VALUES ('Ana', 'ana@x.com', 'p1', CURRENT_TIMESTAMP)`)
	require.NoError(t, err)

	require.NoError(t, handle.EnsureSchema(ctx))

	var count int
	require.NoError(t, handle.SQL().QueryRowContext(ctx, `SELECT COUNT(1) FROM usuarios`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestSchemaEnforcesUniqueEmail(t *testing.T) {
	ctx := context.Background()
	handle := openTemp(t)
	require.NoError(t, handle.EnsureSchema(ctx))

	const insert = `INSERT INTO usuarios (nombre, correo, password, fecha_reg) VALUES ('Ana', 'dup@x.com', 'p1', CURRENT_TIMESTAMP)`
	_, err := handle.SQL().ExecContext(ctx, insert)
	require.NoError(t, err)
	_, err = handle.SQL().ExecContext(ctx, insert)
	assert.Error(t, err)
}

func TestSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	handle := openTemp(t)
	require.NoError(t, handle.EnsureSchema(ctx))

	sess, err := handle.Session(ctx)
	require.NoError(t, err)
	assert.Equal(t, DialectSQLite, sess.Dialect())

	_, err = sess.ExecContext(ctx,
		`INSERT INTO usuarios (nombre, correo, password, fecha_reg) VALUES (?, ?, ?, CURRENT_TIMESTAMP)`,
		"Ana", "ana@x.com", "p1")
	require.NoError(t, err)

	var name string
	require.NoError(t, sess.QueryRowContext(ctx, `SELECT nombre FROM usuarios WHERE correo = ?`, "ana@x.com").Scan(&name))
	assert.Equal(t, "Ana", name)

	require.NoError(t, sess.Close())
	require.NoError(t, sess.Close())
}

func TestOpenInMemoryKeepsStateAcrossSessions(t *testing.T) {
	ctx := context.Background()
	handle, err := Open(ctx, "sqlite://")
	require.NoError(t, err)
	defer handle.Close()

	require.NoError(t, handle.EnsureSchema(ctx))

	first, err := handle.Session(ctx)
	require.NoError(t, err)
	_, err = first.ExecContext(ctx,
		`INSERT INTO usuarios (nombre, correo, password, fecha_reg) VALUES (?, ?, ?, CURRENT_TIMESTAMP)`,
		"Ana", "ana@x.com", "p1")
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := handle.Session(ctx)
	require.NoError(t, err)
	defer second.Close()

	var count int
	require.NoError(t, second.QueryRowContext(ctx, `SELECT COUNT(1) FROM usuarios`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestOpenFailsOnMalformedURL(t *testing.T) {
	_, err := Open(context.Background(), "redis://localhost:6379")
	assert.Error(t, err)
}

func TestOpenFailsWhenDirectoryMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "dir", "test.db")
	_, err := Open(context.Background(), "sqlite:///"+path)
	assert.Error(t, err)
}
