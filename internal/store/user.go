package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/webservice-umg/apiserver/types"
)

// Querier is the subset of a database session the repositories need.
// Queries use ? placeholders.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// UserRepository handles persistence for users within one session.
type UserRepository struct {
	q Querier
}

func NewUserRepository(q Querier) *UserRepository {
	return &UserRepository{q: q}
}

const userColumns = `id_usuario, nombre, correo, password, fecha_reg`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (types.User, error) {
	var user types.User
	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Password,
		&user.RegisteredAt,
	); err != nil {
		return types.User{}, err
	}
	user.RegisteredAt = user.RegisteredAt.UTC()
	return user, nil
}

// List returns every user ordered by ascending id.
func (r *UserRepository) List(ctx context.Context) ([]types.User, error) {
	const query = `SELECT ` + userColumns + ` FROM usuarios ORDER BY id_usuario ASC`
	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]types.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (types.User, error) {
	const query = `SELECT ` + userColumns + ` FROM usuarios WHERE id_usuario = ?`
	user, err := scanUser(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

// EmailInUse reports whether a user other than excludeID owns email.
// Pass 0 to check against every user.
func (r *UserRepository) EmailInUse(ctx context.Context, email string, excludeID int) (bool, error) {
	const query = `SELECT 1 FROM usuarios WHERE correo = ? AND id_usuario <> ? LIMIT 1`
	var one int
	err := r.q.QueryRowContext(ctx, query, email, excludeID).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Create inserts user and returns it with its assigned id. RegisteredAt is
// set here when the caller left it zero.
func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	if user.RegisteredAt.IsZero() {
		user.RegisteredAt = time.Now()
	}
	user.RegisteredAt = user.RegisteredAt.UTC().Truncate(time.Microsecond)

	const query = `
		INSERT INTO usuarios (nombre, correo, password, fecha_reg)
		VALUES (?, ?, ?, ?)
		RETURNING id_usuario`
	if err := r.q.QueryRowContext(
		ctx,
		query,
		user.Name,
		user.Email,
		user.Password,
		user.RegisteredAt,
	).Scan(&user.ID); err != nil {
		if isUniqueViolation(err) {
			return types.User{}, fmt.Errorf("create user: %w", ErrConflict)
		}
		return types.User{}, err
	}
	return user, nil
}

// Update persists name, email and password. id and fecha_reg never change.
func (r *UserRepository) Update(ctx context.Context, user types.User) (types.User, error) {
	const query = `
		UPDATE usuarios
		SET nombre = ?,
			correo = ?,
			password = ?
		WHERE id_usuario = ?`
	result, err := r.q.ExecContext(
		ctx,
		query,
		user.Name,
		user.Email,
		user.Password,
		user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return types.User{}, fmt.Errorf("update user %d: %w", user.ID, ErrConflict)
		}
		return types.User{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.User{}, err
	}
	if affected == 0 {
		return types.User{}, ErrNotFound
	}
	return r.GetByID(ctx, user.ID)
}

func (r *UserRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM usuarios WHERE id_usuario = ?`
	result, err := r.q.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
