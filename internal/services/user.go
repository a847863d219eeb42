package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/webservice-umg/apiserver/internal/db"
	"github.com/webservice-umg/apiserver/internal/store"
	"github.com/webservice-umg/apiserver/types"
)

// ErrEmailTaken is returned when another user already owns the email.
// It matches store.ErrConflict under errors.Is.
var ErrEmailTaken = fmt.Errorf("email already in use: %w", store.ErrConflict)

// Sessions hands out storage sessions. *db.DB implements it.
type Sessions interface {
	Session(ctx context.Context) (*db.Session, error)
}

// UserService encapsulates user use-cases. Every call runs on its own
// storage session, released before the call returns.
type UserService struct {
	db     Sessions
	events *UserEvents
	now    func() time.Time
}

// NewUserService builds the service. events may be nil.
func NewUserService(sessions Sessions, events *UserEvents) *UserService {
	return &UserService{
		db:     sessions,
		events: events,
		now:    time.Now,
	}
}

func (s *UserService) withRepo(ctx context.Context, fn func(repo *store.UserRepository) error) error {
	sess, err := s.db.Session(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = sess.Close()
	}()
	return fn(store.NewUserRepository(sess))
}

func (s *UserService) Create(ctx context.Context, in types.CreateUserInput) (types.User, error) {
	var created types.User
	err := s.withRepo(ctx, func(repo *store.UserRepository) error {
		taken, err := repo.EmailInUse(ctx, in.Email, 0)
		if err != nil {
			return err
		}
		if taken {
			return ErrEmailTaken
		}

		created, err = repo.Create(ctx, types.User{
			Name:         in.Name,
			Email:        in.Email,
			Password:     in.Password,
			RegisteredAt: s.now().UTC(),
		})
		// A concurrent insert can pass the check above; the unique index catches it.
		if errors.Is(err, store.ErrConflict) {
			return ErrEmailTaken
		}
		return err
	})
	if err != nil {
		return types.User{}, err
	}

	s.events.Publish(ctx, EventUserCreated, created)
	return created, nil
}

// List returns all users in ascending id order.
func (s *UserService) List(ctx context.Context) ([]types.User, error) {
	var users []types.User
	err := s.withRepo(ctx, func(repo *store.UserRepository) error {
		var err error
		users, err = repo.List(ctx)
		return err
	})
	return users, err
}

func (s *UserService) Get(ctx context.Context, id int) (types.User, error) {
	var user types.User
	err := s.withRepo(ctx, func(repo *store.UserRepository) error {
		var err error
		user, err = repo.GetByID(ctx, id)
		return err
	})
	return user, err
}

// Update replaces the fields present in in. The email check ignores the
// user's own row.
func (s *UserService) Update(ctx context.Context, id int, in types.UpdateUserInput) (types.User, error) {
	var updated types.User
	err := s.withRepo(ctx, func(repo *store.UserRepository) error {
		user, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if in.Email != nil {
			taken, err := repo.EmailInUse(ctx, *in.Email, id)
			if err != nil {
				return err
			}
			if taken {
				return ErrEmailTaken
			}
		}

		in.Apply(&user)
		updated, err = repo.Update(ctx, user)
		if errors.Is(err, store.ErrConflict) {
			return ErrEmailTaken
		}
		return err
	})
	if err != nil {
		return types.User{}, err
	}

	s.events.Publish(ctx, EventUserUpdated, updated)
	return updated, nil
}

func (s *UserService) Delete(ctx context.Context, id int) error {
	var deleted types.User
	err := s.withRepo(ctx, func(repo *store.UserRepository) error {
		user, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := repo.Delete(ctx, id); err != nil {
			return err
		}
		deleted = user
		return nil
	})
	if err != nil {
		return err
	}

	s.events.Publish(ctx, EventUserDeleted, deleted)
	return nil
}
