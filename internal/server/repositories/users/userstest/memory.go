// Package userstest provides an in-memory users.Repository and the matching
// repository manager and transaction runner for tests that do not need
// PostgreSQL.
package userstest

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
	"github.com/google/uuid"
)

// Store is the shared state behind every Repository it vends. Username and
// email uniqueness is enforced at Create, like the database constraints.
type Store struct {
	mu    sync.Mutex
	users map[string]*models.User

	// Err, when set, is returned by every repository call.
	Err error
}

func NewStore() *Store {
	return &Store{users: make(map[string]*models.User)}
}

func clone(u *models.User) *models.User {
	c := *u
	c.Addresses = append([]models.Address{}, u.Addresses...)
	return &c
}

func sanitized(u *models.User) *models.User {
	c := clone(u)
	c.PasswordHash = ""
	return c
}

// Len returns the number of stored users.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

// Repository implements users.Repository over a Store.
type Repository struct {
	store *Store
}

var _ users.Repository = (*Repository)(nil)

func (s *Store) Repository() *Repository {
	return &Repository{store: s}
}

func (r *Repository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return nil, s.Err
	}

	for _, u := range s.users {
		if u.UserName == user.UserName {
			return nil, fmt.Errorf("%w: users_username_key", common.ErrorConflict)
		}
		if u.Email == user.Email {
			return nil, fmt.Errorf("%w: users_email_key", common.ErrorConflict)
		}
	}

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Addresses == nil {
		user.Addresses = []models.Address{}
	}
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now

	s.users[user.ID] = clone(user)
	return user, nil
}

func (r *Repository) ExistsByUserNameOrEmail(ctx context.Context, userName, email string) (bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return false, s.Err
	}

	for _, u := range s.users {
		if u.UserName == userName || u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*models.User, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return nil, s.Err
	}

	u, ok := s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return sanitized(u), nil
}

func (r *Repository) GetByIDForUpdate(ctx context.Context, id string) (*models.User, error) {
	return r.GetByID(ctx, id)
}

func (r *Repository) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return nil, s.Err
	}

	for _, u := range s.users {
		if u.UserName == login || u.Email == login {
			return clone(u), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *Repository) UpdateAddresses(ctx context.Context, id string, addresses []models.Address) (*models.User, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return nil, s.Err
	}

	u, ok := s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u.Addresses = append([]models.Address{}, addresses...)
	u.UpdatedAt = time.Now().UTC()
	return sanitized(u), nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return s.Err
	}

	if _, ok := s.users[id]; !ok {
		return common.ErrorNotFound
	}
	delete(s.users, id)
	return nil
}

// Manager satisfies repomanager.RepositoryManager, handing out repositories
// over the same Store regardless of the DBTX given.
type Manager struct {
	Store *Store
}

func NewManager(s *Store) *Manager {
	return &Manager{Store: s}
}

func (m *Manager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *Manager) Users(dbx.DBTX) users.Repository {
	return m.Store.Repository()
}

// TxRunner serializes units of work, standing in for row locks. The DBTX
// passed to fn is nil; repositories from Manager ignore it.
type TxRunner struct {
	mu sync.Mutex

	// Calls counts completed WithTx invocations.
	Calls int
}

func (t *TxRunner) WithTx(ctx context.Context, fn dbx.TxFunc) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.Calls++
	return fn(ctx, nil)
}
