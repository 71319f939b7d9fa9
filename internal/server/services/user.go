// Package services contains server-side business logic. This file implements
// UserService, which handles registration, login, logout and the address
// book of the authenticated user.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/addressbook"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/revocation"
	"github.com/google/uuid"
)

var (
	ErrUserNotFound    = fmt.Errorf("user %w", common.ErrorNotFound)
	ErrAddressNotFound = fmt.Errorf("address %w", common.ErrorNotFound)
)

// RegisterInput carries validated registration fields. Email is expected
// to be normalized already.
type RegisterInput struct {
	UserName  string
	Email     string
	Password  string
	FullName  models.FullName
	Role      models.Role
	Addresses []models.Address
}

// Session is the outcome of a successful register or login: the sanitized
// user and a freshly issued token.
type Session struct {
	User  *models.User
	Token string
}

// UserService orchestrates the credential, token, revocation and address
// components on top of the users repository.
type UserService struct {
	db          dbx.DBTX
	tx          dbx.TxRunner
	repomanager repomanager.RepositoryManager
	hasher      auth.PasswordHasher
	codec       *auth.Codec
	revocations revocation.Store
	logger      logging.Logger
}

// NewUserService wires a UserService. db serves single-statement reads and
// writes, tx runs address read-modify-write cycles.
func NewUserService(
	db dbx.DBTX,
	tx dbx.TxRunner,
	m repomanager.RepositoryManager,
	hasher auth.PasswordHasher,
	codec *auth.Codec,
	revocations revocation.Store,
	logger logging.Logger,
) *UserService {
	return &UserService{
		db:          db,
		tx:          tx,
		repomanager: m,
		hasher:      hasher,
		codec:       codec,
		revocations: revocations,
		logger:      logger.With("module", "user_service"),
	}
}

func withAddressIDs(list []models.Address) []models.Address {
	out := make([]models.Address, len(list))
	for i, a := range list {
		a.ID = uuid.NewString()
		out[i] = a
	}
	return out
}

func (s *UserService) issue(user *models.User) (*Session, error) {
	token, err := s.codec.Issue(auth.Identity{UserID: user.ID, Role: user.Role})
	if err != nil {
		return nil, fmt.Errorf("error issuing token: %w", err)
	}
	user.PasswordHash = ""
	return &Session{User: user, Token: token}, nil
}

// Register creates a user and opens a session for it. A duplicate username
// or email yields common.ErrorConflict whether the pre-check or the store
// constraint catches it.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	role, ok := models.ParseRole(string(in.Role))
	if !ok {
		return nil, fmt.Errorf("%w: unsupported role %q", common.ErrorValidation, in.Role)
	}

	repo := s.repomanager.Users(s.db)

	exists, err := repo.ExistsByUserNameOrEmail(ctx, in.UserName, in.Email)
	if err != nil {
		return nil, fmt.Errorf("error checking existing user: %w", err)
	}
	if exists {
		return nil, common.ErrorConflict
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		UserName:     in.UserName,
		Email:        in.Email,
		PasswordHash: hash,
		FullName:     in.FullName,
		Role:         role,
		Addresses:    addressbook.Normalize(withAddressIDs(in.Addresses)),
	}

	user, err = repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			s.logger.Info(ctx, "registration lost uniqueness race", "username", in.UserName)
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return s.issue(user)
}

// Login verifies credentials against the user whose username or email
// equals identifier. Unknown users and wrong passwords both produce
// common.ErrorInvalidCredentials after the same amount of hashing work.
func (s *UserService) Login(ctx context.Context, identifier, password string) (*Session, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetUserByLogin(ctx, identifier)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.Verify(password, s.hasher.DummyHash())
			return nil, common.ErrorInvalidCredentials
		}
		return nil, fmt.Errorf("error looking up user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, common.ErrorInvalidCredentials
	}

	return s.issue(user)
}

// Logout blacklists token for the rest of its lifetime. It never fails:
// the result only reports whether a revocation entry was written.
func (s *UserService) Logout(ctx context.Context, token string) bool {
	ttl, err := s.codec.RemainingTTL(token)
	if err != nil {
		s.logger.Warn(ctx, "logout with unreadable token", "error", err)
		return false
	}
	if ttl <= 0 {
		return false
	}

	if err := s.revocations.Revoke(ctx, token, ttl); err != nil {
		s.logger.Warn(ctx, "token revocation failed", "error", err)
		return false
	}

	return true
}

func (s *UserService) GetProfile(ctx context.Context, id auth.Identity) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	return user, nil
}

func (s *UserService) GetAddresses(ctx context.Context, id auth.Identity) ([]models.Address, error) {
	user, err := s.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.Addresses, nil
}

// mutateAddresses loads the user's address book under a row lock, applies
// fn and saves the result in the same transaction.
func (s *UserService) mutateAddresses(ctx context.Context, id auth.Identity, fn func([]models.Address) ([]models.Address, error)) ([]models.Address, error) {
	var out []models.Address

	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		user, err := repo.GetByIDForUpdate(ctx, id.UserID)
		if err != nil {
			return err
		}

		next, err := fn(user.Addresses)
		if err != nil {
			return err
		}

		updated, err := repo.UpdateAddresses(ctx, user.ID, next)
		if err != nil {
			return err
		}

		out = updated.Addresses
		return nil
	})

	switch {
	case err == nil:
		return out, nil
	case errors.Is(err, ErrAddressNotFound):
		return nil, err
	case errors.Is(err, common.ErrorNotFound):
		return nil, ErrUserNotFound
	default:
		return nil, fmt.Errorf("error updating addresses: %w", err)
	}
}

// AddAddress appends a with a fresh id. If a is flagged default it becomes
// the only default.
func (s *UserService) AddAddress(ctx context.Context, id auth.Identity, a models.Address) ([]models.Address, error) {
	a.ID = uuid.NewString()
	return s.mutateAddresses(ctx, id, func(list []models.Address) ([]models.Address, error) {
		return addressbook.Append(list, a), nil
	})
}

// DeleteAddress removes the address with addressID, promoting the first
// remaining address when the default is removed.
func (s *UserService) DeleteAddress(ctx context.Context, id auth.Identity, addressID string) ([]models.Address, error) {
	return s.mutateAddresses(ctx, id, func(list []models.Address) ([]models.Address, error) {
		next, ok := addressbook.Remove(list, addressID)
		if !ok {
			return nil, ErrAddressNotFound
		}
		return next, nil
	})
}
