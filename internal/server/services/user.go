// Package services contains server-side business logic. This file implements
// UserService, which handles registration, login/logout, request
// authentication, account deletion, and preference updates on top of the
// user and session repositories.
package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/dkarlovs/uservault/internal/common"
	"github.com/dkarlovs/uservault/internal/logging"
	"github.com/dkarlovs/uservault/internal/server/auth"
	"github.com/dkarlovs/uservault/internal/server/config"
	"github.com/dkarlovs/uservault/internal/server/models"
	"github.com/dkarlovs/uservault/internal/server/repositories/sessions"
	"github.com/dkarlovs/uservault/internal/server/repositories/users"
)

// UserService provides identity operations. The user's email doubles as the
// session user_id everywhere.
type UserService struct {
	users         users.Repository
	sessions      sessions.Repository
	logger        logging.Logger
	jwtSecret     []byte
	tokenValidity time.Duration
}

func NewUserService(u users.Repository, s sessions.Repository, l logging.Logger, cfg *config.Config) *UserService {
	return &UserService{
		users:         u,
		sessions:      s,
		logger:        l.With("module", "user_service"),
		jwtSecret:     []byte(cfg.SecretKey),
		tokenValidity: cfg.AccessTokenValidityDuration,
	}
}

// Register creates a new user with a bcrypt-hashed password. The repository
// reports common.ErrorDuplicateKey when the email is already taken.
func (s *UserService) Register(ctx context.Context, email, name, password string) (*models.User, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password must not be empty", common.ErrorInvalidArgument)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, common.ErrorInternal
	}

	user := &models.User{Email: email, Name: name, Password: hash}
	if err := s.users.Add(ctx, user); err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return user, nil
}

// Login verifies the credentials and, on success, issues a fresh token and
// upserts the user's session so only the newest token is active.
func (s *UserService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.Get(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorUnauthorized
		}
		return "", fmt.Errorf("error loading user: %w", err)
	}

	if !auth.CheckPassword(user.Password, password) {
		return "", common.ErrorUnauthorized
	}

	token, err := auth.GenerateToken(user.Email, s.jwtSecret, s.tokenValidity)
	if err != nil {
		return "", common.ErrorInternal
	}

	if err := s.sessions.Create(ctx, user.Email, token); err != nil {
		return "", fmt.Errorf("error creating session: %w", err)
	}

	return token, nil
}

// Authenticate resolves a bearer token to its user. The token must verify,
// match the stored session token exactly, and belong to an existing user.
// A session pointing at a deleted user is treated as stale, not a fault.
func (s *UserService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	email, err := auth.GetUserIDFromToken(token, s.jwtSecret)
	if err != nil {
		return nil, common.ErrorUnauthorized
	}

	session, err := s.sessions.Get(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error loading session: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(session.JWT), []byte(token)) != 1 {
		// Superseded by a newer login.
		return nil, common.ErrorUnauthorized
	}

	user, err := s.users.Get(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Warn(ctx, "session references a deleted user", "user_id", email)
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	return user, nil
}

// Logout drops the user's session. Logging out without a session is fine.
func (s *UserService) Logout(ctx context.Context, email string) error {
	if _, err := s.sessions.Delete(ctx, email); err != nil {
		return fmt.Errorf("error deleting session: %w", err)
	}
	return nil
}

// DeleteUser removes the user's session first and then the user document.
// The two deletes touch separate documents and are not atomic together; a
// session-cleanup failure aborts the operation so it never hides behind a
// successful user deletion.
func (s *UserService) DeleteUser(ctx context.Context, email string) error {
	if _, err := s.sessions.Delete(ctx, email); err != nil {
		return fmt.Errorf("session cleanup for %q failed, user not deleted: %w", email, err)
	}

	if err := s.users.Delete(ctx, email); err != nil {
		return fmt.Errorf("error deleting user: %w", err)
	}

	return nil
}

// UpdatePreferences applies a partial preference update; see
// users.Repository for the per-key semantics.
func (s *UserService) UpdatePreferences(ctx context.Context, email string, preferences map[string]any) error {
	if err := s.users.UpdatePreferences(ctx, email, preferences); err != nil {
		return fmt.Errorf("error updating preferences: %w", err)
	}
	return nil
}

// GetUser returns the user record for email or common.ErrorNotFound.
func (s *UserService) GetUser(ctx context.Context, email string) (*models.User, error) {
	return s.users.Get(ctx, email)
}
