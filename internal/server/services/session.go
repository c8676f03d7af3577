// Package services contains the server-side business logic. SessionService
// registers and signs in users, issues access/refresh token pairs backed by
// persisted refresh token records, refreshes access tokens and ends sessions.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/authservice/internal/common"
	"github.com/dmitrijs2005/authservice/internal/dbx"
	"github.com/dmitrijs2005/authservice/internal/logging"
	"github.com/dmitrijs2005/authservice/internal/server/auth"
	"github.com/dmitrijs2005/authservice/internal/server/models"
	"github.com/dmitrijs2005/authservice/internal/server/repositories/repomanager"
)

// PasswordHasher is satisfied by *password.Argon2.
type PasswordHasher interface {
	Hash(ctx context.Context, password string) (string, error)
	Verify(ctx context.Context, encodedHash, password string) bool
}

// TokenPair bundles a short-lived access token and a long-lived refresh token.
// RefreshToken is empty when a refresh did not rotate it.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// ClientInfo is the request provenance recorded with a refresh token.
type ClientInfo struct {
	IP        string
	UserAgent string
}

func (c ClientInfo) withDefaults() ClientInfo {
	if c.IP == "" {
		c.IP = common.DefaultIP
	}
	if c.UserAgent == "" {
		c.UserAgent = common.DefaultUserAgent
	}
	return c
}

type SessionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      PasswordHasher
	signer      *auth.Signer
	rotate      bool
	logger      logging.Logger

	dummyOnce sync.Once
	dummyHash string
}

type SessionOption func(*SessionService)

// WithRefreshRotation makes RefreshAccess invalidate the presented refresh
// token and return a new one alongside the access token.
func WithRefreshRotation(enabled bool) SessionOption {
	return func(s *SessionService) { s.rotate = enabled }
}

func WithLogger(l logging.Logger) SessionOption {
	return func(s *SessionService) { s.logger = l }
}

func NewSessionService(db *sql.DB, m repomanager.RepositoryManager, h PasswordHasher, signer *auth.Signer, opts ...SessionOption) *SessionService {
	s := &SessionService{
		db:          db,
		repomanager: m,
		hasher:      h,
		signer:      signer,
		logger:      logging.Nop{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("module", "session_service")
	return s
}

// SignUp creates the user and its first session in one transaction.
// An email that is already registered yields common.ErrorConflict.
func (s *SessionService) SignUp(ctx context.Context, name, email, password string, client ClientInfo) (*TokenPair, error) {
	_, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, common.ErrorConflict
	case !errors.Is(err, common.ErrorNotFound):
		s.logger.Error(ctx, "user lookup failed", "error", err)
		return nil, common.ErrorInternal
	}

	hash, err := s.hasher.Hash(ctx, password)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.logger.Error(ctx, "password hashing failed", "error", err)
		return nil, common.ErrorInternal
	}

	type signedUp struct {
		userID string
		pair   *TokenPair
	}
	res, err := dbx.InTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (signedUp, error) {
		user, err := s.repomanager.Users(tx).Create(ctx, &models.User{Name: name, Email: email, PasswordHash: hash})
		if err != nil {
			if errors.Is(err, common.ErrorAlreadyExists) {
				return signedUp{}, common.ErrorConflict
			}
			return signedUp{}, fmt.Errorf("error creating user: %w", err)
		}

		pair, err := s.issuePair(ctx, tx, user, client)
		return signedUp{userID: user.ID, pair: pair}, err
	})
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return nil, common.ErrorConflict
		}
		s.logger.Error(ctx, "sign up failed", "error", err)
		return nil, common.ErrorInternal
	}

	s.logger.Info(ctx, "user signed up", "user_id", res.userID)
	return res.pair, nil
}

// SignIn verifies the credentials and starts a new session. Unknown email and
// wrong password both yield common.ErrorUnauthorized.
func (s *SessionService) SignIn(ctx context.Context, email, password string, client ClientInfo) (*TokenPair, error) {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			s.logger.Error(ctx, "user lookup failed", "error", err)
			return nil, common.ErrorInternal
		}
		// spend the same hashing work as a real check
		s.hasher.Verify(ctx, s.dummy(ctx), password)
		s.logger.Warn(ctx, "sign in rejected")
		return nil, common.ErrorUnauthorized
	}

	if !s.hasher.Verify(ctx, user.PasswordHash, password) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.logger.Warn(ctx, "sign in rejected")
		return nil, common.ErrorUnauthorized
	}

	pair, err := s.issuePair(ctx, s.db, user, client)
	if err != nil {
		s.logger.Error(ctx, "token issuance failed", "error", err)
		return nil, common.ErrorInternal
	}
	return pair, nil
}

// RefreshAccess mints a new access token for a valid, stored refresh token.
// Token faults yield common.ErrorUnauthorized; store faults common.ErrorInternal.
func (s *SessionService) RefreshAccess(ctx context.Context, refreshToken string, client ClientInfo) (*TokenPair, error) {
	payload, err := s.signer.Verify(refreshToken, auth.Refresh)
	if err != nil {
		s.logger.Warn(ctx, "refresh rejected", "reason", err)
		return nil, common.ErrorUnauthorized
	}

	repo := s.repomanager.RefreshTokens(s.db)
	if _, err := repo.FindValid(ctx, payload.UserID, refreshToken); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Warn(ctx, "refresh rejected", "reason", "not found or invalid")
			return nil, common.ErrorUnauthorized
		}
		s.logger.Error(ctx, "refresh token lookup failed", "error", err)
		return nil, common.ErrorInternal
	}

	access, err := s.signer.Issue(*payload, auth.Access)
	if err != nil {
		return nil, common.ErrorInternal
	}

	if !s.rotate {
		return &TokenPair{AccessToken: access}, nil
	}

	// New record first: the session survives if invalidation fails.
	refresh, err := s.signer.Issue(*payload, auth.Refresh)
	if err != nil {
		return nil, common.ErrorInternal
	}
	c := client.withDefaults()
	if _, err := repo.Create(ctx, &models.RefreshToken{Token: refresh, UserID: payload.UserID, IP: c.IP, UserAgent: c.UserAgent}); err != nil {
		s.logger.Error(ctx, "refresh token rotation failed", "error", err)
		return nil, common.ErrorInternal
	}
	if err := repo.Invalidate(ctx, refreshToken); err != nil {
		s.logger.Error(ctx, "old refresh token not invalidated", "error", err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Logout invalidates refreshToken when one is given. It never fails: the
// caller discards its tokens either way.
func (s *SessionService) Logout(ctx context.Context, refreshToken string) {
	if refreshToken == "" {
		return
	}
	if err := s.repomanager.RefreshTokens(s.db).Invalidate(ctx, refreshToken); err != nil {
		s.logger.Error(ctx, "logout: invalidate failed", "error", err)
	}
}

// GetUser returns the user by id; an unknown id yields common.ErrorNotFound.
func (s *SessionService) GetUser(ctx context.Context, id string) (*models.User, error) {
	u, err := s.repomanager.Users(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		s.logger.Error(ctx, "user lookup failed", "error", err)
		return nil, common.ErrorInternal
	}
	return u, nil
}

func (s *SessionService) issuePair(ctx context.Context, db dbx.DBTX, user *models.User, client ClientInfo) (*TokenPair, error) {
	payload := auth.Payload{UserID: user.ID, Email: user.Email}

	access, err := s.signer.Issue(payload, auth.Access)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := s.signer.Issue(payload, auth.Refresh)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	c := client.withDefaults()
	rec := &models.RefreshToken{Token: refresh, UserID: user.ID, IP: c.IP, UserAgent: c.UserAgent}
	if _, err := s.repomanager.RefreshTokens(db).Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// dummy returns a hash verified against when the email is unknown.
func (s *SessionService) dummy(ctx context.Context) string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash(context.WithoutCancel(ctx), "dummy-password-for-timing")
	})
	return s.dummyHash
}
