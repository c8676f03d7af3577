// Package guard authorizes requests to protected endpoints.
//
// A valid access token is trusted as is. An access token that is merely
// expired falls back to the refresh token: if that verifies and its record is
// still valid in the token store, a new access token is minted and returned
// for the transport to attach to the response. Any other access token fault
// is rejected without looking at the refresh token.
package guard

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/authservice/internal/common"
	"github.com/dmitrijs2005/authservice/internal/logging"
	"github.com/dmitrijs2005/authservice/internal/server/auth"
	"github.com/dmitrijs2005/authservice/internal/server/models"
)

// Rejection reasons reported to clients.
const (
	ReasonInvalidAccess   = "invalid access token"
	ReasonNoTokens        = "no valid tokens provided"
	ReasonInvalidRefresh  = "invalid refresh token"
	ReasonRefreshNotFound = "refresh token not found or invalid"
)

// RejectedError is a terminal authorization failure. It matches
// common.ErrorUnauthorized under errors.Is.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string { return e.Reason }

func (e *RejectedError) Is(target error) bool { return target == common.ErrorUnauthorized }

func reject(reason string) error { return &RejectedError{Reason: reason} }

// Credentials are the tokens extracted from a request. Either may be empty.
type Credentials struct {
	AccessToken  string
	RefreshToken string
}

// Result is a successful authorization.
type Result struct {
	Payload auth.Payload
	// ReissuedAccessToken is non-empty when Payload came from the refresh
	// token; RefreshToken then holds the presented, unrotated refresh token.
	ReissuedAccessToken string
	RefreshToken        string
}

func (r *Result) Reissued() bool { return r.ReissuedAccessToken != "" }

// TokenStore is the lookup the guard needs from refreshtokens.Repository.
type TokenStore interface {
	FindValid(ctx context.Context, userID, token string) (*models.RefreshToken, error)
}

type Guard struct {
	signer *auth.Signer
	store  TokenStore
	logger logging.Logger
}

func New(signer *auth.Signer, store TokenStore, l logging.Logger) *Guard {
	return &Guard{signer: signer, store: store, logger: l.With("module", "guard")}
}

// Authorize returns a Result, a *RejectedError, or an error wrapping
// common.ErrorInternal when the token store itself failed.
func (g *Guard) Authorize(ctx context.Context, c Credentials) (*Result, error) {
	if c.AccessToken != "" {
		payload, err := g.signer.Verify(c.AccessToken, auth.Access)
		switch {
		case err == nil:
			return &Result{Payload: *payload}, nil
		case errors.Is(err, common.ErrTokenExpired):
			// fall through to the refresh token
		default:
			g.logger.Warn(ctx, "access token rejected", "reason", ReasonInvalidAccess)
			return nil, reject(ReasonInvalidAccess)
		}
	}

	if c.RefreshToken == "" {
		return nil, reject(ReasonNoTokens)
	}

	payload, err := g.signer.Verify(c.RefreshToken, auth.Refresh)
	if err != nil {
		g.logger.Warn(ctx, "refresh token rejected", "reason", ReasonInvalidRefresh)
		return nil, reject(ReasonInvalidRefresh)
	}

	if _, err := g.store.FindValid(ctx, payload.UserID, c.RefreshToken); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			g.logger.Warn(ctx, "refresh token rejected", "reason", ReasonRefreshNotFound, "user_id", payload.UserID)
			return nil, reject(ReasonRefreshNotFound)
		}
		return nil, fmt.Errorf("%w: token store: %v", common.ErrorInternal, err)
	}

	access, err := g.signer.Issue(*payload, auth.Access)
	if err != nil {
		return nil, fmt.Errorf("%w: sign access token: %v", common.ErrorInternal, err)
	}

	g.logger.Debug(ctx, "access token reissued", "user_id", payload.UserID)
	return &Result{Payload: *payload, ReissuedAccessToken: access, RefreshToken: c.RefreshToken}, nil
}
