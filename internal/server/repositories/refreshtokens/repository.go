// Package refreshtokens persists the server-side records of issued refresh
// tokens. A record is created valid, may be invalidated once, and is never
// deleted.
package refreshtokens

import (
	"context"

	"github.com/dmitrijs2005/authservice/internal/server/models"
)

// Repository is the token store.
type Repository interface {
	// Create records token (Token, UserID, IP, UserAgent are read) as valid.
	// A token value that already exists yields common.ErrorAlreadyExists.
	Create(ctx context.Context, token *models.RefreshToken) (*models.RefreshToken, error)

	// FindValid returns the record matching both userID and token while it is
	// still valid, or common.ErrorNotFound.
	FindValid(ctx context.Context, userID, token string) (*models.RefreshToken, error)

	// Invalidate marks token invalid. Unknown or already invalid tokens are
	// not an error.
	Invalidate(ctx context.Context, token string) error
}
