// Package users stores user accounts.
package users

import (
	"context"

	"github.com/dmitrijs2005/authservice/internal/server/models"
)

// Repository persists users. Emails are matched exactly; callers normalize.
type Repository interface {
	// Create assigns ID and CreatedAt and inserts the user. A taken email
	// yields common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByEmail and GetByID return common.ErrorNotFound when absent.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}
