package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/authservice/internal/common"
	"github.com/dmitrijs2005/authservice/internal/dbx"
	"github.com/dmitrijs2005/authservice/internal/server/models"
	"github.com/google/uuid"
)

// SQLRepository implements Repository over dbx.DBTX (satisfied by *sql.DB or
// *sql.Tx) for PostgreSQL and SQLite.
type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) Create(ctx context.Context, token *models.RefreshToken) (*models.RefreshToken, error) {
	query := `
		INSERT INTO refresh_tokens (id, refresh_token, user_id, ip, user_agent, is_valid, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	rec := *token
	rec.ID = uuid.NewString()
	rec.IsValid = true
	rec.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)

	_, err := r.db.ExecContext(ctx, query, rec.ID, rec.Token, rec.UserID, rec.IP, rec.UserAgent, rec.IsValid, rec.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return &rec, nil
}

// FindValid is a point lookup on the unique refresh_token column.
func (r *SQLRepository) FindValid(ctx context.Context, userID, token string) (*models.RefreshToken, error) {
	query := `
		SELECT id, refresh_token, user_id, ip, user_agent, is_valid, created_at
		FROM refresh_tokens
		WHERE refresh_token = $1 AND user_id = $2 AND is_valid
	`

	rec := &models.RefreshToken{}
	err := r.db.QueryRowContext(ctx, query, token, userID).
		Scan(&rec.ID, &rec.Token, &rec.UserID, &rec.IP, &rec.UserAgent, &rec.IsValid, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return rec, nil
}

func (r *SQLRepository) Invalidate(ctx context.Context, token string) error {
	query := `
		UPDATE refresh_tokens
		SET is_valid = FALSE
		WHERE refresh_token = $1 AND is_valid
	`
	if _, err := r.db.ExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
