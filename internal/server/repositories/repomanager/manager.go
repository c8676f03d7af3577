// Package repomanager vends repository implementations bound to a database
// handle and applies the schema migrations.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/authservice/internal/dbx"
	"github.com/dmitrijs2005/authservice/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/authservice/internal/server/repositories/users"
)

// RepositoryManager hands out repositories over either the pool or a
// transaction, so services decide the transactional scope.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
}
