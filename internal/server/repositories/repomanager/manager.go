// Package repomanager wires repositories to database handles and owns
// schema migrations.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/clipcast/clipcast/internal/dbx"
	"github.com/clipcast/clipcast/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
}
