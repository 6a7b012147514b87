package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/workboard/internal/dbx"
	"github.com/dmitrijs2005/workboard/internal/server/repositories/users"
	"github.com/dmitrijs2005/workboard/internal/server/repositories/workitems"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	WorkItems(db dbx.DBTX) workitems.Repository
}
