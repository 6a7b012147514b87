package services

import (
	"context"

	"github.com/dmitrijs2005/workboard/internal/dbx"
	"github.com/dmitrijs2005/workboard/internal/server/models"
	"github.com/dmitrijs2005/workboard/internal/server/repositories/repomanager"
)

// UserService serves the admin user listing.
type UserService struct {
	db          dbx.DBTX
	repomanager repomanager.RepositoryManager
}

func NewUserService(db dbx.DBTX, m repomanager.RepositoryManager) *UserService {
	return &UserService{db: db, repomanager: m}
}

func (s *UserService) ListUsers(ctx context.Context, q ListQuery) (models.PageResult[models.User], error) {
	sort := ParseSortBy(q.SortBy)
	switch sort.Field {
	case "username", "email", "role":
	default:
		sort = models.Sort{Field: "username"}
	}

	return s.repomanager.Users(s.db).List(ctx, models.UserFilter{
		Search: q.Search,
		Sort:   sort,
		Page:   q.page(),
	})
}
