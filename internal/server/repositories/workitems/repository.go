package workitems

import (
	"context"

	"github.com/dmitrijs2005/workboard/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, item *models.WorkItem) (*models.WorkItem, error)
	GetByID(ctx context.Context, id string) (*models.WorkItem, error)
	// Update applies item if its Version still matches the stored row and
	// bumps the version on success.
	Update(ctx context.Context, item *models.WorkItem) error
	Delete(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, filter models.WorkItemFilter) (models.PageResult[models.WorkItem], error)
}
