package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/dmitrijs2005/workboard/internal/common"
	"github.com/dmitrijs2005/workboard/internal/server/models"
)

type WorkItemsRepo struct {
	s *store
}

func (r *WorkItemsRepo) Create(_ context.Context, item *models.WorkItem) (*models.WorkItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[item.CreatedByID]; !ok {
		return nil, common.WithMessage(common.ErrorValidation, "User with ID %s not found.", item.CreatedByID)
	}
	item.CreatedAt = time.Now().UTC()
	item.Version = 1
	c := *item
	r.s.workItems[item.ID] = &c
	return item, nil
}

// withOwner returns a copy of w with the owner's username filled in.
// Callers hold the lock.
func (r *WorkItemsRepo) withOwner(w *models.WorkItem) models.WorkItem {
	c := *w
	if u, ok := r.s.users[w.CreatedByID]; ok {
		c.CreatedByUsername = u.UserName
	}
	return c
}

func (r *WorkItemsRepo) GetByID(_ context.Context, id string) (*models.WorkItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	w, ok := r.s.workItems[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := r.withOwner(w)
	return &c, nil
}

func (r *WorkItemsRepo) Update(_ context.Context, item *models.WorkItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	w, ok := r.s.workItems[item.ID]
	if !ok {
		return common.ErrorNotFound
	}
	if w.Version != item.Version {
		return common.ErrVersionConflict
	}
	if _, ok := r.s.users[item.CreatedByID]; !ok {
		return common.WithMessage(common.ErrorValidation, "User with ID %s not found.", item.CreatedByID)
	}
	w.Title, w.Description, w.Status, w.CreatedByID = item.Title, item.Description, item.Status, item.CreatedByID
	w.Version++
	item.Version = w.Version
	return nil
}

func (r *WorkItemsRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.workItems[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.workItems, id)
	return nil
}

func (r *WorkItemsRepo) Exists(_ context.Context, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	_, ok := r.s.workItems[id]
	return ok, nil
}

func (r *WorkItemsRepo) List(_ context.Context, filter models.WorkItemFilter) (models.PageResult[models.WorkItem], error) {
	r.s.mu.Lock()
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	var matched []models.WorkItem
	for _, w := range r.s.workItems {
		if filter.Status != "" && w.Status != filter.Status {
			continue
		}
		if filter.CreatedByID != "" && w.CreatedByID != filter.CreatedByID {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(w.Title), search) &&
			!strings.Contains(strings.ToLower(w.Description), search) {
			continue
		}
		matched = append(matched, r.withOwner(w))
	}
	r.s.mu.Unlock()

	sortFn := func(a, b models.WorkItem) int { return b.CreatedAt.Compare(a.CreatedAt) }
	switch filter.Sort.Field {
	case "title", "status", "createdat":
		sortFn = func(a, b models.WorkItem) int {
			var c int
			switch filter.Sort.Field {
			case "title":
				c = cmp.Compare(a.Title, b.Title)
			case "status":
				c = cmp.Compare(a.Status, b.Status)
			default:
				c = a.CreatedAt.Compare(b.CreatedAt)
			}
			if filter.Sort.Desc {
				c = -c
			}
			return c
		}
	}
	slices.SortFunc(matched, func(a, b models.WorkItem) int {
		return cmp.Or(sortFn(a, b), cmp.Compare(a.ID, b.ID))
	})

	return page(matched, filter.Page), nil
}
