package services

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/workboard/internal/common"
	"github.com/dmitrijs2005/workboard/internal/dbx"
	"github.com/dmitrijs2005/workboard/internal/logging"
	"github.com/dmitrijs2005/workboard/internal/server/models"
	"github.com/dmitrijs2005/workboard/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// Principal is the authenticated caller as seen by authorization checks.
type Principal struct {
	UserID string
	Role   string
}

func (p Principal) IsAdmin() bool {
	return p.Role == common.RoleAdmin
}

func (p Principal) canAccess(item *models.WorkItem) bool {
	return p.IsAdmin() || item.CreatedByID == p.UserID
}

type WorkItemQuery struct {
	ListQuery
	Status      string
	CreatedByID string
}

type CreateWorkItemInput struct {
	Title          string
	Description    string
	Status         string
	AssignToUserID *string
}

// UpdateWorkItemInput carries a partial update; nil fields are left alone.
type UpdateWorkItemInput struct {
	Title          *string
	Description    *string
	Status         *string
	AssignToUserID *string
}

type WorkItemService struct {
	db          dbx.DBTX
	repomanager repomanager.RepositoryManager
	log         logging.Logger
}

func NewWorkItemService(db dbx.DBTX, m repomanager.RepositoryManager, log logging.Logger) *WorkItemService {
	return &WorkItemService{db: db, repomanager: m, log: log.With("module", "workitems")}
}

func invalidStatus(s string) error {
	return common.WithMessage(common.ErrorValidation, "Invalid status value '%s'. Allowed values are: %s.", s, models.StatusList())
}

func parseStatus(s string) (models.WorkItemStatus, error) {
	st, ok := models.ParseWorkItemStatus(s)
	if !ok {
		return "", invalidStatus(s)
	}
	return st, nil
}

// List returns the caller's items, or any items for an admin. Only admins
// may filter by owner.
func (s *WorkItemService) List(ctx context.Context, p Principal, q WorkItemQuery) (models.PageResult[models.WorkItem], error) {
	var empty models.PageResult[models.WorkItem]

	filter := models.WorkItemFilter{
		Search: q.Search,
		Sort:   ParseSortBy(q.SortBy),
		Page:   q.page(),
	}

	if q.Status != "" {
		st, err := parseStatus(q.Status)
		if err != nil {
			return empty, err
		}
		filter.Status = st
	}

	if q.CreatedByID != "" {
		if !p.IsAdmin() {
			return empty, common.WithMessage(common.ErrorForbidden, "You are not allowed to filter by other users' work items.")
		}
		if _, err := uuid.Parse(q.CreatedByID); err != nil {
			return empty, common.WithMessage(common.ErrorValidation, "createdById must be a UUID")
		}
		filter.CreatedByID = q.CreatedByID
	}
	if !p.IsAdmin() {
		filter.CreatedByID = p.UserID
	}

	return s.repomanager.WorkItems(s.db).List(ctx, filter)
}

func (s *WorkItemService) Get(ctx context.Context, p Principal, id string) (*models.WorkItem, error) {
	item, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.canAccess(item) {
		return nil, common.WithMessage(common.ErrorForbidden, "You are not authorized to view this work item.")
	}
	return item, nil
}

func (s *WorkItemService) load(ctx context.Context, id string) (*models.WorkItem, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}
	return s.repomanager.WorkItems(s.db).GetByID(ctx, id)
}

// assignee checks that only admins reassign and that the target exists.
func (s *WorkItemService) assignee(ctx context.Context, p Principal, id string, forbidden string) (string, error) {
	if !p.IsAdmin() {
		return "", common.WithMessage(common.ErrorForbidden, "%s", forbidden)
	}
	notFound := common.WithMessage(common.ErrorValidation, "User with ID %s not found.", id)
	if _, err := uuid.Parse(id); err != nil {
		return "", notFound
	}
	u, err := s.repomanager.Users(s.db).GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", notFound
		}
		return "", err
	}
	return u.ID, nil
}

func (s *WorkItemService) Create(ctx context.Context, p Principal, in CreateWorkItemInput) (*models.WorkItem, error) {
	owner := p.UserID
	if in.AssignToUserID != nil {
		id, err := s.assignee(ctx, p, *in.AssignToUserID, "Only administrators can assign work items to other users.")
		if err != nil {
			return nil, err
		}
		owner = id
	}

	status, err := parseStatus(in.Status)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, common.WithMessage(common.ErrorValidation, "title is required")
	}

	item, err := s.repomanager.WorkItems(s.db).Create(ctx, &models.WorkItem{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Description: in.Description,
		Status:      status,
		CreatedByID: owner,
	})
	if err != nil {
		return nil, err
	}

	if u, err := s.repomanager.Users(s.db).GetUserByID(ctx, owner); err == nil {
		item.CreatedByUsername = u.UserName
	} else {
		item.CreatedByUsername = "Unknown"
	}

	s.log.Info(ctx, "work item created", "id", item.ID, "owner", owner, "by", p.UserID)
	return item, nil
}

// Update applies in with an optimistic version check. A concurrent delete
// surfaces as ErrorNotFound, a concurrent edit as ErrVersionConflict.
func (s *WorkItemService) Update(ctx context.Context, p Principal, id string, in UpdateWorkItemInput) error {
	item, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !p.canAccess(item) {
		return common.WithMessage(common.ErrorForbidden, "You are not authorized to update this work item.")
	}

	if in.Title != nil {
		item.Title = *in.Title
	}
	if in.Description != nil {
		item.Description = *in.Description
	}
	if in.Status != nil {
		st, err := parseStatus(*in.Status)
		if err != nil {
			return err
		}
		item.Status = st
	}
	if in.AssignToUserID != nil {
		owner, err := s.assignee(ctx, p, *in.AssignToUserID, "Only administrators can reassign work items.")
		if err != nil {
			return err
		}
		item.CreatedByID = owner
	}

	if err := s.repomanager.WorkItems(s.db).Update(ctx, item); err != nil {
		if errors.Is(err, common.ErrVersionConflict) {
			s.log.Warn(ctx, "work item update lost a race", "id", id)
		}
		return err
	}
	return nil
}

func (s *WorkItemService) Delete(ctx context.Context, p Principal, id string) error {
	if !p.IsAdmin() {
		return common.ErrorForbidden
	}
	if _, err := uuid.Parse(id); err != nil {
		return common.ErrorNotFound
	}
	if err := s.repomanager.WorkItems(s.db).Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info(ctx, "work item deleted", "id", id, "by", p.UserID)
	return nil
}
