package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/workboard/internal/server/models"
	"github.com/dmitrijs2005/workboard/internal/server/services"
	"github.com/gin-gonic/gin"
)

type WorkItemService interface {
	List(ctx context.Context, p services.Principal, q services.WorkItemQuery) (models.PageResult[models.WorkItem], error)
	Get(ctx context.Context, p services.Principal, id string) (*models.WorkItem, error)
	Create(ctx context.Context, p services.Principal, in services.CreateWorkItemInput) (*models.WorkItem, error)
	Update(ctx context.Context, p services.Principal, id string, in services.UpdateWorkItemInput) error
	Delete(ctx context.Context, p services.Principal, id string) error
}

type workItemDTO struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"createdAt"`
	CreatedByUsername string    `json:"createdByUsername"`
}

func toWorkItemDTO(w *models.WorkItem) workItemDTO {
	return workItemDTO{
		ID:                w.ID,
		Title:             w.Title,
		Description:       w.Description,
		Status:            string(w.Status),
		CreatedAt:         w.CreatedAt,
		CreatedByUsername: w.CreatedByUsername,
	}
}

type workItemListParams struct {
	listParams
	Status      string `form:"status"`
	CreatedByID string `form:"createdById"`
}

type createWorkItemRequest struct {
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	Status         string  `json:"status"`
	AssignToUserID *string `json:"assignToUserId"`
}

type updateWorkItemRequest struct {
	Title          *string `json:"title"`
	Description    *string `json:"description"`
	Status         *string `json:"status"`
	AssignToUserID *string `json:"assignToUserId"`
}

func (h *handler) listWorkItems(c *gin.Context) {
	var p workItemListParams
	if !bindList(c, &p) {
		return
	}

	res, err := h.items.List(c.Request.Context(), principal(c), services.WorkItemQuery{
		ListQuery:   p.query(),
		Status:      p.Status,
		CreatedByID: p.CreatedByID,
	})
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	out := make([]workItemDTO, 0, len(res.Items))
	for i := range res.Items {
		out = append(out, toWorkItemDTO(&res.Items[i]))
	}
	setPaginationHeaders(c, res)
	c.JSON(http.StatusOK, out)
}

func (h *handler) getWorkItem(c *gin.Context) {
	item, err := h.items.Get(c.Request.Context(), principal(c), c.Param("id"))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toWorkItemDTO(item))
}

func (h *handler) createWorkItem(c *gin.Context) {
	var req createWorkItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, codeValidation, "invalid json")
		return
	}

	item, err := h.items.Create(c.Request.Context(), principal(c), services.CreateWorkItemInput{
		Title:          req.Title,
		Description:    req.Description,
		Status:         req.Status,
		AssignToUserID: req.AssignToUserID,
	})
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	c.Header("Location", "/api/workitems/"+item.ID)
	c.JSON(http.StatusCreated, toWorkItemDTO(item))
}

func (h *handler) updateWorkItem(c *gin.Context) {
	var req updateWorkItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, codeValidation, "invalid json")
		return
	}

	err := h.items.Update(c.Request.Context(), principal(c), c.Param("id"), services.UpdateWorkItemInput{
		Title:          req.Title,
		Description:    req.Description,
		Status:         req.Status,
		AssignToUserID: req.AssignToUserID,
	})
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) deleteWorkItem(c *gin.Context) {
	if err := h.items.Delete(c.Request.Context(), principal(c), c.Param("id")); err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
