package httpapi

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/workboard/internal/server/models"
	"github.com/dmitrijs2005/workboard/internal/server/services"
	"github.com/gin-gonic/gin"
)

type UserLister interface {
	ListUsers(ctx context.Context, q services.ListQuery) (models.PageResult[models.User], error)
}

func (h *handler) listUsers(c *gin.Context) {
	var p listParams
	if !bindList(c, &p) {
		return
	}

	res, err := h.users.ListUsers(c.Request.Context(), p.query())
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	out := make([]userDTO, 0, len(res.Items))
	for i := range res.Items {
		out = append(out, toUserDTO(&res.Items[i]))
	}
	setPaginationHeaders(c, res)
	c.JSON(http.StatusOK, out)
}
