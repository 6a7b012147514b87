package httpapi

import (
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/workboard/internal/server/models"
	"github.com/dmitrijs2005/workboard/internal/server/services"
	"github.com/gin-gonic/gin"
)

type listParams struct {
	PageNumber int    `form:"pageNumber"`
	PageSize   int    `form:"pageSize"`
	Search     string `form:"search"`
	SortBy     string `form:"sortBy"`
}

func (p listParams) query() services.ListQuery {
	return services.ListQuery{PageNumber: p.PageNumber, PageSize: p.PageSize, Search: p.Search, SortBy: p.SortBy}
}

func bindList[T any](c *gin.Context, dst *T) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		respondError(c, http.StatusBadRequest, codeValidation, "invalid query parameters")
		return false
	}
	return true
}

func setPaginationHeaders[T any](c *gin.Context, res models.PageResult[T]) {
	c.Header("X-Pagination-Total-Count", strconv.Itoa(res.TotalCount))
	c.Header("X-Pagination-Page-Size", strconv.Itoa(res.Page.Size))
	c.Header("X-Pagination-Current-Page", strconv.Itoa(res.Page.Number))
	c.Header("X-Pagination-Total-Pages", strconv.Itoa(res.TotalPages()))
}
