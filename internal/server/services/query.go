package services

import (
	"strings"

	"github.com/dmitrijs2005/workboard/internal/server/models"
)

// ParseSortBy reads "field", "field asc" or "field desc". The field is
// lowercased; an unknown field is left for the repository to replace with
// its default ordering.
func ParseSortBy(s string) models.Sort {
	fields := strings.Fields(strings.ToLower(s))
	if len(fields) == 0 {
		return models.Sort{}
	}
	sort := models.Sort{Field: fields[0]}
	if len(fields) > 1 && fields[len(fields)-1] == "desc" {
		sort.Desc = true
	}
	return sort
}

// ListQuery holds the raw paging, search and sort parameters shared by
// the list endpoints.
type ListQuery struct {
	PageNumber int
	PageSize   int
	Search     string
	SortBy     string
}

func (q ListQuery) page() models.Page {
	return models.Page{Number: q.PageNumber, Size: q.PageSize}.Normalize()
}
