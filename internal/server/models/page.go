package models

const (
	DefaultPageSize = 10
	MaxPageSize     = 50
)

// Page selects a 1-based slice of a result set.
type Page struct {
	Number int
	Size   int
}

// Normalize clamps the page to sane bounds.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// Sort is a whitelisted column and direction.
type Sort struct {
	Field string
	Desc  bool
}

// UserFilter selects users for the admin listing.
type UserFilter struct {
	Search string
	Sort   Sort
	Page   Page
}

// WorkItemFilter selects work items. An empty CreatedByID means any owner.
type WorkItemFilter struct {
	Status      WorkItemStatus
	CreatedByID string
	Search      string
	Sort        Sort
	Page        Page
}

// PageResult is one page of items plus the size of the full result set.
type PageResult[T any] struct {
	Items      []T
	TotalCount int
	Page       Page
}

// TotalPages is ceil(TotalCount / Page.Size).
func (r PageResult[T]) TotalPages() int {
	if r.Page.Size <= 0 {
		return 0
	}
	return (r.TotalCount + r.Page.Size - 1) / r.Page.Size
}
