package client

import "time"

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Email    string `json:"email"`
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Session is what the client knows about the logged-in user. Identity
// fields are read from the access token.
type Session struct {
	UserID   string
	Username string
	Role     string
	Tokens   TokenPair
}

type WorkItem struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"createdAt"`
	CreatedByUsername string    `json:"createdByUsername"`
}

type NewWorkItem struct {
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	Status         string  `json:"status"`
	AssignToUserID *string `json:"assignToUserId,omitempty"`
}

type ListOptions struct {
	PageNumber int
	PageSize   int
	Search     string
	SortBy     string
	Status     string
}

// Page mirrors the X-Pagination-* response headers.
type Page struct {
	TotalCount  int
	PageSize    int
	CurrentPage int
	TotalPages  int
}

type WorkItemPage struct {
	Items []WorkItem
	Page  Page
}
