// Package memory is a process-local RepositoryManager. It backs the
// "memory" database mode and the service tests. Transactions are not
// isolated: the DBTX passed to the factories is ignored.
package memory

import (
	"context"
	"database/sql"
	"sync"

	"github.com/dmitrijs2005/workboard/internal/dbx"
	"github.com/dmitrijs2005/workboard/internal/server/models"
	"github.com/dmitrijs2005/workboard/internal/server/repositories/users"
	"github.com/dmitrijs2005/workboard/internal/server/repositories/workitems"
)

type store struct {
	mu        sync.Mutex
	users     map[string]*models.User
	workItems map[string]*models.WorkItem
}

type Manager struct {
	s *store
}

func NewManager() *Manager {
	return &Manager{s: &store{
		users:     map[string]*models.User{},
		workItems: map[string]*models.WorkItem{},
	}}
}

func (m *Manager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *Manager) Users(dbx.DBTX) users.Repository { return &UsersRepo{s: m.s} }

func (m *Manager) WorkItems(dbx.DBTX) workitems.Repository { return &WorkItemsRepo{s: m.s} }

// UserCount is used by tests to observe writes.
func (m *Manager) UserCount() int {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return len(m.s.users)
}

// User returns a copy of the stored user, or nil.
func (m *Manager) User(id string) *models.User {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if u, ok := m.s.users[id]; ok {
		return cloneUser(u)
	}
	return nil
}

func cloneUser(u *models.User) *models.User {
	c := *u
	if u.RefreshToken != nil {
		t := *u.RefreshToken
		c.RefreshToken = &t
	}
	if u.RefreshTokenExpiry != nil {
		e := *u.RefreshTokenExpiry
		c.RefreshTokenExpiry = &e
	}
	return &c
}

func page[T any](items []T, p models.Page) models.PageResult[T] {
	p = p.Normalize()
	res := models.PageResult[T]{TotalCount: len(items), Page: p, Items: []T{}}
	start := p.Offset()
	if start >= len(items) {
		return res
	}
	end := min(start+p.Size, len(items))
	res.Items = append(res.Items, items[start:end]...)
	return res
}
