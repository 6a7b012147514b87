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

type UsersRepo struct {
	s *store
}

func (r *UsersRepo) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.UserName == user.UserName {
			return nil, common.ErrorAlreadyExists
		}
	}
	user.CreatedAt = time.Now().UTC()
	r.s.users[user.ID] = cloneUser(user)
	return user, nil
}

func (r *UsersRepo) GetUserByID(_ context.Context, id string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneUser(u), nil
}

func (r *UsersRepo) GetUserByIDForUpdate(ctx context.Context, id string) (*models.User, error) {
	return r.GetUserByID(ctx, id)
}

func (r *UsersRepo) GetUserByLogin(_ context.Context, login string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.UserName == login {
			return cloneUser(u), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *UsersRepo) SetRefreshToken(_ context.Context, userID, token string, expiry time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[userID]
	if !ok {
		return common.ErrorNotFound
	}
	u.RefreshToken, u.RefreshTokenExpiry = &token, &expiry
	return nil
}

func (r *UsersRepo) RotateRefreshToken(_ context.Context, userID, oldToken, newToken string, expiry time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[userID]
	if !ok || u.RefreshToken == nil || *u.RefreshToken != oldToken {
		return common.ErrInvalidRefreshToken
	}
	u.RefreshToken, u.RefreshTokenExpiry = &newToken, &expiry
	return nil
}

func (r *UsersRepo) ExistsWithRole(_ context.Context, role string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Role == role {
			return true, nil
		}
	}
	return false, nil
}

func (r *UsersRepo) List(_ context.Context, filter models.UserFilter) (models.PageResult[models.User], error) {
	r.s.mu.Lock()
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	var matched []models.User
	for _, u := range r.s.users {
		if search == "" ||
			strings.Contains(strings.ToLower(u.UserName), search) ||
			strings.Contains(strings.ToLower(u.Email), search) {
			matched = append(matched, *cloneUser(u))
		}
	}
	r.s.mu.Unlock()

	key := func(u models.User) string {
		switch filter.Sort.Field {
		case "email":
			return u.Email
		case "role":
			return u.Role
		}
		return u.UserName
	}
	slices.SortFunc(matched, func(a, b models.User) int {
		c := cmp.Compare(key(a), key(b))
		if filter.Sort.Desc {
			c = -c
		}
		return cmp.Or(c, cmp.Compare(a.ID, b.ID))
	})

	return page(matched, filter.Page), nil
}
