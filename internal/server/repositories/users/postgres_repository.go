package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/workboard/internal/common"
	"github.com/dmitrijs2005/workboard/internal/dbx"
	"github.com/dmitrijs2005/workboard/internal/server/models"
)

const selectUser = `SELECT id, username, email, password_hash, role, refresh_token, refresh_token_expiry, created_at FROM users`

// sortColumns whitelists the columns the listing may be ordered by.
var sortColumns = map[string]string{
	"username": "username",
	"email":    "email",
	"role":     "role",
}

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (id, username, email, password_hash, role)
         VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.UserName, user.Email, user.PasswordHash, user.Role).Scan(&user.CreatedAt)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, selectUser+` WHERE id = $1`, id)
}

func (r *PostgresRepository) GetUserByIDForUpdate(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, selectUser+` WHERE id = $1 FOR UPDATE`, id)
}

func (r *PostgresRepository) GetUserByLogin(ctx context.Context, userName string) (*models.User, error) {
	return r.getOne(ctx, selectUser+` WHERE username = $1`, userName)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg string) (*models.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*models.User, error) {
	var (
		u       models.User
		token   sql.NullString
		expires sql.NullTime
	)
	if err := s.Scan(&u.ID, &u.UserName, &u.Email, &u.PasswordHash, &u.Role, &token, &expires, &u.CreatedAt); err != nil {
		return nil, err
	}
	if token.Valid {
		u.RefreshToken = &token.String
	}
	if expires.Valid {
		u.RefreshTokenExpiry = &expires.Time
	}
	return &u, nil
}

// SetRefreshToken unconditionally replaces the user's refresh token.
func (r *PostgresRepository) SetRefreshToken(ctx context.Context, userID, token string, expiry time.Time) error {
	query :=
		`UPDATE users SET refresh_token = $1, refresh_token_expiry = $2
		 WHERE id = $3
		 `

	res, err := r.db.ExecContext(ctx, query, token, expiry, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res, common.ErrorNotFound)
}

// RotateRefreshToken replaces oldToken with newToken only if oldToken is
// still the stored value. A lost race yields common.ErrInvalidRefreshToken.
func (r *PostgresRepository) RotateRefreshToken(ctx context.Context, userID, oldToken, newToken string, expiry time.Time) error {
	query :=
		`UPDATE users SET refresh_token = $1, refresh_token_expiry = $2
		 WHERE id = $3 AND refresh_token = $4
		 `

	res, err := r.db.ExecContext(ctx, query, newToken, expiry, userID, oldToken)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res, common.ErrInvalidRefreshToken)
}

func expectOneRow(res sql.Result, none error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return none
	}
	return nil
}

func (r *PostgresRepository) ExistsWithRole(ctx context.Context, role string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE role = $1)`, role).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

// List returns one page of users matching filter.Search against username
// or email, ordered by a whitelisted column.
func (r *PostgresRepository) List(ctx context.Context, filter models.UserFilter) (models.PageResult[models.User], error) {
	page := filter.Page.Normalize()
	result := models.PageResult[models.User]{Page: page, Items: []models.User{}}

	var (
		where string
		args  []any
	)
	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, dbx.ContainsPattern(s))
		where = ` WHERE (username ILIKE $1 OR email ILIKE $1)`
	}

	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("db error: %w", err)
	}

	column, ok := sortColumns[filter.Sort.Field]
	if !ok {
		column = "username"
	}
	dir := "ASC"
	if filter.Sort.Desc {
		dir = "DESC"
	}

	query := fmt.Sprintf(`%s%s ORDER BY %s %s, id LIMIT $%d OFFSET $%d`,
		selectUser, where, column, dir, len(args)+1, len(args)+2)
	args = append(args, page.Size, page.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return result, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return result, fmt.Errorf("db error: %w", err)
		}
		result.Items = append(result.Items, *u)
	}
	if err := rows.Err(); err != nil {
		return result, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}
