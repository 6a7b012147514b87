package workitems

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/workboard/internal/common"
	"github.com/dmitrijs2005/workboard/internal/dbx"
	"github.com/dmitrijs2005/workboard/internal/server/models"
)

const selectItem = `SELECT w.id, w.title, w.description, w.status, w.created_at, w.created_by_id, u.username, w.version
FROM work_items w JOIN users u ON u.id = w.created_by_id`

var sortColumns = map[string]string{
	"title":     "w.title",
	"createdat": "w.created_at",
	"status":    "w.status",
}

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, item *models.WorkItem) (*models.WorkItem, error) {
	query :=
		`INSERT INTO work_items (id, title, description, status, created_by_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at, version`

	err := r.db.QueryRowContext(ctx, query,
		item.ID, item.Title, item.Description, string(item.Status), item.CreatedByID).
		Scan(&item.CreatedAt, &item.Version)
	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return nil, common.WithMessage(common.ErrorValidation, "User with ID %s not found.", item.CreatedByID)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return item, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.WorkItem, error) {
	item, err := scanItem(r.db.QueryRowContext(ctx, selectItem+` WHERE w.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return item, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(s scanner) (*models.WorkItem, error) {
	var (
		w      models.WorkItem
		status string
	)
	if err := s.Scan(&w.ID, &w.Title, &w.Description, &status, &w.CreatedAt, &w.CreatedByID, &w.CreatedByUsername, &w.Version); err != nil {
		return nil, err
	}
	w.Status = models.WorkItemStatus(status)
	return &w, nil
}

func (r *PostgresRepository) Update(ctx context.Context, item *models.WorkItem) error {
	query :=
		`UPDATE work_items
		 SET title = $1, description = $2, status = $3, created_by_id = $4, version = version + 1
		 WHERE id = $5 AND version = $6`

	res, err := r.db.ExecContext(ctx, query,
		item.Title, item.Description, string(item.Status), item.CreatedByID, item.ID, item.Version)
	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return common.WithMessage(common.ErrorValidation, "User with ID %s not found.", item.CreatedByID)
		}
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 1 {
		item.Version++
		return nil
	}

	exists, err := r.Exists(ctx, item.ID)
	if err != nil {
		return err
	}
	if !exists {
		return common.ErrorNotFound
	}
	return common.ErrVersionConflict
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM work_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM work_items WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

// List returns one page of work items. Default order is newest first.
func (r *PostgresRepository) List(ctx context.Context, filter models.WorkItemFilter) (models.PageResult[models.WorkItem], error) {
	page := filter.Page.Normalize()
	result := models.PageResult[models.WorkItem]{Page: page, Items: []models.WorkItem{}}

	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.Status != "" {
		add("w.status = $%d", string(filter.Status))
	}
	if filter.CreatedByID != "" {
		add("w.created_by_id = $%d", filter.CreatedByID)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, dbx.ContainsPattern(s))
		n := len(args)
		conds = append(conds, fmt.Sprintf("(w.title ILIKE $%d OR w.description ILIKE $%d)", n, n))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	count := `SELECT COUNT(*) FROM work_items w` + where
	if err := r.db.QueryRowContext(ctx, count, args...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("db error: %w", err)
	}

	column, dir := "w.created_at", "DESC"
	if c, ok := sortColumns[filter.Sort.Field]; ok {
		column, dir = c, "ASC"
		if filter.Sort.Desc {
			dir = "DESC"
		}
	}

	query := fmt.Sprintf(`%s%s ORDER BY %s %s, w.id LIMIT $%d OFFSET $%d`,
		selectItem, where, column, dir, len(args)+1, len(args)+2)
	args = append(args, page.Size, page.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return result, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return result, fmt.Errorf("db error: %w", err)
		}
		result.Items = append(result.Items, *item)
	}
	if err := rows.Err(); err != nil {
		return result, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
