package workitems

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/workboard/internal/common"
	"github.com/dmitrijs2005/workboard/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var itemColumns = []string{"id", "title", "description", "status", "created_at", "created_by_id", "username", "version"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepository(db), mock
}

func TestCreate(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	now := time.Now()
	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+work_items.*RETURNING\s+created_at,\s*version$`).
		WithArgs("w-1", "Fix", "desc", "New", "u-1").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "version"}).AddRow(now, int64(1)))

	item, err := repo.Create(context.Background(), &models.WorkItem{
		ID: "w-1", Title: "Fix", Description: "desc", Status: models.StatusNew, CreatedByID: "u-1",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), item.Version)
	assert.True(t, item.CreatedAt.Equal(now))
}

func TestCreate_UnknownOwner(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`INSERT`).WillReturnError(&pgconn.PgError{Code: "23503"})

	_, err := repo.Create(context.Background(), &models.WorkItem{ID: "w-1", CreatedByID: "ghost", Status: models.StatusNew})
	require.ErrorIs(t, err, common.ErrorValidation)
	assert.Contains(t, err.Error(), "ghost")
}

func TestGetByID(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)JOIN\s+users\s+u.*WHERE\s+w\.id\s*=\s*\$1$`).
		WithArgs("w-1").
		WillReturnRows(sqlmock.NewRows(itemColumns).
			AddRow("w-1", "Fix", "", "InProgress", time.Now(), "u-1", "alice", int64(3)))

	item, err := repo.GetByID(context.Background(), "w-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, item.Status)
	assert.Equal(t, "alice", item.CreatedByUsername)
	assert.Equal(t, int64(3), item.Version)

	mock.ExpectQuery(`WHERE\s+w\.id`).WithArgs("nope").WillReturnError(sql.ErrNoRows)
	_, err = repo.GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

const updateQ = `(?s)^UPDATE\s+work_items.*version\s*=\s*version\s*\+\s*1\s+WHERE\s+id\s*=\s*\$5\s+AND\s+version\s*=\s*\$6$`

func TestUpdate_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(updateQ).
		WithArgs("T", "D", "Completed", "u-1", "w-1", int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	item := &models.WorkItem{ID: "w-1", Title: "T", Description: "D", Status: models.StatusCompleted, CreatedByID: "u-1", Version: 2}
	require.NoError(t, repo.Update(context.Background(), item))
	assert.Equal(t, int64(3), item.Version)
}

func TestUpdate_ZeroRows(t *testing.T) {
	tests := []struct {
		name   string
		exists bool
		want   error
	}{
		{"gone", false, common.ErrorNotFound},
		{"stale version", true, common.ErrVersionConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newRepoWithMock(t)

			mock.ExpectExec(updateQ).WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectQuery(`SELECT\s+EXISTS`).WithArgs("w-1").
				WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(tt.exists))

			err := repo.Update(context.Background(), &models.WorkItem{ID: "w-1", Status: models.StatusNew, Version: 1})
			assert.ErrorIs(t, err, tt.want)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDelete(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`^DELETE\s+FROM\s+work_items\s+WHERE\s+id\s*=\s*\$1$`).WithArgs("w-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), "w-1"))

	mock.ExpectExec(`DELETE`).WithArgs("w-2").WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), "w-2"), common.ErrorNotFound)

	mock.ExpectExec(`DELETE`).WithArgs("w-3").WillReturnError(errors.New("boom"))
	err := repo.Delete(context.Background(), "w-3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error")
}

func TestList_FiltersAndDefaultOrder(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)^SELECT\s+COUNT\(\*\)\s+FROM\s+work_items\s+w\s+WHERE\s+w\.status\s*=\s*\$1\s+AND\s+w\.created_by_id\s*=\s*\$2\s+AND\s+\(w\.title\s+ILIKE\s+\$3\s+OR\s+w\.description\s+ILIKE\s+\$3\)$`).
		WithArgs("New", "u-1", "%bug%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`(?s)ORDER\s+BY\s+w\.created_at\s+DESC,\s*w\.id\s+LIMIT\s+\$4\s+OFFSET\s+\$5$`).
		WithArgs("New", "u-1", "%bug%", 10, 0).
		WillReturnRows(sqlmock.NewRows(itemColumns).
			AddRow("w-1", "bug", "", "New", time.Now(), "u-1", "alice", int64(1)))

	res, err := repo.List(context.Background(), models.WorkItemFilter{
		Status: models.StatusNew, CreatedByID: "u-1", Search: "bug",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalCount)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "alice", res.Items[0].CreatedByUsername)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestList_SortByTitleAscending(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`^SELECT\s+COUNT\(\*\)\s+FROM\s+work_items\s+w$`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`ORDER\s+BY\s+w\.title\s+ASC`).
		WithArgs(20, 20).
		WillReturnRows(sqlmock.NewRows(itemColumns))

	res, err := repo.List(context.Background(), models.WorkItemFilter{
		Sort: models.Sort{Field: "title"},
		Page: models.Page{Number: 2, Size: 20},
	})
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.Equal(t, 0, res.TotalPages())
}
