package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/workboard/internal/common"
	"github.com/dmitrijs2005/workboard/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

var userColumns = []string{"id", "username", "email", "password_hash", "role", "refresh_token", "refresh_token_expiry", "created_at"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

const insertQ = `(?s)^INSERT\s+INTO\s+users\s*\(id,\s*username,\s*email,\s*password_hash,\s*role\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5\)\s*RETURNING\s+created_at\s*$`

func newUser() *models.User {
	return &models.User{ID: "u-1", UserName: "alice", Email: "a@x.com", PasswordHash: "$argon2id$...", Role: "User"}
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery(insertQ).
		WithArgs("u-1", "alice", "a@x.com", "$argon2id$...", "User").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))

	got, err := repo.Create(context.Background(), newUser())
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != "u-1" || !got.CreatedAt.Equal(created) {
		t.Fatalf("unexpected user: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCreate_UniqueViolation(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Create(context.Background(), newUser())
	if !errors.Is(err, common.ErrorAlreadyExists) {
		t.Fatalf("want ErrorAlreadyExists, got %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), newUser())
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetUserByLogin_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	exp := time.Now().Add(time.Hour).UTC()
	rows := sqlmock.NewRows(userColumns).
		AddRow("u-1", "alice", "a@x.com", "h", "User", "tok", exp, time.Now())
	mock.ExpectQuery(`(?s)^SELECT\s+id,.*FROM\s+users\s+WHERE\s+username\s*=\s*\$1$`).
		WithArgs("alice").
		WillReturnRows(rows)

	got, err := repo.GetUserByLogin(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetUserByLogin error: %v", err)
	}
	if got.ID != "u-1" || got.RefreshToken == nil || *got.RefreshToken != "tok" || got.RefreshTokenExpiry == nil {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestGetUserByID_NullRefreshToken(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows(userColumns).
		AddRow("u-1", "alice", "a@x.com", "h", "User", nil, nil, time.Now())
	mock.ExpectQuery(`(?s)^SELECT\s+id,.*FROM\s+users\s+WHERE\s+id\s*=\s*\$1$`).
		WithArgs("u-1").
		WillReturnRows(rows)

	got, err := repo.GetUserByID(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("GetUserByID error: %v", err)
	}
	if got.RefreshToken != nil || got.RefreshTokenExpiry != nil {
		t.Fatalf("expected empty refresh state, got %+v", got)
	}
}

func TestGetUserByIDForUpdate_LocksRow(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)WHERE\s+id\s*=\s*\$1\s+FOR\s+UPDATE$`).
		WithArgs("u-1").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetUserByIDForUpdate(context.Background(), "u-1")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestGetUserByLogin_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT`).
		WithArgs("alice").
		WillReturnError(errors.New("db err"))

	_, err := repo.GetUserByLogin(context.Background(), "alice")
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestSetRefreshToken(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+users\s+SET\s+refresh_token\s*=\s*\$1,\s*refresh_token_expiry\s*=\s*\$2\s+WHERE\s+id\s*=\s*\$3\s*$`
	exp := time.Now().Add(30 * time.Minute)

	mock.ExpectExec(q).WithArgs("tok", exp, "u-1").WillReturnResult(sqlmock.NewResult(0, 1))
	if err := repo.SetRefreshToken(context.Background(), "u-1", "tok", exp); err != nil {
		t.Fatalf("SetRefreshToken error: %v", err)
	}

	mock.ExpectExec(q).WithArgs("tok", exp, "ghost").WillReturnResult(sqlmock.NewResult(0, 0))
	if err := repo.SetRefreshToken(context.Background(), "ghost", "tok", exp); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}

func TestRotateRefreshToken_CompareAndSwap(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+users\s+SET.*WHERE\s+id\s*=\s*\$3\s+AND\s+refresh_token\s*=\s*\$4\s*$`
	exp := time.Now().Add(30 * time.Minute)

	mock.ExpectExec(q).WithArgs("new", exp, "u-1", "old").WillReturnResult(sqlmock.NewResult(0, 1))
	if err := repo.RotateRefreshToken(context.Background(), "u-1", "old", "new", exp); err != nil {
		t.Fatalf("RotateRefreshToken error: %v", err)
	}

	mock.ExpectExec(q).WithArgs("newer", exp, "u-1", "old").WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.RotateRefreshToken(context.Background(), "u-1", "old", "newer", exp)
	if !errors.Is(err, common.ErrInvalidRefreshToken) {
		t.Fatalf("want ErrInvalidRefreshToken, got %v", err)
	}

	mock.ExpectExec(q).WillReturnError(errors.New("boom"))
	err = repo.RotateRefreshToken(context.Background(), "u-1", "old", "newer", exp)
	if err == nil || !regexp.MustCompile(`db error: .*boom`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestExistsWithRole(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT\s+EXISTS`).WithArgs("Admin").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.ExistsWithRole(context.Background(), "Admin")
	if err != nil || !ok {
		t.Fatalf("ExistsWithRole = %v, %v", ok, err)
	}
}

func TestList_SearchSortAndPage(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT\s+COUNT\(\*\)\s+FROM\s+users\s+WHERE\s+\(username\s+ILIKE\s+\$1\s+OR\s+email\s+ILIKE\s+\$1\)$`).
		WithArgs("%ali%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	mock.ExpectQuery(`(?s)ORDER\s+BY\s+email\s+DESC,\s*id\s+LIMIT\s+\$2\s+OFFSET\s+\$3$`).
		WithArgs("%ali%", 5, 5).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow("u-6", "alice6", "a6@x.com", "h", "User", nil, nil, time.Now()))

	res, err := repo.List(context.Background(), models.UserFilter{
		Search: " ali ",
		Sort:   models.Sort{Field: "email", Desc: true},
		Page:   models.Page{Number: 2, Size: 5},
	})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if res.TotalCount != 12 || len(res.Items) != 1 || res.TotalPages() != 3 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestList_UnknownSortFallsBackToUsername(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`^SELECT\s+COUNT\(\*\)\s+FROM\s+users$`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`ORDER\s+BY\s+username\s+ASC,\s*id\s+LIMIT\s+\$1\s+OFFSET\s+\$2$`).
		WithArgs(10, 0).
		WillReturnRows(sqlmock.NewRows(userColumns))

	res, err := repo.List(context.Background(), models.UserFilter{Sort: models.Sort{Field: "password_hash; DROP"}})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if res.Items == nil || len(res.Items) != 0 {
		t.Fatalf("expected empty non-nil items, got %#v", res.Items)
	}
}
