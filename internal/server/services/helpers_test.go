package services

import (
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/workboard/internal/cryptox"
	"github.com/dmitrijs2005/workboard/internal/logging"
	"github.com/dmitrijs2005/workboard/internal/server/auth"
	"github.com/dmitrijs2005/workboard/internal/server/repositories/memory"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

var (
	testSecret = []byte(strings.Repeat("s", 64))
	fastArgon  = cryptox.Argon2Params{Time: 1, Memory: 1024, Threads: 1, KeyLen: 32}
)

// txDB gives dbx.WithTx a real transaction to open and commit; the memory
// repositories ignore it.
func txDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+strings.ReplaceAll(t.Name(), "/", "_")+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

type fixture struct {
	repos   *memory.Manager
	issuer  *auth.TokenIssuer
	refresh *RefreshTokenManager
	auth    *AuthService
	items   *WorkItemService
	users   *UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := txDB(t)
	repos := memory.NewManager()
	issuer := auth.NewTokenIssuer(testSecret, "workboard", "clients", 3*time.Minute)
	refresh := NewRefreshTokenManager(30 * time.Minute)
	log := logging.Nop{}

	return &fixture{
		repos:   repos,
		issuer:  issuer,
		refresh: refresh,
		auth:    NewAuthService(db, repos, auth.NewPasswordHasher(fastArgon), issuer, refresh, log),
		items:   NewWorkItemService(db, repos, log),
		users:   NewUserService(db, repos),
	}
}

func nopLogger() logging.Logger { return logging.Nop{} }
