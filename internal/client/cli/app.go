package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/dmitrijs2005/workboard/internal/client/client"
	"github.com/dmitrijs2005/workboard/internal/client/config"
)

// apiClient is the part of client.APIClient the commands use.
type apiClient interface {
	Health(ctx context.Context) error
	Register(ctx context.Context, r client.RegisterRequest) (*client.User, error)
	Login(ctx context.Context, username, password string) (*client.Session, error)
	Refresh(ctx context.Context) error
	Whoami(ctx context.Context) (string, bool, error)
	ListWorkItems(ctx context.Context, o client.ListOptions) (*client.WorkItemPage, error)
	CreateWorkItem(ctx context.Context, in client.NewWorkItem) (*client.WorkItem, error)
	Session() *client.Session
	Logout()
}

type App struct {
	config *config.Config
	api    apiClient
	reader *bufio.Reader
	out    io.Writer
}

func NewApp(c *config.Config) (*App, error) {
	api := client.NewAPIClient(c.ServerURL, &http.Client{Timeout: c.RequestTimeout})
	return &App{config: c, api: api, reader: bufio.NewReader(os.Stdin), out: os.Stdout}, nil
}

func (a *App) isLoggedIn() bool {
	return a.api.Session() != nil
}

func (a *App) getStatus() string {
	s := a.api.Session()
	if s == nil {
		return ""
	}
	return fmt.Sprintf("(%s %s)", s.Username, s.Role)
}

// Run probes the server, then blocks in the REPL until the user quits or
// ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to workboard CLI (type 'help' for commands)")

	if err := a.api.Health(ctx); err != nil {
		fmt.Fprintf(a.out, "warning: %s is not healthy: %v\n", a.config.ServerURL, err)
	}

	runREPL(ctx, a, a.getStatus, a.reader)
}
