package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/dmitrijs2005/workboard/internal/common"
	"github.com/dmitrijs2005/workboard/internal/netx"
	"github.com/golang-jwt/jwt/v5"
)

type APIClient struct {
	baseURL string
	http    *http.Client

	mu      sync.Mutex
	session *Session
}

func NewAPIClient(baseURL string, httpClient *http.Client) *APIClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &APIClient{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// Session returns a copy of the current session, or nil.
func (c *APIClient) Session() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	s := *c.session
	return &s
}

func (c *APIClient) Logout() {
	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()
}

func (c *APIClient) url(path string, q url.Values) string {
	if len(q) == 0 {
		return c.baseURL + path
	}
	return c.baseURL + path + "?" + q.Encode()
}

func (c *APIClient) Health(ctx context.Context) error {
	_, err := netx.DoJSON(ctx, c.http, http.MethodGet, c.url("/healthz", nil), "", nil, nil)
	return mapError(err)
}

func (c *APIClient) Register(ctx context.Context, r RegisterRequest) (*User, error) {
	var u User
	if _, err := netx.DoJSON(ctx, c.http, http.MethodPost, c.url("/auth/register", nil), "", r, &u); err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}

func (c *APIClient) Login(ctx context.Context, username, password string) (*Session, error) {
	var pair TokenPair
	body := map[string]string{"username": username, "password": password}
	if _, err := netx.DoJSON(ctx, c.http, http.MethodPost, c.url("/auth/login", nil), "", body, &pair); err != nil {
		return nil, mapError(err)
	}

	s, err := sessionFromTokens(pair)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
	return c.Session(), nil
}

// Refresh rotates the token pair. On rejection the session is dropped,
// since the old refresh token can no longer be used.
func (c *APIClient) Refresh(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshLocked(ctx)
}

func (c *APIClient) refreshLocked(ctx context.Context) error {
	if c.session == nil {
		return ErrNotLoggedIn
	}

	var pair TokenPair
	body := map[string]string{"userId": c.session.UserID, "refreshToken": c.session.Tokens.RefreshToken}
	if _, err := netx.DoJSON(ctx, c.http, http.MethodPost, c.url("/auth/refresh", nil), "", body, &pair); err != nil {
		err = mapError(err)
		if errors.Is(err, ErrUnauthorized) {
			c.session = nil
		}
		return err
	}

	s, err := sessionFromTokens(pair)
	if err != nil {
		return err
	}
	c.session = s
	return nil
}

// Whoami asks the server to confirm the session and reports whether the
// admin-only endpoint accepts it.
func (c *APIClient) Whoami(ctx context.Context) (msg string, admin bool, err error) {
	if _, err = c.authed(ctx, http.MethodGet, c.url("/auth", nil), nil, &msg); err != nil {
		return "", false, err
	}

	var adminMsg string
	_, err = c.authed(ctx, http.MethodGet, c.url("/auth/admin-only", nil), nil, &adminMsg)
	var se *netx.StatusError
	if errors.As(err, &se) && se.Status == http.StatusForbidden {
		return msg, false, nil
	}
	if err != nil {
		return "", false, err
	}
	return msg, true, nil
}

func (c *APIClient) ListWorkItems(ctx context.Context, o ListOptions) (*WorkItemPage, error) {
	q := url.Values{}
	if o.PageNumber > 0 {
		q.Set("pageNumber", strconv.Itoa(o.PageNumber))
	}
	if o.PageSize > 0 {
		q.Set("pageSize", strconv.Itoa(o.PageSize))
	}
	for k, v := range map[string]string{"search": o.Search, "sortBy": o.SortBy, "status": o.Status} {
		if v != "" {
			q.Set(k, v)
		}
	}

	var items []WorkItem
	resp, err := c.authed(ctx, http.MethodGet, c.url("/api/workitems", q), nil, &items)
	if err != nil {
		return nil, err
	}
	return &WorkItemPage{Items: items, Page: pageFromHeaders(resp.Header)}, nil
}

func (c *APIClient) CreateWorkItem(ctx context.Context, in NewWorkItem) (*WorkItem, error) {
	var item WorkItem
	if _, err := c.authed(ctx, http.MethodPost, c.url("/api/workitems", nil), in, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// authed performs a bearer-authenticated call, rotating the tokens and
// retrying once on 401.
func (c *APIClient) authed(ctx context.Context, method, target string, in, out any) (*http.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return nil, ErrNotLoggedIn
	}

	resp, err := netx.DoJSON(ctx, c.http, method, target, c.session.Tokens.AccessToken, in, out)
	var se *netx.StatusError
	if !errors.As(err, &se) || se.Status != http.StatusUnauthorized {
		return resp, mapError(err)
	}

	if err := c.refreshLocked(ctx); err != nil {
		return nil, err
	}
	resp, err = netx.DoJSON(ctx, c.http, method, target, c.session.Tokens.AccessToken, in, out)
	return resp, mapError(err)
}

func sessionFromTokens(pair TokenPair) (*Session, error) {
	// The signature is the server's business; the client only reads claims.
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(pair.AccessToken, claims); err != nil {
		return nil, fmt.Errorf("read access token: %w", err)
	}

	str := func(k string) string {
		v, _ := claims[k].(string)
		return v
	}

	s := &Session{
		UserID:   str(common.ClaimNameIdentifier),
		Username: str(common.ClaimName),
		Role:     str(common.ClaimRole),
		Tokens:   pair,
	}
	if s.UserID == "" {
		return nil, errors.New("read access token: missing user id")
	}
	return s, nil
}

func pageFromHeaders(h http.Header) Page {
	n := func(k string) int {
		v, _ := strconv.Atoi(h.Get(k))
		return v
	}
	return Page{
		TotalCount:  n("X-Pagination-Total-Count"),
		PageSize:    n("X-Pagination-Page-Size"),
		CurrentPage: n("X-Pagination-Current-Page"),
		TotalPages:  n("X-Pagination-Total-Pages"),
	}
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	var se *netx.StatusError
	if errors.As(err, &se) {
		if se.Status == http.StatusUnauthorized {
			return fmt.Errorf("%w: %s", ErrUnauthorized, se.Message)
		}
		return err
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
