// Package httpapi is the REST surface of the server, built on gin.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/workboard/internal/common"
	"github.com/dmitrijs2005/workboard/internal/logging"
	"github.com/dmitrijs2005/workboard/internal/server/ratelimit"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps are the collaborators the router dispatches to. AuthLimiter may be
// nil to disable rate limiting.
type Deps struct {
	Auth        AuthService
	Users       UserLister
	WorkItems   WorkItemService
	Tokens      TokenParser
	DB          Pinger
	AuthLimiter ratelimit.Limiter
	Log         logging.Logger
}

type handler struct {
	auth  AuthService
	users UserLister
	items WorkItemService
	db    Pinger
	log   logging.Logger
}

// NewRouter constructs the gin engine with all routes wired.
func NewRouter(d Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	log := d.Log.With("module", "http")
	h := &handler{auth: d.Auth, users: d.Users, items: d.WorkItems, db: d.DB, log: log}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	r.GET("/healthz", h.health)

	authn := Authenticate(d.Tokens)
	admin := RequireRole(common.RoleAdmin)

	a := r.Group("/auth")
	{
		limited := a.Group("")
		if d.AuthLimiter != nil {
			limited.Use(RateLimit(d.AuthLimiter, log))
		}
		limited.POST("/register", h.register)
		limited.POST("/login", h.login)
		limited.POST("/refresh", h.refresh)

		a.GET("", authn, h.authenticated)
		a.GET("/admin-only", authn, admin, h.adminOnly)
	}

	api := r.Group("/api", authn)
	{
		api.GET("/users", admin, h.listUsers)

		items := api.Group("/workitems")
		items.GET("", h.listWorkItems)
		items.GET("/:id", h.getWorkItem)
		items.POST("", h.createWorkItem)
		items.PUT("/:id", h.updateWorkItem)
		items.DELETE("/:id", admin, h.deleteWorkItem)
	}

	return r
}

func (h *handler) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		h.log.Warn(ctx, "health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
