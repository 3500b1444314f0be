package server

import (
	"net/http"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"

	googleauth "learning-backend/internal/auth"
	"learning-backend/internal/preferences"
	"learning-backend/internal/profileimages"
	"learning-backend/internal/shared/config"
	"learning-backend/internal/shared/metrics"
	"learning-backend/internal/shared/server/middleware"
	"learning-backend/internal/shared/server/respond"
	"learning-backend/internal/users"
)

// RouterDeps carries the handlers the router wires up.
type RouterDeps struct {
	Config              config.Config
	UsersHandler        *users.Handler
	PreferencesHandler  *preferences.Handler
	ProfileImageHandler *profileimages.Handler
	GoogleAuth          *googleauth.GoogleService
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(deps.Config.Env),
		middleware.RateLimit(uploadRateLimit()),
	)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	if deps.UsersHandler != nil {
		deps.UsersHandler.RegisterRoutes(api)
	}
	if deps.PreferencesHandler != nil {
		deps.PreferencesHandler.RegisterRoutes(api)
	}
	if deps.ProfileImageHandler != nil {
		deps.ProfileImageHandler.RegisterRoutes(api)
	}

	if deps.Config.Env == "dev" || deps.Config.Env == "local" {
		api.GET("/dev/metrics", metrics.Handler())
		pprof.Register(r, "/api/v1/dev/pprof")
	}

	return r
}

// uploadRateLimit throttles image uploads per principal; thumbnailing is the
// most expensive request the service handles.
func uploadRateLimit() middleware.RateLimitConfig {
	return middleware.RateLimitConfig{
		Rules: map[string]middleware.RateLimitRule{
			"UPLOAD": {Rate: 1, Burst: 10},
		},
		GroupFor: func(c *gin.Context) string {
			if c.Request.Method == http.MethodPost && c.FullPath() == "/api/v1/users/:username/profile-image" {
				return "UPLOAD"
			}
			return ""
		},
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
