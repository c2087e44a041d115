package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inkpress/inkpress/internal/server/handlers/auth"
	"github.com/inkpress/inkpress/internal/server/handlers/content"
	"github.com/inkpress/inkpress/internal/server/handlers/site"
	"github.com/inkpress/inkpress/internal/server/handlers/sync"
	"github.com/inkpress/inkpress/internal/server/middlewares"
	"github.com/inkpress/inkpress/internal/version"
)

func SetupRoutes(config *Config, svc *Services) http.Handler {
	r := gin.New()
	r.MaxMultipartMemory = 32 << 20 // 32 MiB

	authH := auth.New(svc.Auth)
	syncH := sync.New(svc.Sync)
	contentH := content.New(svc.Sync)
	siteH := site.New(svc.Publish)

	r.Use(middlewares.Logger())
	r.Use(gin.Recovery())
	r.Use(middlewares.GZIP())
	r.Use(middlewares.CORS())
	if config.HTTP.EnableHSTS {
		r.Use(middlewares.HSTS())
	}

	r.GET("/", IndexHandler)
	r.GET("/healthz", HealthHandler)

	// credential endpoints, open but tightly rate limited
	authGroup := r.Group("/api/v1/auth")
	authGroup.Use(middlewares.RateLimiter(config.HTTP.AuthRateLimit))
	{
		authGroup.POST("/token", authH.Token)
		authGroup.POST("/refresh", authH.Refresh)
	}

	// the published site is the public face, no token required
	siteGroup := r.Group("/api/v1/site")
	siteGroup.Use(middlewares.RateLimiter(config.HTTP.APIRateLimit))
	{
		siteGroup.GET("/posts", siteH.ListPosts)
		siteGroup.GET("/posts/*path", siteH.GetPost)
	}

	// writer endpoints behind the bearer gate
	v1 := r.Group("/api/v1")
	v1.Use(middlewares.RateLimiter(config.HTTP.APIRateLimit))
	v1.Use(middlewares.JWTAuth(svc.Auth))
	{
		v1.POST("/sync/status", syncH.Status)
		v1.POST("/sync/commit", syncH.Commit)
		v1.GET("/content/download", contentH.Download)
	}

	r.NoRoute(func(c *gin.Context) {
		c.PureJSON(http.StatusNotFound, gin.H{
			"error": "not found",
		})
	})

	r.NoMethod(func(c *gin.Context) {
		c.PureJSON(http.StatusMethodNotAllowed, gin.H{
			"error": "method not allowed",
		})
	})

	return r.Handler()
}

func IndexHandler(ctx *gin.Context) {
	ctx.String(http.StatusOK, version.DetailedWithApp())
}

func HealthHandler(ctx *gin.Context) {
	ctx.PureJSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": version.Short(),
	})
}

func init() {
	gin.SetMode(gin.ReleaseMode)
}
