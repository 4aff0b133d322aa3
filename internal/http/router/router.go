// Package router assembles the Gin engine from the application modules.
package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	apphttp "github.com/juanctr3/b2b/internal/http"
	"github.com/juanctr3/b2b/platform/httpkit"
)

// Webhook deliveries are machine-generated, so the public limiter is generous.
const (
	publicRatePerSecond = 10
	publicRateBurst     = 30
)

// New builds the HTTP engine: global middleware, health endpoint and one
// route group per registered module.
func New(app *apphttp.App) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(httpkit.RequestLogger(app.Logger))
	engine.Use(httpkit.SecurityHeaders())
	engine.Use(corsMiddleware(app))

	limiter := httpkit.NewIPRateLimiter(rate.Limit(publicRatePerSecond), publicRateBurst, app.Logger)

	engine.GET("/api/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if app.Health != nil {
			if err := app.Health.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := engine.Group("/api/v1")
	webhook := v1.Group("/webhook")
	webhook.Use(limiter.RateLimit())

	ctx := &apphttp.RouterContext{
		Engine:       engine,
		V1:           v1,
		Webhook:      webhook,
		InternalAuth: httpkit.APIKeyAuth(app.Config.GetNotifyAPIKey()),
		RateLimiter:  limiter,
	}

	for _, module := range app.Modules {
		module.RegisterRoutes(ctx)
		app.Logger.Info("registered module routes", "module", module.Name())
	}

	return engine
}

func corsMiddleware(app *apphttp.App) gin.HandlerFunc {
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "X-Api-Key"}

	if app.Config.GetCORSAllowAll() {
		corsCfg.AllowAllOrigins = true
	} else if origins := app.Config.GetCORSOrigins(); len(origins) > 0 {
		corsCfg.AllowOrigins = origins
	} else {
		corsCfg.AllowAllOrigins = true
	}

	return cors.New(corsCfg)
}
