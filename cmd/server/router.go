package main

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/thereayou/wallet-profile/internal/handlers"
	"github.com/thereayou/wallet-profile/internal/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

const serviceName = "wallet-profile"

type routerDeps struct {
	Log         *zap.Logger
	Registry    *prometheus.Registry
	CORSOrigins []string
	Auth        *middleware.Authenticator
	AuthH       *handlers.AuthHandler
	UserH       *handlers.UserHandler
	WSH         *handlers.WebSocketHandler
	HealthH     *handlers.HealthHandler
}

func newRouter(d routerDeps) *gin.Engine {
	router := gin.New()
	router.Use(ginzap.Ginzap(d.Log, time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(d.Log, true))
	router.Use(otelgin.Middleware(serviceName))
	router.Use(cors.New(corsConfig(d.CORSOrigins)))
	router.Use(middleware.NewMetrics(d.Registry).Middleware())
	router.Use(middleware.ErrorHandler(d.Log))

	APIEndpoints(router, d)
	return router
}

func APIEndpoints(r *gin.Engine, d routerDeps) {
	r.GET("/health", d.HealthH.Health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{})))

	requireAuth := d.Auth.AuthMiddleware()

	// Auth endpoints
	auth := r.Group("/auth")
	{
		auth.GET("/challenge/:address", d.AuthH.Challenge)
		auth.POST("/login", d.AuthH.Login)
		auth.POST("/logout", requireAuth, d.AuthH.Logout)
	}

	// API endpoints
	api := r.Group("/api/v1")
	{
		users := api.Group("/users")
		users.GET("", d.UserH.ListUsers)
		users.GET("/export", d.UserH.ExportUsers)
		users.POST("", d.UserH.CreateUser)
		users.POST("/me/age-verification", requireAuth, d.UserH.VerifyAge)
		users.GET("/:address", d.UserH.GetUser)
		users.PATCH("/:address", requireAuth, d.UserH.UpdateUser)
	}

	r.GET("/ws", d.Auth.WSAuthMiddleware(), d.WSH.HandleWebSocket)
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
