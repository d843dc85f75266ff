// internal/handler/router.go
package handler

import (
	"cashback-optimizer/internal/auth"
	"cashback-optimizer/internal/logger"
	"cashback-optimizer/internal/middleware"
	"cashback-optimizer/internal/service"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterDeps struct {
	Service        *service.Service
	Tokens         *auth.TokenService
	Limiter        *middleware.RateLimiter
	RequestTimeout time.Duration
	// Gatherer is served on /metrics when set.
	Gatherer prometheus.Gatherer
	// Telegram, if set, is mounted on POST /telegram.
	Telegram gin.HandlerFunc
}

func NewRouter(d RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), logger.Gin())

	router.GET("/health", Health(d.Service))
	if d.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}
	if d.Telegram != nil {
		router.POST("/telegram", d.Telegram)
	}

	api := router.Group("/api/v1")
	if d.RequestTimeout > 0 {
		api.Use(middleware.Timeout(d.RequestTimeout))
	}
	var limit gin.HandlerFunc = func(c *gin.Context) { c.Next() }
	if d.Limiter != nil {
		limit = d.Limiter.Middleware()
	}
	// login лимитируется по IP, остальное по user_id
	api.POST("/login", limit, Login(d.Tokens))

	protected := api.Group("")
	protected.Use(middleware.NewAuthMiddleware(d.Tokens).RequireAuth(), limit)
	NewCashbackHandler(d.Service).Register(protected)

	return router
}
