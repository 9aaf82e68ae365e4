// Package main provides the API server entry point.
package main

import (
	"github.com/labstack/echo/v4"

	"github.com/dialog-app/dialog/internal/infrastructure/httpserver"
	"github.com/dialog-app/dialog/internal/middleware"
)

// SetupRoutes configures all API routes and middleware chains.
func SetupRoutes(c *Container) *httpserver.Router {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	routerConfig := httpserver.RouterConfig{
		Logger: c.Logger,
		AuthMiddleware: middleware.Auth(middleware.AuthConfig{
			Logger:         c.Logger,
			TokenValidator: c.TokenValidator,
			SkipPaths: []string{
				"/health",
				"/ready",
				"/health/details",
				"/metrics",
			},
		}),
		RateLimitMiddleware: buildRateLimitMiddleware(c),
		CORSConfig:          middleware.DefaultCORSConfig(),
		LoggingConfig: middleware.LoggingConfig{
			Logger:    c.Logger,
			SkipPaths: []string{"/health", "/ready", "/metrics"},
		},
		RecoveryConfig: middleware.RecoveryConfig{
			Logger:    c.Logger,
			StackSize: middleware.DefaultStackSize,
		},
		APIPrefix: "/api",
	}

	router := httpserver.NewRouter(e, routerConfig)

	// Container implements httpserver.HealthChecker, so readiness follows
	// the actual MongoDB/Redis connections.
	router.RegisterHealthEndpointsWithChecker(c)
	router.RegisterMetricsEndpoint()

	router.RegisterAll(c.MessageHandler)

	if c.Config.IsDevelopment() {
		router.PrintRoutes()
	}

	return router
}

// buildRateLimitMiddleware builds the per-sender throttle, or nil when disabled.
func buildRateLimitMiddleware(c *Container) echo.MiddlewareFunc {
	if !c.Config.RateLimit.Enabled {
		return nil
	}

	return middleware.RateLimitBySender(middleware.RateLimitConfig{
		Logger:    c.Logger,
		Store:     middleware.NewRedisRateLimitStore(c.Redis, ""),
		Limit:     c.Config.RateLimit.SendLimit,
		Window:    c.Config.RateLimit.Window,
		SkipPaths: []string{"/health", "/ready", "/health/details", "/metrics"},
	})
}
