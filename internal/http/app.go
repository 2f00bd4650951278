// Package http holds the pieces the API binary assembles into a gin engine.
package http

import (
	"context"

	"github.com/spmiller41/saleset-v2-sub000/platform/config"
	"github.com/spmiller41/saleset-v2-sub000/platform/httpkit"
	"github.com/spmiller41/saleset-v2-sub000/platform/logger"
)

// RouterConfig is the configuration the router reads: CORS and the admin JWT secret.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
}

// HealthChecker backs the readiness probe.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App is filled in by cmd/api and handed to the router.
type App struct {
	Config RouterConfig
	Logger *logger.Logger
	// Health may be nil, in which case readiness always succeeds.
	Health HealthChecker
	// IntakeLimiter is shared by every public submission route. The router creates
	// one when nil.
	IntakeLimiter *httpkit.IntakeRateLimiter
	Modules       []Module
}
