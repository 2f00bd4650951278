package http

import (
	"github.com/gin-gonic/gin"

	"github.com/spmiller41/saleset-v2-sub000/platform/httpkit"
)

// Module is a bounded context with HTTP routes. Optional modules return nil from
// their constructor and are left out of App.Modules.
type Module interface {
	Name() string
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext is what a module gets to mount its routes on.
type RouterContext struct {
	Engine *gin.Engine
	// V1 is /api/v1, unauthenticated.
	V1 *gin.RouterGroup
	// Admin is /api/v1/admin, behind an operator JWT with the admin role.
	Admin *gin.RouterGroup
	// IntakeRateLimiter is applied by modules to their public submission routes.
	IntakeRateLimiter *httpkit.IntakeRateLimiter
}
