package httpkit

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Operator is the authenticated caller of an admin route.
type Operator struct {
	ID    uuid.UUID
	Roles []string
}

// HasRole reports whether the operator carries role.
func (o Operator) HasRole(role string) bool {
	return slices.Contains(o.Roles, role)
}

// CurrentOperator reads the operator set by AuthRequired.
func CurrentOperator(c *gin.Context) (Operator, bool) {
	raw, ok := c.Get(ContextUserIDKey)
	if !ok {
		return Operator{}, false
	}
	id, ok := raw.(uuid.UUID)
	if !ok {
		return Operator{}, false
	}

	var roles []string
	if value, ok := c.Get(ContextRolesKey); ok {
		roles, _ = value.([]string)
	}
	return Operator{ID: id, Roles: roles}, true
}

// MustGetOperator aborts with 401 when no operator is authenticated.
func MustGetOperator(c *gin.Context) (Operator, bool) {
	op, ok := CurrentOperator(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
	return op, ok
}
