package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ringi.sh/ringi/internal/domain"
	apperrors "ringi.sh/ringi/internal/pkg/errors"
)

// RequireRole returns middleware that aborts with 403 unless the
// authenticated actor carries one of the given roles. It is a coarse
// route-level gate only — the actual per-operation decision (including
// status and ownership checks) is C2's job, consulted again inside every
// ExpenseLifecycle call regardless of what passed here.
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := ActorFromContext(c.Request.Context())
		for _, role := range roles {
			if actor.HasRole(role) {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"code":    apperrors.CodeNotAuthorized,
			"message": "actor lacks a required role",
		})
	}
}
