package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ringi.sh/ringi/internal/domain"
)

type contextKey string

const (
	// RequestIDHeader is the HTTP header for request tracing. Its value is
	// also used as the traceId every ExpenseLifecycle call threads through
	// to the audit trail and to published events, and is echoed in the
	// JSON error envelope's traceId field.
	RequestIDHeader = "X-Trace-Id"

	ctxKeyRequestID contextKey = "request_id"
	ctxKeyUserID    contextKey = "user_id"
	ctxKeyRoles     contextKey = "roles"
)

// RequestID injects a unique request ID into the context and response header.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(RequestIDHeader)
		if rid == "" {
			id, _ := uuid.NewV7()
			rid = id.String()
		}
		c.Set(string(ctxKeyRequestID), rid)
		c.Writer.Header().Set(RequestIDHeader, rid)
		c.Request = c.Request.WithContext(
			context.WithValue(c.Request.Context(), ctxKeyRequestID, rid),
		)
		c.Next()
	}
}

// GetRequestID extracts request ID from context.
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyRequestID).(string); ok {
		return v
	}
	return ""
}

// SetUserContext stores the authenticated actor's id and roles in context.
func SetUserContext(ctx context.Context, userID string, roles []string) context.Context {
	ctx = context.WithValue(ctx, ctxKeyUserID, userID)
	ctx = context.WithValue(ctx, ctxKeyRoles, roles)
	return ctx
}

// GetUserID extracts user ID from context.
func GetUserID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyUserID).(string); ok {
		return v
	}
	return ""
}

// GetRoles extracts user roles from context.
func GetRoles(ctx context.Context) []string {
	if v, ok := ctx.Value(ctxKeyRoles).([]string); ok {
		return v
	}
	return nil
}

// ActorFromContext builds the domain.Actor that every C7/C8 call takes,
// from the roles JWTAuthWithConfig populated. Unrecognized role strings are
// dropped rather than rejected — C2's predicates simply won't grant
// anything extra for them.
func ActorFromContext(ctx context.Context) domain.Actor {
	raw := GetRoles(ctx)
	roles := make([]domain.Role, 0, len(raw))
	for _, r := range raw {
		switch domain.Role(r) {
		case domain.RoleApplicant, domain.RoleApprover, domain.RoleAdmin:
			roles = append(roles, domain.Role(r))
		}
	}
	return domain.Actor{ID: GetUserID(ctx), Roles: roles}
}
