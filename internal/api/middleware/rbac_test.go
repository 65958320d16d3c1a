package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"ringi.sh/ringi/internal/domain"
)

func TestRequireRole(t *testing.T) {
	t.Parallel()

	gin.SetMode(gin.TestMode)

	run := func(roles []string, required ...domain.Role) (int, bool) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		c.Request = req.WithContext(SetUserContext(req.Context(), "u-1", roles))

		called := false
		RequireRole(required...)(c)
		if !c.IsAborted() {
			called = true
		}
		return w.Code, called
	}

	t.Run("matching role allowed", func(t *testing.T) {
		t.Parallel()
		status, called := run([]string{string(domain.RoleApprover)}, domain.RoleApprover, domain.RoleAdmin)
		if status != http.StatusOK {
			t.Fatalf("status = %d, want %d", status, http.StatusOK)
		}
		if !called {
			t.Fatal("middleware unexpectedly aborted for matching role")
		}
	})

	t.Run("admin satisfies approver-or-admin gate", func(t *testing.T) {
		t.Parallel()
		status, called := run([]string{string(domain.RoleAdmin)}, domain.RoleApprover, domain.RoleAdmin)
		if status != http.StatusOK {
			t.Fatalf("status = %d, want %d", status, http.StatusOK)
		}
		if !called {
			t.Fatal("middleware unexpectedly aborted for admin")
		}
	})

	t.Run("missing role forbidden", func(t *testing.T) {
		t.Parallel()
		status, called := run([]string{string(domain.RoleApplicant)}, domain.RoleApprover, domain.RoleAdmin)
		if status != http.StatusForbidden {
			t.Fatalf("status = %d, want %d", status, http.StatusForbidden)
		}
		if called {
			t.Fatal("middleware should abort when actor lacks a required role")
		}
	})

	t.Run("no roles forbidden", func(t *testing.T) {
		t.Parallel()
		status, called := run(nil, domain.RoleApplicant)
		if status != http.StatusForbidden {
			t.Fatalf("status = %d, want %d", status, http.StatusForbidden)
		}
		if called {
			t.Fatal("middleware should abort for an actor with no roles")
		}
	})
}

func TestActorFromContext(t *testing.T) {
	t.Parallel()

	ctx := SetUserContext(t.Context(), "u-42", []string{string(domain.RoleApplicant), "ROLE_UNKNOWN"})
	actor := ActorFromContext(ctx)

	if actor.ID != "u-42" {
		t.Fatalf("ID = %q, want u-42", actor.ID)
	}
	if !actor.HasRole(domain.RoleApplicant) {
		t.Fatal("expected actor to carry RoleApplicant")
	}
	if len(actor.Roles) != 1 {
		t.Fatalf("Roles = %v, want unrecognized role strings dropped", actor.Roles)
	}
}
