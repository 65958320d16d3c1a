// Package handlers is the HTTP boundary over ExpenseLifecycle (C7) and
// SearchService (C8). Handlers translate gin requests into domain calls and
// domain errors into the uniform JSON envelope middleware.ErrorHandler
// renders; they never touch storage or policy directly.
package handlers

import (
	"github.com/gin-gonic/gin"

	"ringi.sh/ringi/internal/api/middleware"
	"ringi.sh/ringi/internal/search"
	"ringi.sh/ringi/internal/usecase"
)

// Server implements all expense API handlers.
type Server struct {
	lifecycle *usecase.ExpenseLifecycle
	search    *search.Service
}

// ServerDeps holds dependencies for creating a Server.
type ServerDeps struct {
	Lifecycle *usecase.ExpenseLifecycle
	Search    *search.Service
}

// NewServer builds a Server from deps.
func NewServer(deps ServerDeps) *Server {
	return &Server{lifecycle: deps.Lifecycle, search: deps.Search}
}

// RegisterRoutes mounts every expense endpoint under router, gating
// approve/reject behind the approver-or-admin route-level role check. The
// real per-operation decision still runs inside ExpenseLifecycle regardless
// of what passes here.
func (s *Server) RegisterRoutes(router gin.IRouter) {
	expenses := router.Group("/expenses")
	{
		expenses.POST("", s.CreateExpense)
		expenses.GET("", s.SearchExpenses)
		expenses.GET("/:id/audit", s.GetAuditLog)
		expenses.POST("/:id/submit", s.SubmitExpense)

		decide := expenses.Group("")
		decide.Use(middleware.RequireRole(domainApproverRoles...))
		decide.POST("/:id/approve", s.ApproveExpense)
		decide.POST("/:id/reject", s.RejectExpense)
	}
}
