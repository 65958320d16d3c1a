package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ringi.sh/ringi/internal/api/middleware"
	"ringi.sh/ringi/internal/domain"
	apperrors "ringi.sh/ringi/internal/pkg/errors"
	"ringi.sh/ringi/internal/store"
)

// domainApproverRoles gates the approve/reject routes at the HTTP layer.
var domainApproverRoles = []domain.Role{domain.RoleApprover, domain.RoleAdmin}

func traceID(c *gin.Context) string {
	return middleware.GetRequestID(c.Request.Context())
}

func expenseIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		_ = c.Error(apperrors.ValidationError("invalid expense id", apperrors.Detail{
			Field: "id", Message: "must be an integer",
		}))
		return 0, false
	}
	return id, true
}

// expectedVersionQuery parses the ?version=N optimistic-lock token spec.md
// §6 puts on the approve/reject routes.
func expectedVersionQuery(c *gin.Context) (int64, bool) {
	version, err := strconv.ParseInt(c.Query("version"), 10, 64)
	if err != nil {
		_ = c.Error(apperrors.ValidationError("invalid version", apperrors.Detail{
			Field: "version", Message: "must be an integer query parameter",
		}))
		return 0, false
	}
	return version, true
}

// CreateExpense handles POST /expenses.
func (s *Server) CreateExpense(c *gin.Context) {
	var req createExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.ValidationError(err.Error()))
		return
	}

	currency := req.Currency
	if currency == "" {
		currency = domain.DefaultCurrency
	}

	actor := middleware.ActorFromContext(c.Request.Context())
	expense, err := s.lifecycle.Create(c.Request.Context(), actor, req.Title, req.Amount, currency, traceID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, toExpenseResponse(expense))
}

// SubmitExpense handles POST /expenses/:id/submit.
func (s *Server) SubmitExpense(c *gin.Context) {
	id, ok := expenseIDParam(c)
	if !ok {
		return
	}

	actor := middleware.ActorFromContext(c.Request.Context())
	expense, err := s.lifecycle.Submit(c.Request.Context(), id, actor, traceID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, toExpenseResponse(expense))
}

// ApproveExpense handles POST /expenses/:id/approve?version=N.
func (s *Server) ApproveExpense(c *gin.Context) {
	id, ok := expenseIDParam(c)
	if !ok {
		return
	}
	version, ok := expectedVersionQuery(c)
	if !ok {
		return
	}

	actor := middleware.ActorFromContext(c.Request.Context())
	expense, err := s.lifecycle.Approve(c.Request.Context(), id, version, actor, traceID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, toExpenseResponse(expense))
}

// RejectExpense handles POST /expenses/:id/reject?version=N, body {reason}.
func (s *Server) RejectExpense(c *gin.Context) {
	id, ok := expenseIDParam(c)
	if !ok {
		return
	}
	version, ok := expectedVersionQuery(c)
	if !ok {
		return
	}

	var req rejectExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.ValidationError(err.Error()))
		return
	}

	actor := middleware.ActorFromContext(c.Request.Context())
	expense, err := s.lifecycle.Reject(c.Request.Context(), id, version, req.Reason, actor, traceID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, toExpenseResponse(expense))
}

// GetAuditLog handles GET /expenses/:id/audit.
func (s *Server) GetAuditLog(c *gin.Context) {
	id, ok := expenseIDParam(c)
	if !ok {
		return
	}

	actor := middleware.ActorFromContext(c.Request.Context())
	entries, err := s.lifecycle.GetAuditLog(c.Request.Context(), id, actor)
	if err != nil {
		_ = c.Error(err)
		return
	}

	items := make([]auditEntryResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, toAuditEntryResponse(e))
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// SearchExpenses handles GET /expenses.
func (s *Server) SearchExpenses(c *gin.Context) {
	var criteria store.Criteria
	if v := c.Query("applicantId"); v != "" {
		criteria.ApplicantID = &v
	}
	if v := c.Query("status"); v != "" {
		status := domain.Status(v)
		criteria.Status = &status
	}
	if v := c.Query("title"); v != "" {
		criteria.Title = &v
	}
	if v := c.Query("amountMin"); v != "" {
		criteria.AmountMin = &v
	}
	if v := c.Query("amountMax"); v != "" {
		criteria.AmountMax = &v
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))
	sortField := c.Query("sortField")
	sortDir := c.Query("sortDir")

	actor := middleware.ActorFromContext(c.Request.Context())
	result, err := s.search.Search(c.Request.Context(), criteria, sortField, sortDir, page, pageSize, actor)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, toSearchResponse(result))
}
