package handlers

import (
	"time"

	"ringi.sh/ringi/internal/domain"
	"ringi.sh/ringi/internal/search"
)

// createExpenseRequest is the body of POST /expenses.
type createExpenseRequest struct {
	Title    string `json:"title" binding:"required"`
	Amount   string `json:"amount" binding:"required"`
	Currency string `json:"currency"`
}

// rejectExpenseRequest is the body of POST /expenses/:id/reject?version=N.
// The optimistic-lock version travels as a query parameter, not the body.
type rejectExpenseRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// expenseResponse is the wire shape of one Expense.
type expenseResponse struct {
	ID          int64      `json:"id"`
	ApplicantID string     `json:"applicantId"`
	Title       string     `json:"title"`
	Amount      string     `json:"amount"`
	Currency    string     `json:"currency"`
	Status      string     `json:"status"`
	SubmittedAt *time.Time `json:"submittedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	Version     int64      `json:"version"`
}

func toExpenseResponse(e *domain.Expense) expenseResponse {
	return expenseResponse{
		ID:          e.ID,
		ApplicantID: e.ApplicantID,
		Title:       e.Title,
		Amount:      e.Amount,
		Currency:    e.Currency,
		Status:      string(e.Status),
		SubmittedAt: e.SubmittedAt,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
		Version:     e.Version,
	}
}

// auditEntryResponse is the wire shape of one domain.AuditEntry.
type auditEntryResponse struct {
	ID           int64     `json:"id"`
	ExpenseID    int64     `json:"expenseId"`
	ActorID      string    `json:"actorId"`
	Action       string    `json:"action"`
	BeforeStatus *string   `json:"beforeStatus,omitempty"`
	AfterStatus  string    `json:"afterStatus"`
	Note         *string   `json:"note,omitempty"`
	TraceID      string    `json:"traceId"`
	CreatedAt    time.Time `json:"createdAt"`
}

func toAuditEntryResponse(e domain.AuditEntry) auditEntryResponse {
	var before *string
	if e.BeforeStatus != nil {
		s := string(*e.BeforeStatus)
		before = &s
	}
	return auditEntryResponse{
		ID:           e.ID,
		ExpenseID:    e.ExpenseID,
		ActorID:      e.ActorID,
		Action:       string(e.Action),
		BeforeStatus: before,
		AfterStatus:  string(e.AfterStatus),
		Note:         e.Note,
		TraceID:      e.TraceID,
		CreatedAt:    e.CreatedAt,
	}
}

// searchResponse is the wire shape of search.Result.
type searchResponse struct {
	Items      []expenseResponse `json:"items"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	Total      int               `json:"total"`
	TotalPages int               `json:"totalPages"`
	PageWindow []int             `json:"pageWindow"`
}

func toSearchResponse(r search.Result) searchResponse {
	items := make([]expenseResponse, 0, len(r.Items))
	for i := range r.Items {
		items = append(items, toExpenseResponse(&r.Items[i]))
	}
	return searchResponse{
		Items:      items,
		Page:       r.Page,
		PageSize:   r.PageSize,
		Total:      r.Total,
		TotalPages: r.TotalPages,
		PageWindow: r.PageWindow,
	}
}
