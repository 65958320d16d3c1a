// Package search is SearchService (C8): criteria-to-query translation with
// visibility enforcement and paging. It is a thin layer over
// internal/store's Search operation — its entire job is folding in C2's
// visibilityFilter and computing the page/pageWindow shape the HTTP
// boundary returns, never touching SQL itself.
package search

import (
	"context"

	"ringi.sh/ringi/internal/domain"
	"ringi.sh/ringi/internal/policy"
	"ringi.sh/ringi/internal/store"
)

const maxPageWindow = 5

// Result is the paginated response shape spec.md §4.7 defines.
type Result struct {
	Items      []domain.Expense
	Page       int
	PageSize   int
	Total      int
	TotalPages int
	PageWindow []int
}

// Service is SearchService.
type Service struct {
	store *store.ExpenseStore
}

// NewService wraps an ExpenseStore as a SearchService.
func NewService(expenseStore *store.ExpenseStore) *Service {
	return &Service{store: expenseStore}
}

// Search applies actor's visibility restriction, normalizes sortField/Dir
// against the closed set, and returns one page of results.
func (s *Service) Search(ctx context.Context, criteria store.Criteria, sortField, sortDir string, page, pageSize int, actor domain.Actor) (Result, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}

	restriction := toStoreRestriction(policy.VisibilityFilter(actor))
	sort := store.NormalizeSort(sortField, sortDir)
	offset := (page - 1) * pageSize

	items, total, err := s.store.Search(ctx, criteria, restriction, sort, store.Page{Offset: offset, Limit: pageSize})
	if err != nil {
		return Result{}, err
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}

	return Result{
		Items:      items,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		PageWindow: computePageWindow(page, totalPages),
	}, nil
}

func toStoreRestriction(r policy.QueryRestriction) store.Restriction {
	return store.Restriction{
		Unrestricted:          r.Unrestricted,
		RestrictToApplicantID: r.RestrictToApplicantID,
	}
}

// computePageWindow returns up to maxPageWindow page numbers centred on
// page, clipped to [1, totalPages]. Its length is min(maxPageWindow,
// totalPages); nil when totalPages is 0.
func computePageWindow(page, totalPages int) []int {
	if totalPages <= 0 {
		return nil
	}
	size := maxPageWindow
	if totalPages < size {
		size = totalPages
	}

	start := page - size/2
	if start < 1 {
		start = 1
	}
	if start+size-1 > totalPages {
		start = totalPages - size + 1
	}
	if start < 1 {
		start = 1
	}

	window := make([]int, size)
	for i := 0; i < size; i++ {
		window[i] = start + i
	}
	return window
}
