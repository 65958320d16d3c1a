package store

import (
	"time"

	"ringi.sh/ringi/internal/domain"
)

// Criteria is Search's filter input. Every field is optional; absent means
// unrestricted, per spec.md's "all fields optional" rule.
type Criteria struct {
	ApplicantID   *string
	Status        *domain.Status
	Title         *string // substring, case-insensitive
	AmountMin     *string // inclusive, fixed-point decimal text
	AmountMax     *string // inclusive
	SubmittedFrom *time.Time
	SubmittedTo   *time.Time
}

// SortField is one of the closed set of columns Search may order by.
type SortField string

const (
	SortCreatedAt   SortField = "created_at"
	SortUpdatedAt   SortField = "updated_at"
	SortSubmittedAt SortField = "submitted_at"
	SortAmount      SortField = "amount"
	SortID          SortField = "id"
)

// SortDir is ascending or descending.
type SortDir string

const (
	Asc  SortDir = "ASC"
	Desc SortDir = "DESC"
)

// Sort is a validated (field, direction) pair.
type Sort struct {
	Field SortField
	Dir   SortDir
}

// DefaultSort is what any unrecognized sort input normalises to.
var DefaultSort = Sort{Field: SortCreatedAt, Dir: Desc}

var validSortFields = map[string]SortField{
	"created_at":   SortCreatedAt,
	"updated_at":   SortUpdatedAt,
	"submitted_at": SortSubmittedAt,
	"amount":       SortAmount,
	"id":           SortID,
}

// NormalizeSort validates field/dir against the closed set this store
// accepts; any unrecognized value (including empty) silently falls back to
// DefaultSort rather than erroring, per the resolved Open Question in
// SPEC_FULL.md.
func NormalizeSort(field, dir string) Sort {
	f, ok := validSortFields[field]
	if !ok {
		return DefaultSort
	}
	switch dir {
	case string(Asc):
		return Sort{Field: f, Dir: Asc}
	case string(Desc):
		return Sort{Field: f, Dir: Desc}
	default:
		return DefaultSort
	}
}

// Page is a 0-indexed (offset, limit) window. limit must be >= 1; callers
// above this layer (SearchService) are responsible for translating
// 1-indexed page numbers into an offset.
type Page struct {
	Offset int
	Limit  int
}

// Restriction narrows which applicantId rows are visible. It mirrors
// policy.QueryRestriction without importing internal/policy, so this
// package has no dependency on authorization policy — the caller folds
// visibility in before calling Search.
type Restriction struct {
	RestrictToApplicantID string
	Unrestricted          bool
}
