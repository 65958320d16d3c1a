package search_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ringi.sh/ringi/internal/domain"
	"ringi.sh/ringi/internal/search"
	"ringi.sh/ringi/internal/store"
	"ringi.sh/ringi/internal/testutil"
)

func seedExpenses(t *testing.T, s *store.ExpenseStore, applicantID string, n int) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()
	for i := 0; i < n; i++ {
		d, err := domain.NewDraft(applicantID, "item", "10.00", "JPY", now.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
		_, err = s.Insert(ctx, d)
		require.NoError(t, err)
	}
}

func TestSearchService_ApplicantSeesOnlyOwnExpenses(t *testing.T) {
	ctx := context.Background()
	pool := testutil.OpenPGXPool(t, "search_visibility")
	testutil.ApplySQLFile(t, pool, "../../migrations/0001_init.sql")

	expenseStore := store.NewExpenseStore(pool)
	seedExpenses(t, expenseStore, "user-1", 3)
	seedExpenses(t, expenseStore, "user-2", 2)

	svc := search.NewService(expenseStore)

	result, err := svc.Search(ctx, store.Criteria{}, "created_at", "DESC", 1, 10, domain.Actor{ID: "user-1"})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Total)
	assert.Len(t, result.Items, 3)

	result, err = svc.Search(ctx, store.Criteria{}, "created_at", "DESC", 1, 10, domain.Actor{ID: "approver-1", Roles: []domain.Role{domain.RoleApprover}})
	require.NoError(t, err)
	assert.Equal(t, 5, result.Total)
}

func TestSearchService_Pagination(t *testing.T) {
	ctx := context.Background()
	pool := testutil.OpenPGXPool(t, "search_pagination")
	testutil.ApplySQLFile(t, pool, "../../migrations/0001_init.sql")

	expenseStore := store.NewExpenseStore(pool)
	seedExpenses(t, expenseStore, "user-1", 12)

	svc := search.NewService(expenseStore)
	actor := domain.Actor{ID: "admin-1", Roles: []domain.Role{domain.RoleAdmin}}

	result, err := svc.Search(ctx, store.Criteria{}, "created_at", "ASC", 2, 5, actor)
	require.NoError(t, err)
	assert.Equal(t, 12, result.Total)
	assert.Equal(t, 3, result.TotalPages)
	assert.Len(t, result.Items, 5)
	assert.Equal(t, []int{1, 2, 3}, result.PageWindow)
}

func TestComputePageWindow_NoResults(t *testing.T) {
	ctx := context.Background()
	pool := testutil.OpenPGXPool(t, "search_empty")
	testutil.ApplySQLFile(t, pool, "../../migrations/0001_init.sql")

	expenseStore := store.NewExpenseStore(pool)
	svc := search.NewService(expenseStore)

	result, err := svc.Search(ctx, store.Criteria{}, "created_at", "DESC", 1, 10, domain.Actor{ID: "user-1"})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Total)
	assert.Equal(t, 0, result.TotalPages)
	assert.Empty(t, result.PageWindow)
}
