package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ringi.sh/ringi/internal/domain"
	"ringi.sh/ringi/internal/store"
	"ringi.sh/ringi/internal/testutil"
)

func newTestStore(t *testing.T, prefix string) *store.ExpenseStore {
	t.Helper()
	pool := testutil.OpenPGXPool(t, prefix)
	testutil.ApplySQLFile(t, pool, "../../migrations/0001_init.sql")
	return store.NewExpenseStore(pool)
}

func TestExpenseStore_InsertAndFindByID(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, "store_insert_find")

	now := time.Now().UTC().Truncate(time.Microsecond)
	draft, err := domain.NewDraft("user-1", "taxi fare", "12.50", "JPY", now)
	require.NoError(t, err)

	id, err := s.Insert(ctx, draft)
	require.NoError(t, err)
	require.NotZero(t, id)

	got, err := s.FindByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "user-1", got.ApplicantID)
	require.Equal(t, "12.50", got.Amount)
	require.Equal(t, domain.StatusDraft, got.Status)
	require.Nil(t, got.SubmittedAt)
	require.EqualValues(t, 0, got.Version)
}

func TestExpenseStore_FindByID_NotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, "store_find_missing")

	_, err := s.FindByID(ctx, 999999)
	require.Error(t, err)
}

func TestExpenseStore_ConditionalUpdate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, "store_conditional_update")

	now := time.Now().UTC().Truncate(time.Microsecond)
	draft, err := domain.NewDraft("user-1", "hotel", "340.00", "JPY", now)
	require.NoError(t, err)
	id, err := s.Insert(ctx, draft)
	require.NoError(t, err)

	pre, err := s.FindByID(ctx, id)
	require.NoError(t, err)

	post := pre.Submit(now.Add(time.Minute))
	applied, err := s.ConditionalUpdate(ctx, id, pre.Version, post)
	require.NoError(t, err)
	require.True(t, applied)

	// Retrying with the stale expected version must report VersionMismatch.
	applied, err = s.ConditionalUpdate(ctx, id, pre.Version, post)
	require.NoError(t, err)
	require.False(t, applied, "stale expectedVersion must not apply twice")

	current, err := s.FindByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, domain.StatusSubmitted, current.Status)
	require.EqualValues(t, 1, current.Version)
	require.NotNil(t, current.SubmittedAt)
}

func TestExpenseStore_ConditionalUpdate_ConcurrentContention(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, "store_contention")

	now := time.Now().UTC().Truncate(time.Microsecond)
	draft, err := domain.NewDraft("user-1", "conference ticket", "500.00", "JPY", now)
	require.NoError(t, err)
	id, err := s.Insert(ctx, draft)
	require.NoError(t, err)

	pre, err := s.FindByID(ctx, id)
	require.NoError(t, err)
	post := pre.Submit(now)

	results := make(chan bool, 2)
	for i := 0; i < 2; i++ {
		go func() {
			applied, err := s.ConditionalUpdate(ctx, id, pre.Version, post)
			require.NoError(t, err)
			results <- applied
		}()
	}

	first := <-results
	second := <-results
	require.True(t, first != second, "exactly one concurrent ConditionalUpdate must win")
}

func TestExpenseStore_Search(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, "store_search")

	now := time.Now().UTC().Truncate(time.Microsecond)
	for i, applicant := range []string{"user-1", "user-1", "user-2"} {
		d, err := domain.NewDraft(applicant, "item", "10.00", "JPY", now.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
		_, err = s.Insert(ctx, d)
		require.NoError(t, err)
	}

	applicantID := "user-1"
	items, total, err := s.Search(ctx, store.Criteria{ApplicantID: &applicantID}, store.Restriction{Unrestricted: true}, store.DefaultSort, store.Page{Limit: 10})
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Len(t, items, 2)

	items, total, err = s.Search(ctx, store.Criteria{}, store.Restriction{RestrictToApplicantID: "user-2"}, store.DefaultSort, store.Page{Limit: 10})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, items, 1)
	require.Equal(t, "user-2", items[0].ApplicantID)
}

func TestNormalizeSort(t *testing.T) {
	require.Equal(t, store.Sort{Field: store.SortAmount, Dir: store.Asc}, store.NormalizeSort("amount", "ASC"))
	require.Equal(t, store.DefaultSort, store.NormalizeSort("amount", "sideways"))
	require.Equal(t, store.DefaultSort, store.NormalizeSort("'; DROP TABLE expenses; --", "ASC"))
	require.Equal(t, store.DefaultSort, store.NormalizeSort("", ""))
}
