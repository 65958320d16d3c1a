package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"ringi.sh/ringi/internal/api/handlers"
	"ringi.sh/ringi/internal/api/middleware"
	"ringi.sh/ringi/internal/domain"
	"ringi.sh/ringi/internal/platform/clock"
	"ringi.sh/ringi/internal/search"
	"ringi.sh/ringi/internal/store"
	"ringi.sh/ringi/internal/testutil"
	"ringi.sh/ringi/internal/usecase"
)

type noopBus struct{}

func (noopBus) Publish(_ context.Context, _ ...domain.Event) error { return nil }

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	pool := testutil.OpenPGXPool(t, "handlers_expense")
	testutil.ApplySQLFile(t, pool, "../../../migrations/0001_init.sql")

	lifecycle := usecase.New(pool, clock.System{}, noopBus{})
	searchSvc := search.NewService(store.NewExpenseStore(pool))
	server := handlers.NewServer(handlers.ServerDeps{Lifecycle: lifecycle, Search: searchSvc})

	router := gin.New()
	router.Use(middleware.RequestID(), middleware.ErrorHandler())
	router.Use(func(c *gin.Context) {
		c.Request = c.Request.WithContext(middleware.SetUserContext(c.Request.Context(), "applicant-1", []string{string(domain.RoleApplicant)}))
		c.Next()
	})
	server.RegisterRoutes(router.Group("/api/v1"))
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateExpense_PersistsDraft(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/expenses", map[string]string{
		"title":  "taxi fare",
		"amount": "1200.00",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "DRAFT", body["status"])
	require.Equal(t, "JPY", body["currency"])
}

func TestCreateExpense_RejectsMissingTitle(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/expenses", map[string]string{
		"amount": "1200.00",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchExpenses_RestrictsToApplicant(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/expenses", map[string]string{
		"title":  "hotel",
		"amount": "5000.00",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/expenses?page=1&pageSize=10", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Items []map[string]any `json:"items"`
		Total int               `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, 1, body.Total)
	require.Len(t, body.Items, 1)
}

func TestApproveExpense_RequiresApproverRole(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/expenses", map[string]string{
		"title":  "conference ticket",
		"amount": "300.00",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	id := int64(created["id"].(float64))

	w = doJSON(t, router, http.MethodPost, "/api/v1/expenses/"+strconv.FormatInt(id, 10)+"/approve?version=0", nil)
	require.Equal(t, http.StatusForbidden, w.Code)
}
