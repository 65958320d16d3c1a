package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "ringi.sh/ringi/internal/pkg/errors"
	"ringi.sh/ringi/internal/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	_ = logger.Init("error", "json")
}

func TestErrorHandler_NoErrors(t *testing.T) {
	router := gin.New()
	router.Use(ErrorHandler())
	router.GET("/ok", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestErrorHandler_AppError(t *testing.T) {
	router := gin.New()
	router.Use(ErrorHandler())
	router.GET("/fail", func(c *gin.Context) {
		_ = c.Error(apperrors.NotFoundError("expense not found"))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/fail", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["code"] != apperrors.CodeNotFound {
		t.Errorf("code = %q, want %s", body["code"], apperrors.CodeNotFound)
	}
}

func TestErrorHandler_AppErrorWithDetails(t *testing.T) {
	router := gin.New()
	router.Use(ErrorHandler())
	router.GET("/fail", func(c *gin.Context) {
		_ = c.Error(apperrors.ValidationError("invalid request",
			apperrors.Detail{Field: "amount", Message: "must be positive"}))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/fail", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	var body struct {
		Code    string              `json:"code"`
		Details []apperrors.Detail `json:"details"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(body.Details) != 1 || body.Details[0].Field != "amount" {
		t.Errorf("details = %+v, want one entry for field amount", body.Details)
	}
}

func TestErrorHandler_IncludesTraceID(t *testing.T) {
	router := gin.New()
	router.Use(RequestID(), ErrorHandler())
	router.GET("/fail", func(c *gin.Context) {
		_ = c.Error(apperrors.NotFoundError("expense not found"))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/fail", nil)
	router.ServeHTTP(w, req)

	headerTraceID := w.Header().Get(RequestIDHeader)
	if headerTraceID == "" {
		t.Fatal("response missing X-Trace-Id header")
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["traceId"] != headerTraceID {
		t.Errorf("traceId = %q, want %q (from %s header)", body["traceId"], headerTraceID, RequestIDHeader)
	}
}

func TestErrorHandler_GenericError(t *testing.T) {
	router := gin.New()
	router.Use(ErrorHandler())
	router.GET("/err", func(c *gin.Context) {
		_ = c.Error(fmt.Errorf("something unexpected"))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/err", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["code"] != "INTERNAL_ERROR" {
		t.Errorf("code = %q, want INTERNAL_ERROR", body["code"])
	}
}
