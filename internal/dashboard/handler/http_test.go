package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"civic-connect/backend/internal/dashboard/domain"
	"civic-connect/backend/internal/platform/response"
)

type stubRepo struct {
	stats *domain.Stats
	err   error
}

func (s stubRepo) Stats(context.Context) (*domain.Stats, error) { return s.stats, s.err }

func get(repo stubRepo) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(response.ErrorHandler(nil, false))
	NewHandler(repo).Register(r.Group("/api/dashboard"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/dashboard/stats", nil))
	return w
}

func TestStats(t *testing.T) {
	w := get(stubRepo{stats: &domain.Stats{Summary: domain.Summary{TotalComplaints: 3}}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"totalComplaints":3`)
}

func TestStats_StoreFailure(t *testing.T) {
	w := get(stubRepo{err: errors.New("connection refused")})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}
