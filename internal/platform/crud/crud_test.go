package crud

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civic-connect/backend/internal/db"
	"civic-connect/backend/internal/listing"
	"civic-connect/backend/internal/platform/apperr"
	"civic-connect/backend/internal/platform/response"
	"civic-connect/backend/internal/server/middleware"
)

type item struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type createItem struct {
	Title string `json:"title"`
}

func (c *createItem) Validate() error {
	if c.Title == "" {
		return apperr.Validation("Missing required fields: title")
	}
	return nil
}

type updateItem struct {
	Title *string `json:"title"`
}

type memRepo struct {
	items    map[string]item
	gotActor string
	err      error
}

func (m *memRepo) List(_ context.Context, _ listing.Filter, p listing.Params) (*listing.Page[item], error) {
	rows := []item{}
	for _, it := range m.items {
		rows = append(rows, it)
	}
	return &listing.Page[item]{Rows: rows, Pagination: listing.NewPagination(p, int64(len(rows)))}, m.err
}

func (m *memRepo) Get(_ context.Context, id string) (*item, error) {
	if it, ok := m.items[id]; ok {
		return &it, nil
	}
	return nil, m.err
}

func (m *memRepo) Create(_ context.Context, actorID string, in createItem) (*item, error) {
	m.gotActor = actorID
	it := item{ID: "i2", Title: in.Title}
	m.items[it.ID] = it
	return &it, nil
}

func (m *memRepo) Update(_ context.Context, actorID, id string, in updateItem) (*item, error) {
	m.gotActor = actorID
	if in.Title == nil {
		return nil, db.ErrNoFields
	}
	it, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	it.Title = *in.Title
	m.items[id] = it
	return &it, nil
}

func (m *memRepo) Delete(_ context.Context, id string) (bool, error) {
	_, ok := m.items[id]
	delete(m.items, id)
	return ok, nil
}

var itemSpec = listing.Spec{
	Select:  "id, title",
	From:    "items",
	Fields:  []listing.Field{{Param: "status", Column: "status"}},
	OrderBy: "id",
}

func newRouter(repo *memRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(response.ErrorHandler(nil, false))
	r.Use(func(c *gin.Context) {
		c.Request = c.Request.WithContext(middleware.WithIdentity(c.Request.Context(), "u-staff", "staff"))
	})
	NewHandler[item, createItem, updateItem](repo, itemSpec, "Widget").Register(r.Group("/api/widgets"))
	return r
}

func do(r http.Handler, method, path, body string) (int, response.Envelope) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var env response.Envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w.Code, env
}

func TestLifecycle(t *testing.T) {
	repo := &memRepo{items: map[string]item{"i1": {ID: "i1", Title: "First"}}}
	r := newRouter(repo)

	code, env := do(r, http.MethodPost, "/api/widgets", `{"title":"Second"}`)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "Widget created successfully", env.Message)
	assert.Equal(t, "u-staff", repo.gotActor)

	code, env = do(r, http.MethodGet, "/api/widgets?page=1&limit=10", "")
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, int64(2), env.Pagination.Total)

	code, env = do(r, http.MethodPut, "/api/widgets/i1", `{"title":"Renamed"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Widget updated successfully", env.Message)
	assert.Equal(t, "Renamed", repo.items["i1"].Title)

	code, env = do(r, http.MethodDelete, "/api/widgets/i1", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Widget deleted successfully", env.Message)

	code, env = do(r, http.MethodGet, "/api/widgets/i1", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Widget not found", env.Message)
}

func TestErrors(t *testing.T) {
	repo := &memRepo{items: map[string]item{"i1": {ID: "i1"}}}
	r := newRouter(repo)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		msg    string
	}{
		{"create validation", http.MethodPost, "/api/widgets", `{}`, http.StatusBadRequest, "Missing required fields: title"},
		{"malformed body", http.MethodPost, "/api/widgets", `{"title":`, http.StatusBadRequest, "Invalid request body"},
		{"empty update", http.MethodPut, "/api/widgets/i1", `{}`, http.StatusBadRequest, "No fields to update"},
		{"update missing", http.MethodPut, "/api/widgets/nope", `{"title":"x"}`, http.StatusNotFound, "Widget not found"},
		{"delete missing", http.MethodDelete, "/api/widgets/nope", "", http.StatusNotFound, "Widget not found"},
		{"bad page", http.MethodGet, "/api/widgets?page=two", "", http.StatusBadRequest, "page must be a number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := do(r, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, code)
			assert.Equal(t, tt.msg, env.Message)
		})
	}
}

func TestStoreFailure(t *testing.T) {
	repo := &memRepo{items: map[string]item{}, err: errors.New("connection refused")}
	code, env := do(newRouter(repo), http.MethodGet, "/api/widgets", "")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "Internal server error", env.Message)
}
