package catalog

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(repo *mockRepository) http.Handler {
	h := NewHandler(nil, NewService(repo, nil, nil))
	r := chi.NewRouter()
	r.Route("/api/products", h.MountPublic)
	r.Route("/admin/api/products", h.MountAdmin)
	return r
}

func TestPublicListQueryParameters(t *testing.T) {
	router := newTestRouter(newMockRepository(fixtureProducts()...))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products?sort=price_desc&per_page=2&in_stock=true", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Items []Product `json:"items"`
		Pagination struct {
			Total      int `json:"total"`
			TotalPages int `json:"total_pages"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"rain-gun", "drip-line-16mm"}, slugs(body.Items))
	assert.Equal(t, 3, body.Pagination.Total)
	assert.Equal(t, 2, body.Pagination.TotalPages)
}

func TestPublicShowBySlug(t *testing.T) {
	router := newTestRouter(newMockRepository(fixtureProducts()...))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products/drip-line-16mm", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"500 m"`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products/old-valve", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminCRUD(t *testing.T) {
	router := newTestRouter(newMockRepository(fixtureProducts()...))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/api/products",
		strings.NewReader(`{"slug":"rain-gun","name":"Copy","category":"sprinkler"}`)))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/admin/api/products/4",
		strings.NewReader(`{"slug":"tap-timer","name":"Tap Timer","category":"controller","price":"2500","is_active":false}`)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"is_active":false`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/admin/api/products/4", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/api/products/4", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
