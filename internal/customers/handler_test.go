package customers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/irrigo/irrigo/internal/platform/sheet"
)

func newTestRouter(repo *mockRepository) http.Handler {
	r := chi.NewRouter()
	r.Route("/customers", NewHandler(nil, NewService(repo)).MountRoutes)
	return r
}

func TestHandlerCreateAndShow(t *testing.T) {
	router := newTestRouter(newMockRepository())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/customers/", strings.NewReader(`{"name":"Kamau Farms","region":"Central"}`)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created Customer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, int64(1), created.ID)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/customers/1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Kamau Farms")
}

func TestHandlerRejectsUnknownFieldsAndInvalidInput(t *testing.T) {
	router := newTestRouter(newMockRepository())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/customers/", strings.NewReader(`{"name":"x","vip":true}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/customers/", strings.NewReader(`{"email":"bad"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name"`)
}

func TestHandlerDeleteConflict(t *testing.T) {
	router := newTestRouter(newMockRepository(Customer{ID: 4, Name: "Busy", QuoteCount: 1}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/customers/4", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/customers/abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerExport(t *testing.T) {
	router := newTestRouter(newMockRepository(
		Customer{ID: 1, Name: "Kamau Farms", Region: "Central"},
		Customer{ID: 2, Name: "Rift Growers", Region: "Rift Valley", QuoteCount: 3},
	))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/customers/export.xlsx", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, sheet.ContentType, rec.Header().Get("Content-Type"))

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Customers")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Rift Growers", rows[2][1])
	assert.Equal(t, "3", rows[2][9])
}
