package quotes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/irrigo/irrigo/internal/observability"
)

type stubPDF struct {
	html []byte
	err  error
}

func (s *stubPDF) RenderHTML(ctx context.Context, html []byte) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.html = html
	return []byte("%PDF-1.7 stub"), nil
}

type handlerFixture struct {
	router  http.Handler
	repo    *mockRepository
	pdf     *stubPDF
	mailer  *recordingMailer
	metrics *observability.Metrics
}

func newHandlerFixture(t *testing.T) handlerFixture {
	t.Helper()
	f := handlerFixture{
		repo:    newMockRepository(),
		pdf:     &stubPDF{},
		mailer:  &recordingMailer{},
		metrics: observability.NewMetrics(),
	}
	svc := NewService(f.repo, testCustomers, Options{
		DefaultVATRate: decimal.NewFromInt(16),
		Company:        Company{Name: "Irrigo Irrigation Ltd"},
		Documents:      newTestDocuments(t),
		PDF:            f.pdf,
		Mailer:         f.mailer,
		Now:            func() time.Time { return fixedNow },
	})
	r := chi.NewRouter()
	r.Route("/quotes", NewHandler(nil, svc, f.metrics).MountRoutes)
	f.router = r
	return f
}

func (f handlerFixture) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

const createBody = `{"customer_id":1,"title":"Drip kit","items":[
	{"description":"16mm drip line roll","quantity":"2","unit_price":"100"},
	{"description":"Screen filter","quantity":1,"unit_price":50}]}`

func TestHandlerCreateReturnsTotalsAndLines(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.do(http.MethodPost, "/quotes/", createBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body struct {
		Number   string          `json:"number"`
		Status   Status          `json:"status"`
		Subtotal decimal.Decimal `json:"subtotal"`
		Tax      decimal.Decimal `json:"tax"`
		Total    decimal.Decimal `json:"total"`
		Lines    []LineTotal     `json:"lines"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "QT-2603-0001", body.Number)
	assert.Equal(t, StatusDraft, body.Status)
	assertDecimal(t, "250", body.Subtotal)
	assertDecimal(t, "40", body.Tax)
	assertDecimal(t, "290", body.Total)
	require.Len(t, body.Lines, 2)
	assertDecimal(t, "200", body.Lines[0].Net)
}

func TestHandlerCreateValidation(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.do(http.MethodPost, "/quotes/", `{"items":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"items"`)

	rec = f.do(http.MethodPost, "/quotes/", `{"items":[{"description":"x","quantity":1,"unit_price":1}],"discount":5}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerStatusLifecycle(t *testing.T) {
	f := newHandlerFixture(t)
	require.Equal(t, http.StatusCreated, f.do(http.MethodPost, "/quotes/", createBody).Code)

	rec := f.do(http.MethodPost, "/quotes/1/status", `{"status":"accepted"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(http.MethodPost, "/quotes/1/status", `{"status":"sent"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(http.MethodPut, "/quotes/1", createBody)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(http.MethodPost, "/quotes/1/status", `{"status":"paid"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodGet, "/quotes/99", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerSendAndDuplicate(t *testing.T) {
	f := newHandlerFixture(t)
	require.Equal(t, http.StatusCreated, f.do(http.MethodPost, "/quotes/", createBody).Code)

	rec := f.do(http.MethodPost, "/quotes/1/send", "")
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"orders@kamau.example"}, f.mailer.sent)

	rec = f.do(http.MethodPost, "/quotes/1/duplicate", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"number":"QT-2603-0002"`)
	assert.Contains(t, rec.Body.String(), `"status":"draft"`)

	f.mailer.err = errors.New("redis down")
	rec = f.do(http.MethodPost, "/quotes/1/send", `{"to":"buyer@example.com"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandlerDocumentAndPDF(t *testing.T) {
	f := newHandlerFixture(t)
	require.Equal(t, http.StatusCreated, f.do(http.MethodPost, "/quotes/", createBody).Code)

	rec := f.do(http.MethodGet, "/quotes/1/document", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "KES 290.00")

	rec = f.do(http.MethodGet, "/quotes/1/pdf", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "QT-2603-0001.pdf")
	assert.Equal(t, "%PDF-1.7 stub", rec.Body.String())
	assert.Contains(t, string(f.pdf.html), "KES 290.00")

	f.pdf.err = errors.New("gotenberg unavailable")
	rec = f.do(http.MethodGet, "/quotes/1/pdf", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	scrape := httptest.NewRecorder()
	f.metrics.Handler().ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, scrape.Body.String(), `irrigo_quote_documents_total{format="html"} 1`)
	assert.Contains(t, scrape.Body.String(), `irrigo_quote_documents_total{format="pdf"} 1`)
}

func TestHandlerExportAndList(t *testing.T) {
	f := newHandlerFixture(t)
	require.Equal(t, http.StatusCreated, f.do(http.MethodPost, "/quotes/", createBody).Code)
	require.Equal(t, http.StatusCreated, f.do(http.MethodPost, "/quotes/", createBody).Code)

	rec := f.do(http.MethodGet, "/quotes/?per_page=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Items      []Quote `json:"items"`
		Pagination struct {
			Total      int `json:"total"`
			TotalPages int `json:"total_pages"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list.Items, 1)
	assert.Equal(t, 2, list.Pagination.Total)
	assert.Equal(t, 2, list.Pagination.TotalPages)

	rec = f.do(http.MethodGet, "/quotes/?from=03-2026", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodGet, "/quotes/export.xlsx", "")
	require.Equal(t, http.StatusOK, rec.Code)
	book, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer book.Close()
	rows, err := book.GetRows("Quotes")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Number", rows[0][0])
}
