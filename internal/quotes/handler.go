package quotes

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/irrigo/irrigo/internal/observability"
	"github.com/irrigo/irrigo/internal/platform/httpx"
	"github.com/irrigo/irrigo/internal/platform/sheet"
)

// Handler exposes the admin quote endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	metrics *observability.Metrics
}

// NewHandler constructs a Handler. metrics may be nil.
func NewHandler(logger *slog.Logger, service *Service, metrics *observability.Metrics) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, metrics: metrics}
}

// MountRoutes registers routes under /quotes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/stats", h.stats)
	r.Get("/export.xlsx", h.export)
	r.Post("/expire", h.expire)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.show)
		r.Put("/", h.update)
		r.Delete("/", h.delete)
		r.Post("/status", h.changeStatus)
		r.Post("/duplicate", h.duplicate)
		r.Post("/send", h.send)
		r.Get("/document", h.document)
		r.Get("/pdf", h.pdf)
	})
}

type quoteResponse struct {
	*Quote
	Lines []LineTotal `json:"lines"`
}

func (h *Handler) respondQuote(w http.ResponseWriter, status int, q *Quote) {
	httpx.JSON(w, status, quoteResponse{Quote: q, Lines: h.service.Totals(q).Lines})
}

func parseFilter(r *http.Request) (ListFilter, error) {
	q := r.URL.Query()
	filter := ListFilter{
		Status:  Status(q.Get("status")),
		Search:  q.Get("search"),
		Page:    httpx.QueryInt(r, "page", 1),
		PerPage: httpx.QueryInt(r, "per_page", 0),
	}
	if raw := q.Get("customer_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return ListFilter{}, fmt.Errorf("%w: invalid customer_id", httpx.ErrBadRequest)
		}
		filter.CustomerID = id
	}
	for name, target := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			return ListFilter{}, fmt.Errorf("%w: %s must be YYYY-MM-DD", httpx.ErrBadRequest, name)
		}
		*target = &parsed
	}
	return filter, nil
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	items, meta, err := h.service.List(r.Context(), filter)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.ListResponse[Quote]{Items: items, Pagination: meta})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	quote, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.respondQuote(w, http.StatusOK, quote)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var input Input
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	quote, err := h.service.Create(r.Context(), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.respondQuote(w, http.StatusCreated, quote)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var input Input
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	quote, err := h.service.Update(r.Context(), id, input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.respondQuote(w, http.StatusOK, quote)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("quote deleted", slog.Int64("quote_id", id))
	httpx.NoContent(w)
}

func (h *Handler) changeStatus(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var body struct {
		Status Status `json:"status"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.RespondError(w, err)
		return
	}
	quote, err := h.service.ChangeStatus(r.Context(), id, body.Status)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.respondQuote(w, http.StatusOK, quote)
}

func (h *Handler) duplicate(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	quote, err := h.service.Duplicate(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("quote duplicated", slog.Int64("source_id", id), slog.Int64("quote_id", quote.ID))
	h.respondQuote(w, http.StatusCreated, quote)
}

func (h *Handler) send(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var body struct {
		To string `json:"to"`
	}
	if r.ContentLength != 0 {
		if err := httpx.DecodeJSON(r, &body); err != nil {
			httpx.RespondError(w, err)
			return
		}
	}
	quote, err := h.service.Send(r.Context(), id, body.To)
	if err != nil {
		h.logger.Warn("send quote", slog.Int64("quote_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, quote)
}

func (h *Handler) expire(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.ExpireOverdue(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int64{"expired": n})
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}

func (h *Handler) document(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	html, _, err := h.service.RenderHTML(r.Context(), id)
	if err != nil {
		h.logger.Error("render quote document", slog.Int64("quote_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.metrics.DocumentRendered("html")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(html)
}

func (h *Handler) pdf(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	pdf, quote, err := h.service.RenderPDF(r.Context(), id)
	if err != nil {
		h.logger.Error("render quote pdf", slog.Int64("quote_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.metrics.DocumentRendered("pdf")
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="%s.pdf"`, quote.Number))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	_, _ = w.Write(pdf)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	items, err := h.service.All(r.Context(), filter)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := ExportXLSX(&buf, items); err != nil {
		h.logger.Error("export quotes", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.metrics.DocumentRendered("xlsx")
	w.Header().Set("Content-Type", sheet.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="quotes.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = w.Write(buf.Bytes())
}
