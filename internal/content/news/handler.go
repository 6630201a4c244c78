package news

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/irrigo/irrigo/internal/platform/httpx"
)

// Handler exposes the news endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountPublic registers routes under /api/news. The {key} segment is the slug
// when reading and the numeric id when counting.
func (h *Handler) MountPublic(r chi.Router) {
	r.Get("/", h.list(true))
	r.Route("/{key}", func(r chi.Router) {
		r.Get("/", h.showBySlug)
		r.Post("/view", h.counter(h.service.RecordView, "views"))
		r.Post("/like", h.counter(h.service.Like, "likes"))
	})
}

// MountAdmin registers routes under /admin/api/news.
func (h *Handler) MountAdmin(r chi.Router) {
	r.Get("/", h.list(false))
	r.Post("/", h.create)
	r.Get("/{id}", h.show)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

func (h *Handler) list(publishedOnly bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, meta, err := h.service.List(r.Context(), Filter{
			Search:        r.URL.Query().Get("search"),
			PublishedOnly: publishedOnly,
			Page:          httpx.QueryInt(r, "page", 1),
			PerPage:       httpx.QueryInt(r, "per_page", 0),
		})
		if err != nil {
			h.logger.Error("list news", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, httpx.ListResponse[Article]{Items: items, Pagination: meta})
	}
}

func (h *Handler) showBySlug(w http.ResponseWriter, r *http.Request) {
	article, err := h.service.GetBySlug(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, article)
}

func (h *Handler) counter(inc func(ctx context.Context, id int64) (int64, error), field string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := httpx.IDParam(r, "key")
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		value, err := inc(r.Context(), id)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]int64{"id": id, field: value})
	}
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	article, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, article)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var input Input
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	article, err := h.service.Create(r.Context(), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("article created", slog.Int64("article_id", article.ID), slog.String("slug", article.Slug))
	httpx.JSON(w, http.StatusCreated, article)
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
	article, err := h.service.Update(r.Context(), id, input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, article)
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
	httpx.NoContent(w)
}
