package videos

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/irrigo/irrigo/internal/platform/httpx"
)

// Handler exposes the video endpoints.
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

// MountPublic registers routes under /api/videos.
func (h *Handler) MountPublic(r chi.Router) {
	r.Get("/", h.list(true))
	r.Get("/{id}", h.show(true))
	r.Post("/{id}/view", h.view)
	r.Post("/{id}/like", h.like)
}

// MountAdmin registers routes under /admin/api/videos.
func (h *Handler) MountAdmin(r chi.Router) {
	r.Get("/", h.list(false))
	r.Post("/", h.create)
	r.Get("/{id}", h.show(false))
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

type counterResponse struct {
	ID    int64 `json:"id"`
	Views int64 `json:"views,omitempty"`
	Likes int64 `json:"likes,omitempty"`
}

func (h *Handler) list(publishedOnly bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, meta, err := h.service.List(r.Context(), Filter{
			Category:      r.URL.Query().Get("category"),
			PublishedOnly: publishedOnly,
			Page:          httpx.QueryInt(r, "page", 1),
			PerPage:       httpx.QueryInt(r, "per_page", 0),
		})
		if err != nil {
			h.logger.Error("list videos", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, httpx.ListResponse[Video]{Items: items, Pagination: meta})
	}
}

func (h *Handler) show(publishedOnly bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := httpx.IDParam(r, "id")
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		video, err := h.service.Get(r.Context(), id, publishedOnly)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, video)
	}
}

func (h *Handler) view(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	views, err := h.service.RecordView(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, counterResponse{ID: id, Views: views})
}

func (h *Handler) like(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	likes, err := h.service.Like(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, counterResponse{ID: id, Likes: likes})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var input Input
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	video, err := h.service.Create(r.Context(), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("video created", slog.Int64("video_id", video.ID))
	httpx.JSON(w, http.StatusCreated, video)
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
	video, err := h.service.Update(r.Context(), id, input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, video)
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
