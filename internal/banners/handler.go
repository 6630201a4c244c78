package banners

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/irrigo/irrigo/internal/platform/httpx"
)

// Handler exposes the banner endpoints.
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

// MountPublic registers routes under /api/banners.
func (h *Handler) MountPublic(r chi.Router) {
	r.Get("/", h.live)
	r.Get("/current", h.current)
}

// MountAdmin registers routes under /admin/api/banners.
func (h *Handler) MountAdmin(r chi.Router) {
	r.Get("/", h.all)
	r.Post("/", h.create)
	r.Get("/rotation", h.current)
	r.Post("/rotation/{action}", h.rotate)
	r.Get("/{id}", h.show)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

func (h *Handler) live(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.Live(r.Context())
	if err != nil {
		h.logger.Error("list live banners", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) current(w http.ResponseWriter, r *http.Request) {
	rotator := h.service.Rotator()
	if rotator == nil {
		httpx.JSON(w, http.StatusOK, State{})
		return
	}
	httpx.JSON(w, http.StatusOK, rotator.State())
}

func (h *Handler) rotate(w http.ResponseWriter, r *http.Request) {
	rotator := h.service.Rotator()
	if rotator == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Unavailable", "banner rotation is not running")
		return
	}
	var state State
	switch chi.URLParam(r, "action") {
	case "pause":
		state = rotator.Pause()
	case "resume":
		state = rotator.Resume()
	case "next":
		state = rotator.Next()
	case "prev":
		state = rotator.Prev()
	case "reload":
		rotator.Reload(r.Context())
		state = rotator.State()
	default:
		httpx.Problem(w, http.StatusNotFound, "Not Found", "unknown rotation action")
		return
	}
	httpx.JSON(w, http.StatusOK, state)
}

func (h *Handler) all(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.All(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	banner, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, banner)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var input Input
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	banner, err := h.service.Create(r.Context(), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, banner)
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
	banner, err := h.service.Update(r.Context(), id, input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, banner)
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
