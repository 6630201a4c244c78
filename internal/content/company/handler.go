package company

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/irrigo/irrigo/internal/platform/httpx"
)

// Handler exposes team and certification endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	now     func() time.Time
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, now: time.Now}
}

// MountPublic registers GET /team and GET /certifications.
func (h *Handler) MountPublic(r chi.Router) {
	r.Get("/team", h.team)
	r.Get("/certifications", h.certifications(true))
}

// MountAdmin registers the management routes.
func (h *Handler) MountAdmin(r chi.Router) {
	r.Route("/team", func(r chi.Router) {
		r.Get("/", h.team)
		r.Post("/", h.saveMember)
		r.Put("/{id}", h.saveMember)
		r.Delete("/{id}", h.deleteMember)
	})
	r.Route("/certifications", func(r chi.Router) {
		r.Get("/", h.certifications(false))
		r.Post("/", h.saveCertification)
		r.Put("/{id}", h.saveCertification)
		r.Delete("/{id}", h.deleteCertification)
	})
}

func (h *Handler) team(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.Team(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

// certifications hides expired entries from the public page.
func (h *Handler) certifications(validOnly bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := h.service.Certifications(r.Context())
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		if validOnly {
			now := h.now()
			kept := items[:0]
			for _, c := range items {
				if c.Valid(now) {
					kept = append(kept, c)
				}
			}
			items = kept
		}
		httpx.JSON(w, http.StatusOK, items)
	}
}

// pathID returns the {id} segment, or zero on the collection route.
func pathID(r *http.Request) (int64, error) {
	if chi.URLParam(r, "id") == "" {
		return 0, nil
	}
	return httpx.IDParam(r, "id")
}

func (h *Handler) saveMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var m TeamMember
	if err := httpx.DecodeJSON(r, &m); err != nil {
		httpx.RespondError(w, err)
		return
	}
	m.ID = id
	saved, err := h.service.SaveMember(r.Context(), m)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	status := http.StatusOK
	if id == 0 {
		status = http.StatusCreated
	}
	httpx.JSON(w, status, saved)
}

func (h *Handler) deleteMember(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteMember(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) saveCertification(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var c Certification
	if err := httpx.DecodeJSON(r, &c); err != nil {
		httpx.RespondError(w, err)
		return
	}
	c.ID = id
	saved, err := h.service.SaveCertification(r.Context(), c)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	status := http.StatusOK
	if id == 0 {
		status = http.StatusCreated
	}
	httpx.JSON(w, status, saved)
}

func (h *Handler) deleteCertification(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteCertification(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}
