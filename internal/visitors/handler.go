package visitors

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/irrigo/irrigo/internal/platform/httpx"
)

// CookieName holds the anonymous visitor id.
const CookieName = "irrigo_vid"

const cookieMaxAge = 365 * 24 * time.Hour

// Handler exposes visit tracking and statistics.
type Handler struct {
	logger  *slog.Logger
	service *Service
	secure  bool
}

// NewHandler constructs a Handler. secure marks the visitor cookie Secure.
func NewHandler(logger *slog.Logger, service *Service, secure bool) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, secure: secure}
}

// MountPublic registers POST /visits.
func (h *Handler) MountPublic(r chi.Router) {
	r.Post("/visits", h.track)
}

// MountAdmin registers GET /visitors/stats.
func (h *Handler) MountAdmin(r chi.Router) {
	r.Get("/visitors/stats", h.stats)
}

type trackRequest struct {
	Path     string `json:"path"`
	Referrer string `json:"referrer"`
}

func (h *Handler) track(w http.ResponseWriter, r *http.Request) {
	var req trackRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	visitorID := h.visitorID(w, r)
	_, err := h.service.Track(r.Context(), Hit{
		VisitorID: visitorID,
		Path:      req.Path,
		Referrer:  req.Referrer,
		UserAgent: r.UserAgent(),
		IP:        clientIP(r),
	})
	if err != nil {
		h.logger.Warn("track visit", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]string{"visitor_id": visitorID.String()})
}

// visitorID reads the visitor cookie, issuing a new id when it is missing or malformed.
func (h *Handler) visitorID(w http.ResponseWriter, r *http.Request) uuid.UUID {
	if c, err := r.Cookie(CookieName); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id
		}
	}
	id := uuid.New()
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id.String(),
		Path:     "/",
		MaxAge:   int(cookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context(), httpx.QueryInt(r, "days", defaultStatsDays))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}
