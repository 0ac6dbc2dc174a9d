package availability

import (
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	httputil "turnolibre/pkg/http"
	"turnolibre/pkg/logger"
)

type AvailabilityHandler struct {
	service AvailabilityService
	log     *logger.Logger
}

func NewAvailabilityHandler(service AvailabilityService, log *logger.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{
		service: service,
		log:     log,
	}
}

// CourtWeek serves the reconciled weekly grid for one court. The optional
// "fecha" query parameter anchors the week; it defaults to the current one.
func (h *AvailabilityHandler) CourtWeek(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	refDate := strings.TrimSpace(r.URL.Query().Get("fecha"))

	slots, err := h.service.CourtWeek(r.Context(), id, refDate)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, slots)
}

func (h *AvailabilityHandler) ClubWeek(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	email := ps.ByName("email")
	refDate := strings.TrimSpace(r.URL.Query().Get("fecha"))

	slots, err := h.service.ClubWeek(r.Context(), email, refDate)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, slots)
}

func (h *AvailabilityHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/disponibilidad/cancha/:id", h.CourtWeek)
	router.GET("/api/v1/disponibilidad/club/:email", h.ClubWeek)
}
