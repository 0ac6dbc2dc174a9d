package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"turnolibre/internal/courts/service"
	httputil "turnolibre/pkg/http"
	"turnolibre/pkg/logger"
	"turnolibre/pkg/model"
)

type CourtHandler struct {
	service service.CourtService
	log     *logger.Logger
}

func NewCourtHandler(service service.CourtService, log *logger.Logger) *CourtHandler {
	return &CourtHandler{
		service: service,
		log:     log,
	}
}

func (h *CourtHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var court model.Court
	if err := json.NewDecoder(r.Body).Decode(&court); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}

	if err := h.service.Create(r.Context(), &court); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteCreated(w, court)
}

func (h *CourtHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	if id == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "ID parameter is required",
		})
		return
	}

	court, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, court)
}

func (h *CourtHandler) GetByClub(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	email := ps.ByName("email")
	if email == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Email parameter is required",
		})
		return
	}

	courts, err := h.service.GetByClub(r.Context(), email)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, courts)
}

func (h *CourtHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	sport := r.URL.Query().Get("deporte")

	courts, totalCount, err := h.service.GetAll(r.Context(), sport, limit, offset)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WritePaginated(w, courts, totalCount, limit, offset)
}

func (h *CourtHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	if id == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "ID parameter is required",
		})
		return
	}

	var updates model.CourtUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}

	if err := h.service.Update(r.Context(), id, &updates); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *CourtHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	if id == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "ID parameter is required",
		})
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *CourtHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/canchas", h.Create)
	router.GET("/api/v1/canchas", h.GetAll)
	router.GET("/api/v1/canchas/id/:id", h.GetByID)
	router.PATCH("/api/v1/canchas/id/:id", h.Update)
	router.DELETE("/api/v1/canchas/id/:id", h.Delete)
	router.GET("/api/v1/canchas/club/:email", h.GetByClub)
}
