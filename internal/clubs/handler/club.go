package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"turnolibre/internal/clubs/repository"
	"turnolibre/internal/clubs/service"
	httputil "turnolibre/pkg/http"
	"turnolibre/pkg/logger"
	"turnolibre/pkg/model"
)

type ClubHandler struct {
	service service.ClubService
	log     *logger.Logger
}

func NewClubHandler(service service.ClubService, log *logger.Logger) *ClubHandler {
	return &ClubHandler{
		service: service,
		log:     log,
	}
}

func (h *ClubHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var club model.Club
	if err := json.NewDecoder(r.Body).Decode(&club); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}

	if err := h.service.Create(r.Context(), &club); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteCreated(w, club)
}

func (h *ClubHandler) GetByEmail(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	email := ps.ByName("email")
	if email == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Email parameter is required",
		})
		return
	}

	club, err := h.service.GetByEmail(r.Context(), email)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, club)
}

func (h *ClubHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()

	clubs, err := h.service.List(r.Context(), repository.ListFilter{
		Province: query.Get("provincia"),
		Locality: query.Get("localidad"),
		Name:     query.Get("nombre"),
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, clubs)
}

func (h *ClubHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	email := ps.ByName("email")
	if email == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Email parameter is required",
		})
		return
	}

	var updates model.ClubUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}

	if err := h.service.Update(r.Context(), email, &updates); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteNoContent(w)
}

type credentialRequest struct {
	AccessToken string `json:"accessToken"`
}

func (h *ClubHandler) SetCredential(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	email := ps.ByName("email")
	if email == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Email parameter is required",
		})
		return
	}

	var req credentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}

	if err := h.service.SetMPCredential(r.Context(), email, req.AccessToken); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteNoContent(w)
}

type featuredCheckoutResponse struct {
	CheckoutURL string `json:"checkoutUrl"`
}

func (h *ClubHandler) FeaturedCheckout(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	email := ps.ByName("email")
	if email == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Email parameter is required",
		})
		return
	}

	checkoutURL, err := h.service.FeaturedCheckout(r.Context(), email)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, featuredCheckoutResponse{CheckoutURL: checkoutURL})
}

func (h *ClubHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/clubs", h.Create)
	router.GET("/api/v1/clubs", h.List)
	router.GET("/api/v1/clubs/email/:email", h.GetByEmail)
	router.PATCH("/api/v1/clubs/email/:email", h.Update)
	router.PUT("/api/v1/clubs/email/:email/credencial", h.SetCredential)
	router.POST("/api/v1/clubs/email/:email/destacar", h.FeaturedCheckout)
}
