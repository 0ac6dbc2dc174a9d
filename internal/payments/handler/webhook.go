package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"turnolibre/internal/payments/service"
	httputil "turnolibre/pkg/http"
	"turnolibre/pkg/logger"
)

type WebhookHandler struct {
	service service.PaymentService
	log     *logger.Logger
}

func NewWebhookHandler(service service.PaymentService, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		service: service,
		log:     log,
	}
}

// webhookBody is the subset of the processor's notification payload the
// engine needs; the payment id may arrive nested or top-level.
type webhookBody struct {
	ID   json.Number `json:"id"`
	Data struct {
		ID json.Number `json:"id"`
	} `json:"data"`
}

// extractPaymentID pulls the payment id from the query string ("id" or
// "data.id") or the JSON body. Empty means the delivery is malformed or
// irrelevant and must be acknowledged without processing.
func extractPaymentID(r *http.Request) string {
	query := r.URL.Query()
	if id := query.Get("data.id"); id != "" {
		return id
	}
	if id := query.Get("id"); id != "" {
		return id
	}

	var body webhookBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return ""
	}
	if id := body.Data.ID.String(); id != "" {
		return id
	}
	return body.ID.String()
}

func (h *WebhookHandler) BookingPayment(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	paymentID := extractPaymentID(r)
	if paymentID == "" {
		h.log.Warn("Webhook without payment id acknowledged", "path", r.URL.Path)
		httputil.WriteSuccess(w, nil)
		return
	}

	clubEmail := ps.ByName("email")
	if err := h.service.ReconcileBooking(r.Context(), clubEmail, paymentID); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, nil)
}

func (h *WebhookHandler) FeaturedPayment(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	paymentID := extractPaymentID(r)
	if paymentID == "" {
		h.log.Warn("Webhook without payment id acknowledged", "path", r.URL.Path)
		httputil.WriteSuccess(w, nil)
		return
	}

	if err := h.service.ReconcileFeatured(r.Context(), paymentID); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, nil)
}

func (h *WebhookHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/pagos/webhook/turnos/:email", h.BookingPayment)
	router.POST("/api/v1/pagos/webhook/destacados", h.FeaturedPayment)
}
