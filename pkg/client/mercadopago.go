package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	apperrors "turnolibre/pkg/errors"
)

const (
	PaymentStatusApproved = "approved"
	PaymentStatusRejected = "rejected"
	PaymentStatusPending  = "pending"
)

// MercadoPago is a thin REST client for the two endpoints the platform
// needs: payment lookup during webhook reconciliation and checkout
// preference creation. The access token is passed per call because clubs
// collect online payments with their own credentials.
type MercadoPago struct {
	http *HttpClient
}

func NewMercadoPago(baseURL string) *MercadoPago {
	return &MercadoPago{http: NewHttpClient(baseURL)}
}

type Payment struct {
	ID                int64   `json:"id"`
	Status            string  `json:"status"`
	ExternalReference string  `json:"external_reference"`
	PaymentMethodID   string  `json:"payment_method_id"`
	TransactionAmount float64 `json:"transaction_amount"`
}

func (mp *MercadoPago) FetchPayment(ctx context.Context, accessToken, paymentID string) (*Payment, error) {
	resp, err := mp.http.GET(ctx, "/v1/payments/"+url.PathEscape(paymentID), bearer(accessToken))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeUnavailable, "Failed to fetch payment", http.StatusBadGateway)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, apperrors.NotFoundWithID("Payment", paymentID)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.New(apperrors.CodeUnavailable,
			fmt.Sprintf("Payment lookup returned status %d", resp.StatusCode), http.StatusBadGateway)
	}

	var payment Payment
	if err := resp.DecodeJSON(&payment); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "Failed to decode payment", http.StatusBadGateway)
	}
	return &payment, nil
}

type PreferenceItem struct {
	Title     string  `json:"title"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

type PreferenceRequest struct {
	Items             []PreferenceItem `json:"items"`
	ExternalReference string           `json:"external_reference"`
	BackURLs          *BackURLs        `json:"back_urls,omitempty"`
	AutoReturn        string           `json:"auto_return,omitempty"`
	NotificationURL   string           `json:"notification_url,omitempty"`
}

type BackURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

type Preference struct {
	ID        string `json:"id"`
	InitPoint string `json:"init_point"`
}

func (mp *MercadoPago) CreatePreference(ctx context.Context, accessToken string, req *PreferenceRequest) (*Preference, error) {
	resp, err := mp.http.POST(ctx, "/checkout/preferences", req, bearer(accessToken))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeUnavailable, "Failed to create checkout preference", http.StatusBadGateway)
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, apperrors.New(apperrors.CodeUnavailable,
			fmt.Sprintf("Preference creation returned status %d: %s", resp.StatusCode, GetErrorMessage(resp)),
			http.StatusBadGateway)
	}

	var pref Preference
	if err := resp.DecodeJSON(&pref); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "Failed to decode preference", http.StatusBadGateway)
	}
	return &pref, nil
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}
