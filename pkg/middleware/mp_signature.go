package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	"turnolibre/pkg/logger"
)

// MercadoPagoSignatureVerification validates the x-signature header sent
// with MercadoPago webhook notifications. The signed manifest is
// "id:<data.id>;request-id:<x-request-id>;ts:<ts>;" keyed with the webhook
// secret. When no secret is configured the middleware is not mounted at all,
// so a missing or bad header here is always a rejection.
func MercadoPagoSignatureVerification(secret string, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ts, v1, ok := parseSignatureHeader(r.Header.Get("x-signature"))
			if !ok {
				logAndReject(w, log, r, "Missing or malformed x-signature header")
				return
			}

			dataID := r.URL.Query().Get("data.id")
			if dataID == "" {
				dataID = r.URL.Query().Get("id")
			}

			manifest := fmt.Sprintf("id:%s;request-id:%s;ts:%s;",
				strings.ToLower(dataID), r.Header.Get("x-request-id"), ts)

			if !verifySignature([]byte(manifest), v1, secret) {
				logAndReject(w, log, r, "Invalid webhook signature")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func parseSignatureHeader(header string) (ts, v1 string, ok bool) {
	if header == "" {
		return "", "", false
	}

	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "ts":
			ts = value
		case "v1":
			v1 = value
		}
	}

	return ts, v1, ts != "" && v1 != ""
}

func verifySignature(payload []byte, receivedSignature string, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(receivedSignature))
}

func logAndReject(w http.ResponseWriter, log *logger.Logger, r *http.Request, reason string) {
	log.Warn("Webhook verification failed",
		"request_id", RequestID(r),
		"reason", reason,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr,
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"Unauthorized"}`))
}
