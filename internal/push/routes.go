package push

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// SendResponse is returned by the test fan-out endpoint.
type SendResponse struct {
	Message string  `json:"message"`
	Report  *Report `json:"report,omitempty"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type unsubscribeRequest struct {
	Endpoint string `json:"endpoint"`
}

// RegisterRoutes mounts the push endpoints. dispatcher may be nil when VAPID
// keys are not configured; the fan-out endpoint then answers 500.
func RegisterRoutes(r chi.Router, store Store, dispatcher *Dispatcher, publicKey string, log zerolog.Logger) {
	r.Post("/api/subscribe", handleSubscribe(store, log))
	r.Post("/api/unsubscribe", handleUnsubscribe(store, log))
	r.Post("/api/send-test-notification", handleSendTest(store, dispatcher, log))
	r.Get("/api/push/public-key", handlePublicKey(publicKey))
}

func handleSubscribe(store Store, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var sub Subscription
		if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid subscription object received."})
			return
		}
		if err := sub.Validate(); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid subscription object received.", Details: err.Error()})
			return
		}

		log.Info().Str("endpoint", shortEndpoint(sub.Endpoint)).Msg("received subscription")

		if err := store.Add(r.Context(), sub); err != nil {
			log.Error().Err(err).Msg("saving subscription")
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to save subscription.", Details: err.Error()})
			return
		}

		writeJSON(w, http.StatusCreated, SendResponse{Message: "Subscription received and stored successfully."})
	}
}

func handleUnsubscribe(store Store, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req unsubscribeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Endpoint == "" {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "endpoint is required"})
			return
		}
		if err := store.Remove(r.Context(), req.Endpoint); err != nil {
			log.Error().Err(err).Msg("removing subscription")
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to remove subscription.", Details: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, SendResponse{Message: "Subscription removed."})
	}
}

func handleSendTest(store Store, dispatcher *Dispatcher, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if dispatcher == nil {
			log.Error().Msg("VAPID keys are not set; configure push.vapid_public_key, push.vapid_private_key and push.subject")
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "VAPID keys not configured on server."})
			return
		}

		subs, err := store.List(r.Context())
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to load subscriptions.", Details: err.Error()})
			return
		}
		if len(subs) == 0 {
			writeJSON(w, http.StatusOK, SendResponse{Message: "No subscriptions to send notifications to."})
			return
		}

		report, err := dispatcher.FanOut(r.Context(), DemoPayload, nil)
		if err != nil {
			log.Error().Err(err).Msg("processing notifications")
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to send some notifications. See server logs."})
			return
		}

		writeJSON(w, http.StatusOK, SendResponse{
			Message: fmt.Sprintf("Notifications processed. Initial: %d, Remaining: %d. Check server logs for details.", report.Attempted, report.Remaining),
			Report:  &report,
		})
	}
}

func handlePublicKey(publicKey string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if publicKey == "" {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "push notifications are not configured"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"public_key": publicKey})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
