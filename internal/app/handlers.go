package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/KRTNP/line-fire-alert-system/internal/domain"
	"github.com/KRTNP/line-fire-alert-system/internal/line"
)

// alertAPI is the operator surface into the dispatch core.
type alertAPI interface {
	CreateAlert(ctx context.Context, in domain.NewAlert) (*domain.Alert, error)
	ActiveAlerts(ctx context.Context) ([]domain.Alert, error)
}

// eventRouter consumes one parsed webhook batch.
type eventRouter interface {
	HandleEvents(ctx context.Context, events []domain.Event)
}

// newMux wires the HTTP surface: webhook ingress, operator alert API and
// health check.
func newMux(log *zap.Logger, channelSecret string, router eventRouter, alerts alertAPI) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	mux.HandleFunc("/webhook", webhookHandler(log, channelSecret, router))
	mux.HandleFunc("/alerts", alertsHandler(log, alerts))
	return mux
}

// webhookHandler verifies the delivery signature, parses the event batch
// and hands it to the router. Handling errors are contained inside the
// router, so a parseable, authentic delivery always gets a 200.
func webhookHandler(log *zap.Logger, channelSecret string, router eventRouter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		events, err := line.ParseRequest(channelSecret, r)
		if err != nil {
			if errors.Is(err, line.ErrInvalidSignature) {
				log.Warn("webhook signature mismatch", zap.String("remote", r.RemoteAddr))
				http.Error(w, "invalid signature", http.StatusUnauthorized)
				return
			}
			log.Warn("webhook parse failed", zap.Error(err))
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}

		router.HandleEvents(r.Context(), events)
		w.WriteHeader(http.StatusOK)
	}
}

// alertsHandler exposes the dispatch core to operators:
// POST creates an alert, GET lists the active ones.
func alertsHandler(log *zap.Logger, alerts alertAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			var in domain.NewAlert
			if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
				http.Error(w, "invalid request body", http.StatusBadRequest)
				return
			}
			alert, err := alerts.CreateAlert(r.Context(), in)
			if err != nil {
				if domain.IsValidation(err) {
					http.Error(w, err.Error(), http.StatusBadRequest)
					return
				}
				log.Error("create alert failed", zap.Error(err))
				http.Error(w, "failed to create alert", http.StatusInternalServerError)
				return
			}
			writeJSON(w, http.StatusCreated, alert)

		case http.MethodGet:
			list, err := alerts.ActiveAlerts(r.Context())
			if err != nil {
				log.Error("list alerts failed", zap.Error(err))
				http.Error(w, "failed to list alerts", http.StatusInternalServerError)
				return
			}
			if list == nil {
				list = []domain.Alert{}
			}
			writeJSON(w, http.StatusOK, list)

		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// writeJSON writes the value as JSON with appropriate headers.
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}
