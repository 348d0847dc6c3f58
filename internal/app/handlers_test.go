package app

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/KRTNP/line-fire-alert-system/internal/domain"
	"github.com/KRTNP/line-fire-alert-system/internal/line"
)

type fakeAlertAPI struct {
	created []domain.NewAlert
	listErr error
	list    []domain.Alert
}

func (f *fakeAlertAPI) CreateAlert(_ context.Context, in domain.NewAlert) (*domain.Alert, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	f.created = append(f.created, in)
	return &domain.Alert{
		ID: int64(len(f.created)), Location: in.Location, Description: in.Description,
		Severity: in.Severity, Status: domain.AlertActive,
	}, nil
}

func (f *fakeAlertAPI) ActiveAlerts(context.Context) ([]domain.Alert, error) {
	return f.list, f.listErr
}

type fakeRouter struct {
	mu     sync.Mutex
	events []domain.Event
}

func (f *fakeRouter) HandleEvents(_ context.Context, events []domain.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, events...)
}

const testSecret = "channel-secret"

func sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func newTestMux() (*http.ServeMux, *fakeRouter, *fakeAlertAPI) {
	router := &fakeRouter{}
	alerts := &fakeAlertAPI{}
	return newMux(zap.NewNop(), testSecret, router, alerts), router, alerts
}

func TestHealthEndpoint(t *testing.T) {
	mux, _, _ := newTestMux()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestWebhookDispatchesBatch(t *testing.T) {
	mux, router, _ := newTestMux()

	body := []byte(`{"events":[
		{"type":"follow","replyToken":"r1","source":{"type":"user","userId":"U1"}},
		{"type":"message","replyToken":"r2","source":{"type":"user","userId":"U2"},"message":{"type":"text","text":"menu"}}
	]}`)
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(body))
	req.Header.Set(line.SignatureHeader, sign(body))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(router.events) != 2 {
		t.Errorf("router received %d events, want 2", len(router.events))
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	mux, router, _ := newTestMux()

	body := []byte(`{"events":[]}`)
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(body))
	req.Header.Set(line.SignatureHeader, "forged")

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if len(router.events) != 0 {
		t.Error("events from an unauthenticated delivery reached the router")
	}
}

func TestWebhookMethodNotAllowed(t *testing.T) {
	mux, _, _ := newTestMux()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/webhook", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestCreateAlertEndpoint(t *testing.T) {
	mux, _, alerts := newTestMux()

	body := `{"location":"Route 9","description":"brush fire","severity":4}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/alerts", strings.NewReader(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body)
	}
	var got domain.Alert
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.ID == 0 || got.Status != domain.AlertActive {
		t.Errorf("response alert = %+v", got)
	}
	if len(alerts.created) != 1 {
		t.Errorf("dispatcher saw %d creates, want 1", len(alerts.created))
	}
}

func TestCreateAlertEndpointValidation(t *testing.T) {
	mux, _, alerts := newTestMux()

	body := `{"location":"Route 9","description":"brush fire","severity":6}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/alerts", strings.NewReader(body)))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if len(alerts.created) != 0 {
		t.Error("invalid alert reached the dispatcher")
	}
}

func TestListAlertsEndpoint(t *testing.T) {
	mux, _, alerts := newTestMux()
	alerts.list = []domain.Alert{
		{ID: 1, Location: "Route 9", Description: "fire", Severity: 3, Status: domain.AlertActive},
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/alerts", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got []domain.Alert
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got) != 1 || got[0].Location != "Route 9" {
		t.Errorf("response = %v", got)
	}
}

func TestListAlertsStorageError(t *testing.T) {
	mux, _, alerts := newTestMux()
	alerts.listErr = &domain.StorageError{Op: "list active alerts", Err: errors.New("down")}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/alerts", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
