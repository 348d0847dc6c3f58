package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/KRTNP/line-fire-alert-system/internal/domain"
	"github.com/KRTNP/line-fire-alert-system/internal/line"
)

type fakeStore struct {
	mu         sync.Mutex
	createFn   func(in domain.NewAlert) (*domain.Alert, []string, error)
	activeFn   func() ([]domain.Alert, error)
	createSeen int
}

func (f *fakeStore) CreateAlert(_ context.Context, in domain.NewAlert) (*domain.Alert, []string, error) {
	f.mu.Lock()
	f.createSeen++
	f.mu.Unlock()
	return f.createFn(in)
}

func (f *fakeStore) ActiveAlerts(_ context.Context) ([]domain.Alert, error) {
	return f.activeFn()
}

func (f *fakeStore) createCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.createSeen
}

// fakePusher records push attempts; targets in fail reject the send and
// block, when set, stalls every send until released.
type fakePusher struct {
	mu       sync.Mutex
	attempts []string
	sent     []string
	fail     map[string]bool
	block    chan struct{}
}

func (f *fakePusher) Push(_ context.Context, to string, _ ...line.Message) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts = append(f.attempts, to)
	if f.fail[to] {
		return &domain.TransportError{Op: "push", Err: errors.New("blocked by user")}
	}
	f.sent = append(f.sent, to)
	return nil
}

func (f *fakePusher) delivered() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func (f *fakePusher) attempted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.attempts...)
}

func newTestService(store *fakeStore, pusher *fakePusher) (*Service, *Broadcaster) {
	bc := NewBroadcaster(pusher, zap.NewNop(), 1, 0)
	return New(store, bc, zap.NewNop()), bc
}

func TestCreateAlertValidation(t *testing.T) {
	tests := []struct {
		name string
		in   domain.NewAlert
	}{
		{"severity zero", domain.NewAlert{Location: "Route 9", Description: "fire", Severity: 0}},
		{"severity six", domain.NewAlert{Location: "Route 9", Description: "fire", Severity: 6}},
		{"empty location", domain.NewAlert{Description: "fire", Severity: 3}},
		{"empty description", domain.NewAlert{Location: "Route 9", Severity: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			svc, bc := newTestService(store, &fakePusher{})
			defer bc.Close()

			_, err := svc.CreateAlert(context.Background(), tt.in)
			if !domain.IsValidation(err) {
				t.Fatalf("CreateAlert error = %v, want ValidationError", err)
			}
			if store.createCalls() != 0 {
				t.Error("store was reached despite invalid input")
			}
		})
	}
}

func TestCreateAlertStorageErrorPropagates(t *testing.T) {
	store := &fakeStore{
		createFn: func(domain.NewAlert) (*domain.Alert, []string, error) {
			return nil, nil, &domain.StorageError{Op: "insert alert", Err: errors.New("down")}
		},
	}
	svc, bc := newTestService(store, &fakePusher{})
	defer bc.Close()

	_, err := svc.CreateAlert(context.Background(), domain.NewAlert{
		Location: "Route 9", Description: "fire", Severity: 3,
	})
	if !domain.IsStorage(err) {
		t.Fatalf("CreateAlert error = %v, want StorageError", err)
	}
}

func TestCreateAlertBroadcastsToSnapshot(t *testing.T) {
	alert := domain.Alert{
		ID: 1, Location: "Route 9", Description: "fire",
		Severity: 3, Status: domain.AlertActive, CreatedAt: time.Now().UTC(),
	}
	store := &fakeStore{
		createFn: func(domain.NewAlert) (*domain.Alert, []string, error) {
			return &alert, []string{"U1", "U2", "U3"}, nil
		},
	}
	pusher := &fakePusher{}
	svc, bc := newTestService(store, pusher)

	got, err := svc.CreateAlert(context.Background(), domain.NewAlert{
		Location: "Route 9", Description: "fire", Severity: 3,
	})
	if err != nil {
		t.Fatalf("CreateAlert: %v", err)
	}
	if got.ID != 1 || got.Status != domain.AlertActive {
		t.Errorf("CreateAlert returned %+v", got)
	}

	bc.Close() // drain the queue
	if d := pusher.delivered(); len(d) != 3 || d[0] != "U1" || d[1] != "U2" || d[2] != "U3" {
		t.Errorf("delivered = %v, want snapshot order [U1 U2 U3]", d)
	}
}

func TestCreateAlertReturnsBeforeBroadcastCompletes(t *testing.T) {
	alert := domain.Alert{ID: 2, Location: "Route 9", Description: "fire", Severity: 3, Status: domain.AlertActive}
	store := &fakeStore{
		createFn: func(domain.NewAlert) (*domain.Alert, []string, error) {
			return &alert, []string{"U1"}, nil
		},
	}
	pusher := &fakePusher{block: make(chan struct{})}
	svc, bc := newTestService(store, pusher)

	done := make(chan struct{})
	go func() {
		if _, err := svc.CreateAlert(context.Background(), domain.NewAlert{
			Location: "Route 9", Description: "fire", Severity: 3,
		}); err != nil {
			t.Errorf("CreateAlert: %v", err)
		}
		close(done)
	}()

	select {
	case <-done:
		// Returned while the only push was still stalled: fire-and-forget.
	case <-time.After(2 * time.Second):
		t.Fatal("CreateAlert blocked on broadcast delivery")
	}

	close(pusher.block)
	bc.Close()
	if d := pusher.delivered(); len(d) != 1 {
		t.Errorf("delivered = %v, want [U1]", d)
	}
}

func TestActiveAlertsPassthrough(t *testing.T) {
	want := []domain.Alert{{ID: 5, Location: "Pine Hill", Description: "smoke", Severity: 2, Status: domain.AlertActive}}
	store := &fakeStore{activeFn: func() ([]domain.Alert, error) { return want, nil }}
	svc, bc := newTestService(store, &fakePusher{})
	defer bc.Close()

	got, err := svc.ActiveAlerts(context.Background())
	if err != nil {
		t.Fatalf("ActiveAlerts: %v", err)
	}
	if len(got) != 1 || got[0].ID != 5 {
		t.Errorf("ActiveAlerts = %v, want %v", got, want)
	}
}
