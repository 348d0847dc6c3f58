// Package dispatch owns the alert lifecycle: transactional creation plus
// best-effort broadcast to every registered subscriber.
package dispatch

import (
	"context"

	"go.uber.org/zap"

	"github.com/KRTNP/line-fire-alert-system/internal/domain"
)

// Store is the transactional surface the dispatcher depends on.
// store.SQLStore implements it.
type Store interface {
	CreateAlert(ctx context.Context, in domain.NewAlert) (*domain.Alert, []string, error)
	ActiveAlerts(ctx context.Context) ([]domain.Alert, error)
}

// Service creates alerts and hands the committed alert plus its recipient
// snapshot to the broadcaster.
type Service struct {
	store Store
	bc    *Broadcaster
	log   *zap.Logger
}

// New creates the dispatch service.
func New(store Store, bc *Broadcaster, log *zap.Logger) *Service {
	return &Service{store: store, bc: bc, log: log}
}

// CreateAlert validates the input, creates the alert and its recipient
// snapshot in one transaction, and enqueues the broadcast. It returns as
// soon as the transaction commits; delivery happens in the background.
func (s *Service) CreateAlert(ctx context.Context, in domain.NewAlert) (*domain.Alert, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	alert, recipients, err := s.store.CreateAlert(ctx, in)
	if err != nil {
		return nil, err
	}

	jobID := s.bc.Enqueue(*alert, recipients)
	s.log.Info("alert created",
		zap.Int64("alert", alert.ID),
		zap.String("location", alert.Location),
		zap.Int("severity", alert.Severity),
		zap.Int("recipients", len(recipients)),
		zap.String("job", jobID),
	)
	return alert, nil
}

// ActiveAlerts returns the active alerts, most recent first.
func (s *Service) ActiveAlerts(ctx context.Context) ([]domain.Alert, error) {
	return s.store.ActiveAlerts(ctx)
}
