package store

import (
	"context"

	"github.com/KRTNP/line-fire-alert-system/internal/domain"
)

// Repo defines storage operations for users, alerts and reports.
type Repo interface {
	// CreateUser inserts a subscriber row. Duplicate inserts are a no-op.
	CreateUser(ctx context.Context, lineUserID string) error
	// DeleteUser removes a subscriber row. Missing rows are a no-op.
	DeleteUser(ctx context.Context, lineUserID string) error

	// CreateAlert inserts the alert and reads the recipient snapshot inside
	// a single transaction. On any failure the transaction rolls back and no
	// alert row is observable.
	CreateAlert(ctx context.Context, in domain.NewAlert) (*domain.Alert, []string, error)
	// ActiveAlerts returns alerts with status=active, most recent first.
	ActiveAlerts(ctx context.Context) ([]domain.Alert, error)

	// CreateReport persists a free-text report from the report flow.
	CreateReport(ctx context.Context, lineUserID, body string) error

	Close() error
}
