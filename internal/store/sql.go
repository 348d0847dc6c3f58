package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	// Registers the "postgres" driver.
	_ "github.com/lib/pq"
	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"

	"github.com/KRTNP/line-fire-alert-system/internal/domain"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// SQLStore implements Repo over database/sql. Queries are written in
// Postgres style ($1 placeholders, RETURNING) and rebound for SQLite.
type SQLStore struct {
	db     *sql.DB
	driver string
}

// Open opens the database for the given driver, configures the connection
// pool, runs migrations and returns the store. For sqlite the DSN is a file
// path and the parent directory is created if missing.
func Open(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	switch driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported driver: %q", driver)
	}

	if driver == DriverSQLite {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	if driver == DriverSQLite {
		// Single-writer engine; keep one connection.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		if err := applyPragmas(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragmas: %w", err)
		}
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ping: %w", err)
		}
	}

	if err := RunMigrations(ctx, db, driver); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &SQLStore{db: db, driver: driver}, nil
}

// applyPragmas configures SQLite for durability and concurrency.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database resources.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

var placeholderRe = regexp.MustCompile(`\$\d+`)

// q rewrites $N placeholders to ? for the sqlite driver.
func (s *SQLStore) q(query string) string {
	if s.driver == DriverSQLite {
		return placeholderRe.ReplaceAllString(query, "?")
	}
	return query
}

// CreateUser inserts a subscriber. A duplicate follow is a no-op.
func (s *SQLStore) CreateUser(ctx context.Context, lineUserID string) error {
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO users (line_user_id, created_at)
		VALUES ($1, $2)
		ON CONFLICT (line_user_id) DO NOTHING`),
		lineUserID, time.Now().UTC().Unix(),
	)
	if err != nil {
		return &domain.StorageError{Op: "create user", Err: err}
	}
	return nil
}

// DeleteUser removes a subscriber. Deleting an absent row is a no-op.
func (s *SQLStore) DeleteUser(ctx context.Context, lineUserID string) error {
	_, err := s.db.ExecContext(ctx, s.q(`
		DELETE FROM users WHERE line_user_id = $1`),
		lineUserID,
	)
	if err != nil {
		return &domain.StorageError{Op: "delete user", Err: err}
	}
	return nil
}

// CreateAlert inserts the alert row and reads the recipient snapshot against
// the same transactional view. Both succeed or neither does.
func (s *SQLStore) CreateAlert(ctx context.Context, in domain.NewAlert) (*domain.Alert, []string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, &domain.StorageError{Op: "begin alert tx", Err: err}
	}

	now := time.Now().UTC().Truncate(time.Second)
	var id int64
	err = tx.QueryRowContext(ctx, s.q(`
		INSERT INTO alerts (location, description, severity, status, created_at)
		VALUES ($1, $2, $3, 'active', $4)
		RETURNING id`),
		in.Location, in.Description, in.Severity, now.Unix(),
	).Scan(&id)
	if err != nil {
		_ = tx.Rollback()
		return nil, nil, &domain.StorageError{Op: "insert alert", Err: err}
	}

	recipients, err := snapshotUsers(ctx, tx)
	if err != nil {
		_ = tx.Rollback()
		return nil, nil, &domain.StorageError{Op: "snapshot users", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, &domain.StorageError{Op: "commit alert tx", Err: err}
	}

	return &domain.Alert{
		ID:          id,
		Location:    in.Location,
		Description: in.Description,
		Severity:    in.Severity,
		Status:      domain.AlertActive,
		CreatedAt:   now,
	}, recipients, nil
}

// snapshotUsers reads every subscriber id inside the alert transaction.
func snapshotUsers(ctx context.Context, tx *sql.Tx) ([]string, error) {
	rows, err := tx.QueryContext(ctx, `SELECT line_user_id FROM users`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ActiveAlerts returns alerts with status=active, most recent first.
func (s *SQLStore) ActiveAlerts(ctx context.Context) ([]domain.Alert, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, location, description, severity, status, created_at
		FROM alerts
		WHERE status = 'active'
		ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, &domain.StorageError{Op: "list active alerts", Err: err}
	}
	defer rows.Close()

	var alerts []domain.Alert
	for rows.Next() {
		var a domain.Alert
		var createdAt int64
		if err := rows.Scan(&a.ID, &a.Location, &a.Description, &a.Severity, &a.Status, &createdAt); err != nil {
			return nil, &domain.StorageError{Op: "scan alert", Err: err}
		}
		a.CreatedAt = time.Unix(createdAt, 0).UTC()
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StorageError{Op: "list active alerts", Err: err}
	}
	return alerts, nil
}

// CreateReport persists a free-text report from the report flow.
func (s *SQLStore) CreateReport(ctx context.Context, lineUserID, body string) error {
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO reports (line_user_id, body, created_at)
		VALUES ($1, $2, $3)`),
		lineUserID, body, time.Now().UTC().Unix(),
	)
	if err != nil {
		return &domain.StorageError{Op: "create report", Err: err}
	}
	return nil
}
