package domain

import "time"

// AlertStatus is the lifecycle state of an alert.
type AlertStatus string

const (
	AlertActive   AlertStatus = "active"
	AlertResolved AlertStatus = "resolved"
)

// Severity bounds for an alert, inclusive.
const (
	MinSeverity = 1
	MaxSeverity = 5
)

// Alert is a persisted hazard report. Immutable once created except for Status.
type Alert struct {
	ID          int64       `json:"id"`
	Location    string      `json:"location"`
	Description string      `json:"description"`
	Severity    int         `json:"severity"`
	Status      AlertStatus `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
}

// NewAlert carries the operator-supplied fields for alert creation.
type NewAlert struct {
	Location    string `json:"location"`
	Description string `json:"description"`
	Severity    int    `json:"severity"`
}

// Validate checks the alert input. Callers must not retry a failed
// validation without correcting the input.
func (n NewAlert) Validate() error {
	if n.Location == "" {
		return &ValidationError{Field: "location", Reason: "must not be empty"}
	}
	if n.Description == "" {
		return &ValidationError{Field: "description", Reason: "must not be empty"}
	}
	if n.Severity < MinSeverity || n.Severity > MaxSeverity {
		return &ValidationError{Field: "severity", Reason: "must be between 1 and 5"}
	}
	return nil
}
