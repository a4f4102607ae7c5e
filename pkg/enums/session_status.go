package enums

import "fmt"

// SessionStatus maps to the inventory_session_status enum in Postgres.
type SessionStatus string

const (
	SessionStatusInProgress SessionStatus = "in_progress"
	SessionStatusInReview   SessionStatus = "in_review"
	SessionStatusApproved   SessionStatus = "approved"
)

var validSessionStatuses = []SessionStatus{
	SessionStatusInProgress,
	SessionStatusInReview,
	SessionStatusApproved,
}

// IsValid reports whether the value is a known SessionStatus.
func (s SessionStatus) IsValid() bool {
	for _, candidate := range validSessionStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSessionStatus converts raw input into a SessionStatus.
func ParseSessionStatus(value string) (SessionStatus, error) {
	for _, candidate := range validSessionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid session status %q", value)
}
