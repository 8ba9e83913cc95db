package types

import "fmt"

// ActivityStatus represents the claim state of a queued activity
type ActivityStatus string

const (
	ActivityStatusOffered   ActivityStatus = "OFFERED"
	ActivityStatusClaimed   ActivityStatus = "CLAIMED"
	ActivityStatusRejected  ActivityStatus = "REJECTED"
	ActivityStatusCompleted ActivityStatus = "COMPLETED"
)

// AllActivityStatuses returns all valid activity statuses
func AllActivityStatuses() []ActivityStatus {
	return []ActivityStatus{
		ActivityStatusOffered,
		ActivityStatusClaimed,
		ActivityStatusRejected,
		ActivityStatusCompleted,
	}
}

// IsValid checks if the activity status is valid
func (s ActivityStatus) IsValid() bool {
	switch s {
	case ActivityStatusOffered,
		ActivityStatusClaimed,
		ActivityStatusRejected,
		ActivityStatusCompleted:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further claim transitions are allowed.
// Rejected and Completed accept neither Accept nor Reject; Claimed still
// allows completion by the claimant.
func (s ActivityStatus) IsTerminal() bool {
	return s == ActivityStatusRejected || s == ActivityStatusCompleted
}

// String returns the string representation of the activity status
func (s ActivityStatus) String() string {
	return string(s)
}

// ParseActivityStatus parses a string into an ActivityStatus
func ParseActivityStatus(s string) (ActivityStatus, error) {
	status := ActivityStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid activity status: %s", s)
	}
	return status, nil
}
