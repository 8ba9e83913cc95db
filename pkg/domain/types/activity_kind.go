package types

import "fmt"

// ActivityKind discriminates the concrete variant of a queued activity
type ActivityKind string

const (
	ActivityKindCase   ActivityKind = "CASE"
	ActivityKindMember ActivityKind = "MEMBER"
)

// AllActivityKinds returns all valid activity kinds
func AllActivityKinds() []ActivityKind {
	return []ActivityKind{
		ActivityKindCase,
		ActivityKindMember,
	}
}

// IsValid checks if the activity kind is valid
func (k ActivityKind) IsValid() bool {
	switch k {
	case ActivityKindCase, ActivityKindMember:
		return true
	default:
		return false
	}
}

// String returns the string representation of the activity kind
func (k ActivityKind) String() string {
	return string(k)
}

// ParseActivityKind parses a string into an ActivityKind
func ParseActivityKind(s string) (ActivityKind, error) {
	kind := ActivityKind(s)
	if !kind.IsValid() {
		return "", fmt.Errorf("invalid activity kind: %s", s)
	}
	return kind, nil
}
