package types

import "fmt"

// DecisionKind represents a user's recorded decision on an offered activity
type DecisionKind string

const (
	DecisionAccepted DecisionKind = "ACCEPTED"
	DecisionRejected DecisionKind = "REJECTED"
)

// AllDecisionKinds returns all valid decision kinds
func AllDecisionKinds() []DecisionKind {
	return []DecisionKind{
		DecisionAccepted,
		DecisionRejected,
	}
}

// IsValid checks if the decision kind is valid
func (k DecisionKind) IsValid() bool {
	switch k {
	case DecisionAccepted, DecisionRejected:
		return true
	default:
		return false
	}
}

// String returns the string representation of the decision kind
func (k DecisionKind) String() string {
	return string(k)
}

// ParseDecisionKind parses a string into a DecisionKind
func ParseDecisionKind(s string) (DecisionKind, error) {
	kind := DecisionKind(s)
	if !kind.IsValid() {
		return "", fmt.Errorf("invalid decision kind: %s", s)
	}
	return kind, nil
}
