package types

import (
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

// UserID represents a unique identifier for a user
type UserID string

// Validate checks if the UserID is valid
func (u UserID) Validate() error {
	if u == "" {
		return goerr.New("user ID cannot be empty")
	}
	return nil
}

// String returns the string representation of UserID
func (u UserID) String() string {
	return string(u)
}

// WorkBasketID represents a unique identifier for a work basket
type WorkBasketID string

// NewWorkBasketID generates a new random WorkBasketID
func NewWorkBasketID() WorkBasketID {
	return WorkBasketID(uuid.New().String())
}

// String returns the string representation of WorkBasketID
func (id WorkBasketID) String() string {
	return string(id)
}

// WorkGroupID represents a unique identifier for a work group
type WorkGroupID string

// NewWorkGroupID generates a new random WorkGroupID
func NewWorkGroupID() WorkGroupID {
	return WorkGroupID(uuid.New().String())
}

// String returns the string representation of WorkGroupID
func (id WorkGroupID) String() string {
	return string(id)
}

// DecisionID represents a unique identifier for a decision record
type DecisionID string

// NewDecisionID generates a new random DecisionID
func NewDecisionID() DecisionID {
	return DecisionID(uuid.New().String())
}

// String returns the string representation of DecisionID
func (id DecisionID) String() string {
	return string(id)
}
