package model

import (
	"time"

	"github.com/caseops/workbasket/pkg/domain/types"
)

// WorkGroup is a named set of users eligible to act on activities routed to it.
// Membership determines claim eligibility: any member may accept or reject an
// activity offered to the group.
type WorkGroup struct {
	ID            types.WorkGroupID
	Code          string
	Name          string
	Description   string
	FaxSourced    bool
	PortalSourced bool
	Active        bool
	Members       []types.UserID

	CreatedBy types.UserID
	CreatedAt time.Time
	UpdatedBy types.UserID
	UpdatedAt time.Time
	DeletedBy *types.UserID
	DeletedAt *time.Time
}

// Deleted reports whether the group has been soft-deleted
func (g *WorkGroup) Deleted() bool {
	return g.DeletedAt != nil
}

// HasMember reports whether the user belongs to the group
func (g *WorkGroup) HasMember(userID types.UserID) bool {
	for _, m := range g.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// AddMember appends the user to the membership unless already present.
// Returns true if the membership changed.
func (g *WorkGroup) AddMember(userID types.UserID) bool {
	if g.HasMember(userID) {
		return false
	}
	g.Members = append(g.Members, userID)
	return true
}

// RemoveMember drops the user from the membership. Returns true if the
// membership changed.
func (g *WorkGroup) RemoveMember(userID types.UserID) bool {
	for i, m := range g.Members {
		if m == userID {
			g.Members = append(g.Members[:i], g.Members[i+1:]...)
			return true
		}
	}
	return false
}
