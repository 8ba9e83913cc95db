package model

import (
	"time"

	"github.com/caseops/workbasket/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// Activity is the schedulable unit of work routed either to a single user or
// fanned out to a work group. Kind discriminates the concrete variant (case
// activity vs member activity); the claim protocol is identical for both.
//
// Invariants:
//   - exactly one of AssigneeID / WorkGroupID is set
//   - ReferTo is non-nil iff Status == CLAIMED or COMPLETED
//   - REJECTED implies ReferTo is nil and is terminal
type Activity struct {
	ID       int64
	Kind     types.ActivityKind
	CaseID   int64
	MemberID int64
	Level    string

	AssigneeID  *types.UserID
	WorkGroupID *types.WorkGroupID
	ReferTo     *types.UserID
	Status      types.ActivityStatus
	Comment     string

	CreatedBy types.UserID
	CreatedAt time.Time
	UpdatedBy types.UserID
	UpdatedAt time.Time
	DeletedBy *types.UserID
	DeletedAt *time.Time
}

// Deleted reports whether the activity has been soft-deleted. Soft delete is
// orthogonal to the claim state machine; a deleted row keeps its status.
func (a *Activity) Deleted() bool {
	return a.DeletedAt != nil
}

// Claimant returns the claiming user, or empty if unclaimed
func (a *Activity) Claimant() types.UserID {
	if a.ReferTo == nil {
		return ""
	}
	return *a.ReferTo
}

// ClaimedBy reports whether the activity is currently held by the user
func (a *Activity) ClaimedBy(userID types.UserID) bool {
	return a.ReferTo != nil && *a.ReferTo == userID
}

// Validate checks the structural invariants of the activity
func (a *Activity) Validate() error {
	if !a.Kind.IsValid() {
		return goerr.New("invalid activity kind", goerr.V("kind", a.Kind))
	}
	if !a.Status.IsValid() {
		return goerr.New("invalid activity status", goerr.V("status", a.Status))
	}

	hasAssignee := a.AssigneeID != nil
	hasGroup := a.WorkGroupID != nil
	if hasAssignee == hasGroup {
		return goerr.New("activity must target exactly one of a user or a work group",
			goerr.V("id", a.ID))
	}

	switch a.Status {
	case types.ActivityStatusClaimed, types.ActivityStatusCompleted:
		if a.ReferTo == nil {
			return goerr.New("claimed activity must have a claimant", goerr.V("id", a.ID))
		}
	default:
		if a.ReferTo != nil {
			return goerr.New("unclaimed activity must not have a claimant",
				goerr.V("id", a.ID), goerr.V("status", a.Status))
		}
	}

	return nil
}

// DecisionRecord holds one user's accept/reject decision on an activity.
// At most one record exists per (activity, user): a later decision by the
// same user replaces the earlier one.
type DecisionRecord struct {
	ID         types.DecisionID
	ActivityID int64
	UserID     types.UserID
	Kind       types.DecisionKind
	Comment    string
	DecidedAt  time.Time
}
