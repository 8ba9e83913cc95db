package interfaces

import (
	"github.com/caseops/workbasket/pkg/domain/model"
	"github.com/caseops/workbasket/pkg/domain/types"
)

// ListActivityOption is a functional option for filtering activities in List
type ListActivityOption func(*listActivityConfig)

type listActivityConfig struct {
	status         *types.ActivityStatus
	kind           *types.ActivityKind
	caseID         *int64
	memberID       *int64
	level          *string
	workGroups     []types.WorkGroupID
	claimant       *types.UserID
	includeDeleted bool
}

// WithStatus filters activities by status
func WithStatus(status types.ActivityStatus) ListActivityOption {
	return func(c *listActivityConfig) {
		c.status = &status
	}
}

// WithKind filters activities by kind discriminator
func WithKind(kind types.ActivityKind) ListActivityOption {
	return func(c *listActivityConfig) {
		c.kind = &kind
	}
}

// WithCaseID filters activities by case scope
func WithCaseID(caseID int64) ListActivityOption {
	return func(c *listActivityConfig) {
		c.caseID = &caseID
	}
}

// WithMemberID filters activities by member scope
func WithMemberID(memberID int64) ListActivityOption {
	return func(c *listActivityConfig) {
		c.memberID = &memberID
	}
}

// WithLevel filters activities by level scope
func WithLevel(level string) ListActivityOption {
	return func(c *listActivityConfig) {
		c.level = &level
	}
}

// WithWorkGroups filters activities targeting any of the given groups
func WithWorkGroups(ids ...types.WorkGroupID) ListActivityOption {
	return func(c *listActivityConfig) {
		c.workGroups = append(c.workGroups, ids...)
	}
}

// WithClaimant filters activities claimed by the user
func WithClaimant(userID types.UserID) ListActivityOption {
	return func(c *listActivityConfig) {
		c.claimant = &userID
	}
}

// WithDeleted includes soft-deleted activities in the result
func WithDeleted() ListActivityOption {
	return func(c *listActivityConfig) {
		c.includeDeleted = true
	}
}

// BuildListActivityConfig builds a listActivityConfig from options
func BuildListActivityConfig(opts ...ListActivityOption) *listActivityConfig {
	cfg := &listActivityConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Status returns the status filter value, or nil if not set
func (c *listActivityConfig) Status() *types.ActivityStatus { return c.status }

// Kind returns the kind filter value, or nil if not set
func (c *listActivityConfig) Kind() *types.ActivityKind { return c.kind }

// CaseID returns the case scope filter, or nil if not set
func (c *listActivityConfig) CaseID() *int64 { return c.caseID }

// MemberID returns the member scope filter, or nil if not set
func (c *listActivityConfig) MemberID() *int64 { return c.memberID }

// Level returns the level scope filter, or nil if not set
func (c *listActivityConfig) Level() *string { return c.level }

// WorkGroups returns the group filter set; empty means no group filter
func (c *listActivityConfig) WorkGroups() []types.WorkGroupID { return c.workGroups }

// Claimant returns the claimant filter, or nil if not set
func (c *listActivityConfig) Claimant() *types.UserID { return c.claimant }

// IncludeDeleted reports whether soft-deleted rows are included
func (c *listActivityConfig) IncludeDeleted() bool { return c.includeDeleted }

// Match reports whether the activity passes every configured filter.
// Shared by repository implementations that filter in memory.
func (c *listActivityConfig) Match(a *model.Activity) bool {
	if a.Deleted() && !c.includeDeleted {
		return false
	}
	if c.status != nil && a.Status != *c.status {
		return false
	}
	if c.kind != nil && a.Kind != *c.kind {
		return false
	}
	if c.caseID != nil && a.CaseID != *c.caseID {
		return false
	}
	if c.memberID != nil && a.MemberID != *c.memberID {
		return false
	}
	if c.level != nil && a.Level != *c.level {
		return false
	}
	if len(c.workGroups) > 0 {
		if a.WorkGroupID == nil {
			return false
		}
		found := false
		for _, id := range c.workGroups {
			if id == *a.WorkGroupID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if c.claimant != nil && !a.ClaimedBy(*c.claimant) {
		return false
	}
	return true
}
