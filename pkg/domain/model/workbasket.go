package model

import (
	"time"

	"github.com/caseops/workbasket/pkg/domain/types"
)

// WorkBasket is a named pool grouping one or more work groups for routing.
// Baskets do not participate in claim resolution directly; they exist so
// administrative callers can organize groups.
type WorkBasket struct {
	ID          types.WorkBasketID
	Code        string
	Name        string
	Description string
	Active      bool
	GroupIDs    []types.WorkGroupID

	CreatedBy types.UserID
	CreatedAt time.Time
	UpdatedBy types.UserID
	UpdatedAt time.Time
	DeletedBy *types.UserID
	DeletedAt *time.Time
}

// Deleted reports whether the basket has been soft-deleted
func (b *WorkBasket) Deleted() bool {
	return b.DeletedAt != nil
}
