package interfaces

import (
	"context"

	"github.com/caseops/workbasket/pkg/domain/model"
	"github.com/caseops/workbasket/pkg/domain/types"
)

// WorkGroupRepository defines the interface for WorkGroup data access,
// including the user membership that drives claim eligibility.
type WorkGroupRepository interface {
	// Create persists a new group. The caller provides the ID.
	Create(ctx context.Context, g *model.WorkGroup) (*model.WorkGroup, error)

	// Get retrieves a group by ID, including soft-deleted rows
	Get(ctx context.Context, id types.WorkGroupID) (*model.WorkGroup, error)

	// List retrieves all groups, including soft-deleted rows
	List(ctx context.Context) ([]*model.WorkGroup, error)

	// GetByCode retrieves an active group by code (case-insensitive).
	// Returns nil, nil if no active group has the code.
	GetByCode(ctx context.Context, code string) (*model.WorkGroup, error)

	// GetByName retrieves an active group by name (case-insensitive).
	// Returns nil, nil if no active group has the name.
	GetByName(ctx context.Context, name string) (*model.WorkGroup, error)

	// ListByMember retrieves active groups containing the user
	ListByMember(ctx context.Context, userID types.UserID) ([]*model.WorkGroup, error)

	// Update replaces an existing group
	Update(ctx context.Context, g *model.WorkGroup) (*model.WorkGroup, error)

	// HardDelete physically removes a group. Irreversible; reserved for
	// administrative correction.
	HardDelete(ctx context.Context, id types.WorkGroupID) error
}
