package interfaces

import (
	"context"

	"github.com/caseops/workbasket/pkg/domain/model"
	"github.com/caseops/workbasket/pkg/domain/types"
)

// ActivityRepository defines the interface for Activity data access.
//
// Claim and Reject are the transactional primitives of the claim protocol.
// Both must execute as a single atomic unit against the store so that the
// protocol stays correct when the service runs as multiple instances: no
// in-process lock can serialize writers across deployments, only the store
// can. Both return errors wrapping the sentinel errors in the types package
// (ErrNotFound, ErrConflict, ErrInvalidState).
type ActivityRepository interface {
	// Create persists a new activity with an auto-generated ID
	Create(ctx context.Context, a *model.Activity) (*model.Activity, error)

	// Get retrieves an activity by ID, including soft-deleted rows
	Get(ctx context.Context, id int64) (*model.Activity, error)

	// List retrieves activities matching the options
	List(ctx context.Context, opts ...ListActivityOption) ([]*model.Activity, error)

	// Update replaces an existing activity. Not safe for claim-state
	// transitions; those go through Claim and Reject.
	Update(ctx context.Context, a *model.Activity) (*model.Activity, error)

	// HardDelete physically removes an activity and its decision records
	HardDelete(ctx context.Context, id int64) error

	// Claim atomically transitions the activity OFFERED -> CLAIMED for
	// userID, only if no claimant is persisted yet, and records an ACCEPTED
	// decision in the same transaction. Re-claiming by the current claimant
	// succeeds without any state change. A caller that passed validation but
	// lost the conditional write to a concurrent claimant gets ErrConflict;
	// a caller that finds the activity already held or terminal gets
	// ErrInvalidState.
	Claim(ctx context.Context, id int64, userID types.UserID, comment string) (*model.Activity, error)

	// Reject upserts a REJECTED decision for userID and, within the same
	// transaction, resolves the target group's current membership and
	// transitions OFFERED -> REJECTED once every eligible user has rejected.
	// The returned activity reflects the committed state (still OFFERED, or
	// now terminally REJECTED).
	Reject(ctx context.Context, id int64, userID types.UserID, comment string) (*model.Activity, error)

	// Decisions retrieves all decision records for an activity
	Decisions(ctx context.Context, id int64) ([]*model.DecisionRecord, error)

	// ListDecisionsByUser retrieves all decision records made by a user
	ListDecisionsByUser(ctx context.Context, userID types.UserID) ([]*model.DecisionRecord, error)
}
