package notify

import (
	"context"

	"github.com/caseops/workbasket/pkg/domain/model"
	"github.com/caseops/workbasket/pkg/domain/types"
)

// Service delivers work-queue notifications. Implementations must be safe
// for concurrent use; delivery is best-effort and never blocks the claim
// protocol.
type Service interface {
	// ActivityOffered announces a new activity fanned out to a work group
	ActivityOffered(ctx context.Context, a *model.Activity, g *model.WorkGroup) error

	// ActivityClaimed announces that a user took ownership of an activity
	ActivityClaimed(ctx context.Context, a *model.Activity, userID types.UserID) error

	// ActivityRejected announces that the whole group declined the activity.
	// Fired only on the terminal transition, not on individual rejections.
	ActivityRejected(ctx context.Context, a *model.Activity, userID types.UserID) error

	// ActivityCompleted announces that the claimant finished the activity
	ActivityCompleted(ctx context.Context, a *model.Activity, userID types.UserID) error
}
