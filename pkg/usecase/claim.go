package usecase

import (
	"context"
	"time"

	"github.com/caseops/workbasket/pkg/domain/interfaces"
	"github.com/caseops/workbasket/pkg/domain/model"
	"github.com/caseops/workbasket/pkg/domain/types"
	"github.com/caseops/workbasket/pkg/service/notify"
	"github.com/caseops/workbasket/pkg/utils/async"
	"github.com/caseops/workbasket/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// ClaimUseCase coordinates the single-winner claim protocol on activities.
// All race-sensitive transitions are delegated to the repository's
// transactional Claim and Reject primitives; this layer validates input,
// shapes the model, and dispatches notifications. Conflicts are surfaced to
// the caller untouched: retrying a lost claim on the caller's behalf would
// silently reassign their intent.
type ClaimUseCase struct {
	repo     interfaces.Repository
	notifier notify.Service
}

func NewClaimUseCase(repo interfaces.Repository, notifier notify.Service) *ClaimUseCase {
	return &ClaimUseCase{
		repo:     repo,
		notifier: notifier,
	}
}

// CreateActivityInput carries the fields for a new activity. Exactly one of
// AssigneeID or WorkGroupID must be set.
type CreateActivityInput struct {
	Kind        types.ActivityKind
	CaseID      int64
	MemberID    int64
	Level       string
	Comment     string
	AssigneeID  *types.UserID
	WorkGroupID *types.WorkGroupID
}

// CreateActivity creates a new activity. Routing to a single user claims it
// immediately (there is nothing to contend for); routing to a work group
// offers it to every current member.
func (uc *ClaimUseCase) CreateActivity(ctx context.Context, actor types.UserID, input CreateActivityInput) (*model.Activity, error) {
	a := &model.Activity{
		Kind:        input.Kind,
		CaseID:      input.CaseID,
		MemberID:    input.MemberID,
		Level:       input.Level,
		Comment:     input.Comment,
		AssigneeID:  input.AssigneeID,
		WorkGroupID: input.WorkGroupID,
		Status:      types.ActivityStatusOffered,
		CreatedBy:   actor,
		UpdatedBy:   actor,
	}

	var group *model.WorkGroup
	if input.AssigneeID != nil {
		assignee := *input.AssigneeID
		a.ReferTo = &assignee
		a.Status = types.ActivityStatusClaimed
	} else if input.WorkGroupID != nil {
		g, err := uc.repo.WorkGroup().Get(ctx, *input.WorkGroupID)
		if err != nil {
			return nil, err
		}
		if g.Deleted() || !g.Active {
			return nil, goerr.Wrap(types.ErrNotFound, "work group is not active",
				goerr.V("group_id", g.ID))
		}
		if len(g.Members) == 0 {
			// Allowed but almost certainly a caller mistake: the item can
			// never be claimed or reach rejection quorum
			logging.From(ctx).Warn("activity offered to empty work group",
				"group_id", g.ID.String(), "group_code", g.Code)
		}
		group = g
	}

	if err := a.Validate(); err != nil {
		return nil, err
	}

	created, err := uc.repo.Activity().Create(ctx, a)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create activity")
	}

	if uc.notifier != nil && group != nil {
		activity := created
		g := group
		async.Dispatch(ctx, func(ctx context.Context) error {
			return uc.notifier.ActivityOffered(ctx, activity, g)
		})
	}

	return created, nil
}

// Accept claims exclusive ownership of an offered activity for userID.
// Exactly one acceptor can win; losers of the race get types.ErrConflict.
func (uc *ClaimUseCase) Accept(ctx context.Context, id int64, userID types.UserID, comment string) (*model.Activity, error) {
	if err := userID.Validate(); err != nil {
		return nil, err
	}

	claimed, err := uc.repo.Activity().Claim(ctx, id, userID, comment)
	if err != nil {
		return nil, err
	}

	if uc.notifier != nil {
		activity := claimed
		async.Dispatch(ctx, func(ctx context.Context) error {
			return uc.notifier.ActivityClaimed(ctx, activity, userID)
		})
	}

	return claimed, nil
}

// Reject records userID's refusal. Once every eligible member of the target
// group has rejected, the activity becomes terminally rejected.
func (uc *ClaimUseCase) Reject(ctx context.Context, id int64, userID types.UserID, comment string) (*model.Activity, error) {
	if err := userID.Validate(); err != nil {
		return nil, err
	}

	rejected, err := uc.repo.Activity().Reject(ctx, id, userID, comment)
	if err != nil {
		return nil, err
	}

	// Only the terminal transition is announced; individual rejections are
	// visible through the decision history
	if uc.notifier != nil && rejected.Status == types.ActivityStatusRejected {
		activity := rejected
		async.Dispatch(ctx, func(ctx context.Context) error {
			return uc.notifier.ActivityRejected(ctx, activity, userID)
		})
	}

	return rejected, nil
}

// Complete finishes a claimed activity. Only the claimant can complete.
func (uc *ClaimUseCase) Complete(ctx context.Context, id int64, userID types.UserID) (*model.Activity, error) {
	a, err := uc.repo.Activity().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Deleted() {
		return nil, goerr.Wrap(types.ErrNotFound, "activity is deleted", goerr.V("id", id))
	}

	if a.Status != types.ActivityStatusClaimed || !a.ClaimedBy(userID) {
		return nil, goerr.Wrap(types.ErrInvalidState, "only the claimant can complete the activity",
			goerr.V("id", id), goerr.V("status", a.Status))
	}

	a.Status = types.ActivityStatusCompleted
	a.UpdatedBy = userID

	updated, err := uc.repo.Activity().Update(ctx, a)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to complete activity", goerr.V("id", id))
	}

	if uc.notifier != nil {
		activity := updated
		async.Dispatch(ctx, func(ctx context.Context) error {
			return uc.notifier.ActivityCompleted(ctx, activity, userID)
		})
	}

	return updated, nil
}

// GetActivity retrieves an activity; soft-deleted rows read as not found
func (uc *ClaimUseCase) GetActivity(ctx context.Context, id int64) (*model.Activity, error) {
	a, err := uc.repo.Activity().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Deleted() {
		return nil, goerr.Wrap(types.ErrNotFound, "activity is deleted", goerr.V("id", id))
	}
	return a, nil
}

// ListActivities retrieves activities matching the filters. Soft-deleted
// rows are excluded unless interfaces.WithDeleted is passed.
func (uc *ClaimUseCase) ListActivities(ctx context.Context, opts ...interfaces.ListActivityOption) ([]*model.Activity, error) {
	activities, err := uc.repo.Activity().List(ctx, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list activities")
	}
	return activities, nil
}

// GetDecisions retrieves the decision history of an activity
func (uc *ClaimUseCase) GetDecisions(ctx context.Context, id int64) ([]*model.DecisionRecord, error) {
	if _, err := uc.GetActivity(ctx, id); err != nil {
		return nil, err
	}
	return uc.repo.Activity().Decisions(ctx, id)
}

// SoftDeleteActivity stamps the activity deleted without touching its claim
// state. Idempotent.
func (uc *ClaimUseCase) SoftDeleteActivity(ctx context.Context, id int64, actor types.UserID) error {
	a, err := uc.repo.Activity().Get(ctx, id)
	if err != nil {
		return err
	}
	if a.Deleted() {
		return nil
	}

	now := time.Now().UTC()
	a.DeletedBy = &actor
	a.DeletedAt = &now
	a.UpdatedBy = actor

	if _, err := uc.repo.Activity().Update(ctx, a); err != nil {
		return goerr.Wrap(err, "failed to soft-delete activity", goerr.V("id", id))
	}
	return nil
}

// RestoreActivity reverses a soft delete
func (uc *ClaimUseCase) RestoreActivity(ctx context.Context, id int64, actor types.UserID) error {
	a, err := uc.repo.Activity().Get(ctx, id)
	if err != nil {
		return err
	}
	if !a.Deleted() {
		return nil
	}

	a.DeletedBy = nil
	a.DeletedAt = nil
	a.UpdatedBy = actor

	if _, err := uc.repo.Activity().Update(ctx, a); err != nil {
		return goerr.Wrap(err, "failed to restore activity", goerr.V("id", id))
	}
	return nil
}

// HardDeleteActivity physically removes the activity and its decision
// records. Administrative use only.
func (uc *ClaimUseCase) HardDeleteActivity(ctx context.Context, id int64) error {
	return uc.repo.Activity().HardDelete(ctx, id)
}
