package usecase

import (
	"context"

	"github.com/caseops/workbasket/pkg/domain/interfaces"
	"github.com/caseops/workbasket/pkg/domain/model"
	"github.com/caseops/workbasket/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"
)

// QueueUseCase builds per-user work queue views by joining activity claim
// state with group membership. Read-only; reflects committed state.
type QueueUseCase struct {
	repo interfaces.Repository
}

func NewQueueUseCase(repo interfaces.Repository) *QueueUseCase {
	return &QueueUseCase{repo: repo}
}

// PendingForUser returns offered activities the user can still act on:
// routed to one of their groups, not deleted, and not yet decided by them.
// An item the user already rejected never reappears as pending.
func (uc *QueueUseCase) PendingForUser(ctx context.Context, userID types.UserID, opts ...interfaces.ListActivityOption) ([]*model.Activity, error) {
	if err := userID.Validate(); err != nil {
		return nil, err
	}

	groups, err := uc.repo.WorkGroup().ListByMember(ctx, userID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to resolve user groups", goerr.V("user_id", userID))
	}
	if len(groups) == 0 {
		return []*model.Activity{}, nil
	}

	groupIDs := make([]types.WorkGroupID, len(groups))
	for i, g := range groups {
		groupIDs[i] = g.ID
	}

	listOpts := append([]interfaces.ListActivityOption{
		interfaces.WithStatus(types.ActivityStatusOffered),
		interfaces.WithWorkGroups(groupIDs...),
	}, opts...)

	// The offer list and the user's decision history are independent reads
	var offered []*model.Activity
	var decisions []*model.DecisionRecord
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		offered, err = uc.repo.Activity().List(egCtx, listOpts...)
		if err != nil {
			return goerr.Wrap(err, "failed to list offered activities", goerr.V("user_id", userID))
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		decisions, err = uc.repo.Activity().ListDecisionsByUser(egCtx, userID)
		if err != nil {
			return goerr.Wrap(err, "failed to list user decisions", goerr.V("user_id", userID))
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	decided := make(map[int64]bool, len(decisions))
	for _, d := range decisions {
		decided[d.ActivityID] = true
	}

	pending := make([]*model.Activity, 0, len(offered))
	for _, a := range offered {
		if !decided[a.ID] {
			pending = append(pending, a)
		}
	}

	return pending, nil
}

// AcceptedForUser returns the activities currently claimed by the user
func (uc *QueueUseCase) AcceptedForUser(ctx context.Context, userID types.UserID, opts ...interfaces.ListActivityOption) ([]*model.Activity, error) {
	if err := userID.Validate(); err != nil {
		return nil, err
	}

	listOpts := append([]interfaces.ListActivityOption{
		interfaces.WithClaimant(userID),
	}, opts...)

	accepted, err := uc.repo.Activity().List(ctx, listOpts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list accepted activities", goerr.V("user_id", userID))
	}

	return accepted, nil
}
