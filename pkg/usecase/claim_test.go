package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/caseops/workbasket/pkg/domain/model"
	"github.com/caseops/workbasket/pkg/domain/types"
	"github.com/caseops/workbasket/pkg/repository/memory"
	"github.com/caseops/workbasket/pkg/usecase"
)

func setupGroup(t *testing.T, uc *usecase.UseCases, members ...types.UserID) *model.WorkGroup {
	t.Helper()
	ctx := context.Background()

	g, err := uc.Topology.CreateGroup(ctx, admin, "G-"+types.NewWorkGroupID().String()[:8],
		"Group "+types.NewWorkGroupID().String()[:8], "", false, false)
	gt.NoError(t, err).Required()

	for _, m := range members {
		g, err = uc.Topology.AddGroupMember(ctx, admin, g.ID, m)
		gt.NoError(t, err).Required()
	}
	return g
}

func offerActivity(t *testing.T, uc *usecase.UseCases, groupID types.WorkGroupID) *model.Activity {
	t.Helper()

	a, err := uc.Claim.CreateActivity(context.Background(), admin, usecase.CreateActivityInput{
		Kind:        types.ActivityKindCase,
		CaseID:      500,
		Level:       "L1",
		WorkGroupID: &groupID,
	})
	gt.NoError(t, err).Required()
	return a
}

func TestClaim_DirectAssignmentIsBornClaimed(t *testing.T) {
	ctx := context.Background()
	uc := newUseCases(t)

	assignee := types.UserID("alice")
	a, err := uc.Claim.CreateActivity(ctx, admin, usecase.CreateActivityInput{
		Kind:       types.ActivityKindMember,
		MemberID:   31,
		AssigneeID: &assignee,
	})
	gt.NoError(t, err).Required()

	gt.Value(t, a.Status).Equal(types.ActivityStatusClaimed)
	gt.Value(t, a.Claimant()).Equal(assignee)

	decisions, err := uc.Claim.GetDecisions(ctx, a.ID)
	gt.NoError(t, err).Required()
	gt.Array(t, decisions).Length(1)
	gt.Value(t, decisions[0].Kind).Equal(types.DecisionAccepted)
}

func TestClaim_GroupOfferNeedsValidTarget(t *testing.T) {
	ctx := context.Background()
	uc := newUseCases(t)

	t.Run("unknown group fails", func(t *testing.T) {
		groupID := types.NewWorkGroupID()
		_, err := uc.Claim.CreateActivity(ctx, admin, usecase.CreateActivityInput{
			Kind:        types.ActivityKindCase,
			CaseID:      1,
			WorkGroupID: &groupID,
		})
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, types.ErrNotFound)).True()
	})

	t.Run("both targets fails", func(t *testing.T) {
		g := setupGroup(t, uc, "alice")
		assignee := types.UserID("bob")
		_, err := uc.Claim.CreateActivity(ctx, admin, usecase.CreateActivityInput{
			Kind:        types.ActivityKindCase,
			CaseID:      2,
			AssigneeID:  &assignee,
			WorkGroupID: &g.ID,
		})
		gt.Error(t, err)
	})

	t.Run("no target fails", func(t *testing.T) {
		_, err := uc.Claim.CreateActivity(ctx, admin, usecase.CreateActivityInput{
			Kind:   types.ActivityKindCase,
			CaseID: 3,
		})
		gt.Error(t, err)
	})
}

func TestClaim_SingleWinner(t *testing.T) {
	ctx := context.Background()
	uc := newUseCases(t)
	g := setupGroup(t, uc, "alice", "bob", "carol")
	a := offerActivity(t, uc, g.ID)

	claimed, err := uc.Claim.Accept(ctx, a.ID, "alice", "on it")
	gt.NoError(t, err).Required()
	gt.Value(t, claimed.Status).Equal(types.ActivityStatusClaimed)
	gt.Value(t, claimed.Claimant()).Equal(types.UserID("alice"))

	t.Run("second acceptor is refused", func(t *testing.T) {
		_, err := uc.Claim.Accept(ctx, a.ID, "bob", "")
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, types.ErrInvalidState)).True()
	})

	t.Run("claimant re-accept is idempotent", func(t *testing.T) {
		again, err := uc.Claim.Accept(ctx, a.ID, "alice", "")
		gt.NoError(t, err).Required()
		gt.Value(t, again.UpdatedAt).Equal(claimed.UpdatedAt)
	})

	t.Run("reject after claim is refused", func(t *testing.T) {
		_, err := uc.Claim.Reject(ctx, a.ID, "carol", "")
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, types.ErrInvalidState)).True()
	})
}

func TestClaim_ConcurrentAcceptors(t *testing.T) {
	ctx := context.Background()
	uc := newUseCases(t)

	members := []types.UserID{"u1", "u2", "u3", "u4", "u5", "u6"}
	g := setupGroup(t, uc, members...)
	a := offerActivity(t, uc, g.ID)

	var wg sync.WaitGroup
	errs := make([]error, len(members))
	for i, m := range members {
		wg.Add(1)
		go func(i int, m types.UserID) {
			defer wg.Done()
			_, errs[i] = uc.Claim.Accept(ctx, a.ID, m, "")
		}(i, m)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		if !errors.Is(err, types.ErrConflict) && !errors.Is(err, types.ErrInvalidState) {
			t.Errorf("unexpected error: %v", err)
		}
	}
	gt.Number(t, winners).Equal(1)
}

func TestClaim_RejectionQuorum(t *testing.T) {
	ctx := context.Background()
	uc := newUseCases(t)
	g := setupGroup(t, uc, "alice", "bob")
	a := offerActivity(t, uc, g.ID)

	t.Run("partial rejection keeps the offer open", func(t *testing.T) {
		after, err := uc.Claim.Reject(ctx, a.ID, "alice", "busy")
		gt.NoError(t, err).Required()
		gt.Value(t, after.Status).Equal(types.ActivityStatusOffered)
	})

	t.Run("rejecting user cannot later accept", func(t *testing.T) {
		_, err := uc.Claim.Accept(ctx, a.ID, "alice", "")
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, types.ErrInvalidState)).True()
	})

	t.Run("unanimous rejection terminates the offer", func(t *testing.T) {
		after, err := uc.Claim.Reject(ctx, a.ID, "bob", "")
		gt.NoError(t, err).Required()
		gt.Value(t, after.Status).Equal(types.ActivityStatusRejected)
		gt.Value(t, after.ReferTo).Nil()
	})
}

func TestClaim_Complete(t *testing.T) {
	ctx := context.Background()
	uc := newUseCases(t)
	g := setupGroup(t, uc, "alice", "bob")
	a := offerActivity(t, uc, g.ID)

	t.Run("cannot complete an offered activity", func(t *testing.T) {
		_, err := uc.Claim.Complete(ctx, a.ID, "alice")
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, types.ErrInvalidState)).True()
	})

	_, err := uc.Claim.Accept(ctx, a.ID, "alice", "")
	gt.NoError(t, err).Required()

	t.Run("only the claimant can complete", func(t *testing.T) {
		_, err := uc.Claim.Complete(ctx, a.ID, "bob")
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, types.ErrInvalidState)).True()
	})

	t.Run("claimant completes", func(t *testing.T) {
		done, err := uc.Claim.Complete(ctx, a.ID, "alice")
		gt.NoError(t, err).Required()
		gt.Value(t, done.Status).Equal(types.ActivityStatusCompleted)
		gt.Value(t, done.Claimant()).Equal(types.UserID("alice"))
	})

	t.Run("completed is terminal", func(t *testing.T) {
		_, err := uc.Claim.Accept(ctx, a.ID, "bob", "")
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, types.ErrInvalidState)).True()
	})
}

func TestClaim_SoftDeleteLifecycle(t *testing.T) {
	ctx := context.Background()
	uc := newUseCases(t)
	g := setupGroup(t, uc, "alice")
	a := offerActivity(t, uc, g.ID)

	gt.NoError(t, uc.Claim.SoftDeleteActivity(ctx, a.ID, admin)).Required()

	t.Run("deleted activity reads as not found", func(t *testing.T) {
		_, err := uc.Claim.GetActivity(ctx, a.ID)
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, types.ErrNotFound)).True()
	})

	t.Run("deleted activity cannot be claimed", func(t *testing.T) {
		_, err := uc.Claim.Accept(ctx, a.ID, "alice", "")
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, types.ErrNotFound)).True()
	})

	t.Run("restore revives it", func(t *testing.T) {
		gt.NoError(t, uc.Claim.RestoreActivity(ctx, a.ID, admin)).Required()

		claimed, err := uc.Claim.Accept(ctx, a.ID, "alice", "")
		gt.NoError(t, err).Required()
		gt.Value(t, claimed.Status).Equal(types.ActivityStatusClaimed)
	})

	t.Run("hard delete removes decisions too", func(t *testing.T) {
		gt.NoError(t, uc.Claim.HardDeleteActivity(ctx, a.ID)).Required()

		_, err := uc.Claim.GetActivity(ctx, a.ID)
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, types.ErrNotFound)).True()
	})
}

type recordingNotifier struct {
	events chan string
}

func (n *recordingNotifier) ActivityOffered(ctx context.Context, a *model.Activity, g *model.WorkGroup) error {
	n.events <- "offered"
	return nil
}

func (n *recordingNotifier) ActivityClaimed(ctx context.Context, a *model.Activity, userID types.UserID) error {
	n.events <- "claimed"
	return nil
}

func (n *recordingNotifier) ActivityRejected(ctx context.Context, a *model.Activity, userID types.UserID) error {
	n.events <- "rejected"
	return nil
}

func (n *recordingNotifier) ActivityCompleted(ctx context.Context, a *model.Activity, userID types.UserID) error {
	n.events <- "completed"
	return nil
}

func waitEvent(t *testing.T, n *recordingNotifier) string {
	t.Helper()
	select {
	case ev := <-n.events:
		return ev
	case <-time.After(time.Second):
		t.Fatal("no notification arrived")
		return ""
	}
}

func TestClaim_Notifications(t *testing.T) {
	ctx := context.Background()
	n := &recordingNotifier{events: make(chan string, 8)}
	uc := usecase.New(memory.New(), usecase.WithNotifier(n))

	g := setupGroup(t, uc, "u1", "u2")

	t.Run("offer and claim are announced", func(t *testing.T) {
		a := offerActivity(t, uc, g.ID)
		gt.Value(t, waitEvent(t, n)).Equal("offered")

		_, err := uc.Claim.Accept(ctx, a.ID, "u1", "")
		gt.NoError(t, err).Required()
		gt.Value(t, waitEvent(t, n)).Equal("claimed")

		_, err = uc.Claim.Complete(ctx, a.ID, "u1")
		gt.NoError(t, err).Required()
		gt.Value(t, waitEvent(t, n)).Equal("completed")
	})

	t.Run("only the terminal rejection is announced", func(t *testing.T) {
		a := offerActivity(t, uc, g.ID)
		gt.Value(t, waitEvent(t, n)).Equal("offered")

		partial, err := uc.Claim.Reject(ctx, a.ID, "u1", "busy")
		gt.NoError(t, err).Required()
		gt.Value(t, partial.Status).Equal(types.ActivityStatusOffered)

		final, err := uc.Claim.Reject(ctx, a.ID, "u2", "busy")
		gt.NoError(t, err).Required()
		gt.Value(t, final.Status).Equal(types.ActivityStatusRejected)
		gt.Value(t, waitEvent(t, n)).Equal("rejected")

		select {
		case ev := <-n.events:
			t.Fatalf("unexpected extra notification: %s", ev)
		default:
		}
	})
}
