package usecase_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/caseops/workbasket/pkg/domain/interfaces"
	"github.com/caseops/workbasket/pkg/domain/types"
	"github.com/caseops/workbasket/pkg/usecase"
)

func TestQueue_PendingForUser(t *testing.T) {
	ctx := context.Background()
	uc := newUseCases(t)

	g := setupGroup(t, uc, "alice", "bob")
	other := setupGroup(t, uc, "carol")

	inGroup := offerActivity(t, uc, g.ID)
	elsewhere := offerActivity(t, uc, other.ID)

	t.Run("members see offers routed to their groups", func(t *testing.T) {
		pending, err := uc.Queue.PendingForUser(ctx, "alice")
		gt.NoError(t, err).Required()
		gt.Array(t, pending).Length(1)
		gt.Value(t, pending[0].ID).Equal(inGroup.ID)
	})

	t.Run("non-members see nothing", func(t *testing.T) {
		pending, err := uc.Queue.PendingForUser(ctx, "mallory")
		gt.NoError(t, err).Required()
		gt.Array(t, pending).Length(0)
	})

	t.Run("other group's offer stays invisible", func(t *testing.T) {
		pending, err := uc.Queue.PendingForUser(ctx, "carol")
		gt.NoError(t, err).Required()
		gt.Array(t, pending).Length(1)
		gt.Value(t, pending[0].ID).Equal(elsewhere.ID)
	})

	t.Run("own rejection hides the offer permanently", func(t *testing.T) {
		_, err := uc.Claim.Reject(ctx, inGroup.ID, "alice", "pass")
		gt.NoError(t, err).Required()

		pending, err := uc.Queue.PendingForUser(ctx, "alice")
		gt.NoError(t, err).Required()
		gt.Array(t, pending).Length(0)

		// Other members still see it
		pending, err = uc.Queue.PendingForUser(ctx, "bob")
		gt.NoError(t, err).Required()
		gt.Array(t, pending).Length(1)
	})

	t.Run("claimed offer disappears from everyone's pending", func(t *testing.T) {
		_, err := uc.Claim.Accept(ctx, inGroup.ID, "bob", "")
		gt.NoError(t, err).Required()

		pending, err := uc.Queue.PendingForUser(ctx, "bob")
		gt.NoError(t, err).Required()
		gt.Array(t, pending).Length(0)
	})
}

func TestQueue_AcceptedForUser(t *testing.T) {
	ctx := context.Background()
	uc := newUseCases(t)

	g := setupGroup(t, uc, "alice", "bob")
	first := offerActivity(t, uc, g.ID)
	second := offerActivity(t, uc, g.ID)

	_, err := uc.Claim.Accept(ctx, first.ID, "alice", "")
	gt.NoError(t, err).Required()
	_, err = uc.Claim.Accept(ctx, second.ID, "bob", "")
	gt.NoError(t, err).Required()

	t.Run("each user sees only their claims", func(t *testing.T) {
		mine, err := uc.Queue.AcceptedForUser(ctx, "alice")
		gt.NoError(t, err).Required()
		gt.Array(t, mine).Length(1)
		gt.Value(t, mine[0].ID).Equal(first.ID)

		theirs, err := uc.Queue.AcceptedForUser(ctx, "bob")
		gt.NoError(t, err).Required()
		gt.Array(t, theirs).Length(1)
		gt.Value(t, theirs[0].ID).Equal(second.ID)
	})

	t.Run("filters narrow the view", func(t *testing.T) {
		none, err := uc.Queue.AcceptedForUser(ctx, "alice",
			interfaces.WithKind(types.ActivityKindMember))
		gt.NoError(t, err).Required()
		gt.Array(t, none).Length(0)

		some, err := uc.Queue.AcceptedForUser(ctx, "alice",
			interfaces.WithKind(types.ActivityKindCase))
		gt.NoError(t, err).Required()
		gt.Array(t, some).Length(1)
	})

	t.Run("direct assignment shows up as accepted", func(t *testing.T) {
		assignee := types.UserID("carol")
		a, err := uc.Claim.CreateActivity(ctx, admin, usecase.CreateActivityInput{
			Kind:       types.ActivityKindMember,
			MemberID:   9,
			AssigneeID: &assignee,
		})
		gt.NoError(t, err).Required()

		accepted, err := uc.Queue.AcceptedForUser(ctx, "carol")
		gt.NoError(t, err).Required()
		gt.Array(t, accepted).Length(1)
		gt.Value(t, accepted[0].ID).Equal(a.ID)
	})
}
