package repository_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/caseops/workbasket/pkg/domain/interfaces"
	"github.com/caseops/workbasket/pkg/domain/model"
	"github.com/caseops/workbasket/pkg/domain/types"
	"github.com/caseops/workbasket/pkg/repository/firestore"
	"github.com/caseops/workbasket/pkg/repository/memory"
	"github.com/m-mizutani/gt"
)

func offerToGroup(t *testing.T, repo interfaces.Repository, members ...types.UserID) (*model.Activity, *model.WorkGroup) {
	t.Helper()
	ctx := context.Background()

	g := newGroup("G-"+types.NewWorkGroupID().String()[:8], "Group "+types.NewWorkGroupID().String()[:8], members...)
	_, err := repo.WorkGroup().Create(ctx, g)
	gt.NoError(t, err).Required()

	a, err := repo.Activity().Create(ctx, &model.Activity{
		Kind:        types.ActivityKindCase,
		CaseID:      42,
		WorkGroupID: &g.ID,
		Status:      types.ActivityStatusOffered,
		CreatedBy:   "system",
	})
	gt.NoError(t, err).Required()

	return a, g
}

func runActivityRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Create assigns auto-increment IDs", func(t *testing.T) {
		repo := newRepo(t)
		a1, _ := offerToGroup(t, repo, "U001")
		a2, _ := offerToGroup(t, repo, "U001")

		gt.Number(t, a1.ID).NotEqual(int64(0))
		gt.Value(t, a2.ID).NotEqual(a1.ID)
	})

	t.Run("directly assigned activity is born claimed with a decision record", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		assignee := types.UserID("U777")
		a, err := repo.Activity().Create(ctx, &model.Activity{
			Kind:       types.ActivityKindMember,
			MemberID:   7,
			AssigneeID: &assignee,
			ReferTo:    &assignee,
			Status:     types.ActivityStatusClaimed,
			CreatedBy:  "system",
		})
		gt.NoError(t, err).Required()

		gt.Bool(t, a.ClaimedBy(assignee)).True()

		decisions, err := repo.Activity().Decisions(ctx, a.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, decisions).Length(1)
		gt.Value(t, decisions[0].Kind).Equal(types.DecisionAccepted)
	})

	t.Run("Claim transitions offered to claimed and records acceptance", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		a, _ := offerToGroup(t, repo, "U001", "U002")

		claimed, err := repo.Activity().Claim(ctx, a.ID, "U001", "taking this")
		gt.NoError(t, err).Required()
		gt.Value(t, claimed.Status).Equal(types.ActivityStatusClaimed)
		gt.Bool(t, claimed.ClaimedBy("U001")).True()

		decisions, err := repo.Activity().Decisions(ctx, a.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, decisions).Length(1)
		gt.Value(t, decisions[0].UserID).Equal(types.UserID("U001"))
		gt.Value(t, decisions[0].Kind).Equal(types.DecisionAccepted)
		gt.Value(t, decisions[0].Comment).Equal("taking this")
	})

	t.Run("re-claim by the claimant is idempotent", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		a, _ := offerToGroup(t, repo, "U001", "U002")

		first, err := repo.Activity().Claim(ctx, a.ID, "U001", "")
		gt.NoError(t, err).Required()

		second, err := repo.Activity().Claim(ctx, a.ID, "U001", "again")
		gt.NoError(t, err).Required()
		gt.Value(t, second.Status).Equal(types.ActivityStatusClaimed)
		gt.Bool(t, second.UpdatedAt.Equal(first.UpdatedAt)).True()

		decisions, err := repo.Activity().Decisions(ctx, a.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, decisions).Length(1)
	})

	t.Run("Claim of an item held by another user fails with ErrInvalidState", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		a, _ := offerToGroup(t, repo, "U001", "U002", "U003")

		_, err := repo.Activity().Claim(ctx, a.ID, "U001", "")
		gt.NoError(t, err).Required()

		_, err = repo.Activity().Claim(ctx, a.ID, "U003", "")
		gt.Error(t, err).Is(types.ErrInvalidState)
	})

	t.Run("Claim of a missing or deleted item fails with ErrNotFound", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Activity().Claim(ctx, 99999999, "U001", "")
		gt.Error(t, err).Is(types.ErrNotFound)

		a, _ := offerToGroup(t, repo, "U001")
		now := time.Now().UTC()
		actor := types.UserID("admin")
		a.DeletedBy = &actor
		a.DeletedAt = &now
		_, err = repo.Activity().Update(ctx, a)
		gt.NoError(t, err).Required()

		_, err = repo.Activity().Claim(ctx, a.ID, "U001", "")
		gt.Error(t, err).Is(types.ErrNotFound)
	})

	t.Run("Claim after own rejection fails with ErrInvalidState", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		a, _ := offerToGroup(t, repo, "U001", "U002")

		_, err := repo.Activity().Reject(ctx, a.ID, "U001", "not mine")
		gt.NoError(t, err).Required()

		_, err = repo.Activity().Claim(ctx, a.ID, "U001", "changed my mind")
		gt.Error(t, err).Is(types.ErrInvalidState)
	})

	t.Run("Reject keeps the item offered until every eligible user rejects", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		a, _ := offerToGroup(t, repo, "U001", "U002", "U003")

		got, err := repo.Activity().Reject(ctx, a.ID, "U001", "")
		gt.NoError(t, err).Required()
		gt.Value(t, got.Status).Equal(types.ActivityStatusOffered)

		got, err = repo.Activity().Reject(ctx, a.ID, "U002", "")
		gt.NoError(t, err).Required()
		gt.Value(t, got.Status).Equal(types.ActivityStatusOffered)

		got, err = repo.Activity().Reject(ctx, a.ID, "U003", "")
		gt.NoError(t, err).Required()
		gt.Value(t, got.Status).Equal(types.ActivityStatusRejected)
		gt.Value(t, got.ReferTo).Nil()
	})

	t.Run("repeat rejection by one user does not advance the quorum", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		a, _ := offerToGroup(t, repo, "U001", "U002")

		for i := 0; i < 3; i++ {
			got, err := repo.Activity().Reject(ctx, a.ID, "U001", "still no")
			gt.NoError(t, err).Required()
			gt.Value(t, got.Status).Equal(types.ActivityStatusOffered)
		}

		decisions, err := repo.Activity().Decisions(ctx, a.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, decisions).Length(1)
	})

	t.Run("Reject of a terminal or claimed item fails with ErrInvalidState", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		a, _ := offerToGroup(t, repo, "U001")
		_, err := repo.Activity().Reject(ctx, a.ID, "U001", "")
		gt.NoError(t, err).Required()

		_, err = repo.Activity().Reject(ctx, a.ID, "U001", "")
		gt.Error(t, err).Is(types.ErrInvalidState)

		b, _ := offerToGroup(t, repo, "U001", "U002")
		_, err = repo.Activity().Claim(ctx, b.ID, "U001", "")
		gt.NoError(t, err).Required()

		_, err = repo.Activity().Reject(ctx, b.ID, "U002", "")
		gt.Error(t, err).Is(types.ErrInvalidState)
	})

	t.Run("rejection quorum never completes for an empty group", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		a, g := offerToGroup(t, repo, "U001")

		// Member leaves before deciding; the item stays offered forever
		g.RemoveMember("U001")
		_, err := repo.WorkGroup().Update(ctx, g)
		gt.NoError(t, err).Required()

		got, err := repo.Activity().Reject(ctx, a.ID, "U001", "")
		gt.NoError(t, err).Required()
		gt.Value(t, got.Status).Equal(types.ActivityStatusOffered)
	})

	t.Run("List filters by status, claimant, group, and deletion", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		a1, g1 := offerToGroup(t, repo, "U001", "U002")
		a2, _ := offerToGroup(t, repo, "U001", "U002")

		_, err := repo.Activity().Claim(ctx, a2.ID, "U002", "")
		gt.NoError(t, err).Required()

		offered, err := repo.Activity().List(ctx, interfaces.WithStatus(types.ActivityStatusOffered), interfaces.WithWorkGroups(*a1.WorkGroupID, *a2.WorkGroupID))
		gt.NoError(t, err).Required()
		gt.Array(t, offered).Length(1)
		gt.Value(t, offered[0].ID).Equal(a1.ID)

		claimed, err := repo.Activity().List(ctx, interfaces.WithClaimant("U002"))
		gt.NoError(t, err).Required()
		gt.Array(t, claimed).Length(1)
		gt.Value(t, claimed[0].ID).Equal(a2.ID)

		byGroup, err := repo.Activity().List(ctx, interfaces.WithWorkGroups(g1.ID))
		gt.NoError(t, err).Required()
		gt.Array(t, byGroup).Length(1)

		now := time.Now().UTC()
		actor := types.UserID("admin")
		a1.DeletedBy = &actor
		a1.DeletedAt = &now
		_, err = repo.Activity().Update(ctx, a1)
		gt.NoError(t, err).Required()

		visible, err := repo.Activity().List(ctx, interfaces.WithWorkGroups(g1.ID))
		gt.NoError(t, err).Required()
		gt.Array(t, visible).Length(0)

		all, err := repo.Activity().List(ctx, interfaces.WithWorkGroups(g1.ID), interfaces.WithDeleted())
		gt.NoError(t, err).Required()
		gt.Array(t, all).Length(1)
	})

	t.Run("HardDelete removes the activity and its decisions", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		a, _ := offerToGroup(t, repo, "U001", "U002")

		_, err := repo.Activity().Reject(ctx, a.ID, "U001", "")
		gt.NoError(t, err).Required()

		gt.NoError(t, repo.Activity().HardDelete(ctx, a.ID))

		_, err = repo.Activity().Get(ctx, a.ID)
		gt.Error(t, err).Is(types.ErrNotFound)

		decisions, err := repo.Activity().Decisions(ctx, a.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, decisions).Length(0)
	})

	t.Run("exactly one of N racing claims wins", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		const racers = 8
		members := make([]types.UserID, racers)
		for i := range members {
			members[i] = types.UserID(string(rune('A'+i)) + "-user")
		}
		a, _ := offerToGroup(t, repo, members...)

		var wg sync.WaitGroup
		errs := make([]error, racers)
		for i := 0; i < racers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = repo.Activity().Claim(ctx, a.ID, members[i], "")
			}(i)
		}
		wg.Wait()

		// A loser either raced the winner inside the conditional write
		// (ErrConflict) or observed the finished claim before writing
		// (ErrInvalidState); both are valid losses.
		winners := 0
		losers := 0
		for _, err := range errs {
			switch {
			case err == nil:
				winners++
			case errors.Is(err, types.ErrConflict), errors.Is(err, types.ErrInvalidState):
				losers++
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		gt.Number(t, winners).Equal(1)
		gt.Number(t, losers).Equal(racers - 1)

		final, err := repo.Activity().Get(ctx, a.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, final.Status).Equal(types.ActivityStatusClaimed)
		gt.Value(t, final.ReferTo).NotNil()

		decisions, err := repo.Activity().Decisions(ctx, a.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, decisions).Length(1)
	})

	t.Run("concurrent last rejecters still terminate the item", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		a, _ := offerToGroup(t, repo, "U001", "U002")

		var wg sync.WaitGroup
		for _, u := range []types.UserID{"U001", "U002"} {
			wg.Add(1)
			go func(u types.UserID) {
				defer wg.Done()
				_, err := repo.Activity().Reject(ctx, a.ID, u, "")
				gt.NoError(t, err)
			}(u)
		}
		wg.Wait()

		final, err := repo.Activity().Get(ctx, a.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, final.Status).Equal(types.ActivityStatusRejected)
	})
}

func TestActivityRepository_Memory(t *testing.T) {
	runActivityRepositoryTest(t, func(t *testing.T) interfaces.Repository {
		return memory.New()
	})
}

func TestActivityRepository_Firestore(t *testing.T) {
	projectID := os.Getenv("FIRESTORE_PROJECT_ID")
	if projectID == "" {
		t.Skip("FIRESTORE_PROJECT_ID not set")
	}

	runActivityRepositoryTest(t, func(t *testing.T) interfaces.Repository {
		repo, err := firestore.New(context.Background(), projectID, "",
			firestore.WithCollectionPrefix("test_"+types.NewWorkGroupID().String()[:8]+"_"))
		gt.NoError(t, err).Required()
		return repo
	})
}
