package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/caseops/workbasket/pkg/domain/types"
	"github.com/caseops/workbasket/pkg/repository/memory"
	"github.com/caseops/workbasket/pkg/usecase"
)

const admin = types.UserID("admin")

func newUseCases(t *testing.T) *usecase.UseCases {
	t.Helper()
	return usecase.New(memory.New())
}

func TestTopology_BasketUniqueness(t *testing.T) {
	ctx := context.Background()
	uc := newUseCases(t)

	first, err := uc.Topology.CreateBasket(ctx, admin, "CLAIMS", "Claims intake", "", nil)
	gt.NoError(t, err).Required()

	t.Run("duplicate code is rejected case-insensitively", func(t *testing.T) {
		_, err := uc.Topology.CreateBasket(ctx, admin, "claims", "Other name", "", nil)
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, types.ErrDuplicateCode)).True()
	})

	t.Run("duplicate name is rejected", func(t *testing.T) {
		_, err := uc.Topology.CreateBasket(ctx, admin, "OTHER", "Claims Intake", "", nil)
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, types.ErrDuplicateName)).True()
	})

	t.Run("update keeping own code succeeds", func(t *testing.T) {
		updated, err := uc.Topology.UpdateBasket(ctx, admin, first.ID, "CLAIMS", "Claims intake", "updated", nil)
		gt.NoError(t, err).Required()
		gt.Value(t, updated.Description).Equal("updated")
	})

	t.Run("deleting frees the code for reuse", func(t *testing.T) {
		gt.NoError(t, uc.Topology.SoftDeleteBasket(ctx, first.ID, admin)).Required()

		reused, err := uc.Topology.CreateBasket(ctx, admin, "CLAIMS", "Claims intake", "", nil)
		gt.NoError(t, err).Required()
		gt.Value(t, reused.ID).NotEqual(first.ID)
	})

	t.Run("restore fails while the code is taken", func(t *testing.T) {
		err := uc.Topology.RestoreBasket(ctx, first.ID, admin)
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, types.ErrDuplicateCode)).True()
	})
}

func TestTopology_GroupUniqueness(t *testing.T) {
	ctx := context.Background()
	uc := newUseCases(t)

	_, err := uc.Topology.CreateGroup(ctx, admin, "NUR", "Nurse triage", "", true, false)
	gt.NoError(t, err).Required()

	_, err = uc.Topology.CreateGroup(ctx, admin, "NUR", "Another nurse group", "", false, false)
	gt.Error(t, err)
	gt.Bool(t, errors.Is(err, types.ErrDuplicateCode)).True()

	_, err = uc.Topology.CreateGroup(ctx, admin, "NUR2", "nurse TRIAGE", "", false, false)
	gt.Error(t, err)
	gt.Bool(t, errors.Is(err, types.ErrDuplicateName)).True()
}

func TestTopology_Membership(t *testing.T) {
	ctx := context.Background()
	uc := newUseCases(t)

	g, err := uc.Topology.CreateGroup(ctx, admin, "TRIAGE", "Triage", "", false, true)
	gt.NoError(t, err).Required()

	t.Run("add member", func(t *testing.T) {
		updated, err := uc.Topology.AddGroupMember(ctx, admin, g.ID, "alice")
		gt.NoError(t, err).Required()
		gt.Array(t, updated.Members).Length(1)
	})

	t.Run("adding again is a no-op", func(t *testing.T) {
		updated, err := uc.Topology.AddGroupMember(ctx, admin, g.ID, "alice")
		gt.NoError(t, err).Required()
		gt.Array(t, updated.Members).Length(1)
	})

	t.Run("eligible users reflect membership", func(t *testing.T) {
		_, err := uc.Topology.AddGroupMember(ctx, admin, g.ID, "bob")
		gt.NoError(t, err).Required()

		members, err := uc.Topology.ResolveEligibleUsers(ctx, g.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, members).Length(2)
	})

	t.Run("remove member", func(t *testing.T) {
		updated, err := uc.Topology.RemoveGroupMember(ctx, admin, g.ID, "alice")
		gt.NoError(t, err).Required()
		gt.Array(t, updated.Members).Length(1)
		gt.Value(t, updated.Members[0]).Equal(types.UserID("bob"))
	})

	t.Run("user groups resolve by membership", func(t *testing.T) {
		groups, err := uc.Topology.GetUserGroups(ctx, "bob")
		gt.NoError(t, err).Required()
		gt.Array(t, groups).Length(1)

		none, err := uc.Topology.GetUserGroups(ctx, "alice")
		gt.NoError(t, err).Required()
		gt.Array(t, none).Length(0)
	})
}

func TestTopology_SoftDeleteAndRestore(t *testing.T) {
	ctx := context.Background()
	uc := newUseCases(t)

	g, err := uc.Topology.CreateGroup(ctx, admin, "EPH", "Ephemeral", "", false, false)
	gt.NoError(t, err).Required()

	gt.NoError(t, uc.Topology.SoftDeleteGroup(ctx, g.ID, admin)).Required()

	t.Run("deleted group is hidden from listing", func(t *testing.T) {
		groups, err := uc.Topology.ListGroups(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, groups).Length(0)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		gt.NoError(t, uc.Topology.SoftDeleteGroup(ctx, g.ID, admin))
	})

	t.Run("membership changes on a deleted group fail", func(t *testing.T) {
		_, err := uc.Topology.AddGroupMember(ctx, admin, g.ID, "alice")
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, types.ErrNotFound)).True()
	})

	t.Run("restore brings it back", func(t *testing.T) {
		gt.NoError(t, uc.Topology.RestoreGroup(ctx, g.ID, admin)).Required()

		groups, err := uc.Topology.ListGroups(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, groups).Length(1)
	})
}

func TestTopology_BasketGroupReferences(t *testing.T) {
	ctx := context.Background()
	uc := newUseCases(t)

	_, err := uc.Topology.CreateBasket(ctx, admin, "POOL", "Pool", "",
		[]types.WorkGroupID{types.NewWorkGroupID()})
	gt.Error(t, err)

	g, err := uc.Topology.CreateGroup(ctx, admin, "REAL", "Real group", "", false, false)
	gt.NoError(t, err).Required()

	b, err := uc.Topology.CreateBasket(ctx, admin, "POOL", "Pool", "",
		[]types.WorkGroupID{g.ID})
	gt.NoError(t, err).Required()
	gt.Array(t, b.GroupIDs).Length(1)
}
