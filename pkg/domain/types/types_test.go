package types_test

import (
	"testing"

	"github.com/caseops/workbasket/pkg/domain/types"
	"github.com/m-mizutani/gt"
)

func TestActivityStatus(t *testing.T) {
	t.Run("valid statuses", func(t *testing.T) {
		for _, s := range types.AllActivityStatuses() {
			gt.Bool(t, s.IsValid()).True()
		}
	})

	t.Run("invalid status", func(t *testing.T) {
		gt.Bool(t, types.ActivityStatus("PENDING").IsValid()).False()
	})

	t.Run("parse", func(t *testing.T) {
		s, err := types.ParseActivityStatus("OFFERED")
		gt.NoError(t, err)
		gt.Value(t, s).Equal(types.ActivityStatusOffered)

		_, err = types.ParseActivityStatus("offered")
		gt.Value(t, err).NotNil()
	})

	t.Run("terminal states", func(t *testing.T) {
		gt.Bool(t, types.ActivityStatusRejected.IsTerminal()).True()
		gt.Bool(t, types.ActivityStatusCompleted.IsTerminal()).True()
		gt.Bool(t, types.ActivityStatusOffered.IsTerminal()).False()
		gt.Bool(t, types.ActivityStatusClaimed.IsTerminal()).False()
	})
}

func TestActivityKind(t *testing.T) {
	t.Run("valid kinds", func(t *testing.T) {
		for _, k := range types.AllActivityKinds() {
			gt.Bool(t, k.IsValid()).True()
		}
	})

	t.Run("parse invalid", func(t *testing.T) {
		_, err := types.ParseActivityKind("TICKET")
		gt.Value(t, err).NotNil()
	})
}

func TestDecisionKind(t *testing.T) {
	t.Run("valid kinds", func(t *testing.T) {
		for _, k := range types.AllDecisionKinds() {
			gt.Bool(t, k.IsValid()).True()
		}
	})

	t.Run("parse", func(t *testing.T) {
		k, err := types.ParseDecisionKind("REJECTED")
		gt.NoError(t, err)
		gt.Value(t, k).Equal(types.DecisionRejected)
	})
}

func TestIDs(t *testing.T) {
	t.Run("generated IDs are unique", func(t *testing.T) {
		gt.Value(t, types.NewWorkGroupID()).NotEqual(types.NewWorkGroupID())
		gt.Value(t, types.NewWorkBasketID()).NotEqual(types.NewWorkBasketID())
		gt.Value(t, types.NewDecisionID()).NotEqual(types.NewDecisionID())
	})

	t.Run("empty user ID is invalid", func(t *testing.T) {
		gt.Value(t, types.UserID("").Validate()).NotNil()
		gt.NoError(t, types.UserID("U123").Validate())
	})
}
