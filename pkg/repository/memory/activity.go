package memory

import (
	"context"
	"sync"
	"time"

	"github.com/caseops/workbasket/pkg/domain/interfaces"
	"github.com/caseops/workbasket/pkg/domain/model"
	"github.com/caseops/workbasket/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// activityRepository keeps activities and their decision records under one
// mutex so that claim transitions and quorum checks are serialized, the same
// guarantee the Firestore implementation gets from transactions.
//
// Claim deliberately splits validation (read lock) from the conditional
// transition (write lock): a caller that saw the activity OFFERED and then
// loses the write to a concurrent claimant gets ErrConflict, while a caller
// that finds it already held gets ErrInvalidState. This mirrors the
// validate-then-conditional-update shape of the durable backends.
type activityRepository struct {
	mu        sync.RWMutex
	groups    *workGroupRepository
	items     map[int64]*model.Activity
	decisions map[int64]map[types.UserID]*model.DecisionRecord
	nextID    int64
}

func newActivityRepository(groups *workGroupRepository) *activityRepository {
	return &activityRepository{
		groups:    groups,
		items:     make(map[int64]*model.Activity),
		decisions: make(map[int64]map[types.UserID]*model.DecisionRecord),
		nextID:    1,
	}
}

// copyActivity creates a deep copy of an activity
func copyActivity(a *model.Activity) *model.Activity {
	copied := *a
	if a.AssigneeID != nil {
		v := *a.AssigneeID
		copied.AssigneeID = &v
	}
	if a.WorkGroupID != nil {
		v := *a.WorkGroupID
		copied.WorkGroupID = &v
	}
	if a.ReferTo != nil {
		v := *a.ReferTo
		copied.ReferTo = &v
	}
	if a.DeletedBy != nil {
		v := *a.DeletedBy
		copied.DeletedBy = &v
	}
	if a.DeletedAt != nil {
		v := *a.DeletedAt
		copied.DeletedAt = &v
	}
	return &copied
}

func copyDecision(d *model.DecisionRecord) *model.DecisionRecord {
	copied := *d
	return &copied
}

func (r *activityRepository) Create(ctx context.Context, a *model.Activity) (*model.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	created := copyActivity(a)
	created.ID = r.nextID
	created.CreatedAt = now
	created.UpdatedAt = now
	r.nextID++

	r.items[created.ID] = created

	// A directly-assigned activity is born claimed; record the implicit
	// acceptance so decision history stays complete.
	if created.Status == types.ActivityStatusClaimed && created.ReferTo != nil {
		r.putDecisionLocked(created.ID, *created.ReferTo, types.DecisionAccepted, created.Comment, now)
	}

	return copyActivity(created), nil
}

func (r *activityRepository) Get(ctx context.Context, id int64) (*model.Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, exists := r.items[id]
	if !exists {
		return nil, goerr.Wrap(types.ErrNotFound, "activity not found", goerr.V("id", id))
	}

	return copyActivity(a), nil
}

func (r *activityRepository) List(ctx context.Context, opts ...interfaces.ListActivityOption) ([]*model.Activity, error) {
	cfg := interfaces.BuildListActivityConfig(opts...)

	r.mu.RLock()
	defer r.mu.RUnlock()

	activities := make([]*model.Activity, 0)
	for _, a := range r.items {
		if cfg.Match(a) {
			activities = append(activities, copyActivity(a))
		}
	}

	return activities, nil
}

func (r *activityRepository) Update(ctx context.Context, a *model.Activity) (*model.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.items[a.ID]
	if !exists {
		return nil, goerr.Wrap(types.ErrNotFound, "activity not found", goerr.V("id", a.ID))
	}

	updated := copyActivity(a)
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	r.items[updated.ID] = updated
	return copyActivity(updated), nil
}

func (r *activityRepository) HardDelete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[id]; !exists {
		return goerr.Wrap(types.ErrNotFound, "activity not found", goerr.V("id", id))
	}

	delete(r.items, id)
	delete(r.decisions, id)
	return nil
}

// validateClaim checks claim preconditions under the read lock. Returns the
// activity copy to hand back for an idempotent re-claim, or nil to proceed.
func (r *activityRepository) validateClaim(id int64, userID types.UserID) (*model.Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, exists := r.items[id]
	if !exists || a.Deleted() {
		return nil, goerr.Wrap(types.ErrNotFound, "activity not found", goerr.V("id", id))
	}

	if a.Status.IsTerminal() {
		return nil, goerr.Wrap(types.ErrInvalidState, "activity is in a terminal state",
			goerr.V("id", id), goerr.V("status", a.Status))
	}

	if a.Status == types.ActivityStatusClaimed {
		if a.ClaimedBy(userID) {
			return copyActivity(a), nil
		}
		return nil, goerr.Wrap(types.ErrInvalidState, "activity is already claimed by another user",
			goerr.V("id", id), goerr.V("claimant", a.Claimant()))
	}

	// A user who has already declined cannot change their mind and claim
	if d, ok := r.decisions[id][userID]; ok && d.Kind == types.DecisionRejected {
		return nil, goerr.Wrap(types.ErrInvalidState, "user has already rejected this activity",
			goerr.V("id", id), goerr.V("user_id", userID))
	}

	return nil, nil
}

func (r *activityRepository) Claim(ctx context.Context, id int64, userID types.UserID, comment string) (*model.Activity, error) {
	if err := ctx.Err(); err != nil {
		return nil, goerr.Wrap(err, "claim canceled", goerr.V("id", id))
	}

	if held, err := r.validateClaim(id, userID); err != nil {
		return nil, err
	} else if held != nil {
		return held, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	a, exists := r.items[id]
	if !exists || a.Deleted() {
		return nil, goerr.Wrap(types.ErrNotFound, "activity not found", goerr.V("id", id))
	}

	// Conditional transition: only succeeds while no claimant is persisted
	if a.ReferTo != nil {
		if a.ClaimedBy(userID) {
			return copyActivity(a), nil
		}
		return nil, goerr.Wrap(types.ErrConflict, "activity was claimed by another user",
			goerr.V("id", id), goerr.V("claimant", a.Claimant()))
	}

	if a.Status != types.ActivityStatusOffered {
		return nil, goerr.Wrap(types.ErrInvalidState, "activity is not offered",
			goerr.V("id", id), goerr.V("status", a.Status))
	}

	now := time.Now().UTC()
	claimant := userID
	a.ReferTo = &claimant
	a.Status = types.ActivityStatusClaimed
	a.UpdatedBy = userID
	a.UpdatedAt = now
	r.putDecisionLocked(id, userID, types.DecisionAccepted, comment, now)

	return copyActivity(a), nil
}

func (r *activityRepository) Reject(ctx context.Context, id int64, userID types.UserID, comment string) (*model.Activity, error) {
	if err := ctx.Err(); err != nil {
		return nil, goerr.Wrap(err, "reject canceled", goerr.V("id", id))
	}

	// Decision write and quorum evaluation stay under one lock so that two
	// near-simultaneous last rejecters cannot both miss the terminal
	// transition.
	r.mu.Lock()
	defer r.mu.Unlock()

	a, exists := r.items[id]
	if !exists || a.Deleted() {
		return nil, goerr.Wrap(types.ErrNotFound, "activity not found", goerr.V("id", id))
	}

	if a.Status != types.ActivityStatusOffered {
		return nil, goerr.Wrap(types.ErrInvalidState, "activity is not offered",
			goerr.V("id", id), goerr.V("status", a.Status))
	}

	if a.WorkGroupID == nil {
		return nil, goerr.Wrap(types.ErrInvalidState, "activity is not routed to a work group",
			goerr.V("id", id))
	}

	now := time.Now().UTC()
	r.putDecisionLocked(id, userID, types.DecisionRejected, comment, now)

	// Eligibility is resolved from current membership at decision time
	eligible, err := r.groups.members(*a.WorkGroupID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to resolve eligible users", goerr.V("id", id))
	}

	if len(eligible) > 0 && allRejected(eligible, r.decisions[id]) {
		a.Status = types.ActivityStatusRejected
		a.ReferTo = nil
		a.UpdatedBy = userID
		a.UpdatedAt = now
	}

	return copyActivity(a), nil
}

// allRejected reports whether every eligible user has a rejected decision
func allRejected(eligible []types.UserID, decisions map[types.UserID]*model.DecisionRecord) bool {
	for _, u := range eligible {
		d, ok := decisions[u]
		if !ok || d.Kind != types.DecisionRejected {
			return false
		}
	}
	return true
}

func (r *activityRepository) putDecisionLocked(id int64, userID types.UserID, kind types.DecisionKind, comment string, decidedAt time.Time) {
	if r.decisions[id] == nil {
		r.decisions[id] = make(map[types.UserID]*model.DecisionRecord)
	}

	// Replace any prior decision by the same user; never duplicate
	if existing, ok := r.decisions[id][userID]; ok {
		existing.Kind = kind
		existing.Comment = comment
		existing.DecidedAt = decidedAt
		return
	}

	r.decisions[id][userID] = &model.DecisionRecord{
		ID:         types.NewDecisionID(),
		ActivityID: id,
		UserID:     userID,
		Kind:       kind,
		Comment:    comment,
		DecidedAt:  decidedAt,
	}
}

func (r *activityRepository) Decisions(ctx context.Context, id int64) ([]*model.DecisionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]*model.DecisionRecord, 0, len(r.decisions[id]))
	for _, d := range r.decisions[id] {
		records = append(records, copyDecision(d))
	}

	return records, nil
}

func (r *activityRepository) ListDecisionsByUser(ctx context.Context, userID types.UserID) ([]*model.DecisionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]*model.DecisionRecord, 0)
	for _, byUser := range r.decisions {
		if d, ok := byUser[userID]; ok {
			records = append(records, copyDecision(d))
		}
	}

	return records, nil
}
