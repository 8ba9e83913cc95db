package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/caseops/workbasket/pkg/domain/interfaces"
	"github.com/caseops/workbasket/pkg/domain/model"
	"github.com/caseops/workbasket/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type activityRepository struct {
	client           *firestore.Client
	groups           *workGroupRepository
	collectionPrefix string
}

func newActivityRepository(client *firestore.Client, groups *workGroupRepository) *activityRepository {
	return &activityRepository{
		client:           client,
		groups:           groups,
		collectionPrefix: "",
	}
}

func (r *activityRepository) activitiesCollection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_activities"
	}
	return "activities"
}

func (r *activityRepository) decisionsCollection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_decisions"
	}
	return "decisions"
}

func (r *activityRepository) countersCollection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_counters"
	}
	return "counters"
}

func (r *activityRepository) activityDocRef(id int64) *firestore.DocumentRef {
	return r.client.Collection(r.activitiesCollection()).Doc(fmt.Sprintf("%d", id))
}

// decisionDocRef derives a deterministic document ID from (activity, user),
// which makes the at-most-one-decision-per-user invariant a storage property
// rather than application bookkeeping.
func (r *activityRepository) decisionDocRef(activityID int64, userID types.UserID) *firestore.DocumentRef {
	return r.client.Collection(r.decisionsCollection()).Doc(fmt.Sprintf("%d_%s", activityID, userID))
}

// activityDoc is the Firestore document representation of model.Activity.
// Nullable references are stored as empty strings so equality queries stay
// simple.
type activityDoc struct {
	ID          int64      `firestore:"ID"`
	Kind        string     `firestore:"Kind"`
	CaseID      int64      `firestore:"CaseID"`
	MemberID    int64      `firestore:"MemberID"`
	Level       string     `firestore:"Level"`
	AssigneeID  string     `firestore:"AssigneeID"`
	WorkGroupID string     `firestore:"WorkGroupID"`
	ReferTo     string     `firestore:"ReferTo"`
	Status      string     `firestore:"Status"`
	Comment     string     `firestore:"Comment"`
	CreatedBy   string     `firestore:"CreatedBy"`
	CreatedAt   time.Time  `firestore:"CreatedAt"`
	UpdatedBy   string     `firestore:"UpdatedBy"`
	UpdatedAt   time.Time  `firestore:"UpdatedAt"`
	DeletedBy   string     `firestore:"DeletedBy"`
	DeletedAt   *time.Time `firestore:"DeletedAt"`
}

func toActivityDoc(a *model.Activity) *activityDoc {
	doc := &activityDoc{
		ID:        a.ID,
		Kind:      a.Kind.String(),
		CaseID:    a.CaseID,
		MemberID:  a.MemberID,
		Level:     a.Level,
		Status:    a.Status.String(),
		Comment:   a.Comment,
		CreatedBy: a.CreatedBy.String(),
		CreatedAt: a.CreatedAt,
		UpdatedBy: a.UpdatedBy.String(),
		UpdatedAt: a.UpdatedAt,
		DeletedAt: a.DeletedAt,
	}
	if a.AssigneeID != nil {
		doc.AssigneeID = a.AssigneeID.String()
	}
	if a.WorkGroupID != nil {
		doc.WorkGroupID = a.WorkGroupID.String()
	}
	if a.ReferTo != nil {
		doc.ReferTo = a.ReferTo.String()
	}
	if a.DeletedBy != nil {
		doc.DeletedBy = a.DeletedBy.String()
	}
	return doc
}

func fromActivityDoc(d *activityDoc) *model.Activity {
	a := &model.Activity{
		ID:        d.ID,
		Kind:      types.ActivityKind(d.Kind),
		CaseID:    d.CaseID,
		MemberID:  d.MemberID,
		Level:     d.Level,
		Status:    types.ActivityStatus(d.Status),
		Comment:   d.Comment,
		CreatedBy: types.UserID(d.CreatedBy),
		CreatedAt: d.CreatedAt,
		UpdatedBy: types.UserID(d.UpdatedBy),
		UpdatedAt: d.UpdatedAt,
		DeletedAt: d.DeletedAt,
	}
	if d.AssigneeID != "" {
		v := types.UserID(d.AssigneeID)
		a.AssigneeID = &v
	}
	if d.WorkGroupID != "" {
		v := types.WorkGroupID(d.WorkGroupID)
		a.WorkGroupID = &v
	}
	if d.ReferTo != "" {
		v := types.UserID(d.ReferTo)
		a.ReferTo = &v
	}
	if d.DeletedBy != "" {
		v := types.UserID(d.DeletedBy)
		a.DeletedBy = &v
	}
	return a
}

// decisionDoc is the Firestore document representation of model.DecisionRecord
type decisionDoc struct {
	ID         string    `firestore:"ID"`
	ActivityID int64     `firestore:"ActivityID"`
	UserID     string    `firestore:"UserID"`
	Kind       string    `firestore:"Kind"`
	Comment    string    `firestore:"Comment"`
	DecidedAt  time.Time `firestore:"DecidedAt"`
}

func fromDecisionDoc(d *decisionDoc) *model.DecisionRecord {
	return &model.DecisionRecord{
		ID:         types.DecisionID(d.ID),
		ActivityID: d.ActivityID,
		UserID:     types.UserID(d.UserID),
		Kind:       types.DecisionKind(d.Kind),
		Comment:    d.Comment,
		DecidedAt:  d.DecidedAt,
	}
}

func (r *activityRepository) getNextID(ctx context.Context) (int64, error) {
	counterRef := r.client.Collection(r.countersCollection()).Doc("activity_counter")

	var nextID int64
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(counterRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				nextID = 1
				return tx.Set(counterRef, map[string]interface{}{
					"value": nextID,
				})
			}
			return goerr.Wrap(err, "failed to get counter")
		}

		currentValue, err := doc.DataAt("value")
		if err != nil {
			return goerr.Wrap(err, "failed to get counter value")
		}

		val, ok := currentValue.(int64)
		if !ok {
			return goerr.New("counter value is not of type int64", goerr.V("value", currentValue))
		}
		nextID = val + 1
		return tx.Update(counterRef, []firestore.Update{
			{Path: "value", Value: nextID},
		})
	})

	if err != nil {
		return 0, goerr.Wrap(err, "failed to get next ID")
	}

	return nextID, nil
}

func (r *activityRepository) Create(ctx context.Context, a *model.Activity) (*model.Activity, error) {
	nextID, err := r.getNextID(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get next ID")
	}

	now := time.Now().UTC()
	created := *a
	created.ID = nextID
	created.CreatedAt = now
	created.UpdatedAt = now

	if _, err := r.activityDocRef(created.ID).Set(ctx, toActivityDoc(&created)); err != nil {
		return nil, goerr.Wrap(err, "failed to create activity", goerr.V("id", created.ID))
	}

	// A directly-assigned activity is born claimed; record the implicit
	// acceptance so decision history stays complete.
	if created.Status == types.ActivityStatusClaimed && created.ReferTo != nil {
		dec := &decisionDoc{
			ID:         types.NewDecisionID().String(),
			ActivityID: created.ID,
			UserID:     created.ReferTo.String(),
			Kind:       types.DecisionAccepted.String(),
			Comment:    created.Comment,
			DecidedAt:  now,
		}
		if _, err := r.decisionDocRef(created.ID, *created.ReferTo).Set(ctx, dec); err != nil {
			return nil, goerr.Wrap(err, "failed to record implicit acceptance", goerr.V("id", created.ID))
		}
	}

	return &created, nil
}

func (r *activityRepository) Get(ctx context.Context, id int64) (*model.Activity, error) {
	docSnap, err := r.activityDocRef(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(types.ErrNotFound, "activity not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get activity", goerr.V("id", id))
	}

	var d activityDoc
	if err := docSnap.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to decode activity", goerr.V("id", id))
	}

	return fromActivityDoc(&d), nil
}

// List fetches activities and filters client-side. Scope filters that map to
// a single equality are pushed into the query; the rest of the option set is
// applied after decoding.
func (r *activityRepository) List(ctx context.Context, opts ...interfaces.ListActivityOption) ([]*model.Activity, error) {
	cfg := interfaces.BuildListActivityConfig(opts...)

	q := r.client.Collection(r.activitiesCollection()).Query
	if s := cfg.Status(); s != nil {
		q = q.Where("Status", "==", s.String())
	}
	if c := cfg.Claimant(); c != nil {
		q = q.Where("ReferTo", "==", c.String())
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	activities := make([]*model.Activity, 0)
	for {
		docSnap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate activities")
		}

		var d activityDoc
		if err := docSnap.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to decode activity", goerr.V("doc_id", docSnap.Ref.ID))
		}

		a := fromActivityDoc(&d)
		if cfg.Match(a) {
			activities = append(activities, a)
		}
	}

	return activities, nil
}

func (r *activityRepository) Update(ctx context.Context, a *model.Activity) (*model.Activity, error) {
	docRef := r.activityDocRef(a.ID)

	docSnap, err := docRef.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(types.ErrNotFound, "activity not found", goerr.V("id", a.ID))
		}
		return nil, goerr.Wrap(err, "failed to check activity existence", goerr.V("id", a.ID))
	}

	var existing activityDoc
	if err := docSnap.DataTo(&existing); err != nil {
		return nil, goerr.Wrap(err, "failed to decode activity", goerr.V("id", a.ID))
	}

	updated := *a
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	if _, err := docRef.Set(ctx, toActivityDoc(&updated)); err != nil {
		return nil, goerr.Wrap(err, "failed to update activity", goerr.V("id", a.ID))
	}

	return &updated, nil
}

func (r *activityRepository) HardDelete(ctx context.Context, id int64) error {
	docRef := r.activityDocRef(id)

	if _, err := docRef.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(types.ErrNotFound, "activity not found", goerr.V("id", id))
		}
		return goerr.Wrap(err, "failed to check activity existence", goerr.V("id", id))
	}

	// Remove decision records first so a crash between the two deletes
	// leaves the activity row discoverable for retry
	decIter := r.client.Collection(r.decisionsCollection()).Where("ActivityID", "==", id).Documents(ctx)
	defer decIter.Stop()
	for {
		docSnap, err := decIter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return goerr.Wrap(err, "failed to iterate decisions", goerr.V("id", id))
		}
		if _, err := docSnap.Ref.Delete(ctx); err != nil {
			return goerr.Wrap(err, "failed to delete decision", goerr.V("doc_id", docSnap.Ref.ID))
		}
	}

	if _, err := docRef.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete activity", goerr.V("id", id))
	}

	return nil
}

// validateClaim performs the pre-transaction read that separates stale-caller
// validation errors from genuine race conflicts. Returns the activity for an
// idempotent re-claim, or nil to proceed into the transaction.
func (r *activityRepository) validateClaim(ctx context.Context, id int64, userID types.UserID) (*model.Activity, error) {
	a, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Deleted() {
		return nil, goerr.Wrap(types.ErrNotFound, "activity is deleted", goerr.V("id", id))
	}

	if a.Status.IsTerminal() {
		return nil, goerr.Wrap(types.ErrInvalidState, "activity is in a terminal state",
			goerr.V("id", id), goerr.V("status", a.Status))
	}

	if a.Status == types.ActivityStatusClaimed {
		if a.ClaimedBy(userID) {
			return a, nil
		}
		return nil, goerr.Wrap(types.ErrInvalidState, "activity is already claimed by another user",
			goerr.V("id", id), goerr.V("claimant", a.Claimant()))
	}

	// A user who has already declined cannot change their mind and claim
	decSnap, err := r.decisionDocRef(id, userID).Get(ctx)
	if err == nil {
		var d decisionDoc
		if err := decSnap.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to decode decision", goerr.V("id", id))
		}
		if types.DecisionKind(d.Kind) == types.DecisionRejected {
			return nil, goerr.Wrap(types.ErrInvalidState, "user has already rejected this activity",
				goerr.V("id", id), goerr.V("user_id", userID))
		}
	} else if status.Code(err) != codes.NotFound {
		return nil, goerr.Wrap(err, "failed to get decision", goerr.V("id", id))
	}

	return nil, nil
}

func (r *activityRepository) Claim(ctx context.Context, id int64, userID types.UserID, comment string) (*model.Activity, error) {
	if held, err := r.validateClaim(ctx, id, userID); err != nil {
		return nil, err
	} else if held != nil {
		return held, nil
	}

	docRef := r.activityDocRef(id)
	var result *model.Activity

	// Validation above observed OFFERED, so any claimant seen inside the
	// transaction means a concurrent acceptor won in between: that is the
	// lost race, not a validation failure.
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docSnap, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(types.ErrNotFound, "activity not found", goerr.V("id", id))
			}
			return goerr.Wrap(err, "failed to get activity", goerr.V("id", id))
		}

		var d activityDoc
		if err := docSnap.DataTo(&d); err != nil {
			return goerr.Wrap(err, "failed to decode activity", goerr.V("id", id))
		}
		a := fromActivityDoc(&d)

		if a.Deleted() {
			return goerr.Wrap(types.ErrNotFound, "activity is deleted", goerr.V("id", id))
		}

		if a.ReferTo != nil {
			if a.ClaimedBy(userID) {
				result = a
				return nil
			}
			return goerr.Wrap(types.ErrConflict, "activity was claimed by another user",
				goerr.V("id", id), goerr.V("claimant", a.Claimant()))
		}

		if a.Status != types.ActivityStatusOffered {
			return goerr.Wrap(types.ErrInvalidState, "activity is not offered",
				goerr.V("id", id), goerr.V("status", a.Status))
		}

		now := time.Now().UTC()
		claimant := userID
		a.ReferTo = &claimant
		a.Status = types.ActivityStatusClaimed
		a.UpdatedBy = userID
		a.UpdatedAt = now

		if err := tx.Set(docRef, toActivityDoc(a)); err != nil {
			return goerr.Wrap(err, "failed to write claim", goerr.V("id", id))
		}

		dec := &decisionDoc{
			ID:         types.NewDecisionID().String(),
			ActivityID: id,
			UserID:     userID.String(),
			Kind:       types.DecisionAccepted.String(),
			Comment:    comment,
			DecidedAt:  now,
		}
		if err := tx.Set(r.decisionDocRef(id, userID), dec); err != nil {
			return goerr.Wrap(err, "failed to write decision", goerr.V("id", id))
		}

		result = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *activityRepository) Reject(ctx context.Context, id int64, userID types.UserID, comment string) (*model.Activity, error) {
	docRef := r.activityDocRef(id)
	var result *model.Activity

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docSnap, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(types.ErrNotFound, "activity not found", goerr.V("id", id))
			}
			return goerr.Wrap(err, "failed to get activity", goerr.V("id", id))
		}

		var d activityDoc
		if err := docSnap.DataTo(&d); err != nil {
			return goerr.Wrap(err, "failed to decode activity", goerr.V("id", id))
		}
		a := fromActivityDoc(&d)

		if a.Deleted() {
			return goerr.Wrap(types.ErrNotFound, "activity is deleted", goerr.V("id", id))
		}

		if a.Status != types.ActivityStatusOffered {
			return goerr.Wrap(types.ErrInvalidState, "activity is not offered",
				goerr.V("id", id), goerr.V("status", a.Status))
		}

		if a.WorkGroupID == nil {
			return goerr.Wrap(types.ErrInvalidState, "activity is not routed to a work group",
				goerr.V("id", id))
		}

		// Membership and the decision set are read inside the transaction so
		// the quorum is evaluated against a consistent snapshot; Firestore
		// aborts and retries if either changes before commit.
		groupSnap, err := tx.Get(r.groups.groupDoc(*a.WorkGroupID))
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(types.ErrNotFound, "work group not found", goerr.V("group_id", *a.WorkGroupID))
			}
			return goerr.Wrap(err, "failed to get work group", goerr.V("group_id", *a.WorkGroupID))
		}
		var g model.WorkGroup
		if err := groupSnap.DataTo(&g); err != nil {
			return goerr.Wrap(err, "failed to decode work group", goerr.V("group_id", *a.WorkGroupID))
		}

		rejected := map[types.UserID]bool{userID: true}
		decIter := tx.Documents(r.client.Collection(r.decisionsCollection()).Where("ActivityID", "==", id))
		defer decIter.Stop()
		for {
			decSnap, err := decIter.Next()
			if err == iterator.Done {
				break
			}
			if err != nil {
				return goerr.Wrap(err, "failed to iterate decisions", goerr.V("id", id))
			}
			var dd decisionDoc
			if err := decSnap.DataTo(&dd); err != nil {
				return goerr.Wrap(err, "failed to decode decision", goerr.V("doc_id", decSnap.Ref.ID))
			}
			if types.DecisionKind(dd.Kind) == types.DecisionRejected {
				rejected[types.UserID(dd.UserID)] = true
			}
		}

		now := time.Now().UTC()
		dec := &decisionDoc{
			ID:         types.NewDecisionID().String(),
			ActivityID: id,
			UserID:     userID.String(),
			Kind:       types.DecisionRejected.String(),
			Comment:    comment,
			DecidedAt:  now,
		}
		if err := tx.Set(r.decisionDocRef(id, userID), dec); err != nil {
			return goerr.Wrap(err, "failed to write decision", goerr.V("id", id))
		}

		unanimous := len(g.Members) > 0
		for _, m := range g.Members {
			if !rejected[m] {
				unanimous = false
				break
			}
		}

		if unanimous {
			a.Status = types.ActivityStatusRejected
			a.ReferTo = nil
			a.UpdatedBy = userID
			a.UpdatedAt = now
			if err := tx.Set(docRef, toActivityDoc(a)); err != nil {
				return goerr.Wrap(err, "failed to write rejection", goerr.V("id", id))
			}
		}

		result = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *activityRepository) Decisions(ctx context.Context, id int64) ([]*model.DecisionRecord, error) {
	iter := r.client.Collection(r.decisionsCollection()).Where("ActivityID", "==", id).Documents(ctx)
	defer iter.Stop()

	records := make([]*model.DecisionRecord, 0)
	for {
		docSnap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate decisions", goerr.V("id", id))
		}

		var d decisionDoc
		if err := docSnap.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to decode decision", goerr.V("doc_id", docSnap.Ref.ID))
		}

		records = append(records, fromDecisionDoc(&d))
	}

	return records, nil
}

func (r *activityRepository) ListDecisionsByUser(ctx context.Context, userID types.UserID) ([]*model.DecisionRecord, error) {
	iter := r.client.Collection(r.decisionsCollection()).Where("UserID", "==", userID.String()).Documents(ctx)
	defer iter.Stop()

	records := make([]*model.DecisionRecord, 0)
	for {
		docSnap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate decisions", goerr.V("user_id", userID))
		}

		var d decisionDoc
		if err := docSnap.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to decode decision", goerr.V("doc_id", docSnap.Ref.ID))
		}

		records = append(records, fromDecisionDoc(&d))
	}

	return records, nil
}
