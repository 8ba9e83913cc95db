package firestore

import (
	"context"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/caseops/workbasket/pkg/domain/model"
	"github.com/caseops/workbasket/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type workGroupRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newWorkGroupRepository(client *firestore.Client) *workGroupRepository {
	return &workGroupRepository{
		client:           client,
		collectionPrefix: "",
	}
}

func (r *workGroupRepository) groupsCollection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_workgroups"
	}
	return "workgroups"
}

func (r *workGroupRepository) groupDoc(id types.WorkGroupID) *firestore.DocumentRef {
	return r.client.Collection(r.groupsCollection()).Doc(id.String())
}

func (r *workGroupRepository) Create(ctx context.Context, g *model.WorkGroup) (*model.WorkGroup, error) {
	now := time.Now().UTC()
	created := *g
	created.CreatedAt = now
	created.UpdatedAt = now

	_, err := r.groupDoc(created.ID).Set(ctx, &created)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create work group", goerr.V("id", created.ID))
	}

	return &created, nil
}

func (r *workGroupRepository) Get(ctx context.Context, id types.WorkGroupID) (*model.WorkGroup, error) {
	docSnap, err := r.groupDoc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(types.ErrNotFound, "work group not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get work group", goerr.V("id", id))
	}

	var g model.WorkGroup
	if err := docSnap.DataTo(&g); err != nil {
		return nil, goerr.Wrap(err, "failed to decode work group", goerr.V("id", id))
	}

	return &g, nil
}

func (r *workGroupRepository) List(ctx context.Context) ([]*model.WorkGroup, error) {
	iter := r.client.Collection(r.groupsCollection()).Documents(ctx)
	defer iter.Stop()

	groups := make([]*model.WorkGroup, 0)
	for {
		docSnap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate work groups")
		}

		var g model.WorkGroup
		if err := docSnap.DataTo(&g); err != nil {
			return nil, goerr.Wrap(err, "failed to decode work group", goerr.V("doc_id", docSnap.Ref.ID))
		}

		groups = append(groups, &g)
	}

	return groups, nil
}

func (r *workGroupRepository) GetByCode(ctx context.Context, code string) (*model.WorkGroup, error) {
	return r.findActive(ctx, func(g *model.WorkGroup) bool {
		return strings.EqualFold(g.Code, code)
	})
}

func (r *workGroupRepository) GetByName(ctx context.Context, name string) (*model.WorkGroup, error) {
	return r.findActive(ctx, func(g *model.WorkGroup) bool {
		return strings.EqualFold(g.Name, name)
	})
}

func (r *workGroupRepository) findActive(ctx context.Context, match func(*model.WorkGroup) bool) (*model.WorkGroup, error) {
	iter := r.client.Collection(r.groupsCollection()).Where("Active", "==", true).Documents(ctx)
	defer iter.Stop()

	for {
		docSnap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate work groups")
		}

		var g model.WorkGroup
		if err := docSnap.DataTo(&g); err != nil {
			return nil, goerr.Wrap(err, "failed to decode work group", goerr.V("doc_id", docSnap.Ref.ID))
		}

		if match(&g) {
			return &g, nil
		}
	}

	return nil, nil
}

func (r *workGroupRepository) ListByMember(ctx context.Context, userID types.UserID) ([]*model.WorkGroup, error) {
	iter := r.client.Collection(r.groupsCollection()).
		Where("Active", "==", true).
		Where("Members", "array-contains", userID.String()).
		Documents(ctx)
	defer iter.Stop()

	groups := make([]*model.WorkGroup, 0)
	for {
		docSnap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate work groups", goerr.V("user_id", userID))
		}

		var g model.WorkGroup
		if err := docSnap.DataTo(&g); err != nil {
			return nil, goerr.Wrap(err, "failed to decode work group", goerr.V("doc_id", docSnap.Ref.ID))
		}

		groups = append(groups, &g)
	}

	return groups, nil
}

func (r *workGroupRepository) Update(ctx context.Context, g *model.WorkGroup) (*model.WorkGroup, error) {
	docRef := r.groupDoc(g.ID)

	docSnap, err := docRef.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(types.ErrNotFound, "work group not found", goerr.V("id", g.ID))
		}
		return nil, goerr.Wrap(err, "failed to check work group existence", goerr.V("id", g.ID))
	}

	var existing model.WorkGroup
	if err := docSnap.DataTo(&existing); err != nil {
		return nil, goerr.Wrap(err, "failed to decode work group", goerr.V("id", g.ID))
	}

	updated := *g
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	if _, err := docRef.Set(ctx, &updated); err != nil {
		return nil, goerr.Wrap(err, "failed to update work group", goerr.V("id", g.ID))
	}

	return &updated, nil
}

func (r *workGroupRepository) HardDelete(ctx context.Context, id types.WorkGroupID) error {
	docRef := r.groupDoc(id)

	if _, err := docRef.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(types.ErrNotFound, "work group not found", goerr.V("id", id))
		}
		return goerr.Wrap(err, "failed to check work group existence", goerr.V("id", id))
	}

	if _, err := docRef.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete work group", goerr.V("id", id))
	}

	return nil
}
