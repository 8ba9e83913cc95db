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

type workBasketRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newWorkBasketRepository(client *firestore.Client) *workBasketRepository {
	return &workBasketRepository{
		client:           client,
		collectionPrefix: "",
	}
}

func (r *workBasketRepository) basketsCollection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_workbaskets"
	}
	return "workbaskets"
}

func (r *workBasketRepository) Create(ctx context.Context, b *model.WorkBasket) (*model.WorkBasket, error) {
	now := time.Now().UTC()
	created := *b
	created.CreatedAt = now
	created.UpdatedAt = now

	_, err := r.client.Collection(r.basketsCollection()).Doc(created.ID.String()).Set(ctx, &created)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create work basket", goerr.V("id", created.ID))
	}

	return &created, nil
}

func (r *workBasketRepository) Get(ctx context.Context, id types.WorkBasketID) (*model.WorkBasket, error) {
	docSnap, err := r.client.Collection(r.basketsCollection()).Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(types.ErrNotFound, "work basket not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get work basket", goerr.V("id", id))
	}

	var b model.WorkBasket
	if err := docSnap.DataTo(&b); err != nil {
		return nil, goerr.Wrap(err, "failed to decode work basket", goerr.V("id", id))
	}

	return &b, nil
}

func (r *workBasketRepository) List(ctx context.Context) ([]*model.WorkBasket, error) {
	iter := r.client.Collection(r.basketsCollection()).Documents(ctx)
	defer iter.Stop()

	baskets := make([]*model.WorkBasket, 0)
	for {
		docSnap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate work baskets")
		}

		var b model.WorkBasket
		if err := docSnap.DataTo(&b); err != nil {
			return nil, goerr.Wrap(err, "failed to decode work basket", goerr.V("doc_id", docSnap.Ref.ID))
		}

		baskets = append(baskets, &b)
	}

	return baskets, nil
}

// GetByCode scans active baskets for a case-insensitive code match. Firestore
// cannot query case-insensitively, so the match happens client-side.
func (r *workBasketRepository) GetByCode(ctx context.Context, code string) (*model.WorkBasket, error) {
	return r.findActive(ctx, func(b *model.WorkBasket) bool {
		return strings.EqualFold(b.Code, code)
	})
}

func (r *workBasketRepository) GetByName(ctx context.Context, name string) (*model.WorkBasket, error) {
	return r.findActive(ctx, func(b *model.WorkBasket) bool {
		return strings.EqualFold(b.Name, name)
	})
}

func (r *workBasketRepository) findActive(ctx context.Context, match func(*model.WorkBasket) bool) (*model.WorkBasket, error) {
	iter := r.client.Collection(r.basketsCollection()).Where("Active", "==", true).Documents(ctx)
	defer iter.Stop()

	for {
		docSnap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate work baskets")
		}

		var b model.WorkBasket
		if err := docSnap.DataTo(&b); err != nil {
			return nil, goerr.Wrap(err, "failed to decode work basket", goerr.V("doc_id", docSnap.Ref.ID))
		}

		if match(&b) {
			return &b, nil
		}
	}

	return nil, nil
}

func (r *workBasketRepository) Update(ctx context.Context, b *model.WorkBasket) (*model.WorkBasket, error) {
	docRef := r.client.Collection(r.basketsCollection()).Doc(b.ID.String())

	docSnap, err := docRef.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(types.ErrNotFound, "work basket not found", goerr.V("id", b.ID))
		}
		return nil, goerr.Wrap(err, "failed to check work basket existence", goerr.V("id", b.ID))
	}

	var existing model.WorkBasket
	if err := docSnap.DataTo(&existing); err != nil {
		return nil, goerr.Wrap(err, "failed to decode work basket", goerr.V("id", b.ID))
	}

	updated := *b
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	if _, err := docRef.Set(ctx, &updated); err != nil {
		return nil, goerr.Wrap(err, "failed to update work basket", goerr.V("id", b.ID))
	}

	return &updated, nil
}

func (r *workBasketRepository) HardDelete(ctx context.Context, id types.WorkBasketID) error {
	docRef := r.client.Collection(r.basketsCollection()).Doc(id.String())

	if _, err := docRef.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(types.ErrNotFound, "work basket not found", goerr.V("id", id))
		}
		return goerr.Wrap(err, "failed to check work basket existence", goerr.V("id", id))
	}

	if _, err := docRef.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete work basket", goerr.V("id", id))
	}

	return nil
}
