package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/caseops/workbasket/pkg/domain/interfaces"
	"github.com/m-mizutani/goerr/v2"
)

type Firestore struct {
	client   *firestore.Client
	basket   *workBasketRepository
	group    *workGroupRepository
	activity *activityRepository
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.basket.collectionPrefix = prefix
		f.group.collectionPrefix = prefix
		f.activity.collectionPrefix = prefix
	}
}

func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	var client *firestore.Client
	var err error
	if databaseID != "" {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	} else {
		client, err = firestore.NewClient(ctx, projectID)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID), goerr.V("databaseID", databaseID))
	}

	basketRepo := newWorkBasketRepository(client)
	groupRepo := newWorkGroupRepository(client)
	activityRepo := newActivityRepository(client, groupRepo)

	f := &Firestore{
		client:   client,
		basket:   basketRepo,
		group:    groupRepo,
		activity: activityRepo,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) WorkBasket() interfaces.WorkBasketRepository {
	return f.basket
}

func (f *Firestore) WorkGroup() interfaces.WorkGroupRepository {
	return f.group
}

func (f *Firestore) Activity() interfaces.ActivityRepository {
	return f.activity
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}
