package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/caseops/workbasket/pkg/domain/model"
	"github.com/caseops/workbasket/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

type workBasketRepository struct {
	mu      sync.RWMutex
	baskets map[types.WorkBasketID]*model.WorkBasket
}

func newWorkBasketRepository() *workBasketRepository {
	return &workBasketRepository{
		baskets: make(map[types.WorkBasketID]*model.WorkBasket),
	}
}

// copyBasket creates a deep copy of a work basket
func copyBasket(b *model.WorkBasket) *model.WorkBasket {
	groupIDs := make([]types.WorkGroupID, len(b.GroupIDs))
	copy(groupIDs, b.GroupIDs)

	copied := *b
	copied.GroupIDs = groupIDs
	if b.DeletedBy != nil {
		deletedBy := *b.DeletedBy
		copied.DeletedBy = &deletedBy
	}
	if b.DeletedAt != nil {
		deletedAt := *b.DeletedAt
		copied.DeletedAt = &deletedAt
	}
	return &copied
}

func (r *workBasketRepository) Create(ctx context.Context, b *model.WorkBasket) (*model.WorkBasket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.baskets[b.ID]; exists {
		return nil, goerr.New("work basket already exists", goerr.V("id", b.ID))
	}

	now := time.Now().UTC()
	created := copyBasket(b)
	created.CreatedAt = now
	created.UpdatedAt = now

	r.baskets[created.ID] = created
	return copyBasket(created), nil
}

func (r *workBasketRepository) Get(ctx context.Context, id types.WorkBasketID) (*model.WorkBasket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, exists := r.baskets[id]
	if !exists {
		return nil, goerr.Wrap(types.ErrNotFound, "work basket not found", goerr.V("id", id))
	}

	return copyBasket(b), nil
}

func (r *workBasketRepository) List(ctx context.Context) ([]*model.WorkBasket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	baskets := make([]*model.WorkBasket, 0, len(r.baskets))
	for _, b := range r.baskets {
		baskets = append(baskets, copyBasket(b))
	}

	return baskets, nil
}

func (r *workBasketRepository) GetByCode(ctx context.Context, code string) (*model.WorkBasket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, b := range r.baskets {
		if b.Active && strings.EqualFold(b.Code, code) {
			return copyBasket(b), nil
		}
	}
	return nil, nil
}

func (r *workBasketRepository) GetByName(ctx context.Context, name string) (*model.WorkBasket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, b := range r.baskets {
		if b.Active && strings.EqualFold(b.Name, name) {
			return copyBasket(b), nil
		}
	}
	return nil, nil
}

func (r *workBasketRepository) Update(ctx context.Context, b *model.WorkBasket) (*model.WorkBasket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.baskets[b.ID]
	if !exists {
		return nil, goerr.Wrap(types.ErrNotFound, "work basket not found", goerr.V("id", b.ID))
	}

	updated := copyBasket(b)
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	r.baskets[updated.ID] = updated
	return copyBasket(updated), nil
}

func (r *workBasketRepository) HardDelete(ctx context.Context, id types.WorkBasketID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.baskets[id]; !exists {
		return goerr.Wrap(types.ErrNotFound, "work basket not found", goerr.V("id", id))
	}

	delete(r.baskets, id)
	return nil
}
