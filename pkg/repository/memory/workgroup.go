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

type workGroupRepository struct {
	mu     sync.RWMutex
	groups map[types.WorkGroupID]*model.WorkGroup
}

func newWorkGroupRepository() *workGroupRepository {
	return &workGroupRepository{
		groups: make(map[types.WorkGroupID]*model.WorkGroup),
	}
}

// copyGroup creates a deep copy of a work group
func copyGroup(g *model.WorkGroup) *model.WorkGroup {
	members := make([]types.UserID, len(g.Members))
	copy(members, g.Members)

	copied := *g
	copied.Members = members
	if g.DeletedBy != nil {
		deletedBy := *g.DeletedBy
		copied.DeletedBy = &deletedBy
	}
	if g.DeletedAt != nil {
		deletedAt := *g.DeletedAt
		copied.DeletedAt = &deletedAt
	}
	return &copied
}

// members returns the current membership of an active group without copying.
// Used by the activity repository inside its own lock to resolve quorum
// eligibility at decision time.
func (r *workGroupRepository) members(id types.WorkGroupID) ([]types.UserID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, exists := r.groups[id]
	if !exists {
		return nil, goerr.Wrap(types.ErrNotFound, "work group not found", goerr.V("id", id))
	}

	members := make([]types.UserID, len(g.Members))
	copy(members, g.Members)
	return members, nil
}

func (r *workGroupRepository) Create(ctx context.Context, g *model.WorkGroup) (*model.WorkGroup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.groups[g.ID]; exists {
		return nil, goerr.New("work group already exists", goerr.V("id", g.ID))
	}

	now := time.Now().UTC()
	created := copyGroup(g)
	created.CreatedAt = now
	created.UpdatedAt = now

	r.groups[created.ID] = created
	return copyGroup(created), nil
}

func (r *workGroupRepository) Get(ctx context.Context, id types.WorkGroupID) (*model.WorkGroup, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, exists := r.groups[id]
	if !exists {
		return nil, goerr.Wrap(types.ErrNotFound, "work group not found", goerr.V("id", id))
	}

	return copyGroup(g), nil
}

func (r *workGroupRepository) List(ctx context.Context) ([]*model.WorkGroup, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	groups := make([]*model.WorkGroup, 0, len(r.groups))
	for _, g := range r.groups {
		groups = append(groups, copyGroup(g))
	}

	return groups, nil
}

func (r *workGroupRepository) GetByCode(ctx context.Context, code string) (*model.WorkGroup, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, g := range r.groups {
		if g.Active && strings.EqualFold(g.Code, code) {
			return copyGroup(g), nil
		}
	}
	return nil, nil
}

func (r *workGroupRepository) GetByName(ctx context.Context, name string) (*model.WorkGroup, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, g := range r.groups {
		if g.Active && strings.EqualFold(g.Name, name) {
			return copyGroup(g), nil
		}
	}
	return nil, nil
}

func (r *workGroupRepository) ListByMember(ctx context.Context, userID types.UserID) ([]*model.WorkGroup, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	groups := make([]*model.WorkGroup, 0)
	for _, g := range r.groups {
		if g.Active && g.HasMember(userID) {
			groups = append(groups, copyGroup(g))
		}
	}

	return groups, nil
}

func (r *workGroupRepository) Update(ctx context.Context, g *model.WorkGroup) (*model.WorkGroup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.groups[g.ID]
	if !exists {
		return nil, goerr.Wrap(types.ErrNotFound, "work group not found", goerr.V("id", g.ID))
	}

	updated := copyGroup(g)
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	r.groups[updated.ID] = updated
	return copyGroup(updated), nil
}

func (r *workGroupRepository) HardDelete(ctx context.Context, id types.WorkGroupID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.groups[id]; !exists {
		return goerr.Wrap(types.ErrNotFound, "work group not found", goerr.V("id", id))
	}

	delete(r.groups, id)
	return nil
}
