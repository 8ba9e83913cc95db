package usecase

import (
	"context"
	"time"

	"github.com/caseops/workbasket/pkg/domain/interfaces"
	"github.com/caseops/workbasket/pkg/domain/model"
	"github.com/caseops/workbasket/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// TopologyUseCase owns work basket and work group definitions and the user
// membership that drives claim eligibility.
type TopologyUseCase struct {
	repo interfaces.Repository
}

func NewTopologyUseCase(repo interfaces.Repository) *TopologyUseCase {
	return &TopologyUseCase{repo: repo}
}

// checkBasketUnique enforces code/name uniqueness among active baskets.
// selfID excludes the record being updated from the check.
func (uc *TopologyUseCase) checkBasketUnique(ctx context.Context, code, name string, selfID types.WorkBasketID) error {
	if existing, err := uc.repo.WorkBasket().GetByCode(ctx, code); err != nil {
		return goerr.Wrap(err, "failed to check basket code uniqueness")
	} else if existing != nil && existing.ID != selfID {
		return goerr.Wrap(types.ErrDuplicateCode, "work basket code is already in use",
			goerr.V("code", code))
	}

	if existing, err := uc.repo.WorkBasket().GetByName(ctx, name); err != nil {
		return goerr.Wrap(err, "failed to check basket name uniqueness")
	} else if existing != nil && existing.ID != selfID {
		return goerr.Wrap(types.ErrDuplicateName, "work basket name is already in use",
			goerr.V("name", name))
	}

	return nil
}

func (uc *TopologyUseCase) checkGroupUnique(ctx context.Context, code, name string, selfID types.WorkGroupID) error {
	if existing, err := uc.repo.WorkGroup().GetByCode(ctx, code); err != nil {
		return goerr.Wrap(err, "failed to check group code uniqueness")
	} else if existing != nil && existing.ID != selfID {
		return goerr.Wrap(types.ErrDuplicateCode, "work group code is already in use",
			goerr.V("code", code))
	}

	if existing, err := uc.repo.WorkGroup().GetByName(ctx, name); err != nil {
		return goerr.Wrap(err, "failed to check group name uniqueness")
	} else if existing != nil && existing.ID != selfID {
		return goerr.Wrap(types.ErrDuplicateName, "work group name is already in use",
			goerr.V("name", name))
	}

	return nil
}

func (uc *TopologyUseCase) CreateBasket(ctx context.Context, actor types.UserID, code, name, description string, groupIDs []types.WorkGroupID) (*model.WorkBasket, error) {
	if code == "" {
		return nil, goerr.New("work basket code is required")
	}
	if name == "" {
		return nil, goerr.New("work basket name is required")
	}

	if err := uc.checkBasketUnique(ctx, code, name, ""); err != nil {
		return nil, err
	}

	for _, gid := range groupIDs {
		if _, err := uc.repo.WorkGroup().Get(ctx, gid); err != nil {
			return nil, goerr.Wrap(err, "referenced work group does not exist", goerr.V("group_id", gid))
		}
	}

	created, err := uc.repo.WorkBasket().Create(ctx, &model.WorkBasket{
		ID:          types.NewWorkBasketID(),
		Code:        code,
		Name:        name,
		Description: description,
		Active:      true,
		GroupIDs:    groupIDs,
		CreatedBy:   actor,
		UpdatedBy:   actor,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create work basket")
	}

	return created, nil
}

func (uc *TopologyUseCase) UpdateBasket(ctx context.Context, actor types.UserID, id types.WorkBasketID, code, name, description string, groupIDs []types.WorkGroupID) (*model.WorkBasket, error) {
	b, err := uc.repo.WorkBasket().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Deleted() {
		return nil, goerr.Wrap(types.ErrNotFound, "work basket is deleted", goerr.V("id", id))
	}

	if code == "" {
		return nil, goerr.New("work basket code is required")
	}
	if name == "" {
		return nil, goerr.New("work basket name is required")
	}

	if err := uc.checkBasketUnique(ctx, code, name, id); err != nil {
		return nil, err
	}

	b.Code = code
	b.Name = name
	b.Description = description
	b.GroupIDs = groupIDs
	b.UpdatedBy = actor

	updated, err := uc.repo.WorkBasket().Update(ctx, b)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update work basket", goerr.V("id", id))
	}

	return updated, nil
}

func (uc *TopologyUseCase) GetBasket(ctx context.Context, id types.WorkBasketID) (*model.WorkBasket, error) {
	b, err := uc.repo.WorkBasket().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (uc *TopologyUseCase) ListBaskets(ctx context.Context) ([]*model.WorkBasket, error) {
	baskets, err := uc.repo.WorkBasket().List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list work baskets")
	}

	visible := make([]*model.WorkBasket, 0, len(baskets))
	for _, b := range baskets {
		if !b.Deleted() {
			visible = append(visible, b)
		}
	}
	return visible, nil
}

// SoftDeleteBasket deactivates a basket and stamps the deletion. Deleting an
// already-deleted basket is a no-op.
func (uc *TopologyUseCase) SoftDeleteBasket(ctx context.Context, id types.WorkBasketID, actor types.UserID) error {
	b, err := uc.repo.WorkBasket().Get(ctx, id)
	if err != nil {
		return err
	}
	if b.Deleted() {
		return nil
	}

	now := time.Now().UTC()
	b.Active = false
	b.DeletedBy = &actor
	b.DeletedAt = &now
	b.UpdatedBy = actor

	if _, err := uc.repo.WorkBasket().Update(ctx, b); err != nil {
		return goerr.Wrap(err, "failed to soft-delete work basket", goerr.V("id", id))
	}
	return nil
}

// RestoreBasket reverses a soft delete
func (uc *TopologyUseCase) RestoreBasket(ctx context.Context, id types.WorkBasketID, actor types.UserID) error {
	b, err := uc.repo.WorkBasket().Get(ctx, id)
	if err != nil {
		return err
	}
	if !b.Deleted() {
		return nil
	}

	// Restoring must not reintroduce a code/name collision created meanwhile
	if err := uc.checkBasketUnique(ctx, b.Code, b.Name, id); err != nil {
		return err
	}

	b.Active = true
	b.DeletedBy = nil
	b.DeletedAt = nil
	b.UpdatedBy = actor

	if _, err := uc.repo.WorkBasket().Update(ctx, b); err != nil {
		return goerr.Wrap(err, "failed to restore work basket", goerr.V("id", id))
	}
	return nil
}

// HardDeleteBasket physically removes a basket. Administrative use only.
func (uc *TopologyUseCase) HardDeleteBasket(ctx context.Context, id types.WorkBasketID) error {
	return uc.repo.WorkBasket().HardDelete(ctx, id)
}

func (uc *TopologyUseCase) CreateGroup(ctx context.Context, actor types.UserID, code, name, description string, faxSourced, portalSourced bool) (*model.WorkGroup, error) {
	if code == "" {
		return nil, goerr.New("work group code is required")
	}
	if name == "" {
		return nil, goerr.New("work group name is required")
	}

	if err := uc.checkGroupUnique(ctx, code, name, ""); err != nil {
		return nil, err
	}

	created, err := uc.repo.WorkGroup().Create(ctx, &model.WorkGroup{
		ID:            types.NewWorkGroupID(),
		Code:          code,
		Name:          name,
		Description:   description,
		FaxSourced:    faxSourced,
		PortalSourced: portalSourced,
		Active:        true,
		CreatedBy:     actor,
		UpdatedBy:     actor,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create work group")
	}

	return created, nil
}

func (uc *TopologyUseCase) UpdateGroup(ctx context.Context, actor types.UserID, id types.WorkGroupID, code, name, description string, faxSourced, portalSourced bool) (*model.WorkGroup, error) {
	g, err := uc.repo.WorkGroup().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if g.Deleted() {
		return nil, goerr.Wrap(types.ErrNotFound, "work group is deleted", goerr.V("id", id))
	}

	if code == "" {
		return nil, goerr.New("work group code is required")
	}
	if name == "" {
		return nil, goerr.New("work group name is required")
	}

	if err := uc.checkGroupUnique(ctx, code, name, id); err != nil {
		return nil, err
	}

	g.Code = code
	g.Name = name
	g.Description = description
	g.FaxSourced = faxSourced
	g.PortalSourced = portalSourced
	g.UpdatedBy = actor

	updated, err := uc.repo.WorkGroup().Update(ctx, g)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update work group", goerr.V("id", id))
	}

	return updated, nil
}

func (uc *TopologyUseCase) GetGroup(ctx context.Context, id types.WorkGroupID) (*model.WorkGroup, error) {
	g, err := uc.repo.WorkGroup().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (uc *TopologyUseCase) ListGroups(ctx context.Context) ([]*model.WorkGroup, error) {
	groups, err := uc.repo.WorkGroup().List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list work groups")
	}

	visible := make([]*model.WorkGroup, 0, len(groups))
	for _, g := range groups {
		if !g.Deleted() {
			visible = append(visible, g)
		}
	}
	return visible, nil
}

func (uc *TopologyUseCase) SoftDeleteGroup(ctx context.Context, id types.WorkGroupID, actor types.UserID) error {
	g, err := uc.repo.WorkGroup().Get(ctx, id)
	if err != nil {
		return err
	}
	if g.Deleted() {
		return nil
	}

	now := time.Now().UTC()
	g.Active = false
	g.DeletedBy = &actor
	g.DeletedAt = &now
	g.UpdatedBy = actor

	if _, err := uc.repo.WorkGroup().Update(ctx, g); err != nil {
		return goerr.Wrap(err, "failed to soft-delete work group", goerr.V("id", id))
	}
	return nil
}

func (uc *TopologyUseCase) RestoreGroup(ctx context.Context, id types.WorkGroupID, actor types.UserID) error {
	g, err := uc.repo.WorkGroup().Get(ctx, id)
	if err != nil {
		return err
	}
	if !g.Deleted() {
		return nil
	}

	if err := uc.checkGroupUnique(ctx, g.Code, g.Name, id); err != nil {
		return err
	}

	g.Active = true
	g.DeletedBy = nil
	g.DeletedAt = nil
	g.UpdatedBy = actor

	if _, err := uc.repo.WorkGroup().Update(ctx, g); err != nil {
		return goerr.Wrap(err, "failed to restore work group", goerr.V("id", id))
	}
	return nil
}

func (uc *TopologyUseCase) HardDeleteGroup(ctx context.Context, id types.WorkGroupID) error {
	return uc.repo.WorkGroup().HardDelete(ctx, id)
}

// FindBasketByCode retrieves an active basket by code, or nil when absent
func (uc *TopologyUseCase) FindBasketByCode(ctx context.Context, code string) (*model.WorkBasket, error) {
	return uc.repo.WorkBasket().GetByCode(ctx, code)
}

// FindGroupByCode retrieves an active group by code, or nil when absent
func (uc *TopologyUseCase) FindGroupByCode(ctx context.Context, code string) (*model.WorkGroup, error) {
	return uc.repo.WorkGroup().GetByCode(ctx, code)
}

// AddGroupMember makes the user eligible for activities offered to the group
func (uc *TopologyUseCase) AddGroupMember(ctx context.Context, actor types.UserID, groupID types.WorkGroupID, userID types.UserID) (*model.WorkGroup, error) {
	if err := userID.Validate(); err != nil {
		return nil, err
	}

	g, err := uc.repo.WorkGroup().Get(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if g.Deleted() {
		return nil, goerr.Wrap(types.ErrNotFound, "work group is deleted", goerr.V("id", groupID))
	}

	if !g.AddMember(userID) {
		return g, nil
	}
	g.UpdatedBy = actor

	updated, err := uc.repo.WorkGroup().Update(ctx, g)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to add group member",
			goerr.V("group_id", groupID), goerr.V("user_id", userID))
	}
	return updated, nil
}

// RemoveGroupMember drops the user from the group. Eligibility for open
// activities is resolved per operation, so removal can change pending quorum
// outcomes.
func (uc *TopologyUseCase) RemoveGroupMember(ctx context.Context, actor types.UserID, groupID types.WorkGroupID, userID types.UserID) (*model.WorkGroup, error) {
	g, err := uc.repo.WorkGroup().Get(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if g.Deleted() {
		return nil, goerr.Wrap(types.ErrNotFound, "work group is deleted", goerr.V("id", groupID))
	}

	if !g.RemoveMember(userID) {
		return g, nil
	}
	g.UpdatedBy = actor

	updated, err := uc.repo.WorkGroup().Update(ctx, g)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to remove group member",
			goerr.V("group_id", groupID), goerr.V("user_id", userID))
	}
	return updated, nil
}

// ResolveEligibleUsers returns the current member set of the group. An empty
// set is valid; an activity offered to an empty group can never be claimed or
// reach rejection quorum, which callers must guard against at creation.
func (uc *TopologyUseCase) ResolveEligibleUsers(ctx context.Context, groupID types.WorkGroupID) ([]types.UserID, error) {
	g, err := uc.repo.WorkGroup().Get(ctx, groupID)
	if err != nil {
		return nil, err
	}

	members := make([]types.UserID, len(g.Members))
	copy(members, g.Members)
	return members, nil
}

// GetUserGroups returns the active groups the user belongs to
func (uc *TopologyUseCase) GetUserGroups(ctx context.Context, userID types.UserID) ([]*model.WorkGroup, error) {
	groups, err := uc.repo.WorkGroup().ListByMember(ctx, userID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list user groups", goerr.V("user_id", userID))
	}
	return groups, nil
}
