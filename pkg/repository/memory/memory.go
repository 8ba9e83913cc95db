package memory

import (
	"github.com/caseops/workbasket/pkg/domain/interfaces"
)

// Repository is an alias for Memory to match the pattern
type Repository = Memory

// Memory is an in-process repository used for development and tests.
// The activity repository holds a reference to the group repository so that
// reject quorum checks resolve membership under the same lock.
type Memory struct {
	basket   *workBasketRepository
	group    *workGroupRepository
	activity *activityRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	basketRepo := newWorkBasketRepository()
	groupRepo := newWorkGroupRepository()
	activityRepo := newActivityRepository(groupRepo)

	return &Memory{
		basket:   basketRepo,
		group:    groupRepo,
		activity: activityRepo,
	}
}

func (m *Memory) WorkBasket() interfaces.WorkBasketRepository {
	return m.basket
}

func (m *Memory) WorkGroup() interfaces.WorkGroupRepository {
	return m.group
}

func (m *Memory) Activity() interfaces.ActivityRepository {
	return m.activity
}

func (m *Memory) Close() error {
	return nil
}
