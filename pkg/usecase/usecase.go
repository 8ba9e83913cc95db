package usecase

import (
	"github.com/caseops/workbasket/pkg/domain/interfaces"
	"github.com/caseops/workbasket/pkg/service/notify"
)

type UseCases struct {
	repo     interfaces.Repository
	notifier notify.Service
	Topology *TopologyUseCase
	Claim    *ClaimUseCase
	Queue    *QueueUseCase
}

type Option func(*UseCases)

// WithNotifier enables activity lifecycle notifications
func WithNotifier(n notify.Service) Option {
	return func(uc *UseCases) {
		uc.notifier = n
	}
}

func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo: repo,
	}

	for _, opt := range opts {
		opt(uc)
	}

	uc.Topology = NewTopologyUseCase(repo)
	uc.Claim = NewClaimUseCase(repo, uc.notifier)
	uc.Queue = NewQueueUseCase(repo)

	return uc
}
