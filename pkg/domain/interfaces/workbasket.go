package interfaces

import (
	"context"

	"github.com/caseops/workbasket/pkg/domain/model"
	"github.com/caseops/workbasket/pkg/domain/types"
)

// WorkBasketRepository defines the interface for WorkBasket data access.
// Uniqueness of code/name among active rows is enforced by the usecase layer
// via GetByCode/GetByName; repositories only store and retrieve.
type WorkBasketRepository interface {
	// Create persists a new basket. The caller provides the ID.
	Create(ctx context.Context, b *model.WorkBasket) (*model.WorkBasket, error)

	// Get retrieves a basket by ID, including soft-deleted rows
	Get(ctx context.Context, id types.WorkBasketID) (*model.WorkBasket, error)

	// List retrieves all baskets, including soft-deleted rows
	List(ctx context.Context) ([]*model.WorkBasket, error)

	// GetByCode retrieves an active basket by code (case-insensitive).
	// Returns nil, nil if no active basket has the code.
	GetByCode(ctx context.Context, code string) (*model.WorkBasket, error)

	// GetByName retrieves an active basket by name (case-insensitive).
	// Returns nil, nil if no active basket has the name.
	GetByName(ctx context.Context, name string) (*model.WorkBasket, error)

	// Update replaces an existing basket
	Update(ctx context.Context, b *model.WorkBasket) (*model.WorkBasket, error)

	// HardDelete physically removes a basket. Irreversible; reserved for
	// administrative correction.
	HardDelete(ctx context.Context, id types.WorkBasketID) error
}
