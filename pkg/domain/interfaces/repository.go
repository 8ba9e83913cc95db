package interfaces

// Repository defines the interface for data persistence
type Repository interface {
	WorkBasket() WorkBasketRepository
	WorkGroup() WorkGroupRepository
	Activity() ActivityRepository

	Close() error
}
