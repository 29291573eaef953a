package interfaces

// Repository defines the interface for data persistence
type Repository interface {
	UserContext() UserContextRepository
	Task() TaskRepository

	Close() error
}
