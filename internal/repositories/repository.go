package repositories

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrReadOnly is returned by stores that cannot write, such as the
	// Casdoor user directory.
	ErrReadOnly  = errors.New("repository is read-only")
	ErrDuplicate = errors.New("record already exists")
)

// Repository groups every repository the notification service uses.
type Repository interface {
	User() UserRepository
	Notification() NotificationRepository
	Preference() PreferenceRepository

	// WithTransaction runs fn against repositories bound to one transaction.
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	Ping(ctx context.Context) error
	Close() error
}

// RepositoryManager interface for managing repository lifecycle
type RepositoryManager interface {
	Initialize() error
	GetRepository() Repository
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
