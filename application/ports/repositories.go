package ports

import (
	"context"
	"time"

	"ideatracker/domain/core/entities"
	"ideatracker/domain/events"
)

// IdeaRepository persists ideas under their owning user.
// This is a port in hexagonal architecture: handlers never see the store behind it.
type IdeaRepository interface {
	// FetchOne returns the idea at users/{userID}/ideas/{ideaID}, or a NotFound error.
	FetchOne(ctx context.Context, userID, ideaID string) (*entities.Idea, error)

	// FetchAll returns every idea of the user in store order. A user without
	// ideas gets an empty slice, never an error.
	FetchAll(ctx context.Context, userID string) ([]*entities.Idea, error)

	// Save overwrites the whole record at the idea's id and returns what was stored.
	Save(ctx context.Context, userID string, idea *entities.Idea) (*entities.Idea, error)
}

// PathStore is a hierarchical key-path JSON store.
type PathStore interface {
	// Get returns the JSON value at path. When path names a collection the
	// value is a JSON object mapping each child key to its value. The bool is
	// false when nothing exists at path.
	Get(ctx context.Context, path string) ([]byte, bool, error)

	// Set replaces the value at a leaf path. No merge, no version check.
	Set(ctx context.Context, path string, value []byte) error
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// Cache defines the interface for caching
type Cache interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) (interface{}, bool)

	// Set stores a value in cache for ttl
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// Clear removes all values from cache
	Clear(ctx context.Context) error
}
