package projection

import "time"

// Metadata captures persistence timestamps and the optimistic-concurrency version.
type Metadata struct {
	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int64
}

// Projection pairs a catalog entity with the metadata its store keeps beside it. Updates
// compare Metadata.Version to detect concurrent writers.
type Projection[T any] struct {
	Entity   T
	Metadata Metadata
}

// New wraps an entity with its metadata.
func New[T any](entity T, metadata Metadata) *Projection[T] {
	return &Projection[T]{Entity: entity, Metadata: metadata}
}
