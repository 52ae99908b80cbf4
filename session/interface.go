package session

import "context"

// Store keeps dialogue records outside the process. It is the seam to the
// external store; the tracker itself never depends on one.
type Store interface {
	// Create stores a new record with Version set to 1.
	// Returns ErrAlreadyExists if a record with the same ID is stored.
	Create(ctx context.Context, rec *Record) error

	// Get retrieves a record by dialogue ID.
	// Returns nil if the record is not found (not an error).
	Get(ctx context.Context, id string) (*Record, error)

	// Update replaces an existing record with optimistic locking.
	// Verifies rec.Version matches the stored version, increments Version,
	// updates UpdatedAt, and persists the record.
	// Returns ErrVersionConflict if the version does not match.
	// Returns ErrNotFound if the record does not exist.
	Update(ctx context.Context, rec *Record) error

	// Delete deletes a record by dialogue ID.
	Delete(ctx context.Context, id string) error

	// Close closes the store and releases any resources.
	Close() error
}
