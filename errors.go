package dialogstate

import "errors"

// Errors shared by the registry, resolver, updater and session manager.
// Wrap with fmt.Errorf("...: %w", err) and test with errors.Is.
var (
	// ErrSchema reports a malformed or duplicate schema definition. Fatal at load.
	ErrSchema = errors.New("invalid schema")

	// ErrNotFound reports a lookup of an unknown service.
	ErrNotFound = errors.New("service not found")

	// ErrInvalidSlot reports a lookup of an unknown slot, or a categorical-only
	// query against a non-categorical slot.
	ErrInvalidSlot = errors.New("invalid slot")

	// ErrInvalidSpan reports out-of-range or inverted span offsets.
	ErrInvalidSpan = errors.New("invalid span")

	// ErrSchemaMismatch reports a turn prediction whose shape disagrees with
	// the service schema.
	ErrSchemaMismatch = errors.New("prediction does not match schema")

	// ErrSessionClosed reports a turn applied to an ended dialogue.
	ErrSessionClosed = errors.New("dialogue session closed")
)

// IsTurnError reports whether err is local to one turn: the turn is skipped
// and the dialogue continues with carried-over state.
func IsTurnError(err error) bool {
	return errors.Is(err, ErrInvalidSpan) || errors.Is(err, ErrSchemaMismatch)
}
