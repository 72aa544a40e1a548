package index

import "errors"

var (
	// ErrIntegrity marks an announce that cannot be turned into a document,
	// typically because its category has been deleted. The offending announce
	// is skipped and logged, never aborting the surrounding batch.
	ErrIntegrity = errors.New("announce cannot be indexed")

	// ErrLocked is returned when another writer holds the index and the skip
	// threshold has not been reached yet. The run is retried on the next
	// scheduler tick.
	ErrLocked = errors.New("index writer is busy")
)
