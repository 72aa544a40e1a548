package repository

import "errors"

var (
	ErrNotFound = errors.New("entity not found")

	// ErrMarkerCorrupt is returned when the persisted last-run marker cannot
	// be parsed. The differ treats it as zero and deletes the row.
	ErrMarkerCorrupt = errors.New("last-run marker is corrupt")
)
