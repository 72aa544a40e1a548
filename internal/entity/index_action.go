package entity

import "time"

type ActionKind string

const (
	ActionCreate ActionKind = "create"
	ActionModify ActionKind = "modify"
	ActionDelete ActionKind = "delete"
)

// IndexAction is one pending index mutation for an announce. Duplicates for the
// same announce are expected; the synchronizer collapses them when draining.
type IndexAction struct {
	ID         string
	AnnounceID string
	Kind       ActionKind
	EnqueuedAt time.Time
}
