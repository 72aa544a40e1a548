package entity

import "time"

type SubscriptionKind string

const (
	// SubscribeToUser notifies about every new announce by a given author.
	SubscribeToUser SubscriptionKind = "user"
	// SubscribeToCategory notifies about every new announce in a category.
	SubscribeToCategory SubscriptionKind = "category"
	// SubscribeToFilter notifies about new announces matching a saved filter.
	SubscribeToFilter SubscriptionKind = "filter"
)

type Subscription struct {
	ID           string
	SubscriberID string
	Kind         SubscriptionKind
	TargetID     string
	CreatedAt    time.Time
}

// SavedFilter is a persisted search a user can subscribe to. DateMin is
// advanced by the notification differ to the last run boundary so old matches
// are not reprocessed.
type SavedFilter struct {
	ID         string
	OwnerID    string
	CategoryID string
	SectorID   string
	Keywords   string
	DateMin    time.Time
	DateMax    time.Time
	PriceMin   float64
	PriceMax   float64
}

type User struct {
	ID          string
	Email       string
	DisplayName string
}
