package entity

import "time"

type Announce struct {
	ID                  string
	Title               string
	Description         string
	Price               float64
	Tags                []string
	ContactPhone        string
	ContactEmail        string
	AuthorID            string
	CategoryID          string
	Photos              []string
	CreatedAt           time.Time
	UpdatedAt           time.Time
	PublishedAt         time.Time
	Published           bool
	SuspendedByOperator bool
	SuspendedByAuthor   bool
	ExpiryNotified      bool
}

// Visible reports whether the announce is shown to the public. Suspension by
// either side hides it without unpublishing it.
func (a *Announce) Visible() bool {
	return a.Published && !a.SuspendedByOperator && !a.SuspendedByAuthor
}

// URL is the canonical front-office path for the announce.
func (a *Announce) URL() string {
	return "/announces/" + a.ID
}

// AttributeResponse is one key/value answer from the announce submission form,
// optionally carrying an uploaded file reference.
type AttributeResponse struct {
	AnnounceID string
	Key        string
	Value      string
	FileURL    string
}
