// Package paperclient is a Go client for the PaperDeck API with an
// optimistic cache layer: reads are served from a keyed query cache,
// and mutations update the cache speculatively before the server
// confirms, rolling back to the exact prior state on failure.
package paperclient

import "time"

// LibraryEntry is one (user, paper) membership in a personal library.
// A nil *LibraryEntry in the cache means the entry is known to be absent.
type LibraryEntry struct {
	PaperID    int64     `json:"paper_id"`
	WantToRead bool      `json:"want_to_read"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Tag is a user-scoped label applicable to papers.
type Tag struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// List is an ordered, optionally public collection of papers.
type List struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Public      bool      `json:"public"`
	PaperIDs    []int64   `json:"paper_ids"`
	EntryCount  int       `json:"entry_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
