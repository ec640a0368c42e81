package domain

import "time"

// LibraryEntry represents a paper in a user's personal library.
// One entry per (user, paper) pair; re-saving the same paper updates the
// existing entry rather than creating a duplicate.
type LibraryEntry struct {
	UserID     string    `json:"user_id"`
	PaperID    int64     `json:"paper_id"`
	WantToRead bool      `json:"want_to_read"` // Flagged for reading later vs. already collected
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Touch updates the UpdatedAt timestamp to the current time.
func (e *LibraryEntry) Touch() {
	e.UpdatedAt = time.Now()
}
