package domain

import (
	"strings"
	"time"
)

// Tag represents a user-scoped label for organizing papers.
// Tags belong to exactly one user; two users can each have a "to-review"
// tag and they are independent entities.
type Tag struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	Color     string    `json:"color,omitempty"` // Optional display hint, e.g. "#ff7700"
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Touch updates the UpdatedAt timestamp.
func (t *Tag) Touch() {
	t.UpdatedAt = time.Now()
}

// NormalizeTagName canonicalizes a tag name for duplicate detection.
// Display casing is preserved on the Tag itself; only matching is folded.
func NormalizeTagName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// PaperTag represents the many-to-many relationship between papers and tags.
// Because tags are user-scoped, the user is implied by the tag's owner.
type PaperTag struct {
	TagID     string    `json:"tag_id"`
	PaperID   int64     `json:"paper_id"`
	CreatedAt time.Time `json:"created_at"`
}
