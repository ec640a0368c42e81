package domain

import (
	"slices"
	"time"
)

// List represents an ordered, shareable collection of papers.
// Lists have a single owner; public lists are readable by anyone with
// the link, private lists only by their owner.
type List struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Public      bool      `json:"public"`
	PaperIDs    []int64   `json:"paper_ids"` // Insertion order is display order
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Touch updates the UpdatedAt timestamp.
func (l *List) Touch() {
	l.UpdatedAt = time.Now()
}

// ContainsPaper reports whether the paper is already on the list.
func (l *List) ContainsPaper(paperID int64) bool {
	return slices.Contains(l.PaperIDs, paperID)
}

// AddPaper appends the paper to the end of the list.
// Returns false if the paper is already present.
func (l *List) AddPaper(paperID int64) bool {
	if l.ContainsPaper(paperID) {
		return false
	}
	l.PaperIDs = append(l.PaperIDs, paperID)
	l.Touch()
	return true
}

// RemovePaper removes the paper from the list, preserving the order of
// the remaining entries. Returns false if the paper was not on the list.
func (l *List) RemovePaper(paperID int64) bool {
	idx := slices.Index(l.PaperIDs, paperID)
	if idx < 0 {
		return false
	}
	l.PaperIDs = slices.Delete(l.PaperIDs, idx, idx+1)
	l.Touch()
	return true
}

// VisibleTo reports whether the user may read this list.
// Public lists are visible to everyone, including anonymous readers
// (empty userID); private lists only to their owner.
func (l *List) VisibleTo(userID string) bool {
	return l.Public || l.OwnerID == userID
}
