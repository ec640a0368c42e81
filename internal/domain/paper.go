// Package domain defines the core entities of the system.
package domain

import (
	"strings"
	"time"
)

// Paper represents a research paper sourced from arXiv.
// Papers are global: a paper row is shared by every user who has it in
// their library, tagged it, or put it on a list.
type Paper struct {
	ID          int64     `json:"id"`
	ArxivID     string    `json:"arxiv_id"` // e.g. "2310.06825" or "cs/0112017"
	Title       string    `json:"title"`
	Abstract    string    `json:"abstract"`
	Authors     []string  `json:"authors"`
	Categories  []string  `json:"categories"` // e.g. ["cs.LG", "stat.ML"]
	PublishedAt time.Time `json:"published_at"`
	RevisedAt   time.Time `json:"revised_at"` // Last revision on arXiv
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Touch updates the UpdatedAt timestamp to the current time.
func (p *Paper) Touch() {
	p.UpdatedAt = time.Now()
}

// PrimaryCategory returns the first arXiv category, or "" if none.
func (p *Paper) PrimaryCategory() string {
	if len(p.Categories) == 0 {
		return ""
	}
	return p.Categories[0]
}

// AbsURL returns the paper's arXiv abstract page URL.
func (p *Paper) AbsURL() string {
	return "https://arxiv.org/abs/" + p.ArxivID
}

// PDFURL returns the paper's arXiv PDF URL.
func (p *Paper) PDFURL() string {
	return "https://arxiv.org/pdf/" + p.ArxivID + ".pdf"
}

// NormalizeArxivID strips a version suffix ("2310.06825v3" → "2310.06825")
// so the same paper is never stored twice under different revisions.
func NormalizeArxivID(arxivID string) string {
	arxivID = strings.TrimSpace(arxivID)
	// The version suffix is a trailing "v" followed by digits. Old-style IDs
	// ("cs/0112017") can contain letters, so scan from the end.
	i := len(arxivID) - 1
	for i >= 0 && arxivID[i] >= '0' && arxivID[i] <= '9' {
		i--
	}
	if i > 0 && i < len(arxivID)-1 && arxivID[i] == 'v' {
		return arxivID[:i]
	}
	return arxivID
}
