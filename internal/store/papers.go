package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/dgraph-io/badger/v4"

	"github.com/paperdeckapp/paperdeck-server/internal/domain"
)

// Key prefixes for paper storage.
// Papers are global rows shared by every user; per-user state lives in
// library entries, tags and lists.
const (
	paperPrefix        = "paper:"            // paper:{id} → Paper JSON
	paperByArxivPrefix = "idx:papers:arxiv:" // idx:papers:arxiv:{arxivID} → paperID
)

// Paper errors.
var (
	ErrPaperNotFound = errors.New("paper not found")
	ErrPaperExists   = errors.New("paper already exists")
)

// paperKey formats the primary key for a paper id.
func paperKey(paperID int64) []byte {
	return []byte(paperPrefix + strconv.FormatInt(paperID, 10))
}

// CreatePaper stores a new paper, assigning it an id from the sequence.
// The arXiv id must be unique; use FindOrCreatePaperByArxivID for upserts.
func (s *Store) CreatePaper(ctx context.Context, p *domain.Paper) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.ArxivID = domain.NormalizeArxivID(p.ArxivID)

	next, err := s.paperSeq.Next()
	if err != nil {
		return fmt.Errorf("next paper id: %w", err)
	}
	// Sequence starts at 0; ids start at 1.
	//nolint:gosec // Sequence values stay far below int64 max
	p.ID = int64(next) + 1

	arxivKey := []byte(paperByArxivPrefix + p.ArxivID)

	err = s.db.Update(func(txn *badger.Txn) error {
		// Check the arXiv id is not already stored.
		if _, err := txn.Get(arxivKey); err == nil {
			return ErrPaperExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		data, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("marshal paper: %w", err)
		}
		if err := txn.Set(paperKey(p.ID), data); err != nil {
			return err
		}

		return txn.Set(arxivKey, []byte(strconv.FormatInt(p.ID, 10)))
	})
	if err != nil {
		return err
	}

	s.indexPaperAsync(ctx, p)
	return nil
}

// GetPaper retrieves a paper by id.
func (s *Store) GetPaper(ctx context.Context, paperID int64) (*domain.Paper, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var p domain.Paper
	if err := s.get(paperKey(paperID), &p); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrPaperNotFound
		}
		return nil, fmt.Errorf("get paper: %w", err)
	}

	return &p, nil
}

// GetPaperByArxivID retrieves a paper by its (version-stripped) arXiv id.
func (s *Store) GetPaperByArxivID(ctx context.Context, arxivID string) (*domain.Paper, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	arxivID = domain.NormalizeArxivID(arxivID)
	arxivKey := []byte(paperByArxivPrefix + arxivID)

	var paperID int64
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(arxivKey)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrPaperNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			paperID, err = strconv.ParseInt(string(val), 10, 64)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	return s.GetPaper(ctx, paperID)
}

// UpdatePaper rewrites an existing paper (metadata refresh).
// The arXiv id is immutable; changing it is a programming error.
func (s *Store) UpdatePaper(ctx context.Context, p *domain.Paper) error {
	existing, err := s.GetPaper(ctx, p.ID)
	if err != nil {
		return err
	}
	if existing.ArxivID != p.ArxivID {
		return fmt.Errorf("paper %d: arXiv id is immutable", p.ID)
	}

	p.Touch()
	if err := s.set(paperKey(p.ID), p); err != nil {
		return fmt.Errorf("update paper: %w", err)
	}

	s.indexPaperAsync(ctx, p)
	return nil
}

// FindOrCreatePaperByArxivID returns the stored paper for the arXiv id,
// creating it from the given metadata when it doesn't exist yet.
// Returns (paper, created, error).
func (s *Store) FindOrCreatePaperByArxivID(ctx context.Context, p *domain.Paper) (*domain.Paper, bool, error) {
	existing, err := s.GetPaperByArxivID(ctx, p.ArxivID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrPaperNotFound) {
		return nil, false, err
	}

	if err := s.CreatePaper(ctx, p); err != nil {
		if errors.Is(err, ErrPaperExists) {
			// Race: another goroutine stored it between our read and write.
			existing, err := s.GetPaperByArxivID(ctx, p.ArxivID)
			if err != nil {
				return nil, false, err
			}
			return existing, false, nil
		}
		return nil, false, err
	}

	return p, true, nil
}

// ListRecentPapers returns up to limit papers ordered by publication date
// (newest first).
func (s *Store) ListRecentPapers(ctx context.Context, limit int) ([]*domain.Paper, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := []byte(paperPrefix)
	var papers []*domain.Paper

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchSize = 100

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var p domain.Paper
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &p)
			})
			if err != nil {
				continue
			}
			papers = append(papers, &p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(papers, func(i, j int) bool {
		return papers[i].PublishedAt.After(papers[j].PublishedAt)
	})

	if limit > 0 && len(papers) > limit {
		papers = papers[:limit]
	}
	return papers, nil
}

// GetPapersByIDs returns the papers for the given ids, preserving order.
// Missing papers are skipped.
func (s *Store) GetPapersByIDs(ctx context.Context, paperIDs []int64) ([]*domain.Paper, error) {
	papers := make([]*domain.Paper, 0, len(paperIDs))
	for _, paperID := range paperIDs {
		p, err := s.GetPaper(ctx, paperID)
		if errors.Is(err, ErrPaperNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		papers = append(papers, p)
	}
	return papers, nil
}

// indexPaperAsync pushes the paper to the search indexer without blocking
// the write path. Index failures are logged, never surfaced.
func (s *Store) indexPaperAsync(ctx context.Context, p *domain.Paper) {
	if s.searchIndexer == nil {
		return
	}
	paper := *p
	go func() {
		if err := s.searchIndexer.IndexPaper(context.WithoutCancel(ctx), &paper); err != nil && s.logger != nil {
			s.logger.Warn("failed to index paper", "paper_id", paper.ID, "error", err)
		}
	}()
}
