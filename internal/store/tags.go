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

// Key prefixes for tag storage.
// Tags are user-scoped: the owner index and the per-owner name index keep
// one user's tags invisible to everyone else.
const (
	tagPrefix        = "tag:"             // tag:{id} → Tag JSON
	tagByOwnerPrefix = "idx:tags:owner:"  // idx:tags:owner:{ownerID}:{tagID} → empty
	tagByNamePrefix  = "idx:tags:name:"   // idx:tags:name:{ownerID}:{normName} → tagID
	tagPapersPrefix  = "idx:tags:papers:" // idx:tags:papers:{tagID}:{paperID} → empty
	paperTagsPrefix  = "idx:papers:tags:" // idx:papers:tags:{paperID}:{tagID} → empty
)

// Tag errors.
var (
	ErrTagNotFound = errors.New("tag not found")
	ErrTagExists   = errors.New("tag already exists")
)

// tagNameKey formats the per-owner name uniqueness index key.
func tagNameKey(ownerID, name string) []byte {
	return []byte(tagByNamePrefix + ownerID + ":" + domain.NormalizeTagName(name))
}

// CreateTag creates a new tag for its owner.
// Names are unique per owner after normalization.
func (s *Store) CreateTag(ctx context.Context, t *domain.Tag) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	nameKey := tagNameKey(t.OwnerID, t.Name)
	ownerKey := []byte(tagByOwnerPrefix + t.OwnerID + ":" + t.ID)

	return s.db.Update(func(txn *badger.Txn) error {
		// Check the owner doesn't already have a tag with this name.
		if _, err := txn.Get(nameKey); err == nil {
			return ErrTagExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		// Store tag.
		data, err := json.Marshal(t)
		if err != nil {
			return err
		}
		if err := txn.Set([]byte(tagPrefix+t.ID), data); err != nil {
			return err
		}

		// Owner index.
		if err := txn.Set(ownerKey, []byte{}); err != nil {
			return err
		}

		// Name index (per owner).
		return txn.Set(nameKey, []byte(t.ID))
	})
}

// GetTag retrieves a tag by ID.
func (s *Store) GetTag(ctx context.Context, tagID string) (*domain.Tag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var t domain.Tag
	if err := s.get([]byte(tagPrefix+tagID), &t); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrTagNotFound
		}
		return nil, fmt.Errorf("get tag: %w", err)
	}

	return &t, nil
}

// GetTagByName retrieves an owner's tag by normalized name.
func (s *Store) GetTagByName(ctx context.Context, ownerID, name string) (*domain.Tag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var tagID string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(tagNameKey(ownerID, name))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrTagNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			tagID = string(val)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return s.GetTag(ctx, tagID)
}

// ListUserTags returns all of the owner's tags sorted by name.
func (s *Store) ListUserTags(ctx context.Context, ownerID string) ([]*domain.Tag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var tagIDs []string
	err := s.iterateKeys(tagByOwnerPrefix+ownerID+":", func(rest string) error {
		tagIDs = append(tagIDs, rest)
		return nil
	})
	if err != nil {
		return nil, err
	}

	tags := make([]*domain.Tag, 0, len(tagIDs))
	for _, tagID := range tagIDs {
		t, err := s.GetTag(ctx, tagID)
		if err != nil {
			continue // Skip missing tags.
		}
		tags = append(tags, t)
	}

	sort.Slice(tags, func(i, j int) bool {
		return domain.NormalizeTagName(tags[i].Name) < domain.NormalizeTagName(tags[j].Name)
	})

	return tags, nil
}

// DeleteTag hard-deletes a tag and all of its paper associations.
func (s *Store) DeleteTag(ctx context.Context, tagID string) error {
	t, err := s.GetTag(ctx, tagID)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		// Remove main record.
		if err := txn.Delete([]byte(tagPrefix + tagID)); err != nil {
			return err
		}

		// Remove owner and name indexes.
		ownerKey := []byte(tagByOwnerPrefix + t.OwnerID + ":" + tagID)
		if err := txn.Delete(ownerKey); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := txn.Delete(tagNameKey(t.OwnerID, t.Name)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		// Remove all paper associations.
		prefix := []byte(tagPapersPrefix + tagID + ":")
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		var keysToDelete [][]byte
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keyCopy := make([]byte, len(it.Item().Key()))
			copy(keyCopy, it.Item().Key())
			keysToDelete = append(keysToDelete, keyCopy)

			// Extract paperID for reverse index cleanup.
			paperID := string(keyCopy[len(prefix):])
			reverseKey := []byte(paperTagsPrefix + paperID + ":" + tagID)
			keysToDelete = append(keysToDelete, reverseKey)
		}

		for _, k := range keysToDelete {
			if err := txn.Delete(k); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
		}

		return nil
	})
}

// AddTagToPaper attaches a tag to a paper. Idempotent.
func (s *Store) AddTagToPaper(ctx context.Context, tagID string, paperID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	paperIDStr := strconv.FormatInt(paperID, 10)
	return s.db.Update(func(txn *badger.Txn) error {
		// Check if relationship already exists.
		tpKey := []byte(tagPapersPrefix + tagID + ":" + paperIDStr)
		_, err := txn.Get(tpKey)
		if err == nil {
			// Already exists, idempotent success.
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		// Forward index: tag -> paper.
		if err := txn.Set(tpKey, []byte{}); err != nil {
			return err
		}

		// Reverse index: paper -> tag.
		ptKey := []byte(paperTagsPrefix + paperIDStr + ":" + tagID)
		return txn.Set(ptKey, []byte{})
	})
}

// RemoveTagFromPaper detaches a tag from a paper. Idempotent.
func (s *Store) RemoveTagFromPaper(ctx context.Context, tagID string, paperID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	paperIDStr := strconv.FormatInt(paperID, 10)
	return s.db.Update(func(txn *badger.Txn) error {
		tpKey := []byte(tagPapersPrefix + tagID + ":" + paperIDStr)
		if err := txn.Delete(tpKey); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		ptKey := []byte(paperTagsPrefix + paperIDStr + ":" + tagID)
		if err := txn.Delete(ptKey); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		return nil
	})
}

// GetTagsForPaper returns the tags on a paper, across all owners.
// Callers filter by owner for user-facing queries.
func (s *Store) GetTagsForPaper(ctx context.Context, paperID int64) ([]*domain.Tag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := paperTagsPrefix + strconv.FormatInt(paperID, 10) + ":"
	var tagIDs []string
	err := s.iterateKeys(prefix, func(rest string) error {
		tagIDs = append(tagIDs, rest)
		return nil
	})
	if err != nil {
		return nil, err
	}

	tags := make([]*domain.Tag, 0, len(tagIDs))
	for _, tagID := range tagIDs {
		t, err := s.GetTag(ctx, tagID)
		if err != nil {
			continue // Skip missing tags.
		}
		tags = append(tags, t)
	}

	sort.Slice(tags, func(i, j int) bool {
		return domain.NormalizeTagName(tags[i].Name) < domain.NormalizeTagName(tags[j].Name)
	})

	return tags, nil
}

// GetUserTagsOnPaper returns the owner's tags attached to a paper.
func (s *Store) GetUserTagsOnPaper(ctx context.Context, ownerID string, paperID int64) ([]*domain.Tag, error) {
	all, err := s.GetTagsForPaper(ctx, paperID)
	if err != nil {
		return nil, err
	}

	tags := all[:0]
	for _, t := range all {
		if t.OwnerID == ownerID {
			tags = append(tags, t)
		}
	}
	return tags, nil
}

// GetPaperIDsForTag returns all paper IDs carrying a specific tag.
func (s *Store) GetPaperIDsForTag(ctx context.Context, tagID string) ([]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var paperIDs []int64
	err := s.iterateKeys(tagPapersPrefix+tagID+":", func(rest string) error {
		paperID, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			return nil // Skip malformed keys.
		}
		paperIDs = append(paperIDs, paperID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return paperIDs, nil
}

// HasTagOnPaper reports whether the tag is attached to the paper.
func (s *Store) HasTagOnPaper(ctx context.Context, tagID string, paperID int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	tpKey := []byte(tagPapersPrefix + tagID + ":" + strconv.FormatInt(paperID, 10))
	return s.exists(tpKey)
}
