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

// Key prefixes for list storage.
// The paper→lists reverse index answers "which of my lists contain this
// paper" without scanning every list.
const (
	listPrefix        = "list:"             // list:{id} → List JSON
	listByOwnerPrefix = "idx:lists:owner:"  // idx:lists:owner:{ownerID}:{listID} → empty
	paperListsPrefix  = "idx:papers:lists:" // idx:papers:lists:{paperID}:{listID} → empty
)

// List errors.
var ErrListNotFound = errors.New("list not found")

// CreateList stores a new list and its indexes.
func (s *Store) CreateList(ctx context.Context, l *domain.List) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ownerKey := []byte(listByOwnerPrefix + l.OwnerID + ":" + l.ID)

	return s.db.Update(func(txn *badger.Txn) error {
		data, err := json.Marshal(l)
		if err != nil {
			return fmt.Errorf("marshal list: %w", err)
		}
		if err := txn.Set([]byte(listPrefix+l.ID), data); err != nil {
			return err
		}

		if err := txn.Set(ownerKey, []byte{}); err != nil {
			return err
		}

		// Reverse index for any papers the list starts with.
		for _, paperID := range l.PaperIDs {
			plKey := []byte(paperListsPrefix + strconv.FormatInt(paperID, 10) + ":" + l.ID)
			if err := txn.Set(plKey, []byte{}); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetList retrieves a list by ID.
func (s *Store) GetList(ctx context.Context, listID string) (*domain.List, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var l domain.List
	if err := s.get([]byte(listPrefix+listID), &l); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrListNotFound
		}
		return nil, fmt.Errorf("get list: %w", err)
	}

	return &l, nil
}

// UpdateList rewrites a list, keeping the paper→lists reverse index in
// sync with membership changes.
func (s *Store) UpdateList(ctx context.Context, l *domain.List) error {
	old, err := s.GetList(ctx, l.ID)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		data, err := json.Marshal(l)
		if err != nil {
			return fmt.Errorf("marshal list: %w", err)
		}
		if err := txn.Set([]byte(listPrefix+l.ID), data); err != nil {
			return err
		}

		// Diff membership for reverse index maintenance.
		oldSet := make(map[int64]bool, len(old.PaperIDs))
		for _, paperID := range old.PaperIDs {
			oldSet[paperID] = true
		}
		newSet := make(map[int64]bool, len(l.PaperIDs))
		for _, paperID := range l.PaperIDs {
			newSet[paperID] = true
		}

		for paperID := range newSet {
			if !oldSet[paperID] {
				plKey := []byte(paperListsPrefix + strconv.FormatInt(paperID, 10) + ":" + l.ID)
				if err := txn.Set(plKey, []byte{}); err != nil {
					return err
				}
			}
		}
		for paperID := range oldSet {
			if !newSet[paperID] {
				plKey := []byte(paperListsPrefix + strconv.FormatInt(paperID, 10) + ":" + l.ID)
				if err := txn.Delete(plKey); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
					return err
				}
			}
		}
		return nil
	})
}

// DeleteList removes a list and all of its indexes.
func (s *Store) DeleteList(ctx context.Context, listID string) error {
	l, err := s.GetList(ctx, listID)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(listPrefix + listID)); err != nil {
			return err
		}

		ownerKey := []byte(listByOwnerPrefix + l.OwnerID + ":" + listID)
		if err := txn.Delete(ownerKey); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		for _, paperID := range l.PaperIDs {
			plKey := []byte(paperListsPrefix + strconv.FormatInt(paperID, 10) + ":" + listID)
			if err := txn.Delete(plKey); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
		}
		return nil
	})
}

// ListUserLists returns all of the owner's lists, newest first.
func (s *Store) ListUserLists(ctx context.Context, ownerID string) ([]*domain.List, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var listIDs []string
	err := s.iterateKeys(listByOwnerPrefix+ownerID+":", func(rest string) error {
		listIDs = append(listIDs, rest)
		return nil
	})
	if err != nil {
		return nil, err
	}

	lists := make([]*domain.List, 0, len(listIDs))
	for _, listID := range listIDs {
		l, err := s.GetList(ctx, listID)
		if err != nil {
			continue // Skip missing lists.
		}
		lists = append(lists, l)
	}

	sort.Slice(lists, func(i, j int) bool {
		return lists[i].CreatedAt.After(lists[j].CreatedAt)
	})

	return lists, nil
}

// GetListIDsForPaper returns the ids of every list containing the paper,
// across all owners. Callers filter by owner and visibility.
func (s *Store) GetListIDsForPaper(ctx context.Context, paperID int64) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var listIDs []string
	err := s.iterateKeys(paperListsPrefix+strconv.FormatInt(paperID, 10)+":", func(rest string) error {
		listIDs = append(listIDs, rest)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return listIDs, nil
}

// GetUserListsWherePaper returns the owner's lists that contain the paper.
func (s *Store) GetUserListsWherePaper(ctx context.Context, ownerID string, paperID int64) ([]*domain.List, error) {
	listIDs, err := s.GetListIDsForPaper(ctx, paperID)
	if err != nil {
		return nil, err
	}

	var lists []*domain.List
	for _, listID := range listIDs {
		l, err := s.GetList(ctx, listID)
		if err != nil {
			continue
		}
		if l.OwnerID == ownerID {
			lists = append(lists, l)
		}
	}

	sort.Slice(lists, func(i, j int) bool {
		return lists[i].CreatedAt.After(lists[j].CreatedAt)
	})

	return lists, nil
}
