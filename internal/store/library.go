package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/paperdeckapp/paperdeck-server/internal/domain"
)

// Key prefix for library entries.
// One row per (user, paper) pair keyed lib:{userID}:{paperID}, so a user's
// whole library is one prefix scan.
const libraryPrefix = "lib:"

// ErrLibraryEntryNotFound is returned when a user has no entry for a paper.
var ErrLibraryEntryNotFound = errors.New("library entry not found")

// libraryKey formats the primary key for a (user, paper) pair.
func libraryKey(userID string, paperID int64) []byte {
	return []byte(libraryPrefix + userID + ":" + strconv.FormatInt(paperID, 10))
}

// UpsertLibraryEntry creates or updates the user's library entry for a paper.
// A nil wantToRead leaves an existing entry's flag untouched and defaults a
// new entry to false; CreatedAt is always preserved. Returns the stored entry.
func (s *Store) UpsertLibraryEntry(ctx context.Context, userID string, paperID int64, wantToRead *bool) (*domain.LibraryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := libraryKey(userID, paperID)
	entry := &domain.LibraryEntry{UserID: userID, PaperID: paperID}

	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		switch {
		case err == nil:
			// Existing entry: keep CreatedAt and, absent an explicit
			// value, the stored flag.
			var old domain.LibraryEntry
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &old)
			}); err != nil {
				return err
			}
			entry.CreatedAt = old.CreatedAt
			entry.WantToRead = old.WantToRead
		case errors.Is(err, badger.ErrKeyNotFound):
			entry.CreatedAt = time.Now()
		default:
			return err
		}

		if wantToRead != nil {
			entry.WantToRead = *wantToRead
		}

		entry.Touch()
		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("marshal library entry: %w", err)
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// GetLibraryEntry retrieves the user's entry for a paper.
func (s *Store) GetLibraryEntry(ctx context.Context, userID string, paperID int64) (*domain.LibraryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entry domain.LibraryEntry
	if err := s.get(libraryKey(userID, paperID), &entry); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrLibraryEntryNotFound
		}
		return nil, fmt.Errorf("get library entry: %w", err)
	}

	return &entry, nil
}

// DeleteLibraryEntry removes the user's entry for a paper. Idempotent.
func (s *Store) DeleteLibraryEntry(ctx context.Context, userID string, paperID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.delete(libraryKey(userID, paperID))
}

// ListLibraryEntries returns all of the user's library entries, newest first.
func (s *Store) ListLibraryEntries(ctx context.Context, userID string) ([]*domain.LibraryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := []byte(libraryPrefix + userID + ":")
	var entries []*domain.LibraryEntry

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchSize = 100

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var entry domain.LibraryEntry
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			})
			if err != nil {
				continue
			}
			entries = append(entries, &entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})

	return entries, nil
}
