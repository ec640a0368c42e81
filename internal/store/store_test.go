package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperdeckapp/paperdeck-server/internal/domain"
)

// setupTestStore creates a temporary store for testing
func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	// Create temp directory for test database
	tmpDir, err := os.MkdirTemp("", "paperdeck-test-*")
	require.NoError(t, err)

	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := New(dbPath, nil)
	require.NoError(t, err)
	require.NotNil(t, store)

	// Return cleanup function
	cleanup := func() {
		store.Close()
		os.RemoveAll(tmpDir)
	}

	return store, cleanup
}

// testPaper returns a minimal valid paper for store tests.
func testPaper(arxivID string) *domain.Paper {
	now := time.Now()
	return &domain.Paper{
		ArxivID:     arxivID,
		Title:       "Attention Is All You Need",
		Abstract:    "The dominant sequence transduction models...",
		Authors:     []string{"Ashish Vaswani", "Noam Shazeer"},
		Categories:  []string{"cs.CL", "cs.LG"},
		PublishedAt: now.Add(-24 * time.Hour),
		RevisedAt:   now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestCreatePaper_AssignsSequentialIDs(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	p1 := testPaper("1706.03762")
	require.NoError(t, store.CreatePaper(ctx, p1))
	assert.Positive(t, p1.ID)

	p2 := testPaper("2310.06825")
	require.NoError(t, store.CreatePaper(ctx, p2))
	assert.Greater(t, p2.ID, p1.ID)
}

func TestCreatePaper_DuplicateArxivID(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, store.CreatePaper(ctx, testPaper("1706.03762")))

	err := store.CreatePaper(ctx, testPaper("1706.03762"))
	assert.ErrorIs(t, err, ErrPaperExists)

	// Version suffixes collapse onto the same paper.
	err = store.CreatePaper(ctx, testPaper("1706.03762v5"))
	assert.ErrorIs(t, err, ErrPaperExists)
}

func TestGetPaperByArxivID(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	p := testPaper("1706.03762")
	require.NoError(t, store.CreatePaper(ctx, p))

	got, err := store.GetPaperByArxivID(ctx, "1706.03762v3")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, p.Title, got.Title)

	_, err = store.GetPaperByArxivID(ctx, "9999.00000")
	assert.ErrorIs(t, err, ErrPaperNotFound)
}

func TestFindOrCreatePaperByArxivID(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	p, created, err := store.FindOrCreatePaperByArxivID(ctx, testPaper("1706.03762"))
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := store.FindOrCreatePaperByArxivID(ctx, testPaper("1706.03762"))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, p.ID, again.ID)
}

func TestListRecentPapers_OrderAndLimit(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	old := testPaper("2101.00001")
	old.PublishedAt = time.Now().Add(-72 * time.Hour)
	recent := testPaper("2310.06825")
	recent.PublishedAt = time.Now().Add(-1 * time.Hour)
	middle := testPaper("2205.00002")
	middle.PublishedAt = time.Now().Add(-24 * time.Hour)

	require.NoError(t, store.CreatePaper(ctx, old))
	require.NoError(t, store.CreatePaper(ctx, recent))
	require.NoError(t, store.CreatePaper(ctx, middle))

	papers, err := store.ListRecentPapers(ctx, 2)
	require.NoError(t, err)
	require.Len(t, papers, 2)
	assert.Equal(t, recent.ArxivID, papers[0].ArxivID)
	assert.Equal(t, middle.ArxivID, papers[1].ArxivID)
}

func TestUpdatePaper_ArxivIDImmutable(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	p := testPaper("1706.03762")
	require.NoError(t, store.CreatePaper(ctx, p))

	p.ArxivID = "2310.06825"
	err := store.UpdatePaper(ctx, p)
	assert.Error(t, err)
}

func TestCreateUser_EmailUniqueness(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	user := &domain.User{ID: "user_a", Email: "Ada@Example.com", DisplayName: "Ada"}
	require.NoError(t, store.CreateUser(ctx, user))

	// Same email with different casing is rejected.
	dup := &domain.User{ID: "user_b", Email: "ada@example.com"}
	assert.ErrorIs(t, store.CreateUser(ctx, dup), ErrEmailExists)

	// Lookups are case-insensitive.
	got, err := store.GetUserByEmail(ctx, "ADA@EXAMPLE.COM")
	require.NoError(t, err)
	assert.Equal(t, "user_a", got.ID)
}

func TestLibraryEntry_UpsertPreservesCreatedAt(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	wantToRead := true
	first, err := store.UpsertLibraryEntry(ctx, "user_a", 1, &wantToRead)
	require.NoError(t, err)
	assert.True(t, first.WantToRead)

	// Re-save with a different flag.
	noLonger := false
	second, err := store.UpsertLibraryEntry(ctx, "user_a", 1, &noLonger)
	require.NoError(t, err)

	assert.False(t, second.WantToRead)
	assert.Equal(t, first.CreatedAt.Unix(), second.CreatedAt.Unix())

	// Still exactly one entry.
	entries, err := store.ListLibraryEntries(ctx, "user_a")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLibraryEntry_UpsertNilFlagKeepsStoredValue(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	wantToRead := true
	_, err := store.UpsertLibraryEntry(ctx, "user_a", 1, &wantToRead)
	require.NoError(t, err)

	entry, err := store.UpsertLibraryEntry(ctx, "user_a", 1, nil)
	require.NoError(t, err)
	assert.True(t, entry.WantToRead, "nil flag must not reset the stored value")

	// On create a nil flag defaults to false.
	entry, err = store.UpsertLibraryEntry(ctx, "user_a", 2, nil)
	require.NoError(t, err)
	assert.False(t, entry.WantToRead)
}

func TestDeleteLibraryEntry_Idempotent(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	_, err := store.UpsertLibraryEntry(ctx, "user_a", 1, nil)
	require.NoError(t, err)

	require.NoError(t, store.DeleteLibraryEntry(ctx, "user_a", 1))
	require.NoError(t, store.DeleteLibraryEntry(ctx, "user_a", 1))

	_, err = store.GetLibraryEntry(ctx, "user_a", 1)
	assert.ErrorIs(t, err, ErrLibraryEntryNotFound)
}

func TestCreateTag_NameUniquePerOwner(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now()

	tag := &domain.Tag{ID: "tag_1", OwnerID: "user_a", Name: "To Review", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, store.CreateTag(ctx, tag))

	// Same owner, same normalized name → conflict.
	dup := &domain.Tag{ID: "tag_2", OwnerID: "user_a", Name: "  to review "}
	assert.ErrorIs(t, store.CreateTag(ctx, dup), ErrTagExists)

	// Different owner, same name → fine.
	other := &domain.Tag{ID: "tag_3", OwnerID: "user_b", Name: "To Review"}
	assert.NoError(t, store.CreateTag(ctx, other))
}

func TestTagPaperAssociations(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	mine := &domain.Tag{ID: "tag_mine", OwnerID: "user_a", Name: "transformers"}
	theirs := &domain.Tag{ID: "tag_theirs", OwnerID: "user_b", Name: "transformers"}
	require.NoError(t, store.CreateTag(ctx, mine))
	require.NoError(t, store.CreateTag(ctx, theirs))

	require.NoError(t, store.AddTagToPaper(ctx, "tag_mine", 7))
	require.NoError(t, store.AddTagToPaper(ctx, "tag_theirs", 7))
	// Idempotent.
	require.NoError(t, store.AddTagToPaper(ctx, "tag_mine", 7))

	// Per-user view filters the other owner's tag.
	tags, err := store.GetUserTagsOnPaper(ctx, "user_a", 7)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "tag_mine", tags[0].ID)

	paperIDs, err := store.GetPaperIDsForTag(ctx, "tag_mine")
	require.NoError(t, err)
	assert.Equal(t, []int64{7}, paperIDs)

	require.NoError(t, store.RemoveTagFromPaper(ctx, "tag_mine", 7))
	tags, err = store.GetUserTagsOnPaper(ctx, "user_a", 7)
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestDeleteTag_CleansAssociations(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	tag := &domain.Tag{ID: "tag_1", OwnerID: "user_a", Name: "survey"}
	require.NoError(t, store.CreateTag(ctx, tag))
	require.NoError(t, store.AddTagToPaper(ctx, "tag_1", 1))
	require.NoError(t, store.AddTagToPaper(ctx, "tag_1", 2))

	require.NoError(t, store.DeleteTag(ctx, "tag_1"))

	_, err := store.GetTag(ctx, "tag_1")
	assert.ErrorIs(t, err, ErrTagNotFound)

	tags, err := store.GetUserTagsOnPaper(ctx, "user_a", 1)
	require.NoError(t, err)
	assert.Empty(t, tags)

	// Name is free to reuse.
	assert.NoError(t, store.CreateTag(ctx, &domain.Tag{ID: "tag_2", OwnerID: "user_a", Name: "survey"}))
}

func TestLists_ReverseIndex(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now()

	l := &domain.List{
		ID:        "list_1",
		OwnerID:   "user_a",
		Name:      "Reading Group",
		Public:    true,
		PaperIDs:  []int64{1, 2},
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, store.CreateList(ctx, l))

	lists, err := store.GetUserListsWherePaper(ctx, "user_a", 1)
	require.NoError(t, err)
	require.Len(t, lists, 1)
	assert.Equal(t, "list_1", lists[0].ID)

	// Other owners see nothing.
	lists, err = store.GetUserListsWherePaper(ctx, "user_b", 1)
	require.NoError(t, err)
	assert.Empty(t, lists)

	// Removing the paper updates the reverse index.
	l.RemovePaper(1)
	require.NoError(t, store.UpdateList(ctx, l))

	lists, err = store.GetUserListsWherePaper(ctx, "user_a", 1)
	require.NoError(t, err)
	assert.Empty(t, lists)

	lists, err = store.GetUserListsWherePaper(ctx, "user_a", 2)
	require.NoError(t, err)
	assert.Len(t, lists, 1)
}

func TestDeleteList_CleansReverseIndex(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	l := &domain.List{ID: "list_1", OwnerID: "user_a", Name: "Temp", PaperIDs: []int64{5}}
	require.NoError(t, store.CreateList(ctx, l))
	require.NoError(t, store.DeleteList(ctx, "list_1"))

	_, err := store.GetList(ctx, "list_1")
	assert.ErrorIs(t, err, ErrListNotFound)

	listIDs, err := store.GetListIDsForPaper(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, listIDs)
}

func TestSessions_Lifecycle(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	session := &domain.Session{
		ID:               "session_test123",
		UserID:           "user_test123",
		RefreshTokenHash: "hashed_token",
		ExpiresAt:        time.Now().Add(24 * time.Hour),
		CreatedAt:        time.Now(),
		LastSeenAt:       time.Now(),
		UserAgent:        "PaperDeck Web 1.0",
	}
	require.NoError(t, store.CreateSession(ctx, session))

	// Lookup by refresh token hash.
	got, err := store.GetSessionByRefreshToken(ctx, "hashed_token")
	require.NoError(t, err)
	assert.Equal(t, session.ID, got.ID)

	// Token rotation updates the index.
	session.RefreshTokenHash = "rotated_token"
	require.NoError(t, store.UpdateSession(ctx, session))

	_, err = store.GetSessionByRefreshToken(ctx, "hashed_token")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	got, err = store.GetSessionByRefreshToken(ctx, "rotated_token")
	require.NoError(t, err)
	assert.Equal(t, session.ID, got.ID)

	// Delete is idempotent.
	require.NoError(t, store.DeleteSession(ctx, session.ID))
	require.NoError(t, store.DeleteSession(ctx, session.ID))
	_, err = store.GetSession(ctx, session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestGetSession_Expired(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	session := &domain.Session{
		ID:               "session_old",
		UserID:           "user_a",
		RefreshTokenHash: "old_token",
		ExpiresAt:        time.Now().Add(-time.Hour),
		CreatedAt:        time.Now().Add(-48 * time.Hour),
		LastSeenAt:       time.Now().Add(-48 * time.Hour),
	}
	require.NoError(t, store.CreateSession(ctx, session))

	_, err := store.GetSession(ctx, "session_old")
	assert.ErrorIs(t, err, ErrSessionExpired)

	// Expired sessions are filtered from listings.
	sessions, err := store.ListUserSessions(ctx, "user_a")
	require.NoError(t, err)
	assert.Empty(t, sessions)
}
