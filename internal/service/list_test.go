package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/paperdeckapp/paperdeck-server/internal/errors"
)

func TestListService_CreateList(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	user := createTestUser(t, env.store, "ada@example.com")

	list, err := env.lists.CreateList(ctx, CreateListRequest{
		UserID: user.ID,
		Name:   "Reading",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, list.ID)
	assert.Equal(t, user.ID, list.OwnerID)
	assert.False(t, list.Public)
	assert.Empty(t, list.PaperIDs)
}

func TestListService_CreateList_WithFirstPaper(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	user := createTestUser(t, env.store, "ada@example.com")
	paper := createTestPaper(t, env.store, "A Paper")

	list, err := env.lists.CreateList(ctx, CreateListRequest{
		UserID:  user.ID,
		Name:    "Reading",
		PaperID: paper.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{paper.ID}, list.PaperIDs)
}

func TestListService_AddPaperToList_DuplicateIsConflict(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	user := createTestUser(t, env.store, "ada@example.com")
	paper := createTestPaper(t, env.store, "A Paper")

	list, err := env.lists.CreateList(ctx, CreateListRequest{UserID: user.ID, Name: "Reading"})
	require.NoError(t, err)

	updated, err := env.lists.AddPaperToList(ctx, user.ID, list.ID, paper.ID)
	require.NoError(t, err)
	assert.Len(t, updated.PaperIDs, 1)

	_, err = env.lists.AddPaperToList(ctx, user.ID, list.ID, paper.ID)
	require.Error(t, err)

	var derr *domainerrors.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domainerrors.CodeConflict, derr.Code)

	// The list grew by exactly one entry across both calls
	got, err := env.lists.GetList(ctx, user.ID, list.ID)
	require.NoError(t, err)
	assert.Len(t, got.PaperIDs, 1)
}

func TestListService_OwnershipEnforcement(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	ada := createTestUser(t, env.store, "ada@example.com")
	bob := createTestUser(t, env.store, "bob@example.com")
	paper := createTestPaper(t, env.store, "A Paper")

	list, err := env.lists.CreateList(ctx, CreateListRequest{UserID: ada.ID, Name: "Reading", PaperID: paper.ID})
	require.NoError(t, err)

	assertForbidden := func(t *testing.T, err error) {
		t.Helper()
		require.Error(t, err)
		var derr *domainerrors.Error
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, domainerrors.CodeForbidden, derr.Code)
	}

	_, err = env.lists.AddPaperToList(ctx, bob.ID, list.ID, paper.ID)
	assertForbidden(t, err)

	_, err = env.lists.RemovePaperFromList(ctx, bob.ID, list.ID, paper.ID)
	assertForbidden(t, err)

	_, err = env.lists.RemovePapersFromList(ctx, bob.ID, list.ID, []int64{paper.ID})
	assertForbidden(t, err)

	_, err = env.lists.ChangePrivacy(ctx, bob.ID, list.ID, true)
	assertForbidden(t, err)

	assertForbidden(t, env.lists.DeleteList(ctx, bob.ID, list.ID))

	// Nothing was mutated by the rejected calls
	got, err := env.lists.GetList(ctx, ada.ID, list.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{paper.ID}, got.PaperIDs)
	assert.False(t, got.Public)
}

func TestListService_PrivateListVisibility_EndToEnd(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	ada := createTestUser(t, env.store, "ada@example.com")
	bob := createTestUser(t, env.store, "bob@example.com")
	paper := createTestPaper(t, env.store, "A Paper")

	list, err := env.lists.CreateList(ctx, CreateListRequest{
		UserID: ada.ID,
		Name:   "Reading",
		Public: false,
	})
	require.NoError(t, err)

	_, err = env.lists.AddPaperToList(ctx, ada.ID, list.ID, paper.ID)
	require.NoError(t, err)

	// Owner sees the entry
	got, items, err := env.lists.GetListPapers(ctx, ada.ID, list.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, paper.ID, items[0].Paper.ID)
	assert.Equal(t, list.ID, got.ID)

	// Another user is rejected while the list is private
	_, err = env.lists.GetList(ctx, bob.ID, list.ID)
	require.Error(t, err)
	var derr *domainerrors.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domainerrors.CodeForbidden, derr.Code)

	// After going public, the same read succeeds with the same entry
	_, err = env.lists.ChangePrivacy(ctx, ada.ID, list.ID, true)
	require.NoError(t, err)

	_, items, err = env.lists.GetListPapers(ctx, bob.ID, list.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, paper.ID, items[0].Paper.ID)
}

func TestListService_RemovePapersFromList(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	user := createTestUser(t, env.store, "ada@example.com")
	paper1 := createTestPaper(t, env.store, "One")
	paper2 := createTestPaper(t, env.store, "Two")
	paper3 := createTestPaper(t, env.store, "Three")

	list, err := env.lists.CreateList(ctx, CreateListRequest{UserID: user.ID, Name: "Reading"})
	require.NoError(t, err)

	for _, p := range []int64{paper1.ID, paper2.ID, paper3.ID} {
		_, err = env.lists.AddPaperToList(ctx, user.ID, list.ID, p)
		require.NoError(t, err)
	}

	updated, err := env.lists.RemovePapersFromList(ctx, user.ID, list.ID, []int64{paper1.ID, paper3.ID})
	require.NoError(t, err)
	assert.Equal(t, []int64{paper2.ID}, updated.PaperIDs)

	// Removing absent papers is a no-op
	updated, err = env.lists.RemovePapersFromList(ctx, user.ID, list.ID, []int64{paper1.ID})
	require.NoError(t, err)
	assert.Equal(t, []int64{paper2.ID}, updated.PaperIDs)
}

func TestListService_GetUserListsWherePaper(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	user := createTestUser(t, env.store, "ada@example.com")
	paper := createTestPaper(t, env.store, "A Paper")

	inList, err := env.lists.CreateList(ctx, CreateListRequest{UserID: user.ID, Name: "Has it", PaperID: paper.ID})
	require.NoError(t, err)
	_, err = env.lists.CreateList(ctx, CreateListRequest{UserID: user.ID, Name: "Empty"})
	require.NoError(t, err)

	lists, err := env.lists.GetUserListsWherePaper(ctx, user.ID, paper.ID)
	require.NoError(t, err)
	require.Len(t, lists, 1)
	assert.Equal(t, inList.ID, lists[0].ID)
}

func TestListService_DeleteList(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	user := createTestUser(t, env.store, "ada@example.com")

	list, err := env.lists.CreateList(ctx, CreateListRequest{UserID: user.ID, Name: "Doomed"})
	require.NoError(t, err)

	require.NoError(t, env.lists.DeleteList(ctx, user.ID, list.ID))

	_, err = env.lists.GetList(ctx, user.ID, list.ID)
	require.Error(t, err)

	var derr *domainerrors.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domainerrors.CodeNotFound, derr.Code)
}
