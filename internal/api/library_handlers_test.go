package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLibrary_UpsertDefaultsWantToReadFalse(t *testing.T) {
	ts := setupTestServer(t)
	auth := ts.registerTestUser(t, "ada@example.com")
	paper := ts.createTestPaper(t, "Attention Is All You Need")

	resp := ts.api.Put(fmt.Sprintf("/api/v1/library/%d", paper.ID), bearer(auth.AccessToken), map[string]any{})

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	entry := decodeData[LibraryEntryResponse](t, resp.Body.Bytes())
	assert.Equal(t, paper.ID, entry.PaperID)
	assert.False(t, entry.WantToRead)
}

func TestLibrary_UpsertIsIdempotent(t *testing.T) {
	ts := setupTestServer(t)
	auth := ts.registerTestUser(t, "ada@example.com")
	paper := ts.createTestPaper(t, "Attention Is All You Need")

	path := fmt.Sprintf("/api/v1/library/%d", paper.ID)
	body := map[string]any{"want_to_read": true}

	resp := ts.api.Put(path, bearer(auth.AccessToken), body)
	require.Equal(t, http.StatusOK, resp.Code)
	first := decodeData[LibraryEntryResponse](t, resp.Body.Bytes())

	resp = ts.api.Put(path, bearer(auth.AccessToken), body)
	require.Equal(t, http.StatusOK, resp.Code)
	second := decodeData[LibraryEntryResponse](t, resp.Body.Bytes())

	assert.True(t, second.WantToRead)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)

	// Still exactly one library item.
	resp = ts.api.Get("/api/v1/library", bearer(auth.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code)
	library := decodeData[LibraryResponse](t, resp.Body.Bytes())
	assert.Len(t, library.Items, 1)
}

func TestLibrary_UpsertUnknownPaperNotFound(t *testing.T) {
	ts := setupTestServer(t)
	auth := ts.registerTestUser(t, "ada@example.com")

	resp := ts.api.Put("/api/v1/library/999999", bearer(auth.AccessToken), map[string]any{})

	assert.Equal(t, http.StatusNotFound, resp.Code)
	envErr := decodeError(t, resp.Body.Bytes())
	assert.Equal(t, "NOT_FOUND", envErr.Code)
}

func TestLibrary_GetEntryDistinguishesAbsent(t *testing.T) {
	ts := setupTestServer(t)
	auth := ts.registerTestUser(t, "ada@example.com")
	paper := ts.createTestPaper(t, "Attention Is All You Need")

	path := fmt.Sprintf("/api/v1/library/%d", paper.ID)

	resp := ts.api.Get(path, bearer(auth.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code)
	maybe := decodeData[MaybeLibraryEntryResponse](t, resp.Body.Bytes())
	assert.False(t, maybe.Present)
	assert.Nil(t, maybe.Entry)

	ts.api.Put(path, bearer(auth.AccessToken), map[string]any{"want_to_read": true})

	resp = ts.api.Get(path, bearer(auth.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code)
	maybe = decodeData[MaybeLibraryEntryResponse](t, resp.Body.Bytes())
	assert.True(t, maybe.Present)
	require.NotNil(t, maybe.Entry)
	assert.True(t, maybe.Entry.WantToRead)
}

func TestLibrary_RemoveEntry(t *testing.T) {
	ts := setupTestServer(t)
	auth := ts.registerTestUser(t, "ada@example.com")
	paper := ts.createTestPaper(t, "Attention Is All You Need")

	path := fmt.Sprintf("/api/v1/library/%d", paper.ID)
	ts.api.Put(path, bearer(auth.AccessToken), map[string]any{})

	resp := ts.api.Delete(path, bearer(auth.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get(path, bearer(auth.AccessToken))
	maybe := decodeData[MaybeLibraryEntryResponse](t, resp.Body.Bytes())
	assert.False(t, maybe.Present)

	// Removing again is a no-op, not an error.
	resp = ts.api.Delete(path, bearer(auth.AccessToken))
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestLibrary_ScopedPerUser(t *testing.T) {
	ts := setupTestServer(t)
	ada := ts.registerTestUser(t, "ada@example.com")
	bob := ts.registerTestUser(t, "bob@example.com")
	paper := ts.createTestPaper(t, "Attention Is All You Need")

	ts.api.Put(fmt.Sprintf("/api/v1/library/%d", paper.ID), bearer(ada.AccessToken), map[string]any{})

	resp := ts.api.Get("/api/v1/library", bearer(bob.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code)
	library := decodeData[LibraryResponse](t, resp.Body.Bytes())
	assert.Empty(t, library.Items)
}

func TestLibrary_RequiresAuth(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/library")

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}
