package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTag(t *testing.T, ts *testServer, token, name string) TagResponse {
	t.Helper()

	resp := ts.api.Post("/api/v1/tags", bearer(token), map[string]any{"name": name})
	require.Equal(t, http.StatusOK, resp.Code, "create tag failed: %s", resp.Body.String())
	return decodeData[TagResponse](t, resp.Body.Bytes())
}

func TestTags_CreateAndList(t *testing.T) {
	ts := setupTestServer(t)
	auth := ts.registerTestUser(t, "ada@example.com")

	created := createTag(t, ts, auth.AccessToken, "reading-list")
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "reading-list", created.Name)

	resp := ts.api.Get("/api/v1/tags", bearer(auth.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code)
	list := decodeData[ListTagsResponse](t, resp.Body.Bytes())
	require.Len(t, list.Tags, 1)
	assert.Equal(t, created.ID, list.Tags[0].ID)
}

func TestTags_DuplicateNameConflicts(t *testing.T) {
	ts := setupTestServer(t)
	auth := ts.registerTestUser(t, "ada@example.com")
	createTag(t, ts, auth.AccessToken, "reading-list")

	resp := ts.api.Post("/api/v1/tags", bearer(auth.AccessToken), map[string]any{"name": "Reading-List"})

	assert.Equal(t, http.StatusConflict, resp.Code)
	envErr := decodeError(t, resp.Body.Bytes())
	assert.Equal(t, "CONFLICT", envErr.Code)
}

func TestTags_CreateWithPaperAttaches(t *testing.T) {
	ts := setupTestServer(t)
	auth := ts.registerTestUser(t, "ada@example.com")
	paper := ts.createTestPaper(t, "Attention Is All You Need")

	resp := ts.api.Post("/api/v1/tags", bearer(auth.AccessToken), map[string]any{
		"name":     "transformers",
		"paper_id": paper.ID,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = ts.api.Get(fmt.Sprintf("/api/v1/papers/%d/tags", paper.ID), bearer(auth.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code)
	onPaper := decodeData[ListTagsResponse](t, resp.Body.Bytes())
	require.Len(t, onPaper.Tags, 1)
	assert.Equal(t, "transformers", onPaper.Tags[0].Name)
}

func TestTags_AddToPaperTwiceConflicts(t *testing.T) {
	ts := setupTestServer(t)
	auth := ts.registerTestUser(t, "ada@example.com")
	paper := ts.createTestPaper(t, "Attention Is All You Need")
	tag := createTag(t, ts, auth.AccessToken, "reading-list")

	path := fmt.Sprintf("/api/v1/papers/%d/tags/%s", paper.ID, tag.ID)
	body := map[string]any{"name": "reading-list"}

	resp := ts.api.Put(path, bearer(auth.AccessToken), body)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = ts.api.Put(path, bearer(auth.AccessToken), body)
	assert.Equal(t, http.StatusConflict, resp.Code)

	// Exactly one tag on the paper afterward.
	resp = ts.api.Get(fmt.Sprintf("/api/v1/papers/%d/tags", paper.ID), bearer(auth.AccessToken))
	onPaper := decodeData[ListTagsResponse](t, resp.Body.Bytes())
	require.Len(t, onPaper.Tags, 1)
	assert.Equal(t, "reading-list", onPaper.Tags[0].Name)
}

func TestTags_AddToPaperNameMustMatch(t *testing.T) {
	ts := setupTestServer(t)
	auth := ts.registerTestUser(t, "ada@example.com")
	paper := ts.createTestPaper(t, "Attention Is All You Need")
	tag := createTag(t, ts, auth.AccessToken, "reading-list")

	resp := ts.api.Put(fmt.Sprintf("/api/v1/papers/%d/tags/%s", paper.ID, tag.ID),
		bearer(auth.AccessToken), map[string]any{"name": "some-other-name"})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	envErr := decodeError(t, resp.Body.Bytes())
	assert.Equal(t, "VALIDATION", envErr.Code)
}

func TestTags_NonOwnerCannotUse(t *testing.T) {
	ts := setupTestServer(t)
	ada := ts.registerTestUser(t, "ada@example.com")
	bob := ts.registerTestUser(t, "bob@example.com")
	paper := ts.createTestPaper(t, "Attention Is All You Need")
	tag := createTag(t, ts, ada.AccessToken, "reading-list")

	resp := ts.api.Put(fmt.Sprintf("/api/v1/papers/%d/tags/%s", paper.ID, tag.ID),
		bearer(bob.AccessToken), map[string]any{"name": "reading-list"})
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = ts.api.Delete("/api/v1/tags/"+tag.ID, bearer(bob.AccessToken))
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestTags_RemoveFromPaper(t *testing.T) {
	ts := setupTestServer(t)
	auth := ts.registerTestUser(t, "ada@example.com")
	paper := ts.createTestPaper(t, "Attention Is All You Need")
	tag := createTag(t, ts, auth.AccessToken, "reading-list")

	path := fmt.Sprintf("/api/v1/papers/%d/tags/%s", paper.ID, tag.ID)
	ts.api.Put(path, bearer(auth.AccessToken), map[string]any{"name": "reading-list"})

	resp := ts.api.Delete(path, bearer(auth.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get(fmt.Sprintf("/api/v1/papers/%d/tags", paper.ID), bearer(auth.AccessToken))
	onPaper := decodeData[ListTagsResponse](t, resp.Body.Bytes())
	assert.Empty(t, onPaper.Tags)
}

func TestTags_RemoveMultipleFromPaper(t *testing.T) {
	ts := setupTestServer(t)
	auth := ts.registerTestUser(t, "ada@example.com")
	paper := ts.createTestPaper(t, "Attention Is All You Need")

	tag1 := createTag(t, ts, auth.AccessToken, "one")
	tag2 := createTag(t, ts, auth.AccessToken, "two")
	tag3 := createTag(t, ts, auth.AccessToken, "three")

	for _, tag := range []TagResponse{tag1, tag2, tag3} {
		resp := ts.api.Put(fmt.Sprintf("/api/v1/papers/%d/tags/%s", paper.ID, tag.ID),
			bearer(auth.AccessToken), map[string]any{"name": tag.Name})
		require.Equal(t, http.StatusOK, resp.Code)
	}

	resp := ts.api.Post(fmt.Sprintf("/api/v1/papers/%d/tags/remove", paper.ID),
		bearer(auth.AccessToken), map[string]any{"tag_ids": []string{tag1.ID, tag2.ID}})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = ts.api.Get(fmt.Sprintf("/api/v1/papers/%d/tags", paper.ID), bearer(auth.AccessToken))
	onPaper := decodeData[ListTagsResponse](t, resp.Body.Bytes())
	require.Len(t, onPaper.Tags, 1)
	assert.Equal(t, tag3.ID, onPaper.Tags[0].ID)
}

func TestTags_DeleteRemovesAssociations(t *testing.T) {
	ts := setupTestServer(t)
	auth := ts.registerTestUser(t, "ada@example.com")
	paper := ts.createTestPaper(t, "Attention Is All You Need")
	tag := createTag(t, ts, auth.AccessToken, "reading-list")

	ts.api.Put(fmt.Sprintf("/api/v1/papers/%d/tags/%s", paper.ID, tag.ID),
		bearer(auth.AccessToken), map[string]any{"name": "reading-list"})

	resp := ts.api.Delete("/api/v1/tags/"+tag.ID, bearer(auth.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get(fmt.Sprintf("/api/v1/papers/%d/tags", paper.ID), bearer(auth.AccessToken))
	onPaper := decodeData[ListTagsResponse](t, resp.Body.Bytes())
	assert.Empty(t, onPaper.Tags)
}
