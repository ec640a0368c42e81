package paperclient

import (
	"bytes"
	"context"
	"encoding/json/jsontext"
	"encoding/json/v2"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	domainerrors "github.com/paperdeckapp/paperdeck-server/internal/errors"
)

// Client implements Procedures over the PaperDeck HTTP API. All
// responses arrive in the versioned envelope {v, success, data|error};
// error envelopes are mapped back onto the server's error codes, so a
// Coordinator sees the same taxonomy on both sides of the wire.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	mu    sync.RWMutex
	token string
}

// ClientOptions configures a Client.
type ClientOptions struct {
	// BaseURL is the server root, e.g. "https://api.paperdeck.app".
	BaseURL string
	// HTTPClient defaults to a 30s-timeout client.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// NewClient creates an API client.
func NewClient(opts ClientOptions) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// SetToken sets the bearer token sent on subsequent requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

type envelope struct {
	V       string         `json:"v"`
	Success bool           `json:"success"`
	Data    jsontext.Value `json:"data,omitzero"`
	Error   *envelopeError `json:"error,omitzero"`
}

type envelopeError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details jsontext.Value `json:"details,omitzero"`
}

// do performs one request and decodes the envelope's data into out
// (when out is non-nil). Failure envelopes become domain errors keyed
// by the server's code; anything below the envelope (network failure,
// unparseable body) becomes a transport error.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.mu.RLock()
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	c.mu.RUnlock()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeTransport, "request failed")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeTransport, "read response")
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return domainerrors.Wrapf(err, domainerrors.CodeForStatus(resp.StatusCode),
			"unexpected response (status %d)", resp.StatusCode)
	}

	if !env.Success || resp.StatusCode >= 400 {
		return envelopeToError(&env, resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return domainerrors.Wrap(err, domainerrors.CodeInternal, "decode response data")
		}
	}
	return nil
}

func envelopeToError(env *envelope, status int) error {
	code := domainerrors.CodeForStatus(status)
	message := http.StatusText(status)
	if env.Error != nil {
		if env.Error.Code != "" {
			code = domainerrors.Code(env.Error.Code)
		}
		if env.Error.Message != "" {
			message = env.Error.Message
		}
	}
	return &domainerrors.Error{Code: code, Message: message}
}

// === Library ===

type maybeEntryResponse struct {
	Present bool          `json:"present"`
	Entry   *LibraryEntry `json:"entry,omitzero"`
}

// GetLibraryEntry returns the library entry for paperID, or nil when absent.
func (c *Client) GetLibraryEntry(ctx context.Context, _ string, paperID int64) (*LibraryEntry, error) {
	var resp maybeEntryResponse
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/library/%d", paperID), nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Present {
		return nil, nil
	}
	return resp.Entry, nil
}

// UpsertLibraryEntry creates or updates the library entry for paperID.
func (c *Client) UpsertLibraryEntry(ctx context.Context, _ string, paperID int64, wantToRead *bool) (*LibraryEntry, error) {
	body := struct {
		WantToRead *bool `json:"want_to_read,omitzero"`
	}{WantToRead: wantToRead}

	var entry LibraryEntry
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/v1/library/%d", paperID), body, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// RemoveLibraryEntry deletes the library entry for paperID.
func (c *Client) RemoveLibraryEntry(ctx context.Context, _ string, paperID int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/v1/library/%d", paperID), nil, nil)
}

// === Tags ===

type tagsResponse struct {
	Tags []Tag `json:"tags"`
}

// GetUserTagsOnPaper returns the user's tags attached to paperID.
func (c *Client) GetUserTagsOnPaper(ctx context.Context, _ string, paperID int64) ([]Tag, error) {
	var resp tagsResponse
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/papers/%d/tags", paperID), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Tags, nil
}

// AddUserTagToPaper attaches a tag to a paper; name must match the
// tag's stored name.
func (c *Client) AddUserTagToPaper(ctx context.Context, _ string, paperID int64, tagID, name string) error {
	body := struct {
		Name string `json:"name"`
	}{Name: name}
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/api/v1/papers/%d/tags/%s", paperID, tagID), body, nil)
}

// RemoveUserTagOnPaper detaches a tag from a paper.
func (c *Client) RemoveUserTagOnPaper(ctx context.Context, _ string, paperID int64, tagID, _ string) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/v1/papers/%d/tags/%s", paperID, tagID), nil, nil)
}

// CreateTag creates a tag, optionally attached to a paper.
func (c *Client) CreateTag(ctx context.Context, _ string, name string, paperID int64) (*Tag, error) {
	body := struct {
		Name    string `json:"name"`
		PaperID int64  `json:"paper_id,omitzero"`
	}{Name: name, PaperID: paperID}

	var tag Tag
	if err := c.do(ctx, http.MethodPost, "/api/v1/tags", body, &tag); err != nil {
		return nil, err
	}
	return &tag, nil
}

// DeleteTag deletes a tag and all its paper associations.
func (c *Client) DeleteTag(ctx context.Context, tagID string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/tags/"+tagID, nil, nil)
}

// GetUserTags returns all of the user's tags.
func (c *Client) GetUserTags(ctx context.Context, _ string) ([]Tag, error) {
	var resp tagsResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/tags", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Tags, nil
}

// === Lists ===

type listsResponse struct {
	Lists []List `json:"lists"`
}

// GetList returns one list; private lists require the owner's token.
func (c *Client) GetList(ctx context.Context, listID string) (*List, error) {
	var list List
	if err := c.do(ctx, http.MethodGet, "/api/v1/lists/"+listID, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// GetUserLists returns the authenticated user's lists.
func (c *Client) GetUserLists(ctx context.Context) ([]List, error) {
	var resp listsResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/lists", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Lists, nil
}

// GetUserListsWherePaper returns the user's lists containing paperID.
func (c *Client) GetUserListsWherePaper(ctx context.Context, paperID int64) ([]List, error) {
	var resp listsResponse
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/papers/%d/lists", paperID), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Lists, nil
}

// CreateList creates a list, optionally with a first paper.
func (c *Client) CreateList(ctx context.Context, name string, public bool, paperID int64) (*List, error) {
	body := struct {
		Name    string `json:"name"`
		Public  bool   `json:"public"`
		PaperID int64  `json:"paper_id,omitzero"`
	}{Name: name, Public: public, PaperID: paperID}

	var list List
	if err := c.do(ctx, http.MethodPost, "/api/v1/lists", body, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// DeleteList deletes a list the user owns.
func (c *Client) DeleteList(ctx context.Context, listID string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/lists/"+listID, nil, nil)
}

// AddPaperToList appends a paper to a list and returns the updated list.
func (c *Client) AddPaperToList(ctx context.Context, listID string, paperID int64) (*List, error) {
	var list List
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/v1/lists/%s/papers/%d", listID, paperID), nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// RemoveSinglePaperFromList removes one paper and returns the updated list.
func (c *Client) RemoveSinglePaperFromList(ctx context.Context, listID string, paperID int64) (*List, error) {
	var list List
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/v1/lists/%s/papers/%d", listID, paperID), nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// RemoveMultiplePapersFromList removes several papers in one write and
// returns the updated list.
func (c *Client) RemoveMultiplePapersFromList(ctx context.Context, listID string, paperIDs []int64) (*List, error) {
	body := struct {
		PaperIDs []int64 `json:"paper_ids"`
	}{PaperIDs: paperIDs}

	var list List
	if err := c.do(ctx, http.MethodPost, "/api/v1/lists/"+listID+"/papers/remove", body, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// ChangeListPrivacy flips a list between private and public and
// returns the updated list.
func (c *Client) ChangeListPrivacy(ctx context.Context, listID string, public bool) (*List, error) {
	body := struct {
		Public bool `json:"public"`
	}{Public: public}

	var list List
	if err := c.do(ctx, http.MethodPatch, "/api/v1/lists/"+listID+"/privacy", body, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// compile-time interface check
var _ Procedures = (*Client)(nil)
