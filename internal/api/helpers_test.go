package api

import (
	"context"
	"encoding/hex"
	"encoding/json/v2"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/require"

	"github.com/paperdeckapp/paperdeck-server/internal/auth"
	"github.com/paperdeckapp/paperdeck-server/internal/config"
	"github.com/paperdeckapp/paperdeck-server/internal/domain"
	"github.com/paperdeckapp/paperdeck-server/internal/search"
	"github.com/paperdeckapp/paperdeck-server/internal/service"
	"github.com/paperdeckapp/paperdeck-server/internal/store"
)

// testEnvelope mirrors the response envelope with a typed data field.
type testEnvelope[T any] struct {
	V       string         `json:"v"`
	Success bool           `json:"success"`
	Data    T              `json:"data"`
	Error   *EnvelopeError `json:"error"`
}

// testServer wraps the API server for handler tests.
type testServer struct {
	*Server
	api    humatest.TestAPI
	search *search.Index
}

// setupTestServer creates a fully wired server over temporary storage.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "paperdeck-api-test-*")
	require.NoError(t, err)

	st, err := store.New(filepath.Join(tmpDir, "test.db"), nil)
	require.NoError(t, err)

	logger := slog.New(slog.DiscardHandler)

	searchIndex, err := search.NewIndex(search.Options{
		DataPath: filepath.Join(tmpDir, "search"),
		Logger:   logger,
	})
	require.NoError(t, err)
	st.SetSearchIndexer(search.NewIndexer(searchIndex))

	t.Cleanup(func() {
		_ = searchIndex.Close()
		_ = st.Close()
		_ = os.RemoveAll(tmpDir)
	})

	authKey, err := auth.LoadOrGenerateKey(tmpDir)
	require.NoError(t, err)

	tokenService, err := auth.NewTokenService(hex.EncodeToString(authKey), 15*time.Minute, 30*24*time.Hour)
	require.NoError(t, err)

	sessionService := service.NewSessionService(st, tokenService, logger)
	authService := service.NewAuthService(st, tokenService, sessionService, logger)
	paperService := service.NewPaperService(st, nil, nil, searchIndex, logger)

	services := &Services{
		Auth:    authService,
		Session: sessionService,
		Paper:   paperService,
		Library: service.NewLibraryService(st, paperService, logger),
		Tag:     service.NewTagService(st, logger),
		List:    service.NewListService(st, logger),
		Search:  searchIndex,
	}

	cfg := &config.Config{
		Server: config.ServerConfig{
			CORSOrigins: []string{"*"},
		},
	}

	s := NewServer(st, services, cfg, logger)

	return &testServer{
		Server: s,
		api:    humatest.Wrap(t, s.api),
		search: searchIndex,
	}
}

// registerTestUser creates a user via the API and returns its auth response.
func (ts *testServer) registerTestUser(t *testing.T, email string) AuthResponse {
	t.Helper()

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"email":        email,
		"password":     "correct-horse-battery",
		"display_name": "Test User",
	})
	require.Equal(t, http.StatusOK, resp.Code, "register failed: %s", resp.Body.String())

	var envelope testEnvelope[AuthResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.True(t, envelope.Success)
	return envelope.Data
}

var testPaperSeq atomic.Int64

// createTestPaper inserts a paper directly into the store.
func (ts *testServer) createTestPaper(t *testing.T, title string) *domain.Paper {
	t.Helper()

	seq := testPaperSeq.Add(1)
	now := time.Now()
	p := &domain.Paper{
		ArxivID:     archiveID(seq),
		Title:       title,
		Abstract:    "An abstract for " + title,
		Authors:     []string{"Ada Lovelace"},
		Categories:  []string{"cs.LG"},
		PublishedAt: now.AddDate(0, 0, -int(seq)),
		RevisedAt:   now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, ts.store.CreatePaper(context.Background(), p))
	return p
}

func archiveID(seq int64) string {
	return fmt.Sprintf("2408.%05d", seq)
}

// bearer formats an Authorization header argument for humatest requests.
func bearer(token string) string {
	return "Authorization: Bearer " + token
}

// decodeData unmarshals a humatest response envelope into T.
func decodeData[T any](t *testing.T, body []byte) T {
	t.Helper()

	var envelope testEnvelope[T]
	require.NoError(t, json.Unmarshal(body, &envelope))
	require.True(t, envelope.Success, "expected success envelope: %s", string(body))
	return envelope.Data
}

// decodeError unmarshals an error envelope.
func decodeError(t *testing.T, body []byte) *EnvelopeError {
	t.Helper()

	var envelope testEnvelope[struct{}]
	require.NoError(t, json.Unmarshal(body, &envelope))
	require.False(t, envelope.Success, "expected error envelope: %s", string(body))
	require.NotNil(t, envelope.Error)
	return envelope.Error
}
