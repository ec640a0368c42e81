package service

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/paperdeckapp/paperdeck-server/internal/auth"
	"github.com/paperdeckapp/paperdeck-server/internal/domain"
	"github.com/paperdeckapp/paperdeck-server/internal/id"
	"github.com/paperdeckapp/paperdeck-server/internal/store"
)

// testEnv bundles the store and services under test.
type testEnv struct {
	store    *store.Store
	auth     *AuthService
	sessions *SessionService
	library  *LibraryService
	tags     *TagService
	lists    *ListService
	papers   *PaperService
}

// setupTestEnv creates services backed by temporary storage.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "paperdeck-service-test-*")
	require.NoError(t, err)

	s, err := store.New(filepath.Join(tmpDir, "test.db"), nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = s.Close()
		_ = os.RemoveAll(tmpDir)
	})

	authKey, err := auth.LoadOrGenerateKey(tmpDir)
	require.NoError(t, err)

	tokenService, err := auth.NewTokenService(hex.EncodeToString(authKey), 15*time.Minute, 30*24*time.Hour)
	require.NoError(t, err)

	logger := slog.New(slog.DiscardHandler)

	sessionService := NewSessionService(s, tokenService, logger)
	authService := NewAuthService(s, tokenService, sessionService, logger)
	paperService := NewPaperService(s, nil, nil, nil, logger)

	return &testEnv{
		store:    s,
		auth:     authService,
		sessions: sessionService,
		library:  NewLibraryService(s, paperService, logger),
		tags:     NewTagService(s, logger),
		lists:    NewListService(s, logger),
		papers:   paperService,
	}
}

// createTestUser creates a user directly in the store.
func createTestUser(t *testing.T, s *store.Store, email string) *domain.User {
	t.Helper()

	hash, err := auth.HashPassword("correct-horse-battery")
	require.NoError(t, err)

	now := time.Now()
	user := &domain.User{
		ID:           id.MustGenerate("user"),
		Email:        email,
		PasswordHash: hash,
		DisplayName:  "Test User",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, s.CreateUser(context.Background(), user))

	return user
}

var testPaperSeq int

// createTestPaper creates a paper directly in the store.
func createTestPaper(t *testing.T, s *store.Store, title string) *domain.Paper {
	t.Helper()

	testPaperSeq++
	paper := &domain.Paper{
		ArxivID:     fmt.Sprintf("2408.%05d", testPaperSeq),
		Title:       title,
		Abstract:    "An abstract.",
		Authors:     []string{"Test Author"},
		Categories:  []string{"cs.LG"},
		PublishedAt: time.Now().AddDate(0, 0, -testPaperSeq),
	}
	require.NoError(t, s.CreatePaper(context.Background(), paper))

	return paper
}
