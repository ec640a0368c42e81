package api

import (
	"encoding/json/v2"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/paperdeckapp/paperdeck-server/internal/chat"
	domainerrors "github.com/paperdeckapp/paperdeck-server/internal/errors"
	"github.com/paperdeckapp/paperdeck-server/internal/http/response"
	"github.com/paperdeckapp/paperdeck-server/internal/service"
)

// registerChatRoutes mounts the chat endpoint directly on the chi router.
// Chat streams tokens as Server-Sent Events, which huma's typed
// request/response model does not cover.
func (s *Server) registerChatRoutes() {
	s.router.Post("/api/v1/chat", s.handleChatStream)
}

// ChatStreamRequest is the request body for a streaming chat completion.
type ChatStreamRequest struct {
	PaperID  int64          `json:"paper_id"`
	Messages []chat.Message `json:"messages"`
}

type chatDeltaEvent struct {
	Content string `json:"content"`
}

type chatErrorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// handleChatStream answers questions about a paper over SSE. Events:
// delta {content}, then done, or error {code, message} on failure.
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserID(r.Context())
	if err != nil || userID == "" {
		response.Unauthorized(w, "Authentication required", s.logger)
		return
	}

	var req ChatStreamRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	rc := http.NewResponseController(w)

	streamErr := s.services.Chat.StreamChat(r.Context(), service.ChatRequest{
		PaperID:  req.PaperID,
		Messages: req.Messages,
	}, func(delta string) error {
		return sendChatEvent(w, rc, "delta", chatDeltaEvent{Content: delta})
	})

	if streamErr != nil {
		// Headers are already out; report the failure in-stream.
		code := string(domainerrors.CodeInternal)
		message := "chat stream failed"
		var domainErr *domainerrors.Error
		if errors.As(streamErr, &domainErr) {
			code = string(domainErr.Code)
			message = domainErr.Message
		}
		_ = sendChatEvent(w, rc, "error", chatErrorEvent{Code: code, Message: message})
		return
	}

	_ = sendChatEvent(w, rc, "done", struct{}{})
}

// sendChatEvent writes one SSE event and flushes it to the client.
func sendChatEvent(w http.ResponseWriter, rc *http.ResponseController, eventType string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}

	if _, err := fmt.Fprintf(w, "event: %s\n", eventType); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", jsonData); err != nil {
		return err
	}

	if err := rc.Flush(); err != nil {
		return err
	}

	// Reset the write deadline after each successful write so long
	// completions are not cut off mid-stream.
	return rc.SetWriteDeadline(time.Now().Add(60 * time.Second))
}
