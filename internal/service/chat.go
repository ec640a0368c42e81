package service

import (
	"context"
	"log/slog"

	"github.com/paperdeckapp/paperdeck-server/internal/chat"
)

// ChatService orchestrates conversations about papers.
type ChatService struct {
	papers *PaperService
	chat   *chat.Service
	logger *slog.Logger
}

// NewChatService creates a new chat service.
func NewChatService(papers *PaperService, chatSvc *chat.Service, logger *slog.Logger) *ChatService {
	return &ChatService{
		papers: papers,
		chat:   chatSvc,
		logger: logger,
	}
}

// ChatRequest is one streaming conversation turn about a paper.
type ChatRequest struct {
	PaperID  int64          `json:"paper_id" validate:"required,gt=0"`
	Messages []chat.Message `json:"messages" validate:"required,min=1,dive"`
}

// StreamChat assembles the paper's context and streams the completion,
// invoking onDelta per content fragment.
func (s *ChatService) StreamChat(ctx context.Context, req ChatRequest, onDelta func(delta string) error) error {
	if err := validate.Validate(req); err != nil {
		return err
	}

	paper, err := s.papers.GetPaper(ctx, req.PaperID)
	if err != nil {
		return err
	}

	paperText, err := s.chat.PaperText(ctx, paper.ArxivID)
	if err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.Debug("starting paper chat",
			"paper_id", paper.ID,
			"arxiv_id", paper.ArxivID,
			"context_tokens", chat.EstimateTokens(paperText),
		)
	}

	return s.chat.Stream(ctx, paper, paperText, req.Messages, onDelta)
}
