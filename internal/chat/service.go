package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"

	"github.com/paperdeckapp/paperdeck-server/internal/arxiv"
	"github.com/paperdeckapp/paperdeck-server/internal/domain"
	domainerrors "github.com/paperdeckapp/paperdeck-server/internal/errors"
)

// PDFSource downloads paper PDFs.
type PDFSource interface {
	DownloadPDF(ctx context.Context, arxivID string) ([]byte, error)
}

// TextCache stores extracted PDF text between conversations.
type TextCache interface {
	GetPDFText(ctx context.Context, arxivID string) (string, error)
	PutPDFText(ctx context.Context, arxivID, content string) error
}

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required"`
}

// Service runs LLM conversations about papers. Paper content flows
// PDF download -> text extraction -> token guard -> completion context.
type Service struct {
	llm            *openai.Client
	model          string
	maxPaperTokens int
	pdfs           PDFSource
	texts          TextCache
	logger         *slog.Logger
}

// Options configures the chat service.
type Options struct {
	APIKey         string
	BaseURL        string // Optional override for OpenAI-compatible endpoints
	Model          string
	MaxPaperTokens int
	PDFs           PDFSource
	Texts          TextCache
	Logger         *slog.Logger
}

// NewService creates the chat service.
func NewService(opts Options) *Service {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	if opts.Model == "" {
		opts.Model = openai.GPT4o
	}
	if opts.MaxPaperTokens <= 0 {
		opts.MaxPaperTokens = 900000
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Service{
		llm:            openai.NewClientWithConfig(cfg),
		model:          opts.Model,
		maxPaperTokens: opts.MaxPaperTokens,
		pdfs:           opts.PDFs,
		texts:          opts.Texts,
		logger:         opts.Logger,
	}
}

// NewConversationID returns a fresh conversation identifier.
func NewConversationID() string {
	return uuid.NewString()
}

// PaperText returns the extracted text of a paper's PDF, downloading
// and extracting on cache miss. Papers whose text exceeds the token
// ceiling are rejected with a too-large error before any LLM call.
func (s *Service) PaperText(ctx context.Context, arxivID string) (string, error) {
	text, err := s.texts.GetPDFText(ctx, arxivID)
	if err == nil {
		return s.guardTokens(arxivID, text)
	}
	if !errors.Is(err, arxiv.ErrCacheMiss) {
		return "", fmt.Errorf("read pdf text cache: %w", err)
	}

	data, err := s.pdfs.DownloadPDF(ctx, arxivID)
	if err != nil {
		return "", err
	}

	text, err = ExtractPDFText(data)
	if err != nil {
		return "", domainerrors.Wrap(err, domainerrors.CodeInternal, "extract paper text")
	}

	if putErr := s.texts.PutPDFText(ctx, arxivID, text); putErr != nil {
		// Cache failure is non-fatal, the conversation can proceed
		s.logger.Warn("failed to cache pdf text", "arxiv_id", arxivID, "error", putErr)
	}

	return s.guardTokens(arxivID, text)
}

func (s *Service) guardTokens(arxivID, text string) (string, error) {
	tokens := EstimateTokens(text)
	if tokens >= s.maxPaperTokens {
		return "", domainerrors.TooLargef("paper %s is too large to chat about (%d estimated tokens)", arxivID, tokens)
	}
	return text, nil
}

// Stream runs a streaming completion about a paper, invoking onDelta
// for each content fragment as it arrives. The paper's extracted text
// is embedded in the system prompt together with its metadata.
func (s *Service) Stream(ctx context.Context, paper *domain.Paper, paperText string, messages []Message, onDelta func(delta string) error) error {
	if len(messages) == 0 {
		return domainerrors.Validation("at least one message is required")
	}

	chatMessages := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	chatMessages = append(chatMessages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: buildSystemPrompt(paper, paperText),
	})
	for _, m := range messages {
		role := openai.ChatMessageRoleUser
		if m.Role == "assistant" {
			role = openai.ChatMessageRoleAssistant
		}
		chatMessages = append(chatMessages, openai.ChatCompletionMessage{
			Role:    role,
			Content: m.Content,
		})
	}

	stream, err := s.llm.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    s.model,
		Messages: chatMessages,
		Stream:   true,
	})
	if err != nil {
		return domainerrors.Transport("start completion stream").WithCause(err)
	}
	defer stream.Close()

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return domainerrors.Transport("completion stream failed").WithCause(err)
		}

		if len(resp.Choices) == 0 {
			continue
		}
		delta := resp.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		if err := onDelta(delta); err != nil {
			return err
		}
	}
}

func buildSystemPrompt(paper *domain.Paper, paperText string) string {
	var sb strings.Builder
	sb.WriteString("You are a research assistant answering questions about a specific paper. ")
	sb.WriteString("Ground your answers in the paper's content; say so when the paper does not address something.\n\n")
	fmt.Fprintf(&sb, "Title: %s\n", paper.Title)
	if len(paper.Authors) > 0 {
		fmt.Fprintf(&sb, "Authors: %s\n", strings.Join(paper.Authors, ", "))
	}
	fmt.Fprintf(&sb, "arXiv: %s\n\n", paper.ArxivID)
	if paper.Abstract != "" {
		fmt.Fprintf(&sb, "Abstract:\n%s\n\n", paper.Abstract)
	}
	if paperText != "" {
		fmt.Fprintf(&sb, "Full text:\n%s\n", paperText)
	}
	return sb.String()
}
