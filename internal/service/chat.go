package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"companion/internal/config"
	"companion/internal/domain"
	"companion/internal/domain/models"
	"companion/internal/domain/repositories"
	"companion/internal/llm"
)

// ModelSelector picks the model identifier for the next completion call.
// It must be consulted freshly on every turn so a newly completed
// fine-tune takes effect immediately.
type ModelSelector interface {
	SelectModel(ctx context.Context) (string, error)
}

// SendMessageRequest is the payload of a chat turn.
type SendMessageRequest struct {
	Content string `json:"content"`
}

// ChatService handles conversations, messages and chat turns.
type ChatService struct {
	convRepo  repositories.ConversationRepository
	txManager repositories.TransactionManager
	provider  llm.Provider
	selector  ModelSelector
	prompt    *config.Prompt
	logger    *slog.Logger
}

// NewChatService creates a new chat service
func NewChatService(
	convRepo repositories.ConversationRepository,
	txManager repositories.TransactionManager,
	provider llm.Provider,
	selector ModelSelector,
	prompt *config.Prompt,
	logger *slog.Logger,
) *ChatService {
	return &ChatService{
		convRepo:  convRepo,
		txManager: txManager,
		provider:  provider,
		selector:  selector,
		prompt:    prompt,
		logger:    logger,
	}
}

// CreateConversation creates an empty conversation for the user.
func (s *ChatService) CreateConversation(ctx context.Context, userID int64) (*models.Conversation, error) {
	conv := &models.Conversation{UserID: userID}
	if err := s.convRepo.CreateConversation(ctx, conv); err != nil {
		return nil, err
	}

	s.logger.Info("conversation created", "id", conv.ID, "user_id", userID)

	return conv, nil
}

// ListConversations returns the user's conversations, newest first.
func (s *ChatService) ListConversations(ctx context.Context, userID int64) ([]models.Conversation, error) {
	return s.convRepo.ListConversations(ctx, userID)
}

// GetMessages returns a conversation's messages in ascending order.
// Ownership is enforced: someone else's conversation reads as not found.
func (s *ChatService) GetMessages(ctx context.Context, conversationID, userID int64) ([]models.Message, error) {
	if _, err := s.convRepo.GetConversation(ctx, conversationID, userID); err != nil {
		return nil, err
	}
	return s.convRepo.ListMessages(ctx, conversationID)
}

// RenameConversation sets a conversation's display name.
func (s *ChatService) RenameConversation(ctx context.Context, conversationID, userID int64, name string) (*models.Conversation, error) {
	if err := validation.Validate(name, validation.Required, validation.Length(1, 200)); err != nil {
		return nil, fmt.Errorf("%w: name: %v", domain.ErrValidation, err)
	}
	return s.convRepo.RenameConversation(ctx, conversationID, userID, name)
}

// DeleteConversation removes a conversation and all of its messages in a
// single transaction.
func (s *ChatService) DeleteConversation(ctx context.Context, conversationID, userID int64) error {
	if _, err := s.convRepo.GetConversation(ctx, conversationID, userID); err != nil {
		return err
	}

	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		return s.convRepo.DeleteConversation(txCtx, conversationID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("conversation deleted", "id", conversationID, "user_id", userID)

	return nil
}

// SendMessage runs one chat turn: persist the user's message, build the
// context window, pick a model, call the completion endpoint and persist
// the assistant's reply.
//
// The user message is durable before the model call. A completion failure
// leaves the conversation with a user message and no reply, which is a
// legitimate state, not a corrupted one.
func (s *ChatService) SendMessage(ctx context.Context, conversationID, userID int64, req *SendMessageRequest) (*models.Message, error) {
	if err := validation.Validate(req.Content, validation.Required); err != nil {
		return nil, fmt.Errorf("%w: content: %v", domain.ErrValidation, err)
	}

	if _, err := s.convRepo.GetConversation(ctx, conversationID, userID); err != nil {
		return nil, err
	}

	userMsg := &models.Message{
		ConversationID: conversationID,
		Content:        req.Content,
		IsAI:           false,
	}
	if err := s.convRepo.CreateMessage(ctx, userMsg); err != nil {
		return nil, err
	}

	// Bounded context window: most recent messages re-linearized to
	// chronological order. Best-effort only; concurrent turns on the same
	// conversation may interleave here.
	recent, err := s.convRepo.RecentMessages(ctx, conversationID, s.prompt.HistoryLimit)
	if err != nil {
		return nil, err
	}
	historyText := buildHistoryText(recent)

	model, err := s.selector.SelectModel(ctx)
	if err != nil {
		return nil, err
	}

	reply, err := s.provider.CreateCompletion(ctx, &llm.CompletionRequest{
		Model: model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: s.prompt.SystemPrompt},
			{Role: llm.RoleUser, Content: fmt.Sprintf("Previous conversation:\n%s\n\nUser: %s", historyText, req.Content)},
		},
		Temperature: s.prompt.Temperature,
		MaxTokens:   s.prompt.MaxTokens,
	})
	if err != nil {
		s.logger.Error("completion failed", "conversation_id", conversationID, "model", model, "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}

	aiMsg := &models.Message{
		ConversationID: conversationID,
		Content:        reply,
		IsAI:           true,
	}
	if err := s.convRepo.CreateMessage(ctx, aiMsg); err != nil {
		return nil, err
	}

	s.logger.Info("chat turn completed",
		"conversation_id", conversationID,
		"model", model,
		"history_messages", len(recent),
	)

	return aiMsg, nil
}

// buildHistoryText serializes recent messages (given newest-first) into the
// chronological transcript embedded in the completion prompt.
func buildHistoryText(recent []models.Message) string {
	lines := make([]string, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		msg := recent[i]
		speaker := "User"
		if msg.IsAI {
			speaker = "AI"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", speaker, msg.Content))
	}
	return strings.Join(lines, "\n")
}
