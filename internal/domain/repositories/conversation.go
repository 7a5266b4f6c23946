package repositories

import (
	"context"

	"companion/internal/domain/models"
)

// ConversationRepository persists conversations and their messages.
// All lookups are scoped by owning user: a conversation that exists but
// belongs to someone else behaves exactly like one that does not exist.
type ConversationRepository interface {
	CreateConversation(ctx context.Context, conv *models.Conversation) error

	// GetConversation retrieves a conversation owned by userID.
	GetConversation(ctx context.Context, id, userID int64) (*models.Conversation, error)

	// ListConversations returns the user's conversations, newest first.
	ListConversations(ctx context.Context, userID int64) ([]models.Conversation, error)

	// RenameConversation sets the display name of a conversation owned by userID.
	RenameConversation(ctx context.Context, id, userID int64, name string) (*models.Conversation, error)

	// DeleteConversation removes a conversation and all of its messages.
	// Both deletes happen in the caller's transaction scope.
	DeleteConversation(ctx context.Context, id int64) error

	// CreateMessage appends a message to a conversation.
	CreateMessage(ctx context.Context, msg *models.Message) error

	// ListMessages returns all messages of a conversation in ascending
	// created_at order.
	ListMessages(ctx context.Context, conversationID int64) ([]models.Message, error)

	// RecentMessages returns up to limit most recent messages of a
	// conversation in descending created_at order.
	RecentMessages(ctx context.Context, conversationID int64, limit int) ([]models.Message, error)
}
