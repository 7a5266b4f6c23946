package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"companion/internal/domain"
	"companion/internal/domain/models"
	"companion/internal/domain/repositories"
)

// PostgresConversationRepository implements the ConversationRepository
// interface using PostgreSQL
type PostgresConversationRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewConversationRepository creates a new PostgresConversationRepository
func NewConversationRepository(config *RepositoryConfig) repositories.ConversationRepository {
	return &PostgresConversationRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// CreateConversation creates a new conversation
func (r *PostgresConversationRepository) CreateConversation(ctx context.Context, conv *models.Conversation) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, name)
		VALUES ($1, $2)
		RETURNING id, created_at
	`, r.tables.Conversations)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, conv.UserID, conv.Name).Scan(&conv.ID, &conv.CreatedAt)
	if err != nil {
		return fmt.Errorf("create conversation: %w", err)
	}

	return nil
}

// GetConversation retrieves a conversation owned by userID
func (r *PostgresConversationRepository) GetConversation(ctx context.Context, id, userID int64) (*models.Conversation, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, name, created_at
		FROM %s
		WHERE id = $1 AND user_id = $2
	`, r.tables.Conversations)

	var conv models.Conversation
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id, userID).Scan(
		&conv.ID,
		&conv.UserID,
		&conv.Name,
		&conv.CreatedAt,
	)

	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("conversation %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get conversation: %w", err)
	}

	return &conv, nil
}

// ListConversations returns the user's conversations, newest first
func (r *PostgresConversationRepository) ListConversations(ctx context.Context, userID int64) ([]models.Conversation, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, name, created_at
		FROM %s
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, r.tables.Conversations)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var convs []models.Conversation
	for rows.Next() {
		var conv models.Conversation
		if err := rows.Scan(&conv.ID, &conv.UserID, &conv.Name, &conv.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		convs = append(convs, conv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversations: %w", err)
	}

	return convs, nil
}

// RenameConversation sets the display name of a conversation owned by userID
func (r *PostgresConversationRepository) RenameConversation(ctx context.Context, id, userID int64, name string) (*models.Conversation, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $1
		WHERE id = $2 AND user_id = $3
		RETURNING id, user_id, name, created_at
	`, r.tables.Conversations)

	var conv models.Conversation
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, name, id, userID).Scan(
		&conv.ID,
		&conv.UserID,
		&conv.Name,
		&conv.CreatedAt,
	)

	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("conversation %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("rename conversation: %w", err)
	}

	return &conv, nil
}

// DeleteConversation removes a conversation and its messages. The two
// deletes participate in the caller's transaction when one is present.
func (r *PostgresConversationRepository) DeleteConversation(ctx context.Context, id int64) error {
	executor := GetExecutor(ctx, r.pool)

	msgQuery := fmt.Sprintf(`DELETE FROM %s WHERE conversation_id = $1`, r.tables.Messages)
	if _, err := executor.Exec(ctx, msgQuery, id); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}

	convQuery := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Conversations)
	tag, err := executor.Exec(ctx, convQuery, id)
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("conversation %d: %w", id, domain.ErrNotFound)
	}

	return nil
}

// CreateMessage appends a message to a conversation
func (r *PostgresConversationRepository) CreateMessage(ctx context.Context, msg *models.Message) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (conversation_id, content, is_ai)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, r.tables.Messages)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, msg.ConversationID, msg.Content, msg.IsAI).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("conversation %d: %w", msg.ConversationID, domain.ErrNotFound)
		}
		return fmt.Errorf("create message: %w", err)
	}

	return nil
}

// ListMessages returns all messages of a conversation in ascending
// created_at order
func (r *PostgresConversationRepository) ListMessages(ctx context.Context, conversationID int64) ([]models.Message, error) {
	query := fmt.Sprintf(`
		SELECT id, conversation_id, content, is_ai, created_at
		FROM %s
		WHERE conversation_id = $1
		ORDER BY created_at ASC, id ASC
	`, r.tables.Messages)

	return r.queryMessages(ctx, query, conversationID)
}

// RecentMessages returns up to limit most recent messages in descending
// created_at order
func (r *PostgresConversationRepository) RecentMessages(ctx context.Context, conversationID int64, limit int) ([]models.Message, error) {
	query := fmt.Sprintf(`
		SELECT id, conversation_id, content, is_ai, created_at
		FROM %s
		WHERE conversation_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, r.tables.Messages)

	return r.queryMessages(ctx, query, conversationID, limit)
}

func (r *PostgresConversationRepository) queryMessages(ctx context.Context, query string, args ...interface{}) ([]models.Message, error) {
	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var msgs []models.Message
	for rows.Next() {
		var msg models.Message
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Content, &msg.IsAI, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return msgs, nil
}
