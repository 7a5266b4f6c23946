package models

import "time"

// Conversation is an ordered sequence of messages owned by one user.
type Conversation struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Name      *string   `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Message is a single user or assistant utterance. Messages are immutable
// once created; a conversation only ever appends.
type Message struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	Content        string    `json:"content"`
	IsAI           bool      `json:"is_ai"`
	CreatedAt      time.Time `json:"created_at"`
}
