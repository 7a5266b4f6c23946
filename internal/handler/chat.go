package handler

import (
	"log/slog"
	"net/http"

	"companion/internal/httputil"
	"companion/internal/service"
)

// ChatHandler handles conversation and chat turn HTTP requests.
// Handlers only communicate with services, never repositories.
type ChatHandler struct {
	chatService *service.ChatService
	logger      *slog.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *service.ChatService, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		logger:      logger,
	}
}

// CreateConversation creates a new conversation
// POST /api/chat/conversations
func (h *ChatHandler) CreateConversation(w http.ResponseWriter, r *http.Request) {
	user := httputil.GetUser(r)

	conv, err := h.chatService.CreateConversation(r.Context(), user.ID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, conv)
}

// ListConversations returns the user's conversations, newest first
// GET /api/chat/conversations
func (h *ChatHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	user := httputil.GetUser(r)

	convs, err := h.chatService.ListConversations(r.Context(), user.ID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, convs)
}

// GetMessages returns a conversation's messages in chronological order
// GET /api/chat/conversations/{id}/messages
func (h *ChatHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	conversationID, ok := PathID(w, r, "id")
	if !ok {
		return
	}

	user := httputil.GetUser(r)
	msgs, err := h.chatService.GetMessages(r.Context(), conversationID, user.ID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, msgs)
}

type renameConversationRequest struct {
	Name string `json:"name"`
}

// RenameConversation sets a conversation's display name
// PATCH /api/chat/conversations/{id}/name
func (h *ChatHandler) RenameConversation(w http.ResponseWriter, r *http.Request) {
	conversationID, ok := PathID(w, r, "id")
	if !ok {
		return
	}

	var req renameConversationRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user := httputil.GetUser(r)
	conv, err := h.chatService.RenameConversation(r.Context(), conversationID, user.ID, req.Name)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, conv)
}

// DeleteConversation removes a conversation and its messages
// DELETE /api/chat/conversations/{id}
func (h *ChatHandler) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	conversationID, ok := PathID(w, r, "id")
	if !ok {
		return
	}

	user := httputil.GetUser(r)
	if err := h.chatService.DeleteConversation(r.Context(), conversationID, user.ID); err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]string{
		"message": "Conversation deleted successfully",
	})
}

// SendMessage runs one chat turn and returns the assistant's reply
// POST /api/chat/conversations/{id}/messages
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	conversationID, ok := PathID(w, r, "id")
	if !ok {
		return
	}

	var req service.SendMessageRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user := httputil.GetUser(r)
	msg, err := h.chatService.SendMessage(r.Context(), conversationID, user.ID, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, msg)
}
