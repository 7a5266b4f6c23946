package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"companion/internal/config"
	"companion/internal/domain"
	"companion/internal/domain/models"
)

type staticSelector string

func (s staticSelector) SelectModel(ctx context.Context) (string, error) {
	return string(s), nil
}

func testPrompt() *config.Prompt {
	return &config.Prompt{
		SystemPrompt: "You are a companion.",
		Temperature:  0.7,
		MaxTokens:    500,
		HistoryLimit: 5,
	}
}

func newTestChatService(repo *fakeConversationRepo, provider *fakeProvider, selector ModelSelector) *ChatService {
	return NewChatService(repo, fakeTxManager{}, provider, selector, testPrompt(), slog.New(slog.DiscardHandler))
}

func seedConversation(t *testing.T, repo *fakeConversationRepo, userID int64) *models.Conversation {
	t.Helper()
	conv := &models.Conversation{UserID: userID}
	if err := repo.CreateConversation(context.Background(), conv); err != nil {
		t.Fatalf("seed conversation: %v", err)
	}
	return conv
}

func TestSendMessage(t *testing.T) {
	repo := newFakeConversationRepo()
	conv := seedConversation(t, repo, 1)

	provider := &fakeProvider{completionReply: "I hear you."}
	svc := newTestChatService(repo, provider, staticSelector("ft:companion-9"))

	reply, err := svc.SendMessage(context.Background(), conv.ID, 1, &SendMessageRequest{Content: "rough day"})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	if !reply.IsAI || reply.Content != "I hear you." {
		t.Errorf("reply = %+v, want assistant message with provider text", reply)
	}

	msgs, _ := repo.ListMessages(context.Background(), conv.ID)
	if len(msgs) != 2 {
		t.Fatalf("conversation has %d messages, want 2", len(msgs))
	}
	if msgs[0].IsAI || !msgs[1].IsAI {
		t.Error("message order is not user-before-assistant")
	}

	if len(provider.completionReqs) != 1 {
		t.Fatalf("provider called %d times, want 1", len(provider.completionReqs))
	}
	req := provider.completionReqs[0]
	if req.Model != "ft:companion-9" {
		t.Errorf("completion model = %q, want the selector's pick", req.Model)
	}
	if req.Temperature != 0.7 || req.MaxTokens != 500 {
		t.Errorf("completion params = %v/%v, want 0.7/500", req.Temperature, req.MaxTokens)
	}
	if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
		t.Fatalf("completion messages = %+v, want system + user", req.Messages)
	}
	if !strings.Contains(req.Messages[1].Content, "User: rough day") {
		t.Errorf("prompt does not carry the new user text: %q", req.Messages[1].Content)
	}
}

func TestSendMessageKeepsUserMessageOnCompletionFailure(t *testing.T) {
	repo := newFakeConversationRepo()
	conv := seedConversation(t, repo, 1)

	provider := &fakeProvider{completionErr: errors.New("rate limited")}
	svc := newTestChatService(repo, provider, staticSelector(testBaseModel))

	_, err := svc.SendMessage(context.Background(), conv.ID, 1, &SendMessageRequest{Content: "hello?"})
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("SendMessage error = %v, want ErrUpstream", err)
	}

	// The user message survives: a turn with no reply is a legitimate
	// state, not a corrupted one.
	msgs, _ := repo.ListMessages(context.Background(), conv.ID)
	if len(msgs) != 1 {
		t.Fatalf("conversation has %d messages, want 1", len(msgs))
	}
	if msgs[0].IsAI || msgs[0].Content != "hello?" {
		t.Errorf("surviving message = %+v, want the user's", msgs[0])
	}
}

func TestSendMessageContextWindow(t *testing.T) {
	repo := newFakeConversationRepo()
	conv := seedConversation(t, repo, 1)

	// Seed seven prior turns; only the most recent five (including the
	// new user message) fit the window.
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		msg := &models.Message{
			ConversationID: conv.ID,
			Content:        fmt.Sprintf("msg-%d", i),
			IsAI:           i%2 == 1,
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.CreateMessage(context.Background(), msg); err != nil {
			t.Fatalf("seed message: %v", err)
		}
	}

	provider := &fakeProvider{completionReply: "ok"}
	svc := newTestChatService(repo, provider, staticSelector(testBaseModel))

	if _, err := svc.SendMessage(context.Background(), conv.ID, 1, &SendMessageRequest{Content: "newest"}); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	prompt := provider.completionReqs[0].Messages[1].Content

	for _, dropped := range []string{"msg-0", "msg-1", "msg-2"} {
		if strings.Contains(prompt, dropped) {
			t.Errorf("prompt includes %s, outside the 5-message window", dropped)
		}
	}

	// History is re-linearized to chronological order
	idx4 := strings.Index(prompt, "msg-4")
	idx5 := strings.Index(prompt, "msg-5")
	idx6 := strings.Index(prompt, "msg-6")
	if idx4 == -1 || idx5 == -1 || idx6 == -1 {
		t.Fatalf("prompt missing recent history: %q", prompt)
	}
	if !(idx4 < idx5 && idx5 < idx6) {
		t.Errorf("history not in ascending order: %q", prompt)
	}
}

func TestGetMessagesScopedByOwner(t *testing.T) {
	repo := newFakeConversationRepo()
	conv := seedConversation(t, repo, 1)

	svc := newTestChatService(repo, &fakeProvider{}, staticSelector(testBaseModel))

	if _, err := svc.GetMessages(context.Background(), conv.ID, 2); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("foreign conversation read = %v, want ErrNotFound", err)
	}
	if _, err := svc.GetMessages(context.Background(), conv.ID, 1); err != nil {
		t.Errorf("owner read failed: %v", err)
	}
}

func TestDeleteConversationRemovesMessages(t *testing.T) {
	repo := newFakeConversationRepo()
	conv := seedConversation(t, repo, 1)

	for i := 0; i < 3; i++ {
		msg := &models.Message{ConversationID: conv.ID, Content: fmt.Sprintf("m%d", i)}
		if err := repo.CreateMessage(context.Background(), msg); err != nil {
			t.Fatalf("seed message: %v", err)
		}
	}

	svc := newTestChatService(repo, &fakeProvider{}, staticSelector(testBaseModel))

	if err := svc.DeleteConversation(context.Background(), conv.ID, 1); err != nil {
		t.Fatalf("DeleteConversation: %v", err)
	}

	if _, err := repo.GetConversation(context.Background(), conv.ID, 1); !errors.Is(err, domain.ErrNotFound) {
		t.Error("conversation still present after delete")
	}
	msgs, _ := repo.ListMessages(context.Background(), conv.ID)
	if len(msgs) != 0 {
		t.Errorf("%d messages survived the cascade, want 0", len(msgs))
	}
}

func TestDeleteConversationForeignOwner(t *testing.T) {
	repo := newFakeConversationRepo()
	conv := seedConversation(t, repo, 1)

	svc := newTestChatService(repo, &fakeProvider{}, staticSelector(testBaseModel))

	if err := svc.DeleteConversation(context.Background(), conv.ID, 99); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("foreign delete = %v, want ErrNotFound", err)
	}
}

func TestBuildHistoryText(t *testing.T) {
	recent := []models.Message{
		{Content: "newest", IsAI: true},
		{Content: "middle", IsAI: false},
		{Content: "oldest", IsAI: true},
	}

	got := buildHistoryText(recent)
	want := "AI: oldest\nUser: middle\nAI: newest"
	if got != want {
		t.Errorf("buildHistoryText = %q, want %q", got, want)
	}
}
