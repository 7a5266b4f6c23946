package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"companion/internal/domain"
	"companion/internal/domain/models"
	"companion/internal/domain/repositories"
	"companion/internal/llm"
)

// fakeTxManager runs the function directly; rollback semantics are covered
// by the repositories never committing partial state in these tests.
type fakeTxManager struct{}

func (fakeTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}

// fakeFineTuneRepo is an in-memory fine-tune registry.
type fakeFineTuneRepo struct {
	mu   sync.Mutex
	jobs []*models.FineTuneJob

	createErr error
	created   chan struct{} // closed on first successful Create, if set
}

func (f *fakeFineTuneRepo) Create(ctx context.Context, job *models.FineTuneJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.jobs {
		if existing.FineTuneID == job.FineTuneID {
			return fmt.Errorf("fine-tune job %s: %w", job.FineTuneID, domain.ErrConflict)
		}
	}
	job.ID = int64(len(f.jobs) + 1)
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	copied := *job
	f.jobs = append(f.jobs, &copied)
	if f.created != nil {
		close(f.created)
		f.created = nil
	}
	return nil
}

func (f *fakeFineTuneRepo) GetByFineTuneID(ctx context.Context, fineTuneID string) (*models.FineTuneJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, job := range f.jobs {
		if job.FineTuneID == fineTuneID {
			copied := *job
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("fine-tune job %s: %w", fineTuneID, domain.ErrNotFound)
}

func (f *fakeFineTuneRepo) Update(ctx context.Context, job *models.FineTuneJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, existing := range f.jobs {
		if existing.FineTuneID == job.FineTuneID {
			existing.Status = job.Status
			existing.ModelID = job.ModelID
			existing.FinishedAt = job.FinishedAt
			f.jobs[i] = existing
			return nil
		}
	}
	return fmt.Errorf("fine-tune job %s: %w", job.FineTuneID, domain.ErrNotFound)
}

func (f *fakeFineTuneRepo) LatestSucceeded(ctx context.Context) (*models.FineTuneJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *models.FineTuneJob
	for _, job := range f.jobs {
		if job.Status != models.StatusSucceeded || job.ModelID == nil {
			continue
		}
		if latest == nil || job.CreatedAt.After(latest.CreatedAt) {
			latest = job
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("succeeded fine-tune job: %w", domain.ErrNotFound)
	}
	copied := *latest
	return &copied, nil
}

func (f *fakeFineTuneRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.jobs)
}

func (f *fakeFineTuneRepo) get(fineTuneID string) *models.FineTuneJob {
	job, _ := f.GetByFineTuneID(context.Background(), fineTuneID)
	return job
}

// fakeProvider scripts the remote provider's behavior per operation.
type fakeProvider struct {
	mu sync.Mutex

	completionReply string
	completionErr   error
	completionReqs  []*llm.CompletionRequest

	uploadErrs map[string]error // keyed by path
	uploadIDs  map[string]string
	uploads    []string

	createJob *llm.FineTuneJobStatus
	createErr error

	status    *llm.FineTuneJobStatus
	statusErr error
}

func (p *fakeProvider) CreateCompletion(ctx context.Context, req *llm.CompletionRequest) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.completionReqs = append(p.completionReqs, req)
	if p.completionErr != nil {
		return "", p.completionErr
	}
	return p.completionReply, nil
}

func (p *fakeProvider) UploadFile(ctx context.Context, path string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.uploadErrs[path]; err != nil {
		return "", err
	}
	p.uploads = append(p.uploads, path)
	if id, ok := p.uploadIDs[path]; ok {
		return id, nil
	}
	return "file-" + path, nil
}

func (p *fakeProvider) CreateFineTune(ctx context.Context, trainingFile, validationFile, baseModel string) (*llm.FineTuneJobStatus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.createErr != nil {
		return nil, p.createErr
	}
	return p.createJob, nil
}

func (p *fakeProvider) GetFineTuneStatus(ctx context.Context, jobID string) (*llm.FineTuneJobStatus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.statusErr != nil {
		return nil, p.statusErr
	}
	return p.status, nil
}

// fakeConversationRepo is an in-memory conversation/message store.
type fakeConversationRepo struct {
	mu       sync.Mutex
	convs    map[int64]*models.Conversation
	messages []*models.Message
	nextID   int64

	createMessageErr error
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{convs: make(map[int64]*models.Conversation)}
}

func (f *fakeConversationRepo) CreateConversation(ctx context.Context, conv *models.Conversation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	conv.ID = f.nextID
	conv.CreatedAt = time.Now()
	copied := *conv
	f.convs[conv.ID] = &copied
	return nil
}

func (f *fakeConversationRepo) GetConversation(ctx context.Context, id, userID int64) (*models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	conv, ok := f.convs[id]
	if !ok || conv.UserID != userID {
		return nil, fmt.Errorf("conversation %d: %w", id, domain.ErrNotFound)
	}
	copied := *conv
	return &copied, nil
}

func (f *fakeConversationRepo) ListConversations(ctx context.Context, userID int64) ([]models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Conversation
	for _, conv := range f.convs {
		if conv.UserID == userID {
			out = append(out, *conv)
		}
	}
	return out, nil
}

func (f *fakeConversationRepo) RenameConversation(ctx context.Context, id, userID int64, name string) (*models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	conv, ok := f.convs[id]
	if !ok || conv.UserID != userID {
		return nil, fmt.Errorf("conversation %d: %w", id, domain.ErrNotFound)
	}
	conv.Name = &name
	copied := *conv
	return &copied, nil
}

func (f *fakeConversationRepo) DeleteConversation(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.convs[id]; !ok {
		return fmt.Errorf("conversation %d: %w", id, domain.ErrNotFound)
	}
	delete(f.convs, id)
	kept := f.messages[:0]
	for _, msg := range f.messages {
		if msg.ConversationID != id {
			kept = append(kept, msg)
		}
	}
	f.messages = kept
	return nil
}

func (f *fakeConversationRepo) CreateMessage(ctx context.Context, msg *models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createMessageErr != nil {
		return f.createMessageErr
	}
	f.nextID++
	msg.ID = f.nextID
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	copied := *msg
	f.messages = append(f.messages, &copied)
	return nil
}

func (f *fakeConversationRepo) ListMessages(ctx context.Context, conversationID int64) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Message
	for _, msg := range f.messages {
		if msg.ConversationID == conversationID {
			out = append(out, *msg)
		}
	}
	return out, nil
}

func (f *fakeConversationRepo) RecentMessages(ctx context.Context, conversationID int64, limit int) ([]models.Message, error) {
	all, _ := f.ListMessages(ctx, conversationID)
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	// Newest first, matching the repository contract
	out := make([]models.Message, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

// fakeUserRepo is an in-memory user store.
type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[int64]*models.User
	nextID int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*models.User)}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == user.Email {
			return fmt.Errorf("email %s: %w", user.Email, domain.ErrConflict)
		}
	}
	f.nextID++
	user.ID = f.nextID
	user.IsActive = true
	user.CreatedAt = time.Now()
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, fmt.Errorf("user: %w", domain.ErrNotFound)
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("user: %w", domain.ErrNotFound)
}

func (f *fakeUserRepo) Update(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.ID]; !ok {
		return fmt.Errorf("user %d: %w", user.ID, domain.ErrNotFound)
	}
	copied := *user
	f.users[user.ID] = &copied
	return nil
}
