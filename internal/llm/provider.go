package llm

import "context"

// Message is one entry of a completion request's message list.
type Message struct {
	Role    string
	Content string
}

// Roles accepted by the completion endpoint.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// CompletionRequest describes one chat completion call.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	Temperature float32
	MaxTokens   int
}

// FineTuneJobStatus is the provider's view of a fine-tuning job.
// Status is a provider-defined string and is passed through untouched.
type FineTuneJobStatus struct {
	ID             string
	Status         string
	Model          string // fine-tuned model id, empty until the job succeeds
	CreatedAt      int64  // unix seconds
	FinishedAt     int64  // unix seconds, zero until terminal
	TrainingFile   string
	ValidationFile string
}

// Provider is the remote completion/fine-tune service boundary. All four
// operations are fallible network calls; no retries are layered on top.
type Provider interface {
	// CreateCompletion returns the assistant text for one chat turn.
	CreateCompletion(ctx context.Context, req *CompletionRequest) (string, error)

	// UploadFile uploads a local file for fine-tuning and returns the
	// remote file reference.
	UploadFile(ctx context.Context, path string) (string, error)

	// CreateFineTune submits a fine-tuning job over the two uploaded files
	// and the given base model.
	CreateFineTune(ctx context.Context, trainingFile, validationFile, baseModel string) (*FineTuneJobStatus, error)

	// GetFineTuneStatus retrieves the current remote state of a job.
	GetFineTuneStatus(ctx context.Context, jobID string) (*FineTuneJobStatus, error)
}
