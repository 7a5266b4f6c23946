package openai

import (
	"context"
	"fmt"
	"path/filepath"

	goopenai "github.com/sashabaranov/go-openai"

	"companion/internal/llm"
)

// Provider implements the llm.Provider interface against the OpenAI API.
type Provider struct {
	client *goopenai.Client
}

// NewProvider creates a new OpenAI provider with the given API key.
// An empty key is tolerated so the rest of the API stays up; every call
// made with it fails at the provider and surfaces as an upstream error.
func NewProvider(apiKey string) *Provider {
	return &Provider{
		client: goopenai.NewClient(apiKey),
	}
}

// CreateCompletion generates an assistant reply for one chat turn.
func (p *Provider) CreateCompletion(ctx context.Context, req *llm.CompletionRequest) (string, error) {
	messages := make([]goopenai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, goopenai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := p.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("create chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

// UploadFile uploads a local JSONL file with purpose "fine-tune" and
// returns the remote file id.
func (p *Provider) UploadFile(ctx context.Context, path string) (string, error) {
	file, err := p.client.CreateFile(ctx, goopenai.FileRequest{
		FileName: filepath.Base(path),
		FilePath: path,
		Purpose:  "fine-tune",
	})
	if err != nil {
		return "", fmt.Errorf("upload file %s: %w", path, err)
	}

	return file.ID, nil
}

// CreateFineTune submits a fine-tuning job referencing two uploaded files.
func (p *Provider) CreateFineTune(ctx context.Context, trainingFile, validationFile, baseModel string) (*llm.FineTuneJobStatus, error) {
	job, err := p.client.CreateFineTuningJob(ctx, goopenai.FineTuningJobRequest{
		TrainingFile:   trainingFile,
		ValidationFile: validationFile,
		Model:          baseModel,
	})
	if err != nil {
		return nil, fmt.Errorf("create fine-tuning job: %w", err)
	}

	return convertJob(job), nil
}

// GetFineTuneStatus retrieves the provider's current view of a job.
func (p *Provider) GetFineTuneStatus(ctx context.Context, jobID string) (*llm.FineTuneJobStatus, error) {
	job, err := p.client.RetrieveFineTuningJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("retrieve fine-tuning job %s: %w", jobID, err)
	}

	return convertJob(job), nil
}

func convertJob(job goopenai.FineTuningJob) *llm.FineTuneJobStatus {
	return &llm.FineTuneJobStatus{
		ID:             job.ID,
		Status:         job.Status,
		Model:          job.FineTunedModel,
		CreatedAt:      job.CreatedAt,
		FinishedAt:     job.FinishedAt,
		TrainingFile:   job.TrainingFile,
		ValidationFile: job.ValidationFile,
	}
}
