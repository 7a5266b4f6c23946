package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"companion/internal/domain"
	"companion/internal/domain/models"
	"companion/internal/domain/repositories"
	"companion/internal/llm"
)

// JobStatus is the poll response, sourced from the remote provider so the
// latest view is always surfaced, whether or not a local row exists.
type JobStatus struct {
	FineTuneID     string  `json:"fine_tune_id"`
	Status         string  `json:"status"`
	Model          *string `json:"model"`
	CreatedAt      int64   `json:"created_at"`
	FinishedAt     *int64  `json:"finished_at"`
	TrainingFile   string  `json:"training_file"`
	ValidationFile string  `json:"validation_file"`
}

// FineTuneService tracks the lifecycle of externally-owned fine-tuning jobs
// and decides which model identifier chat turns should use.
type FineTuneService struct {
	jobRepo   repositories.FineTuneRepository
	txManager repositories.TransactionManager
	provider  llm.Provider
	logger    *slog.Logger

	apiKeyConfigured   bool
	baseModel          string
	trainingDataPath   string
	validationDataPath string
}

// FineTuneConfig carries the tracker's static configuration.
type FineTuneConfig struct {
	APIKeyConfigured   bool
	BaseModel          string
	TrainingDataPath   string
	ValidationDataPath string
}

// NewFineTuneService creates a new fine-tune lifecycle service
func NewFineTuneService(
	jobRepo repositories.FineTuneRepository,
	txManager repositories.TransactionManager,
	provider llm.Provider,
	cfg FineTuneConfig,
	logger *slog.Logger,
) *FineTuneService {
	return &FineTuneService{
		jobRepo:            jobRepo,
		txManager:          txManager,
		provider:           provider,
		logger:             logger,
		apiKeyConfigured:   cfg.APIKeyConfigured,
		baseModel:          cfg.BaseModel,
		trainingDataPath:   cfg.TrainingDataPath,
		validationDataPath: cfg.ValidationDataPath,
	}
}

// Submit checks preconditions synchronously, then detaches the
// upload/create/persist sequence so the caller is acknowledged immediately.
// The detached task's outcome is fire-and-forget: a failure is rolled back
// and logged, never delivered to the caller. Status must be polled.
func (s *FineTuneService) Submit(ctx context.Context) error {
	if !s.apiKeyConfigured {
		return fmt.Errorf("%w: OpenAI API key not configured", domain.ErrConfig)
	}

	for _, path := range []string{s.trainingDataPath, s.validationDataPath} {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("training data %s: %w", path, domain.ErrNotFound)
		}
	}

	// Detach from the request context so a client disconnect cannot cancel
	// the in-flight submission.
	go s.runSubmission(context.WithoutCancel(ctx))

	return nil
}

// runSubmission performs the upload/create/persist sequence. Any failure at
// any step aborts the whole operation and no registry row is committed.
func (s *FineTuneService) runSubmission(ctx context.Context) {
	s.logger.Info("uploading training file", "path", s.trainingDataPath)
	trainingFile, err := s.provider.UploadFile(ctx, s.trainingDataPath)
	if err != nil {
		s.logger.Error("fine-tune submission failed", "step", "upload training file", "error", err)
		return
	}
	s.logger.Info("training file uploaded", "file_id", trainingFile)

	s.logger.Info("uploading validation file", "path", s.validationDataPath)
	validationFile, err := s.provider.UploadFile(ctx, s.validationDataPath)
	if err != nil {
		s.logger.Error("fine-tune submission failed", "step", "upload validation file", "error", err)
		return
	}
	s.logger.Info("validation file uploaded", "file_id", validationFile)

	remote, err := s.provider.CreateFineTune(ctx, trainingFile, validationFile, s.baseModel)
	if err != nil {
		s.logger.Error("fine-tune submission failed", "step", "create fine-tune", "error", err)
		return
	}
	s.logger.Info("fine-tuning started", "fine_tune_id", remote.ID, "status", remote.Status)

	job := &models.FineTuneJob{
		FineTuneID:     remote.ID,
		Status:         remote.Status,
		TrainingFile:   trainingFile,
		ValidationFile: validationFile,
	}

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		return s.jobRepo.Create(txCtx, job)
	})
	if err != nil {
		s.logger.Error("fine-tune submission failed", "step", "persist job", "fine_tune_id", remote.ID, "error", err)
		return
	}

	s.logger.Info("fine-tune job recorded", "id", job.ID, "fine_tune_id", job.FineTuneID)
}

// Poll queries the provider for a job's current status and refreshes the
// local registry row when one exists. The returned payload reflects the
// remote response, not the local row.
//
// Polling is idempotent: the status value is overwritten on every call,
// but the completion timestamp is stamped once on the first terminal
// status and never rewritten.
func (s *FineTuneService) Poll(ctx context.Context, fineTuneID string) (*JobStatus, error) {
	remote, err := s.provider.GetFineTuneStatus(ctx, fineTuneID)
	if err != nil {
		s.logger.Error("fine-tune status retrieval failed", "fine_tune_id", fineTuneID, "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}

	job, err := s.jobRepo.GetByFineTuneID(ctx, fineTuneID)
	switch {
	case err == nil:
		job.Status = remote.Status
		if remote.Model != "" {
			model := remote.Model
			job.ModelID = &model
		}
		if models.IsTerminalStatus(remote.Status) && job.FinishedAt == nil {
			now := time.Now()
			job.FinishedAt = &now
		}
		if err := s.jobRepo.Update(ctx, job); err != nil {
			return nil, err
		}
	case errors.Is(err, domain.ErrNotFound):
		// No local row - a job submitted elsewhere or lost to a failed
		// submission. The remote view is still returned.
	default:
		return nil, err
	}

	s.logger.Info("fine-tune status polled", "fine_tune_id", fineTuneID, "status", remote.Status)

	return remoteJobStatus(remote), nil
}

// SelectModel returns the model identifier the next chat turn should use:
// the most recently submitted succeeded fine-tune with a usable model id,
// or the base model when none exists. Absence of data is a valid path, not
// an error. The result is never cached; every turn sees the registry fresh.
func (s *FineTuneService) SelectModel(ctx context.Context) (string, error) {
	job, err := s.jobRepo.LatestSucceeded(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Debug("no fine-tuned model available, using base model", "model", s.baseModel)
			return s.baseModel, nil
		}
		return "", err
	}

	s.logger.Info("using fine-tuned model",
		"model", *job.ModelID,
		"fine_tune_id", job.FineTuneID,
		"submitted_at", job.CreatedAt,
	)

	return *job.ModelID, nil
}

func remoteJobStatus(remote *llm.FineTuneJobStatus) *JobStatus {
	status := &JobStatus{
		FineTuneID:     remote.ID,
		Status:         remote.Status,
		CreatedAt:      remote.CreatedAt,
		TrainingFile:   remote.TrainingFile,
		ValidationFile: remote.ValidationFile,
	}
	if remote.Model != "" {
		model := remote.Model
		status.Model = &model
	}
	if remote.FinishedAt != 0 {
		finished := remote.FinishedAt
		status.FinishedAt = &finished
	}
	return status
}
