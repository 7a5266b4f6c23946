package repositories

import (
	"context"

	"companion/internal/domain/models"
)

// FineTuneRepository is the registry of submitted fine-tuning jobs.
type FineTuneRepository interface {
	// Create inserts a new job row. The remote fine_tune_id is unique;
	// a collision returns domain.ErrConflict.
	Create(ctx context.Context, job *models.FineTuneJob) error

	// GetByFineTuneID retrieves a job by its remote identifier.
	// Returns domain.ErrNotFound if no row exists.
	GetByFineTuneID(ctx context.Context, fineTuneID string) (*models.FineTuneJob, error)

	// Update persists status, model id and finished_at for an existing row.
	Update(ctx context.Context, job *models.FineTuneJob) error

	// LatestSucceeded returns the job with status "succeeded" and a non-null
	// model id that has the most recent created_at, or domain.ErrNotFound if
	// no such job exists.
	LatestSucceeded(ctx context.Context) (*models.FineTuneJob, error)
}
