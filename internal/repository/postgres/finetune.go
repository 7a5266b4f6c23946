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

// PostgresFineTuneRepository implements the FineTuneRepository interface
// using PostgreSQL
type PostgresFineTuneRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewFineTuneRepository creates a new PostgresFineTuneRepository
func NewFineTuneRepository(config *RepositoryConfig) repositories.FineTuneRepository {
	return &PostgresFineTuneRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create inserts a new fine-tune job row
func (r *PostgresFineTuneRepository) Create(ctx context.Context, job *models.FineTuneJob) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (fine_tune_id, status, model_id, training_file, validation_file)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, r.tables.FineTuneJobs)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		job.FineTuneID,
		job.Status,
		job.ModelID,
		job.TrainingFile,
		job.ValidationFile,
	).Scan(&job.ID, &job.CreatedAt)

	if err != nil {
		if IsPgDuplicateError(err) {
			return fmt.Errorf("fine-tune job %s: %w", job.FineTuneID, domain.ErrConflict)
		}
		return fmt.Errorf("create fine-tune job: %w", err)
	}

	return nil
}

// GetByFineTuneID retrieves a job by its remote identifier
func (r *PostgresFineTuneRepository) GetByFineTuneID(ctx context.Context, fineTuneID string) (*models.FineTuneJob, error) {
	query := fmt.Sprintf(`
		SELECT id, fine_tune_id, status, model_id, training_file, validation_file, created_at, finished_at
		FROM %s
		WHERE fine_tune_id = $1
	`, r.tables.FineTuneJobs)

	var job models.FineTuneJob
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, fineTuneID).Scan(
		&job.ID,
		&job.FineTuneID,
		&job.Status,
		&job.ModelID,
		&job.TrainingFile,
		&job.ValidationFile,
		&job.CreatedAt,
		&job.FinishedAt,
	)

	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("fine-tune job %s: %w", fineTuneID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get fine-tune job: %w", err)
	}

	return &job, nil
}

// Update persists status, model id and finished_at for an existing row
func (r *PostgresFineTuneRepository) Update(ctx context.Context, job *models.FineTuneJob) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = $1, model_id = $2, finished_at = $3
		WHERE fine_tune_id = $4
	`, r.tables.FineTuneJobs)

	executor := GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query,
		job.Status,
		job.ModelID,
		job.FinishedAt,
		job.FineTuneID,
	)

	if err != nil {
		return fmt.Errorf("update fine-tune job: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("fine-tune job %s: %w", job.FineTuneID, domain.ErrNotFound)
	}

	return nil
}

// LatestSucceeded returns the most recently submitted succeeded job with a
// usable model id
func (r *PostgresFineTuneRepository) LatestSucceeded(ctx context.Context) (*models.FineTuneJob, error) {
	query := fmt.Sprintf(`
		SELECT id, fine_tune_id, status, model_id, training_file, validation_file, created_at, finished_at
		FROM %s
		WHERE status = $1 AND model_id IS NOT NULL
		ORDER BY created_at DESC
		LIMIT 1
	`, r.tables.FineTuneJobs)

	var job models.FineTuneJob
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, models.StatusSucceeded).Scan(
		&job.ID,
		&job.FineTuneID,
		&job.Status,
		&job.ModelID,
		&job.TrainingFile,
		&job.ValidationFile,
		&job.CreatedAt,
		&job.FinishedAt,
	)

	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("succeeded fine-tune job: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("latest succeeded fine-tune job: %w", err)
	}

	return &job, nil
}
