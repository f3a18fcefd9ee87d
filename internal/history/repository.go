// Package history persists pipeline execution records to a relational store.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tidewind/aircast/internal/support/util/exception"
	"github.com/tidewind/aircast/internal/support/util/logger"
)

const ModuleHistory = "history"

// Repository records pipeline and per-city execution history.
type Repository interface {
	// StartRun inserts a new run in the STARTED state and returns it.
	StartRun(ctx context.Context, jobName string) (*PipelineRun, error)
	// FinishRun stamps the end time and final status on a run.
	FinishRun(ctx context.Context, run *PipelineRun, status string) error
	// RecordCityRun appends the outcome of one city to a run.
	RecordCityRun(ctx context.Context, runID, city, status string, rowCount, promptCount int, message string) error
	Close() error
}

// GormRepository implements Repository on top of a gorm connection.
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a Repository backed by the given gorm connection.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) StartRun(ctx context.Context, jobName string) (*PipelineRun, error) {
	run := &PipelineRun{
		ID:        uuid.NewString(),
		JobName:   jobName,
		StartTime: time.Now().UTC(),
		Status:    StatusStarted,
	}
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return nil, exception.NewPipelineError(ModuleHistory, fmt.Sprintf("failed to record start of run '%s'", jobName), err, false, false)
	}
	logger.Debugf("Recorded start of run '%s' (ID: %s).", jobName, run.ID)
	return run, nil
}

func (r *GormRepository) FinishRun(ctx context.Context, run *PipelineRun, status string) error {
	now := time.Now().UTC()
	run.EndTime = &now
	run.Status = status
	err := r.db.WithContext(ctx).
		Model(&PipelineRun{}).
		Where("id = ?", run.ID).
		Updates(map[string]interface{}{"end_time": run.EndTime, "status": run.Status}).Error
	if err != nil {
		return exception.NewPipelineError(ModuleHistory, fmt.Sprintf("failed to record end of run '%s'", run.ID), err, false, false)
	}
	logger.Debugf("Recorded end of run '%s' with status %s.", run.ID, status)
	return nil
}

func (r *GormRepository) RecordCityRun(ctx context.Context, runID, city, status string, rowCount, promptCount int, message string) error {
	entry := &CityRun{
		ID:          uuid.NewString(),
		RunID:       runID,
		City:        city,
		Status:      status,
		RowCount:    rowCount,
		PromptCount: promptCount,
		Message:     message,
		CreatedAt:   time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return exception.NewPipelineError(ModuleHistory, fmt.Sprintf("failed to record city '%s' for run '%s'", city, runID), err, false, false)
	}
	return nil
}

func (r *GormRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// NoopRepository is used when history recording is disabled.
type NoopRepository struct{}

func NewNoopRepository() *NoopRepository { return &NoopRepository{} }

func (NoopRepository) StartRun(_ context.Context, jobName string) (*PipelineRun, error) {
	return &PipelineRun{ID: uuid.NewString(), JobName: jobName, StartTime: time.Now().UTC(), Status: StatusStarted}, nil
}

func (NoopRepository) FinishRun(_ context.Context, _ *PipelineRun, _ string) error { return nil }

func (NoopRepository) RecordCityRun(_ context.Context, _, _, _ string, _, _ int, _ string) error {
	return nil
}

func (NoopRepository) Close() error { return nil }
