package history

import "time"

// Run statuses recorded in the history store.
const (
	StatusStarted   = "STARTED"
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
	StatusSkipped   = "SKIPPED"
)

// PipelineRun records one execution of a pipeline binary.
type PipelineRun struct {
	ID        string     `gorm:"column:id;primaryKey"`
	JobName   string     `gorm:"column:job_name"`
	StartTime time.Time  `gorm:"column:start_time"`
	EndTime   *time.Time `gorm:"column:end_time"`
	Status    string     `gorm:"column:status"`
}

func (PipelineRun) TableName() string { return "pipeline_runs" }

// CityRun records the outcome of a single city within a pipeline run.
type CityRun struct {
	ID          string    `gorm:"column:id;primaryKey"`
	RunID       string    `gorm:"column:run_id"`
	City        string    `gorm:"column:city"`
	Status      string    `gorm:"column:status"`
	RowCount    int       `gorm:"column:row_count"`
	PromptCount int       `gorm:"column:prompt_count"`
	Message     string    `gorm:"column:message"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (CityRun) TableName() string { return "city_runs" }
