package history_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	gormmysql "gorm.io/driver/mysql"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tidewind/aircast/internal/history"
)

// setupSQLiteRepository opens an in-memory SQLite database, applies the schema
// migrations, and returns a repository backed by it.
func setupSQLiteRepository(t *testing.T) *history.GormRepository {
	t.Helper()

	db, err := gorm.Open(gormsqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open in-memory SQLite: %v", err)
	}
	if err := history.Migrate(db, "sqlite"); err != nil {
		t.Fatalf("Failed to migrate history schema: %v", err)
	}
	return history.NewGormRepository(db)
}

func TestGormRepository_RunLifecycle(t *testing.T) {
	repo := setupSQLiteRepository(t)
	ctx := context.Background()

	run, err := repo.StartRun(ctx, "aircast-ingest")
	assert.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, history.StatusStarted, run.Status)
	assert.Nil(t, run.EndTime)

	assert.NoError(t, repo.RecordCityRun(ctx, run.ID, "Wellington", history.StatusCompleted, 120, 0, ""))
	assert.NoError(t, repo.RecordCityRun(ctx, run.ID, "Auckland", history.StatusSkipped, 0, 0, "no locations"))

	assert.NoError(t, repo.FinishRun(ctx, run, history.StatusCompleted))
	assert.Equal(t, history.StatusCompleted, run.Status)
	assert.NotNil(t, run.EndTime)
}

func TestGormRepository_MultipleRunsAreIndependent(t *testing.T) {
	repo := setupSQLiteRepository(t)
	ctx := context.Background()

	first, err := repo.StartRun(ctx, "aircast-ingest")
	assert.NoError(t, err)
	second, err := repo.StartRun(ctx, "aircast-prompts")
	assert.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	assert.NoError(t, repo.FinishRun(ctx, first, history.StatusFailed))
	assert.Equal(t, history.StatusStarted, second.Status)
}

// TestGormRepository_StartRunSQL verifies the emitted INSERT against a mocked
// connection.
func TestGormRepository_StartRunSQL(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	defer db.Close()

	gdb, err := gorm.Open(gormmysql.New(gormmysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open gorm over sqlmock: %v", err)
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `pipeline_runs`").
		WithArgs(sqlmock.AnyArg(), "aircast-ingest", sqlmock.AnyArg(), nil, history.StatusStarted).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := history.NewGormRepository(gdb)
	run, err := repo.StartRun(context.Background(), "aircast-ingest")
	assert.NoError(t, err)
	assert.NotEmpty(t, run.ID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNoopRepository(t *testing.T) {
	repo := history.NewNoopRepository()
	ctx := context.Background()

	run, err := repo.StartRun(ctx, "aircast-ingest")
	assert.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.NoError(t, repo.RecordCityRun(ctx, run.ID, "Wellington", history.StatusCompleted, 1, 0, ""))
	assert.NoError(t, repo.FinishRun(ctx, run, history.StatusCompleted))
	assert.NoError(t, repo.Close())
}
