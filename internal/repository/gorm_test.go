package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jeheap-analysis/pkg/model"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&HeapDumpTask{}, &HeapAnalysisResult{})
	require.NoError(t, err)

	return db
}

func TestGormTaskRepository_GetPendingTasks(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormTaskRepository(db)
	ctx := context.Background()

	t.Run("GetPendingTasks_Empty", func(t *testing.T) {
		tasks, err := repo.GetPendingTasks(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, tasks)
	})

	t.Run("GetPendingTasks_WithData", func(t *testing.T) {
		task := &HeapDumpTask{
			TID:            "test-uuid-1",
			Format:         model.DumpFormatHeapV2,
			Status:         model.TaskStatusCompleted,
			AnalysisStatus: model.AnalysisStatusPending,
			DumpFile:       "dumps/test-uuid-1.heap",
			UserName:       "testuser",
		}
		require.NoError(t, db.Create(task).Error)

		tasks, err := repo.GetPendingTasks(ctx, 10)
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, "test-uuid-1", tasks[0].TaskUUID)
		assert.Equal(t, "dumps/test-uuid-1.heap", tasks[0].DumpFile)
	})
}

func TestGormTaskRepository_GetTaskByID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormTaskRepository(db)
	ctx := context.Background()

	t.Run("GetTaskByID_NotFound", func(t *testing.T) {
		task, err := repo.GetTaskByID(ctx, 999)
		assert.Error(t, err)
		assert.Nil(t, task)
		assert.Contains(t, err.Error(), "task not found")
	})

	t.Run("GetTaskByID_Success", func(t *testing.T) {
		task := &HeapDumpTask{
			TID:            "test-uuid-2",
			Format:         model.DumpFormatHeapV2,
			Status:         model.TaskStatusCompleted,
			AnalysisStatus: model.AnalysisStatusPending,
		}
		require.NoError(t, db.Create(task).Error)

		result, err := repo.GetTaskByID(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, "test-uuid-2", result.TaskUUID)
	})
}

func TestGormTaskRepository_GetTaskByUUID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormTaskRepository(db)
	ctx := context.Background()

	t.Run("GetTaskByUUID_NotFound", func(t *testing.T) {
		task, err := repo.GetTaskByUUID(ctx, "nonexistent")
		assert.Error(t, err)
		assert.Nil(t, task)
	})

	t.Run("GetTaskByUUID_Success", func(t *testing.T) {
		task := &HeapDumpTask{
			TID:            "test-uuid-3",
			Status:         model.TaskStatusCompleted,
			AnalysisStatus: model.AnalysisStatusPending,
		}
		require.NoError(t, db.Create(task).Error)

		result, err := repo.GetTaskByUUID(ctx, "test-uuid-3")
		require.NoError(t, err)
		assert.Equal(t, task.ID, result.ID)
	})
}

func TestGormTaskRepository_UpdateAnalysisStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormTaskRepository(db)
	ctx := context.Background()

	t.Run("UpdateStatus_NotFound", func(t *testing.T) {
		err := repo.UpdateAnalysisStatus(ctx, 999, model.AnalysisStatusCompleted)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "task not found")
	})

	t.Run("UpdateStatus_Success", func(t *testing.T) {
		task := &HeapDumpTask{
			TID:            "test-uuid-4",
			Status:         model.TaskStatusCompleted,
			AnalysisStatus: model.AnalysisStatusPending,
		}
		require.NoError(t, db.Create(task).Error)

		err := repo.UpdateAnalysisStatus(ctx, task.ID, model.AnalysisStatusCompleted)
		require.NoError(t, err)

		var updated HeapDumpTask
		require.NoError(t, db.First(&updated, task.ID).Error)
		assert.Equal(t, model.AnalysisStatusCompleted, updated.AnalysisStatus)
	})
}

func TestGormTaskRepository_UpdateAnalysisStatusWithInfo(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormTaskRepository(db)
	ctx := context.Background()

	task := &HeapDumpTask{
		TID:            "test-uuid-5",
		Status:         model.TaskStatusCompleted,
		AnalysisStatus: model.AnalysisStatusPending,
	}
	require.NoError(t, db.Create(task).Error)

	err := repo.UpdateAnalysisStatusWithInfo(ctx, task.ID, model.AnalysisStatusFailed, "error message")
	require.NoError(t, err)

	var updated HeapDumpTask
	require.NoError(t, db.First(&updated, task.ID).Error)
	assert.Equal(t, model.AnalysisStatusFailed, updated.AnalysisStatus)
	assert.Equal(t, "error message", updated.StatusInfo)
}

func TestGormTaskRepository_UpdateResultFile(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormTaskRepository(db)
	ctx := context.Background()

	task := &HeapDumpTask{
		TID:            "test-uuid-6",
		Status:         model.TaskStatusCompleted,
		AnalysisStatus: model.AnalysisStatusCompleted,
	}
	require.NoError(t, db.Create(task).Error)

	err := repo.UpdateResultFile(ctx, task.ID, "results/test-uuid-6.json.gz")
	require.NoError(t, err)

	var updated HeapDumpTask
	require.NoError(t, db.First(&updated, task.ID).Error)
	assert.Equal(t, "results/test-uuid-6.json.gz", updated.ResultFile)
}

func TestGormTaskRepository_LockTaskForAnalysis(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormTaskRepository(db)
	ctx := context.Background()

	t.Run("Lock_NotFound", func(t *testing.T) {
		locked, err := repo.LockTaskForAnalysis(ctx, 999)
		require.NoError(t, err)
		assert.False(t, locked)
	})

	t.Run("Lock_Success", func(t *testing.T) {
		task := &HeapDumpTask{
			TID:            "test-uuid-7",
			Status:         model.TaskStatusCompleted,
			AnalysisStatus: model.AnalysisStatusPending,
		}
		require.NoError(t, db.Create(task).Error)

		locked, err := repo.LockTaskForAnalysis(ctx, task.ID)
		require.NoError(t, err)
		assert.True(t, locked)

		var updated HeapDumpTask
		require.NoError(t, db.First(&updated, task.ID).Error)
		assert.Equal(t, model.AnalysisStatusRunning, updated.AnalysisStatus)
	})

	t.Run("Lock_AlreadyRunning", func(t *testing.T) {
		task := &HeapDumpTask{
			TID:            "test-uuid-8",
			Status:         model.TaskStatusCompleted,
			AnalysisStatus: model.AnalysisStatusRunning,
		}
		require.NoError(t, db.Create(task).Error)

		locked, err := repo.LockTaskForAnalysis(ctx, task.ID)
		require.NoError(t, err)
		assert.False(t, locked)
	})
}

func TestGormResultRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormResultRepository(db, "1.0.0")
	ctx := context.Background()

	t.Run("SaveResult_Success", func(t *testing.T) {
		result := &model.AnalysisResult{
			TaskUUID: "result-uuid-1",
			Summary:  map[string]interface{}{"live_bytes": float64(4096)},
		}

		err := repo.SaveResult(ctx, result)
		require.NoError(t, err)
	})

	t.Run("GetResultByTaskUUID_Success", func(t *testing.T) {
		result, err := repo.GetResultByTaskUUID(ctx, "result-uuid-1")
		require.NoError(t, err)
		assert.Equal(t, "result-uuid-1", result.TaskUUID)
		assert.Equal(t, "1.0.0", result.Version)
		assert.Equal(t, float64(4096), result.Summary["live_bytes"])
	})

	t.Run("GetResultByTaskUUID_NotFound", func(t *testing.T) {
		result, err := repo.GetResultByTaskUUID(ctx, "nonexistent")
		assert.Error(t, err)
		assert.Nil(t, result)
		assert.Contains(t, err.Error(), "result not found")
	})

	t.Run("UpdateResult_Success", func(t *testing.T) {
		result := &model.AnalysisResult{
			TaskUUID: "result-uuid-1",
			Summary:  map[string]interface{}{"live_bytes": float64(8192)},
		}

		err := repo.UpdateResult(ctx, result)
		require.NoError(t, err)

		updated, err := repo.GetResultByTaskUUID(ctx, "result-uuid-1")
		require.NoError(t, err)
		assert.Equal(t, float64(8192), updated.Summary["live_bytes"])
	})

	t.Run("UpdateResult_NotFound", func(t *testing.T) {
		result := &model.AnalysisResult{
			TaskUUID: "nonexistent",
			Summary:  map[string]interface{}{},
		}

		err := repo.UpdateResult(ctx, result)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "result not found")
	})
}

func TestNewGormDB_UnsupportedType(t *testing.T) {
	_, err := NewGormDB(&DBConfig{Type: "oracle"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database type")
}

func TestNewGormDB_SQLite(t *testing.T) {
	db, err := NewGormDB(&DBConfig{Type: "sqlite", Database: ":memory:"})
	require.NoError(t, err)

	repos := NewRepositories(db, "sqlite", "1.0.0")
	require.NoError(t, repos.Migrate())
	require.NoError(t, repos.HealthCheck(context.Background()))
	require.NoError(t, repos.Close())
}
