// Package repository provides database abstraction for the analysis service.
package repository

import (
	"context"

	"github.com/jeheap-analysis/pkg/model"
)

// TaskRepository defines the interface for task-related database operations.
type TaskRepository interface {
	// GetPendingTasks retrieves tasks whose dump is uploaded but not yet analyzed.
	GetPendingTasks(ctx context.Context, limit int) ([]*model.Task, error)

	// GetTaskByID retrieves a task by its ID.
	GetTaskByID(ctx context.Context, id int64) (*model.Task, error)

	// GetTaskByUUID retrieves a task by its UUID.
	GetTaskByUUID(ctx context.Context, uuid string) (*model.Task, error)

	// UpdateAnalysisStatus updates the analysis status of a task.
	UpdateAnalysisStatus(ctx context.Context, id int64, status model.AnalysisStatus) error

	// UpdateAnalysisStatusWithInfo updates the analysis status with additional info.
	UpdateAnalysisStatusWithInfo(ctx context.Context, id int64, status model.AnalysisStatus, info string) error

	// UpdateResultFile records the path of the uploaded result artifact.
	UpdateResultFile(ctx context.Context, id int64, resultFile string) error

	// LockTaskForAnalysis attempts to lock a task for analysis (prevents concurrent processing).
	LockTaskForAnalysis(ctx context.Context, id int64) (bool, error)
}

// ResultRepository defines the interface for analysis result operations.
type ResultRepository interface {
	// SaveResult saves an analysis result to the database.
	SaveResult(ctx context.Context, result *model.AnalysisResult) error

	// GetResultByTaskUUID retrieves the analysis result for a task.
	GetResultByTaskUUID(ctx context.Context, taskUUID string) (*model.AnalysisResult, error)

	// UpdateResult updates an existing analysis result.
	UpdateResult(ctx context.Context, result *model.AnalysisResult) error
}
