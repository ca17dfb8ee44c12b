package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jeheap-analysis/pkg/model"
)

// GormTaskRepository implements TaskRepository using GORM.
type GormTaskRepository struct {
	db *gorm.DB
}

// NewGormTaskRepository creates a new GormTaskRepository.
func NewGormTaskRepository(db *gorm.DB) *GormTaskRepository {
	return &GormTaskRepository{db: db}
}

// GetPendingTasks retrieves tasks whose dump is uploaded but not yet analyzed.
func (r *GormTaskRepository) GetPendingTasks(ctx context.Context, limit int) ([]*model.Task, error) {
	var tasks []HeapDumpTask

	err := r.db.WithContext(ctx).
		Where("status = ? AND analysis_status = ?", model.TaskStatusCompleted, model.AnalysisStatusPending).
		Order("id DESC").
		Limit(limit).
		Find(&tasks).Error

	if err != nil {
		return nil, fmt.Errorf("failed to query pending tasks: %w", err)
	}

	result := make([]*model.Task, len(tasks))
	for i, t := range tasks {
		result[i] = t.ToModel()
	}

	return result, nil
}

// GetTaskByID retrieves a task by its ID.
func (r *GormTaskRepository) GetTaskByID(ctx context.Context, id int64) (*model.Task, error) {
	var task HeapDumpTask

	err := r.db.WithContext(ctx).Where("id = ?", id).First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("task not found: %d", id)
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return task.ToModel(), nil
}

// GetTaskByUUID retrieves a task by its UUID.
func (r *GormTaskRepository) GetTaskByUUID(ctx context.Context, uuid string) (*model.Task, error) {
	var task HeapDumpTask

	err := r.db.WithContext(ctx).Where("tid = ?", uuid).First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("task not found: %s", uuid)
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return task.ToModel(), nil
}

// UpdateAnalysisStatus updates the analysis status of a task.
func (r *GormTaskRepository) UpdateAnalysisStatus(ctx context.Context, id int64, status model.AnalysisStatus) error {
	result := r.db.WithContext(ctx).
		Model(&HeapDumpTask{}).
		Where("id = ?", id).
		Update("analysis_status", status)

	if result.Error != nil {
		return fmt.Errorf("failed to update analysis status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("task not found: %d", id)
	}

	return nil
}

// UpdateAnalysisStatusWithInfo updates the analysis status with additional info.
func (r *GormTaskRepository) UpdateAnalysisStatusWithInfo(ctx context.Context, id int64, status model.AnalysisStatus, info string) error {
	result := r.db.WithContext(ctx).
		Model(&HeapDumpTask{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"analysis_status": status,
			"status_info":     info,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update analysis status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("task not found: %d", id)
	}

	return nil
}

// UpdateResultFile records the path of the uploaded result artifact.
func (r *GormTaskRepository) UpdateResultFile(ctx context.Context, id int64, resultFile string) error {
	result := r.db.WithContext(ctx).
		Model(&HeapDumpTask{}).
		Where("id = ?", id).
		Update("result_file", resultFile)

	if result.Error != nil {
		return fmt.Errorf("failed to update result file: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("task not found: %d", id)
	}

	return nil
}

// LockTaskForAnalysis attempts to lock a task for analysis using FOR UPDATE.
func (r *GormTaskRepository) LockTaskForAnalysis(ctx context.Context, id int64) (bool, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var task HeapDumpTask

		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND analysis_status = ?", id, model.AnalysisStatusPending).
			First(&task).Error

		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return gorm.ErrRecordNotFound
			}
			return err
		}

		return tx.Model(&HeapDumpTask{}).
			Where("id = ?", id).
			Update("analysis_status", model.AnalysisStatusRunning).Error
	})

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to lock task: %w", err)
	}

	return true, nil
}

// GormResultRepository implements ResultRepository using GORM.
type GormResultRepository struct {
	db      *gorm.DB
	version string
}

// NewGormResultRepository creates a new GormResultRepository.
func NewGormResultRepository(db *gorm.DB, version string) *GormResultRepository {
	return &GormResultRepository{db: db, version: version}
}

// SaveResult saves an analysis result to the database.
func (r *GormResultRepository) SaveResult(ctx context.Context, result *model.AnalysisResult) error {
	summaryJSON, err := json.Marshal(result.Summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	record := &HeapAnalysisResult{
		TID:     result.TaskUUID,
		Summary: summaryJSON,
		Version: r.version,
	}

	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to save analysis result: %w", err)
	}

	return nil
}

// GetResultByTaskUUID retrieves the analysis result for a task.
func (r *GormResultRepository) GetResultByTaskUUID(ctx context.Context, taskUUID string) (*model.AnalysisResult, error) {
	var record HeapAnalysisResult

	err := r.db.WithContext(ctx).Where("tid = ?", taskUUID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("result not found for task: %s", taskUUID)
		}
		return nil, fmt.Errorf("failed to get result: %w", err)
	}

	return record.ToModel()
}

// UpdateResult updates an existing analysis result.
func (r *GormResultRepository) UpdateResult(ctx context.Context, result *model.AnalysisResult) error {
	summaryJSON, err := json.Marshal(result.Summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	res := r.db.WithContext(ctx).
		Model(&HeapAnalysisResult{}).
		Where("tid = ?", result.TaskUUID).
		Updates(map[string]interface{}{
			"summary": summaryJSON,
			"version": r.version,
		})

	if res.Error != nil {
		return fmt.Errorf("failed to update result: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("result not found for task: %s", result.TaskUUID)
	}

	return nil
}
