package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jeheap-analysis/pkg/model"
)

// MySQLTaskRepository implements TaskRepository on a raw MySQL connection,
// for deployments that share a connection pool with other services.
type MySQLTaskRepository struct {
	db *sql.DB
}

// NewMySQLTaskRepository creates a new MySQLTaskRepository.
func NewMySQLTaskRepository(db *sql.DB) *MySQLTaskRepository {
	return &MySQLTaskRepository{db: db}
}

const taskColumns = `id, tid, format, status, analysis_status,
	   COALESCE(status_info, ''), COALESCE(dump_file, ''),
	   COALESCE(result_file, ''), COALESCE(user_name, ''),
	   COALESCE(cos_bucket, ''), create_time, begin_time, end_time`

// GetPendingTasks retrieves tasks whose dump is uploaded but not yet analyzed.
func (r *MySQLTaskRepository) GetPendingTasks(ctx context.Context, limit int) ([]*model.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM heap_dump_task
		WHERE status = ? AND analysis_status = ?
		ORDER BY id DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, model.TaskStatusCompleted, model.AnalysisStatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*model.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}

	return tasks, rows.Err()
}

// GetTaskByID retrieves a task by its ID.
func (r *MySQLTaskRepository) GetTaskByID(ctx context.Context, id int64) (*model.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM heap_dump_task WHERE id = ?`

	task, err := scanTask(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("task not found: %d", id)
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return task, nil
}

// GetTaskByUUID retrieves a task by its UUID.
func (r *MySQLTaskRepository) GetTaskByUUID(ctx context.Context, uuid string) (*model.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM heap_dump_task WHERE tid = ?`

	task, err := scanTask(r.db.QueryRowContext(ctx, query, uuid))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("task not found: %s", uuid)
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return task, nil
}

// UpdateAnalysisStatus updates the analysis status of a task.
func (r *MySQLTaskRepository) UpdateAnalysisStatus(ctx context.Context, id int64, status model.AnalysisStatus) error {
	query := `UPDATE heap_dump_task SET analysis_status = ? WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update analysis status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("task not found: %d", id)
	}

	return nil
}

// UpdateAnalysisStatusWithInfo updates the analysis status with additional info.
func (r *MySQLTaskRepository) UpdateAnalysisStatusWithInfo(ctx context.Context, id int64, status model.AnalysisStatus, info string) error {
	query := `UPDATE heap_dump_task SET analysis_status = ?, status_info = ? WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query, status, info, id)
	if err != nil {
		return fmt.Errorf("failed to update analysis status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("task not found: %d", id)
	}

	return nil
}

// UpdateResultFile records the path of the uploaded result artifact.
func (r *MySQLTaskRepository) UpdateResultFile(ctx context.Context, id int64, resultFile string) error {
	query := `UPDATE heap_dump_task SET result_file = ? WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query, resultFile, id)
	if err != nil {
		return fmt.Errorf("failed to update result file: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("task not found: %d", id)
	}

	return nil
}

// LockTaskForAnalysis attempts to lock a task for analysis using FOR UPDATE.
func (r *MySQLTaskRepository) LockTaskForAnalysis(ctx context.Context, id int64) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var analysisStatus model.AnalysisStatus
	query := `SELECT analysis_status FROM heap_dump_task WHERE id = ? AND analysis_status = ? FOR UPDATE`
	err = tx.QueryRowContext(ctx, query, id, model.AnalysisStatusPending).Scan(&analysisStatus)
	if err != nil {
		if err == sql.ErrNoRows || strings.Contains(err.Error(), "lock wait timeout") {
			return false, nil
		}
		return false, fmt.Errorf("failed to lock task: %w", err)
	}

	updateQuery := `UPDATE heap_dump_task SET analysis_status = ? WHERE id = ?`
	_, err = tx.ExecContext(ctx, updateQuery, model.AnalysisStatusRunning, id)
	if err != nil {
		return false, fmt.Errorf("failed to update status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return true, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row rowScanner) (*model.Task, error) {
	task := &model.Task{}
	var beginTime, endTime sql.NullTime

	err := row.Scan(
		&task.ID, &task.TaskUUID, &task.Format, &task.Status,
		&task.AnalysisStatus, &task.StatusInfo, &task.DumpFile,
		&task.ResultFile, &task.UserName, &task.COSBucket,
		&task.CreateTime, &beginTime, &endTime,
	)
	if err != nil {
		return nil, err
	}

	if beginTime.Valid {
		task.BeginTime = &beginTime.Time
	}
	if endTime.Valid {
		task.EndTime = &endTime.Time
	}

	return task, nil
}

// MySQLResultRepository implements ResultRepository on a raw MySQL connection.
type MySQLResultRepository struct {
	db      *sql.DB
	version string
}

// NewMySQLResultRepository creates a new MySQLResultRepository.
func NewMySQLResultRepository(db *sql.DB, version string) *MySQLResultRepository {
	return &MySQLResultRepository{db: db, version: version}
}

// SaveResult saves an analysis result to the database.
func (r *MySQLResultRepository) SaveResult(ctx context.Context, result *model.AnalysisResult) error {
	summaryJSON, err := json.Marshal(result.Summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	query := `INSERT INTO heap_analysis_results (tid, summary, version) VALUES (?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, result.TaskUUID, summaryJSON, r.version); err != nil {
		return fmt.Errorf("failed to save analysis result: %w", err)
	}

	return nil
}

// GetResultByTaskUUID retrieves the analysis result for a task.
func (r *MySQLResultRepository) GetResultByTaskUUID(ctx context.Context, taskUUID string) (*model.AnalysisResult, error) {
	query := `SELECT tid, summary, COALESCE(version, '') FROM heap_analysis_results WHERE tid = ?`

	result := &model.AnalysisResult{}
	var summaryJSON []byte

	err := r.db.QueryRowContext(ctx, query, taskUUID).Scan(&result.TaskUUID, &summaryJSON, &result.Version)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("result not found for task: %s", taskUUID)
		}
		return nil, fmt.Errorf("failed to get result: %w", err)
	}

	if summaryJSON != nil {
		if err := json.Unmarshal(summaryJSON, &result.Summary); err != nil {
			return nil, fmt.Errorf("failed to parse summary: %w", err)
		}
	}

	return result, nil
}

// UpdateResult updates an existing analysis result.
func (r *MySQLResultRepository) UpdateResult(ctx context.Context, result *model.AnalysisResult) error {
	summaryJSON, err := json.Marshal(result.Summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	query := `UPDATE heap_analysis_results SET summary = ?, version = ? WHERE tid = ?`
	res, err := r.db.ExecContext(ctx, query, summaryJSON, r.version, result.TaskUUID)
	if err != nil {
		return fmt.Errorf("failed to update result: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("result not found for task: %s", result.TaskUUID)
	}

	return nil
}
