package model

import "time"

// DumpFormat identifies the profiler dump format of a task.
type DumpFormat int

const (
	// DumpFormatHeapV2 is jemalloc's version-2 ASCII heap profile.
	DumpFormatHeapV2 DumpFormat = 0
)

// String returns the string representation of DumpFormat.
func (f DumpFormat) String() string {
	switch f {
	case DumpFormatHeapV2:
		return "heap_v2"
	default:
		return "unknown"
	}
}

// TaskStatus represents the dump-collection status of a task.
type TaskStatus int

const (
	TaskStatusPending   TaskStatus = 0 // Pending
	TaskStatusRunning   TaskStatus = 1 // Running (dump collection)
	TaskStatusCompleted TaskStatus = 2 // Completed (dump uploaded)
	TaskStatusFailed    TaskStatus = 3 // Failed
)

// AnalysisStatus represents the analysis status of a task.
type AnalysisStatus int

const (
	AnalysisStatusPending   AnalysisStatus = 0 // Not started
	AnalysisStatusRunning   AnalysisStatus = 1 // Running
	AnalysisStatusCompleted AnalysisStatus = 2 // Completed
	AnalysisStatusFailed    AnalysisStatus = 3 // Failed
	AnalysisStatusEmpty     AnalysisStatus = 5 // Dump contained no stacks
)

// Task represents one heap-dump analysis task.
type Task struct {
	ID             int64          `json:"id" db:"id"`
	TaskUUID       string         `json:"tid" db:"tid"`
	Format         DumpFormat     `json:"format" db:"format"`
	Status         TaskStatus     `json:"status" db:"status"`
	AnalysisStatus AnalysisStatus `json:"analysis_status" db:"analysis_status"`
	StatusInfo     string         `json:"status_info" db:"status_info"`
	DumpFile       string         `json:"dump_file" db:"dump_file"`
	ResultFile     string         `json:"result_file" db:"result_file"`
	UserName       string         `json:"user_name" db:"user_name"`
	COSBucket      string         `json:"cos_bucket" db:"cos_bucket"`
	CreateTime     time.Time      `json:"create_time" db:"create_time"`
	BeginTime      *time.Time     `json:"begin_time" db:"begin_time"`
	EndTime        *time.Time     `json:"end_time" db:"end_time"`
}

// NewTask creates a new Task instance in the pending state.
func NewTask(id int64, taskUUID string, format DumpFormat) *Task {
	return &Task{
		ID:             id,
		TaskUUID:       taskUUID,
		Format:         format,
		Status:         TaskStatusPending,
		AnalysisStatus: AnalysisStatusPending,
		CreateTime:     time.Now(),
	}
}
