package repository

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/jeheap-analysis/pkg/model"
)

// HeapDumpTask represents the heap_dump_task table.
type HeapDumpTask struct {
	ID             int64                `gorm:"column:id;primaryKey;autoIncrement"`
	TID            string               `gorm:"column:tid;type:varchar(64);uniqueIndex"`
	Format         model.DumpFormat     `gorm:"column:format"`
	Status         model.TaskStatus     `gorm:"column:status"`
	AnalysisStatus model.AnalysisStatus `gorm:"column:analysis_status"`
	StatusInfo     string               `gorm:"column:status_info;type:text"`
	DumpFile       string               `gorm:"column:dump_file;type:varchar(512)"`
	ResultFile     string               `gorm:"column:result_file;type:varchar(512)"`
	UserName       string               `gorm:"column:user_name;type:varchar(128)"`
	COSBucket      string               `gorm:"column:cos_bucket;type:varchar(128)"`
	CreateTime     time.Time            `gorm:"column:create_time;autoCreateTime"`
	BeginTime      *time.Time           `gorm:"column:begin_time"`
	EndTime        *time.Time           `gorm:"column:end_time"`
}

// TableName returns the table name for HeapDumpTask.
func (HeapDumpTask) TableName() string {
	return "heap_dump_task"
}

// ToModel converts HeapDumpTask to model.Task.
func (t *HeapDumpTask) ToModel() *model.Task {
	return &model.Task{
		ID:             t.ID,
		TaskUUID:       t.TID,
		Format:         t.Format,
		Status:         t.Status,
		AnalysisStatus: t.AnalysisStatus,
		StatusInfo:     t.StatusInfo,
		DumpFile:       t.DumpFile,
		ResultFile:     t.ResultFile,
		UserName:       t.UserName,
		COSBucket:      t.COSBucket,
		CreateTime:     t.CreateTime,
		BeginTime:      t.BeginTime,
		EndTime:        t.EndTime,
	}
}

// HeapAnalysisResult represents the heap_analysis_results table.
type HeapAnalysisResult struct {
	ID      int64     `gorm:"column:id;primaryKey;autoIncrement"`
	TID     string    `gorm:"column:tid;type:varchar(64);uniqueIndex"`
	Summary JSONField `gorm:"column:summary;type:json"`
	Version string    `gorm:"column:version;type:varchar(32)"`
}

// TableName returns the table name for HeapAnalysisResult.
func (HeapAnalysisResult) TableName() string {
	return "heap_analysis_results"
}

// ToModel converts HeapAnalysisResult to model.AnalysisResult.
func (r *HeapAnalysisResult) ToModel() (*model.AnalysisResult, error) {
	result := &model.AnalysisResult{
		TaskUUID: r.TID,
		Version:  r.Version,
	}

	if r.Summary != nil {
		if err := json.Unmarshal(r.Summary, &result.Summary); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// JSONField is a custom type for handling JSON fields in GORM.
type JSONField []byte

// Value implements driver.Valuer interface.
func (j JSONField) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return []byte(j), nil
}

// Scan implements sql.Scanner interface.
func (j *JSONField) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		*j = append((*j)[0:0], v...)
		return nil
	case string:
		*j = []byte(v)
		return nil
	default:
		return errors.New("unsupported type for JSONField")
	}
}

// MarshalJSON implements json.Marshaler interface.
func (j JSONField) MarshalJSON() ([]byte, error) {
	if j == nil {
		return []byte("null"), nil
	}
	return j, nil
}

// UnmarshalJSON implements json.Unmarshaler interface.
func (j *JSONField) UnmarshalJSON(data []byte) error {
	if data == nil || string(data) == "null" {
		*j = nil
		return nil
	}
	*j = append((*j)[0:0], data...)
	return nil
}
