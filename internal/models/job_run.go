package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type JobStatus string

const (
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
)

// JobRun is one execution of a batch job.
type JobRun struct {
	ID         string      `json:"id" gorm:"type:uuid;primaryKey"`
	Kind       string      `json:"kind" gorm:"index;not null"`
	Status     JobStatus   `json:"status" gorm:"not null"`
	Trigger    string      `json:"trigger"`
	Processed  int         `json:"processed"`
	Updated    int         `json:"updated"`
	Skipped    int         `json:"skipped"`
	NotFound   int         `json:"not_found"`
	Failed     int         `json:"failed"`
	Error      *string     `json:"error,omitempty"`
	StartedAt  time.Time   `json:"started_at" gorm:"index"`
	FinishedAt *time.Time  `json:"finished_at,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
	Rows       []RowResult `json:"rows,omitempty" gorm:"foreignKey:RunID"`
}

type RowStatus string

const (
	RowStatusUpdated  RowStatus = "updated"
	RowStatusSkipped  RowStatus = "skipped"
	RowStatusNotFound RowStatus = "not_found"
	RowStatusFailed   RowStatus = "failed"
)

// RowResult is the outcome of a single spreadsheet row within a run.
type RowResult struct {
	ID        string         `json:"id" gorm:"type:uuid;primaryKey"`
	RunID     string         `json:"run_id" gorm:"type:uuid;index;not null"`
	Job       string         `json:"job"`
	RowNumber int            `json:"row_number"`
	Key       string         `json:"key"`
	Status    RowStatus      `json:"status" gorm:"not null"`
	Detail    string         `json:"detail"`
	Value     string         `json:"value"`
	Keywords  pq.StringArray `json:"keywords,omitempty" gorm:"type:text"`
	Score     float64        `json:"score"`
	CreatedAt time.Time      `json:"created_at"`
}

func (r *JobRun) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

func (r *RowResult) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}
