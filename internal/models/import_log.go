package models

import "time"

const (
	ImportStatusCompleted           = "completed"
	ImportStatusCompletedWithErrors = "completed_with_errors"
	ImportStatusFailed              = "failed"
)

// ImportLog records the outcome of one bulk import. Errors and Warnings
// hold JSON arrays of row errors.
type ImportLog struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	JobID string `gorm:"size:36;uniqueIndex;not null" json:"job_id"`

	FileName   string  `gorm:"size:255;not null" json:"file_name"`
	SourceKey  string  `gorm:"size:512" json:"source_key"`
	RecordType string  `gorm:"size:30;index" json:"record_type"`
	Confidence float64 `json:"confidence"`

	TotalRows   int `json:"total_rows"`
	CreatedRows int `json:"created_rows"`
	UpdatedRows int `json:"updated_rows"`
	SkippedRows int `json:"skipped_rows"`
	FailedRows  int `json:"failed_rows"`

	LinkedContracts   int `json:"linked_contracts"`
	CreatedClients    int `json:"created_clients"`
	UnlinkedContracts int `json:"unlinked_contracts"`

	Errors   string `gorm:"type:text" json:"-"`
	Warnings string `gorm:"type:text" json:"-"`

	Status string `gorm:"size:30;index" json:"status"`
	DryRun bool   `json:"dry_run"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	CreatedAt  time.Time `json:"created_at"`
}
