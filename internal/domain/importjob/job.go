package importjob

import (
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/okaokay/gestionale-energia/internal/domain/importer"
)

var (
	ErrJobNotFound = errors.New("import job not found")
	ErrLocked      = errors.New("another import is running")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

type Job struct {
	ID         string              `json:"id"`
	FileName   string              `json:"file_name"`
	SourceKey  string              `json:"source_key,omitempty"`
	RecordType importer.RecordType `json:"record_type,omitempty"`
	DryRun     bool                `json:"dry_run"`
	NoUpdate   bool                `json:"no_update,omitempty"`
	Actor      string              `json:"actor,omitempty"`

	Status    Status `json:"status"`
	Processed int    `json:"processed"`
	Total     int    `json:"total"`

	Report    *importer.Report `json:"report,omitempty"`
	Error     string           `json:"error,omitempty"`
	ErrorCode string           `json:"error_code,omitempty"`

	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

func (j *Job) Finished() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}

// Percent is the share of processed rows, 0 before the file is parsed.
func (j *Job) Percent() float64 {
	if j.Total == 0 {
		if j.Status == StatusCompleted {
			return 100
		}
		return 0
	}
	return float64(j.Processed) * 100 / float64(j.Total)
}

// ArchiveKey is the object key of an uploaded file:
// imports/YYYY/MM/<job-id>/<file-name>.
func ArchiveKey(jobID, fileName string, now time.Time) string {
	return path.Join("imports", fmt.Sprintf("%04d", now.Year()), fmt.Sprintf("%02d", int(now.Month())), jobID, path.Base(fileName))
}
