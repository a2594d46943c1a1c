package dto

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/okaokay/gestionale-energia/internal/domain/importer"
	"github.com/okaokay/gestionale-energia/internal/domain/importjob"
	"github.com/okaokay/gestionale-energia/internal/models"
)

const previewRows = 5

type ImportJobDTO struct {
	ID         string              `json:"id"`
	FileName   string              `json:"file_name"`
	RecordType importer.RecordType `json:"record_type,omitempty"`
	DryRun     bool                `json:"dry_run"`
	Status     importjob.Status    `json:"status"`
	Processed  int                 `json:"processed"`
	Total      int                 `json:"total"`
	Percent    float64             `json:"percent"`
	ErrorCode  string              `json:"error_code,omitempty"`
	Error      string              `json:"error,omitempty"`

	ImportLogID uint       `json:"import_log_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}

func NewImportJobDTO(j *importjob.Job) ImportJobDTO {
	out := ImportJobDTO{
		ID:         j.ID,
		FileName:   j.FileName,
		RecordType: j.RecordType,
		DryRun:     j.DryRun,
		Status:     j.Status,
		Processed:  j.Processed,
		Total:      j.Total,
		Percent:    j.Percent(),
		ErrorCode:  j.ErrorCode,
		Error:      j.Error,
		CreatedAt:  j.CreatedAt,
		StartedAt:  j.StartedAt,
		FinishedAt: j.FinishedAt,
	}
	if j.Report != nil {
		out.ImportLogID = j.Report.ImportLogID
		if out.RecordType == "" {
			out.RecordType = j.Report.RecordType
		}
	}
	return out
}

type ColumnDTO struct {
	Header string `json:"header"`
	Field  string `json:"field,omitempty"`
}

type DetectionDTO struct {
	Detected   bool                            `json:"detected"`
	ErrorCode  string                          `json:"error_code,omitempty"`
	RecordType importer.RecordType             `json:"record_type,omitempty"`
	Label      string                          `json:"label,omitempty"`
	Confidence float64                         `json:"confidence"`
	Forced     bool                            `json:"forced"`
	Scores     map[importer.RecordType]float64 `json:"scores"`
	Missing    []importer.Field                `json:"missing_required,omitempty"`
	Columns    []ColumnDTO                     `json:"columns"`
	TotalRows  int                             `json:"total_rows"`
	Preview    [][]string                      `json:"preview"`
}

// NewDetectionDTO describes the detection together with the first rows.
func NewDetectionDTO(det *importer.Detection, t *importer.Table) DetectionDTO {
	out := DetectionDTO{
		Detected:   det.Type != "",
		RecordType: det.Type,
		Label:      det.Type.Label(),
		Confidence: det.Confidence,
		Forced:     det.Forced,
		Scores:     det.Scores,
		Missing:    det.Missing,
		TotalRows:  t.Len(),
		Preview:    [][]string{},
	}

	byColumn := make(map[int]importer.Field, len(det.Mapping.Columns))
	for f, i := range det.Mapping.Columns {
		byColumn[i] = f
	}
	for i, h := range t.Headers {
		out.Columns = append(out.Columns, ColumnDTO{Header: h, Field: string(byColumn[i])})
	}

	for i := 0; i < len(t.Rows) && i < previewRows; i++ {
		out.Preview = append(out.Preview, t.Rows[i].Cells)
	}
	return out
}

type ImportLogDTO struct {
	*models.ImportLog

	ErrorCount   int                 `json:"error_count"`
	WarningCount int                 `json:"warning_count"`
	Errors       []importer.RowError `json:"errors,omitempty"`
	Warnings     []importer.RowError `json:"warnings,omitempty"`
}

// NewImportLogDTO decodes the stored issues when withIssues is set and
// only counts them otherwise.
func NewImportLogDTO(l *models.ImportLog, withIssues bool) (ImportLogDTO, error) {
	out := ImportLogDTO{ImportLog: l}

	errs, err := decodeIssues(l.Errors)
	if err != nil {
		return out, fmt.Errorf("import log %d errors: %w", l.ID, err)
	}
	warns, err := decodeIssues(l.Warnings)
	if err != nil {
		return out, fmt.Errorf("import log %d warnings: %w", l.ID, err)
	}

	out.ErrorCount, out.WarningCount = len(errs), len(warns)
	if withIssues {
		out.Errors, out.Warnings = errs, warns
	}
	return out, nil
}

func decodeIssues(raw string) ([]importer.RowError, error) {
	if raw == "" {
		return []importer.RowError{}, nil
	}
	var out []importer.RowError
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	return out, nil
}
