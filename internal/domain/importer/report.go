package importer

import (
	"time"

	"github.com/okaokay/gestionale-energia/internal/models"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Row error codes.
const (
	CodeRequired           = "required"
	CodeInvalidCF          = "invalid_codice_fiscale"
	CodeInvalidPIVA        = "invalid_partita_iva"
	CodeInvalidEmail       = "invalid_email"
	CodeEmailDomain        = "email_domain_unreachable"
	CodeInvalidPEC         = "invalid_pec"
	CodeInvalidPOD         = "invalid_pod"
	CodeInvalidPDR         = "invalid_pdr"
	CodeInvalidCAP         = "invalid_cap"
	CodeInvalidProvincia   = "invalid_provincia"
	CodeInvalidNumber      = "invalid_number"
	CodeNegativeNumber     = "negative_number"
	CodeInvalidPower       = "invalid_power"
	CodeInvalidDate        = "invalid_date"
	CodeInvalidDateRange   = "invalid_date_range"
	CodeEmptyRow           = "empty_row"
	CodeDuplicate          = "duplicate"
	CodeClientNotFound     = "client_not_found"
	CodeClientAmbiguous    = "client_ambiguous"
	CodeClientTypeMismatch = "client_type_mismatch"
	CodeDBError            = "db_error"
	CodeBatchFailed        = "batch_failed"
)

// RowError is one problem found on a data row. Row is the spreadsheet line
// number, the header being line 1.
type RowError struct {
	Row      int      `json:"row"`
	Field    string   `json:"field,omitempty"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Value    string   `json:"value,omitempty"`
	Severity Severity `json:"severity"`
}

// ===============================
// Report
// ===============================

type Report struct {
	JobID      string     `json:"job_id"`
	FileName   string     `json:"file_name"`
	SourceKey  string     `json:"source_key,omitempty"`
	RecordType RecordType `json:"record_type"`
	Confidence float64    `json:"confidence"`
	DryRun     bool       `json:"dry_run"`

	TotalRows int `json:"total_rows"`
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`

	LinkedContracts   int `json:"linked_contracts"`
	CreatedClients    int `json:"created_clients"`
	UnlinkedContracts int `json:"unlinked_contracts"`

	Errors   []RowError `json:"errors"`
	Warnings []RowError `json:"warnings"`

	ImportLogID uint      `json:"import_log_id,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
}

// Add files an issue under errors or warnings by severity.
func (r *Report) Add(issues ...RowError) {
	for _, e := range issues {
		if e.Severity == SeverityWarning {
			r.Warnings = append(r.Warnings, e)
		} else {
			r.Errors = append(r.Errors, e)
		}
	}
}

// Processed counts rows that reached a final outcome.
func (r *Report) Processed() int {
	return r.Created + r.Updated + r.Skipped + r.Failed
}

func (r *Report) Status() string {
	switch {
	case r.TotalRows > 0 && r.Failed == r.TotalRows:
		return models.ImportStatusFailed
	case r.Failed > 0:
		return models.ImportStatusCompletedWithErrors
	default:
		return models.ImportStatusCompleted
	}
}

func HasErrors(issues []RowError) bool {
	for _, e := range issues {
		if e.Severity == SeverityError {
			return true
		}
	}
	return false
}
