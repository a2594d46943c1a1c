package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/okaokay/gestionale-energia/internal/domain/importer"
	"github.com/okaokay/gestionale-energia/internal/dto"
	"github.com/okaokay/gestionale-energia/internal/httperr"
	"github.com/okaokay/gestionale-energia/internal/httpresp"
	"github.com/okaokay/gestionale-energia/internal/infra/source"
	ucImport "github.com/okaokay/gestionale-energia/internal/usecase/importer"
	ucJob "github.com/okaokay/gestionale-energia/internal/usecase/importjob"
)

// ======================================================
// HANDLER
// ======================================================

type ImportHandler struct {
	runner   *ucJob.Runner
	detector *ucImport.UnifiedImport
	maxBytes int64
}

func NewImportHandler(
	runner *ucJob.Runner,
	detector *ucImport.UnifiedImport,
	maxBytes int64,
) *ImportHandler {
	return &ImportHandler{
		runner:   runner,
		detector: detector,
		maxBytes: maxBytes,
	}
}

// ======================================================
// UPLOAD
// ======================================================

func (h *ImportHandler) Create(c *gin.Context) {
	name, data, ok := h.readFile(c)
	if !ok {
		return
	}

	recordType, err := importer.ParseRecordType(c.PostForm("record_type"))
	if err != nil {
		writeError(c, err, "import_failed")
		return
	}

	batch, _ := strconv.Atoi(c.PostForm("batch_size"))

	job, err := h.runner.Submit(c.Request.Context(), ucJob.Upload{
		FileName:   name,
		Data:       data,
		RecordType: recordType,
		DryRun:     boolValue(c.PostForm("dry_run")),
		NoUpdate:   boolValue(c.PostForm("no_update")),
		BatchSize:  batch,
		Actor:      actor(c),
	})
	if err != nil {
		writeError(c, err, "import_submit_failed")
		return
	}

	c.Header("Location", "/api/imports/"+job.ID)
	httpresp.Accepted(c, dto.NewImportJobDTO(job))
}

// ======================================================
// DETECT (preview only, nothing is written)
// ======================================================

func (h *ImportHandler) Detect(c *gin.Context) {
	name, data, ok := h.readFile(c)
	if !ok {
		return
	}

	recordType, err := importer.ParseRecordType(c.PostForm("record_type"))
	if err != nil {
		writeError(c, err, "detect_failed")
		return
	}

	table, err := source.Read(name, data)
	if err != nil {
		writeError(c, err, "detect_failed")
		return
	}

	det, err := h.detector.Detect(table.Headers, recordType)
	if det == nil {
		writeError(c, err, "detect_failed")
		return
	}

	out := dto.NewDetectionDTO(det, table)
	if err != nil {
		code, _ := httperr.BusinessCode(err)
		out.Detected = false
		out.ErrorCode = code
	}
	httpresp.OK(c, out)
}

// ======================================================
// STATUS / RESULT
// ======================================================

func (h *ImportHandler) Get(c *gin.Context) {
	job, err := h.runner.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, "import_job_failed")
		return
	}
	httpresp.OK(c, dto.NewImportJobDTO(job))
}

func (h *ImportHandler) Result(c *gin.Context) {
	job, err := h.runner.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, "import_job_failed")
		return
	}

	if !job.Finished() {
		httperr.Conflict(c, "import_not_finished", "Importazione ancora in corso.")
		return
	}
	if job.Report == nil {
		httperr.Write(c, http.StatusUnprocessableEntity, job.ErrorCode, job.Error)
		return
	}
	httpresp.OK(c, job.Report)
}

// readFile reads the multipart "file" field within the upload limit.
func (h *ImportHandler) readFile(c *gin.Context) (string, []byte, bool) {
	fh, err := c.FormFile("file")
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		httperr.TooLarge(c, "file_too_large", fmt.Sprintf("Il file supera il limite di %d MB.", h.maxBytes>>20))
		return "", nil, false
	}
	if err != nil {
		httperr.BadRequest(c, "file_required", "Allegare un file nel campo \"file\".")
		return "", nil, false
	}
	if h.maxBytes > 0 && fh.Size > h.maxBytes {
		httperr.TooLarge(c, "file_too_large", fmt.Sprintf("Il file supera il limite di %d MB.", h.maxBytes>>20))
		return "", nil, false
	}

	f, err := fh.Open()
	if err != nil {
		httperr.BadRequest(c, "file_unreadable", "Impossibile leggere il file.")
		return "", nil, false
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		httperr.BadRequest(c, "file_unreadable", "Impossibile leggere il file.")
		return "", nil, false
	}
	return fh.Filename, data, true
}
