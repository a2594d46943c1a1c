package handlers

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/okaokay/gestionale-energia/internal/dto"
	"github.com/okaokay/gestionale-energia/internal/httperr"
	"github.com/okaokay/gestionale-energia/internal/httpresp"
	"github.com/okaokay/gestionale-energia/internal/models"
	"github.com/okaokay/gestionale-energia/internal/report"
)

type ImportLogsHandler struct {
	db *gorm.DB
}

func NewImportLogsHandler(db *gorm.DB) *ImportLogsHandler {
	return &ImportLogsHandler{db: db}
}

func (h *ImportLogsHandler) List(c *gin.Context) {
	p := readPage(c)

	q := h.db.WithContext(c.Request.Context()).Model(&models.ImportLog{})

	if rt := c.Query("record_type"); rt != "" {
		q = q.Where("record_type = ?", rt)
	}
	if st := c.Query("status"); st != "" {
		q = q.Where("status = ?", st)
	}
	if v := c.Query("dry_run"); v != "" {
		q = q.Where("dry_run = ?", boolValue(v))
	}
	from, to := dayRange(c.Query("from"), c.Query("to"))
	if from != nil {
		q = q.Where("created_at >= ?", *from)
	}
	if to != nil {
		q = q.Where("created_at < ?", *to)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		httperr.Internal(c, "import_logs_count_failed", "Errore nel conteggio dei log.")
		return
	}

	var logs []models.ImportLog
	if err := q.
		Order("created_at DESC").
		Limit(p.Limit).
		Offset(p.Offset).
		Find(&logs).Error; err != nil {

		httperr.Internal(c, "import_logs_list_failed", "Errore nel caricamento dei log.")
		return
	}

	out := make([]dto.ImportLogDTO, 0, len(logs))
	for i := range logs {
		d, err := dto.NewImportLogDTO(&logs[i], false)
		if err != nil {
			_ = c.Error(err)
		}
		out = append(out, d)
	}

	httpresp.Page(c, out, p.Page, p.Limit, total)
}

func (h *ImportLogsHandler) Get(c *gin.Context) {
	l, ok := h.load(c)
	if !ok {
		return
	}

	d, err := dto.NewImportLogDTO(l, true)
	if err != nil {
		writeError(c, err, "import_log_corrupted")
		return
	}
	httpresp.OK(c, d)
}

// Errors exports the row issues as csv (default), xlsx or json.
func (h *ImportLogsHandler) Errors(c *gin.Context) {
	l, ok := h.load(c)
	if !ok {
		return
	}

	issues, err := report.FromImportLog(l)
	if err != nil {
		writeError(c, err, "import_log_corrupted")
		return
	}

	base := fmt.Sprintf("import_%d_errori", l.ID)

	switch c.DefaultQuery("format", "csv") {
	case "csv":
		c.Header("Content-Disposition", `attachment; filename="`+base+`.csv"`)
		c.Header("Content-Type", "text/csv; charset=utf-8")
		if err := report.WriteCSV(c.Writer, issues); err != nil {
			_ = c.Error(err)
		}
	case "xlsx":
		c.Header("Content-Disposition", `attachment; filename="`+base+`.xlsx"`)
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		if err := report.WriteXLSX(c.Writer, issues); err != nil {
			_ = c.Error(err)
		}
	case "json":
		httpresp.List(c, issues)
	default:
		httperr.BadRequest(c, "invalid_format", "Formato non valido: csv, xlsx o json.")
	}
}

func (h *ImportLogsHandler) load(c *gin.Context) (*models.ImportLog, bool) {
	id, ok := idParam(c)
	if !ok {
		return nil, false
	}

	var l models.ImportLog
	err := h.db.WithContext(c.Request.Context()).First(&l, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		httperr.NotFound(c, "import_log_not_found", "Log di importazione non trovato.")
		return nil, false
	}
	if err != nil {
		httperr.Internal(c, "import_log_failed", "Errore nel caricamento del log.")
		return nil, false
	}
	return &l, true
}
