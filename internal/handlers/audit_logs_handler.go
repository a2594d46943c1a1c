package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/okaokay/gestionale-energia/internal/httperr"
	"github.com/okaokay/gestionale-energia/internal/httpresp"
	"github.com/okaokay/gestionale-energia/internal/models"
)

// ======================================================
// HANDLER
// ======================================================

type AuditLogsHandler struct {
	db *gorm.DB
}

func NewAuditLogsHandler(db *gorm.DB) *AuditLogsHandler {
	return &AuditLogsHandler{db: db}
}

func (h *AuditLogsHandler) List(c *gin.Context) {
	p := readPage(c)

	q := h.db.WithContext(c.Request.Context()).Model(&models.AuditLog{})

	// --------------------------------------------------
	// Filtri opzionali
	// --------------------------------------------------

	if action := c.Query("action"); action != "" {
		q = q.Where("action = ?", action)
	}
	if entity := c.Query("entity"); entity != "" {
		q = q.Where("entity = ?", entity)
	}
	from, to := dayRange(c.Query("from"), c.Query("to"))
	if from != nil {
		q = q.Where("created_at >= ?", *from)
	}
	if to != nil {
		q = q.Where("created_at < ?", *to)
	}

	// --------------------------------------------------
	// Totale
	// --------------------------------------------------

	var total int64
	if err := q.Count(&total).Error; err != nil {
		httperr.Internal(c, "audit_count_failed", "Errore nel conteggio dei log.")
		return
	}

	// --------------------------------------------------
	// Elenco
	// --------------------------------------------------

	var logs []models.AuditLog
	if err := q.
		Order("created_at DESC").
		Limit(p.Limit).
		Offset(p.Offset).
		Find(&logs).Error; err != nil {

		httperr.Internal(c, "audit_list_failed", "Errore nel caricamento dei log.")
		return
	}

	httpresp.Page(c, logs, p.Page, p.Limit, total)
}
