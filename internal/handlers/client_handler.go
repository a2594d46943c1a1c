package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/okaokay/gestionale-energia/internal/audit"
	"github.com/okaokay/gestionale-energia/internal/httperr"
	"github.com/okaokay/gestionale-energia/internal/httpresp"
	"github.com/okaokay/gestionale-energia/internal/models"
)

type ClientHandler struct {
	db    *gorm.DB
	audit *audit.Dispatcher
}

func NewClientHandler(db *gorm.DB, audit *audit.Dispatcher) *ClientHandler {
	return &ClientHandler{db: db, audit: audit}
}

// ======================================================
// PRIVATE CLIENTS
// ======================================================

func (h *ClientHandler) ListPrivate(c *gin.Context) {
	p := readPage(c)
	q := h.db.WithContext(c.Request.Context()).Model(&models.PrivateClient{})

	if like := likePattern(c.Query("q")); like != "" {
		q = q.Where(
			"LOWER(nome) LIKE ? OR LOWER(cognome) LIKE ? OR LOWER(codice_fiscale) LIKE ? OR LOWER(email) LIKE ?",
			like, like, like, like,
		)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		httperr.Internal(c, "clients_count_failed", "Errore nel conteggio dei clienti.")
		return
	}

	var clients []models.PrivateClient
	if err := q.
		Order("cognome, nome").
		Limit(p.Limit).
		Offset(p.Offset).
		Find(&clients).Error; err != nil {

		httperr.Internal(c, "clients_list_failed", "Errore nel caricamento dei clienti.")
		return
	}

	httpresp.Page(c, clients, p.Page, p.Limit, total)
}

func (h *ClientHandler) GetPrivate(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var client models.PrivateClient
	if !h.first(c, &client, id) {
		return
	}

	var luce []models.ElectricityContract
	var gas []models.GasContract
	db := h.db.WithContext(c.Request.Context())
	if err := db.Where("cliente_privato_id = ?", id).Find(&luce).Error; err != nil {
		httperr.Internal(c, "client_contracts_failed", "Errore nel caricamento dei contratti.")
		return
	}
	if err := db.Where("cliente_privato_id = ?", id).Find(&gas).Error; err != nil {
		httperr.Internal(c, "client_contracts_failed", "Errore nel caricamento dei contratti.")
		return
	}

	httpresp.OK(c, gin.H{
		"cliente":          client,
		"contratti_luce":   luce,
		"contratti_gas":    gas,
		"totale_contratti": len(luce) + len(gas),
	})
}

func (h *ClientHandler) DeletePrivate(c *gin.Context) {
	h.delete(c, &models.PrivateClient{}, "cliente_privato_id", "cliente_privato")
}

// ======================================================
// BUSINESS CLIENTS
// ======================================================

func (h *ClientHandler) ListBusiness(c *gin.Context) {
	p := readPage(c)
	q := h.db.WithContext(c.Request.Context()).Model(&models.BusinessClient{})

	if like := likePattern(c.Query("q")); like != "" {
		q = q.Where(
			"LOWER(ragione_sociale) LIKE ? OR partita_iva LIKE ? OR LOWER(email) LIKE ? OR LOWER(pec) LIKE ?",
			like, like, like, like,
		)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		httperr.Internal(c, "clients_count_failed", "Errore nel conteggio dei clienti.")
		return
	}

	var clients []models.BusinessClient
	if err := q.
		Order("ragione_sociale").
		Limit(p.Limit).
		Offset(p.Offset).
		Find(&clients).Error; err != nil {

		httperr.Internal(c, "clients_list_failed", "Errore nel caricamento dei clienti.")
		return
	}

	httpresp.Page(c, clients, p.Page, p.Limit, total)
}

func (h *ClientHandler) GetBusiness(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var client models.BusinessClient
	if !h.first(c, &client, id) {
		return
	}

	var luce []models.ElectricityContract
	var gas []models.GasContract
	db := h.db.WithContext(c.Request.Context())
	if err := db.Where("cliente_azienda_id = ?", id).Find(&luce).Error; err != nil {
		httperr.Internal(c, "client_contracts_failed", "Errore nel caricamento dei contratti.")
		return
	}
	if err := db.Where("cliente_azienda_id = ?", id).Find(&gas).Error; err != nil {
		httperr.Internal(c, "client_contracts_failed", "Errore nel caricamento dei contratti.")
		return
	}

	httpresp.OK(c, gin.H{
		"cliente":          client,
		"contratti_luce":   luce,
		"contratti_gas":    gas,
		"totale_contratti": len(luce) + len(gas),
	})
}

func (h *ClientHandler) DeleteBusiness(c *gin.Context) {
	h.delete(c, &models.BusinessClient{}, "cliente_azienda_id", "cliente_azienda")
}

// ======================================================
// SHARED
// ======================================================

func (h *ClientHandler) first(c *gin.Context, dst any, id uint) bool {
	err := h.db.WithContext(c.Request.Context()).First(dst, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		httperr.NotFound(c, "client_not_found", "Cliente non trovato.")
		return false
	}
	if err != nil {
		httperr.Internal(c, "client_load_failed", "Errore nel caricamento del cliente.")
		return false
	}
	return true
}

// delete removes the client and its contracts in one transaction.
func (h *ClientHandler) delete(c *gin.Context, model any, fkColumn, entity string) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var luce, gas int64
	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		res := tx.Where(fkColumn+" = ?", id).Delete(&models.ElectricityContract{})
		if res.Error != nil {
			return res.Error
		}
		luce = res.RowsAffected

		res = tx.Where(fkColumn+" = ?", id).Delete(&models.GasContract{})
		if res.Error != nil {
			return res.Error
		}
		gas = res.RowsAffected

		res = tx.Delete(model, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		httperr.NotFound(c, "client_not_found", "Cliente non trovato.")
		return
	}
	if err != nil {
		httperr.Internal(c, "client_delete_failed", "Errore nell'eliminazione del cliente.")
		return
	}

	writeAudit(h.audit, c, "client_deleted", entity, id, map[string]any{
		"contratti_luce": luce,
		"contratti_gas":  gas,
	})

	httpresp.OK(c, gin.H{
		"deleted":                true,
		"contratti_luce_rimossi": luce,
		"contratti_gas_rimossi":  gas,
	})
}
