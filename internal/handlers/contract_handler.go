package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/okaokay/gestionale-energia/internal/audit"
	"github.com/okaokay/gestionale-energia/internal/dto"
	"github.com/okaokay/gestionale-energia/internal/httperr"
	"github.com/okaokay/gestionale-energia/internal/httpresp"
	"github.com/okaokay/gestionale-energia/internal/models"
)

type ContractHandler struct {
	db    *gorm.DB
	audit *audit.Dispatcher
}

func NewContractHandler(db *gorm.DB, audit *audit.Dispatcher) *ContractHandler {
	return &ContractHandler{db: db, audit: audit}
}

// ======================================================
// ELECTRICITY
// ======================================================

func (h *ContractHandler) ListElectricity(c *gin.Context) {
	listContracts(c, h.db, "pod", dto.NewElectricityDTO)
}

func (h *ContractHandler) GetElectricity(c *gin.Context) {
	getContract[models.ElectricityContract](c, h.db)
}

func (h *ContractHandler) DeleteElectricity(c *gin.Context) {
	h.delete(c, &models.ElectricityContract{}, "contratto_luce")
}

// ======================================================
// GAS
// ======================================================

func (h *ContractHandler) ListGas(c *gin.Context) {
	listContracts(c, h.db, "pdr", dto.NewGasDTO)
}

func (h *ContractHandler) GetGas(c *gin.Context) {
	getContract[models.GasContract](c, h.db)
}

func (h *ContractHandler) DeleteGas(c *gin.Context) {
	h.delete(c, &models.GasContract{}, "contratto_gas")
}

// ======================================================
// SHARED
// ======================================================

// listContracts applies the filters q, client_type, client_id, unlinked
// and stato.
func listContracts[T any](c *gin.Context, db *gorm.DB, codeColumn string, toDTO func(*T) dto.ContractDTO) {
	p := readPage(c)
	q := db.WithContext(c.Request.Context()).Model(new(T))

	if like := likePattern(c.Query("q")); like != "" {
		q = q.Where(
			"LOWER("+codeColumn+") LIKE ? OR LOWER(fornitore) LIKE ? OR LOWER(offerta) LIKE ?",
			like, like, like,
		)
	}

	clientType := c.Query("client_type")
	switch clientType {
	case "":
	case "privato":
		q = q.Where("cliente_privato_id IS NOT NULL")
	case "azienda":
		q = q.Where("cliente_azienda_id IS NOT NULL")
	default:
		httperr.BadRequest(c, "invalid_client_type", "client_type deve essere privato o azienda.")
		return
	}

	if raw := c.Query("client_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			httperr.BadRequest(c, "invalid_client_id", "client_id non valido.")
			return
		}
		switch clientType {
		case "privato":
			q = q.Where("cliente_privato_id = ?", id)
		case "azienda":
			q = q.Where("cliente_azienda_id = ?", id)
		default:
			q = q.Where("cliente_privato_id = ? OR cliente_azienda_id = ?", id, id)
		}
	}

	if boolValue(c.Query("unlinked")) {
		q = q.Where("cliente_privato_id IS NULL AND cliente_azienda_id IS NULL")
	}
	if stato := c.Query("stato"); stato != "" {
		q = q.Where("stato = ?", stato)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		httperr.Internal(c, "contracts_count_failed", "Errore nel conteggio dei contratti.")
		return
	}

	var items []T
	if err := q.
		Preload("ClientePrivato").
		Preload("ClienteAzienda").
		Order("id DESC").
		Limit(p.Limit).
		Offset(p.Offset).
		Find(&items).Error; err != nil {

		httperr.Internal(c, "contracts_list_failed", "Errore nel caricamento dei contratti.")
		return
	}

	out := make([]dto.ContractDTO, 0, len(items))
	for i := range items {
		out = append(out, toDTO(&items[i]))
	}
	httpresp.Page(c, out, p.Page, p.Limit, total)
}

func getContract[T any](c *gin.Context, db *gorm.DB) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var item T
	err := db.WithContext(c.Request.Context()).
		Preload("ClientePrivato").
		Preload("ClienteAzienda").
		First(&item, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		httperr.NotFound(c, "contract_not_found", "Contratto non trovato.")
		return
	}
	if err != nil {
		httperr.Internal(c, "contract_load_failed", "Errore nel caricamento del contratto.")
		return
	}
	httpresp.OK(c, item)
}

func (h *ContractHandler) delete(c *gin.Context, model any, entity string) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	res := h.db.WithContext(c.Request.Context()).Delete(model, id)
	if res.Error != nil {
		httperr.Internal(c, "contract_delete_failed", "Errore nell'eliminazione del contratto.")
		return
	}
	if res.RowsAffected == 0 {
		httperr.NotFound(c, "contract_not_found", "Contratto non trovato.")
		return
	}

	writeAudit(h.audit, c, "contract_deleted", entity, id, nil)
	httpresp.OK(c, gin.H{"deleted": true})
}
