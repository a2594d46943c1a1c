package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/okaokay/gestionale-energia/internal/models"
)

// ContractDTO is the list shape shared by electricity and gas contracts.
type ContractDTO struct {
	ID        uint   `json:"id"`
	Code      string `json:"code"`
	Kind      string `json:"kind"`
	Stato     string `json:"stato"`
	Fornitore string `json:"fornitore"`
	Offerta   string `json:"offerta"`

	PotenzaImpegnata decimal.NullDecimal `json:"potenza_impegnata,omitempty"`
	ConsumoAnnuo     decimal.NullDecimal `json:"consumo_annuo"`

	DataInizio *time.Time `json:"data_inizio"`
	DataFine   *time.Time `json:"data_fine"`

	ClientType string `json:"client_type,omitempty"`
	ClientID   *uint  `json:"client_id,omitempty"`
	ClientName string `json:"client_name,omitempty"`
}

func clientFields(l models.ClientLink, p *models.PrivateClient, b *models.BusinessClient) (string, *uint, string) {
	switch {
	case l.ClientePrivatoID != nil:
		name := ""
		if p != nil {
			name = p.Nome + " " + p.Cognome
		}
		return "privato", l.ClientePrivatoID, name
	case l.ClienteAziendaID != nil:
		name := ""
		if b != nil {
			name = b.RagioneSociale
		}
		return "azienda", l.ClienteAziendaID, name
	}
	return "", nil, ""
}

func NewElectricityDTO(c *models.ElectricityContract) ContractDTO {
	out := ContractDTO{
		ID:               c.ID,
		Code:             c.POD,
		Kind:             "luce",
		Stato:            c.Stato,
		Fornitore:        c.Fornitore,
		Offerta:          c.Offerta,
		PotenzaImpegnata: c.PotenzaImpegnata,
		ConsumoAnnuo:     c.ConsumoAnnuo,
		DataInizio:       c.DataInizio,
		DataFine:         c.DataFine,
	}
	out.ClientType, out.ClientID, out.ClientName = clientFields(c.Link(), c.ClientePrivato, c.ClienteAzienda)
	return out
}

func NewGasDTO(c *models.GasContract) ContractDTO {
	out := ContractDTO{
		ID:           c.ID,
		Code:         c.PDR,
		Kind:         "gas",
		Stato:        c.Stato,
		Fornitore:    c.Fornitore,
		Offerta:      c.Offerta,
		ConsumoAnnuo: c.ConsumoAnnuo,
		DataInizio:   c.DataInizio,
		DataFine:     c.DataFine,
	}
	out.ClientType, out.ClientID, out.ClientName = clientFields(c.Link(), c.ClientePrivato, c.ClienteAzienda)
	return out
}
