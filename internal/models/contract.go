package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var ErrBothClientLinks = errors.New("contract cannot reference both a private and a business client")

// ClientLink holds the two nullable client references of a contract.
// At most one of them is set.
type ClientLink struct {
	ClientePrivatoID *uint `json:"cliente_privato_id"`
	ClienteAziendaID *uint `json:"cliente_azienda_id"`
}

func (l ClientLink) Valid() bool {
	return l.ClientePrivatoID == nil || l.ClienteAziendaID == nil
}

func (l ClientLink) Linked() bool {
	return l.ClientePrivatoID != nil || l.ClienteAziendaID != nil
}

func PrivateLink(id uint) ClientLink {
	return ClientLink{ClientePrivatoID: &id}
}

func BusinessLink(id uint) ClientLink {
	return ClientLink{ClienteAziendaID: &id}
}

type ElectricityContract struct {
	ID  uint   `gorm:"primaryKey" json:"id"`
	POD string `gorm:"column:pod;size:20;uniqueIndex;not null" json:"pod"`

	ClientePrivatoID *uint           `gorm:"index;check:chk_contratti_luce_link,cliente_privato_id IS NULL OR cliente_azienda_id IS NULL" json:"cliente_privato_id"`
	ClientePrivato   *PrivateClient  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"cliente_privato,omitempty"`
	ClienteAziendaID *uint           `gorm:"index" json:"cliente_azienda_id"`
	ClienteAzienda   *BusinessClient `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"cliente_azienda,omitempty"`

	Fornitore        string              `gorm:"size:100" json:"fornitore"`
	Offerta          string              `gorm:"size:150" json:"offerta"`
	PotenzaImpegnata decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"potenza_impegnata"`
	ConsumoAnnuo     decimal.NullDecimal `gorm:"type:decimal(14,2)" json:"consumo_annuo"`

	DataInizio *time.Time `json:"data_inizio"`
	DataFine   *time.Time `json:"data_fine"`
	Stato      string     `gorm:"size:30;default:'attivo'" json:"stato"`
	Note       string     `gorm:"type:text" json:"note"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ElectricityContract) TableName() string { return "contratti_luce" }

func (c *ElectricityContract) Link() ClientLink {
	return ClientLink{ClientePrivatoID: c.ClientePrivatoID, ClienteAziendaID: c.ClienteAziendaID}
}

func (c *ElectricityContract) SetLink(l ClientLink) {
	c.ClientePrivatoID, c.ClienteAziendaID = l.ClientePrivatoID, l.ClienteAziendaID
}

func (c *ElectricityContract) BeforeSave(tx *gorm.DB) error {
	if !c.Link().Valid() {
		return ErrBothClientLinks
	}
	return nil
}

type GasContract struct {
	ID  uint   `gorm:"primaryKey" json:"id"`
	PDR string `gorm:"column:pdr;size:14;uniqueIndex;not null" json:"pdr"`

	ClientePrivatoID *uint           `gorm:"index;check:chk_contratti_gas_link,cliente_privato_id IS NULL OR cliente_azienda_id IS NULL" json:"cliente_privato_id"`
	ClientePrivato   *PrivateClient  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"cliente_privato,omitempty"`
	ClienteAziendaID *uint           `gorm:"index" json:"cliente_azienda_id"`
	ClienteAzienda   *BusinessClient `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"cliente_azienda,omitempty"`

	Fornitore    string              `gorm:"size:100" json:"fornitore"`
	Offerta      string              `gorm:"size:150" json:"offerta"`
	ConsumoAnnuo decimal.NullDecimal `gorm:"type:decimal(14,2)" json:"consumo_annuo"`

	DataInizio *time.Time `json:"data_inizio"`
	DataFine   *time.Time `json:"data_fine"`
	Stato      string     `gorm:"size:30;default:'attivo'" json:"stato"`
	Note       string     `gorm:"type:text" json:"note"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (GasContract) TableName() string { return "contratti_gas" }

func (c *GasContract) Link() ClientLink {
	return ClientLink{ClientePrivatoID: c.ClientePrivatoID, ClienteAziendaID: c.ClienteAziendaID}
}

func (c *GasContract) SetLink(l ClientLink) {
	c.ClientePrivatoID, c.ClienteAziendaID = l.ClientePrivatoID, l.ClienteAziendaID
}

func (c *GasContract) BeforeSave(tx *gorm.DB) error {
	if !c.Link().Valid() {
		return ErrBothClientLinks
	}
	return nil
}
