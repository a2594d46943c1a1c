package models

import (
	"time"

	"gorm.io/gorm"
)

// PrivateClient is a natural person, identified by codice fiscale.
type PrivateClient struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Nome          string `gorm:"size:100;not null" json:"nome"`
	Cognome       string `gorm:"size:100;not null" json:"cognome"`
	CodiceFiscale string `gorm:"size:16;uniqueIndex;not null" json:"codice_fiscale"`

	Email     string `gorm:"size:150;index" json:"email"`
	Telefono  string `gorm:"size:30" json:"telefono"`
	Indirizzo string `gorm:"size:255" json:"indirizzo"`
	Citta     string `gorm:"size:100" json:"citta"`
	CAP       string `gorm:"column:cap;size:5" json:"cap"`
	Provincia string `gorm:"size:2" json:"provincia"`

	DataNascita *time.Time `json:"data_nascita"`
	Note        string     `gorm:"type:text" json:"note"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (PrivateClient) TableName() string { return "clienti_privati" }

// BusinessClient is a company, identified by partita IVA.
type BusinessClient struct {
	ID uint `gorm:"primaryKey" json:"id"`

	RagioneSociale string `gorm:"size:255;not null" json:"ragione_sociale"`
	PartitaIVA     string `gorm:"column:partita_iva;size:11;uniqueIndex;not null" json:"partita_iva"`
	CodiceFiscale  string `gorm:"size:16;index" json:"codice_fiscale"`

	Email     string `gorm:"size:150;index" json:"email"`
	PEC       string `gorm:"column:pec;size:150" json:"pec"`
	Telefono  string `gorm:"size:30" json:"telefono"`
	Indirizzo string `gorm:"size:255" json:"indirizzo"`
	Citta     string `gorm:"size:100" json:"citta"`
	CAP       string `gorm:"column:cap;size:5" json:"cap"`
	Provincia string `gorm:"size:2" json:"provincia"`
	Referente string `gorm:"size:150" json:"referente"`

	Note string `gorm:"type:text" json:"note"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (BusinessClient) TableName() string { return "clienti_aziende" }

// BeforeCreate defaults the codice fiscale of a company to its partita IVA.
// Updates never touch it, so a stored distinct code survives re-imports.
func (b *BusinessClient) BeforeCreate(*gorm.DB) error {
	if b.CodiceFiscale == "" {
		b.CodiceFiscale = b.PartitaIVA
	}
	return nil
}
