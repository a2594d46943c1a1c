package importer

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/okaokay/gestionale-energia/internal/models"
)

// Merging copies the non empty values of an incoming row over the stored
// record. Blank cells never clear stored data.

func mergeString(dst *string, src string, changed *bool) {
	if src != "" && *dst != src {
		*dst = src
		*changed = true
	}
}

func mergeDate(dst **time.Time, src *time.Time, changed *bool) {
	if src == nil {
		return
	}
	if *dst == nil || !(*dst).Equal(*src) {
		t := *src
		*dst = &t
		*changed = true
	}
}

func mergeDecimal(dst *decimal.NullDecimal, src decimal.NullDecimal, changed *bool) {
	if !src.Valid {
		return
	}
	if !dst.Valid || !dst.Decimal.Equal(src.Decimal) {
		*dst = src
		*changed = true
	}
}

func mergePrivate(dst, src *models.PrivateClient) bool {
	var changed bool
	mergeString(&dst.Nome, src.Nome, &changed)
	mergeString(&dst.Cognome, src.Cognome, &changed)
	mergeString(&dst.Email, src.Email, &changed)
	mergeString(&dst.Telefono, src.Telefono, &changed)
	mergeString(&dst.Indirizzo, src.Indirizzo, &changed)
	mergeString(&dst.Citta, src.Citta, &changed)
	mergeString(&dst.CAP, src.CAP, &changed)
	mergeString(&dst.Provincia, src.Provincia, &changed)
	mergeString(&dst.Note, src.Note, &changed)
	mergeDate(&dst.DataNascita, src.DataNascita, &changed)
	return changed
}

func mergeBusiness(dst, src *models.BusinessClient) bool {
	var changed bool
	mergeString(&dst.RagioneSociale, src.RagioneSociale, &changed)
	mergeString(&dst.CodiceFiscale, src.CodiceFiscale, &changed)
	mergeString(&dst.Email, src.Email, &changed)
	mergeString(&dst.PEC, src.PEC, &changed)
	mergeString(&dst.Telefono, src.Telefono, &changed)
	mergeString(&dst.Indirizzo, src.Indirizzo, &changed)
	mergeString(&dst.Citta, src.Citta, &changed)
	mergeString(&dst.CAP, src.CAP, &changed)
	mergeString(&dst.Provincia, src.Provincia, &changed)
	mergeString(&dst.Referente, src.Referente, &changed)
	mergeString(&dst.Note, src.Note, &changed)
	return changed
}

func mergeElectricity(dst, src *models.ElectricityContract) bool {
	var changed bool
	mergeString(&dst.Fornitore, src.Fornitore, &changed)
	mergeString(&dst.Offerta, src.Offerta, &changed)
	mergeDecimal(&dst.PotenzaImpegnata, src.PotenzaImpegnata, &changed)
	mergeDecimal(&dst.ConsumoAnnuo, src.ConsumoAnnuo, &changed)
	mergeDate(&dst.DataInizio, src.DataInizio, &changed)
	mergeDate(&dst.DataFine, src.DataFine, &changed)
	mergeString(&dst.Stato, src.Stato, &changed)
	mergeString(&dst.Note, src.Note, &changed)
	return changed
}

func mergeGas(dst, src *models.GasContract) bool {
	var changed bool
	mergeString(&dst.Fornitore, src.Fornitore, &changed)
	mergeString(&dst.Offerta, src.Offerta, &changed)
	mergeDecimal(&dst.ConsumoAnnuo, src.ConsumoAnnuo, &changed)
	mergeDate(&dst.DataInizio, src.DataInizio, &changed)
	mergeDate(&dst.DataFine, src.DataFine, &changed)
	mergeString(&dst.Stato, src.Stato, &changed)
	mergeString(&dst.Note, src.Note, &changed)
	return changed
}
