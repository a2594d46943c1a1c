package importer

import (
	"strings"

	"github.com/okaokay/gestionale-energia/internal/models"
	"github.com/okaokay/gestionale-energia/internal/textutil"
)

type ClientKind string

const (
	ClientPrivate  ClientKind = "privato"
	ClientBusiness ClientKind = "azienda"
)

var (
	businessKindTokens = map[string]struct{}{
		"azienda": {}, "aziende": {}, "business": {}, "societa": {}, "impresa": {},
		"giuridica": {}, "pg": {}, "b2b": {}, "partita": {},
	}
	privateKindTokens = map[string]struct{}{
		"privato": {}, "privati": {}, "fisica": {}, "pf": {}, "domestico": {},
		"residenziale": {}, "consumer": {}, "b2c": {},
	}
)

// ParseClientKind reads the free text of a "tipo cliente" column.
// "Persona giuridica" is a business, "persona fisica" a private client.
func ParseClientKind(s string) ClientKind {
	tokens := textutil.Tokens(s)
	for _, tok := range tokens {
		if _, ok := businessKindTokens[tok]; ok {
			return ClientBusiness
		}
	}
	for _, tok := range tokens {
		if _, ok := privateKindTokens[tok]; ok {
			return ClientPrivate
		}
	}
	return ""
}

// Record is a validated row ready to be persisted. Exactly one of the model
// pointers is set, matching Type.
type Record struct {
	Line int
	Type RecordType

	Private     *models.PrivateClient
	Business    *models.BusinessClient
	Electricity *models.ElectricityContract
	Gas         *models.GasContract

	// Client identifies the owner of a contract row.
	Client ClientIdentity
}

// ClientIdentity is what a contract row tells about its client. Private or
// Business is set when the row carries enough data to create the client.
type ClientIdentity struct {
	Kind           ClientKind
	CodiceFiscale  string
	PartitaIVA     string
	Email          string
	Nome           string
	Cognome        string
	RagioneSociale string

	Private  *models.PrivateClient
	Business *models.BusinessClient
}

// Name is the display name used for fuzzy matching.
func (c ClientIdentity) Name() string {
	if c.RagioneSociale != "" && c.Kind != ClientPrivate {
		return c.RagioneSociale
	}
	return strings.TrimSpace(c.Nome + " " + c.Cognome)
}

func (c ClientIdentity) Empty() bool {
	return c.CodiceFiscale == "" && c.PartitaIVA == "" && c.Email == "" && c.Name() == ""
}

func (c ClientIdentity) Creatable() bool {
	return c.Private != nil || c.Business != nil
}

// ContractCode is the POD or PDR of a contract record.
func (r *Record) ContractCode() string {
	switch {
	case r.Electricity != nil:
		return r.Electricity.POD
	case r.Gas != nil:
		return r.Gas.PDR
	}
	return ""
}
