package importer

import (
	"github.com/okaokay/gestionale-energia/internal/httperr"
	"github.com/okaokay/gestionale-energia/internal/textutil"
)

// ===============================
// Record types
// ===============================

type RecordType string

const (
	RecordPrivateClient  RecordType = "cliente_privato"
	RecordBusinessClient RecordType = "cliente_azienda"
	RecordElectricity    RecordType = "contratto_luce"
	RecordGas            RecordType = "contratto_gas"
)

var recordTypeAliases = map[string]RecordType{
	"cliente privato": RecordPrivateClient,
	"privato":         RecordPrivateClient,
	"privati":         RecordPrivateClient,
	"cliente azienda": RecordBusinessClient,
	"azienda":         RecordBusinessClient,
	"aziende":         RecordBusinessClient,
	"business":        RecordBusinessClient,
	"contratto luce":  RecordElectricity,
	"luce":            RecordElectricity,
	"electricity":     RecordElectricity,
	"contratto gas":   RecordGas,
	"gas":             RecordGas,
}

// ParseRecordType accepts the canonical names and a few common aliases.
// An empty string means auto-detection.
func ParseRecordType(s string) (RecordType, error) {
	key := textutil.Fold(s)
	if key == "" {
		return "", nil
	}
	if rt, ok := recordTypeAliases[key]; ok {
		return rt, nil
	}
	return "", httperr.ErrBusiness("invalid_record_type")
}

func (t RecordType) IsContract() bool {
	return t == RecordElectricity || t == RecordGas
}

func (t RecordType) IsClient() bool {
	return t == RecordPrivateClient || t == RecordBusinessClient
}

func (t RecordType) Valid() bool {
	return t.IsClient() || t.IsContract()
}

// Label is the Italian description shown in reports.
func (t RecordType) Label() string {
	switch t {
	case RecordPrivateClient:
		return "Clienti privati"
	case RecordBusinessClient:
		return "Clienti aziende"
	case RecordElectricity:
		return "Contratti luce"
	case RecordGas:
		return "Contratti gas"
	}
	return string(t)
}
