package importer

import (
	"strings"

	"github.com/okaokay/gestionale-energia/internal/httperr"
)

const DefaultConfidenceThreshold = 0.5

const (
	requiredWeight = 0.6
	optionalWeight = 0.2
	weightedWeight = 0.2
	conflictFactor = 0.5
)

// Profile describes which columns characterize a record type.
type Profile struct {
	Type        RecordType
	Required    []Field
	Optional    []Field
	Weighted    map[Field]float64
	Conflicting []Field
}

var contractOptional = []Field{
	FieldFornitore, FieldOfferta, FieldDataInizio, FieldDataFine, FieldStato, FieldNote,
	FieldCodiceFiscale, FieldPartitaIVA, FieldEmail, FieldNome, FieldCognome, FieldRagioneSociale,
	FieldTipoCliente, FieldConsumoAnnuo,
}

// Profiles are evaluated in this order; on equal scores the earlier wins.
var Profiles = []Profile{
	{
		Type:        RecordElectricity,
		Required:    []Field{FieldPOD},
		Optional:    append([]Field{FieldPotenzaImpegnata}, contractOptional...),
		Weighted:    map[Field]float64{FieldPOD: 3, FieldPotenzaImpegnata: 2, FieldConsumoAnnuo: 1},
		Conflicting: []Field{FieldPDR},
	},
	{
		Type:        RecordGas,
		Required:    []Field{FieldPDR},
		Optional:    contractOptional,
		Weighted:    map[Field]float64{FieldPDR: 3, FieldConsumoAnnuo: 1},
		Conflicting: []Field{FieldPOD, FieldPotenzaImpegnata},
	},
	{
		Type:     RecordBusinessClient,
		Required: []Field{FieldRagioneSociale, FieldPartitaIVA},
		Optional: []Field{
			FieldCodiceFiscale, FieldEmail, FieldPEC, FieldTelefono, FieldIndirizzo,
			FieldCitta, FieldCAP, FieldProvincia, FieldReferente, FieldNote,
		},
		Weighted:    map[Field]float64{FieldPartitaIVA: 2, FieldRagioneSociale: 2, FieldPEC: 1, FieldReferente: 1},
		Conflicting: []Field{FieldPOD, FieldPDR, FieldDataNascita},
	},
	{
		Type:     RecordPrivateClient,
		Required: []Field{FieldNome, FieldCognome, FieldCodiceFiscale},
		Optional: []Field{
			FieldEmail, FieldTelefono, FieldIndirizzo, FieldCitta, FieldCAP,
			FieldProvincia, FieldDataNascita, FieldNote,
		},
		Weighted:    map[Field]float64{FieldCodiceFiscale: 2, FieldCognome: 2, FieldDataNascita: 1},
		Conflicting: []Field{FieldPOD, FieldPDR, FieldPartitaIVA, FieldRagioneSociale},
	},
}

func ProfileFor(t RecordType) (Profile, bool) {
	for _, p := range Profiles {
		if p.Type == t {
			return p, true
		}
	}
	return Profile{}, false
}

// Score rates how well a header mapping fits the profile, in [0,1].
func (p Profile) Score(m Mapping) float64 {
	score := requiredWeight*ratio(m, p.Required) + optionalWeight*ratio(m, p.Optional)

	var total, matched float64
	for f, w := range p.Weighted {
		total += w
		if m.Has(f) {
			matched += w
		}
	}
	if total > 0 {
		score += weightedWeight * matched / total
	}

	for _, f := range p.Conflicting {
		if m.Has(f) {
			score *= conflictFactor
		}
	}
	return score
}

// Missing lists the required fields absent from the mapping.
func (p Profile) Missing(m Mapping) []Field {
	var out []Field
	for _, f := range p.Required {
		if !m.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

func ratio(m Mapping, fields []Field) float64 {
	if len(fields) == 0 {
		return 0
	}
	n := 0
	for _, f := range fields {
		if m.Has(f) {
			n++
		}
	}
	return float64(n) / float64(len(fields))
}

// ===============================
// Detector
// ===============================

type Detection struct {
	Type       RecordType             `json:"record_type"`
	Confidence float64                `json:"confidence"`
	Forced     bool                   `json:"forced"`
	Scores     map[RecordType]float64 `json:"scores"`
	Missing    []Field                `json:"missing_required,omitempty"`
	Mapping    Mapping                `json:"-"`
}

type Detector struct {
	threshold float64
}

func NewDetector(threshold float64) *Detector {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultConfidenceThreshold
	}
	return &Detector{threshold: threshold}
}

func (d *Detector) Threshold() float64 {
	return d.threshold
}

// Detect picks the best scoring record type for the headers. On failure the
// returned Detection still carries every score.
func (d *Detector) Detect(headers []string) (*Detection, error) {
	m := MapHeaders(headers)
	det := &Detection{
		Scores:  make(map[RecordType]float64, len(Profiles)),
		Mapping: m,
	}

	var best *Profile
	for i := range Profiles {
		p := &Profiles[i]
		s := p.Score(m)
		det.Scores[p.Type] = s
		if best == nil || s > det.Confidence {
			best = p
			det.Confidence = s
		}
	}

	if best == nil || det.Confidence < d.threshold {
		return det, httperr.ErrBusiness("record_type_not_detected")
	}

	det.Type = best.Type
	if missing := best.Missing(m); len(missing) > 0 {
		det.Missing = missing
		return det, missingColumnsError(missing)
	}
	return det, nil
}

// Force skips scoring but still requires the profile columns.
func (d *Detector) Force(headers []string, t RecordType) (*Detection, error) {
	p, ok := ProfileFor(t)
	if !ok {
		return nil, httperr.ErrBusiness("invalid_record_type")
	}

	m := MapHeaders(headers)
	det := &Detection{
		Type:       t,
		Confidence: 1,
		Forced:     true,
		Scores:     map[RecordType]float64{t: p.Score(m)},
		Mapping:    m,
	}
	if missing := p.Missing(m); len(missing) > 0 {
		det.Missing = missing
		return det, missingColumnsError(missing)
	}
	return det, nil
}

func missingColumnsError(missing []Field) error {
	names := make([]string, len(missing))
	for i, f := range missing {
		names[i] = string(f)
	}
	return httperr.ErrBusinessDetail("missing_required_columns", strings.Join(names, ", "))
}
