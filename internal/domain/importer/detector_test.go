package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okaokay/gestionale-energia/internal/httperr"
)

func TestMatchField(t *testing.T) {
	tests := map[string]Field{
		"Codice Fiscale":         FieldCodiceFiscale,
		"C.F.":                   FieldCodiceFiscale,
		"CF Cliente":             FieldCodiceFiscale,
		"P.IVA":                  FieldPartitaIVA,
		"Partita IVA":            FieldPartitaIVA,
		"Ragione Sociale":        FieldRagioneSociale,
		"Nome Azienda":           FieldRagioneSociale,
		"E-mail":                 FieldEmail,
		"Indirizzo Email":        FieldEmail,
		"Indirizzo PEC":          FieldPEC,
		"Città":                  FieldCitta,
		"Prov.":                  FieldProvincia,
		"Data di Nascita":        FieldDataNascita,
		"Codice POD":             FieldPOD,
		"PDR":                    FieldPDR,
		"Potenza Impegnata (kW)": FieldPotenzaImpegnata,
		"Consumo annuo kWh":      FieldConsumoAnnuo,
		"Data Inizio Fornitura":  FieldDataInizio,
		"Scadenza":               FieldDataFine,
		"Tipo Cliente":           FieldTipoCliente,
		"Nome Referente":         FieldReferente,
		"Nome":                   FieldNome,
		"cognome":                FieldCognome,
	}
	for header, want := range tests {
		got, ok := MatchField(header)
		assert.True(t, ok, header)
		assert.Equal(t, want, got, header)
	}

	_, ok := MatchField("Colonna misteriosa")
	assert.False(t, ok)
}

func TestMapHeaders_FirstColumnWins(t *testing.T) {
	m := MapHeaders([]string{"Email", "Nome", "Mail", "Boh"})

	assert.Equal(t, 0, m.Columns[FieldEmail])
	assert.Equal(t, 1, m.Columns[FieldNome])
	assert.Equal(t, []string{"Mail", "Boh"}, m.Unmapped)
	assert.Equal(t, []Field{FieldEmail, FieldNome}, m.Fields())
}

func TestMapping_Values(t *testing.T) {
	m := MapHeaders([]string{"Nome", "Cognome", "Email"})
	v := m.Values([]string{" Mario ", ""})

	assert.Equal(t, "Mario", v.Get(FieldNome))
	assert.Equal(t, "", v.Get(FieldCognome))
	assert.Equal(t, "", v.Get(FieldEmail))
}

func TestDetect(t *testing.T) {
	d := NewDetector(DefaultConfidenceThreshold)

	tests := []struct {
		name    string
		headers []string
		want    RecordType
	}{
		{"private clients", []string{"Nome", "Cognome", "Codice Fiscale", "Email", "Telefono"}, RecordPrivateClient},
		{"business clients", []string{"Ragione Sociale", "Partita IVA", "PEC", "Referente"}, RecordBusinessClient},
		{"electricity with client", []string{"POD", "Nome", "Cognome", "Codice Fiscale", "Fornitore", "Potenza"}, RecordElectricity},
		{"gas with company", []string{"PDR", "Ragione Sociale", "P.IVA", "Consumo annuo Smc"}, RecordGas},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			det, err := d.Detect(tt.headers)
			require.NoError(t, err)
			assert.Equal(t, tt.want, det.Type)
			assert.GreaterOrEqual(t, det.Confidence, DefaultConfidenceThreshold)
			assert.Len(t, det.Scores, len(Profiles))
			for rt, s := range det.Scores {
				assert.LessOrEqual(t, s, det.Confidence, rt)
			}
		})
	}
}

func TestDetect_LowConfidence(t *testing.T) {
	d := NewDetector(DefaultConfidenceThreshold)

	det, err := d.Detect([]string{"Colonna A", "Email", "Telefono"})
	require.Error(t, err)
	assert.True(t, httperr.IsBusiness(err, "record_type_not_detected"))
	require.NotNil(t, det)
	assert.Empty(t, det.Type)
	assert.Len(t, det.Scores, len(Profiles))
}

func TestDetect_ConflictHalvesScore(t *testing.T) {
	base := MapHeaders([]string{"Nome", "Cognome", "Codice Fiscale"})
	conflict := MapHeaders([]string{"Nome", "Cognome", "Codice Fiscale", "POD"})

	p, _ := ProfileFor(RecordPrivateClient)
	assert.InDelta(t, p.Score(base)/2, p.Score(conflict), 1e-9)
}

func TestDetect_PartialRequiredReportsMissing(t *testing.T) {
	d := NewDetector(0.3)

	det, err := d.Detect([]string{"Nome", "Cognome", "Email", "Data di nascita"})
	require.Error(t, err)
	assert.True(t, httperr.IsBusiness(err, "missing_required_columns"))
	assert.Equal(t, RecordPrivateClient, det.Type)
	assert.Equal(t, []Field{FieldCodiceFiscale}, det.Missing)
}

func TestForce(t *testing.T) {
	d := NewDetector(DefaultConfidenceThreshold)

	det, err := d.Force([]string{"POD", "Email"}, RecordElectricity)
	require.NoError(t, err)
	assert.True(t, det.Forced)
	assert.Equal(t, RecordElectricity, det.Type)

	_, err = d.Force([]string{"Email"}, RecordGas)
	assert.True(t, httperr.IsBusiness(err, "missing_required_columns"))
	assert.Contains(t, err.Error(), "pdr")

	_, err = d.Force([]string{"Email"}, RecordType("boh"))
	assert.True(t, httperr.IsBusiness(err, "invalid_record_type"))
}

func TestParseRecordType(t *testing.T) {
	for in, want := range map[string]RecordType{
		"contratto_luce":  RecordElectricity,
		"Luce":            RecordElectricity,
		"gas":             RecordGas,
		"cliente_azienda": RecordBusinessClient,
		"privati":         RecordPrivateClient,
		"":                "",
	} {
		got, err := ParseRecordType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseRecordType("acqua")
	assert.True(t, httperr.IsBusiness(err, "invalid_record_type"))
}
