package importer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func values(headers []string, cells ...string) Values {
	return MapHeaders(headers).Values(cells)
}

func codes(issues []RowError) []string {
	out := make([]string, len(issues))
	for i, e := range issues {
		out[i] = e.Code
	}
	return out
}

func TestValidate_PrivateClient(t *testing.T) {
	v := NewValidator()
	h := []string{"Nome", "Cognome", "Codice Fiscale", "Email", "CAP", "Provincia", "Data di nascita"}

	rec, issues := v.Validate(context.Background(), RecordPrivateClient, 2,
		values(h, " Mario ", "Rossi", "rssmra80a01h501u", "Mario.Rossi@Example.it", "187", "rm", "01/01/1980"))
	require.NotNil(t, rec)
	assert.Empty(t, issues)

	p := rec.Private
	require.NotNil(t, p)
	assert.Equal(t, "Mario", p.Nome)
	assert.Equal(t, "RSSMRA80A01H501U", p.CodiceFiscale)
	assert.Equal(t, "mario.rossi@example.it", p.Email)
	assert.Equal(t, "00187", p.CAP)
	assert.Equal(t, "RM", p.Provincia)
	require.NotNil(t, p.DataNascita)
	assert.Equal(t, 1980, p.DataNascita.Year())
}

func TestValidate_PrivateClientErrors(t *testing.T) {
	v := NewValidator()
	h := []string{"Nome", "Cognome", "Codice Fiscale", "Email"}

	rec, issues := v.Validate(context.Background(), RecordPrivateClient, 7,
		values(h, "Mario", "", "RSSMRA80A01H501A", "non-una-mail"))
	assert.Nil(t, rec)
	assert.ElementsMatch(t, []string{CodeRequired, CodeInvalidCF, CodeInvalidEmail}, codes(issues))
	for _, e := range issues {
		assert.Equal(t, 7, e.Row)
	}

	byCode := map[string]RowError{}
	for _, e := range issues {
		byCode[e.Code] = e
	}
	assert.Equal(t, SeverityError, byCode[CodeInvalidCF].Severity)
	assert.Equal(t, "RSSMRA80A01H501A", byCode[CodeInvalidCF].Value)
	assert.Equal(t, SeverityWarning, byCode[CodeInvalidEmail].Severity)
}

func TestValidate_PrivateClientRejectsCompanyCF(t *testing.T) {
	v := NewValidator()

	rec, issues := v.Validate(context.Background(), RecordPrivateClient, 2,
		values([]string{"Nome", "Cognome", "CF"}, "Mario", "Rossi", "01234567897"))
	assert.Nil(t, rec)
	assert.Equal(t, []string{CodeInvalidCF}, codes(issues))
}

func TestValidate_BusinessClient(t *testing.T) {
	v := NewValidator()
	h := []string{"Ragione Sociale", "P.IVA", "PEC", "Referente"}

	rec, issues := v.Validate(context.Background(), RecordBusinessClient, 2,
		values(h, "Energia  Futura Srl", "IT01234567897", "ENERGIA@PEC.IT", "Luca Ferrari"))
	require.NotNil(t, rec)
	assert.Empty(t, issues)

	b := rec.Business
	assert.Equal(t, "Energia Futura Srl", b.RagioneSociale)
	assert.Equal(t, "01234567897", b.PartitaIVA)
	assert.Empty(t, b.CodiceFiscale, "a blank column stays blank until the client is created")
	assert.Equal(t, "energia@pec.it", b.PEC)
}

func TestValidate_BusinessClientInvalidPIVA(t *testing.T) {
	v := NewValidator()

	rec, issues := v.Validate(context.Background(), RecordBusinessClient, 3,
		values([]string{"Ragione Sociale", "P.IVA"}, "Acme", "01234567890"))
	assert.Nil(t, rec)
	assert.Equal(t, []string{CodeInvalidPIVA}, codes(issues))
}

func TestValidate_ElectricityContract(t *testing.T) {
	v := NewValidator()
	h := []string{"POD", "Potenza", "Consumo annuo", "Data inizio", "Data fine", "Nome", "Cognome", "Codice Fiscale", "Email"}

	rec, issues := v.Validate(context.Background(), RecordElectricity, 2,
		values(h, "it001e12345678", "3,0", "2.700", "01/02/2024", "31/01/2026", "Mario", "Rossi", "RSSMRA80A01H501U", "mario@example.it"))
	require.NotNil(t, rec)
	assert.Empty(t, issues)

	c := rec.Electricity
	assert.Equal(t, "IT001E12345678", c.POD)
	assert.Equal(t, "3", c.PotenzaImpegnata.Decimal.String())
	assert.Equal(t, "2700", c.ConsumoAnnuo.Decimal.String())
	assert.Empty(t, c.Stato)

	id := rec.Client
	assert.Equal(t, ClientPrivate, id.Kind)
	assert.Equal(t, "RSSMRA80A01H501U", id.CodiceFiscale)
	require.NotNil(t, id.Private)
	assert.Nil(t, id.Business)
	assert.Equal(t, "mario@example.it", id.Private.Email)
	assert.Equal(t, "Mario Rossi", id.Name())
	assert.Equal(t, "IT001E12345678", rec.ContractCode())
}

func TestValidate_ContractErrors(t *testing.T) {
	v := NewValidator()
	h := []string{"POD", "Potenza", "Consumo", "Data inizio", "Data fine"}

	rec, issues := v.Validate(context.Background(), RecordElectricity, 4,
		values(h, "IT001X1", "0", "-10", "01/02/2024", "01/01/2024"))
	assert.Nil(t, rec)
	assert.ElementsMatch(t,
		[]string{CodeInvalidPOD, CodeInvalidPower, CodeNegativeNumber, CodeInvalidDateRange},
		codes(issues))
}

func TestValidate_GasContractBusinessIdentity(t *testing.T) {
	v := NewValidator()
	h := []string{"PDR", "Ragione Sociale", "Partita IVA", "Codice Fiscale", "Data inizio"}

	rec, issues := v.Validate(context.Background(), RecordGas, 5,
		values(h, "881234567890", "Energia Futura Srl", "01234567897", "XXXXXX", "ieri"))
	require.NotNil(t, rec)
	assert.ElementsMatch(t, []string{CodeInvalidCF, CodeInvalidDate}, codes(issues))
	for _, e := range issues {
		assert.Equal(t, SeverityWarning, e.Severity)
	}

	assert.Equal(t, "00881234567890", rec.Gas.PDR)
	assert.Nil(t, rec.Gas.DataInizio)
	assert.Equal(t, ClientBusiness, rec.Client.Kind)
	require.NotNil(t, rec.Client.Business)
	assert.Equal(t, "01234567897", rec.Client.Business.PartitaIVA)
	assert.Equal(t, "Energia Futura Srl", rec.Client.Name())
}

func TestValidate_ContractWithoutIdentity(t *testing.T) {
	v := NewValidator()

	rec, issues := v.Validate(context.Background(), RecordGas, 2,
		values([]string{"PDR", "Fornitore"}, "00881234567890", "Enel"))
	require.NotNil(t, rec)
	assert.Empty(t, issues)
	assert.True(t, rec.Client.Empty())
	assert.False(t, rec.Client.Creatable())
}

func TestValidate_EmailDomainCheck(t *testing.T) {
	v := &Validator{EmailDomainCheck: func(_ context.Context, email string) bool {
		return email != "mario@dominio-inesistente.it"
	}}

	rec, issues := v.Validate(context.Background(), RecordPrivateClient, 2,
		values([]string{"Nome", "Cognome", "CF", "Email"}, "Mario", "Rossi", "RSSMRA80A01H501U", "mario@dominio-inesistente.it"))
	require.NotNil(t, rec)
	assert.Equal(t, []string{CodeEmailDomain}, codes(issues))
}

func TestParseClientKind(t *testing.T) {
	assert.Equal(t, ClientBusiness, ParseClientKind("Persona Giuridica"))
	assert.Equal(t, ClientBusiness, ParseClientKind("AZIENDA"))
	assert.Equal(t, ClientPrivate, ParseClientKind("privato"))
	assert.Equal(t, ClientKind(""), ParseClientKind("altro"))
}
