package importer

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/okaokay/gestionale-energia/internal/models"
	"github.com/okaokay/gestionale-energia/internal/validators"
)

// Validator turns mapped row values into records.
type Validator struct {
	// EmailDomainCheck, when set, is asked whether an email domain exists.
	EmailDomainCheck func(ctx context.Context, email string) bool
}

func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks one row. The record is nil when any issue has error
// severity; warnings never fail the row.
func (v *Validator) Validate(ctx context.Context, t RecordType, line int, vals Values) (*Record, []RowError) {
	return v.ValidateFormat(ctx, t, line, vals, NumbersItalian)
}

// ValidateFormat is Validate for cells whose numbers follow nf.
func (v *Validator) ValidateFormat(ctx context.Context, t RecordType, line int, vals Values, nf NumberFormat) (*Record, []RowError) {
	c := &rowCheck{ctx: ctx, line: line, values: vals, numbers: nf, domainCheck: v.EmailDomainCheck}
	rec := &Record{Line: line, Type: t}

	switch t {
	case RecordPrivateClient:
		rec.Private = c.privateClient(true)
	case RecordBusinessClient:
		rec.Business = c.businessClient(true)
	case RecordElectricity:
		rec.Electricity = c.electricityContract()
		rec.Client = c.clientIdentity()
	case RecordGas:
		rec.Gas = c.gasContract()
		rec.Client = c.clientIdentity()
	}

	if HasErrors(c.issues) {
		return nil, c.issues
	}
	return rec, c.issues
}

// ===============================
// Row checks
// ===============================

type rowCheck struct {
	ctx         context.Context
	line        int
	values      Values
	numbers     NumberFormat
	domainCheck func(ctx context.Context, email string) bool
	issues      []RowError
}

func (c *rowCheck) add(sev Severity, f Field, code, msg string) {
	c.issues = append(c.issues, RowError{
		Row:      c.line,
		Field:    string(f),
		Code:     code,
		Message:  msg,
		Value:    c.values.Get(f),
		Severity: sev,
	})
}

func (c *rowCheck) fail(f Field, code, msg string) { c.add(SeverityError, f, code, msg) }
func (c *rowCheck) warn(f Field, code, msg string) { c.add(SeverityWarning, f, code, msg) }

func (c *rowCheck) required(f Field) string {
	s := c.values.Get(f)
	if s == "" {
		c.fail(f, CodeRequired, "campo obbligatorio mancante")
	}
	return s
}

// name returns the whitespace-collapsed text of a field.
func (c *rowCheck) name(f Field, required bool) string {
	if required {
		return NormalizeName(c.required(f))
	}
	return NormalizeName(c.values.Get(f))
}

func (c *rowCheck) codiceFiscale(required bool) string {
	raw := c.values.Get(FieldCodiceFiscale)
	if raw == "" {
		if required {
			c.fail(FieldCodiceFiscale, CodeRequired, "campo obbligatorio mancante")
		}
		return ""
	}
	cf := NormalizeCodiceFiscale(raw)
	if !ValidCodiceFiscale(cf) {
		c.issue(required, FieldCodiceFiscale, CodeInvalidCF, "codice fiscale non valido")
		return ""
	}
	return cf
}

func (c *rowCheck) partitaIVA(required bool) string {
	raw := c.values.Get(FieldPartitaIVA)
	if raw == "" {
		if required {
			c.fail(FieldPartitaIVA, CodeRequired, "campo obbligatorio mancante")
		}
		return ""
	}
	piva := NormalizePartitaIVA(raw)
	if !ValidPartitaIVA(piva) {
		c.issue(required, FieldPartitaIVA, CodeInvalidPIVA, "partita IVA non valida")
		return ""
	}
	return piva
}

// issue fails the row for required fields and only warns otherwise.
func (c *rowCheck) issue(fatal bool, f Field, code, msg string) {
	if fatal {
		c.fail(f, code, msg)
	} else {
		c.warn(f, code, msg)
	}
}

func (c *rowCheck) email(f Field, code string) string {
	raw := c.values.Get(f)
	if raw == "" {
		return ""
	}
	email := NormalizeEmail(raw)
	if !validators.IsEmail(email) {
		if f == FieldPEC {
			c.warn(f, code, "indirizzo PEC non valido")
		} else {
			c.warn(f, code, "indirizzo email non valido")
		}
		return ""
	}
	if c.domainCheck != nil && !c.domainCheck(c.ctx, email) {
		c.warn(f, CodeEmailDomain, "dominio email inesistente")
	}
	return email
}

func (c *rowCheck) capCode() string {
	raw := c.values.Get(FieldCAP)
	if raw == "" {
		return ""
	}
	v := NormalizeCAP(raw)
	if !ValidCAP(v) {
		c.warn(FieldCAP, CodeInvalidCAP, "CAP non valido")
		return ""
	}
	return v
}

func (c *rowCheck) provincia() string {
	raw := c.values.Get(FieldProvincia)
	if raw == "" {
		return ""
	}
	v := NormalizeProvincia(raw)
	if !ValidProvincia(v) {
		c.warn(FieldProvincia, CodeInvalidProvincia, "sigla provincia non valida")
		return ""
	}
	return v
}

func (c *rowCheck) date(f Field) *time.Time {
	raw := c.values.Get(f)
	if raw == "" {
		return nil
	}
	t, err := ParseDate(raw)
	if err != nil {
		c.warn(f, CodeInvalidDate, "data non valida")
		return nil
	}
	return &t
}

func (c *rowCheck) number(f Field, positive bool) decimal.NullDecimal {
	raw := c.values.Get(f)
	if raw == "" {
		return decimal.NullDecimal{}
	}
	parse := ParseNumber
	if c.numbers == NumbersPlain {
		parse = ParsePlainNumber
	}
	d, err := parse(raw)
	if err != nil {
		c.warn(f, CodeInvalidNumber, "valore numerico non valido")
		return decimal.NullDecimal{}
	}
	if d.IsNegative() {
		c.fail(f, CodeNegativeNumber, "il valore non può essere negativo")
		return decimal.NullDecimal{}
	}
	if positive && d.IsZero() {
		c.fail(f, CodeInvalidPower, "la potenza impegnata deve essere maggiore di zero")
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

func (c *rowCheck) period() (start, end *time.Time) {
	start = c.date(FieldDataInizio)
	end = c.date(FieldDataFine)
	if start != nil && end != nil && end.Before(*start) {
		c.fail(FieldDataFine, CodeInvalidDateRange, "la data di fine precede la data di inizio")
	}
	return start, end
}

// stato is empty when the column is missing so that updates keep the
// stored value.
func (c *rowCheck) stato() string {
	return strings.ToLower(NormalizeName(c.values.Get(FieldStato)))
}

// ===============================
// Builders
// ===============================

// privateClient builds a client from the row. With strict unset, missing or
// malformed identity fields yield nil without failing the row.
func (c *rowCheck) privateClient(strict bool) *models.PrivateClient {
	nome := c.name(FieldNome, strict)
	cognome := c.name(FieldCognome, strict)
	cf := c.codiceFiscale(strict)
	if strict && cf != "" && !IsPersonalCodiceFiscale(cf) {
		c.fail(FieldCodiceFiscale, CodeInvalidCF, "codice fiscale di persona fisica atteso")
		cf = ""
	}

	p := &models.PrivateClient{
		Nome:          nome,
		Cognome:       cognome,
		CodiceFiscale: cf,
		Email:         c.email(FieldEmail, CodeInvalidEmail),
		Telefono:      NormalizePhone(c.values.Get(FieldTelefono)),
		Indirizzo:     NormalizeName(c.values.Get(FieldIndirizzo)),
		Citta:         NormalizeName(c.values.Get(FieldCitta)),
		CAP:           c.capCode(),
		Provincia:     c.provincia(),
		Note:          strings.TrimSpace(c.values.Get(FieldNote)),
	}
	if strict {
		p.DataNascita = c.date(FieldDataNascita)
	}
	return p
}

func (c *rowCheck) businessClient(strict bool) *models.BusinessClient {
	b := &models.BusinessClient{
		RagioneSociale: c.name(FieldRagioneSociale, strict),
		PartitaIVA:     c.partitaIVA(strict),
		CodiceFiscale:  c.codiceFiscale(false),
		Email:          c.email(FieldEmail, CodeInvalidEmail),
		PEC:            c.email(FieldPEC, CodeInvalidPEC),
		Telefono:       NormalizePhone(c.values.Get(FieldTelefono)),
		Indirizzo:      NormalizeName(c.values.Get(FieldIndirizzo)),
		Citta:          NormalizeName(c.values.Get(FieldCitta)),
		CAP:            c.capCode(),
		Provincia:      c.provincia(),
		Referente:      NormalizeName(c.values.Get(FieldReferente)),
		Note:           strings.TrimSpace(c.values.Get(FieldNote)),
	}
	return b
}

func (c *rowCheck) electricityContract() *models.ElectricityContract {
	pod := NormalizeCode(c.required(FieldPOD))
	if pod != "" && !ValidPOD(pod) {
		c.fail(FieldPOD, CodeInvalidPOD, "codice POD non valido")
	}
	start, end := c.period()
	return &models.ElectricityContract{
		POD:              pod,
		Fornitore:        NormalizeName(c.values.Get(FieldFornitore)),
		Offerta:          NormalizeName(c.values.Get(FieldOfferta)),
		PotenzaImpegnata: c.number(FieldPotenzaImpegnata, true),
		ConsumoAnnuo:     c.number(FieldConsumoAnnuo, false),
		DataInizio:       start,
		DataFine:         end,
		Stato:            c.stato(),
		Note:             strings.TrimSpace(c.values.Get(FieldNote)),
	}
}

func (c *rowCheck) gasContract() *models.GasContract {
	pdr := NormalizePDR(c.required(FieldPDR))
	if pdr != "" && !ValidPDR(pdr) {
		c.fail(FieldPDR, CodeInvalidPDR, "codice PDR non valido")
	}
	start, end := c.period()
	return &models.GasContract{
		PDR:          pdr,
		Fornitore:    NormalizeName(c.values.Get(FieldFornitore)),
		Offerta:      NormalizeName(c.values.Get(FieldOfferta)),
		ConsumoAnnuo: c.number(FieldConsumoAnnuo, false),
		DataInizio:   start,
		DataFine:     end,
		Stato:        c.stato(),
		Note:         strings.TrimSpace(c.values.Get(FieldNote)),
	}
}

// clientIdentity collects the client columns of a contract row. Malformed
// identifiers are dropped with a warning.
func (c *rowCheck) clientIdentity() ClientIdentity {
	kind := ParseClientKind(c.values.Get(FieldTipoCliente))

	// scratch check so that columns shared by both builders are reported once
	contact := &rowCheck{ctx: c.ctx, line: c.line, values: c.values, domainCheck: c.domainCheck}
	p := contact.privateClient(false)
	b := contact.businessClient(false)
	c.issues = append(c.issues, dedupe(contact.issues)...)
	b.Note, p.Note = "", ""

	id := ClientIdentity{
		Kind:           kind,
		CodiceFiscale:  p.CodiceFiscale,
		PartitaIVA:     b.PartitaIVA,
		Email:          p.Email,
		Nome:           p.Nome,
		Cognome:        p.Cognome,
		RagioneSociale: b.RagioneSociale,
	}

	canBusiness := b.RagioneSociale != "" && b.PartitaIVA != ""
	canPrivate := p.Nome != "" && p.Cognome != "" && IsPersonalCodiceFiscale(p.CodiceFiscale)

	switch {
	case canBusiness && kind != ClientPrivate:
		id.Business = b
		if id.Kind == "" {
			id.Kind = ClientBusiness
		}
	case canPrivate && kind != ClientBusiness:
		id.Private = p
		if id.Kind == "" {
			id.Kind = ClientPrivate
		}
	}

	if (kind == ClientPrivate && canBusiness && !canPrivate) || (kind == ClientBusiness && canPrivate && !canBusiness) {
		c.warn(FieldTipoCliente, CodeClientTypeMismatch, "tipo cliente non coerente con i dati anagrafici")
	}
	return id
}

// dedupe drops repeated issues produced by reading the same column twice.
func dedupe(issues []RowError) []RowError {
	seen := make(map[string]struct{}, len(issues))
	out := issues[:0]
	for _, e := range issues {
		key := e.Field + "|" + e.Code
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, e)
	}
	return out
}
