package importer

import (
	"sort"
	"strings"

	"github.com/okaokay/gestionale-energia/internal/textutil"
)

type Field string

const (
	FieldNome             Field = "nome"
	FieldCognome          Field = "cognome"
	FieldCodiceFiscale    Field = "codice_fiscale"
	FieldPartitaIVA       Field = "partita_iva"
	FieldRagioneSociale   Field = "ragione_sociale"
	FieldEmail            Field = "email"
	FieldPEC              Field = "pec"
	FieldTelefono         Field = "telefono"
	FieldIndirizzo        Field = "indirizzo"
	FieldCitta            Field = "citta"
	FieldCAP              Field = "cap"
	FieldProvincia        Field = "provincia"
	FieldDataNascita      Field = "data_nascita"
	FieldReferente        Field = "referente"
	FieldPOD              Field = "pod"
	FieldPDR              Field = "pdr"
	FieldFornitore        Field = "fornitore"
	FieldOfferta          Field = "offerta"
	FieldPotenzaImpegnata Field = "potenza_impegnata"
	FieldConsumoAnnuo     Field = "consumo_annuo"
	FieldDataInizio       Field = "data_inizio"
	FieldDataFine         Field = "data_fine"
	FieldStato            Field = "stato"
	FieldNote             Field = "note"
	FieldTipoCliente      Field = "tipo_cliente"
)

type fieldSpec struct {
	field   Field
	aliases []string
	// each entry is a set of tokens that must all appear in the header
	keywords [][]string
}

// catalog order is the keyword matching priority: specific fields first,
// so that "nome azienda" is not taken by nome nor "indirizzo email" by indirizzo.
var catalog = []fieldSpec{
	{FieldRagioneSociale, []string{"ragione sociale", "ragionesociale", "azienda", "nome azienda", "societa", "denominazione", "company", "company name", "impresa"}, [][]string{{"ragione"}, {"denominazione"}, {"azienda"}, {"societa"}, {"company"}}},
	{FieldPEC, []string{"pec", "email pec", "indirizzo pec", "posta certificata", "posta elettronica certificata"}, [][]string{{"pec"}, {"certificata"}}},
	{FieldEmail, []string{"email", "e mail", "mail", "indirizzo email", "posta elettronica", "email cliente"}, [][]string{{"email"}, {"mail"}}},
	{FieldCodiceFiscale, []string{"codice fiscale", "codicefiscale", "cf", "c f", "cod fiscale", "cod fisc", "fiscal code", "tax code"}, [][]string{{"fiscale"}, {"cf"}}},
	{FieldPartitaIVA, []string{"partita iva", "partitaiva", "p iva", "piva", "iva", "vat", "vat number", "p iva cliente"}, [][]string{{"iva"}, {"piva"}, {"vat"}}},
	{FieldDataNascita, []string{"data nascita", "data di nascita", "nascita", "birth date", "date of birth"}, [][]string{{"nascita"}, {"birth"}}},
	{FieldDataInizio, []string{"data inizio", "inizio", "data attivazione", "attivazione", "decorrenza", "data decorrenza", "start date", "inizio fornitura"}, [][]string{{"inizio"}, {"attivazione"}, {"decorrenza"}, {"start"}}},
	{FieldDataFine, []string{"data fine", "fine", "scadenza", "data scadenza", "end date", "fine fornitura"}, [][]string{{"fine"}, {"scadenza"}, {"end"}}},
	{FieldReferente, []string{"referente", "contatto", "persona di riferimento", "legale rappresentante", "rappresentante"}, [][]string{{"referente"}, {"rappresentante"}}},
	{FieldTipoCliente, []string{"tipo cliente", "tipologia cliente", "tipo", "tipologia", "client type"}, [][]string{{"tipologia"}, {"tipo", "cliente"}}},
	{FieldCognome, []string{"cognome", "surname", "last name", "lastname"}, [][]string{{"cognome"}, {"surname"}}},
	{FieldNome, []string{"nome", "first name", "firstname", "nome cliente"}, [][]string{{"nome"}}},
	{FieldTelefono, []string{"telefono", "tel", "cellulare", "cell", "phone", "mobile", "numero telefono", "recapito telefonico"}, [][]string{{"telefono"}, {"cellulare"}, {"tel"}, {"phone"}}},
	{FieldIndirizzo, []string{"indirizzo", "via", "address", "indirizzo fornitura", "indirizzo residenza", "sede", "sede legale"}, [][]string{{"indirizzo"}, {"address"}}},
	{FieldCitta, []string{"citta", "comune", "city", "localita"}, [][]string{{"citta"}, {"comune"}}},
	{FieldCAP, []string{"cap", "codice postale", "zip", "zip code", "postal code"}, [][]string{{"cap"}, {"postale"}}},
	{FieldProvincia, []string{"provincia", "prov", "pr", "province", "sigla provincia"}, [][]string{{"provincia"}, {"prov"}}},
	{FieldPOD, []string{"pod", "codice pod", "pod code", "punto di prelievo"}, [][]string{{"pod"}, {"prelievo"}}},
	{FieldPDR, []string{"pdr", "codice pdr", "pdr code", "punto di riconsegna"}, [][]string{{"pdr"}, {"riconsegna"}}},
	{FieldFornitore, []string{"fornitore", "gestore", "venditore", "supplier", "operatore", "compagnia"}, [][]string{{"fornitore"}, {"gestore"}, {"venditore"}}},
	{FieldOfferta, []string{"offerta", "tariffa", "piano", "prodotto", "offer", "nome offerta"}, [][]string{{"offerta"}, {"tariffa"}}},
	{FieldPotenzaImpegnata, []string{"potenza", "potenza impegnata", "potenza kw", "kw", "potenza contrattuale"}, [][]string{{"potenza"}}},
	{FieldConsumoAnnuo, []string{"consumo", "consumo annuo", "consumo annuale", "consumi", "kwh", "smc", "consumo kwh", "consumo smc"}, [][]string{{"consumo"}, {"consumi"}, {"kwh"}, {"smc"}}},
	{FieldStato, []string{"stato", "status", "stato contratto"}, [][]string{{"stato"}, {"status"}}},
	{FieldNote, []string{"note", "notes", "annotazioni", "commenti", "osservazioni"}, [][]string{{"note"}, {"annotazioni"}}},
}

var aliasIndex = func() map[string]Field {
	idx := make(map[string]Field)
	for _, def := range catalog {
		idx[strings.ReplaceAll(string(def.field), "_", " ")] = def.field
		for _, a := range def.aliases {
			if _, taken := idx[a]; !taken {
				idx[a] = def.field
			}
		}
	}
	return idx
}()

// ===============================
// Header mapping
// ===============================

// NormalizeHeader folds a column title for matching.
func NormalizeHeader(h string) string {
	return textutil.Fold(h)
}

// MatchField resolves one header to a canonical field: exact alias first,
// then keyword tokens in catalog order.
func MatchField(header string) (Field, bool) {
	norm := NormalizeHeader(header)
	if norm == "" {
		return "", false
	}
	if f, ok := aliasIndex[norm]; ok {
		return f, true
	}

	tokens := strings.Fields(norm)
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}

	for _, def := range catalog {
		for _, kw := range def.keywords {
			if containsAll(set, kw) {
				return def.field, true
			}
		}
	}
	return "", false
}

func containsAll(set map[string]struct{}, tokens []string) bool {
	for _, t := range tokens {
		if _, ok := set[t]; !ok {
			return false
		}
	}
	return true
}

// Mapping ties canonical fields to column positions of a file.
type Mapping struct {
	Headers  []string
	Columns  map[Field]int
	Unmapped []string
}

// MapHeaders maps every header. When two headers resolve to the same field
// the first column wins and the later one is reported as unmapped.
func MapHeaders(headers []string) Mapping {
	m := Mapping{
		Headers: headers,
		Columns: make(map[Field]int),
	}
	for i, h := range headers {
		f, ok := MatchField(h)
		if !ok {
			if strings.TrimSpace(h) != "" {
				m.Unmapped = append(m.Unmapped, h)
			}
			continue
		}
		if _, dup := m.Columns[f]; dup {
			m.Unmapped = append(m.Unmapped, h)
			continue
		}
		m.Columns[f] = i
	}
	return m
}

func (m Mapping) Has(f Field) bool {
	_, ok := m.Columns[f]
	return ok
}

// Fields returns the mapped fields sorted by column position.
func (m Mapping) Fields() []Field {
	out := make([]Field, 0, len(m.Columns))
	for f := range m.Columns {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return m.Columns[out[i]] < m.Columns[out[j]] })
	return out
}

// ColumnNames maps each field to the original header text.
func (m Mapping) ColumnNames() map[string]string {
	out := make(map[string]string, len(m.Columns))
	for f, i := range m.Columns {
		out[string(f)] = m.Headers[i]
	}
	return out
}

// Values extracts the mapped, trimmed cells of one row. Short rows yield
// empty values.
func (m Mapping) Values(cells []string) Values {
	v := make(Values, len(m.Columns))
	for f, i := range m.Columns {
		if i < len(cells) {
			if s := strings.TrimSpace(cells[i]); s != "" {
				v[f] = s
			}
		}
	}
	return v
}

// Values holds the non-empty cells of a row keyed by field.
type Values map[Field]string

func (v Values) Get(f Field) string {
	return v[f]
}
