package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/okaokay/gestionale-energia/internal/models"
)

func newTestIndex() *Index {
	ix := NewIndex(DefaultFuzzyThreshold)
	ix.AddPrivate(&models.PrivateClient{ID: 1, Nome: "Mario", Cognome: "Rossi", CodiceFiscale: "RSSMRA80A01H501U", Email: "mario.rossi@example.it"})
	ix.AddPrivate(&models.PrivateClient{ID: 2, Nome: "Giuseppe", Cognome: "Verdi", CodiceFiscale: "VRDGPP75M12F205X", Email: "famiglia@example.it"})
	ix.AddPrivate(&models.PrivateClient{ID: 3, Nome: "Laura", Cognome: "Bianchi", CodiceFiscale: "BNCLRA90D45L219Q", Email: "famiglia@example.it"})
	ix.AddBusiness(&models.BusinessClient{ID: 10, RagioneSociale: "Energia Futura S.r.l.", PartitaIVA: "01234567897", CodiceFiscale: "01234567897", Email: "info@energiafutura.it"})
	ix.AddBusiness(&models.BusinessClient{ID: 11, RagioneSociale: "Luce & Gas Nord SpA", PartitaIVA: "12345678903"})
	return ix
}

func TestMatch_CodiceFiscale(t *testing.T) {
	ix := newTestIndex()

	res := ix.Match(Query{CodiceFiscale: "rssmra80a01h501u", Name: "Someone Else"})
	assert.True(t, res.Found())
	assert.Equal(t, KindPrivate, res.Kind)
	assert.Equal(t, uint(1), res.ClientID)
	assert.Equal(t, MethodCodiceFiscale, res.Method)
}

func TestMatch_NumericCFFindsBusiness(t *testing.T) {
	ix := newTestIndex()

	res := ix.Match(Query{CodiceFiscale: "12345678903"})
	assert.True(t, res.Found())
	assert.Equal(t, KindBusiness, res.Kind)
	assert.Equal(t, uint(11), res.ClientID)
}

func TestMatch_PartitaIVA(t *testing.T) {
	ix := newTestIndex()

	res := ix.Match(Query{CodiceFiscale: "FRRLCU85T10A662K", PartitaIVA: "01234567897"})
	assert.True(t, res.Found())
	assert.Equal(t, uint(10), res.ClientID)
	assert.Equal(t, MethodPartitaIVA, res.Method)
}

func TestMatch_Email(t *testing.T) {
	ix := newTestIndex()

	res := ix.Match(Query{Email: "Mario.Rossi@Example.it"})
	assert.True(t, res.Found())
	assert.Equal(t, uint(1), res.ClientID)
	assert.Equal(t, MethodEmail, res.Method)
}

func TestMatch_SharedEmailIsAmbiguous(t *testing.T) {
	ix := newTestIndex()

	res := ix.Match(Query{Email: "famiglia@example.it", Name: "Giuseppe Verdi"})
	assert.False(t, res.Found())
	assert.True(t, res.Ambiguous)
	assert.Equal(t, MethodEmail, res.Method)
}

func TestMatch_FuzzyName(t *testing.T) {
	ix := newTestIndex()

	tests := []struct {
		name string
		kind Kind
		want uint
	}{
		{"ROSSI MARIO", "", 1},
		{"Energia Futura srl", KindBusiness, 10},
		{"Energia Futura", "", 10},
		{"Luce e Gas Nord S.p.A.", "", 11},
		{"Giusepe Verdi", KindPrivate, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ix.Match(Query{Name: tt.name, Kind: tt.kind})
			assert.True(t, res.Found(), "%+v", res)
			assert.Equal(t, tt.want, res.ClientID)
			assert.Equal(t, MethodName, res.Method)
		})
	}
}

func TestMatch_NameBelowThreshold(t *testing.T) {
	ix := newTestIndex()

	res := ix.Match(Query{Name: "Antonio Esposito"})
	assert.False(t, res.Found())
	assert.False(t, res.Ambiguous)
}

func TestMatch_KindFiltersName(t *testing.T) {
	ix := newTestIndex()

	res := ix.Match(Query{Name: "Mario Rossi", Kind: KindBusiness})
	assert.False(t, res.Found())
}

func TestMatch_CloseNamesAreAmbiguous(t *testing.T) {
	ix := NewIndex(DefaultFuzzyThreshold)
	ix.AddPrivate(&models.PrivateClient{ID: 1, Nome: "Maria", Cognome: "Rossini", CodiceFiscale: "RSSMRA80A01H501U"})
	ix.AddPrivate(&models.PrivateClient{ID: 2, Nome: "Mario", Cognome: "Rossini", CodiceFiscale: "VRDGPP75M12F205X"})

	res := ix.Match(Query{Name: "Mariu Rossini"})
	assert.False(t, res.Found())
	assert.True(t, res.Ambiguous)
}

func TestIndex_AddReplacesKeys(t *testing.T) {
	ix := newTestIndex()

	ix.AddPrivate(&models.PrivateClient{ID: 1, Nome: "Mario", Cognome: "Rossi", CodiceFiscale: "RSSMRA80A01H501U", Email: "nuova@example.it"})

	assert.False(t, ix.Match(Query{Email: "mario.rossi@example.it"}).Found())
	assert.Equal(t, uint(1), ix.Match(Query{Email: "nuova@example.it"}).ClientID)
	assert.Equal(t, 5, ix.Len())
}

func TestNameKey(t *testing.T) {
	assert.Equal(t, "mario rossi", NameKey("  Rossi,  MARIO "))
	assert.Equal(t, "energia futura", NameKey("Energia Futura S.r.l."))
	assert.Equal(t, "citta energia", NameKey("Energia Città SRL"))
	assert.Equal(t, "", NameKey("S.p.A."))
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("abc", "abc"))
	assert.InDelta(t, 0.8, Similarity("abcde", "abcdx"), 1e-9)
	assert.Equal(t, 0.0, Similarity("abc", "xyz"))
}

func TestMatch_BusinessQueryPrefersPartitaIVA(t *testing.T) {
	ix := newTestIndex()

	// the personal CF of the legal representative belongs to client 1
	res := ix.Match(Query{Kind: KindBusiness, CodiceFiscale: "RSSMRA80A01H501U", PartitaIVA: "01234567897"})
	assert.True(t, res.Found())
	assert.Equal(t, KindBusiness, res.Kind)
	assert.Equal(t, uint(10), res.ClientID)
	assert.Equal(t, MethodPartitaIVA, res.Method)
}

func TestMatch_KindRestrictsCF(t *testing.T) {
	ix := newTestIndex()

	res := ix.Match(Query{Kind: KindBusiness, CodiceFiscale: "RSSMRA80A01H501U"})
	assert.False(t, res.Found())
}

func TestMatch_NameSkipsClientWithOtherCF(t *testing.T) {
	ix := newTestIndex()

	// a homonym with a different fiscal code is a different person
	res := ix.Match(Query{CodiceFiscale: "RSSMRA85T10A562S", Name: "Mario Rossi"})
	assert.False(t, res.Found())
	assert.False(t, res.Ambiguous)

	res = ix.Match(Query{CodiceFiscale: "RSSMRA85T10A562S", Name: "Mario Rosi"})
	assert.False(t, res.Found())
}

func TestMatch_EmailSkipsClientWithOtherIdentifiers(t *testing.T) {
	ix := newTestIndex()

	res := ix.Match(Query{CodiceFiscale: "FRRLCU85T10A662K", Email: "mario.rossi@example.it"})
	assert.False(t, res.Found())

	res = ix.Match(Query{Kind: KindBusiness, PartitaIVA: "98765432103", Email: "info@energiafutura.it", Name: "Energia Futura"})
	assert.False(t, res.Found())
	assert.False(t, res.Ambiguous)
}

func TestMatch_SharedEmailNarrowedByCF(t *testing.T) {
	ix := newTestIndex()

	// clients 2 and 3 share the email, the CF leaves only one candidate
	ix.AddPrivate(&models.PrivateClient{ID: 4, Nome: "Anna", Cognome: "Verdi", Email: "famiglia@example.it"})
	res := ix.Match(Query{CodiceFiscale: "FRRLCU85T10A662K", Email: "famiglia@example.it"})
	assert.True(t, res.Found())
	assert.Equal(t, uint(4), res.ClientID)
	assert.Equal(t, MethodEmail, res.Method)
}

func TestMatch_NameStillLinksClientWithoutIdentifiers(t *testing.T) {
	ix := NewIndex(DefaultFuzzyThreshold)
	ix.AddPrivate(&models.PrivateClient{ID: 7, Nome: "Carla", Cognome: "Neri"})

	res := ix.Match(Query{CodiceFiscale: "RSSMRA85T10A562S", Name: "Carla Neri"})
	assert.True(t, res.Found())
	assert.Equal(t, uint(7), res.ClientID)
}
