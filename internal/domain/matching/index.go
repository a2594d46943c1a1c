package matching

import (
	"strings"

	"github.com/okaokay/gestionale-energia/internal/models"
)

const (
	DefaultFuzzyThreshold = 0.85
	// the best fuzzy candidate must beat the runner-up by more than this
	ambiguityMargin = 0.02
)

type Kind string

const (
	KindPrivate  Kind = "privato"
	KindBusiness Kind = "azienda"
)

type Method string

const (
	MethodCodiceFiscale Method = "codice_fiscale"
	MethodPartitaIVA    Method = "partita_iva"
	MethodEmail         Method = "email"
	MethodName          Method = "nome"
)

// Candidate is the matching view of an existing client.
type Candidate struct {
	Kind          Kind
	ID            uint
	CodiceFiscale string
	PartitaIVA    string
	Email         string
	Name          string
}

type ref struct {
	kind Kind
	id   uint
}

type Query struct {
	// Kind restricts every step to one kind of client; empty matches both.
	Kind          Kind
	CodiceFiscale string
	PartitaIVA    string
	Email         string
	Name          string
}

type Result struct {
	Kind      Kind    `json:"kind,omitempty"`
	ClientID  uint    `json:"client_id,omitempty"`
	Method    Method  `json:"method,omitempty"`
	Score     float64 `json:"score,omitempty"`
	Ambiguous bool    `json:"ambiguous,omitempty"`
}

func (r Result) Found() bool {
	return r.ClientID != 0 && !r.Ambiguous
}

// ===============================
// Index
// ===============================

// Index looks up clients by identifiers and name. It is not safe for
// concurrent use.
type Index struct {
	threshold float64

	clients map[ref]Candidate
	byCF    map[string][]ref
	byPIVA  map[string][]ref
	byEmail map[string][]ref
	byName  map[string][]ref
}

func NewIndex(threshold float64) *Index {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultFuzzyThreshold
	}
	return &Index{
		threshold: threshold,
		clients:   make(map[ref]Candidate),
		byCF:      make(map[string][]ref),
		byPIVA:    make(map[string][]ref),
		byEmail:   make(map[string][]ref),
		byName:    make(map[string][]ref),
	}
}

func (ix *Index) Len() int {
	return len(ix.clients)
}

func (ix *Index) AddPrivate(c *models.PrivateClient) {
	ix.Add(Candidate{
		Kind:          KindPrivate,
		ID:            c.ID,
		CodiceFiscale: c.CodiceFiscale,
		Email:         c.Email,
		Name:          c.Nome + " " + c.Cognome,
	})
}

func (ix *Index) AddBusiness(c *models.BusinessClient) {
	ix.Add(Candidate{
		Kind:          KindBusiness,
		ID:            c.ID,
		CodiceFiscale: c.CodiceFiscale,
		PartitaIVA:    c.PartitaIVA,
		Email:         c.Email,
		Name:          c.RagioneSociale,
	})
}

// Add inserts or replaces a client.
func (ix *Index) Add(c Candidate) {
	r := ref{kind: c.Kind, id: c.ID}
	ix.Remove(c.Kind, c.ID)

	c.CodiceFiscale = strings.ToUpper(strings.TrimSpace(c.CodiceFiscale))
	c.PartitaIVA = strings.TrimSpace(c.PartitaIVA)
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	c.Name = NameKey(c.Name)

	ix.clients[r] = c
	addKey(ix.byCF, c.CodiceFiscale, r)
	addKey(ix.byPIVA, c.PartitaIVA, r)
	addKey(ix.byEmail, c.Email, r)
	addKey(ix.byName, c.Name, r)
}

func (ix *Index) Remove(kind Kind, id uint) {
	r := ref{kind: kind, id: id}
	old, ok := ix.clients[r]
	if !ok {
		return
	}
	delete(ix.clients, r)
	removeKey(ix.byCF, old.CodiceFiscale, r)
	removeKey(ix.byPIVA, old.PartitaIVA, r)
	removeKey(ix.byEmail, old.Email, r)
	removeKey(ix.byName, old.Name, r)
}

func addKey(m map[string][]ref, key string, r ref) {
	if key == "" {
		return
	}
	m[key] = append(m[key], r)
}

func removeKey(m map[string][]ref, key string, r ref) {
	refs := m[key]
	for i, x := range refs {
		if x == r {
			refs = append(refs[:i], refs[i+1:]...)
			break
		}
	}
	if len(refs) == 0 {
		delete(m, key)
	} else {
		m[key] = refs
	}
}

// ===============================
// Match
// ===============================

// Match tries codice fiscale, partita IVA, email and name in this order;
// business queries check the partita IVA first. The first identifier that
// finds anything decides: a unique hit links, several hits make the result
// ambiguous. Email and name never pick a client whose stored codice fiscale
// or partita IVA differs from the one in the query.
func (ix *Index) Match(q Query) Result {
	cf := strings.ToUpper(strings.TrimSpace(q.CodiceFiscale))
	piva := strings.TrimSpace(q.PartitaIVA)

	if q.Kind == KindBusiness && piva != "" {
		if res, done := unique(ix.byPIVA[piva], q.Kind, MethodPartitaIVA); done {
			return res
		}
	}

	if cf != "" {
		if res, done := ix.matchCF(cf, q.Kind); done {
			return res
		}
	}

	if piva != "" {
		if res, done := unique(ix.byPIVA[piva], q.Kind, MethodPartitaIVA); done {
			return res
		}
	}

	if email := strings.ToLower(strings.TrimSpace(q.Email)); email != "" {
		if res, done := unique(ix.compatible(ix.byEmail[email], cf, piva), q.Kind, MethodEmail); done {
			return res
		}
	}

	if key := NameKey(q.Name); key != "" {
		return ix.matchName(key, q.Kind, cf, piva)
	}
	return Result{}
}

// compatible drops clients whose identifiers contradict the query.
func (ix *Index) compatible(refs []ref, cf, piva string) []ref {
	if cf == "" && piva == "" {
		return refs
	}
	out := make([]ref, 0, len(refs))
	for _, r := range refs {
		if !ix.clients[r].conflicts(cf, piva) {
			out = append(out, r)
		}
	}
	return out
}

func (c Candidate) conflicts(cf, piva string) bool {
	if cf != "" && c.CodiceFiscale != "" && cf != c.CodiceFiscale && cf != c.PartitaIVA {
		return true
	}
	return piva != "" && c.PartitaIVA != "" && piva != c.PartitaIVA
}

func (ix *Index) matchCF(cf string, kind Kind) (Result, bool) {
	if len(cf) == 16 {
		refs := ix.byCF[cf]
		if kind != "" {
			return unique(refs, kind, MethodCodiceFiscale)
		}
		if res, done := unique(refs, KindPrivate, MethodCodiceFiscale); done {
			return res, true
		}
		return unique(refs, KindBusiness, MethodCodiceFiscale)
	}

	if kind == KindPrivate {
		return Result{}, false
	}
	// numeric company code: the partita IVA first, then the stored CF
	if res, done := unique(ix.byPIVA[cf], KindBusiness, MethodCodiceFiscale); done {
		return res, true
	}
	return unique(ix.byCF[cf], KindBusiness, MethodCodiceFiscale)
}

// unique reports done when refs of the wanted kind exist.
func unique(refs []ref, kind Kind, method Method) (Result, bool) {
	var hits []ref
	for _, r := range refs {
		if kind == "" || r.kind == kind {
			hits = append(hits, r)
		}
	}
	switch len(hits) {
	case 0:
		return Result{}, false
	case 1:
		return Result{Kind: hits[0].kind, ClientID: hits[0].id, Method: method, Score: 1}, true
	default:
		return Result{Method: method, Ambiguous: true}, true
	}
}

func (ix *Index) matchName(key string, kind Kind, cf, piva string) Result {
	if res, done := unique(ix.compatible(ix.byName[key], cf, piva), kind, MethodName); done {
		return res
	}

	var (
		best         ref
		bestScore    float64
		runnerUp     float64
		keyLen       = len([]rune(key))
		minimumScore = ix.threshold - ambiguityMargin
	)
	for nameKey, refs := range ix.byName {
		if !lengthCompatible(keyLen, len([]rune(nameKey)), minimumScore) {
			continue
		}
		score := Similarity(key, nameKey)
		for _, r := range refs {
			if kind != "" && r.kind != kind {
				continue
			}
			if ix.clients[r].conflicts(cf, piva) {
				continue
			}
			switch {
			case score > bestScore:
				runnerUp = bestScore
				best, bestScore = r, score
			case score > runnerUp:
				runnerUp = score
			}
		}
	}

	if bestScore < ix.threshold {
		return Result{}
	}
	if bestScore-runnerUp <= ambiguityMargin {
		return Result{Method: MethodName, Score: bestScore, Ambiguous: true}
	}
	return Result{Kind: best.kind, ClientID: best.id, Method: MethodName, Score: bestScore}
}

// lengthCompatible skips pairs whose length difference alone keeps the
// similarity below floor.
func lengthCompatible(a, b int, floor float64) bool {
	longest := max(a, b)
	if longest == 0 {
		return true
	}
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return 1-float64(diff)/float64(longest) >= floor
}
