package importer

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/okaokay/gestionale-energia/internal/domain/importer"
	"github.com/okaokay/gestionale-energia/internal/domain/matching"
	"github.com/okaokay/gestionale-energia/internal/httperr"
	"github.com/okaokay/gestionale-energia/internal/models"
)

var errEmptyFile = httperr.ErrBusiness("empty_file")

const defaultStato = "attivo"

type rowResult int

const (
	resultCreated rowResult = iota
	resultUpdated
	resultSkipped
	resultFailed
)

// rowStep is what persisting one record did.
type rowStep struct {
	result        rowResult
	issues        []domain.RowError
	linked        bool
	unlinked      bool
	createdClient bool

	privates   []*models.PrivateClient
	businesses []*models.BusinessClient
}

func (s *rowStep) warn(line int, f domain.Field, code, msg, value string) {
	s.issues = append(s.issues, domain.RowError{
		Row:      line,
		Field:    string(f),
		Code:     code,
		Message:  msg,
		Value:    value,
		Severity: domain.SeverityWarning,
	})
}

// rowRejected rolls a row back with a validation issue instead of a
// database error.
type rowRejected struct {
	issue domain.RowError
}

func (e rowRejected) Error() string {
	return e.issue.Code + ": " + e.issue.Message
}

// checkPeriod rejects a merged contract whose end precedes its start.
func checkPeriod(line int, start, end *time.Time) error {
	if start == nil || end == nil || !end.Before(*start) {
		return nil
	}
	return rowRejected{issue: domain.RowError{
		Row:      line,
		Field:    string(domain.FieldDataFine),
		Code:     domain.CodeInvalidDateRange,
		Message:  "la data di fine precede la data di inizio del contratto esistente",
		Value:    end.Format("02/01/2006"),
		Severity: domain.SeverityError,
	}}
}

type batchTally struct {
	steps []rowStep
}

func (t *batchTally) add(s rowStep) {
	t.steps = append(t.steps, s)
}

func (t batchTally) mergeInto(r *domain.Report) {
	for _, s := range t.steps {
		switch s.result {
		case resultCreated:
			r.Created++
		case resultUpdated:
			r.Updated++
		case resultSkipped:
			r.Skipped++
		case resultFailed:
			r.Failed++
		}
		r.Add(s.issues...)
		if s.linked {
			r.LinkedContracts++
		}
		if s.unlinked {
			r.UnlinkedContracts++
		}
		if s.createdClient {
			r.CreatedClients++
		}
	}
}

// ======================================================
// ROW
// ======================================================

func (r *importRun) processRow(ctx context.Context, tx domain.Repository, row domain.Row) rowStep {
	vals := r.mapping.Values(row.Cells)
	if len(vals) == 0 {
		s := rowStep{result: resultSkipped}
		s.warn(row.Line, "", domain.CodeEmptyRow, "riga senza valori nelle colonne riconosciute", "")
		return s
	}

	rec, issues := r.uc.validate.ValidateFormat(ctx, r.det.Type, row.Line, vals, r.in.Table.Numbers)
	if rec == nil {
		return rowStep{result: resultFailed, issues: issues}
	}

	var step rowStep
	err := tx.Savepoint(ctx, fmt.Sprintf("row_%d", row.Line), func() error {
		step = rowStep{}
		return r.persist(ctx, tx, rec, &step)
	})
	var rejected rowRejected
	if errors.As(err, &rejected) {
		return rowStep{result: resultFailed, issues: append(issues, rejected.issue)}
	}
	if err != nil {
		r.log.WithError(err).WithField("line", row.Line).Warn("row rolled back")
		issues = append(issues, domain.RowError{
			Row:      row.Line,
			Code:     domain.CodeDBError,
			Message:  "errore del database",
			Value:    err.Error(),
			Severity: domain.SeverityError,
		})
		return rowStep{result: resultFailed, issues: issues}
	}

	// the row is written: later rows may match the clients it touched
	for _, p := range step.privates {
		r.index.AddPrivate(p)
	}
	for _, b := range step.businesses {
		r.index.AddBusiness(b)
	}

	step.issues = append(issues, step.issues...)
	return step
}

func (r *importRun) persist(ctx context.Context, tx domain.Repository, rec *domain.Record, step *rowStep) error {
	switch rec.Type {
	case domain.RecordPrivateClient:
		return r.persistPrivate(ctx, tx, rec, step)
	case domain.RecordBusinessClient:
		return r.persistBusiness(ctx, tx, rec, step)
	case domain.RecordElectricity:
		return r.persistElectricity(ctx, tx, rec, step)
	case domain.RecordGas:
		return r.persistGas(ctx, tx, rec, step)
	}
	return fmt.Errorf("unknown record type %q", rec.Type)
}

// ======================================================
// CLIENTS
// ======================================================

func (r *importRun) persistPrivate(ctx context.Context, tx domain.Repository, rec *domain.Record, step *rowStep) error {
	in := rec.Private

	existing, err := tx.FindPrivateByCF(ctx, in.CodiceFiscale)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		if err := tx.SavePrivate(ctx, in); err != nil {
			return err
		}
		step.result = resultCreated
		step.privates = append(step.privates, in)
		return nil

	case err != nil:
		return err

	case !r.update:
		step.result = resultSkipped
		step.warn(rec.Line, domain.FieldCodiceFiscale, domain.CodeDuplicate, "cliente già presente", in.CodiceFiscale)
		return nil
	}

	if !mergePrivate(existing, in) {
		step.result = resultSkipped
		return nil
	}
	if err := tx.SavePrivate(ctx, existing); err != nil {
		return err
	}
	step.result = resultUpdated
	step.privates = append(step.privates, existing)
	return nil
}

func (r *importRun) persistBusiness(ctx context.Context, tx domain.Repository, rec *domain.Record, step *rowStep) error {
	in := rec.Business

	existing, err := tx.FindBusinessByPIVA(ctx, in.PartitaIVA)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		if err := tx.SaveBusiness(ctx, in); err != nil {
			return err
		}
		step.result = resultCreated
		step.businesses = append(step.businesses, in)
		return nil

	case err != nil:
		return err

	case !r.update:
		step.result = resultSkipped
		step.warn(rec.Line, domain.FieldPartitaIVA, domain.CodeDuplicate, "cliente già presente", in.PartitaIVA)
		return nil
	}

	if !mergeBusiness(existing, in) {
		step.result = resultSkipped
		return nil
	}
	if err := tx.SaveBusiness(ctx, existing); err != nil {
		return err
	}
	step.result = resultUpdated
	step.businesses = append(step.businesses, existing)
	return nil
}

// ======================================================
// CONTRACTS
// ======================================================

func (r *importRun) persistElectricity(ctx context.Context, tx domain.Repository, rec *domain.Record, step *rowStep) error {
	in := rec.Electricity

	existing, err := tx.FindElectricityByPOD(ctx, in.POD)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	found := err == nil

	if found && !r.update {
		step.result = resultSkipped
		step.warn(rec.Line, domain.FieldPOD, domain.CodeDuplicate, "contratto già presente", in.POD)
		return nil
	}

	if !found {
		link, err := r.associate(ctx, tx, rec, step)
		if err != nil {
			return err
		}
		in.SetLink(link)
		if in.Stato == "" {
			in.Stato = defaultStato
		}
		if err := tx.SaveElectricity(ctx, in); err != nil {
			return err
		}
		step.result = resultCreated
		return nil
	}

	changed := mergeElectricity(existing, in)
	if !existing.Link().Linked() {
		link, err := r.associate(ctx, tx, rec, step)
		if err != nil {
			return err
		}
		if link.Linked() {
			existing.SetLink(link)
			changed = true
		}
	}
	if !changed {
		step.result = resultSkipped
		return nil
	}
	if err := checkPeriod(rec.Line, existing.DataInizio, existing.DataFine); err != nil {
		return err
	}
	if err := tx.SaveElectricity(ctx, existing); err != nil {
		return err
	}
	step.result = resultUpdated
	return nil
}

func (r *importRun) persistGas(ctx context.Context, tx domain.Repository, rec *domain.Record, step *rowStep) error {
	in := rec.Gas

	existing, err := tx.FindGasByPDR(ctx, in.PDR)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	found := err == nil

	if found && !r.update {
		step.result = resultSkipped
		step.warn(rec.Line, domain.FieldPDR, domain.CodeDuplicate, "contratto già presente", in.PDR)
		return nil
	}

	if !found {
		link, err := r.associate(ctx, tx, rec, step)
		if err != nil {
			return err
		}
		in.SetLink(link)
		if in.Stato == "" {
			in.Stato = defaultStato
		}
		if err := tx.SaveGas(ctx, in); err != nil {
			return err
		}
		step.result = resultCreated
		return nil
	}

	changed := mergeGas(existing, in)
	if !existing.Link().Linked() {
		link, err := r.associate(ctx, tx, rec, step)
		if err != nil {
			return err
		}
		if link.Linked() {
			existing.SetLink(link)
			changed = true
		}
	}
	if !changed {
		step.result = resultSkipped
		return nil
	}
	if err := checkPeriod(rec.Line, existing.DataInizio, existing.DataFine); err != nil {
		return err
	}
	if err := tx.SaveGas(ctx, existing); err != nil {
		return err
	}
	step.result = resultUpdated
	return nil
}

// ======================================================
// ASSOCIATION
// ======================================================

// associate finds the client of a contract row, creating it when the row
// carries a full identity nobody matches. A zero link means unlinked.
func (r *importRun) associate(ctx context.Context, tx domain.Repository, rec *domain.Record, step *rowStep) (models.ClientLink, error) {
	id := rec.Client
	codeField, code := contractCodeField(rec)

	if id.Empty() {
		step.unlinked = true
		step.warn(rec.Line, codeField, domain.CodeClientNotFound, "nessun dato cliente nella riga", code)
		return models.ClientLink{}, nil
	}

	res := r.index.Match(matching.Query{
		Kind:          matching.Kind(id.Kind),
		CodiceFiscale: id.CodiceFiscale,
		PartitaIVA:    id.PartitaIVA,
		Email:         id.Email,
		Name:          id.Name(),
	})

	switch {
	case res.Found():
		step.linked = true
		if res.Kind == matching.KindBusiness {
			return models.BusinessLink(res.ClientID), nil
		}
		return models.PrivateLink(res.ClientID), nil

	case res.Ambiguous:
		step.unlinked = true
		step.warn(rec.Line, codeField, domain.CodeClientAmbiguous,
			fmt.Sprintf("più clienti corrispondono (%s)", res.Method), id.Name())
		return models.ClientLink{}, nil

	case id.Business != nil:
		if err := tx.SaveBusiness(ctx, id.Business); err != nil {
			return models.ClientLink{}, err
		}
		step.linked, step.createdClient = true, true
		step.businesses = append(step.businesses, id.Business)
		return models.BusinessLink(id.Business.ID), nil

	case id.Private != nil:
		if err := tx.SavePrivate(ctx, id.Private); err != nil {
			return models.ClientLink{}, err
		}
		step.linked, step.createdClient = true, true
		step.privates = append(step.privates, id.Private)
		return models.PrivateLink(id.Private.ID), nil
	}

	step.unlinked = true
	step.warn(rec.Line, codeField, domain.CodeClientNotFound, "cliente non trovato", id.Name())
	return models.ClientLink{}, nil
}

func contractCodeField(rec *domain.Record) (domain.Field, string) {
	if rec.Type == domain.RecordGas {
		return domain.FieldPDR, rec.ContractCode()
	}
	return domain.FieldPOD, rec.ContractCode()
}
