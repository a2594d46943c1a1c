// Package report exports the row issues of an import.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/okaokay/gestionale-energia/internal/domain/importer"
	"github.com/okaokay/gestionale-energia/internal/models"
)

const sheetName = "Errori"

var headers = []string{"Riga", "Gravità", "Campo", "Codice", "Messaggio", "Valore"}

// FromImportLog decodes errors and warnings of a log, ordered by row.
func FromImportLog(l *models.ImportLog) ([]importer.RowError, error) {
	var all []importer.RowError
	for _, raw := range []string{l.Errors, l.Warnings} {
		if raw == "" {
			continue
		}
		var part []importer.RowError
		if err := json.Unmarshal([]byte(raw), &part); err != nil {
			return nil, fmt.Errorf("decode import log %d issues: %w", l.ID, err)
		}
		all = append(all, part...)
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].Row < all[j].Row })
	return all, nil
}

func record(e importer.RowError) []string {
	return []string{strconv.Itoa(e.Row), string(e.Severity), e.Field, e.Code, e.Message, e.Value}
}

func WriteCSV(w io.Writer, issues []importer.RowError) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'

	if err := cw.Write(headers); err != nil {
		return err
	}
	for _, e := range issues {
		if err := cw.Write(record(e)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteXLSX(w io.Writer, issues []importer.RowError) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return err
	}
	if err := sw.SetColWidth(1, 4, 14); err != nil {
		return err
	}
	if err := sw.SetColWidth(5, 6, 45); err != nil {
		return err
	}

	head := make([]any, len(headers))
	for i, h := range headers {
		head[i] = excelize.Cell{StyleID: headerStyle, Value: h}
	}
	if err := sw.SetRow("A1", head); err != nil {
		return err
	}

	for i, e := range issues {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []any{e.Row, string(e.Severity), e.Field, e.Code, e.Message, e.Value}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("write xlsx row: %w", err)
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}

	_, err = f.WriteTo(w)
	return err
}
