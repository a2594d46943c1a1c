// Package source decodes uploaded spreadsheets into import tables.
package source

import (
	"path/filepath"
	"strings"

	domain "github.com/okaokay/gestionale-energia/internal/domain/importer"
	"github.com/okaokay/gestionale-energia/internal/httperr"
)

var (
	ErrEmptyFile       = httperr.ErrBusiness("empty_file")
	ErrUnsupportedType = httperr.ErrBusiness("unsupported_file_type")
)

// Supported reports whether the file extension can be decoded.
func Supported(fileName string) bool {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv", ".txt", ".xlsx", ".xlsm":
		return true
	}
	return false
}

// Read picks the decoder from the file extension. The first non blank
// line is the header; line numbers refer to the original file.
func Read(fileName string, data []byte) (*domain.Table, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	var (
		rows    [][]string
		numbers = domain.NumbersItalian
		err     error
	)
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv", ".txt":
		rows, err = readCSV(data)
	case ".xlsx", ".xlsm":
		rows, err = readXLSX(data)
		numbers = domain.NumbersPlain
	default:
		return nil, ErrUnsupportedType
	}
	if err != nil {
		return nil, err
	}

	t, err := buildTable(rows)
	if err != nil {
		return nil, err
	}
	t.Numbers = numbers
	return t, nil
}

func buildTable(rows [][]string) (*domain.Table, error) {
	header := -1
	for i, r := range rows {
		if !blank(r) {
			header = i
			break
		}
	}
	if header < 0 {
		return nil, ErrEmptyFile
	}

	t := &domain.Table{Headers: trimAll(rows[header])}

	last := len(rows) - 1
	for last > header && blank(rows[last]) {
		last--
	}
	for i := header + 1; i <= last; i++ {
		t.Rows = append(t.Rows, domain.Row{Line: i + 1, Cells: rows[i]})
	}
	if len(t.Rows) == 0 {
		return nil, ErrEmptyFile
	}
	return t, nil
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func trimAll(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.TrimSpace(c)
	}
	return out
}
