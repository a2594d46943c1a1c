package source

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/okaokay/gestionale-energia/internal/httperr"
)

var errMalformedXLSX = httperr.ErrBusiness("malformed_xlsx")

// readXLSX returns the cells of the first sheet. Raw values are kept so
// dates arrive as serial numbers and numbers without locale formatting.
func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedXLSX, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedXLSX, err)
	}
	return rows, nil
}
