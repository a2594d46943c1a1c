package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/okaokay/gestionale-energia/internal/domain/importer"
	"github.com/okaokay/gestionale-energia/internal/models"
)

var sample = []importer.RowError{
	{Row: 2, Field: "codice_fiscale", Code: "invalid_codice_fiscale", Message: "codice fiscale non valido", Value: "XXX", Severity: importer.SeverityError},
	{Row: 5, Field: "email", Code: "invalid_email", Message: "email non valida; ignorata", Value: "a@", Severity: importer.SeverityWarning},
}

func TestFromImportLog(t *testing.T) {
	l := &models.ImportLog{
		Errors:   `[{"row":7,"code":"required","message":"m","severity":"error"}]`,
		Warnings: `[{"row":3,"code":"duplicate","message":"m","severity":"warning"}]`,
	}
	issues, err := FromImportLog(l)
	require.NoError(t, err)
	require.Len(t, issues, 2)
	assert.Equal(t, 3, issues[0].Row)
	assert.Equal(t, "required", issues[1].Code)

	_, err = FromImportLog(&models.ImportLog{Errors: "{"})
	assert.Error(t, err)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sample))

	want := "Riga;Gravità;Campo;Codice;Messaggio;Valore\n" +
		"2;error;codice_fiscale;invalid_codice_fiscale;codice fiscale non valido;XXX\n" +
		"5;warning;email;invalid_email;\"email non valida; ignorata\";a@\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sample))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, headers, rows[0])
	assert.Equal(t, []string{"2", "error", "codice_fiscale", "invalid_codice_fiscale", "codice fiscale non valido", "XXX"}, rows[1])
}
