package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/okaokay/gestionale-energia/internal/domain/importjob"
	"github.com/okaokay/gestionale-energia/internal/httperr"
)

var businessMessages = map[string]struct {
	status  int
	message string
}{
	"empty_file":               {http.StatusBadRequest, "Il file è vuoto."},
	"unsupported_file_type":    {http.StatusBadRequest, "Formato non supportato: usare CSV o XLSX."},
	"malformed_csv":            {http.StatusBadRequest, "Il file CSV non è leggibile."},
	"malformed_xlsx":           {http.StatusBadRequest, "Il file Excel non è leggibile."},
	"invalid_record_type":      {http.StatusBadRequest, "Tipo di record non valido."},
	"record_type_not_detected": {http.StatusUnprocessableEntity, "Impossibile riconoscere il tipo di dati dalle intestazioni."},
	"missing_required_columns": {http.StatusUnprocessableEntity, "Mancano colonne obbligatorie:"},
	"import_queue_full":        {http.StatusServiceUnavailable, "Troppe importazioni in coda, riprovare più tardi."},
	"import_runner_closed":     {http.StatusServiceUnavailable, "Il servizio di importazione è in chiusura."},
}

// writeError maps domain errors to responses. Unknown errors are 500s.
func writeError(c *gin.Context, err error, internalCode string) {
	if errors.Is(err, importjob.ErrJobNotFound) {
		httperr.NotFound(c, "import_job_not_found", "Importazione non trovata.")
		return
	}

	if code, ok := httperr.BusinessCode(err); ok {
		if m, known := businessMessages[code]; known {
			msg := m.message
			if detail := httperr.BusinessDetail(err); detail != "" {
				msg += " " + detail
			}
			httperr.Write(c, m.status, code, msg)
			return
		}
		httperr.BadRequest(c, code, err.Error())
		return
	}

	_ = c.Error(err)
	httperr.Internal(c, internalCode, "Errore interno.")
}
