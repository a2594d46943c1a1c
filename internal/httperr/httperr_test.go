package httperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsBusiness_Wrapped(t *testing.T) {
	err := fmt.Errorf("detect: %w", ErrBusiness("record_type_not_detected"))

	assert.True(t, IsBusiness(err, "record_type_not_detected"))
	assert.False(t, IsBusiness(err, "empty_file"))
	assert.False(t, IsBusiness(errors.New("record_type_not_detected"), "record_type_not_detected"))

	code, ok := BusinessCode(err)
	assert.True(t, ok)
	assert.Equal(t, "record_type_not_detected", code)
}

func TestWrite_Body(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Conflict(c, "import_not_finished", "Importazione ancora in corso.")

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.True(t, c.IsAborted())

	var body HTTPError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "import_not_finished", body.Code)
	assert.Equal(t, "Importazione ancora in corso.", body.Message)
}

func TestBusinessDetail(t *testing.T) {
	err := fmt.Errorf("force: %w", ErrBusinessDetail("missing_required_columns", "pod, nome"))

	assert.True(t, IsBusiness(err, "missing_required_columns"))
	assert.Equal(t, "pod, nome", BusinessDetail(err))
	assert.Contains(t, err.Error(), "missing_required_columns: pod, nome")

	assert.Empty(t, BusinessDetail(ErrBusiness("empty_file")))
	assert.Empty(t, BusinessDetail(errors.New("plain")))
}
