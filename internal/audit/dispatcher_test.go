package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okaokay/gestionale-energia/internal/db/dbtest"
	"github.com/okaokay/gestionale-energia/internal/logging"
	"github.com/okaokay/gestionale-energia/internal/models"
)

func TestDispatcher_WritesEvents(t *testing.T) {
	gdb := dbtest.New(t)
	d := NewDispatcher(New(gdb), logging.Discard())

	id := uint(42)
	d.Dispatch(Event{
		Action:   "import_completed",
		Entity:   "import_log",
		EntityID: &id,
		Actor:    "cli",
		Metadata: map[string]int{"created": 3},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, d.Close(ctx))

	var logs []models.AuditLog
	require.NoError(t, gdb.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, "import_completed", logs[0].Action)
	assert.Equal(t, "cli", logs[0].Actor)
	assert.JSONEq(t, `{"created":3}`, logs[0].Metadata)
	require.NotNil(t, logs[0].EntityID)
	assert.Equal(t, id, *logs[0].EntityID)
}

func TestDispatcher_ClosedAndNilAreSafe(t *testing.T) {
	gdb := dbtest.New(t)
	d := NewDispatcher(New(gdb), logging.Discard())
	require.NoError(t, d.Close(context.Background()))

	d.Dispatch(Event{Action: "ignored"})
	require.NoError(t, d.Close(context.Background()))

	var nilDispatcher *Dispatcher
	nilDispatcher.Dispatch(Event{Action: "ignored"})
	assert.NoError(t, nilDispatcher.Close(context.Background()))

	var count int64
	require.NoError(t, gdb.Model(&models.AuditLog{}).Count(&count).Error)
	assert.Zero(t, count)
}
