package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/okaokay/gestionale-energia/internal/audit"
)

func writeAudit(
	d *audit.Dispatcher,
	c *gin.Context,
	action string,
	entity string,
	entityID uint,
	meta any,
) {
	id := entityID
	d.Dispatch(audit.Event{
		Action:   action,
		Entity:   entity,
		EntityID: &id,
		Actor:    actor(c),
		Metadata: meta,
	})
}
