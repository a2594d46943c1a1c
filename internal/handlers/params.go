package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/okaokay/gestionale-energia/internal/httperr"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

type pageParams struct {
	Page   int
	Limit  int
	Offset int
}

func readPage(c *gin.Context) pageParams {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page <= 0 {
		page = 1
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if limit <= 0 || limit > maxLimit {
		limit = defaultLimit
	}

	return pageParams{Page: page, Limit: limit, Offset: (page - 1) * limit}
}

// idParam reads the :id path parameter, writing a 400 when it is invalid.
func idParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		httperr.BadRequest(c, "invalid_id", "Identificativo non valido.")
		return 0, false
	}
	return uint(id), true
}

func boolValue(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "si", "sì", "yes", "on":
		return true
	}
	return false
}

func likePattern(q string) string {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return ""
	}
	return "%" + q + "%"
}

// actor names who triggered an action. Authentication lives in front of
// the service; the proxy forwards the user in X-Actor.
func actor(c *gin.Context) string {
	if a := strings.TrimSpace(c.GetHeader("X-Actor")); a != "" {
		return a
	}
	return "api"
}
