package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"club-chat-service/internal/apperr"
)

// respondError maps the typed error taxonomy onto HTTP statuses in one
// place; handlers never hand-pick status codes for domain failures.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "internal error"

	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		status = http.StatusNotFound
		message = err.Error()
	case apperr.KindUnauthorized:
		status = http.StatusForbidden
		message = err.Error()
	case apperr.KindConflict:
		status = http.StatusConflict
		message = err.Error()
	case apperr.KindInvalidState:
		status = http.StatusUnprocessableEntity
		message = err.Error()
	case apperr.KindValidation:
		status = http.StatusBadRequest
		message = err.Error()
	}

	body := gin.H{"error": message}
	if code := apperr.CodeOf(err); code != "" {
		body["code"] = code
	}
	c.JSON(status, body)
}

func outcomeOf(err error) string {
	if err == nil {
		return "ok"
	}
	if code := apperr.CodeOf(err); code != "" {
		return code
	}
	return "error"
}

func actorID(c *gin.Context) int64 {
	return c.GetInt64("memberID")
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}
