package api

import (
	"net/http"
	"strconv"

	"github.com/Domenick1991/gulfair/internal/domain"
	"github.com/Domenick1991/gulfair/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var statusByKind = map[domain.ErrorKind]int{
	domain.KindNotFound:     http.StatusNotFound,
	domain.KindInvalid:      http.StatusBadRequest,
	domain.KindConflict:     http.StatusConflict,
	domain.KindUnauthorized: http.StatusUnauthorized,
}

// handleError writes domain errors with their message and hides everything
// else behind a 500.
func handleError(c *gin.Context, log logrus.FieldLogger, err error) {
	if status, ok := statusByKind[domain.KindOf(err)]; ok {
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	log.WithError(err).WithFields(logrus.Fields{
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
		"request_id": c.GetString(middleware.RequestIDKey),
	}).Error("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

func currentUser(c *gin.Context) (int64, bool) {
	u, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required", "code": "MISSING_AUTH_HEADER"})
		return 0, false
	}
	return u.UserID, true
}
