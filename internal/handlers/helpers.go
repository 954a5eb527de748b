package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"autodealer/internal/authz"
	"autodealer/internal/repositories"
	"autodealer/internal/services"
)

const ActorKey = authz.ContextKey

func actorFrom(c *gin.Context) (authz.Actor, bool) {
	v, ok := c.Get(ActorKey)
	if !ok {
		return authz.Actor{}, false
	}
	actor, ok := v.(authz.Actor)
	return actor, ok
}

// mustActor writes 401 and returns false when the request is anonymous.
func mustActor(c *gin.Context) (authz.Actor, bool) {
	actor, ok := actorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
	return actor, ok
}

func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil || v < 0 {
		return def
	}
	return v
}

// respondError maps service errors onto HTTP statuses. Anything unknown is
// logged and reported as 500 without details.
func respondError(c *gin.Context, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrLeadNotFound),
		errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrTagNotFound),
		errors.Is(err, services.ErrMeetingNotFound),
		errors.Is(err, services.ErrCommentNotFound),
		errors.Is(err, services.ErrAttachmentNotFound),
		errors.Is(err, services.ErrAdminNotFound),
		errors.Is(err, repositories.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, services.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	}

	if status == http.StatusInternalServerError {
		logrus.WithField("op", op).WithError(err).Error("[http] request failed")
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	logrus.WithFields(logrus.Fields{"op": op, "status": status}).WithError(err).Debug("[http] request rejected")
	c.JSON(status, gin.H{"error": err.Error()})
}
