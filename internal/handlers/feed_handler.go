package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"autodealer/internal/realtime"
)

type FeedHandler struct {
	feed *realtime.LeadFeed
}

func NewFeedHandler(feed *realtime.LeadFeed) *FeedHandler {
	return &FeedHandler{feed: feed}
}

// GET /leads/feed
//
// Browsers cannot set headers on a websocket handshake, so the auth
// middleware also accepts ?token=.
func (h *FeedHandler) Subscribe(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	if !actor.CanViewLeads() {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	conn, err := realtime.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		logrus.WithField("admin_id", actor.AdminID).WithError(err).Warn("[feed] upgrade failed")
		return
	}
	h.feed.Serve(conn, actor.AdminID, actor.ScopeProject())
}
