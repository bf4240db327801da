package handlers

import (
	"io"
	"strings"

	"github.com/gin-gonic/gin"

	"retailops/internal/core/id"
	"retailops/internal/events"
)

// splitTopics flattens the topics query parameter, accepting both repeated
// parameters and comma-joined lists.
func splitTopics(values []string) []string {
	var topics []string
	for _, value := range values {
		for _, topic := range strings.Split(value, ",") {
			if topic = strings.TrimSpace(topic); topic != "" {
				topics = append(topics, topic)
			}
		}
	}
	return topics
}

// StreamHandler pushes live change notifications to dashboards over
// server-sent events.
type StreamHandler struct {
	BaseHandler
	bus *events.Bus
}

func NewStreamHandler(bus *events.Bus) *StreamHandler {
	return &StreamHandler{bus: bus}
}

// Stream subscribes the client to change notifications. Topics may be
// narrowed with ?topics=sales,payments; events are filtered to branches the
// caller can access. Delivery is best-effort: clients must reload their
// snapshot on reconnect instead of assuming an unbroken event sequence.
func (h *StreamHandler) Stream(c *gin.Context) {
	identity, ok := h.Identity(c)
	if !ok {
		return
	}

	ch, cancel := h.bus.Subscribe(splitTopics(c.QueryArray("topics"))...)
	defer cancel()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case event, open := <-ch:
			if !open {
				return false
			}
			if event.BranchID != id.Nil() && !identity.CanAccessBranch(event.BranchID) {
				return true
			}
			c.SSEvent(event.Topic, event)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
