package events

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const DefaultHeartbeat = 15 * time.Second

type readyPayload struct {
	Seq       uint64    `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
}

type heartbeatPayload struct {
	Timestamp time.Time `json:"timestamp"`
}

// Stream serves the hub as a Server-Sent Events feed. The event id is the hub
// sequence number, so a client can tell it missed events by a gap.
func Stream(hub *Hub, heartbeat time.Duration, logger *zap.Logger) gin.HandlerFunc {
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		const route = "GET /events"

		sub, err := hub.Subscribe()
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "event stream unavailable"})
			return
		}
		defer sub.Close()

		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")
		c.Status(http.StatusOK)

		if err := writeEvent(c.Writer, "", Ready, readyPayload{Seq: sub.Start(), Timestamp: time.Now()}); err != nil {
			return
		}
		c.Writer.Flush()

		logger.Info("event stream opened",
			zap.String("route", route),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("subscribers", hub.Subscribers()),
		)

		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()

		ctx := c.Request.Context()
		c.Stream(func(w io.Writer) bool {
			select {
			case <-ctx.Done():
				return false
			case env, ok := <-sub.Events():
				if !ok {
					return false
				}
				if err := writeEvent(w, strconv.FormatUint(env.Seq, 10), env.Name, env.Payload); err != nil {
					logger.Warn("event stream write failed", zap.String("route", route), zap.Error(err))
					return false
				}
				return true
			case now := <-ticker.C:
				return writeEvent(w, "", Heartbeat, heartbeatPayload{Timestamp: now}) == nil
			}
		})

		logger.Info("event stream closed", zap.String("route", route), zap.String("client_ip", c.ClientIP()))
	}
}

func writeEvent(w io.Writer, id, name string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return sse.Encode(w, sse.Event{Id: id, Event: name, Data: string(data)})
}
