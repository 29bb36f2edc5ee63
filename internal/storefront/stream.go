package storefront

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"storefront/internal/events"
)

var errStreamClosed = errors.New("event stream closed by server")

// Notification is one event received from the server.
type Notification struct {
	Seq  uint64
	Name string
	Data json.RawMessage
	// Applied is set for stock:updated events that changed the cache.
	Applied bool
}

type Handler func(Notification)

// Run follows the server's event stream until ctx is done. The connection is
// re-established forever with exponential backoff, and the snapshot is
// reloaded on every connect, on catalog events and on sequence gaps.
func (c *Client) Run(ctx context.Context, handle Handler) error {
	b := backoff.WithContext(c.newBackOff(), ctx)

	operation := func() error {
		err := c.consume(ctx, b, handle)
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		if err == nil || errors.Is(err, io.EOF) {
			err = errStreamClosed
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		c.logger.Warn("event stream lost, reconnecting", zap.Error(err), zap.Duration("retry_in", wait))
	}

	err := backoff.RetryNotify(operation, b, notify)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (c *Client) consume(ctx context.Context, b backoff.BackOff, handle Handler) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/events", nil)
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("Accept", "text/event-stream")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &APIError{Status: resp.StatusCode, Message: "event stream rejected"}
	}

	reader := newEventReader(resp.Body)
	var lastSeq uint64
	for {
		f, err := reader.next()
		if err != nil {
			return err
		}

		switch f.event {
		case events.Ready:
			var ready struct {
				Seq uint64 `json:"seq"`
			}
			_ = json.Unmarshal([]byte(f.data), &ready)
			lastSeq = ready.Seq
			if err := c.Refresh(ctx); err != nil {
				return err
			}
			b.Reset()
			c.logger.Info("event stream connected", zap.Uint64("seq", lastSeq))
			continue
		case events.Heartbeat:
			continue
		}

		n := Notification{Name: f.event, Data: json.RawMessage(f.data)}
		if seq, err := strconv.ParseUint(f.id, 10, 64); err == nil {
			n.Seq = seq
			if seq > lastSeq+1 {
				c.logger.Warn("missed events, reloading snapshot",
					zap.Uint64("last_seq", lastSeq),
					zap.Uint64("seq", seq),
				)
				if err := c.Refresh(ctx); err != nil {
					return err
				}
			}
			if seq > lastSeq {
				lastSeq = seq
			}
		}

		if err := c.dispatch(ctx, &n); err != nil {
			return err
		}
		if handle != nil {
			handle(n)
		}
	}
}

func (c *Client) dispatch(ctx context.Context, n *Notification) error {
	switch {
	case n.Name == events.StockUpdated:
		var payload events.StockPayload
		if err := json.Unmarshal(n.Data, &payload); err != nil {
			c.logger.Warn("bad stock:updated payload", zap.Error(err))
			return nil
		}
		n.Applied = c.cache.ApplyStock(payload)
	case strings.HasPrefix(n.Name, "product:"), strings.HasPrefix(n.Name, "category:"):
		return c.Refresh(ctx)
	}
	return nil
}

type frame struct {
	id    string
	event string
	data  string
}

type eventReader struct {
	r *bufio.Reader
}

func newEventReader(r io.Reader) *eventReader {
	return &eventReader{r: bufio.NewReader(r)}
}

// next returns the next dispatched frame. Comments and frames without data
// or an event name are skipped.
func (er *eventReader) next() (frame, error) {
	var (
		f    frame
		data []string
	)
	for {
		line, err := er.r.ReadString('\n')
		if err != nil {
			return frame{}, err
		}
		line = strings.TrimRight(line, "\r\n")

		if line == "" {
			if f.event == "" && len(data) == 0 {
				continue
			}
			if f.event == "" {
				f.event = "message"
			}
			f.data = strings.Join(data, "\n")
			return f, nil
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "id":
			f.id = value
		case "event":
			f.event = value
		case "data":
			data = append(data, value)
		}
	}
}
