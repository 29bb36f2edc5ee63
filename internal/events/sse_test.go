package events

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

type frame struct {
	id    string
	event string
	data  string
}

func readFrame(t *testing.T, r *bufio.Reader) frame {
	t.Helper()
	var f frame
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if f.event != "" || f.data != "" {
				return f
			}
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
			f.data = value
		}
	}
}

func openStream(t *testing.T, hub *Hub, heartbeat time.Duration) (*bufio.Reader, context.CancelFunc) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/events", Stream(hub, heartbeat, nil))

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	return bufio.NewReader(resp.Body), cancel
}

func TestStreamSendsReadyThenEvents(t *testing.T) {
	hub := NewHub(8, nil)
	hub.Publish(context.Background(), NewOrderError("earlier", time.Now()))
	reader, cancel := openStream(t, hub, time.Minute)
	defer cancel()

	ready := readFrame(t, reader)
	assert.Equal(t, Ready, ready.event)
	var hello readyPayload
	require.NoError(t, json.Unmarshal([]byte(ready.data), &hello))
	assert.Equal(t, uint64(1), hello.Seq)

	product := models.Product{ID: primitive.NewObjectID(), Name: "Lamp", StockQuantity: 6, StockVersion: 1}
	hub.Publish(context.Background(), NewStockUpdated(product, 4, ReasonOrder, time.Now()))

	got := readFrame(t, reader)
	assert.Equal(t, StockUpdated, got.event)
	assert.Equal(t, "2", got.id)

	var payload StockPayload
	require.NoError(t, json.Unmarshal([]byte(got.data), &payload))
	assert.Equal(t, product.ID.Hex(), payload.ProductID)
	assert.Equal(t, 6, payload.NewStock)
	assert.Equal(t, 4, payload.DeductedQuantity)
	assert.Equal(t, ReasonOrder, payload.Reason)
}

func TestStreamHeartbeat(t *testing.T) {
	hub := NewHub(8, nil)
	reader, cancel := openStream(t, hub, 20*time.Millisecond)
	defer cancel()

	require.Equal(t, Ready, readFrame(t, reader).event)
	assert.Equal(t, Heartbeat, readFrame(t, reader).event)
}

func TestStreamUnsubscribesOnDisconnect(t *testing.T) {
	hub := NewHub(8, nil)
	reader, cancel := openStream(t, hub, time.Minute)

	require.Equal(t, Ready, readFrame(t, reader).event)
	require.Equal(t, 1, hub.Subscribers())

	cancel()
	assert.Eventually(t, func() bool { return hub.Subscribers() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestStreamRejectsWhenHubClosed(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub(8, nil)
	hub.Close()

	router := gin.New()
	router.GET("/events", Stream(hub, time.Minute, nil))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
