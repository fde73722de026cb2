package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

// maxMessageBytes caps a single wire frame. IMU samples are tiny; anything
// near this limit is a misbehaving source.
const maxMessageBytes = 1 << 16

// wireMessage mirrors the watch push schema.
type wireMessage struct {
	SourceID    string  `json:"source_id"`
	Type        string  `json:"type"`
	TimestampNS int64   `json:"timestamp_ns"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Z           float64 `json:"z"`
}

var errBadPayload = errors.New("malformed sensor payload")

// decodeWire parses one wire frame into a RawMessage. fallbackSource fills in
// for messages that omit source_id, matching watches that identify per
// connection rather than per message.
func decodeWire(data []byte, fallbackSource string) (RawMessage, error) {
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return RawMessage{}, fmt.Errorf("%w: %v", errBadPayload, err)
	}

	var group AxisGroup
	switch w.Type {
	case "accel":
		group = GroupAccel
	case "gyro":
		group = GroupGyro
	case "mag":
		group = GroupMag
	default:
		return RawMessage{}, fmt.Errorf("%w: unknown type %q", errBadPayload, w.Type)
	}

	if w.TimestampNS <= 0 {
		return RawMessage{}, fmt.Errorf("%w: missing timestamp_ns", errBadPayload)
	}

	sourceID := w.SourceID
	if sourceID == "" {
		sourceID = fallbackSource
	}

	return RawMessage{
		SourceID:    sourceID,
		Group:       group,
		TimestampNS: w.TimestampNS,
		X:           float32(w.X),
		Y:           float32(w.Y),
		Z:           float32(w.Z),
	}, nil
}

// sourceConn maintains one watch's push connection: dial, receive, decode,
// forward, and reconnect with bounded backoff forever. Transport and decode
// failures are local; nothing propagates to the caller.
type sourceConn struct {
	id    string
	url   string
	inbox chan<- RawMessage
	stats *perfStats
	log   *zap.SugaredLogger

	minWait time.Duration
	maxWait time.Duration
}

func newSourceConn(cfg SourceConfig, inbox chan<- RawMessage, stats *perfStats, log *zap.SugaredLogger, minWait, maxWait time.Duration) *sourceConn {
	return &sourceConn{
		id:      cfg.ID,
		url:     sourceURL(cfg.Addr),
		inbox:   inbox,
		stats:   stats,
		log:     log,
		minWait: minWait,
		maxWait: maxWait,
	}
}

// run drives the connect/receive/reconnect cycle until ctx is cancelled.
func (c *sourceConn) run(ctx context.Context) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.minWait
	bo.MaxInterval = c.maxWait
	bo.MaxElapsedTime = 0 // retry indefinitely

	for {
		if ctx.Err() != nil {
			return
		}

		connID := uuid.NewString()[:8]
		streamed, err := c.stream(ctx, connID)
		if ctx.Err() != nil {
			return
		}
		if streamed {
			// A healthy session ran; start the backoff schedule over.
			bo.Reset()
		}

		wait := bo.NextBackOff()
		c.log.Warnw("source connection lost, will reconnect",
			"source_id", c.id,
			"conn_id", connID,
			"error", err,
			"retry_in", wait,
		)

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// stream runs one connection session. Returns whether any message was
// received, plus the terminal error.
func (c *sourceConn) stream(ctx context.Context, connID string) (bool, error) {
	ws, _, err := websocket.Dial(ctx, c.url, nil)
	if err != nil {
		return false, fmt.Errorf("dial %s: %w", c.url, err)
	}
	ws.SetReadLimit(maxMessageBytes)
	defer ws.Close(websocket.StatusNormalClosure, "shutdown")

	c.log.Infow("source connected",
		"source_id", c.id,
		"conn_id", connID,
		"url", c.url,
	)

	streamed := false
	for {
		msgType, data, err := ws.Read(ctx)
		if err != nil {
			return streamed, fmt.Errorf("read: %w", err)
		}
		if msgType != websocket.MessageText {
			continue
		}
		streamed = true

		m, err := decodeWire(data, c.id)
		if err != nil {
			c.stats.decodeErrors.Add(1)
			continue
		}
		c.stats.received.Add(1)

		// Synchronous hand-off to the ingest goroutine. The ingest loop
		// never blocks on anything slower than a map insert, so this send
		// only parks under a genuine burst.
		select {
		case c.inbox <- m:
		case <-ctx.Done():
			return streamed, ctx.Err()
		}
	}
}
