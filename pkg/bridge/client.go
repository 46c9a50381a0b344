package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/MirrorDNA-Reflection-Protocol/MirrorBrain-Mobile/pkg/logger"
)

// Transport-level failures. Callers can tell "the device said no" (a
// Response with Success=false) from "the bridge is unreachable" (these).
var (
	ErrTimeout      = errors.New("bridge: request timed out")
	ErrClosed       = errors.New("bridge: connection closed")
	ErrNotConnected = errors.New("bridge: not connected")
)

// Client is an explicitly constructed bridge connection with a
// connect/use/close lifecycle. Unary calls are correlated by frame id and
// bounded by the configured timeout; an event stream is consumed lazily via
// StreamEvents. Safe for concurrent use.
type Client struct {
	url     string
	timeout time.Duration

	mu      sync.Mutex
	conn    *websocket.Conn
	writeMu sync.Mutex

	pendingMu sync.Mutex
	pending   map[string]chan Frame

	eventMu sync.Mutex
	events  chan Event

	done     chan struct{}
	doneOnce sync.Once
}

// NewClient creates a client for ws://addr/bridge. timeout bounds each unary
// call (<= 0 selects 10s).
func NewClient(addr string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		url:     fmt.Sprintf("ws://%s/bridge", addr),
		timeout: timeout,
		pending: make(map[string]chan Frame),
		done:    make(chan struct{}),
	}
}

// Connect dials the bridge endpoint and starts the read loop.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return nil
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.url, err)
	}
	c.conn = conn
	go c.readLoop(conn)
	logger.DebugCF("bridge", "Connected", map[string]any{"url": c.url})
	return nil
}

// Close tears down the connection. Pending calls fail with ErrClosed and the
// event stream channel (if any) is closed.
func (c *Client) Close() error {
	c.doneOnce.Do(func() { close(c.done) })

	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	if conn != nil {
		return conn.Close()
	}
	return nil
}

func (c *Client) readLoop(conn *websocket.Conn) {
	defer func() {
		c.doneOnce.Do(func() { close(c.done) })
		c.failPending()
		c.eventMu.Lock()
		if c.events != nil {
			close(c.events)
			c.events = nil
		}
		c.eventMu.Unlock()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			logger.WarnCF("bridge", "Dropping malformed frame", map[string]any{"error": err.Error()})
			continue
		}

		switch frame.Type {
		case FrameTypeResponse:
			c.deliver(frame)
		case FrameTypeEvent:
			c.deliverEvent(frame)
		}
	}
}

func (c *Client) deliver(frame Frame) {
	c.pendingMu.Lock()
	ch, ok := c.pending[frame.ID]
	if ok {
		delete(c.pending, frame.ID)
	}
	c.pendingMu.Unlock()
	if ok {
		ch <- frame
	}
}

func (c *Client) deliverEvent(frame Frame) {
	var event Event
	if err := json.Unmarshal(frame.Payload, &event); err != nil {
		logger.WarnCF("bridge", "Dropping malformed event", map[string]any{"error": err.Error()})
		return
	}

	// The lock covers the send so the stream cannot be closed mid-delivery.
	// A full buffer drops the oldest event rather than stalling the read
	// loop (same policy as the server-side publisher).
	c.eventMu.Lock()
	defer c.eventMu.Unlock()
	if c.events == nil {
		return
	}
	select {
	case c.events <- event:
	default:
		select {
		case <-c.events:
		default:
		}
		select {
		case c.events <- event:
		default:
		}
	}
}

func (c *Client) failPending() {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	for id := range c.pending {
		delete(c.pending, id)
	}
}

// call performs one unary round trip. The response channel is registered
// before the frame is written to avoid losing a fast reply.
func (c *Client) call(ctx context.Context, method string, params any) (Frame, error) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return Frame{}, ErrNotConnected
	}

	data, err := json.Marshal(params)
	if err != nil {
		return Frame{}, fmt.Errorf("encode %s params: %w", method, err)
	}

	id := uuid.New().String()
	respCh := make(chan Frame, 1)
	c.pendingMu.Lock()
	c.pending[id] = respCh
	c.pendingMu.Unlock()

	frame := Frame{
		Type:   FrameTypeRequest,
		ID:     id,
		Method: method,
		Params: data,
	}

	c.writeMu.Lock()
	err = conn.WriteJSON(frame)
	c.writeMu.Unlock()
	if err != nil {
		c.cleanup(id)
		return Frame{}, fmt.Errorf("write %s request: %w", method, err)
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case resp := <-respCh:
		if resp.Error != nil {
			return Frame{}, fmt.Errorf("bridge: %s: %s", resp.Error.Code, resp.Error.Message)
		}
		return resp, nil
	case <-timer.C:
		c.cleanup(id)
		return Frame{}, fmt.Errorf("%s after %s: %w", method, c.timeout, ErrTimeout)
	case <-ctx.Done():
		c.cleanup(id)
		return Frame{}, ctx.Err()
	case <-c.done:
		return Frame{}, ErrClosed
	}
}

func (c *Client) cleanup(id string) {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	delete(c.pending, id)
}

// Ping measures the round trip to the bridge. The returned latency is the
// measured wall-clock elapsed time.
func (c *Client) Ping(ctx context.Context) (time.Duration, PingResult, error) {
	start := time.Now()
	frame, err := c.call(ctx, MethodPing, PingParams{Timestamp: start.UnixMilli()})
	if err != nil {
		return 0, PingResult{}, err
	}
	latency := time.Since(start)

	var result PingResult
	if err := json.Unmarshal(frame.Payload, &result); err != nil {
		return latency, PingResult{}, fmt.Errorf("decode ping result: %w", err)
	}
	return latency, result, nil
}

// Execute sends one intent to the device. Application failures come back as
// a Response with Success=false; transport failures come back as an error.
func (c *Client) Execute(ctx context.Context, intent string, params map[string]string, requestID string) (Response, error) {
	req := Request{
		Intent:    intent,
		Params:    params,
		RequestID: requestID,
	}
	frame, err := c.call(ctx, MethodExecute, req)
	if err != nil {
		return Response{}, err
	}

	var resp Response
	if err := json.Unmarshal(frame.Payload, &resp); err != nil {
		return Response{}, fmt.Errorf("decode execute response: %w", err)
	}
	return resp, nil
}

// StreamEvents opens the event stream for clientID and returns a lazily
// consumed channel of events, in publish order, with no backlog. Cancelling
// ctx unsubscribes server-side and closes the channel; the caller must
// cancel rather than just stop reading, or the subscription leaks.
func (c *Client) StreamEvents(ctx context.Context, clientID string) (<-chan Event, error) {
	c.eventMu.Lock()
	if c.events != nil {
		c.eventMu.Unlock()
		return nil, errors.New("bridge: event stream already open")
	}
	events := make(chan Event, 16)
	c.events = events
	c.eventMu.Unlock()

	if _, err := c.call(ctx, MethodSubscribe, SubscribeParams{ClientID: clientID}); err != nil {
		c.eventMu.Lock()
		c.events = nil
		c.eventMu.Unlock()
		return nil, err
	}

	go func() {
		select {
		case <-ctx.Done():
			unsubCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_, _ = c.call(unsubCtx, MethodUnsubscribe, struct{}{})
			c.eventMu.Lock()
			if c.events != nil {
				close(c.events)
				c.events = nil
			}
			c.eventMu.Unlock()
		case <-c.done:
		}
	}()

	return events, nil
}
