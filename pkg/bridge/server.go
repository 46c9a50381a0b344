package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MirrorDNA-Reflection-Protocol/MirrorBrain-Mobile/pkg/config"
	"github.com/MirrorDNA-Reflection-Protocol/MirrorBrain-Mobile/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Peers are device/brain processes, not browsers; origin checks and
	// transport auth are outside this layer.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server exposes the bridge protocol on a WebSocket endpoint: unary ping and
// execute requests plus a server-push event stream per subscribed client.
// Execute dispatches run on a bounded worker pool; event pumps run on
// dedicated goroutines so a slow stream cannot starve unary calls.
type Server struct {
	cfg        config.BridgeConfig
	dispatcher *Dispatcher
	publisher  *Publisher
	httpServer *http.Server
	workers    chan struct{}

	mu    sync.Mutex
	conns map[*bridgeConn]struct{}
}

func NewServer(cfg config.BridgeConfig, dispatcher *Dispatcher, publisher *Publisher) *Server {
	maxWorkers := cfg.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 10
	}
	return &Server{
		cfg:        cfg,
		dispatcher: dispatcher,
		publisher:  publisher,
		workers:    make(chan struct{}, maxWorkers),
		conns:      make(map[*bridgeConn]struct{}),
	}
}

// Start listens on the configured host:port and serves until Stop.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("bridge listen on %s: %w", s.cfg.Addr(), err)
	}
	go func() {
		if err := s.Serve(ctx, listener); err != nil {
			logger.ErrorCF("bridge", "Server error", map[string]any{"error": err.Error()})
		}
	}()
	return nil
}

// Serve accepts bridge connections on the given listener until the context
// is cancelled or Stop is called.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/bridge", s.handleBridge)
	mux.HandleFunc("GET /api/health", s.handleHealth)

	s.httpServer = &http.Server{Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Stop(shutdownCtx)
	}()

	logger.InfoCF("bridge", "Listening", map[string]any{"addr": listener.Addr().String()})
	if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop shuts the server down: the publisher is closed (ending all event
// pumps), open connections are closed, and the HTTP listener drains.
func (s *Server) Stop(ctx context.Context) error {
	s.publisher.Close()

	s.mu.Lock()
	for c := range s.conns {
		c.conn.Close()
	}
	s.mu.Unlock()

	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Ready reports whether the dispatch table and event publisher are wired.
func (s *Server) Ready() bool {
	return s.dispatcher != nil && s.publisher != nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{
		"status": "ok",
		"ready":  s.Ready(),
	})
}

// bridgeConn is one client connection. A write mutex serializes frames from
// the execute workers and the event pump onto the socket.
type bridgeConn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	mu   sync.Mutex
	sub  *Subscription
	done chan struct{}
}

func (c *bridgeConn) writeFrame(frame Frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(frame)
}

func (s *Server) handleBridge(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.ErrorCF("bridge", "WebSocket upgrade failed", map[string]any{"error": err.Error()})
		return
	}

	c := &bridgeConn{conn: conn, done: make(chan struct{})}
	s.mu.Lock()
	s.conns[c] = struct{}{}
	s.mu.Unlock()
	logger.DebugC("bridge", "Client connected")

	defer func() {
		close(c.done)
		s.teardownSubscription(c)
		s.mu.Lock()
		delete(s.conns, c)
		s.mu.Unlock()
		conn.Close()
		logger.DebugC("bridge", "Client disconnected")
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.writeFrame(errorFrame("", "bad_frame", "invalid JSON frame"))
			continue
		}
		if frame.Type != FrameTypeRequest {
			c.writeFrame(errorFrame(frame.ID, "bad_frame", "expected req frame"))
			continue
		}

		switch frame.Method {
		case MethodPing:
			s.handlePing(c, frame)
		case MethodExecute:
			s.handleExecute(c, frame)
		case MethodSubscribe:
			s.handleSubscribe(c, frame)
		case MethodUnsubscribe:
			s.teardownSubscription(c)
			c.writeFrame(okFrame(frame.ID, map[string]any{"unsubscribed": true}))
		default:
			c.writeFrame(errorFrame(frame.ID, "unknown_method", fmt.Sprintf("unknown method: %s", frame.Method)))
		}
	}
}

func (s *Server) handlePing(c *bridgeConn, frame Frame) {
	c.writeFrame(okFrame(frame.ID, PingResult{
		Timestamp: time.Now().UnixMilli(),
		Ready:     s.Ready(),
	}))
}

// handleExecute dispatches on a pooled goroutine so concurrent executes on
// the same connection never block each other or the read loop. Callers
// beyond the pool bound wait for a free slot.
func (s *Server) handleExecute(c *bridgeConn, frame Frame) {
	var req Request
	if err := json.Unmarshal(frame.Params, &req); err != nil {
		c.writeFrame(errorFrame(frame.ID, "bad_params", "invalid execute params"))
		return
	}
	if req.Intent == "" {
		c.writeFrame(errorFrame(frame.ID, "bad_params", "intent is required"))
		return
	}

	go func() {
		s.workers <- struct{}{}
		defer func() { <-s.workers }()

		resp := s.dispatcher.Dispatch(context.Background(), req)
		if err := c.writeFrame(okFrame(frame.ID, resp)); err != nil {
			logger.DebugCF("bridge", "Response write failed", map[string]any{
				"request_id": req.RequestID,
				"error":      err.Error(),
			})
		}
	}()
}

func (s *Server) handleSubscribe(c *bridgeConn, frame Frame) {
	var params SubscribeParams
	if err := json.Unmarshal(frame.Params, &params); err != nil {
		c.writeFrame(errorFrame(frame.ID, "bad_params", "invalid subscribe params"))
		return
	}

	c.mu.Lock()
	if c.sub != nil {
		c.mu.Unlock()
		c.writeFrame(errorFrame(frame.ID, "already_subscribed", "connection already has an event stream"))
		return
	}
	sub := s.publisher.Subscribe(params.ClientID)
	if sub == nil {
		c.mu.Unlock()
		c.writeFrame(errorFrame(frame.ID, "shutting_down", "server is shutting down"))
		return
	}
	c.sub = sub
	c.mu.Unlock()

	c.writeFrame(okFrame(frame.ID, map[string]any{"subscribed": true}))
	logger.InfoCF("bridge", "Event stream opened", map[string]any{"client_id": params.ClientID})

	go s.pumpEvents(c, sub)
}

// pumpEvents pushes published events to one subscriber until the
// subscription closes or the connection goes away.
func (s *Server) pumpEvents(c *bridgeConn, sub *Subscription) {
	for {
		select {
		case event, ok := <-sub.Events():
			if !ok {
				return
			}
			payload, err := json.Marshal(event)
			if err != nil {
				continue
			}
			frame := Frame{
				Type:    FrameTypeEvent,
				Event:   event.Type,
				Payload: payload,
			}
			if err := c.writeFrame(frame); err != nil {
				s.teardownSubscription(c)
				return
			}
		case <-c.done:
			return
		}
	}
}

func (s *Server) teardownSubscription(c *bridgeConn) {
	c.mu.Lock()
	sub := c.sub
	c.sub = nil
	c.mu.Unlock()
	if sub != nil {
		s.publisher.Unsubscribe(sub)
		logger.InfoCF("bridge", "Event stream closed", map[string]any{"client_id": sub.ClientID})
	}
}

func okFrame(id string, payload any) Frame {
	data, err := json.Marshal(payload)
	if err != nil {
		return errorFrame(id, "internal", "failed to encode payload")
	}
	return Frame{
		Type:    FrameTypeResponse,
		ID:      id,
		Ok:      true,
		Payload: data,
	}
}

func errorFrame(id, code, message string) Frame {
	return Frame{
		Type: FrameTypeResponse,
		ID:   id,
		Error: &FrameError{
			Code:    code,
			Message: message,
		},
	}
}
