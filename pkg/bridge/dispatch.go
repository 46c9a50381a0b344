package bridge

import (
	"context"
	"fmt"
	"sync"

	"github.com/MirrorDNA-Reflection-Protocol/MirrorBrain-Mobile/pkg/logger"
)

// Handler executes one intent. The returned value becomes Response.Result;
// a returned error (or a panic) becomes a success=false Response.
type Handler func(ctx context.Context, params map[string]string) (any, error)

// Dispatcher maps intent names to handlers. Handlers are registered at
// startup; Dispatch is safe for concurrent use.
type Dispatcher struct {
	handlers map[string]Handler
	mu       sync.RWMutex
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		handlers: make(map[string]Handler),
	}
}

func (d *Dispatcher) Register(intent string, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[intent] = handler
}

func (d *Dispatcher) Get(intent string) (Handler, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	h, ok := d.handlers[intent]
	return h, ok
}

// Intents returns the registered intent names (unordered).
func (d *Dispatcher) Intents() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		names = append(names, name)
	}
	return names
}

// Dispatch routes a Request to its handler and always returns a well-formed
// Response carrying the request's id. Unknown intents and handler failures
// are reported conditions, never transport errors, and a panicking handler
// cannot take down the dispatch path.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) Response {
	handler, ok := d.Get(req.Intent)
	if !ok {
		logger.WarnCF("dispatch", "Unknown intent", map[string]any{
			"intent":     req.Intent,
			"request_id": req.RequestID,
		})
		return Response{
			Success:   false,
			Message:   fmt.Sprintf("unknown intent: %s", req.Intent),
			RequestID: req.RequestID,
		}
	}

	result, err := d.invoke(ctx, handler, req.Params)
	if err != nil {
		logger.ErrorCF("dispatch", "Intent failed", map[string]any{
			"intent":     req.Intent,
			"request_id": req.RequestID,
			"error":      err.Error(),
		})
		return Response{
			Success:   false,
			Message:   err.Error(),
			RequestID: req.RequestID,
		}
	}

	logger.DebugCF("dispatch", "Intent executed", map[string]any{
		"intent":     req.Intent,
		"request_id": req.RequestID,
	})
	return Response{
		Success:   true,
		Message:   fmt.Sprintf("Executed %s", req.Intent),
		Result:    result,
		RequestID: req.RequestID,
	}
}

func (d *Dispatcher) invoke(ctx context.Context, handler Handler, params map[string]string) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return handler(ctx, params)
}

// EchoHandler is the pass-through handler used for TEST_ACTION and tests:
// it wraps the input params under a status=processed envelope.
func EchoHandler(_ context.Context, params map[string]string) (any, error) {
	echo := make(map[string]string, len(params))
	for k, v := range params {
		echo[k] = v
	}
	return map[string]any{
		"status":      "processed",
		"echo_params": echo,
	}, nil
}
