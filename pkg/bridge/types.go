// Package bridge implements the control-plane protocol between the brain
// process and the device body: a WebSocket wire format carrying unary
// ping/execute calls and a server-push event stream, the intent dispatch
// table behind execute, and the event publisher behind subscribe.
package bridge

import "encoding/json"

// Frame is the JSON wire envelope: req (method+params), res (ok+payload or
// error, correlated by id), or event.
type Frame struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Event   string          `json:"event,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Ok      bool            `json:"ok,omitempty"`
	Error   *FrameError     `json:"error,omitempty"`
}

// FrameError is the error payload in a res frame. It reports transport-level
// problems (bad frame, unknown method); application failures travel inside a
// Response instead.
type FrameError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	FrameTypeRequest  = "req"
	FrameTypeResponse = "res"
	FrameTypeEvent    = "event"
)

const (
	MethodPing        = "ping"
	MethodExecute     = "execute"
	MethodSubscribe   = "subscribe"
	MethodUnsubscribe = "unsubscribe"
)

// Request is a command for the device. RequestID is an opaque caller-supplied
// correlation handle; the bridge echoes it but does not enforce uniqueness.
type Request struct {
	Intent    string            `json:"intent"`
	Params    map[string]string `json:"params,omitempty"`
	RequestID string            `json:"request_id"`
}

// Response is the outcome of exactly one Request. Success=false is the
// normal path for "delivered but could not be satisfied" (unknown intent,
// handler failure); transport problems never appear as a Response.
type Response struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Result    any    `json:"result,omitempty"`
	RequestID string `json:"request_id"`
}

// Event is an asynchronous device signal. Type is an open set (NOTIFICATION,
// SCREEN_STATE, BATTERY, ...). Timestamp is producer-assigned Unix millis,
// non-decreasing per event source. Events are ephemeral: no log, no replay.
type Event struct {
	Type      string `json:"type"`
	Payload   any    `json:"payload,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// PingParams is the params payload for a ping request.
type PingParams struct {
	Timestamp int64 `json:"timestamp"`
}

// PingResult reports server time and whether the dispatch table and event
// publisher are initialized.
type PingResult struct {
	Timestamp int64 `json:"timestamp"`
	Ready     bool  `json:"ready"`
}

// SubscribeParams opens an event stream for a connection-scoped client id.
type SubscribeParams struct {
	ClientID string `json:"client_id"`
}
