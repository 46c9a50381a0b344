package tools

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/MirrorDNA-Reflection-Protocol/MirrorBrain-Mobile/pkg/bridge"
)

type fakeExecutor struct {
	calls         int
	lastIntent    string
	lastParams    map[string]string
	lastRequestID string

	resp bridge.Response
	err  error
}

func (f *fakeExecutor) Execute(_ context.Context, intent string, params map[string]string, requestID string) (bridge.Response, error) {
	f.calls++
	f.lastIntent = intent
	f.lastParams = params
	f.lastRequestID = requestID
	return f.resp, f.err
}

func okExecutor() *fakeExecutor {
	return &fakeExecutor{resp: bridge.Response{Success: true, Message: "Executed", Result: map[string]any{"status": "ok"}}}
}

func TestShowToast(t *testing.T) {
	exec := okExecutor()
	tool := &ShowToastTool{exec: exec}

	result := tool.Execute(context.Background(), map[string]any{"message": "Hello Body!"})
	if result.IsError {
		t.Fatalf("unexpected error: %s", result.ForLLM)
	}
	if exec.lastIntent != "TOAST" {
		t.Errorf("intent = %q, want TOAST", exec.lastIntent)
	}
	if exec.lastParams["message"] != "Hello Body!" {
		t.Errorf("params = %v", exec.lastParams)
	}
	if !strings.HasPrefix(exec.lastRequestID, "mcp-") {
		t.Errorf("request id = %q, want mcp- prefix", exec.lastRequestID)
	}
	if result.Data == nil {
		t.Error("Data not carried through")
	}
}

func TestShowToastValidation(t *testing.T) {
	exec := okExecutor()
	tool := &ShowToastTool{exec: exec}

	for _, args := range []map[string]any{nil, {}, {"message": ""}, {"message": 42}} {
		result := tool.Execute(context.Background(), args)
		if !result.IsError {
			t.Errorf("args %v unexpectedly accepted", args)
		}
	}
	if exec.calls != 0 {
		t.Errorf("bridge contacted %d times for invalid args", exec.calls)
	}
}

func TestVibrateDevice(t *testing.T) {
	exec := okExecutor()
	tool := &VibrateDeviceTool{exec: exec}

	result := tool.Execute(context.Background(), map[string]any{"duration_ms": float64(250)})
	if result.IsError {
		t.Fatalf("unexpected error: %s", result.ForLLM)
	}
	if exec.lastIntent != "VIBRATE" {
		t.Errorf("intent = %q", exec.lastIntent)
	}
	if exec.lastParams["duration"] != "250" {
		t.Errorf("params = %v", exec.lastParams)
	}

	// No duration: the device applies its default.
	result = tool.Execute(context.Background(), map[string]any{})
	if result.IsError {
		t.Fatalf("unexpected error: %s", result.ForLLM)
	}
	if _, ok := exec.lastParams["duration"]; ok {
		t.Errorf("params = %v, want no duration", exec.lastParams)
	}
}

func TestVibrateDeviceValidation(t *testing.T) {
	exec := okExecutor()
	tool := &VibrateDeviceTool{exec: exec}

	for _, args := range []map[string]any{
		{"duration_ms": float64(0)},
		{"duration_ms": float64(-100)},
		{"duration_ms": float64(99999)},
		{"duration_ms": "soon"},
	} {
		result := tool.Execute(context.Background(), args)
		if !result.IsError {
			t.Errorf("args %v unexpectedly accepted", args)
		}
	}
	if exec.calls != 0 {
		t.Errorf("bridge contacted %d times for invalid args", exec.calls)
	}
}

func TestOpenApplication(t *testing.T) {
	exec := okExecutor()
	tool := &OpenApplicationTool{exec: exec}

	result := tool.Execute(context.Background(), map[string]any{"package_name": "com.android.settings"})
	if result.IsError {
		t.Fatalf("unexpected error: %s", result.ForLLM)
	}
	if exec.lastIntent != "LAUNCH_APP" {
		t.Errorf("intent = %q", exec.lastIntent)
	}
	if exec.lastParams["package"] != "com.android.settings" {
		t.Errorf("params = %v", exec.lastParams)
	}

	for _, bad := range []string{"", "nodots", "com..double", "com.android; reboot"} {
		result := tool.Execute(context.Background(), map[string]any{"package_name": bad})
		if !result.IsError {
			t.Errorf("package %q unexpectedly accepted", bad)
		}
	}
	if exec.calls != 1 {
		t.Errorf("bridge contacted %d times, want 1", exec.calls)
	}
}

func TestGetBatteryStatus(t *testing.T) {
	exec := &fakeExecutor{resp: bridge.Response{
		Success: true,
		Message: "Executed QUERY_BATTERY",
		Result:  map[string]any{"level": "85%", "charging": false},
	}}
	tool := &GetBatteryStatusTool{exec: exec}

	result := tool.Execute(context.Background(), nil)
	if result.IsError {
		t.Fatalf("unexpected error: %s", result.ForLLM)
	}
	if exec.lastIntent != "QUERY_BATTERY" {
		t.Errorf("intent = %q", exec.lastIntent)
	}
	data := result.Data.(map[string]any)
	if data["level"] != "85%" {
		t.Errorf("level = %v", data["level"])
	}
}

func TestBridgeFailureBecomesErrorResult(t *testing.T) {
	exec := &fakeExecutor{err: errors.New("connection refused")}
	tool := &GetBatteryStatusTool{exec: exec}

	result := tool.Execute(context.Background(), nil)
	if !result.IsError {
		t.Fatal("expected error result")
	}
	if !strings.Contains(result.ForLLM, "bridge unavailable") {
		t.Errorf("ForLLM = %q", result.ForLLM)
	}
	if result.Err == nil {
		t.Error("Err not set for transport failure")
	}
}

func TestDeviceRefusalBecomesErrorResult(t *testing.T) {
	exec := &fakeExecutor{resp: bridge.Response{Success: false, Message: "unknown intent: TOAST"}}
	tool := &ShowToastTool{exec: exec}

	result := tool.Execute(context.Background(), map[string]any{"message": "hi"})
	if !result.IsError {
		t.Fatal("expected error result")
	}
	if !strings.Contains(result.ForLLM, "unknown intent: TOAST") {
		t.Errorf("ForLLM = %q", result.ForLLM)
	}
	if result.Err != nil {
		t.Errorf("Err = %v, want nil for an application-level refusal", result.Err)
	}
}

func TestRegisterDeviceTools(t *testing.T) {
	registry := NewRegistry()
	RegisterDeviceTools(registry, okExecutor())

	want := []string{"get_battery_status", "open_application", "show_toast", "vibrate_device"}
	got := registry.List()
	if len(got) != len(want) {
		t.Fatalf("List() = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("List()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
