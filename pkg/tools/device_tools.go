package tools

import (
	"context"
	"fmt"
	"regexp"

	"github.com/google/uuid"

	"github.com/MirrorDNA-Reflection-Protocol/MirrorBrain-Mobile/pkg/bridge"
)

// BridgeExecutor sends one intent to the device. Satisfied by bridge.Client.
type BridgeExecutor interface {
	Execute(ctx context.Context, intent string, params map[string]string, requestID string) (bridge.Response, error)
}

const maxVibrateMS = 10000

var packageNameRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*(\.[a-zA-Z][a-zA-Z0-9_]*)+$`)

// RegisterDeviceTools wires the device tool set into the registry, all
// backed by the given bridge executor.
func RegisterDeviceTools(registry *Registry, exec BridgeExecutor) {
	registry.Register(&ShowToastTool{exec: exec})
	registry.Register(&VibrateDeviceTool{exec: exec})
	registry.Register(&OpenApplicationTool{exec: exec})
	registry.Register(&GetBatteryStatusTool{exec: exec})
}

// newRequestID tags one tool invocation so it can be traced through the
// device logs.
func newRequestID() string {
	return "mcp-" + uuid.New().String()[:8]
}

// executeIntent performs the bridge round trip shared by every device tool.
// Transport failures and device refusals both come back as error results.
func executeIntent(ctx context.Context, exec BridgeExecutor, intent string, params map[string]string) *ToolResult {
	resp, err := exec.Execute(ctx, intent, params, newRequestID())
	if err != nil {
		return ErrorResult(fmt.Sprintf("bridge unavailable: %v", err)).WithError(err)
	}
	if !resp.Success {
		return ErrorResult(fmt.Sprintf("device rejected %s: %s", intent, resp.Message))
	}
	return NewToolResult(resp.Message).WithData(resp.Result)
}

// ShowToastTool displays a short text popup on the device screen.
type ShowToastTool struct {
	exec BridgeExecutor
}

func (t *ShowToastTool) Name() string {
	return "show_toast"
}

func (t *ShowToastTool) Description() string {
	return "Display a short popup message (toast) on the device screen"
}

func (t *ShowToastTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"message": map[string]any{
				"type":        "string",
				"description": "Text to display",
			},
		},
		"required": []string{"message"},
	}
}

func (t *ShowToastTool) Execute(ctx context.Context, args map[string]any) *ToolResult {
	message, ok := args["message"].(string)
	if !ok || message == "" {
		return ErrorResult("message is required")
	}
	return executeIntent(ctx, t.exec, "TOAST", map[string]string{"message": message})
}

// VibrateDeviceTool pulses the device vibration motor.
type VibrateDeviceTool struct {
	exec BridgeExecutor
}

func (t *VibrateDeviceTool) Name() string {
	return "vibrate_device"
}

func (t *VibrateDeviceTool) Description() string {
	return "Vibrate the device for a given duration in milliseconds"
}

func (t *VibrateDeviceTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"duration_ms": map[string]any{
				"type":        "integer",
				"description": fmt.Sprintf("Vibration duration in milliseconds (1-%d, default 500)", maxVibrateMS),
			},
		},
	}
}

func (t *VibrateDeviceTool) Execute(ctx context.Context, args map[string]any) *ToolResult {
	params := map[string]string{}
	if raw, ok := args["duration_ms"]; ok {
		duration, ok := raw.(float64)
		if !ok {
			return ErrorResult("duration_ms must be a number")
		}
		ms := int(duration)
		if ms <= 0 || ms > maxVibrateMS {
			return ErrorResult(fmt.Sprintf("duration_ms must be between 1 and %d", maxVibrateMS))
		}
		params["duration"] = fmt.Sprintf("%d", ms)
	}
	return executeIntent(ctx, t.exec, "VIBRATE", params)
}

// OpenApplicationTool launches an installed application by package name.
type OpenApplicationTool struct {
	exec BridgeExecutor
}

func (t *OpenApplicationTool) Name() string {
	return "open_application"
}

func (t *OpenApplicationTool) Description() string {
	return "Launch an installed application by its package name, e.g. com.android.settings"
}

func (t *OpenApplicationTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"package_name": map[string]any{
				"type":        "string",
				"description": "Android package name of the application",
			},
		},
		"required": []string{"package_name"},
	}
}

func (t *OpenApplicationTool) Execute(ctx context.Context, args map[string]any) *ToolResult {
	pkg, ok := args["package_name"].(string)
	if !ok || pkg == "" {
		return ErrorResult("package_name is required")
	}
	if !packageNameRe.MatchString(pkg) {
		return ErrorResult(fmt.Sprintf("invalid package name: %s", pkg))
	}
	return executeIntent(ctx, t.exec, "LAUNCH_APP", map[string]string{"package": pkg})
}

// GetBatteryStatusTool reads the current battery level and charging state.
type GetBatteryStatusTool struct {
	exec BridgeExecutor
}

func (t *GetBatteryStatusTool) Name() string {
	return "get_battery_status"
}

func (t *GetBatteryStatusTool) Description() string {
	return "Get the current battery level and charging state of the device"
}

func (t *GetBatteryStatusTool) Parameters() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}

func (t *GetBatteryStatusTool) Execute(ctx context.Context, _ map[string]any) *ToolResult {
	return executeIntent(ctx, t.exec, "QUERY_BATTERY", nil)
}
