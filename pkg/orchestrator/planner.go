// Package orchestrator is the brain-side control loop: it turns natural
// language input into device tool invocations, either by keyword matching
// or by asking Claude, and drives them through the tool registry.
package orchestrator

import (
	"context"
	"strings"

	"github.com/MirrorDNA-Reflection-Protocol/MirrorBrain-Mobile/pkg/tools"
)

// ToolCall is a planner's request to invoke one registered tool.
type ToolCall struct {
	Name string
	Args map[string]any
}

// Decision is the planner's verdict on one input: either a tool call to
// perform or a direct reply. Exactly one of the two is set.
type Decision struct {
	Reply string
	Call  *ToolCall
}

// Planner maps one user input to a decision given the available tools.
type Planner interface {
	Decide(ctx context.Context, input string, available []tools.Descriptor) (*Decision, error)
}

// knownApps maps spoken application names to Android package names for the
// keyword planner.
var knownApps = map[string]string{
	"settings": "com.android.settings",
	"camera":   "com.android.camera",
	"browser":  "com.android.chrome",
	"chrome":   "com.android.chrome",
	"maps":     "com.google.android.apps.maps",
	"whatsapp": "com.whatsapp",
}

// KeywordPlanner is the offline fallback planner: simple substring matching,
// no model, no network.
type KeywordPlanner struct{}

func NewKeywordPlanner() *KeywordPlanner {
	return &KeywordPlanner{}
}

func (p *KeywordPlanner) Decide(_ context.Context, input string, _ []tools.Descriptor) (*Decision, error) {
	lower := strings.ToLower(input)

	switch {
	case strings.Contains(lower, "battery"):
		return &Decision{Call: &ToolCall{Name: "get_battery_status", Args: map[string]any{}}}, nil

	case strings.Contains(lower, "vibrate"):
		return &Decision{Call: &ToolCall{Name: "vibrate_device", Args: map[string]any{}}}, nil

	case strings.Contains(lower, "toast"):
		return &Decision{Call: &ToolCall{
			Name: "show_toast",
			Args: map[string]any{"message": toastMessage(input)},
		}}, nil

	case strings.Contains(lower, "open") || strings.Contains(lower, "launch"):
		for name, pkg := range knownApps {
			if strings.Contains(lower, name) {
				return &Decision{Call: &ToolCall{
					Name: "open_application",
					Args: map[string]any{"package_name": pkg},
				}}, nil
			}
		}
		return &Decision{Reply: "I don't know that application. Try: settings, camera, browser, maps."}, nil
	}

	return &Decision{Reply: "I can show a toast, vibrate the device, open an app, or check the battery."}, nil
}

// toastMessage extracts the text to display: quoted text wins, then the
// words after "toast", then a default.
func toastMessage(input string) string {
	if start := strings.Index(input, `"`); start >= 0 {
		if end := strings.Index(input[start+1:], `"`); end > 0 {
			return input[start+1 : start+1+end]
		}
	}
	lower := strings.ToLower(input)
	if idx := strings.Index(lower, "toast"); idx >= 0 {
		rest := strings.TrimSpace(input[idx+len("toast"):])
		rest = strings.TrimPrefix(rest, "saying ")
		rest = strings.TrimPrefix(rest, "with ")
		if rest != "" {
			return rest
		}
	}
	return "Hello from MirrorBrain"
}
