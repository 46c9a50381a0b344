package device

import (
	"context"
	"testing"

	"github.com/MirrorDNA-Reflection-Protocol/MirrorBrain-Mobile/pkg/bridge"
)

func TestHandleToast(t *testing.T) {
	sim := NewSimulator()

	result, err := sim.HandleToast(context.Background(), map[string]string{"message": "Hello Body!"})
	if err != nil {
		t.Fatalf("HandleToast: %v", err)
	}

	m := result.(map[string]any)
	if m["status"] != "processed" {
		t.Errorf("status = %v", m["status"])
	}
	echo := m["echo_params"].(map[string]string)
	if echo["message"] != "Hello Body!" {
		t.Errorf("echo message = %q", echo["message"])
	}
	if sim.LastToast() != "Hello Body!" {
		t.Errorf("LastToast = %q", sim.LastToast())
	}
}

func TestHandleToastMissingMessage(t *testing.T) {
	sim := NewSimulator()
	if _, err := sim.HandleToast(context.Background(), nil); err == nil {
		t.Fatal("expected error for missing message")
	}
}

func TestHandleVibrate(t *testing.T) {
	sim := NewSimulator()

	tests := []struct {
		name     string
		params   map[string]string
		wantMS   int
		wantFail bool
	}{
		{"default", nil, 500, false},
		{"explicit", map[string]string{"duration": "250"}, 250, false},
		{"zero", map[string]string{"duration": "0"}, 0, true},
		{"negative", map[string]string{"duration": "-5"}, 0, true},
		{"too long", map[string]string{"duration": "20000"}, 0, true},
		{"not a number", map[string]string{"duration": "soon"}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := sim.HandleVibrate(context.Background(), tt.params)
			if tt.wantFail {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("HandleVibrate: %v", err)
			}
			m := result.(map[string]any)
			if m["duration_ms"] != tt.wantMS {
				t.Errorf("duration_ms = %v, want %d", m["duration_ms"], tt.wantMS)
			}
		})
	}
}

func TestHandleLaunchApp(t *testing.T) {
	sim := NewSimulator()

	result, err := sim.HandleLaunchApp(context.Background(), map[string]string{"package": "com.android.settings"})
	if err != nil {
		t.Fatalf("HandleLaunchApp: %v", err)
	}
	m := result.(map[string]any)
	if m["package"] != "com.android.settings" {
		t.Errorf("package = %v", m["package"])
	}

	for _, bad := range []string{"", "nodots", ".leading.dot", "com..double", "com.android.settings; rm -rf /"} {
		if _, err := sim.HandleLaunchApp(context.Background(), map[string]string{"package": bad}); err == nil {
			t.Errorf("package %q unexpectedly accepted", bad)
		}
	}

	apps := sim.LaunchedApps()
	if len(apps) != 1 || apps[0] != "com.android.settings" {
		t.Errorf("LaunchedApps = %v", apps)
	}
}

func TestHandleQueryBattery(t *testing.T) {
	sim := NewSimulator()

	result, err := sim.HandleQueryBattery(context.Background(), nil)
	if err != nil {
		t.Fatalf("HandleQueryBattery: %v", err)
	}
	m := result.(map[string]any)
	if m["level"] != "85%" {
		t.Errorf("level = %v, want 85%%", m["level"])
	}
	if m["charging"] != false {
		t.Errorf("charging = %v, want false", m["charging"])
	}
}

func TestDrainBatteryFlipsAtThresholds(t *testing.T) {
	sim := NewSimulator()
	sim.batteryLevel = 21

	level, charging := sim.drainBattery()
	if level != 20 || !charging {
		t.Fatalf("at threshold: level=%d charging=%t, want 20 true", level, charging)
	}

	sim.batteryLevel = 99
	level, charging = sim.drainBattery()
	if level != 100 || charging {
		t.Fatalf("at full: level=%d charging=%t, want 100 false", level, charging)
	}
}

func TestRegisterHandlersCoversAllIntents(t *testing.T) {
	sim := NewSimulator()
	d := bridge.NewDispatcher()
	sim.RegisterHandlers(d)

	for _, intent := range []string{IntentToast, IntentVibrate, IntentLaunchApp, IntentQueryBattery, IntentTestAction} {
		if _, ok := d.Get(intent); !ok {
			t.Errorf("intent %s not registered", intent)
		}
	}
}
