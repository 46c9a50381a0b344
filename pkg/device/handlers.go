// Package device is the simulated Android body behind the bridge: intent
// handlers that validate parameters and mutate simulated device state, and
// an event source that emits the asynchronous device feed. The real OS-level
// actions live on the device; these handlers stand in for them.
package device

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/MirrorDNA-Reflection-Protocol/MirrorBrain-Mobile/pkg/bridge"
	"github.com/MirrorDNA-Reflection-Protocol/MirrorBrain-Mobile/pkg/logger"
)

// Intent names understood by the device.
const (
	IntentToast        = "TOAST"
	IntentVibrate      = "VIBRATE"
	IntentLaunchApp    = "LAUNCH_APP"
	IntentQueryBattery = "QUERY_BATTERY"
	IntentTestAction   = "TEST_ACTION"
)

const (
	defaultVibrateMS = 500
	maxVibrateMS     = 10000
)

var packageNameRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*(\.[a-zA-Z][a-zA-Z0-9_]*)+$`)

// Simulator holds the simulated device state shared by handlers and the
// event source.
type Simulator struct {
	mu           sync.Mutex
	batteryLevel int
	charging     bool
	screenOn     bool
	lastToast    string
	launchedApps []string
}

func NewSimulator() *Simulator {
	return &Simulator{
		batteryLevel: 85,
		screenOn:     true,
	}
}

// RegisterHandlers wires every device intent into the dispatch table.
func (s *Simulator) RegisterHandlers(d *bridge.Dispatcher) {
	d.Register(IntentToast, s.HandleToast)
	d.Register(IntentVibrate, s.HandleVibrate)
	d.Register(IntentLaunchApp, s.HandleLaunchApp)
	d.Register(IntentQueryBattery, s.HandleQueryBattery)
	d.Register(IntentTestAction, bridge.EchoHandler)
}

func (s *Simulator) HandleToast(_ context.Context, params map[string]string) (any, error) {
	message := params["message"]
	if message == "" {
		return nil, fmt.Errorf("TOAST requires message")
	}

	s.mu.Lock()
	s.lastToast = message
	s.mu.Unlock()

	logger.InfoCF("device", "Toast shown", map[string]any{"message": message})
	return map[string]any{
		"status":      "processed",
		"echo_params": params,
	}, nil
}

func (s *Simulator) HandleVibrate(_ context.Context, params map[string]string) (any, error) {
	duration := defaultVibrateMS
	if raw, ok := params["duration"]; ok && raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid duration: %s", raw)
		}
		duration = parsed
	}
	if duration <= 0 || duration > maxVibrateMS {
		return nil, fmt.Errorf("duration must be between 1 and %d ms, got %d", maxVibrateMS, duration)
	}

	logger.InfoCF("device", "Vibrating", map[string]any{"duration_ms": duration})
	return map[string]any{
		"status":      "vibrated",
		"duration_ms": duration,
	}, nil
}

func (s *Simulator) HandleLaunchApp(_ context.Context, params map[string]string) (any, error) {
	pkg := params["package"]
	if pkg == "" {
		return nil, fmt.Errorf("LAUNCH_APP requires package")
	}
	if !packageNameRe.MatchString(pkg) {
		return nil, fmt.Errorf("invalid package name: %s", pkg)
	}

	s.mu.Lock()
	s.launchedApps = append(s.launchedApps, pkg)
	s.mu.Unlock()

	logger.InfoCF("device", "App launched", map[string]any{"package": pkg})
	return map[string]any{
		"status":  "launched",
		"package": pkg,
	}, nil
}

func (s *Simulator) HandleQueryBattery(_ context.Context, _ map[string]string) (any, error) {
	level, charging := s.BatteryStatus()
	return map[string]any{
		"level":    fmt.Sprintf("%d%%", level),
		"charging": charging,
	}, nil
}

// BatteryStatus returns the simulated battery level and charging state.
func (s *Simulator) BatteryStatus() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batteryLevel, s.charging
}

// drainBattery steps the simulated battery down by one percent, flipping to
// charging at 20% and back to draining at full.
func (s *Simulator) drainBattery() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.charging {
		s.batteryLevel++
		if s.batteryLevel >= 100 {
			s.batteryLevel = 100
			s.charging = false
		}
	} else {
		s.batteryLevel--
		if s.batteryLevel <= 20 {
			s.charging = true
		}
	}
	return s.batteryLevel, s.charging
}

// toggleScreen flips the simulated screen state and returns the new one.
func (s *Simulator) toggleScreen() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.screenOn = !s.screenOn
	if s.screenOn {
		return "ON"
	}
	return "OFF"
}

// LastToast returns the most recently displayed toast message.
func (s *Simulator) LastToast() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastToast
}

// LaunchedApps returns the packages launched so far, in order.
func (s *Simulator) LaunchedApps() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.launchedApps))
	copy(out, s.launchedApps)
	return out
}

// now is stubbed in tests.
var now = func() time.Time { return time.Now() }
