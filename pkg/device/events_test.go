package device

import (
	"testing"
	"time"

	"github.com/MirrorDNA-Reflection-Protocol/MirrorBrain-Mobile/pkg/bridge"
	"github.com/MirrorDNA-Reflection-Protocol/MirrorBrain-Mobile/pkg/config"
)

func newTestSource(t *testing.T, cfg config.EventsConfig) (*EventSource, *bridge.Subscription) {
	t.Helper()
	pub := bridge.NewPublisher(16)
	sub := pub.Subscribe("tester")
	source, err := NewEventSource(NewSimulator(), pub, cfg)
	if err != nil {
		t.Fatalf("NewEventSource: %v", err)
	}
	return source, sub
}

func TestNewEventSourceRejectsBadCron(t *testing.T) {
	pub := bridge.NewPublisher(16)
	_, err := NewEventSource(NewSimulator(), pub, config.EventsConfig{BatteryCron: "not a cron"})
	if err == nil {
		t.Fatal("expected error for invalid cron expression")
	}
}

func TestEmitPattern(t *testing.T) {
	source, sub := newTestSource(t, config.EventsConfig{CadenceMS: 100})

	for seq := 0; seq < 6; seq++ {
		source.emitNext(seq)
	}

	want := []string{
		EventNotification, EventNotification, EventScreenState,
		EventNotification, EventNotification, EventScreenState,
	}
	for i, wantType := range want {
		event := <-sub.Events()
		if event.Type != wantType {
			t.Errorf("event %d type = %q, want %q", i, event.Type, wantType)
		}
	}
}

func TestScreenStateAlternates(t *testing.T) {
	source, sub := newTestSource(t, config.EventsConfig{CadenceMS: 100})

	// Screen starts ON, so the first flip reports OFF.
	source.emitNext(2)
	source.emitNext(2)

	first := <-sub.Events()
	second := <-sub.Events()
	if first.Payload.(map[string]string)["state"] != "OFF" {
		t.Errorf("first state = %v, want OFF", first.Payload)
	}
	if second.Payload.(map[string]string)["state"] != "ON" {
		t.Errorf("second state = %v, want ON", second.Payload)
	}
}

func TestPublishBatterySnapshot(t *testing.T) {
	source, sub := newTestSource(t, config.EventsConfig{CadenceMS: 100})

	source.PublishBatterySnapshot()

	event := <-sub.Events()
	if event.Type != EventBattery {
		t.Fatalf("type = %q, want %s", event.Type, EventBattery)
	}
	payload := event.Payload.(map[string]any)
	if payload["level"] != "84%" {
		t.Errorf("level = %v, want 84%% after one drain step", payload["level"])
	}
	if payload["charging"] != false {
		t.Errorf("charging = %v, want false", payload["charging"])
	}
	if event.Timestamp == 0 {
		t.Error("Timestamp = 0")
	}
}

func TestEventTimestampsComeFromClock(t *testing.T) {
	fixed := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	prev := now
	now = func() time.Time { return fixed }
	defer func() { now = prev }()

	source, sub := newTestSource(t, config.EventsConfig{CadenceMS: 100})
	source.emitNext(0)
	source.PublishBatterySnapshot()

	for i := 0; i < 2; i++ {
		event := <-sub.Events()
		if event.Timestamp != fixed.UnixMilli() {
			t.Errorf("event %d timestamp = %d, want %d", i, event.Timestamp, fixed.UnixMilli())
		}
	}
}

func TestEventTimestampsNonDecreasing(t *testing.T) {
	source, sub := newTestSource(t, config.EventsConfig{CadenceMS: 100})

	for seq := 0; seq < 5; seq++ {
		source.emitNext(seq)
	}

	var last int64
	for i := 0; i < 5; i++ {
		event := <-sub.Events()
		if event.Timestamp < last {
			t.Errorf("event %d timestamp %d < previous %d", i, event.Timestamp, last)
		}
		last = event.Timestamp
	}
}
