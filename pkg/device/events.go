package device

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"
	"golang.org/x/time/rate"

	"github.com/MirrorDNA-Reflection-Protocol/MirrorBrain-Mobile/pkg/bridge"
	"github.com/MirrorDNA-Reflection-Protocol/MirrorBrain-Mobile/pkg/config"
	"github.com/MirrorDNA-Reflection-Protocol/MirrorBrain-Mobile/pkg/logger"
)

// Event type tags emitted by the simulated device. The set is open; clients
// must tolerate tags they do not know.
const (
	EventNotification = "NOTIFICATION"
	EventScreenState  = "SCREEN_STATE"
	EventBattery      = "BATTERY"
)

var mockNotifications = []map[string]string{
	{"package": "com.whatsapp", "title": "New Message"},
	{"package": "com.android.email", "title": "Inbox updated"},
	{"package": "com.android.calendar", "title": "Upcoming event"},
}

// EventSource feeds the publisher with the simulated device event stream:
// notifications and screen-state changes at a fixed cadence, battery
// snapshots on a cron schedule. Each tag's timestamps are non-decreasing
// because all events are produced sequentially from this source.
type EventSource struct {
	sim         *Simulator
	pub         *bridge.Publisher
	cadence     time.Duration
	batteryCron string
	gron        *gronx.Gronx
}

func NewEventSource(sim *Simulator, pub *bridge.Publisher, cfg config.EventsConfig) (*EventSource, error) {
	cadence := time.Duration(cfg.CadenceMS) * time.Millisecond
	if cadence <= 0 {
		cadence = 500 * time.Millisecond
	}

	gron := gronx.New()
	cron := cfg.BatteryCron
	if cron == "" {
		cron = "* * * * *"
	}
	if !gron.IsValid(cron) {
		return nil, fmt.Errorf("invalid battery cron expression: %q", cron)
	}

	return &EventSource{
		sim:         sim,
		pub:         pub,
		cadence:     cadence,
		batteryCron: cron,
		gron:        gron,
	}, nil
}

// Run emits events until the context is cancelled. The cadence is paced
// with a rate limiter so bursts after a stall are bounded to one event.
func (e *EventSource) Run(ctx context.Context) {
	logger.InfoCF("device", "Event source started", map[string]any{
		"cadence":      e.cadence.String(),
		"battery_cron": e.batteryCron,
	})

	go e.runBatterySchedule(ctx)

	limiter := rate.NewLimiter(rate.Every(e.cadence), 1)
	seq := 0
	for {
		if err := limiter.Wait(ctx); err != nil {
			logger.InfoC("device", "Event source stopped")
			return
		}
		e.emitNext(seq)
		seq++
	}
}

// emitNext alternates the mock feed: two notifications, then a screen-state
// flip.
func (e *EventSource) emitNext(seq int) {
	if seq%3 == 2 {
		e.pub.Publish(bridge.Event{
			Type:      EventScreenState,
			Payload:   map[string]string{"state": e.sim.toggleScreen()},
			Timestamp: now().UnixMilli(),
		})
		return
	}
	notif := mockNotifications[seq%len(mockNotifications)]
	e.pub.Publish(bridge.Event{
		Type:      EventNotification,
		Payload:   notif,
		Timestamp: now().UnixMilli(),
	})
}

// runBatterySchedule publishes a BATTERY snapshot whenever the cron
// expression is due, checked once per minute on the minute.
func (e *EventSource) runBatterySchedule(ctx context.Context) {
	ticker := time.NewTicker(time.Until(now().Truncate(time.Minute).Add(time.Minute)))
	defer ticker.Stop()

	aligned := false
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !aligned {
				ticker.Reset(time.Minute)
				aligned = true
			}
			due, err := e.gron.IsDue(e.batteryCron, now())
			if err != nil || !due {
				continue
			}
			e.PublishBatterySnapshot()
		}
	}
}

// PublishBatterySnapshot steps the simulated battery and publishes its state.
func (e *EventSource) PublishBatterySnapshot() {
	level, charging := e.sim.drainBattery()
	e.pub.Publish(bridge.Event{
		Type: EventBattery,
		Payload: map[string]any{
			"level":    fmt.Sprintf("%d%%", level),
			"charging": charging,
		},
		Timestamp: now().UnixMilli(),
	})
}
