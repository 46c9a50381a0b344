package bridge

import (
	"fmt"
	"testing"
)

func TestPublishFIFO(t *testing.T) {
	p := NewPublisher(8)
	sub := p.Subscribe("c1")

	for i := 0; i < 3; i++ {
		p.Publish(Event{Type: "NOTIFICATION", Timestamp: int64(i)})
	}

	for i := 0; i < 3; i++ {
		event := <-sub.Events()
		if event.Timestamp != int64(i) {
			t.Errorf("event %d has timestamp %d", i, event.Timestamp)
		}
	}
}

func TestPublishIndependentSubscribers(t *testing.T) {
	p := NewPublisher(8)
	a := p.Subscribe("a")
	b := p.Subscribe("b")

	p.Publish(Event{Type: "SCREEN_STATE", Timestamp: 1})

	for _, sub := range []*Subscription{a, b} {
		event := <-sub.Events()
		if event.Type != "SCREEN_STATE" {
			t.Errorf("%s got %q", sub.ClientID, event.Type)
		}
	}
}

func TestNoBacklogForLateSubscriber(t *testing.T) {
	p := NewPublisher(8)
	p.Publish(Event{Type: "NOTIFICATION", Timestamp: 1})

	sub := p.Subscribe("late")
	select {
	case event := <-sub.Events():
		t.Errorf("late subscriber got backlog event %+v", event)
	default:
	}
}

func TestUnsubscribe(t *testing.T) {
	p := NewPublisher(8)
	sub := p.Subscribe("c1")
	if got := p.SubscriberCount(); got != 1 {
		t.Fatalf("SubscriberCount = %d, want 1", got)
	}

	p.Unsubscribe(sub)
	p.Unsubscribe(sub) // idempotent

	if got := p.SubscriberCount(); got != 0 {
		t.Errorf("SubscriberCount = %d, want 0", got)
	}
	if _, ok := <-sub.Events(); ok {
		t.Error("channel still open after Unsubscribe")
	}

	// Publishing after unsubscribe must not panic on the closed channel.
	p.Publish(Event{Type: "NOTIFICATION"})
}

func TestSlowSubscriberDropsOldest(t *testing.T) {
	p := NewPublisher(2)
	sub := p.Subscribe("slow")

	for i := 1; i <= 5; i++ {
		p.Publish(Event{Type: "NOTIFICATION", Timestamp: int64(i)})
	}

	// Queue holds the two newest events; everything older was dropped.
	first := <-sub.Events()
	second := <-sub.Events()
	if first.Timestamp != 4 || second.Timestamp != 5 {
		t.Errorf("kept events %d,%d, want 4,5", first.Timestamp, second.Timestamp)
	}
}

func TestPublisherClose(t *testing.T) {
	p := NewPublisher(8)
	sub := p.Subscribe("c1")

	p.Close()
	p.Close() // idempotent

	if _, ok := <-sub.Events(); ok {
		t.Error("channel still open after Close")
	}
	if got := p.Subscribe("c2"); got != nil {
		t.Error("Subscribe after Close returned a subscription")
	}
	p.Publish(Event{Type: "NOTIFICATION"}) // dropped, no panic
}

func TestPublishManySubscribers(t *testing.T) {
	p := NewPublisher(4)
	subs := make([]*Subscription, 10)
	for i := range subs {
		subs[i] = p.Subscribe(fmt.Sprintf("c%d", i))
	}

	p.Publish(Event{Type: "BATTERY", Timestamp: 7})
	for i, sub := range subs {
		event := <-sub.Events()
		if event.Timestamp != 7 {
			t.Errorf("subscriber %d got timestamp %d", i, event.Timestamp)
		}
	}
}
