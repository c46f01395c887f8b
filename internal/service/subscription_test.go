package service

import (
	"testing"

	"relay-back/internal/model"
)

func TestSubscriptions_DropsWhenFull(t *testing.T) {
	subs := newSubscriptions(1)

	ch, cancel, ok := subs.subscribe("bob")
	if !ok {
		t.Fatal("subscribe() ok = false")
	}
	defer cancel()

	subs.publish(model.MessageEvent{Kind: model.EventEnqueued, Recipient: "bob", MessageID: "m1"})
	subs.publish(model.MessageEvent{Kind: model.EventEnqueued, Recipient: "bob", MessageID: "m2"})

	if got := subs.dropped.Load(); got != 1 {
		t.Errorf("dropped = %d, want 1", got)
	}

	if e := <-ch; e.MessageID != "m1" {
		t.Errorf("first event = %q, want m1", e.MessageID)
	}
}

func TestSubscriptions_CancelIsIdempotent(t *testing.T) {
	subs := newSubscriptions(4)

	_, cancel, _ := subs.subscribe("bob")
	cancel()
	cancel()

	if subs.count() != 0 {
		t.Errorf("count() = %d, want 0", subs.count())
	}
}

func TestSubscriptions_CloseEndsAll(t *testing.T) {
	subs := newSubscriptions(4)

	first, cancelFirst, _ := subs.subscribe("bob")
	second, cancelSecond, _ := subs.subscribe("carol")

	subs.close()

	if _, ok := <-first; ok {
		t.Error("bob channel still open after close")
	}
	if _, ok := <-second; ok {
		t.Error("carol channel still open after close")
	}

	// Cancel after close must not panic on an already closed channel.
	cancelFirst()
	cancelSecond()

	if _, _, ok := subs.subscribe("bob"); ok {
		t.Error("subscribe() after close ok = true")
	}
}
