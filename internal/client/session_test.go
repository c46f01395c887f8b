package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"relay-back/internal/model"
)

type recorder struct {
	mu       sync.Mutex
	messages []model.Message
	err      error
}

func (r *recorder) handle(_ context.Context, message model.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return r.err
	}

	r.messages = append(r.messages, message)

	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.messages)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}

		time.Sleep(10 * time.Millisecond)
	}
}

func TestSessionPoll(t *testing.T) {
	c, _ := newTestServer(t)
	ctx := context.Background()

	for _, content := range []string{"one", "two"} {
		if _, err := c.Send(ctx, "alice", "bob", content); err != nil {
			t.Fatalf("Send() error = %v", err)
		}
	}

	rec := &recorder{}
	session := NewSession(c, "bob", rec.handle)

	delivered, err := session.Poll(ctx)
	if err != nil {
		t.Fatalf("Poll() error = %v", err)
	}

	if delivered != 2 {
		t.Fatalf("Poll() delivered %d, want 2", delivered)
	}

	if rec.messages[0].Content != "one" || rec.messages[1].Content != "two" {
		t.Fatalf("delivery order = %+v", rec.messages)
	}

	pending, err := c.Fetch(ctx, "bob")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if len(pending) != 0 {
		t.Fatalf("inbox not drained: %+v", pending)
	}

	delivered, err = session.Poll(ctx)
	if err != nil || delivered != 0 {
		t.Fatalf("empty Poll() = %d, %v", delivered, err)
	}
}

func TestSessionSkipsVerifiedMessage(t *testing.T) {
	c, _ := newTestServer(t)
	ctx := context.Background()

	id, err := c.Send(ctx, "alice", "bob", "hi")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	// A previous session acknowledged the message and died before removing it.
	if _, err := c.Acknowledge(ctx, id); err != nil {
		t.Fatalf("Acknowledge() error = %v", err)
	}

	rec := &recorder{}

	delivered, err := NewSession(c, "bob", rec.handle).Poll(ctx)
	if err != nil {
		t.Fatalf("Poll() error = %v", err)
	}

	if delivered != 0 || rec.count() != 0 {
		t.Fatalf("verified message was handled again")
	}

	pending, err := c.Fetch(ctx, "bob")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if len(pending) != 0 {
		t.Fatalf("verified message was not removed: %+v", pending)
	}
}

func TestSessionHandlerErrorLeavesMessagePending(t *testing.T) {
	c, _ := newTestServer(t)
	ctx := context.Background()

	if _, err := c.Send(ctx, "alice", "bob", "hi"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	rec := &recorder{err: errors.New("disk full")}
	session := NewSession(c, "bob", rec.handle)

	delivered, err := session.Poll(ctx)
	if err != nil {
		t.Fatalf("Poll() error = %v", err)
	}

	if delivered != 0 {
		t.Fatalf("Poll() delivered %d, want 0", delivered)
	}

	pending, err := c.Fetch(ctx, "bob")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if len(pending) != 1 || pending[0].Verified {
		t.Fatalf("failed message must stay pending and unverified, got %+v", pending)
	}

	rec.mu.Lock()
	rec.err = nil
	rec.mu.Unlock()

	delivered, err = session.Poll(ctx)
	if err != nil || delivered != 1 {
		t.Fatalf("retry Poll() = %d, %v", delivered, err)
	}
}

func TestSessionRun(t *testing.T) {
	c, _ := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := &recorder{}
	session := NewSession(c, "bob", rec.handle, WithPollInterval(10*time.Millisecond))

	done := make(chan error, 1)

	go func() { done <- session.Run(ctx) }()

	if _, err := c.Send(context.Background(), "alice", "bob", "hi"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	waitFor(t, func() bool { return rec.count() == 1 })

	cancel()

	if err := <-done; err != nil {
		t.Fatalf("Run() error = %v", err)
	}
}

func TestSessionWatch(t *testing.T) {
	c, relay := newTestServer(t)

	if _, err := c.Send(context.Background(), "alice", "bob", "before"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := &recorder{}
	session := NewSession(c, "bob", rec.handle)

	done := make(chan error, 1)

	go func() { done <- session.Watch(ctx) }()

	waitFor(t, func() bool { return rec.count() == 1 })
	waitFor(t, func() bool { return relay.Subscribers() == 1 })

	if _, err := c.Send(context.Background(), "carol", "bob", "after"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	waitFor(t, func() bool { return rec.count() == 2 })
	waitFor(t, func() bool { return relay.Health().PendingCount == 0 })

	cancel()

	if err := <-done; err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
}

func TestSessionWatchEndsWhenRelayCloses(t *testing.T) {
	c, relay := newTestServer(t)

	rec := &recorder{}
	session := NewSession(c, "bob", rec.handle)

	done := make(chan error, 1)

	go func() { done <- session.Watch(context.Background()) }()

	waitFor(t, func() bool { return relay.Subscribers() == 1 })

	relay.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Watch() error = %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Watch() did not return after the relay closed")
	}
}
