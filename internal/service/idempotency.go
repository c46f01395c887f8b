package service

import (
	"container/list"
	"context"
	"sync"
	"time"
)

type idempotencyEntry struct {
	key       string
	messageID string
	createdAt time.Time
	// ready is closed once messageID is stored and enqueued.
	ready chan struct{}
}

func (e *idempotencyEntry) markReady() {
	close(e.ready)
}

// wait blocks until the first request holding the key has enqueued its
// message, so a retry never returns an id nobody can read yet.
func (e *idempotencyEntry) wait(ctx context.Context) (string, error) {
	select {
	case <-e.ready:
		return e.messageID, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// idempotencyCache remembers which message id a retried request key was
// assigned, for a fixed window. Entries are kept in insertion order so
// expiry only ever looks at the front of the list.
type idempotencyCache struct {
	mu      sync.Mutex
	window  time.Duration
	order   *list.List
	entries map[string]*list.Element
}

func newIdempotencyCache(window time.Duration) *idempotencyCache {
	return &idempotencyCache{
		window:  window,
		order:   list.New(),
		entries: make(map[string]*list.Element),
	}
}

func dedupeKey(from, key string) string {
	return from + "\x1f" + key
}

// reserve binds key to messageID unless key is already bound inside the
// window, in which case the earlier entry is returned with found=true. The
// caller owning a fresh entry must call markReady once the message is
// enqueued.
func (c *idempotencyCache) reserve(key, messageID string, now time.Time) (entry *idempotencyEntry, found bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pruneLocked(now)

	if el, ok := c.entries[key]; ok {
		return el.Value.(*idempotencyEntry), true
	}

	entry = &idempotencyEntry{
		key:       key,
		messageID: messageID,
		createdAt: now,
		ready:     make(chan struct{}),
	}
	c.entries[key] = c.order.PushBack(entry)

	return entry, false
}

func (c *idempotencyCache) pruneLocked(now time.Time) {
	for {
		front := c.order.Front()
		if front == nil {
			return
		}

		entry := front.Value.(*idempotencyEntry)
		if now.Sub(entry.createdAt) < c.window {
			return
		}

		c.order.Remove(front)
		delete(c.entries, entry.key)
	}
}

func (c *idempotencyCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}
