package repository

import (
	"sync"

	"relay-back/internal/model"
)

type MessageGetter interface {
	Get(id string) (model.Message, error)
}

type inbox struct {
	ids     []string
	pending map[string]struct{}
}

// InboxRepository keeps, per recipient, the enqueue-ordered ids of pending
// messages. It resolves ids through the message store and never owns
// message content. Empty inboxes are dropped, so Count reports recipients
// that currently have something pending.
type InboxRepository struct {
	mu      sync.RWMutex
	store   MessageGetter
	inboxes map[string]*inbox
}

func NewInboxRepository(store MessageGetter) *InboxRepository {
	return &InboxRepository{
		store:   store,
		inboxes: make(map[string]*inbox),
	}
}

// Enqueue registers id as pending for recipient. Enqueuing an id that is
// already pending keeps its original position.
func (r *InboxRepository) Enqueue(recipient, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	box, ok := r.inboxes[recipient]
	if !ok {
		box = &inbox{pending: make(map[string]struct{})}
		r.inboxes[recipient] = box
	}

	if _, ok := box.pending[id]; ok {
		return
	}

	box.pending[id] = struct{}{}
	box.ids = append(box.ids, id)
}

// Snapshot returns the pending messages of recipient in enqueue order.
// Ids whose record is no longer in the store are skipped.
func (r *InboxRepository) Snapshot(recipient string) []model.Message {
	r.mu.RLock()
	box, ok := r.inboxes[recipient]
	if !ok {
		r.mu.RUnlock()
		return []model.Message{}
	}

	ids := make([]string, len(box.ids))
	copy(ids, box.ids)
	r.mu.RUnlock()

	messages := make([]model.Message, 0, len(ids))

	for _, id := range ids {
		message, err := r.store.Get(id)
		if err != nil {
			continue
		}

		messages = append(messages, message)
	}

	return messages
}

func (r *InboxRepository) Contains(recipient, id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	box, ok := r.inboxes[recipient]
	if !ok {
		return false
	}

	_, ok = box.pending[id]

	return ok
}

func (r *InboxRepository) Remove(recipient, id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	box, ok := r.inboxes[recipient]
	if !ok {
		return false
	}

	if _, ok := box.pending[id]; !ok {
		return false
	}

	delete(box.pending, id)

	for i, pendingID := range box.ids {
		if pendingID == id {
			box.ids = append(box.ids[:i], box.ids[i+1:]...)
			break
		}
	}

	if len(box.ids) == 0 {
		delete(r.inboxes, recipient)
	}

	return true
}

// Clear drops every pending entry of recipient and returns the dropped ids.
// The message store is left untouched.
func (r *InboxRepository) Clear(recipient string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	box, ok := r.inboxes[recipient]
	if !ok {
		return []string{}
	}

	delete(r.inboxes, recipient)

	return box.ids
}

func (r *InboxRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.inboxes)
}

func (r *InboxRepository) PendingCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := 0
	for _, box := range r.inboxes {
		total += len(box.ids)
	}

	return total
}
