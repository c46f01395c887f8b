package repository

import (
	"sync"

	"relay-back/internal/apperrors"
	"relay-back/internal/model"
)

// MessageRepository is the authoritative in-memory store of message records.
// Values are copied in and out, so callers never observe a half-written
// message.
type MessageRepository struct {
	mu       sync.RWMutex
	messages map[string]model.Message
}

func NewMessageRepository() *MessageRepository {
	return &MessageRepository{
		messages: make(map[string]model.Message),
	}
}

// Put inserts or overwrites the record stored under message.ID.
func (r *MessageRepository) Put(message model.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.messages[message.ID] = message
}

func (r *MessageRepository) Get(id string) (model.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	message, ok := r.messages[id]
	if !ok {
		return model.Message{}, apperrors.ErrMessageDoesNotExist
	}

	return message, nil
}

// Update applies fn to the stored record under the write lock and returns
// the result. fn must not change the id.
func (r *MessageRepository) Update(id string, fn func(message *model.Message)) (model.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	message, ok := r.messages[id]
	if !ok {
		return model.Message{}, apperrors.ErrMessageDoesNotExist
	}

	fn(&message)
	r.messages[id] = message

	return message, nil
}

func (r *MessageRepository) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.messages[id]; !ok {
		return false
	}

	delete(r.messages, id)

	return true
}

func (r *MessageRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.messages)
}

// Select returns copies of every record accepted by filter, in no particular
// order. A nil filter selects everything.
func (r *MessageRepository) Select(filter func(model.Message) bool) []model.Message {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]model.Message, 0, len(r.messages))

	for _, message := range r.messages {
		if filter == nil || filter(message) {
			result = append(result, message)
		}
	}

	return result
}
