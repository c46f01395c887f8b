package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"relay-back/internal/apperrors"
	"relay-back/internal/model"
)

const (
	defaultIdempotencyWindow = 10 * time.Minute
	defaultSubscriberBuffer  = 64
)

type MessageStore interface {
	Put(message model.Message)
	Get(id string) (model.Message, error)
	Update(id string, fn func(message *model.Message)) (model.Message, error)
	Delete(id string) bool
	Count() int
	Select(filter func(model.Message) bool) []model.Message
}

type InboxIndex interface {
	Enqueue(recipient, id string)
	Snapshot(recipient string) []model.Message
	Contains(recipient, id string) bool
	Remove(recipient, id string) bool
	Clear(recipient string) []string
	Count() int
	PendingCount() int
}

// EventSink receives every relay state transition. Publish is called while
// the affected inbox is locked and must return without blocking.
type EventSink interface {
	Publish(event model.MessageEvent)
}

type RelayConfig struct {
	// IdempotencyWindow bounds how long a retried Send key is remembered.
	// Zero selects the default; a negative value disables keyed dedup.
	IdempotencyWindow time.Duration
	SubscriberBuffer  int
}

type RelayOption func(s *RelayService)

func WithEventSink(sink EventSink) RelayOption {
	return func(s *RelayService) {
		s.sinks = append(s.sinks, sink)
	}
}

func WithClock(now func() time.Time) RelayOption {
	return func(s *RelayService) {
		s.now = now
	}
}

func WithIDGenerator(newID func() (string, error)) RelayOption {
	return func(s *RelayService) {
		s.newID = newID
	}
}

// RelayService owns the message store and the inbox index and is the only
// writer to either. Every mutation runs under the exclusive lock of the
// affected recipient, then touches the store and the index in that order,
// so no reader holding the same recipient lock can see one without the
// other. Sends to different recipients never contend.
type RelayService struct {
	store MessageStore
	inbox InboxIndex
	locks *keyedLocker
	idem  *idempotencyCache
	subs  *subscriptions
	sinks []EventSink
	newID func() (string, error)
	now   func() time.Time
}

func NewRelayService(store MessageStore, inbox InboxIndex, cfg RelayConfig, opts ...RelayOption) *RelayService {
	window := cfg.IdempotencyWindow
	if window == 0 {
		window = defaultIdempotencyWindow
	}

	buffer := cfg.SubscriberBuffer
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}

	s := &RelayService{
		store: store,
		inbox: inbox,
		locks: newKeyedLocker(),
		subs:  newSubscriptions(buffer),
		newID: newMessageID,
		now:   time.Now,
	}

	if window > 0 {
		s.idem = newIdempotencyCache(window)
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// newMessageID issues a UUIDv7: 48 bits of unix milliseconds followed by
// 74 bits from crypto/rand. The canonical string form is URL-safe.
func newMessageID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}

	return id.String(), nil
}

func validateSend(from, to, content string) error {
	switch {
	case from == "":
		return fmt.Errorf("%w: from is empty", apperrors.ErrInvalidInput)
	case to == "":
		return fmt.Errorf("%w: to is empty", apperrors.ErrInvalidInput)
	case content == "":
		return fmt.Errorf("%w: content is empty", apperrors.ErrInvalidInput)
	}

	return nil
}

// Send stores a new message and enqueues it for to in one step.
// Self-addressed messages are accepted.
func (s *RelayService) Send(ctx context.Context, from, to, content string) (string, error) {
	return s.SendIdempotent(ctx, "", from, to, content)
}

// SendIdempotent behaves like Send, except that a non-empty key already seen
// from the same sender inside the idempotency window returns the id issued
// the first time and enqueues nothing, even if that message was removed since.
// A retry racing the first request waits until that message is enqueued.
func (s *RelayService) SendIdempotent(ctx context.Context, key, from, to, content string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := validateSend(from, to, content); err != nil {
		return "", err
	}

	id, err := s.newID()
	if err != nil {
		return "", fmt.Errorf("failed to generate message id: %w", err)
	}

	now := s.now().UTC()

	var reserved *idempotencyEntry

	if key != "" && s.idem != nil {
		entry, found := s.idem.reserve(dedupeKey(from, key), id, now)
		if found {
			return entry.wait(ctx)
		}

		reserved = entry
	}

	message := model.Message{
		ID:        id,
		From:      from,
		To:        to,
		Content:   content,
		Timestamp: now,
	}

	unlock := s.locks.Lock(to)
	defer unlock()

	s.store.Put(message)
	s.inbox.Enqueue(to, id)

	if reserved != nil {
		reserved.markReady()
	}

	s.emit(model.MessageEvent{
		Kind:      model.EventEnqueued,
		Recipient: to,
		MessageID: id,
		Message:   &message,
		At:        now,
	})

	return id, nil
}

// Fetch returns the pending messages of userID in enqueue order. It never
// changes state; repeated calls return the same messages until they are
// removed.
func (s *RelayService) Fetch(ctx context.Context, userID string) ([]model.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if userID == "" {
		return nil, fmt.Errorf("%w: userId is empty", apperrors.ErrInvalidInput)
	}

	unlock := s.locks.RLock(userID)
	defer unlock()

	return s.inbox.Snapshot(userID), nil
}

// Get returns a stored message by id.
func (s *RelayService) Get(ctx context.Context, id string) (model.Message, error) {
	if err := ctx.Err(); err != nil {
		return model.Message{}, err
	}

	message, err := s.store.Get(id)
	if err != nil {
		return model.Message{}, err
	}

	// Waits out a Send to the same recipient that may still be enqueuing.
	unlock := s.locks.RLock(message.To)
	defer unlock()

	return s.store.Get(id)
}

// List returns stored messages where userID is sender or recipient, or all
// stored messages when userID is empty, oldest first.
func (s *RelayService) List(ctx context.Context, userID string) ([]model.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var filter func(model.Message) bool
	if userID != "" {
		filter = func(m model.Message) bool {
			return m.IsParticipant(userID)
		}
	}

	messages := s.store.Select(filter)

	sort.Slice(messages, func(i, j int) bool {
		if messages[i].Timestamp.Equal(messages[j].Timestamp) {
			return messages[i].ID < messages[j].ID
		}

		return messages[i].Timestamp.Before(messages[j].Timestamp)
	})

	return messages, nil
}

// Acknowledge marks the message verified. It is a no-op when the message is
// already verified and never touches the inbox.
func (s *RelayService) Acknowledge(ctx context.Context, id string) (model.Message, error) {
	if err := ctx.Err(); err != nil {
		return model.Message{}, err
	}

	if id == "" {
		return model.Message{}, fmt.Errorf("%w: id is empty", apperrors.ErrInvalidInput)
	}

	message, err := s.store.Get(id)
	if err != nil {
		return model.Message{}, err
	}

	unlock := s.locks.Lock(message.To)
	defer unlock()

	alreadyVerified := false

	message, err = s.store.Update(id, func(m *model.Message) {
		alreadyVerified = m.Verified
		m.Verified = true
	})
	if err != nil {
		return model.Message{}, err
	}

	if !alreadyVerified {
		s.emit(model.MessageEvent{
			Kind:      model.EventAcknowledged,
			Recipient: message.To,
			MessageID: id,
			Message:   &message,
			At:        s.now().UTC(),
		})
	}

	return message, nil
}

// Remove deletes a pending message from the recipient's inbox and from the
// store. userID must be the sender or the recipient; an empty userID skips
// the check. A second Remove of the same id returns ErrMessageDoesNotExist,
// which callers should read as "already handled".
func (s *RelayService) Remove(ctx context.Context, userID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if id == "" {
		return fmt.Errorf("%w: messageId is empty", apperrors.ErrInvalidInput)
	}

	message, err := s.store.Get(id)
	if err != nil {
		return err
	}

	if userID != "" && !message.IsParticipant(userID) {
		return apperrors.ErrPermissionDenied
	}

	recipient := message.To

	unlock := s.locks.Lock(recipient)
	defer unlock()

	current, err := s.store.Get(id)
	if err != nil || current.To != recipient || !s.inbox.Contains(recipient, id) {
		return apperrors.ErrMessageDoesNotExist
	}

	s.inbox.Remove(recipient, id)
	s.store.Delete(id)

	s.emit(model.MessageEvent{
		Kind:      model.EventRemoved,
		Recipient: recipient,
		MessageID: id,
		At:        s.now().UTC(),
	})

	return nil
}

// ClearInbox drops every pending entry of userID and returns the dropped
// ids. Without purge the messages stay in the store. With purge every stored
// message addressed to userID is deleted, including records left behind by
// an earlier clear without purge, and their ids are returned too.
func (s *RelayService) ClearInbox(ctx context.Context, userID string, purge bool) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if userID == "" {
		return nil, fmt.Errorf("%w: userId is empty", apperrors.ErrInvalidInput)
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	dropped := s.inbox.Clear(userID)

	if purge {
		for _, id := range dropped {
			s.store.Delete(id)
		}

		// Nothing addressed to userID is pending any more, so whatever is
		// still stored for them is an orphan.
		orphans := s.store.Select(func(m model.Message) bool {
			return m.To == userID
		})

		for _, message := range orphans {
			if s.store.Delete(message.ID) {
				dropped = append(dropped, message.ID)
			}
		}
	}

	if len(dropped) > 0 {
		s.emit(model.MessageEvent{
			Kind:      model.EventCleared,
			Recipient: userID,
			Dropped:   dropped,
			At:        s.now().UTC(),
		})
	}

	return dropped, nil
}

// Subscribe returns a channel of events for recipient and a cancel func that
// closes it. The channel is buffered; when it is full new events for this
// subscriber are dropped and the subscriber should Fetch again.
func (s *RelayService) Subscribe(recipient string) (<-chan model.MessageEvent, func(), error) {
	if recipient == "" {
		return nil, nil, fmt.Errorf("%w: userId is empty", apperrors.ErrInvalidInput)
	}

	ch, cancel, ok := s.subs.subscribe(recipient)
	if !ok {
		return nil, nil, apperrors.ErrRelayClosed
	}

	return ch, cancel, nil
}

func (s *RelayService) Health() model.RelayHealth {
	return model.RelayHealth{
		MessageCount: s.store.Count(),
		InboxCount:   s.inbox.Count(),
		PendingCount: s.inbox.PendingCount(),
	}
}

// DroppedEvents reports how many subscriber deliveries were lost to full
// buffers since start.
func (s *RelayService) DroppedEvents() uint64 {
	return s.subs.dropped.Load()
}

func (s *RelayService) Subscribers() int {
	return s.subs.count()
}

// Close ends every subscription. The relay keeps serving requests.
func (s *RelayService) Close() {
	s.subs.close()
}

func (s *RelayService) emit(event model.MessageEvent) {
	s.subs.publish(event)

	for _, sink := range s.sinks {
		sink.Publish(event)
	}
}
