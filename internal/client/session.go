package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"relay-back/internal/apperrors"
	"relay-back/internal/model"
)

const (
	defaultPollInterval = 2 * time.Second
	seenCapacity        = 4096
)

const (
	frameSnapshot = "snapshot"
	frameEvent    = "event"
	frameDone     = "done"
	frameError    = "error"
)

// MessageHandler is called once per delivered message. A non-nil error
// leaves the message pending so it is delivered again on the next round.
type MessageHandler func(ctx context.Context, message model.Message) error

type frame struct {
	Type  string              `json:"type"`
	Data  []model.Message     `json:"data"`
	Event *model.MessageEvent `json:"event"`
	Err   string              `json:"error"`
}

type SessionOption func(s *Session)

func WithPollInterval(interval time.Duration) SessionOption {
	return func(s *Session) {
		s.interval = interval
	}
}

func WithLogger(log *zap.Logger) SessionOption {
	return func(s *Session) {
		s.log = log
	}
}

// Session receives the inbox of one identity. Every message goes through
// handler, Acknowledge and Remove in that order. A message that arrives
// already verified, or whose id this session handled before, skips the
// handler and is only removed.
type Session struct {
	client   *Client
	userID   string
	handler  MessageHandler
	interval time.Duration
	log      *zap.Logger

	mu        sync.Mutex
	seen      map[string]struct{}
	seenOrder []string
}

func NewSession(client *Client, userID string, handler MessageHandler, opts ...SessionOption) *Session {
	s := &Session{
		client:   client,
		userID:   userID,
		handler:  handler,
		interval: defaultPollInterval,
		log:      zap.NewNop(),
		seen:     make(map[string]struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Run polls the inbox until ctx is done. Failed rounds are logged and
// retried on the next tick.
func (s *Session) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.Poll(ctx); err != nil && ctx.Err() == nil {
			s.log.Warn("Failed to poll inbox", zap.String("user_id", s.userID), zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Poll runs one fetch round and reports how many messages were handed to the
// handler.
func (s *Session) Poll(ctx context.Context) (int, error) {
	messages, err := s.client.Fetch(ctx, s.userID)
	if err != nil {
		return 0, fmt.Errorf("fetch inbox: %w", err)
	}

	delivered := 0

	for _, message := range messages {
		ok, err := s.deliver(ctx, message)
		if err != nil {
			s.log.Warn("Failed to deliver message", zap.String("message_id", message.ID), zap.Error(err))
			continue
		}

		if ok {
			delivered++
		}
	}

	return delivered, nil
}

// Watch streams the inbox over the websocket endpoint until ctx is done or
// the server ends the stream.
func (s *Session) Watch(ctx context.Context) error {
	wsURL, err := s.streamURL()
	if err != nil {
		return err
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			return statusError(resp.StatusCode, "websocket dial failed")
		}

		return fmt.Errorf("dial %s: %w", wsURL, err)
	}
	defer func() { _ = conn.Close() }()

	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
	})
	defer stop()

	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}

			return fmt.Errorf("read frame: %w", err)
		}

		switch f.Type {
		case frameSnapshot:
			for _, message := range f.Data {
				s.deliverLogged(ctx, message)
			}
		case frameEvent:
			if f.Event != nil && f.Event.Kind == model.EventEnqueued && f.Event.Message != nil {
				s.deliverLogged(ctx, *f.Event.Message)
			}
		case frameDone:
			return nil
		case frameError:
			return fmt.Errorf("stream: %s", f.Err)
		}
	}
}

func (s *Session) deliverLogged(ctx context.Context, message model.Message) {
	if _, err := s.deliver(ctx, message); err != nil {
		s.log.Warn("Failed to deliver message", zap.String("message_id", message.ID), zap.Error(err))
	}
}

// deliver reports whether the handler ran for message.
func (s *Session) deliver(ctx context.Context, message model.Message) (bool, error) {
	handled := message.Verified || s.wasSeen(message.ID)

	if !handled {
		if err := s.handler(ctx, message); err != nil {
			return false, fmt.Errorf("handle: %w", err)
		}

		s.markSeen(message.ID)

		if _, err := s.client.Acknowledge(ctx, message.ID); err != nil && !errors.Is(err, apperrors.ErrMessageDoesNotExist) {
			return true, fmt.Errorf("acknowledge: %w", err)
		}
	}

	err := s.client.Remove(ctx, s.userID, message.ID)
	if err != nil && !errors.Is(err, apperrors.ErrMessageDoesNotExist) {
		return !handled, fmt.Errorf("remove: %w", err)
	}

	return !handled, nil
}

func (s *Session) wasSeen(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.seen[id]

	return ok
}

// markSeen remembers id. The oldest ids are evicted past seenCapacity.
func (s *Session) markSeen(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[id]; ok {
		return
	}

	s.seen[id] = struct{}{}
	s.seenOrder = append(s.seenOrder, id)

	if len(s.seenOrder) > seenCapacity {
		delete(s.seen, s.seenOrder[0])
		s.seenOrder = s.seenOrder[1:]
	}
}

func (s *Session) streamURL() (string, error) {
	u, err := url.Parse(s.client.baseURL + "/inbox/ws")
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	}

	u.RawQuery = url.Values{"userId": {s.userID}}.Encode()

	return u.String(), nil
}
