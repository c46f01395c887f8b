package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"relay-back/internal/model"
	"relay-back/internal/repository"
)

const (
	defaultQueueSize   = 4096
	defaultWorkerCount = 1
	defaultTimeout     = 5 * time.Second
	drainTimeout       = 10 * time.Second
)

type Repository interface {
	InsertEntry(ctx context.Context, ext repository.RepoExtension, entry model.JournalEntry) error
}

type Config struct {
	QueueSize   int
	WorkerCount int
	Timeout     time.Duration
}

// Sink persists relay events into the journal table. Publish only enqueues;
// workers started by Run do the writes. A full queue drops the event.
type Sink struct {
	l    *zap.Logger
	cfg  Config
	repo Repository

	queue chan model.JournalEntry

	written atomic.Uint64
	failed  atomic.Uint64
	dropped atomic.Uint64
}

func NewSink(l *zap.Logger, cfg Config, repo Repository) *Sink {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = defaultWorkerCount
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	return &Sink{
		l:     l,
		cfg:   cfg,
		repo:  repo,
		queue: make(chan model.JournalEntry, cfg.QueueSize),
	}
}

// Publish implements service.EventSink.
func (s *Sink) Publish(event model.MessageEvent) {
	entry, err := newEntry(event)
	if err != nil {
		s.failed.Add(1)
		s.l.Error("Failed to build journal entry", zap.String("kind", string(event.Kind)), zap.Error(err))

		return
	}

	select {
	case s.queue <- entry:
	default:
		s.dropped.Add(1)
	}
}

// Run starts the writers and blocks until ctx is done. Entries still queued
// at that point are flushed with a fresh deadline.
func (s *Sink) Run(ctx context.Context) {
	var wg sync.WaitGroup

	for i := 0; i < s.cfg.WorkerCount; i++ {
		wg.Add(1)

		go func(id int) {
			defer wg.Done()
			s.worker(ctx, id)
		}(i)
	}

	wg.Wait()

	s.drain()

	s.l.Info("Journal sink stopped",
		zap.Uint64("written", s.written.Load()),
		zap.Uint64("failed", s.failed.Load()),
		zap.Uint64("dropped", s.dropped.Load()),
	)
}

func (s *Sink) Dropped() uint64 {
	return s.dropped.Load()
}

func (s *Sink) Written() uint64 {
	return s.written.Load()
}

func (s *Sink) worker(ctx context.Context, id int) {
	s.l.Debug("Journal worker started", zap.Int("worker_id", id))

	for {
		select {
		case <-ctx.Done():
			return
		case entry := <-s.queue:
			s.write(ctx, entry)
		}
	}
}

func (s *Sink) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	for {
		select {
		case entry := <-s.queue:
			s.write(ctx, entry)
		default:
			return
		}
	}
}

func (s *Sink) write(ctx context.Context, entry model.JournalEntry) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	if err := s.repo.InsertEntry(ctx, nil, entry); err != nil {
		s.failed.Add(1)
		s.l.Error("Failed to write journal entry",
			zap.String("entry_id", entry.ID.String()),
			zap.String("message_id", entry.MessageID),
			zap.Error(err),
		)

		return
	}

	s.written.Add(1)
}

func newEntry(event model.MessageEvent) (model.JournalEntry, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return model.JournalEntry{}, fmt.Errorf("failed to generate entry id: %w", err)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return model.JournalEntry{}, fmt.Errorf("failed to marshal event: %w", err)
	}

	return model.JournalEntry{
		ID:        id,
		MessageID: event.MessageID,
		Kind:      event.Kind,
		Payload:   payload,
		CreatedAt: event.At,
	}, nil
}
