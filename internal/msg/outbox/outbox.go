package outbox

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"relay-back/internal/model"
	"relay-back/internal/repository"
	"relay-back/pkg/kafka"
)

const (
	ResultSent  = "sent"
	ResultError = "error"
)

type Repository interface {
	UpdateAsSent(ctx context.Context, ext repository.RepoExtension, entryID uuid.UUID) error
	SelectUnsentBatch(ctx context.Context, ext repository.RepoExtension, batchSize int) ([]model.JournalEntry, error)
}

type Observer interface {
	IncPublished(result string)
}

type Config struct {
	Name         string
	Topic        string
	WorkerCount  int
	PollInterval time.Duration
	BatchSize    int
}

type job struct {
	entry model.JournalEntry
	done  *sync.WaitGroup
}

// Publisher replicates unsent journal entries to Kafka. Each poll hands one
// batch to the workers and waits for it before polling again, so an entry is
// never pushed twice by the same publisher.
type Publisher struct {
	l           *zap.Logger
	cfg         Config
	producer    kafka.Producer
	journalRepo Repository
	observer    Observer
}

func NewPublisher(l *zap.Logger, cfg Config, producer kafka.Producer, journalRepo Repository, observer Observer) *Publisher {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 1
	}

	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}

	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}

	return &Publisher{
		l:           l,
		cfg:         cfg,
		producer:    producer,
		journalRepo: journalRepo,
		observer:    observer,
	}
}

func (p *Publisher) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan job, p.cfg.BatchSize)
	defer close(jobs)

	for i := 0; i < p.cfg.WorkerCount; i++ {
		go p.worker(ctx, i, jobs)
	}

	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.l.Info("Outbox publisher stopped", zap.String("name", p.cfg.Name))

			return
		case <-ticker.C:
			entries, err := p.journalRepo.SelectUnsentBatch(ctx, nil, p.cfg.BatchSize)
			if err != nil {
				p.l.Error("Failed to select unsent journal entries", zap.Error(err))
				continue
			}

			if len(entries) == 0 {
				continue
			}

			var batch sync.WaitGroup

			batch.Add(len(entries))

			for _, entry := range entries {
				jobs <- job{entry: entry, done: &batch}
			}

			batch.Wait()
		}
	}
}

func (p *Publisher) worker(ctx context.Context, id int, jobs <-chan job) {
	p.l.Debug("Outbox worker started", zap.Int("worker_id", id))

	for j := range jobs {
		partition, offset, err := p.sendAndMark(ctx, j.entry)
		j.done.Done()

		if err != nil {
			p.observe(ResultError)
			p.l.Error("Failed to publish journal entry",
				zap.String("entry_id", j.entry.ID.String()),
				zap.Error(err),
			)

			continue
		}

		p.observe(ResultSent)
		p.l.Debug("Journal entry published",
			zap.String("entry_id", j.entry.ID.String()),
			zap.String("message_id", j.entry.MessageID),
			zap.Int32("partition", partition),
			zap.Int64("offset", offset),
		)
	}
}

func (p *Publisher) sendAndMark(ctx context.Context, entry model.JournalEntry) (partition int32, offset int64, err error) {
	partition, offset, err = p.producer.PushMessage(ctx, recordKey(entry), entry.Payload, p.cfg.Topic)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to push message: %w", err)
	}

	if err := p.journalRepo.UpdateAsSent(ctx, nil, entry.ID); err != nil {
		return 0, 0, fmt.Errorf("failed to update as sent: %w", err)
	}

	return partition, offset, nil
}

func (p *Publisher) observe(result string) {
	if p.observer != nil {
		p.observer.IncPublished(result)
	}
}

// recordKey partitions by message id so every event of one message lands in
// the same partition. Cleared events carry no message id and use the entry id.
func recordKey(entry model.JournalEntry) []byte {
	if entry.MessageID != "" {
		return []byte(entry.MessageID)
	}

	return []byte(entry.ID.String())
}
