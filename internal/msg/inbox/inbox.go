package inbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"relay-back/internal/apperrors"
	"relay-back/internal/model"
	"relay-back/pkg/kafka"
)

const messagePipeBuffer = 1000

const (
	ResultAccepted = "accepted"
	ResultInvalid  = "invalid"
	ResultError    = "error"
)

type Sender interface {
	SendIdempotent(ctx context.Context, key, from, to, content string) (string, error)
}

type Observer interface {
	IncIngest(result string)
}

type Config struct {
	Name        string
	WorkerCount int
	Topic       string
}

// Subscriber binds Send to a Kafka topic. The record key is the idempotency
// key, so a redelivered record is enqueued once.
type Subscriber struct {
	l        *zap.Logger
	cfg      Config
	consumer kafka.ConsumerGroupRunner
	sender   Sender
	observer Observer
}

func NewSubscriber(l *zap.Logger, cfg Config, consumer kafka.ConsumerGroupRunner, sender Sender, observer Observer) *Subscriber {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 1
	}

	return &Subscriber{
		l:        l,
		cfg:      cfg,
		consumer: consumer,
		sender:   sender,
		observer: observer,
	}
}

func (s *Subscriber) Run(ctx context.Context) {
	go s.consumer.Run()

	messagePipe := make(chan *kafka.MessageWithMarkFunc, messagePipeBuffer)

	var wg sync.WaitGroup

	for i := 0; i < s.cfg.WorkerCount; i++ {
		wg.Add(1)

		go func(id int) {
			defer wg.Done()
			s.worker(ctx, id, messagePipe)
		}(i)
	}

	defer wg.Wait()
	defer close(messagePipe)

	for {
		select {
		case <-ctx.Done():
			s.l.Info("Context canceled, stopping subscriber", zap.String("name", s.cfg.Name))

			return
		case msg, ok := <-s.consumer.Messages():
			if !ok {
				s.l.Info("Consumer messages channel closed", zap.String("name", s.cfg.Name))

				return
			}

			messagePipe <- msg
		}
	}
}

func (s *Subscriber) worker(ctx context.Context, id int, messagePipe <-chan *kafka.MessageWithMarkFunc) {
	s.l.Debug("Subscriber worker started", zap.Int("worker_id", id))

	for msg := range messagePipe {
		messageID, err := s.process(ctx, msg)

		switch {
		case err == nil:
			s.observe(ResultAccepted)
			s.l.Debug("Record accepted",
				zap.Int("worker_id", id),
				zap.String("message_id", messageID),
				zap.Int64("offset", msg.Message.Offset),
			)
		case errors.Is(err, apperrors.ErrInvalidInput):
			s.observe(ResultInvalid)
			s.l.Warn("Skipping malformed record",
				zap.Int("worker_id", id),
				zap.Int64("offset", msg.Message.Offset),
				zap.Error(err),
			)
		default:
			s.observe(ResultError)
			s.l.Error("Error processing record",
				zap.Int("worker_id", id),
				zap.Int64("offset", msg.Message.Offset),
				zap.Error(err),
			)

			continue
		}

		msg.Mark()
	}
}

func (s *Subscriber) process(ctx context.Context, msg *kafka.MessageWithMarkFunc) (string, error) {
	var record model.IngestRecord
	if err := json.Unmarshal(msg.Message.Value, &record); err != nil {
		return "", fmt.Errorf("%w: failed to unmarshal record: %w", apperrors.ErrInvalidInput, err)
	}

	id, err := s.sender.SendIdempotent(ctx, recordKey(msg.Message), record.From, record.To, record.Content)
	if err != nil {
		return "", fmt.Errorf("failed to send: %w", err)
	}

	return id, nil
}

func (s *Subscriber) observe(result string) {
	if s.observer != nil {
		s.observer.IncIngest(result)
	}
}

// recordKey is the idempotency key of a record. Unkeyed records fall back to
// their log position, which stays the same across redeliveries.
func recordKey(msg *sarama.ConsumerMessage) string {
	if len(msg.Key) > 0 {
		return string(msg.Key)
	}

	return fmt.Sprintf("%s/%d/%d", msg.Topic, msg.Partition, msg.Offset)
}
