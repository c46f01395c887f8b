package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/IBM/sarama"
)

const consumeRetryDelay = time.Second

type BalanceStrategy int

const (
	RoundrobinBalanceStrategy BalanceStrategy = iota
	RangeBalanceStrategy
	StickyBalanceStrategy
)

// MessageWithMarkFunc is a consumed record plus the callback that commits
// its offset once the caller is done with it.
type MessageWithMarkFunc struct {
	Message  *sarama.ConsumerMessage
	markFunc func()
}

func NewMessageWithMarkFunc(msg *sarama.ConsumerMessage, mark func()) *MessageWithMarkFunc {
	return &MessageWithMarkFunc{
		Message:  msg,
		markFunc: mark,
	}
}

func (m *MessageWithMarkFunc) Mark() {
	if m.markFunc != nil {
		m.markFunc()
	}
}

type ConsumerGroupRunner interface {
	Run()
	Messages() <-chan *MessageWithMarkFunc
	Info() <-chan string
	Shutdown() error
}

type ConsumerOption func(cfg *sarama.Config)

func WithBalancerConsumer(strategy BalanceStrategy) ConsumerOption {
	return func(cfg *sarama.Config) {
		switch strategy {
		case RangeBalanceStrategy:
			cfg.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRange()}
		case StickyBalanceStrategy:
			cfg.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategySticky()}
		default:
			cfg.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
		}
	}
}

type consumerGroupRunner struct {
	group    sarama.ConsumerGroup
	topics   []string
	messages chan *MessageWithMarkFunc
	info     chan string
	infoOnce sync.Once
	ctx      context.Context
	cancel   context.CancelFunc
	started  atomic.Bool
	done     chan struct{}
}

func NewConsumerGroupRunner(brokers []string, groupID string, topics []string, bufferSize int, opts ...ConsumerOption) (ConsumerGroupRunner, error) {
	cfg := sarama.NewConfig()
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest

	for _, opt := range opts {
		opt(cfg)
	}

	group, err := sarama.NewConsumerGroup(brokers, groupID, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group %s: %w", groupID, err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &consumerGroupRunner{
		group:    group,
		topics:   topics,
		messages: make(chan *MessageWithMarkFunc, bufferSize),
		info:     make(chan string, 1),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}, nil
}

// Run consumes until Shutdown. Consume returns on every rebalance, so it is
// called in a loop.
func (r *consumerGroupRunner) Run() {
	if !r.started.CompareAndSwap(false, true) {
		return
	}

	defer close(r.done)
	defer close(r.messages)

	for {
		if err := r.group.Consume(r.ctx, r.topics, r); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return
			}

			select {
			case <-r.ctx.Done():
				return
			case <-time.After(consumeRetryDelay):
			}
		}

		if r.ctx.Err() != nil {
			return
		}
	}
}

func (r *consumerGroupRunner) Messages() <-chan *MessageWithMarkFunc {
	return r.messages
}

func (r *consumerGroupRunner) Info() <-chan string {
	return r.info
}

func (r *consumerGroupRunner) Shutdown() error {
	r.cancel()

	err := r.group.Close()

	if r.started.Load() {
		<-r.done
	}

	if err != nil {
		return fmt.Errorf("failed to close consumer group: %w", err)
	}

	return nil
}

func (r *consumerGroupRunner) Setup(sarama.ConsumerGroupSession) error {
	r.infoOnce.Do(func() {
		r.info <- fmt.Sprintf("Consumer group started and running, topics: %v", r.topics)
	})

	return nil
}

func (r *consumerGroupRunner) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (r *consumerGroupRunner) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case <-session.Context().Done():
			return nil
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}

			wrapped := NewMessageWithMarkFunc(msg, func() {
				session.MarkMessage(msg, "")
			})

			select {
			case r.messages <- wrapped:
			case <-session.Context().Done():
				return nil
			}
		}
	}
}
