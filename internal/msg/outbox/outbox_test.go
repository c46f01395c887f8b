package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"relay-back/internal/model"
	"relay-back/internal/repository"
)

type fakeJournal struct {
	mu      sync.Mutex
	entries []model.JournalEntry
}

func (j *fakeJournal) SelectUnsentBatch(_ context.Context, _ repository.RepoExtension, batchSize int) ([]model.JournalEntry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	var batch []model.JournalEntry

	for _, entry := range j.entries {
		if !entry.Sent && len(batch) < batchSize {
			batch = append(batch, entry)
		}
	}

	return batch, nil
}

func (j *fakeJournal) UpdateAsSent(_ context.Context, _ repository.RepoExtension, entryID uuid.UUID) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	for i := range j.entries {
		if j.entries[i].ID == entryID {
			j.entries[i].Sent = true
		}
	}

	return nil
}

func (j *fakeJournal) unsent() int {
	j.mu.Lock()
	defer j.mu.Unlock()

	n := 0

	for _, entry := range j.entries {
		if !entry.Sent {
			n++
		}
	}

	return n
}

type pushed struct {
	key   string
	topic string
}

type fakeProducer struct {
	mu     sync.Mutex
	pushed []pushed
	err    error
}

func (p *fakeProducer) PushMessage(_ context.Context, key, _ []byte, topic string) (int32, int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return 0, 0, p.err
	}

	p.pushed = append(p.pushed, pushed{key: string(key), topic: topic})

	return 0, int64(len(p.pushed)), nil
}

func (p *fakeProducer) Close() error {
	return nil
}

func (p *fakeProducer) records() []pushed {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]pushed(nil), p.pushed...)
}

type countingObserver struct {
	mu     sync.Mutex
	counts map[string]int
}

func (o *countingObserver) IncPublished(result string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.counts == nil {
		o.counts = make(map[string]int)
	}

	o.counts[result]++
}

func (o *countingObserver) get(result string) int {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.counts[result]
}

func newEntries(messageIDs ...string) []model.JournalEntry {
	entries := make([]model.JournalEntry, 0, len(messageIDs))

	for _, id := range messageIDs {
		entries = append(entries, model.JournalEntry{
			ID:        uuid.New(),
			MessageID: id,
			Kind:      model.EventEnqueued,
			Payload:   []byte(`{}`),
		})
	}

	return entries
}

func runUntil(t *testing.T, p *Publisher, cond func() bool) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		p.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for !cond() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	<-done
}

func TestPublisherPublishesAndMarks(t *testing.T) {
	journal := &fakeJournal{entries: newEntries("m1", "m2", "m3", "m4", "m5")}
	journal.entries = append(journal.entries, model.JournalEntry{ID: uuid.New(), Kind: model.EventCleared, Payload: []byte(`{}`)})

	producer := &fakeProducer{}
	observer := &countingObserver{}

	p := NewPublisher(zap.NewNop(), Config{
		Topic:        "relay.events",
		WorkerCount:  2,
		PollInterval: 5 * time.Millisecond,
		BatchSize:    2,
	}, producer, journal, observer)

	runUntil(t, p, func() bool { return journal.unsent() == 0 })

	if n := journal.unsent(); n != 0 {
		t.Fatalf("%d entries left unsent", n)
	}

	records := producer.records()
	if len(records) != 6 {
		t.Fatalf("pushed %d records, want 6", len(records))
	}

	keys := make(map[string]bool)

	for _, r := range records {
		if r.topic != "relay.events" {
			t.Errorf("topic = %q", r.topic)
		}

		if keys[r.key] {
			t.Errorf("key %q pushed twice", r.key)
		}

		keys[r.key] = true
	}

	if !keys["m1"] || !keys[journal.entries[5].ID.String()] {
		t.Errorf("unexpected keys %v", keys)
	}

	if got := observer.get(ResultSent); got != 6 {
		t.Errorf("sent observations = %d, want 6", got)
	}
}

func TestPublisherLeavesFailedEntriesUnsent(t *testing.T) {
	journal := &fakeJournal{entries: newEntries("m1", "m2")}
	producer := &fakeProducer{err: errors.New("broker unavailable")}
	observer := &countingObserver{}

	p := NewPublisher(zap.NewNop(), Config{
		Topic:        "relay.events",
		PollInterval: 5 * time.Millisecond,
	}, producer, journal, observer)

	runUntil(t, p, func() bool { return observer.get(ResultError) >= 2 })

	if n := journal.unsent(); n != 2 {
		t.Fatalf("unsent = %d, want 2", n)
	}

	if observer.get(ResultSent) != 0 {
		t.Fatalf("no entry should be reported as sent")
	}
}
