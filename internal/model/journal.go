package model

import (
	"time"

	"github.com/google/uuid"
)

// JournalEntry is a relay event persisted by the durability extension and
// later replicated by the outbox publisher.
type JournalEntry struct {
	ID        uuid.UUID  `db:"id"`
	MessageID string     `db:"message_id"`
	Kind      EventKind  `db:"kind"`
	Payload   []byte     `db:"payload"`
	CreatedAt time.Time  `db:"created_at"`
	Sent      bool       `db:"sent"`
	SentAt    *time.Time `db:"sent_at"`
}
