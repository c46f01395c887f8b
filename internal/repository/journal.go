package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"relay-back/internal/model"
)

type JournalRepository struct {
	db *pgxpool.Pool
}

func NewJournalRepository(db *pgxpool.Pool) *JournalRepository {
	return &JournalRepository{
		db: db,
	}
}

func (r *JournalRepository) InsertEntry(ctx context.Context, ext RepoExtension, entry model.JournalEntry) error {
	if ext == nil {
		ext = r.db
	}

	const query = `
        INSERT INTO relay.journal (id, message_id, kind, payload)
		VALUES ($1, $2, $3, $4)
        ON CONFLICT DO NOTHING;
    `

	_, err := ext.Exec(ctx, query, entry.ID, entry.MessageID, string(entry.Kind), entry.Payload)
	if err != nil {
		return err
	}

	return nil
}

func (r *JournalRepository) UpdateAsSent(ctx context.Context, ext RepoExtension, entryID uuid.UUID) error {
	if ext == nil {
		ext = r.db
	}

	const query = `
        UPDATE relay.journal
        SET sent = true, sent_at = NOW()
        WHERE id = $1;
    `

	_, err := ext.Exec(ctx, query, entryID)
	if err != nil {
		return err
	}

	return nil
}

func (r *JournalRepository) SelectUnsentBatch(ctx context.Context, ext RepoExtension, batchSize int) ([]model.JournalEntry, error) {
	if ext == nil {
		ext = r.db
	}

	var entries []model.JournalEntry

	const query = `
        SELECT id, message_id, kind, payload, created_at, sent, sent_at
        FROM relay.journal
        WHERE sent = false
        ORDER BY created_at
        LIMIT $1;
    `

	rows, err := ext.Query(ctx, query, batchSize)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	for rows.Next() {
		var (
			entry model.JournalEntry
			kind  string
		)

		if err := rows.Scan(
			&entry.ID,
			&entry.MessageID,
			&kind,
			&entry.Payload,
			&entry.CreatedAt,
			&entry.Sent,
			&entry.SentAt,
		); err != nil {
			return nil, err
		}

		entry.Kind = model.EventKind(kind)
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

func (r *JournalRepository) IsOK(ctx context.Context) (bool, error) {
	if err := r.db.Ping(ctx); err != nil {
		return false, err
	}

	return true, nil
}
