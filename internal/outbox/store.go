package outbox

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"medrec/pkg/db"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"
)

// lastError column is bounded; longer publish errors get truncated.
const maxLastErrorLen = 500

const (
	insertRecordSQL = `
INSERT INTO outbox_records (id, topic, payload, created_at, retry_count)
VALUES ($1, $2, ($3)::jsonb, now(), 0)`

	selectPendingSQL = `
SELECT id, topic, payload, created_at, sent_at, retry_count, last_error
FROM outbox_records
WHERE sent_at IS NULL AND retry_count < $2
ORDER BY created_at ASC
LIMIT $1`

	markSentSQL = `
UPDATE outbox_records
SET sent_at = $2, last_error = NULL
WHERE id = $1 AND sent_at IS NULL`

	markFailedSQL = `
UPDATE outbox_records
SET retry_count = retry_count + 1, last_error = $2
WHERE id = $1 AND sent_at IS NULL`

	countPendingSQL = `
SELECT count(*) FROM outbox_records
WHERE sent_at IS NULL AND retry_count < $1`

	countExhaustedSQL = `
SELECT count(*) FROM outbox_records
WHERE sent_at IS NULL AND retry_count >= $1`
)

type Store interface {
	// Insert participates in any transaction carried by ctx, so the record
	// commits or rolls back together with the domain mutation.
	Insert(ctx context.Context, rec *OutboxRecord) error
	SelectPending(ctx context.Context, limit, maxRetryCount int) ([]OutboxRecord, error)
	MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, publishErr string) error
	// CountPending reports the whole deliverable backlog, not just one batch.
	CountPending(ctx context.Context, maxRetryCount int) (int64, error)
	CountExhausted(ctx context.Context, threshold int) (int64, error)
}

type PgStore struct {
	db     db.DB
	logger *zap.SugaredLogger
}

func NewPgStore(db db.DB, logger *zap.SugaredLogger) *PgStore {
	return &PgStore{db: db, logger: logger}
}

func (s *PgStore) Insert(ctx context.Context, rec *OutboxRecord) error {
	s.logger.Debugf("[record %s] insert outbox, topic: %s", rec.ID, rec.Topic)

	_, err := s.db.Exec(ctx, insertRecordSQL, rec.ID, rec.Topic, []byte(rec.Payload))
	if err != nil {
		return fmt.Errorf("insert outbox record: %w", err)
	}

	return nil
}

func (s *PgStore) SelectPending(ctx context.Context, limit, maxRetryCount int) ([]OutboxRecord, error) {
	rows, err := s.db.Query(ctx, selectPendingSQL, limit, maxRetryCount)
	if err != nil {
		return nil, fmt.Errorf("select pending outbox: %w", err)
	}
	defer rows.Close()

	var res []OutboxRecord
	for rows.Next() {
		var rec OutboxRecord
		if err := rows.Scan(
			&rec.ID, &rec.Topic, &rec.Payload,
			&rec.CreatedAt, &rec.SentAt, &rec.RetryCount, &rec.LastError,
		); err != nil {
			return nil, fmt.Errorf("scan outbox record: %w", err)
		}
		res = append(res, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pending rows err: %w", err)
	}

	return res, nil
}

func (s *PgStore) MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	result, err := s.db.Exec(ctx, markSentSQL, id, at)
	if err != nil {
		return fmt.Errorf("outbox mark sent: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("[record %s] not pending, mark sent skipped", id)
	}

	return nil
}

func (s *PgStore) MarkFailed(ctx context.Context, id uuid.UUID, publishErr string) error {
	_, err := s.db.Exec(ctx, markFailedSQL, id, truncateLastError(publishErr))
	if err != nil {
		return fmt.Errorf("outbox mark failed: %w", err)
	}

	return nil
}

// truncateLastError bounds the stored error without splitting a rune; the
// column is TEXT, Postgres rejects invalid UTF-8.
func truncateLastError(s string) string {
	if len(s) <= maxLastErrorLen {
		return s
	}
	cut := maxLastErrorLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func (s *PgStore) CountPending(ctx context.Context, maxRetryCount int) (int64, error) {
	var n int64
	if err := s.db.QueryRow(ctx, countPendingSQL, maxRetryCount).Scan(&n); err != nil {
		return 0, fmt.Errorf("count pending outbox: %w", err)
	}
	return n, nil
}

func (s *PgStore) CountExhausted(ctx context.Context, threshold int) (int64, error) {
	var n int64
	if err := s.db.QueryRow(ctx, countExhaustedSQL, threshold).Scan(&n); err != nil {
		return 0, fmt.Errorf("count exhausted outbox: %w", err)
	}
	return n, nil
}
