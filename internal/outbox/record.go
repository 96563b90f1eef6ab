package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
)

// OutboxRecord is one pending or delivered event. A nil SentAt means pending;
// the relay is the only writer after creation, and SentAt is set exactly once.
type OutboxRecord struct {
	ID         uuid.UUID       `db:"id"`
	Topic      string          `db:"topic"`
	Payload    json.RawMessage `db:"payload"`
	CreatedAt  time.Time       `db:"created_at"`
	SentAt     *time.Time      `db:"sent_at"`
	RetryCount int             `db:"retry_count"`
	LastError  *string         `db:"last_error"`
}

// NewRecord marshals the event body and addresses it to a topic.
func NewRecord(topic string, event any) (*OutboxRecord, error) {
	if topic == "" {
		return nil, fmt.Errorf("outbox record: empty topic")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal outbox payload: %w", err)
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("outbox record id: %w", err)
	}

	return &OutboxRecord{
		ID:      id,
		Topic:   topic,
		Payload: payload,
	}, nil
}

func (r *OutboxRecord) Pending() bool {
	return r.SentAt == nil
}
