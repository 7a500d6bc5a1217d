package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Event types recorded by the services.
const (
	EventUserSignup    = "user.signup"
	EventUserLogin     = "user.login"
	EventUserLoginFail = "user.login.fail"
	EventMessageSend   = "message.send"
)

// EventServiceProvider defines the interface for event services.
type EventServiceProvider interface {
	CreateEvent(ctx context.Context, eventType, level, message string, userID *int64) error
	PruneEventsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// EventService persists the audit trail.
type EventService struct {
	db  *sql.DB
	now func() time.Time
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB) *EventService {
	return &EventService{db: db, now: time.Now}
}

// CreateEvent logs a new event to the database.
func (s *EventService) CreateEvent(ctx context.Context, eventType, level, message string, userID *int64) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO events (id, type, level, message, user_id, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		uuid.New().String(), eventType, level, message, userID, toMillis(s.now()),
	)
	return err
}

// PruneEventsBefore deletes events created before cutoff and reports how many
// were removed.
func (s *EventService) PruneEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM events WHERE created_at < ?", toMillis(cutoff))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// toMillis normalizes timestamps into millisecond precision for storage.
func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// fromMillis restores millisecond precision and keeps UTC normalization.
func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}
