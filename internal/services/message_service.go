package services

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/isdelr/anon-messaging-be/internal/apperr"
	"github.com/isdelr/anon-messaging-be/internal/models"
	"github.com/isdelr/anon-messaging-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

// MessageServiceProvider defines the interface for message services.
type MessageServiceProvider interface {
	SendMessage(ctx context.Context, fromUserID, toUserID int64, body string, anonymous bool) (int64, error)
	ListMessagesFor(ctx context.Context, callerID, requestedUserID int64) ([]models.MessageView, error)
}

// InboxPublisher pushes frames to a user's live connections.
type InboxPublisher interface {
	PublishToUser(userID int64, message []byte)
}

// MessageService stores messages and enforces inbox ownership.
type MessageService struct {
	db     *sql.DB
	events EventServiceProvider
	inbox  InboxPublisher
	now    func() time.Time
}

// NewMessageService creates a new MessageService. inbox may be nil.
func NewMessageService(db *sql.DB, events EventServiceProvider, inbox InboxPublisher) *MessageService {
	return &MessageService{db: db, events: events, inbox: inbox, now: time.Now}
}

// SendMessage stores a message from the caller. The sender is recorded even
// when anonymous is set; the recipient is not checked for existence.
func (s *MessageService) SendMessage(ctx context.Context, fromUserID, toUserID int64, body string, anonymous bool) (int64, error) {
	if toUserID == 0 || strings.TrimSpace(body) == "" {
		return 0, apperr.New(apperr.InvalidInput, "to_user and body required")
	}

	msg := models.Message{
		FromUser:  &fromUserID,
		ToUser:    toUserID,
		Anonymous: anonymous,
		Body:      body,
		CreatedAt: time.UnixMilli(toMillis(s.now())).UTC(),
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO messages (from_user, to_user, anonymous, body, created_at) VALUES (?, ?, ?, ?, ?)",
		fromUserID, msg.ToUser, msg.Anonymous, msg.Body, toMillis(msg.CreatedAt),
	)
	if err != nil {
		return 0, apperr.Wrap(apperr.Internal, err, "insert message")
	}
	if msg.ID, err = res.LastInsertId(); err != nil {
		return 0, apperr.Wrap(apperr.Internal, err, "read message id")
	}

	if s.events != nil {
		if err := s.events.CreateEvent(ctx, EventMessageSend, "info", "Message stored", &fromUserID); err != nil {
			log.Warn().Err(err).Int64("message_id", msg.ID).Msg("Failed to record event")
		}
	}
	s.publish(msg)

	return msg.ID, nil
}

// ListMessagesFor returns the messages addressed to requestedUserID, newest
// first. Callers may only read their own inbox.
func (s *MessageService) ListMessagesFor(ctx context.Context, callerID, requestedUserID int64) ([]models.MessageView, error) {
	if callerID != requestedUserID {
		return nil, apperr.New(apperr.Forbidden, "forbidden")
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, from_user, to_user, anonymous, body, created_at FROM messages WHERE to_user = ? ORDER BY created_at DESC, id DESC",
		requestedUserID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "list messages")
	}
	defer rows.Close()

	views := []models.MessageView{}
	for rows.Next() {
		var (
			m         models.Message
			from      sql.NullInt64
			createdAt int64
		)
		if err := rows.Scan(&m.ID, &from, &m.ToUser, &m.Anonymous, &m.Body, &createdAt); err != nil {
			return nil, apperr.Wrap(apperr.Internal, err, "scan message")
		}
		if from.Valid {
			id := from.Int64
			m.FromUser = &id
		}
		m.CreatedAt = fromMillis(createdAt)
		views = append(views, m.View())
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "list messages")
	}
	return views, nil
}

func (s *MessageService) publish(msg models.Message) {
	if s.inbox == nil {
		return
	}
	frame, err := websocket.NewInboxMessage(msg.View())
	if err != nil {
		log.Warn().Err(err).Int64("message_id", msg.ID).Msg("Failed to encode inbox frame")
		return
	}
	s.inbox.PublishToUser(msg.ToUser, frame)
}
