package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/isdelr/anon-messaging-be/internal/apperr"
	"github.com/isdelr/anon-messaging-be/internal/models"
	"github.com/isdelr/anon-messaging-be/internal/websocket"
)

func TestSendAndListMessages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, a := f.signup(t, "+15550001", "pw1")
	_, b := f.signup(t, "+15550002", "pw2")

	anonID, err := f.messages.SendMessage(ctx, b, a, "hi", true)
	if err != nil {
		t.Fatalf("SendMessage() error: %v", err)
	}
	if anonID != 1 {
		t.Fatalf("expected first message id 1, got %d", anonID)
	}
	namedID, err := f.messages.SendMessage(ctx, b, a, "it's me", false)
	if err != nil {
		t.Fatalf("SendMessage() error: %v", err)
	}

	views, err := f.messages.ListMessagesFor(ctx, a, a)
	if err != nil {
		t.Fatalf("ListMessagesFor() error: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 messages, got %+v", views)
	}

	byID := map[int64]models.MessageView{}
	for _, v := range views {
		byID[v.ID] = v
	}
	if v := byID[anonID]; v.From != nil || !v.Anonymous || v.Body != "hi" {
		t.Fatalf("anonymous message leaked sender: %+v", v)
	}
	if v := byID[namedID]; v.From == nil || *v.From != b || v.Anonymous {
		t.Fatalf("named message must show sender %d: %+v", b, v)
	}

	// Anonymity is a read-time policy; the sender is still stored.
	var from int64
	if err := f.db.QueryRow("SELECT from_user FROM messages WHERE id = ?", anonID).Scan(&from); err != nil {
		t.Fatalf("read from_user: %v", err)
	}
	if from != b {
		t.Fatalf("expected stored sender %d, got %d", b, from)
	}

	own, err := f.messages.ListMessagesFor(ctx, b, b)
	if err != nil {
		t.Fatalf("ListMessagesFor() error: %v", err)
	}
	if len(own) != 0 || own == nil {
		t.Fatalf("expected empty inbox for sender, got %#v", own)
	}
}

func TestListMessagesFor_OtherInboxForbidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, a := f.signup(t, "+15550001", "pw1")
	_, b := f.signup(t, "+15550002", "pw2")

	if _, err := f.messages.SendMessage(ctx, a, b, "secret", false); err != nil {
		t.Fatalf("SendMessage() error: %v", err)
	}

	_, err := f.messages.ListMessagesFor(ctx, a, b)
	if !apperr.Is(err, apperr.Forbidden) {
		t.Fatalf("expected Forbidden, got %v", err)
	}
}

func TestListMessagesFor_Ordering(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	base := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	clock := []time.Time{base, base.Add(time.Minute), base.Add(time.Minute), base.Add(30 * time.Second)}
	i := 0
	f.messages.now = func() time.Time {
		now := clock[i]
		i++
		return now
	}

	var ids []int64
	for _, body := range []string{"first", "second", "third", "fourth"} {
		id, err := f.messages.SendMessage(ctx, 2, 1, body, false)
		if err != nil {
			t.Fatalf("SendMessage() error: %v", err)
		}
		ids = append(ids, id)
	}

	views, err := f.messages.ListMessagesFor(ctx, 1, 1)
	if err != nil {
		t.Fatalf("ListMessagesFor() error: %v", err)
	}

	// Newest first; equal timestamps keep a stable order by id, later inserts first.
	want := []int64{ids[2], ids[1], ids[3], ids[0]}
	for n, v := range views {
		if v.ID != want[n] {
			t.Fatalf("position %d: expected id %d, got %d (all: %+v)", n, want[n], v.ID, views)
		}
	}
	if !views[3].CreatedAt.Equal(base) {
		t.Fatalf("expected created_at %v, got %v", base, views[3].CreatedAt)
	}
}

func TestSendMessage_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name string
		to   int64
		body string
	}{
		{"missing recipient", 0, "hi"},
		{"missing body", 1, ""},
		{"blank body", 1, "  \n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.messages.SendMessage(ctx, 1, tc.to, tc.body, false)
			if !apperr.Is(err, apperr.InvalidInput) {
				t.Fatalf("expected InvalidInput, got %v", err)
			}
		})
	}
	if n := countRows(t, f.db, "SELECT COUNT(*) FROM messages"); n != 0 {
		t.Fatalf("expected no rows, got %d", n)
	}
}

func TestSendMessage_UnknownRecipientAccepted(t *testing.T) {
	f := newFixture(t)
	if _, err := f.messages.SendMessage(context.Background(), 1, 4040, "hello?", false); err != nil {
		t.Fatalf("expected insert to unknown recipient to succeed, got %v", err)
	}
}

func TestSendMessage_PublishesRecipientView(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.messages.SendMessage(ctx, 2, 1, "psst", true)
	if err != nil {
		t.Fatalf("SendMessage() error: %v", err)
	}

	if len(f.inbox.sent) != 1 {
		t.Fatalf("expected one published frame, got %d", len(f.inbox.sent))
	}
	got := f.inbox.sent[0]
	if got.userID != 1 {
		t.Fatalf("expected frame for recipient 1, got %d", got.userID)
	}

	var frame struct {
		Action  string             `json:"action"`
		Payload models.MessageView `json:"payload"`
	}
	if err := json.Unmarshal(got.message, &frame); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	if frame.Action != websocket.ActionInboxMessage {
		t.Fatalf("unexpected action %q", frame.Action)
	}
	if frame.Payload.ID != id || frame.Payload.From != nil || !frame.Payload.Anonymous {
		t.Fatalf("frame must carry the anonymized view, got %+v", frame.Payload)
	}
}

func TestSendMessage_NilInbox(t *testing.T) {
	db := newTestDB(t)
	svc := NewMessageService(db, nil, nil)
	if _, err := svc.SendMessage(context.Background(), 1, 2, "hi", false); err != nil {
		t.Fatalf("SendMessage() error: %v", err)
	}
}
