package models

import "time"

// Message is a stored message row. FromUser is always recorded, even for
// anonymous messages.
type Message struct {
	ID        int64
	FromUser  *int64
	ToUser    int64
	Anonymous bool
	Body      string
	CreatedAt time.Time
}

// MessageView is a message as its recipient sees it.
type MessageView struct {
	ID        int64     `json:"id"`
	From      *int64    `json:"from"`
	Anonymous bool      `json:"anonymous"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// View projects m for its recipient, withholding the sender when anonymous.
func (m Message) View() MessageView {
	v := MessageView{
		ID:        m.ID,
		Anonymous: m.Anonymous,
		Body:      m.Body,
		CreatedAt: m.CreatedAt,
	}
	if !m.Anonymous && m.FromUser != nil {
		from := *m.FromUser
		v.From = &from
	}
	return v
}
