package websocket

import "encoding/json"

// Actions pushed to clients.
const (
	ActionInboxMessage = "message.new"
	ActionError        = "error"
)

// Message defines the structure for websocket messages.
type Message struct {
	Action  string      `json:"action"`
	Payload interface{} `json:"payload"`
}

// NewInboxMessage encodes a frame announcing a new message in the
// recipient's inbox.
func NewInboxMessage(payload interface{}) ([]byte, error) {
	return json.Marshal(Message{Action: ActionInboxMessage, Payload: payload})
}

// NewErrorMessage encodes an error frame.
func NewErrorMessage(text string) []byte {
	b, _ := json.Marshal(Message{Action: ActionError, Payload: map[string]string{"error": text}})
	return b
}
