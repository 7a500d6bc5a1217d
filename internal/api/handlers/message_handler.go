package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/anon-messaging-be/internal/apperr"
	"github.com/isdelr/anon-messaging-be/internal/services"
)

// MessageHandler handles sending messages and reading inboxes.
type MessageHandler struct {
	service services.MessageServiceProvider
}

// NewMessageHandler creates a new MessageHandler.
func NewMessageHandler(service services.MessageServiceProvider) *MessageHandler {
	return &MessageHandler{service: service}
}

// SendPayload defines the structure for send requests.
type SendPayload struct {
	ToUser    int64  `json:"to_user"`
	Body      string `json:"body"`
	Anonymous bool   `json:"anonymous"`
}

// Send stores a message from the caller.
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	var payload SendPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, r, err)
		return
	}

	id, err := h.service.SendMessage(r.Context(), claims.UserID, payload.ToUser, payload.Body, payload.Anonymous)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"id": id})
}

// ListForUser returns the inbox of the user in the path, which must be the
// caller.
func (h *MessageHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	// An id that does not parse can never be the caller's own.
	userID, err := strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64)
	if err != nil {
		writeError(w, r, apperr.New(apperr.Forbidden, "forbidden"))
		return
	}

	messages, err := h.service.ListMessagesFor(r.Context(), claims.UserID, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messages)
}
