package handlers

import (
	"net/http"

	"github.com/isdelr/anon-messaging-be/internal/apperr"
	"github.com/isdelr/anon-messaging-be/internal/models"
	"github.com/isdelr/anon-messaging-be/internal/services"
	"github.com/rs/zerolog/log"
)

// UserHandler handles signup, login and the user directory.
type UserHandler struct {
	service services.UserServiceProvider
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.UserServiceProvider) *UserHandler {
	return &UserHandler{service: service}
}

// SignupPayload defines the structure for signup requests.
type SignupPayload struct {
	Phone      string `json:"phone"`
	Password   string `json:"password"`
	InviteCode string `json:"invite_code"`
}

// LoginPayload defines the structure for login requests.
type LoginPayload struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// AuthResponse is returned by signup and login.
type AuthResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Signup handles new user registration.
func (h *UserHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var payload SignupPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, r, err)
		return
	}

	token, user, err := h.service.Signup(r.Context(), payload.Phone, payload.Password, payload.InviteCode)
	if err != nil {
		if apperr.KindOf(err) != apperr.Internal {
			log.Info().Err(err).Str("phone", models.MaskPhone(payload.Phone)).Msg("Signup rejected")
		}
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{Token: token, User: user})
}

// Login handles user authentication and JWT generation.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, r, err)
		return
	}

	token, user, err := h.service.Login(r.Context(), payload.Phone, payload.Password)
	if err != nil {
		if apperr.Is(err, apperr.Unauthorized) {
			log.Warn().Str("phone", models.MaskPhone(payload.Phone)).Msg("Failed authentication attempt")
		}
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{Token: token, User: user})
}

// List returns every user except the caller.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	users, err := h.service.ListOtherUsers(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, users)
}

// GetMe echoes the caller's identity as recorded in their token.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, models.User{ID: claims.UserID, Phone: claims.Phone})
}
