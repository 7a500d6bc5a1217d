package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/isdelr/anon-messaging-be/internal/apperr"
	"github.com/isdelr/anon-messaging-be/internal/auth"
	"github.com/rs/zerolog/log"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError translates a service error into a status code and a small JSON
// payload. Internal failures are logged and reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.Internal {
		log.Error().Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("path", r.URL.Path).
			Msg("Request failed")
	}
	writeJSON(w, kind.HTTPStatus(), map[string]string{"error": apperr.PublicMessage(err)})
}

// decodeJSON reads the request body into dst.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Wrap(apperr.InvalidInput, err, "invalid request body")
	}
	return nil
}

// requireClaims returns the caller's token claims set by auth.JWTMiddleware.
func requireClaims(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		log.Error().Str("path", r.URL.Path).Msg("Could not retrieve user claims from context")
		writeError(w, r, apperr.New(apperr.Internal, "missing claims"))
		return nil, false
	}
	return claims, true
}
