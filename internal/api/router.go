package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/anon-messaging-be/internal/api/handlers"
	"github.com/isdelr/anon-messaging-be/internal/auth"
	"github.com/isdelr/anon-messaging-be/internal/services"
	"github.com/isdelr/anon-messaging-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

const maxBodyBytes = 64 * 1024

// NewRouter creates and configures a new Chi router.
func NewRouter(
	allowedOrigins []string,
	tokens *auth.TokenIssuer,
	hub *websocket.Hub,
	userService services.UserServiceProvider,
	messageService services.MessageServiceProvider,
) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestSize(maxBodyBytes))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	// Initialize handlers
	userHandler := handlers.NewUserHandler(userService)
	messageHandler := handlers.NewMessageHandler(messageService)
	wsHandler := handlers.NewWebSocketHandler(hub)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	r.Post("/signup", userHandler.Signup)
	r.Post("/login", userHandler.Login)

	r.Group(func(r chi.Router) {
		r.Use(auth.JWTMiddleware(tokens))

		r.Get("/users", userHandler.List)
		r.Get("/me", userHandler.GetMe)
		r.Post("/messages", messageHandler.Send)
		r.Get("/messages/{userId}", messageHandler.ListForUser)
	})

	r.With(auth.WebSocketJWTMiddleware(tokens)).Get("/ws", wsHandler.Serve)

	return r
}

// requestLogger logs one line per request through zerolog.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			log.Info().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("Handled request")
		}()
		next.ServeHTTP(ww, r)
	})
}
