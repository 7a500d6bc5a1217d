package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/isdelr/anon-messaging-be/internal/apperr"
	"github.com/isdelr/anon-messaging-be/internal/auth"
	"github.com/isdelr/anon-messaging-be/internal/database"
	"github.com/isdelr/anon-messaging-be/internal/models"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const invalidCredentials = "invalid credentials"

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	Signup(ctx context.Context, phone, password, inviteCode string) (string, models.User, error)
	Login(ctx context.Context, phone, password string) (string, models.User, error)
	ListOtherUsers(ctx context.Context, callerID int64) ([]models.UserSummary, error)
}

// UserService handles signup, login and the user directory.
type UserService struct {
	db         *sql.DB
	tokens     *auth.TokenIssuer
	events     EventServiceProvider
	inviteCode string
	cost       int
	now        func() time.Time
	dummyHash  []byte
}

// NewUserService creates a new UserService. inviteCode is the shared secret
// that gates signup and cost is the bcrypt work factor. The hash compared
// against on logins for unknown phones is prepared here at the same cost.
func NewUserService(db *sql.DB, tokens *auth.TokenIssuer, events EventServiceProvider, inviteCode string, cost int) (*UserService, error) {
	dummyHash, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), cost)
	if err != nil {
		return nil, fmt.Errorf("prepare dummy password hash: %w", err)
	}
	return &UserService{
		db:         db,
		tokens:     tokens,
		events:     events,
		inviteCode: inviteCode,
		cost:       cost,
		now:        time.Now,
		dummyHash:  dummyHash,
	}, nil
}

// Signup registers a new user and issues their first token.
func (s *UserService) Signup(ctx context.Context, phone, password, inviteCode string) (string, models.User, error) {
	if isBlank(phone) || isBlank(password) || isBlank(inviteCode) {
		return "", models.User{}, apperr.New(apperr.InvalidInput, "phone, password and invite_code required")
	}
	if inviteCode != s.inviteCode {
		return "", models.User{}, apperr.New(apperr.Forbidden, "invalid invite code")
	}

	var existing int64
	err := s.db.QueryRowContext(ctx, "SELECT id FROM users WHERE phone = ?", phone).Scan(&existing)
	switch {
	case err == nil:
		return "", models.User{}, apperr.New(apperr.Conflict, "phone already registered")
	case !errors.Is(err, sql.ErrNoRows):
		return "", models.User{}, apperr.Wrap(apperr.Internal, err, "lookup phone")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", models.User{}, apperr.New(apperr.InvalidInput, "password too long")
		}
		return "", models.User{}, apperr.Wrap(apperr.Internal, err, "hash password")
	}

	user := models.User{
		Phone:        phone,
		PasswordHash: string(hashedPassword),
		CreatedAt:    s.now().UTC(),
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO users (phone, password_hash, created_at) VALUES (?, ?, ?)",
		user.Phone, user.PasswordHash, toMillis(user.CreatedAt),
	)
	if err != nil {
		// A concurrent signup can win between the lookup and the insert.
		if database.IsUniqueViolation(err) {
			return "", models.User{}, apperr.New(apperr.Conflict, "phone already registered")
		}
		return "", models.User{}, apperr.Wrap(apperr.Internal, err, "insert user")
	}
	if user.ID, err = res.LastInsertId(); err != nil {
		return "", models.User{}, apperr.Wrap(apperr.Internal, err, "read user id")
	}

	token, err := s.tokens.GenerateJWT(user)
	if err != nil {
		return "", models.User{}, err
	}

	s.recordEvent(ctx, EventUserSignup, "info", fmt.Sprintf("User %s signed up", models.MaskPhone(phone)), &user.ID)

	// Don't send the password hash to the client
	user.PasswordHash = ""
	return token, user, nil
}

// Login verifies a user's credentials and issues a token. Unknown phones and
// wrong passwords fail identically.
func (s *UserService) Login(ctx context.Context, phone, password string) (string, models.User, error) {
	if isBlank(phone) || isBlank(password) {
		return "", models.User{}, apperr.New(apperr.InvalidInput, "phone and password required")
	}

	user, err := s.getUserByPhone(ctx, phone)
	if err != nil {
		if !apperr.Is(err, apperr.NotFound) {
			return "", models.User{}, err
		}
		// Spend the same bcrypt work as a real comparison.
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		s.recordEvent(ctx, EventUserLoginFail, "warn", fmt.Sprintf("Failed login for %s", models.MaskPhone(phone)), nil)
		return "", models.User{}, apperr.New(apperr.Unauthorized, invalidCredentials)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			log.Error().Err(err).Int64("user_id", user.ID).Msg("Stored password hash could not be compared")
		}
		s.recordEvent(ctx, EventUserLoginFail, "warn", fmt.Sprintf("Failed login for %s", models.MaskPhone(phone)), &user.ID)
		return "", models.User{}, apperr.New(apperr.Unauthorized, invalidCredentials)
	}

	token, err := s.tokens.GenerateJWT(user)
	if err != nil {
		return "", models.User{}, err
	}

	s.recordEvent(ctx, EventUserLogin, "info", fmt.Sprintf("User %s logged in", models.MaskPhone(phone)), &user.ID)

	user.PasswordHash = ""
	return token, user, nil
}

// ListOtherUsers returns every user except the caller, newest first, with
// masked phones.
func (s *UserService) ListOtherUsers(ctx context.Context, callerID int64) ([]models.UserSummary, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, phone FROM users WHERE id != ? ORDER BY id DESC", callerID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "list users")
	}
	defer rows.Close()

	users := []models.UserSummary{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Phone); err != nil {
			return nil, apperr.Wrap(apperr.Internal, err, "scan user")
		}
		users = append(users, u.Summary())
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "list users")
	}
	return users, nil
}

// getUserByPhone retrieves a single user by phone, including the password hash.
func (s *UserService) getUserByPhone(ctx context.Context, phone string) (models.User, error) {
	var (
		user      models.User
		createdAt int64
	)
	row := s.db.QueryRowContext(ctx, "SELECT id, phone, password_hash, created_at FROM users WHERE phone = ?", phone)
	if err := row.Scan(&user.ID, &user.Phone, &user.PasswordHash, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, apperr.New(apperr.NotFound, "user not found")
		}
		return models.User{}, apperr.Wrap(apperr.Internal, err, "get user by phone")
	}
	user.CreatedAt = fromMillis(createdAt)
	return user, nil
}

// recordEvent writes to the audit trail. Failures are logged, never returned.
func (s *UserService) recordEvent(ctx context.Context, eventType, level, message string, userID *int64) {
	if s.events == nil {
		return
	}
	if err := s.events.CreateEvent(ctx, eventType, level, message, userID); err != nil {
		log.Warn().Err(err).Str("type", eventType).Msg("Failed to record event")
	}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
