package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/genz-feed/api-go/models"
	"github.com/genz-feed/api-go/store"
	"github.com/genz-feed/api-go/utils"
)

const minPasswordLength = 6

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

	reservedUsernames = map[string]bool{
		"admin": true, "root": true, "api": true, "www": true, "mail": true, "ftp": true,
		"test": true, "demo": true, "user": true, "guest": true, "null": true, "undefined": true,
	}
)

// Tokens issues and verifies access tokens.
type Tokens interface {
	Issue(userID uint) (string, time.Time, error)
	Parse(token string) (*utils.UserClaims, error)
}

// RegisterInput is a signup request.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// Session is the result of a successful login.
type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

// AccountService handles signup and login and resolves bearer tokens to users.
type AccountService struct {
	store  store.UserStore
	tokens Tokens
	logger *slog.Logger
	opts   options
}

func NewAccountService(s store.UserStore, tokens Tokens, opts ...Option) *AccountService {
	o := newOptions(opts)
	return &AccountService{store: s, tokens: tokens, logger: o.logger, opts: o}
}

func validateUsername(username string) error {
	switch {
	case len(username) < 3:
		return NewValidationError("username", "username must be at least 3 characters long")
	case len(username) > 20:
		return NewValidationError("username", "username must be no more than 20 characters long")
	case !usernamePattern.MatchString(username):
		return NewValidationError("username", "username must start with a letter and contain only letters, numbers, and underscores")
	case reservedUsernames[strings.ToLower(username)]:
		return NewValidationError("username", "this username is reserved and cannot be used")
	}
	return nil
}

// Register creates a user with a bcrypt-hashed password.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if err := validateUsername(in.Username); err != nil {
		return nil, err
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, NewValidationError("email", "email is invalid")
	}
	if len(in.Password) < minPasswordLength {
		return nil, NewValidationError("password", "password must be at least 6 characters long")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("could not hash password: %w", err)
	}

	user := &models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
		CreatedAt:    s.opts.now(),
	}
	err = s.store.CreateUser(ctx, user)
	if errors.Is(err, store.ErrDuplicate) {
		return nil, fmt.Errorf("%w: username or email already exists", ErrConflict)
	}
	if err != nil {
		return nil, storageError("create user", err)
	}

	s.logger.Info("user registered", "user_id", user.ID)
	return user, nil
}

// Login checks credentials and issues an access token. Unknown emails and
// wrong passwords are indistinguishable to the caller.
func (s *AccountService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}
	if err != nil {
		return nil, storageError("get user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}

	token, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Me returns the user behind userID.
func (s *AccountService) Me(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, &NotFoundError{Resource: "user", ID: userID}
	}
	if err != nil {
		return nil, storageError("get user", err)
	}
	return user, nil
}

// Authenticate resolves a bearer token to the UserID it was issued for. The
// user must still exist.
func (s *AccountService) Authenticate(ctx context.Context, token string) (uint, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}

	_, err = s.store.GetUser(ctx, claims.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return 0, fmt.Errorf("%w: unknown user", ErrUnauthorized)
	}
	if err != nil {
		return 0, storageError("get user", err)
	}
	return claims.UserID, nil
}
