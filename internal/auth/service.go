package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"jobagent-backend/internal/activitylog"
	sharedauth "jobagent-backend/internal/shared/auth"
	"jobagent-backend/internal/shared/storage/object"
	"jobagent-backend/internal/users"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

const minPasswordLen = 8

type Service struct {
	Users *users.Service
	Store object.ObjectStore
	Logs  *activitylog.Service
}

func NewService(userSvc *users.Service, store object.ObjectStore, logs *activitylog.Service) *Service {
	return &Service{Users: userSvc, Store: store, Logs: logs}
}

type SignupInput struct {
	Email    string
	Password string

	// Optional resume upload captured at signup.
	ResumeName string
	Resume     io.Reader
}

type Session struct {
	Token string     `json:"token"`
	User  users.User `json:"user"`
}

func (s *Service) Signup(ctx context.Context, in SignupInput) (Session, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return Session{}, fmt.Errorf("invalid email: %w", err)
	}
	if len(in.Password) < minPasswordLen {
		return Session{}, fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}

	user := users.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
	}

	if in.Resume != nil && s.Store != nil {
		key, _, _, err := s.Store.Save(ctx, user.ID, in.ResumeName, in.Resume)
		if err != nil {
			return Session{}, fmt.Errorf("store resume: %w", err)
		}
		user.ResumeKey = key
	}

	if err := s.Users.Create(ctx, user); err != nil {
		return Session{}, err
	}

	token, err := sharedauth.SignJWT(user.ID, user.Email)
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}

	s.Logs.Record(ctx, user.ID, "info", "Account created")
	return Session{Token: token, User: user}, nil
}

func (s *Service) Signin(ctx context.Context, email, password string) (Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return Session{}, ErrInvalidCredentials
	}

	user, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	if user.PasswordHash == "" {
		return Session{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return Session{}, ErrInvalidCredentials
	}

	token, err := sharedauth.SignJWT(user.ID, user.Email)
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}

	s.Logs.Record(ctx, user.ID, "info", "Signed in")
	return Session{Token: token, User: user}, nil
}

// SessionForExternal resolves or creates the local user for an externally
// authenticated identity (Google sign-in) and issues a session token.
func (s *Service) SessionForExternal(ctx context.Context, email string) (Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return Session{}, errors.New("email is required")
	}

	user, err := s.Users.GetByEmail(ctx, email)
	if errors.Is(err, users.ErrNotFound) {
		user = users.User{
			ID:    uuid.NewString(),
			Email: email,
		}
		if err := s.Users.Create(ctx, user); err != nil {
			return Session{}, err
		}
		s.Logs.Record(ctx, user.ID, "info", "Account created via Google")
	} else if err != nil {
		return Session{}, err
	}

	token, err := sharedauth.SignJWT(user.ID, user.Email)
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}
	return Session{Token: token, User: user}, nil
}
