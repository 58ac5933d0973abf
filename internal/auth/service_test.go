package auth

import (
	"context"
	"errors"
	"strings"
	"testing"

	"jobagent-backend/internal/activitylog"
	sharedauth "jobagent-backend/internal/shared/auth"
	"jobagent-backend/internal/users"
)

func newTestService() *Service {
	userSvc := users.NewService(users.NewMemoryRepo())
	logs := activitylog.NewService(activitylog.NewMemoryRepo())
	return NewService(userSvc, nil, logs)
}

func TestSignupAndSignin(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	session, err := svc.Signup(ctx, SignupInput{Email: "dev@example.com", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if session.Token == "" {
		t.Fatal("expected session token")
	}
	if session.User.Email != "dev@example.com" {
		t.Fatalf("unexpected email: %q", session.User.Email)
	}

	claims, err := sharedauth.VerifyJWT(session.Token)
	if err != nil {
		t.Fatalf("verify token: %v", err)
	}
	if claims.Subject != session.User.ID {
		t.Fatalf("token subject %q != user id %q", claims.Subject, session.User.ID)
	}

	again, err := svc.Signin(ctx, "DEV@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("signin: %v", err)
	}
	if again.User.ID != session.User.ID {
		t.Fatal("signin resolved a different user")
	}
}

func TestSigninWrongPassword(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.Signup(ctx, SignupInput{Email: "dev@example.com", Password: "correct-horse"}); err != nil {
		t.Fatalf("signup: %v", err)
	}
	if _, err := svc.Signin(ctx, "dev@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Signin(ctx, "nobody@example.com", "correct-horse"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.Signup(ctx, SignupInput{Email: "dev@example.com", Password: "correct-horse"}); err != nil {
		t.Fatalf("signup: %v", err)
	}
	_, err := svc.Signup(ctx, SignupInput{Email: "dev@example.com", Password: "another-pass"})
	if !errors.Is(err, users.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestSignupRejectsWeakInput(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.Signup(ctx, SignupInput{Email: "not-an-email", Password: "correct-horse"}); err == nil {
		t.Fatal("expected invalid email error")
	}
	_, err := svc.Signup(ctx, SignupInput{Email: "dev@example.com", Password: "short"})
	if err == nil || !strings.Contains(err.Error(), "at least") {
		t.Fatalf("expected short password error, got %v", err)
	}
}

func TestSessionForExternalCreatesUser(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	first, err := svc.SessionForExternal(ctx, "oauth@example.com")
	if err != nil {
		t.Fatalf("external session: %v", err)
	}
	second, err := svc.SessionForExternal(ctx, "oauth@example.com")
	if err != nil {
		t.Fatalf("external session repeat: %v", err)
	}
	if first.User.ID != second.User.ID {
		t.Fatal("external session created duplicate users")
	}
}
