package users

import (
	"context"
	"errors"
	"testing"
)

func TestServiceCreateAndGet(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	ctx := context.Background()

	user := User{ID: "u1", Email: "jordan@example.com"}
	if err := svc.Create(ctx, user); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := svc.GetByID(ctx, "u1")
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if got.Email != "jordan@example.com" {
		t.Fatalf("unexpected email: %s", got.Email)
	}

	byEmail, err := svc.GetByEmail(ctx, "jordan@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if byEmail.ID != "u1" {
		t.Fatalf("unexpected id: %s", byEmail.ID)
	}
}

func TestServiceRejectsDuplicateEmail(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	ctx := context.Background()

	if err := svc.Create(ctx, User{ID: "u1", Email: "taken@example.com"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := svc.Create(ctx, User{ID: "u2", Email: "Taken@Example.com"})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestServiceAttachResume(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	ctx := context.Background()

	if err := svc.Create(ctx, User{ID: "u1", Email: "jordan@example.com"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.AttachResume(ctx, "u1", "store-key-1"); err != nil {
		t.Fatalf("attach resume: %v", err)
	}

	got, err := svc.GetByID(ctx, "u1")
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if got.ResumeKey != "store-key-1" {
		t.Fatalf("unexpected resume key: %s", got.ResumeKey)
	}

	if err := svc.AttachResume(ctx, "missing", "store-key-2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestServiceValidatesInput(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	ctx := context.Background()

	if err := svc.Create(ctx, User{ID: "", Email: "x@example.com"}); err == nil {
		t.Fatal("expected error for empty id")
	}
	if _, err := svc.GetByID(ctx, " "); err == nil {
		t.Fatal("expected error for empty id")
	}
	if _, err := svc.GetByEmail(ctx, ""); err == nil {
		t.Fatal("expected error for empty email")
	}
}
