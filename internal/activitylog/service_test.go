package activitylog

import (
	"context"
	"fmt"
	"testing"
)

func TestRecordAndLatest(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	ctx := context.Background()

	svc.Record(ctx, "u1", "info", "Auto-apply workflow started")
	svc.Record(ctx, "u1", "error", "No artifact found")
	svc.Record(ctx, "u2", "info", "other user entry")

	entries, err := svc.Latest(ctx, "u1", 0)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	for _, entry := range entries {
		if entry.ID == "" {
			t.Fatal("expected generated entry id")
		}
	}
}

func TestLatestHonorsLimit(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		svc.Record(ctx, "u1", "info", fmt.Sprintf("entry %d", i))
	}

	entries, err := svc.Latest(ctx, "u1", 3)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
}

func TestRecordIgnoresBlankInput(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	ctx := context.Background()

	svc.Record(ctx, "", "info", "no user")
	svc.Record(ctx, "u1", "info", "  ")

	entries, err := svc.Latest(ctx, "u1", 0)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(entries))
	}
}

func TestRecordDefaultsLevel(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	ctx := context.Background()

	svc.Record(ctx, "u1", "", "defaulted")
	entries, err := svc.Latest(ctx, "u1", 0)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if len(entries) != 1 || entries[0].Level != "info" {
		t.Fatalf("expected info level entry, got %+v", entries)
	}
}
