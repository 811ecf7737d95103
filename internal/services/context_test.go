package services_test

import (
	"context"
	"testing"

	"shuttle/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithFileID(ctx, 42)
	ctx = services.WithProjectID(ctx, 7)
	ctx = services.WithSession(ctx, "tok-abc")
	ctx = services.WithRequestID(ctx, "req-123")

	if id, ok := services.FileIDFromContext(ctx); !ok || id != 42 {
		t.Fatalf("unexpected file id: %v %v", id, ok)
	}
	if id, ok := services.ProjectIDFromContext(ctx); !ok || id != 7 {
		t.Fatalf("unexpected project id: %v %v", id, ok)
	}
	if token, ok := services.SessionFromContext(ctx); !ok || token != "tok-abc" {
		t.Fatalf("unexpected session: %v %v", token, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestBlankSessionPreservesContext(t *testing.T) {
	ctx := services.WithSession(context.Background(), "")
	if _, ok := services.SessionFromContext(ctx); ok {
		t.Fatal("expected no session value")
	}
}
