package services_test

import (
	"context"
	"testing"

	"civicrisk/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithSource(ctx, "api")
	ctx = services.WithRequestID(ctx, "req-123")

	if source, ok := services.SourceFromContext(ctx); !ok || source != "api" {
		t.Fatalf("unexpected source: %v %v", source, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithSource(ctx, "")
	ctx = services.WithRequestID(ctx, "")
	if _, ok := services.SourceFromContext(ctx); ok {
		t.Fatal("expected no source value")
	}
	if _, ok := services.RequestIDFromContext(ctx); ok {
		t.Fatal("expected no request id value")
	}
}
