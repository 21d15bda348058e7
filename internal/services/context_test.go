package services_test

import (
	"context"
	"testing"

	"seedkeeper/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-123")
	ctx = services.WithPass(ctx, "upload")
	ctx = services.WithItem(ctx, "Movie.2024")

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-123" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if pass, ok := services.PassFromContext(ctx); !ok || pass != "upload" {
		t.Fatalf("unexpected pass: %v %v", pass, ok)
	}
	if item, ok := services.ItemFromContext(ctx); !ok || item != "Movie.2024" {
		t.Fatalf("unexpected item: %v %v", item, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithPass(ctx, "")
	ctx = services.WithItem(ctx, "")
	if _, ok := services.PassFromContext(ctx); ok {
		t.Fatal("expected no pass value")
	}
	if _, ok := services.ItemFromContext(ctx); ok {
		t.Fatal("expected no item value")
	}
}
