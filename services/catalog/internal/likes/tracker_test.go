package likes

import (
	"context"
	"testing"
)

func TestMemoryTracker_DefaultIsNotLiked(t *testing.T) {
	tr := NewMemoryTracker()
	liked, err := tr.IsLiked(context.Background(), "user-1", "track-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if liked {
		t.Fatal("missing entry must read as not liked")
	}
}

func TestMemoryTracker_SetAndClear(t *testing.T) {
	tr := NewMemoryTracker()
	ctx := context.Background()

	if err := tr.SetLiked(ctx, "user-1", "track-1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	liked, _ := tr.IsLiked(ctx, "user-1", "track-1")
	if !liked {
		t.Fatal("expected liked after set")
	}

	if err := tr.ClearLiked(ctx, "user-1", "track-1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	liked, _ = tr.IsLiked(ctx, "user-1", "track-1")
	if liked {
		t.Fatal("expected not liked after clear")
	}
}

func TestMemoryTracker_PairsAreIndependent(t *testing.T) {
	tr := NewMemoryTracker()
	ctx := context.Background()

	_ = tr.SetLiked(ctx, "user-1", "track-1")

	if liked, _ := tr.IsLiked(ctx, "user-2", "track-1"); liked {
		t.Fatal("another user's like must not leak")
	}
	if liked, _ := tr.IsLiked(ctx, "user-1", "track-2"); liked {
		t.Fatal("another track's like must not leak")
	}
}

func TestMemoryTracker_SetIsIdempotent(t *testing.T) {
	tr := NewMemoryTracker()
	ctx := context.Background()

	_ = tr.SetLiked(ctx, "user-1", "track-1")
	_ = tr.SetLiked(ctx, "user-1", "track-1")

	_ = tr.ClearLiked(ctx, "user-1", "track-1")
	if liked, _ := tr.IsLiked(ctx, "user-1", "track-1"); liked {
		t.Fatal("one clear must remove the marker regardless of repeated sets")
	}
}

func TestNewTracker_DevFallback(t *testing.T) {
	tr, err := NewTracker(Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := tr.(*MemoryTracker); !ok {
		t.Fatalf("expected memory tracker in dev, got %T", tr)
	}
}

func TestNewTracker_ProdRequiresBackend(t *testing.T) {
	if _, err := NewTracker(Options{IsProd: true}); err == nil {
		t.Fatal("expected error without a backend in production")
	}
}
