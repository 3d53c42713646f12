package blob

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStore(root)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	n, err := store.PutObject(ctx, "runs/r1/asha.pdf", []byte("%PDF-1.3"), "application/pdf")
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if n != 8 {
		t.Fatalf("expected 8 bytes written, got %d", n)
	}
	if _, err := os.Stat(filepath.Join(root, "runs", "r1", "asha.pdf")); err != nil {
		t.Fatalf("expected file on disk: %v", err)
	}

	data, err := store.GetObject(ctx, "runs/r1/asha.pdf")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(data) != "%PDF-1.3" {
		t.Fatalf("unexpected content %q", data)
	}

	if err := store.DeleteObject(ctx, "runs/r1/asha.pdf"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.DeleteObject(ctx, "runs/r1/asha.pdf"); err != nil {
		t.Fatalf("second delete should be a no-op, got %v", err)
	}
	if _, err := store.GetObject(ctx, "runs/r1/asha.pdf"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLocalStoreRejectsEscapingKeys(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	for _, key := range []string{"", "..", "../outside.pdf", "runs/../../x"} {
		if _, err := store.PutObject(context.Background(), key, []byte("x"), "text/plain"); err == nil {
			t.Fatalf("expected key %q to be rejected", key)
		}
	}
}

func TestLocalStorePresignUnsupported(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, err := store.PresignGet(context.Background(), "runs/r1/plans.zip", 60); !errors.Is(err, ErrPresignUnsupported) {
		t.Fatalf("expected ErrPresignUnsupported, got %v", err)
	}
}
