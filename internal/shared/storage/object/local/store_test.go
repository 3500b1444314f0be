package local

import (
	"bytes"
	"context"
	"io"
	"testing"
)

func TestPutOpenExistsDelete(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()
	key := "profile-images/abc_profile_30.png"

	exists, err := store.Exists(ctx, key)
	if err != nil {
		t.Fatalf("Exists before put: %v", err)
	}
	if exists {
		t.Fatalf("expected key absent")
	}

	stored, err := store.Put(ctx, key, "image/png", bytes.NewReader([]byte("payload")))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if stored != key {
		t.Fatalf("expected stored path %q, got %q", key, stored)
	}

	exists, err = store.Exists(ctx, key)
	if err != nil {
		t.Fatalf("Exists after put: %v", err)
	}
	if !exists {
		t.Fatalf("expected key present")
	}

	rc, err := store.Open(ctx, key)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "payload" {
		t.Fatalf("unexpected contents: %q", data)
	}

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	exists, err = store.Exists(ctx, key)
	if err != nil {
		t.Fatalf("Exists after delete: %v", err)
	}
	if exists {
		t.Fatalf("expected key gone")
	}

	// Deleting a missing key is not an error.
	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("second Delete: %v", err)
	}
}

func TestPutOverwritesExistingKey(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()
	key := "profile-images/abc_profile_30.png"

	if _, err := store.Put(ctx, key, "image/png", bytes.NewReader([]byte("first"))); err != nil {
		t.Fatalf("first Put: %v", err)
	}
	if _, err := store.Put(ctx, key, "image/png", bytes.NewReader([]byte("second"))); err != nil {
		t.Fatalf("second Put: %v", err)
	}

	rc, err := store.Open(ctx, key)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "second" {
		t.Fatalf("expected overwrite, got %q", data)
	}
}

func TestRejectsTraversalKeys(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	for _, key := range []string{"../escape", "/absolute/path", "."} {
		if _, err := store.Put(ctx, key, "", bytes.NewReader(nil)); err == nil {
			t.Fatalf("expected Put(%q) rejected", key)
		}
		if _, err := store.Open(ctx, key); err == nil {
			t.Fatalf("expected Open(%q) rejected", key)
		}
	}
}
