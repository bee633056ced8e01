package storage

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/BerylCAtieno/loanmitra/internal/config"
)

func TestCleanKey(t *testing.T) {
	tests := []struct {
		key     string
		want    string
		wantErr bool
	}{
		{"user-1/1700000000000.pdf", "user-1/1700000000000.pdf", false},
		{"user-1//a/../b.pdf", "user-1/b.pdf", false},
		{"", "", true},
		{"/etc/passwd", "", true},
		{"../user-2/x.pdf", "", true},
		{"user-1/../../x", "", true},
		{`user-1\x.pdf`, "", true},
	}

	for _, tt := range tests {
		got, err := CleanKey(tt.key)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidKey) {
				t.Errorf("CleanKey(%q) expected ErrInvalidKey, got %v", tt.key, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("CleanKey(%q) = (%q, %v), want %q", tt.key, got, err, tt.want)
		}
	}
}

func TestLocalStorageRoundTrip(t *testing.T) {
	store, err := New(context.Background(), &config.Config{StorageDriver: "local", LocalStorageDir: t.TempDir(), StorageBucket: "loan-documents"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if store.Bucket() != "loan-documents" {
		t.Errorf("unexpected bucket %s", store.Bucket())
	}

	ctx := context.Background()
	key := "user-1/1700000000000.pdf"
	data := []byte("%PDF-1.4 loan agreement")

	if err := store.Upload(ctx, key, data, "application/pdf"); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	got, err := store.Download(ctx, key)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("downloaded %q, want %q", got, data)
	}

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Download(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	if err := store.Upload(ctx, "../escape.pdf", data, "application/pdf"); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("expected ErrInvalidKey, got %v", err)
	}
}
