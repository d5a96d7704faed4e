package storage

import (
	"context"
	"errors"
	"strings"
	"testing"

	"depot-backend/internal/config"
)

func TestDisabledStore(t *testing.T) {
	s, err := NewS3Store(context.Background(), config.Storage{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Enabled() {
		t.Fatalf("expected store without bucket to be disabled")
	}
	if err := s.Put(context.Background(), "k", strings.NewReader("x"), 1, "image/png"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if _, _, err := s.PresignGet(context.Background(), "k"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestImageExtension(t *testing.T) {
	tests := []struct {
		contentType string
		filename    string
		ext         string
		ok          bool
	}{
		{"image/jpeg", "po.jpeg", ".jpg", true},
		{"image/png; charset=binary", "", ".png", true},
		{"image/tiff", "scan.TIFF", ".tiff", true},
		{"application/pdf", "po.pdf", "", false},
		{"", "po.png", "", false},
	}
	for _, tt := range tests {
		ext, ok := ImageExtension(tt.contentType, tt.filename)
		if ext != tt.ext || ok != tt.ok {
			t.Errorf("ImageExtension(%q, %q): expected %q %v, got %q %v", tt.contentType, tt.filename, tt.ext, tt.ok, ext, ok)
		}
	}
}

func TestReceivableImageKey(t *testing.T) {
	key := ReceivableImageKey(42, ".jpg")
	if !strings.HasPrefix(key, "receivables/42/") || !strings.HasSuffix(key, ".jpg") {
		t.Fatalf("unexpected key %q", key)
	}
	if key == ReceivableImageKey(42, ".jpg") {
		t.Fatalf("expected unique keys")
	}
}

func TestEnabledStoreWithEndpoint(t *testing.T) {
	s, err := NewS3Store(context.Background(), config.Storage{
		Endpoint:  "http://localhost:9000",
		Bucket:    "purchase-orders",
		AccessKey: "minio",
		SecretKey: "minio123",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.Enabled() {
		t.Fatalf("expected store to be enabled")
	}
	url, _, err := s.PresignGet(context.Background(), "receivables/1/a.jpg")
	if err != nil {
		t.Fatalf("unexpected presign error: %v", err)
	}
	if !strings.Contains(url, "localhost:9000/purchase-orders/receivables/1/a.jpg") {
		t.Fatalf("unexpected presigned url %q", url)
	}
}
