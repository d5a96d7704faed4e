package health

import (
	"context"
	"errors"
	"testing"
)

type fakeDB struct{ err error }

func (f fakeDB) Ping(ctx context.Context) error { return f.err }

func TestCheckBasic(t *testing.T) {
	up := NewHealthChecker(fakeDB{}).CheckBasic(context.Background())
	if up.Status != "healthy" || up.Database.Status != "healthy" {
		t.Fatalf("expected healthy, got %+v", up)
	}

	down := NewHealthChecker(fakeDB{err: errors.New("connection refused")}).CheckBasic(context.Background())
	if down.Status != "unhealthy" || down.Database.Status != "unhealthy" {
		t.Fatalf("expected unhealthy, got %+v", down)
	}
}

func TestCheckDetailedWithoutCache(t *testing.T) {
	got := NewHealthChecker(fakeDB{}).CheckDetailed(context.Background())
	if got.Cache != "disabled" {
		t.Fatalf("expected cache disabled when redis is not initialised, got %q", got.Cache)
	}
	if got.Status != "healthy" {
		t.Fatalf("expected healthy, got %q", got.Status)
	}
	if got.Goroutines <= 0 {
		t.Fatalf("expected goroutine count, got %d", got.Goroutines)
	}
}
