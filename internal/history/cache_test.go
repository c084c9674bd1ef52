package history

import (
	"path/filepath"
	"testing"
	"time"

	"dialdesk/internal/domain"
)

func cachedCall(id string, createdAt time.Time) domain.Call {
	ended := createdAt.Add(90 * time.Second)
	return domain.Call{
		ID:              id,
		PhoneNumber:     "+821012345678",
		Status:          domain.CallStatusCompleted,
		AIPersona:       "customer_support",
		DurationSeconds: 90,
		RecordingURL:    "http://backend/api/v1/recordings/" + id,
		EndedAt:         &ended,
		CreatedAt:       createdAt,
		UpdatedAt:       createdAt.Add(2 * time.Minute),
	}
}

func TestOpenWithEmptyPathDisablesCache(t *testing.T) {
	t.Parallel()

	cache, err := Open("  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cache != nil {
		t.Fatalf("expected nil cache")
	}

	// nil receiver behavior
	if err := cache.Upsert([]domain.Call{cachedCall("c-1", time.Now())}); err != nil {
		t.Fatalf("nil upsert: %v", err)
	}
	if calls, err := cache.Recent(10); err != nil || calls != nil {
		t.Fatalf("nil recent: %v %v", calls, err)
	}
	if err := cache.Close(); err != nil {
		t.Fatalf("nil close: %v", err)
	}
}

func TestUpsertAndRecentOrdering(t *testing.T) {
	t.Parallel()

	cache, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer cache.Close()

	base := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)
	calls := []domain.Call{
		cachedCall("c-old", base),
		cachedCall("c-mid", base.Add(time.Hour)),
		cachedCall("c-new", base.Add(2*time.Hour)),
	}
	if err := cache.Upsert(calls); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	got, err := cache.Recent(2)
	if err != nil {
		t.Fatalf("recent failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(got))
	}
	if got[0].ID != "c-new" || got[1].ID != "c-mid" {
		t.Fatalf("unexpected order: %s, %s", got[0].ID, got[1].ID)
	}
	if got[0].EndedAt == nil || got[0].DurationSeconds != 90 {
		t.Fatalf("round-trip lost fields: %+v", got[0])
	}
}

func TestUpsertRefreshesExistingRows(t *testing.T) {
	t.Parallel()

	cache, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer cache.Close()

	call := cachedCall("c-1", time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC))
	call.Status = domain.CallStatusInProgress
	if err := cache.Upsert([]domain.Call{call}); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}

	call.Status = domain.CallStatusCompleted
	if err := cache.Upsert([]domain.Call{call}); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	got, err := cache.Recent(10)
	if err != nil {
		t.Fatalf("recent failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected a single row, got %d", len(got))
	}
	if got[0].Status != domain.CallStatusCompleted {
		t.Fatalf("row was not refreshed: %q", got[0].Status)
	}
}
