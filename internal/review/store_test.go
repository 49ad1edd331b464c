package review

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestGetDefaultsToEpoch(t *testing.T) {
	store := newTestStore(t)

	got, err := store.Get(context.Background(), "never_seen")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if !got.Equal(Epoch) {
		t.Errorf("Expected epoch sentinel for an unknown exercise, got %v", got)
	}
}

func TestSeedAndSet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Seed(ctx, "e1", Epoch); err != nil {
		t.Fatalf("Seed returned error: %v", err)
	}

	t.Run("seed is idempotent", func(t *testing.T) {
		want := date(2026, time.March, 1)
		if err := store.Set(ctx, "e1", want); err != nil {
			t.Fatalf("Set returned error: %v", err)
		}
		if err := store.Seed(ctx, "e1", Epoch); err != nil {
			t.Fatalf("Seed returned error: %v", err)
		}
		got, err := store.Get(ctx, "e1")
		if err != nil {
			t.Fatalf("Get returned error: %v", err)
		}
		if !got.Equal(want) {
			t.Errorf("Expected seed to leave existing date %v untouched, got %v", want, got)
		}
	})

	t.Run("set unknown name", func(t *testing.T) {
		err := store.Set(ctx, "ghost", date(2026, time.March, 1))
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})
}

func TestResetAll(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	future := date(2027, time.January, 1)
	for _, name := range []string{"e1", "e2", "e3"} {
		if err := store.Seed(ctx, name, future); err != nil {
			t.Fatalf("Seed returned error: %v", err)
		}
	}

	t.Run("named subset", func(t *testing.T) {
		if err := store.ResetAll(ctx, []string{"e1", "e2"}); err != nil {
			t.Fatalf("ResetAll returned error: %v", err)
		}
		for _, name := range []string{"e1", "e2"} {
			got, _ := store.Get(ctx, name)
			if !got.Equal(Epoch) {
				t.Errorf("Expected %s reset to epoch, got %v", name, got)
			}
		}
		got, _ := store.Get(ctx, "e3")
		if !got.Equal(future) {
			t.Errorf("Expected e3 untouched at %v, got %v", future, got)
		}
	})

	t.Run("empty subset resets nothing", func(t *testing.T) {
		if err := store.Set(ctx, "e3", future); err != nil {
			t.Fatalf("Set returned error: %v", err)
		}
		if err := store.ResetAll(ctx, []string{}); err != nil {
			t.Fatalf("ResetAll returned error: %v", err)
		}
		got, _ := store.Get(ctx, "e3")
		if !got.Equal(future) {
			t.Errorf("Expected e3 untouched at %v, got %v", future, got)
		}
	})

	t.Run("nil resets everything", func(t *testing.T) {
		if err := store.ResetAll(ctx, nil); err != nil {
			t.Fatalf("ResetAll returned error: %v", err)
		}
		got, _ := store.Get(ctx, "e3")
		if !got.Equal(Epoch) {
			t.Errorf("Expected e3 reset to epoch, got %v", got)
		}
	})
}

func TestDateRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	want := date(2026, time.August, 30)
	if err := store.Seed(ctx, "e1", want); err != nil {
		t.Fatalf("Seed returned error: %v", err)
	}
	got, err := store.Get(ctx, "e1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if !got.Equal(want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}
