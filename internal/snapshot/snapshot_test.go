package snapshot

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testManager(now func() time.Time) *Manager {
	store := NewMemoryStoreWithClock(now)
	// TTL longer than the store test window so only the manager's own
	// age check decides.
	return NewManager(store, DefaultTTL, zerolog.Nop()).WithClock(now)
}

func testSnapshot(keys []string) Snapshot {
	n := len(keys)
	selected := make([]int, n)
	for i := range selected {
		selected[i] = -1
	}
	return Snapshot{
		OrderKeys:     keys,
		Selected:      selected,
		Peeked:        make([]bool, n),
		Bookmarked:    make([]bool, n),
		TimeBudgetSec: 120,
		TimeLeftSec:   90,
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := testManager(time.Now)
	keys := []string{"id:1", "id:2", "id:3"}

	snap := testSnapshot(keys)
	snap.CurrentIndex = 2
	snap.Selected[0] = 1
	if err := m.Save(ctx, "u1:p1:medium:false", snap); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, ok := m.Load(ctx, "u1:p1:medium:false", keys)
	if !ok {
		t.Fatal("expected snapshot to load")
	}
	if got.CurrentIndex != 2 || got.Selected[0] != 1 || got.TimeLeftSec != 90 {
		t.Fatalf("round trip lost state: %+v", got)
	}
	if got.Version != SchemaVersion || got.SavedAt.IsZero() {
		t.Fatalf("save should stamp version and time: %+v", got)
	}
}

func TestLoadRejectsCountMismatch(t *testing.T) {
	ctx := context.Background()
	m := testManager(time.Now)
	keys := []string{"id:1", "id:2"}
	if err := m.Save(ctx, "k", testSnapshot(keys)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, ok := m.Load(ctx, "k", []string{"id:1", "id:2", "id:3"}); ok {
		t.Fatal("count mismatch must discard the snapshot")
	}
}

func TestLoadRejectsChangedKeys(t *testing.T) {
	ctx := context.Background()
	m := testManager(time.Now)
	if err := m.Save(ctx, "k", testSnapshot([]string{"id:1", "id:2"})); err != nil {
		t.Fatalf("save: %v", err)
	}
	// Same count, different content: the paper changed under the attempt.
	if _, ok := m.Load(ctx, "k", []string{"id:1", "id:9"}); ok {
		t.Fatal("changed keys must discard the snapshot")
	}
}

func TestLoadAcceptsReorderedKeys(t *testing.T) {
	ctx := context.Background()
	m := testManager(time.Now)
	// A randomized snapshot stores the shuffled sequence; the live set
	// arrives in identity order. Same multiset, different sequence.
	if err := m.Save(ctx, "k", testSnapshot([]string{"id:2", "id:1"})); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, ok := m.Load(ctx, "k", []string{"id:1", "id:2"}); !ok {
		t.Fatal("reordered keys of the same set must be accepted")
	}
}

func TestLoadRejectsExpired(t *testing.T) {
	ctx := context.Background()
	current := time.Now()
	now := func() time.Time { return current }
	store := NewMemoryStore() // real-time store; expiry decided by the manager clock
	m := NewManager(store, DefaultTTL, zerolog.Nop()).WithClock(now)

	keys := []string{"id:1", "id:2"}
	if err := m.Save(ctx, "k", testSnapshot(keys)); err != nil {
		t.Fatalf("save: %v", err)
	}

	current = current.Add(6 * 24 * time.Hour)
	if _, ok := m.Load(ctx, "k", keys); !ok {
		t.Fatal("six-day-old snapshot should still load")
	}

	current = current.Add(2 * 24 * time.Hour)
	if _, ok := m.Load(ctx, "k", keys); ok {
		t.Fatal("snapshot older than seven days must be discarded")
	}
}

func TestLoadSurvivesCorruptPayload(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	m := NewManager(store, DefaultTTL, zerolog.Nop())
	if err := store.Set(ctx, "session:k", []byte("{not json"), 0); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, ok := m.Load(ctx, "k", []string{"id:1"}); ok {
		t.Fatal("corrupt snapshot must fall back to a fresh session")
	}
}

func TestDeleteRemovesSnapshot(t *testing.T) {
	ctx := context.Background()
	m := testManager(time.Now)
	keys := []string{"id:1", "id:2"}
	if err := m.Save(ctx, "k", testSnapshot(keys)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := m.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := m.Load(ctx, "k", keys); ok {
		t.Fatal("deleted snapshot must not load")
	}
}

func TestKeyComposition(t *testing.T) {
	if got := Key("alice", "kgmu-2025-set1", "medium", true); got != "alice:kgmu-2025-set1:medium:true" {
		t.Fatalf("unexpected key %q", got)
	}
}
