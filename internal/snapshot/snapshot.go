// Package snapshot persists and resumes quiz session state through a
// storage-agnostic key-value port, so a reload continues the same attempt
// instead of starting over. Snapshot failures are never fatal: every
// rejected or unreadable snapshot just means a fresh session.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/paperdrill/paperdrill-backend/internal/quiz"
)

// SchemaVersion guards against decoding snapshots written by an
// incompatible build.
const SchemaVersion = 1

// DefaultTTL is how long an abandoned attempt remains resumable.
const DefaultTTL = 7 * 24 * time.Hour

const keyPrefix = "session:"

// Key composes the attempt key. Sessions are shared across reloads only
// when user, paper, mode and the randomize flag all match.
func Key(userID, paperID string, mode string, randomize bool) string {
	return fmt.Sprintf("%s:%s:%s:%t", userID, paperID, mode, randomize)
}

// Snapshot is the serialized form of a session's mutable state.
// Selected uses the -1 sentinel for unset; a JSON null never appears.
type Snapshot struct {
	Version       int       `json:"v"`
	OrderKeys     []string  `json:"orderKeys"`
	CurrentIndex  int       `json:"currentIndex"`
	Selected      []int     `json:"selected"`
	Peeked        []bool    `json:"peeked"`
	Bookmarked    []bool    `json:"bookmarked"`
	TimeBudgetSec int       `json:"timeBudgetSec"`
	TimeLeftSec   int       `json:"timeLeftSec"`
	SavedAt       time.Time `json:"savedAt"`
}

// FromState converts live session state into its persisted form.
func FromState(st quiz.State) Snapshot {
	return Snapshot{
		Version:       SchemaVersion,
		OrderKeys:     st.OrderKeys,
		CurrentIndex:  st.CurrentIndex,
		Selected:      st.Selected,
		Peeked:        st.Peeked,
		Bookmarked:    st.Bookmarked,
		TimeBudgetSec: st.TimeBudgetSec,
		TimeLeftSec:   st.TimeLeftSec,
	}
}

// Manager applies the acceptance rules that decide whether a stored
// snapshot may be trusted against the currently loaded question set.
type Manager struct {
	store Store
	ttl   time.Duration
	log   zerolog.Logger
	now   func() time.Time
}

// NewManager creates a Manager. ttl <= 0 falls back to DefaultTTL.
func NewManager(store Store, ttl time.Duration, log zerolog.Logger) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		store: store,
		ttl:   ttl,
		log:   log.With().Str("component", "snapshot").Logger(),
		now:   time.Now,
	}
}

// WithClock is test-only for deterministic expiry decisions.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// Save serializes the snapshot under the attempt key. Errors are
// returned for the caller to log; they never interrupt the attempt.
func (m *Manager) Save(ctx context.Context, key string, snap Snapshot) error {
	snap.Version = SchemaVersion
	snap.SavedAt = m.now()
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := m.store.Set(ctx, keyPrefix+key, raw, m.ttl); err != nil {
		return fmt.Errorf("store snapshot: %w", err)
	}
	return nil
}

// Load returns a stored snapshot if it is still trustworthy against the
// live question set: same question count, an order-key signature that
// resolves against the live keys, and not older than the TTL. Anything
// else — including read or decode failures — yields (zero, false) and a
// fresh session.
func (m *Manager) Load(ctx context.Context, key string, liveKeys []string) (Snapshot, bool) {
	raw, ok, err := m.store.Get(ctx, keyPrefix+key)
	if err != nil {
		m.log.Warn().Err(err).Str("key", key).Msg("snapshot read failed, starting fresh")
		return Snapshot{}, false
	}
	if !ok {
		return Snapshot{}, false
	}

	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		m.log.Warn().Err(err).Str("key", key).Msg("corrupt snapshot discarded")
		return Snapshot{}, false
	}
	if snap.Version != SchemaVersion {
		m.log.Debug().Int("version", snap.Version).Str("key", key).Msg("snapshot schema mismatch")
		return Snapshot{}, false
	}
	if !snap.SavedAt.IsZero() && m.now().Sub(snap.SavedAt) > m.ttl {
		m.log.Debug().Str("key", key).Msg("snapshot expired")
		return Snapshot{}, false
	}

	n := len(liveKeys)
	if len(snap.OrderKeys) != n || len(snap.Selected) != n || len(snap.Peeked) != n || len(snap.Bookmarked) != n {
		m.log.Debug().Str("key", key).Msg("snapshot question count mismatch")
		return Snapshot{}, false
	}
	if !sameKeySet(snap.OrderKeys, liveKeys) {
		m.log.Debug().Str("key", key).Msg("snapshot order keys no longer match the paper")
		return Snapshot{}, false
	}
	return snap, true
}

// Delete removes the snapshot, typically right after an attempt finishes.
func (m *Manager) Delete(ctx context.Context, key string) error {
	return m.store.Delete(ctx, keyPrefix+key)
}

// sameKeySet compares stable-key multisets. Sequence is allowed to
// differ because a randomized snapshot stores the shuffled order while
// the live set arrives in identity order.
func sameKeySet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	counts := make(map[string]int, len(a))
	for _, k := range a {
		counts[k]++
	}
	for _, k := range b {
		counts[k]--
		if counts[k] < 0 {
			return false
		}
	}
	return true
}
