package quiz

import (
	"strconv"
	"strings"

	"github.com/paperdrill/paperdrill-backend/internal/model"
)

// StableKey derives a question identity that is independent of the
// question's position in any array: "id:<id>" when an ID is present,
// otherwise a content hash of the text and options. Persisted shuffle
// orders and attempt responses are correlated through these keys, so the
// hash algorithm must stay stable across releases.
func StableKey(q model.Question) string {
	if q.ID != "" {
		return "id:" + q.ID
	}
	raw := q.Text + "|||" + strings.Join(q.Options, "||")
	// djb2-xor, wrapped at 32 bits.
	h := uint32(5381)
	for _, r := range raw {
		h = ((h << 5) + h) ^ uint32(r)
	}
	return "h:" + strconv.FormatUint(uint64(h), 36)
}

// Keys maps a question slice to its stable keys, preserving order.
func Keys(questions []model.Question) []string {
	keys := make([]string, len(questions))
	for i, q := range questions {
		keys[i] = StableKey(q)
	}
	return keys
}
