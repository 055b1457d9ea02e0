package quiz

import (
	"math/rand"
	"time"

	"github.com/paperdrill/paperdrill-backend/internal/model"
)

// BuildOrder produces the sequence in which questions are presented,
// together with the stable keys defining that sequence.
//
// With randomize false the live order is used as-is. With randomize true a
// prior snapshot's keys are reused when they still resolve against the live
// question set, so that a reload mid-attempt does not silently re-shuffle
// and desynchronize the per-question state arrays. If any key fails to
// resolve (the paper content changed), a fresh Fisher-Yates shuffle is
// performed and new keys are generated.
//
// rnd may be nil, in which case a time-seeded source is used.
func BuildOrder(questions []model.Question, randomize bool, priorKeys []string, rnd *rand.Rand) ([]model.Question, []string) {
	if !randomize {
		return questions, Keys(questions)
	}

	if len(priorKeys) == len(questions) && len(priorKeys) > 0 {
		if ordered, ok := reorderByKeys(questions, priorKeys); ok {
			return ordered, priorKeys
		}
	}

	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	shuffled := make([]model.Question, len(questions))
	copy(shuffled, questions)
	// Fisher-Yates, uniform over permutations.
	for i := len(shuffled) - 1; i > 0; i-- {
		j := rnd.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled, Keys(shuffled)
}

// reorderByKeys rebuilds the ordered question slice by resolving each key
// against the current live set. Reports false if any key is unknown.
func reorderByKeys(questions []model.Question, keys []string) ([]model.Question, bool) {
	byKey := make(map[string]model.Question, len(questions))
	for _, q := range questions {
		byKey[StableKey(q)] = q
	}
	ordered := make([]model.Question, len(keys))
	for i, k := range keys {
		q, ok := byKey[k]
		if !ok {
			return nil, false
		}
		ordered[i] = q
	}
	return ordered, true
}
