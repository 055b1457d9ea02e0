package quiz

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/paperdrill/paperdrill-backend/internal/model"
)

// rawQuestion tolerates the loose shapes produced by paper files, DB JSON
// columns and the AI generator. Fields are coerced, not trusted.
type rawQuestion struct {
	ID          any    `json:"id"`
	Text        string `json:"text"`
	Options     []any  `json:"options"`
	AnswerIndex any    `json:"answerIndex"`
	Explanation any    `json:"explanation"`
	Tags        []any  `json:"tags"`
}

type questionEnvelope struct {
	Questions []rawQuestion `json:"questions"`
}

// Normalize parses a question payload — either a bare JSON array or an
// object with a "questions" array — and returns the items that survive
// validation. Items failing validation are dropped silently; the caller
// treats an empty result as the session-start fatal condition.
func Normalize(raw []byte) []model.Question {
	return normalize(raw, 0)
}

// NormalizeStrict is Normalize with the canonical external-source rule:
// every question must have exactly four options. Used for community paper
// submissions; internally created sessions only require two.
func NormalizeStrict(raw []byte) []model.Question {
	return normalize(raw, 4)
}

func normalize(raw []byte, exactOptions int) []model.Question {
	items := decodeItems(raw)
	out := make([]model.Question, 0, len(items))
	for _, it := range items {
		if q, ok := coerce(it, exactOptions); ok {
			out = append(out, q)
		}
	}
	return out
}

func decodeItems(raw []byte) []rawQuestion {
	var arr []rawQuestion
	if err := json.Unmarshal(raw, &arr); err == nil {
		return arr
	}
	var env questionEnvelope
	if err := json.Unmarshal(raw, &env); err == nil {
		return env.Questions
	}
	return nil
}

func coerce(rq rawQuestion, exactOptions int) (model.Question, bool) {
	text := strings.TrimSpace(rq.Text)
	if text == "" {
		return model.Question{}, false
	}

	if len(rq.Options) < 2 {
		return model.Question{}, false
	}
	if exactOptions > 0 && len(rq.Options) != exactOptions {
		return model.Question{}, false
	}
	options := make([]string, len(rq.Options))
	for i, v := range rq.Options {
		options[i] = asString(v)
	}

	answerIndex, ok := asInt(rq.AnswerIndex)
	if !ok || answerIndex < 0 || answerIndex >= len(options) {
		return model.Question{}, false
	}

	q := model.Question{
		ID:          idString(rq.ID),
		Text:        text,
		Options:     options,
		AnswerIndex: answerIndex,
		Explanation: explanationString(rq.Explanation),
	}
	if len(rq.Tags) > 0 {
		q.Tags = make([]string, len(rq.Tags))
		for i, v := range rq.Tags {
			q.Tags[i] = asString(v)
		}
	}
	return q, true
}

// asString stringifies scalar JSON values the way a loose frontend would.
func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// asInt accepts only whole JSON numbers. Strings are rejected on purpose:
// an answerIndex of "2" means the source is malformed, not merely loose.
func asInt(v any) (int, bool) {
	f, ok := v.(float64)
	if !ok || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}

// idString keeps numeric and string IDs; anything else counts as absent.
func idString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

// explanationString joins sentence-list explanations into one string.
func explanationString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		parts := make([]string, 0, len(t))
		for _, p := range t {
			if s := asString(p); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	default:
		return ""
	}
}
