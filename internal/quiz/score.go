package quiz

import "github.com/paperdrill/paperdrill-backend/internal/model"

// Breakdown is the scored outcome of an attempt under negative marking.
// Peeked questions contribute nothing to Attempted/Correct/Wrong/Negative
// but remain in Total: the score is out of the full question count, not
// out of the attempted count.
type Breakdown struct {
	Attempted int     `json:"attempted"`
	Correct   int     `json:"correct"`
	Wrong     int     `json:"wrong"`
	Negative  float64 `json:"negative"`
	Score     float64 `json:"score"`
	Total     int     `json:"total"`
}

// Score computes the breakdown for a set of responses. negativeMark is the
// per-wrong-answer deduction as a fraction of one point (non-negative).
func Score(questions []model.Question, selected []OptionIndex, peeked []bool, negativeMark float64) Breakdown {
	b := Breakdown{Total: len(questions)}
	for i, q := range questions {
		if peeked[i] || selected[i] == OptionNone {
			continue
		}
		b.Attempted++
		if int(selected[i]) == q.AnswerIndex {
			b.Correct++
		}
	}
	b.Wrong = b.Attempted - b.Correct
	b.Negative = float64(b.Wrong) * negativeMark
	b.Score = float64(b.Correct) - b.Negative
	return b
}
