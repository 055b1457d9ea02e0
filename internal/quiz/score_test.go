package quiz

import (
	"testing"

	"github.com/paperdrill/paperdrill-backend/internal/model"
)

func TestScoreWithNegativeMarking(t *testing.T) {
	qs := []model.Question{
		{Text: "q1", Options: []string{"a", "b"}, AnswerIndex: 0},
		{Text: "q2", Options: []string{"a", "b"}, AnswerIndex: 0},
		{Text: "q3", Options: []string{"a", "b"}, AnswerIndex: 1},
	}
	selected := []OptionIndex{0, 1, OptionNone}
	peeked := []bool{false, false, false}

	b := Score(qs, selected, peeked, 0.25)
	if b.Attempted != 2 || b.Correct != 1 || b.Wrong != 1 {
		t.Fatalf("counts wrong: %+v", b)
	}
	if b.Negative != 0.25 || b.Score != 0.75 {
		t.Fatalf("marks wrong: %+v", b)
	}
	if b.Total != 3 {
		t.Fatalf("total should stay 3, got %d", b.Total)
	}
}

func TestScoreExcludesPeekedButKeepsDenominator(t *testing.T) {
	qs := []model.Question{
		{Text: "q1", Options: []string{"a", "b"}, AnswerIndex: 0},
		{Text: "q2", Options: []string{"a", "b"}, AnswerIndex: 1},
		{Text: "q3", Options: []string{"a", "b"}, AnswerIndex: 0},
	}
	// Question 2 is peeked; whatever its answerIndex, it contributes zero.
	selected := []OptionIndex{0, OptionNone, OptionNone}
	peeked := []bool{false, true, false}

	b := Score(qs, selected, peeked, 0.25)
	if b.Total != 3 {
		t.Fatalf("peek must not shrink the denominator, got %d", b.Total)
	}
	if b.Attempted != 1 || b.Correct != 1 || b.Wrong != 0 || b.Negative != 0 {
		t.Fatalf("peeked question leaked into counts: %+v", b)
	}
	if b.Score != 1 {
		t.Fatalf("score should be 1, got %v", b.Score)
	}
}

func TestScoreZeroNegativeMark(t *testing.T) {
	qs := []model.Question{
		{Text: "q1", Options: []string{"a", "b"}, AnswerIndex: 0},
		{Text: "q2", Options: []string{"a", "b"}, AnswerIndex: 0},
	}
	b := Score(qs, []OptionIndex{1, 1}, []bool{false, false}, 0)
	if b.Wrong != 2 || b.Negative != 0 || b.Score != 0 {
		t.Fatalf("zero negative mark: %+v", b)
	}
}
