package quiz

import "testing"

func TestNormalizeBareArrayAndEnvelope(t *testing.T) {
	bare := []byte(`[{"text":"Q1","options":["a","b"],"answerIndex":1}]`)
	if got := Normalize(bare); len(got) != 1 || got[0].AnswerIndex != 1 {
		t.Fatalf("bare array: got %+v", got)
	}

	env := []byte(`{"questions":[{"text":"Q1","options":["a","b","c","d"],"answerIndex":0}]}`)
	if got := Normalize(env); len(got) != 1 || len(got[0].Options) != 4 {
		t.Fatalf("envelope: got %+v", got)
	}
}

func TestNormalizeDropsOutOfBoundsAnswer(t *testing.T) {
	raw := []byte(`[
		{"text":"valid","options":["a","b"],"answerIndex":0},
		{"text":"oob","options":["a","b"],"answerIndex":2},
		{"text":"negative","options":["a","b"],"answerIndex":-1},
		{"text":"fractional","options":["a","b"],"answerIndex":0.5},
		{"text":"stringy","options":["a","b"],"answerIndex":"1"}
	]`)
	got := Normalize(raw)
	if len(got) != 1 || got[0].Text != "valid" {
		t.Fatalf("expected only the valid item, got %+v", got)
	}
}

func TestNormalizeAllInvalidYieldsEmpty(t *testing.T) {
	raw := []byte(`[
		{"text":"","options":["a","b"],"answerIndex":0},
		{"text":"   ","options":["a","b"],"answerIndex":0},
		{"text":"one option","options":["a"],"answerIndex":0}
	]`)
	if got := Normalize(raw); len(got) != 0 {
		t.Fatalf("expected empty set, got %+v", got)
	}
}

func TestNormalizeCoercesLooseShapes(t *testing.T) {
	raw := []byte(`[{
		"id": 7,
		"text": "  trimmed  ",
		"options": ["a", 2, true],
		"answerIndex": 1,
		"explanation": ["First sentence.", "Second sentence."],
		"tags": ["anatomy", 2025]
	}]`)
	got := Normalize(raw)
	if len(got) != 1 {
		t.Fatalf("expected one question, got %d", len(got))
	}
	q := got[0]
	if q.ID != "7" {
		t.Fatalf("numeric id should stringify, got %q", q.ID)
	}
	if q.Text != "trimmed" {
		t.Fatalf("text should be trimmed, got %q", q.Text)
	}
	if q.Options[1] != "2" || q.Options[2] != "true" {
		t.Fatalf("options should stringify, got %+v", q.Options)
	}
	if q.Explanation != "First sentence. Second sentence." {
		t.Fatalf("explanation should join, got %q", q.Explanation)
	}
	if len(q.Tags) != 2 || q.Tags[1] != "2025" {
		t.Fatalf("tags should stringify, got %+v", q.Tags)
	}
}

func TestNormalizeStrictRequiresFourOptions(t *testing.T) {
	raw := []byte(`[
		{"text":"two","options":["a","b"],"answerIndex":0},
		{"text":"four","options":["a","b","c","d"],"answerIndex":3}
	]`)
	got := NormalizeStrict(raw)
	if len(got) != 1 || got[0].Text != "four" {
		t.Fatalf("strict mode should keep only 4-option items, got %+v", got)
	}
	if loose := Normalize(raw); len(loose) != 2 {
		t.Fatalf("loose mode should keep both, got %+v", loose)
	}
}

func TestNormalizeGarbageInput(t *testing.T) {
	for _, raw := range [][]byte{nil, []byte("not json"), []byte(`{"other":1}`), []byte(`42`)} {
		if got := Normalize(raw); len(got) != 0 {
			t.Fatalf("garbage %q should yield empty, got %+v", raw, got)
		}
	}
}
