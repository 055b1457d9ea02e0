package model

import "testing"

func TestParseModeDefaultsToMedium(t *testing.T) {
	if got := ParseMode("weird"); got != ModeMedium {
		t.Fatalf("expected medium fallback, got %s", got)
	}
	if got := ParseMode("hard"); got != ModeHard {
		t.Fatalf("expected hard, got %s", got)
	}
}

func TestBudgetSecPresets(t *testing.T) {
	cases := []struct {
		mode  Mode
		count int
		want  int
	}{
		{ModeEasy, 10, 450},
		{ModeMedium, 10, 600},
		{ModeHard, 10, 750},
	}
	for _, c := range cases {
		if got := BudgetSec(c.mode, c.count, 0); got != c.want {
			t.Fatalf("%s x%d: want %d got %d", c.mode, c.count, c.want, got)
		}
	}
}

func TestBudgetSecCustomClamps(t *testing.T) {
	if got := BudgetSec(ModeCustom, 10, 0); got != 60 {
		t.Fatalf("below minimum should clamp to 1 minute, got %d", got)
	}
	if got := BudgetSec(ModeCustom, 10, 500); got != 180*60 {
		t.Fatalf("above maximum should clamp to 180 minutes, got %d", got)
	}
	if got := BudgetSec(ModeCustom, 10, 30); got != 1800 {
		t.Fatalf("custom 30 minutes should be 1800s, got %d", got)
	}
}
