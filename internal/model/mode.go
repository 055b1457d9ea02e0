package model

// Mode is a difficulty preset fixing the per-question time allowance,
// or "custom" for a user-chosen total budget.
type Mode string

const (
	ModeEasy   Mode = "easy"
	ModeMedium Mode = "medium"
	ModeHard   Mode = "hard"
	ModeCustom Mode = "custom"
)

const (
	// CustomMinutesMin and CustomMinutesMax bound the custom time budget.
	CustomMinutesMin = 1
	CustomMinutesMax = 180
)

// ParseMode maps a raw string to a Mode, defaulting to medium.
func ParseMode(raw string) Mode {
	switch Mode(raw) {
	case ModeEasy, ModeMedium, ModeHard, ModeCustom:
		return Mode(raw)
	default:
		return ModeMedium
	}
}

// PerQuestionSec returns the preset seconds per question, 0 for custom.
func (m Mode) PerQuestionSec() int {
	switch m {
	case ModeEasy:
		return 45
	case ModeHard:
		return 75
	case ModeCustom:
		return 0
	default:
		return 60
	}
}

// BudgetSec computes the total time budget for a session.
// Custom mode uses total minutes clamped to [CustomMinutesMin, CustomMinutesMax];
// preset modes multiply the per-question allowance by the question count.
func BudgetSec(mode Mode, questionCount, customMinutes int) int {
	if mode == ModeCustom {
		mins := customMinutes
		if mins < CustomMinutesMin {
			mins = CustomMinutesMin
		}
		if mins > CustomMinutesMax {
			mins = CustomMinutesMax
		}
		return mins * 60
	}
	return mode.PerQuestionSec() * questionCount
}
