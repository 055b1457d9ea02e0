package quiz

import (
	"strings"

	"github.com/paperdrill/paperdrill-backend/internal/model"
)

// MinQueryLen is the shortest query that produces matches. Shorter queries
// yield an empty result, not an error.
const MinQueryLen = 2

// Search returns the indices of questions whose text, options, tags or
// explanation contain the query, case-insensitively.
func Search(questions []model.Question, query string) []int {
	needle := strings.ToLower(strings.TrimSpace(query))
	if len(needle) < MinQueryLen {
		return nil
	}
	var matches []int
	for i, q := range questions {
		hay := q.Text + " " + strings.Join(q.Options, " ") + " " + strings.Join(q.Tags, " ") + " " + q.Explanation
		if strings.Contains(strings.ToLower(hay), needle) {
			matches = append(matches, i)
		}
	}
	return matches
}

// Matches cycles through search hits, wrapping at both ends.
type Matches struct {
	indices []int
	cursor  int
}

// NewMatches positions the cursor on the first hit.
func NewMatches(indices []int) Matches {
	return Matches{indices: indices}
}

// Current returns the question index under the cursor.
func (m *Matches) Current() (int, bool) {
	if len(m.indices) == 0 {
		return 0, false
	}
	return m.indices[m.cursor], true
}

// Next advances the cursor, wrapping modulo the match count.
func (m *Matches) Next() (int, bool) {
	if len(m.indices) == 0 {
		return 0, false
	}
	m.cursor = (m.cursor + 1) % len(m.indices)
	return m.indices[m.cursor], true
}

// Prev moves the cursor back, wrapping modulo the match count.
func (m *Matches) Prev() (int, bool) {
	if len(m.indices) == 0 {
		return 0, false
	}
	m.cursor = (m.cursor - 1 + len(m.indices)) % len(m.indices)
	return m.indices[m.cursor], true
}

// Indices exposes the raw hit list for API responses.
func (m *Matches) Indices() []int {
	return m.indices
}

// Cursor returns the current cursor position within the hit list.
func (m *Matches) Cursor() int {
	return m.cursor
}
