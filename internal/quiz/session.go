package quiz

import (
	"sync"

	"github.com/paperdrill/paperdrill-backend/internal/model"
)

// OptionIndex is a selected option with an explicit "unset" sentinel.
// The sentinel is what gets persisted, so storage encodings that drop
// nulls can never corrupt the distinction between "unanswered" and
// "answered option 0".
type OptionIndex int

// OptionNone marks a question as not answered.
const OptionNone OptionIndex = -1

// Status is the lifecycle state of a session. The loading phase (question
// fetch) happens before a Session exists; a constructed session starts at
// StatusReady and a restored one jumps straight to StatusInProgress.
type Status string

const (
	StatusReady      Status = "ready"
	StatusInProgress Status = "in_progress"
	StatusFinished   Status = "finished"
)

// Effect reports what a session operation did, so the caller can decide
// on persistence and finalization without inspecting internals.
type Effect struct {
	// Changed is true when state was mutated and a snapshot save is due.
	Changed bool
	// Finished is true only on the call that transitioned the session to
	// its terminal state. At most one call ever reports it.
	Finished bool
}

// State is a copy of the session's mutable state, used for API views and
// snapshot serialization. Selected uses the -1 sentinel.
type State struct {
	Status        Status   `json:"status"`
	OrderKeys     []string `json:"orderKeys"`
	CurrentIndex  int      `json:"currentIndex"`
	Selected      []int    `json:"selected"`
	Peeked        []bool   `json:"peeked"`
	Bookmarked    []bool   `json:"bookmarked"`
	TimeBudgetSec int      `json:"timeBudgetSec"`
	TimeLeftSec   int      `json:"timeLeftSec"`
	Total         int      `json:"total"`
}

// RestoreState is the subset of State a resumed snapshot supplies.
type RestoreState struct {
	CurrentIndex int
	Selected     []int
	Peeked       []bool
	Bookmarked   []bool
	TimeLeftSec  int
}

// Session is one attempt at a paper. All transitions are serialized under
// a single mutex: user events and timer ticks from different goroutines
// apply one at a time, which is what makes the finish path race-free.
type Session struct {
	mu         sync.Mutex
	questions  []model.Question
	orderKeys  []string
	current    int
	selected   []OptionIndex
	peeked     []bool
	bookmarked []bool
	budgetSec  int
	leftSec    int
	status     Status
	scored     bool
	matches    Matches
}

// NewSession builds a ready session over an already-ordered question set.
func NewSession(ordered []model.Question, orderKeys []string, budgetSec int) (*Session, error) {
	if len(ordered) == 0 {
		return nil, ErrNoQuestions
	}
	selected := make([]OptionIndex, len(ordered))
	for i := range selected {
		selected[i] = OptionNone
	}
	return &Session{
		questions:  ordered,
		orderKeys:  orderKeys,
		selected:   selected,
		peeked:     make([]bool, len(ordered)),
		bookmarked: make([]bool, len(ordered)),
		budgetSec:  budgetSec,
		leftSec:    budgetSec,
		status:     StatusReady,
	}, nil
}

// Start moves a ready session into progress. Idempotent; an error is
// returned only when the session already finished.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusFinished {
		return ErrFinished
	}
	s.status = StatusInProgress
	return nil
}

// Restore applies a validated snapshot and moves straight into progress.
// Array lengths must match the live question count; the snapshot manager
// checks this before calling, the error here is a last line of defense.
func (s *Session) Restore(st RestoreState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.questions)
	if len(st.Selected) != n || len(st.Peeked) != n || len(st.Bookmarked) != n {
		return ErrIndexOutOfRange
	}
	for i, v := range st.Selected {
		if v < 0 || v >= len(s.questions[i].Options) {
			s.selected[i] = OptionNone
		} else {
			s.selected[i] = OptionIndex(v)
		}
		// Peek wins over any stored answer; the two are mutually exclusive.
		if st.Peeked[i] {
			s.selected[i] = OptionNone
		}
	}
	copy(s.peeked, st.Peeked)
	copy(s.bookmarked, st.Bookmarked)

	if st.CurrentIndex >= 0 && st.CurrentIndex < n {
		s.current = st.CurrentIndex
	}

	left := st.TimeLeftSec
	if left < 0 {
		left = 0
	}
	if left > s.budgetSec {
		left = s.budgetSec
	}
	s.leftSec = left
	s.status = StatusInProgress
	return nil
}

// SelectOption answers the current question. The first answer wins: once
// set it is immutable for the rest of the session, and a peeked question
// cannot be answered at all. Both cases are silent no-ops, mirroring a UI
// that simply ignores the click.
func (s *Session) SelectOption(idx int) (Effect, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireInProgressLocked(); err != nil {
		return Effect{}, err
	}
	if s.peeked[s.current] || s.selected[s.current] != OptionNone {
		return Effect{}, nil
	}
	if idx < 0 || idx >= len(s.questions[s.current].Options) {
		return Effect{}, ErrOptionOutOfRange
	}
	s.selected[s.current] = OptionIndex(idx)
	return Effect{Changed: true}, nil
}

// Peek reveals the current question's answer before committing to one.
// It is a no-op once an answer is set, permanently marks the question as
// peeked, and clears any selection so the exclusivity invariant holds.
func (s *Session) Peek() (Effect, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireInProgressLocked(); err != nil {
		return Effect{}, err
	}
	if s.selected[s.current] != OptionNone {
		return Effect{}, nil
	}
	changed := !s.peeked[s.current]
	s.peeked[s.current] = true
	s.selected[s.current] = OptionNone
	return Effect{Changed: changed}, nil
}

// ToggleBookmark flips the current question's bookmark. Always allowed
// while in progress.
func (s *Session) ToggleBookmark() (Effect, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireInProgressLocked(); err != nil {
		return Effect{}, err
	}
	s.bookmarked[s.current] = !s.bookmarked[s.current]
	return Effect{Changed: true}, nil
}

// Next advances to the following question, or finishes the session when
// called on the last one.
func (s *Session) Next() (Effect, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireInProgressLocked(); err != nil {
		return Effect{}, err
	}
	if s.current < len(s.questions)-1 {
		s.current++
		return Effect{Changed: true}, nil
	}
	return Effect{Changed: true, Finished: s.finishLocked()}, nil
}

// Prev steps back one question; a no-op at index zero.
func (s *Session) Prev() (Effect, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireInProgressLocked(); err != nil {
		return Effect{}, err
	}
	if s.current == 0 {
		return Effect{}, nil
	}
	s.current--
	return Effect{Changed: true}, nil
}

// JumpTo sets the cursor directly, used by map navigation and search.
func (s *Session) JumpTo(i int) (Effect, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireInProgressLocked(); err != nil {
		return Effect{}, err
	}
	if i < 0 || i >= len(s.questions) {
		return Effect{}, ErrIndexOutOfRange
	}
	s.current = i
	return Effect{Changed: true}, nil
}

// Submit finishes the attempt explicitly, with the same terminal effect
// as Next on the last question or the timer reaching zero.
func (s *Session) Submit() (Effect, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusFinished {
		return Effect{}, ErrFinished
	}
	if s.status != StatusInProgress {
		return Effect{}, ErrNotStarted
	}
	return Effect{Changed: true, Finished: s.finishLocked()}, nil
}

// Tick consumes one second of the time budget. At zero the session
// finishes; the one-shot guard inside finishLocked means a tick racing an
// explicit submit still yields exactly one Finished effect.
func (s *Session) Tick() Effect {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusInProgress {
		return Effect{}
	}
	if s.leftSec > 0 {
		s.leftSec--
	}
	if s.leftSec <= 0 {
		return Effect{Changed: true, Finished: s.finishLocked()}
	}
	return Effect{Changed: true}
}

// SearchQuery computes matches for the query and jumps to the first hit.
func (s *Session) SearchQuery(query string) (SearchState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireInProgressLocked(); err != nil {
		return SearchState{}, err
	}
	s.matches = NewMatches(Search(s.questions, query))
	if idx, ok := s.matches.Current(); ok {
		s.current = idx
	}
	return s.searchStateLocked(), nil
}

// CycleMatch moves to the next or previous hit, wrapping around, and
// jumps the cursor there.
func (s *Session) CycleMatch(forward bool) (SearchState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireInProgressLocked(); err != nil {
		return SearchState{}, err
	}
	var idx int
	var ok bool
	if forward {
		idx, ok = s.matches.Next()
	} else {
		idx, ok = s.matches.Prev()
	}
	if ok {
		s.current = idx
	}
	return s.searchStateLocked(), nil
}

// SearchState is the API view of an in-session search.
type SearchState struct {
	Matches      []int `json:"matches"`
	Cursor       int   `json:"cursor"`
	CurrentIndex int   `json:"currentIndex"`
}

func (s *Session) searchStateLocked() SearchState {
	indices := s.matches.Indices()
	if indices == nil {
		indices = []int{}
	}
	return SearchState{Matches: indices, Cursor: s.matches.Cursor(), CurrentIndex: s.current}
}

// Result scores the session under the given negative mark.
func (s *Session) Result(negativeMark float64) Breakdown {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Score(s.questions, s.selected, s.peeked, negativeMark)
}

// Responses builds the per-question review detail for the attempt record.
func (s *Session) Responses() []model.ResponseDetail {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.ResponseDetail, len(s.questions))
	for i, q := range s.questions {
		out[i] = model.ResponseDetail{
			Key:         s.orderKeys[i],
			ID:          q.ID,
			SelectedIdx: int(s.selected[i]),
			CorrectIdx:  q.AnswerIndex,
			Peeked:      s.peeked[i],
			Bookmarked:  s.bookmarked[i],
		}
	}
	return out
}

// State copies the mutable state for views and snapshots.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := State{
		Status:        s.status,
		OrderKeys:     append([]string(nil), s.orderKeys...),
		CurrentIndex:  s.current,
		Selected:      make([]int, len(s.selected)),
		Peeked:        append([]bool(nil), s.peeked...),
		Bookmarked:    append([]bool(nil), s.bookmarked...),
		TimeBudgetSec: s.budgetSec,
		TimeLeftSec:   s.leftSec,
		Total:         len(s.questions),
	}
	for i, v := range s.selected {
		st.Selected[i] = int(v)
	}
	return st
}

// Questions returns the ordered question slice. The slice is shared, not
// copied; callers must treat it as read-only.
func (s *Session) Questions() []model.Question {
	return s.questions
}

// Finished reports whether the session reached its terminal state.
func (s *Session) Finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status == StatusFinished
}

// ElapsedSec is the consumed portion of the time budget.
func (s *Session) ElapsedSec() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.budgetSec - s.leftSec
}

func (s *Session) requireInProgressLocked() error {
	switch s.status {
	case StatusInProgress:
		return nil
	case StatusFinished:
		return ErrFinished
	default:
		return ErrNotStarted
	}
}

// finishLocked flips the session to Finished exactly once. The scored
// flag is the one-shot guard: callers only finalize (score + persist)
// when this returns true.
func (s *Session) finishLocked() bool {
	if s.scored {
		return false
	}
	s.scored = true
	s.status = StatusFinished
	return true
}
