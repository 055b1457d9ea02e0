package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/paperdrill/paperdrill-backend/internal/config"
	"github.com/paperdrill/paperdrill-backend/internal/model"
	"github.com/paperdrill/paperdrill-backend/internal/quiz"
	"github.com/paperdrill/paperdrill-backend/internal/snapshot"
)

// ErrAttemptNotFound means the key resolves to no live session and no
// resumable snapshot.
var ErrAttemptNotFound = errors.New("attempt not found")

// paperSource is the slice of PaperService the attempt flow needs.
type paperSource interface {
	Questions(ctx context.Context, paperID string) (string, []model.Question, error)
}

// ScoreQueue hands a finished attempt to the persistence pipeline.
type ScoreQueue interface {
	Enqueue(ctx context.Context, rec *model.AttemptRecord) error
}

// scoreInserter is the synchronous fallback when the queue is unavailable.
type scoreInserter interface {
	Insert(ctx context.Context, rec *model.AttemptRecord) (int64, error)
}

// QuestionView is a question as exposed to the client. The correct index
// and explanation stay hidden until the question is peeked or the attempt
// finishes; CorrectIdx uses -1 for "hidden".
type QuestionView struct {
	Key         string   `json:"key"`
	Text        string   `json:"text"`
	Options     []string `json:"options"`
	Tags        []string `json:"tags,omitempty"`
	CorrectIdx  int      `json:"correctIdx"`
	Explanation string   `json:"explanation,omitempty"`
}

// AttemptView is the full client-facing picture of one attempt.
type AttemptView struct {
	Key       string         `json:"key"`
	PaperID   string         `json:"paperId"`
	PaperName string         `json:"paperName"`
	Mode      string         `json:"mode"`
	Randomize bool           `json:"randomize"`
	Resumed   bool           `json:"resumed"`
	State     quiz.State     `json:"state"`
	Questions []QuestionView `json:"questions"`
}

// ResultView is returned once, by the call that finishes the attempt.
type ResultView struct {
	Key       string                 `json:"key"`
	PaperID   string                 `json:"paperId"`
	PaperName string                 `json:"paperName"`
	Result    quiz.Breakdown         `json:"result"`
	Responses []model.ResponseDetail `json:"responses"`
}

// liveAttempt pairs a session with the identity it runs under. The
// session carries its own mutex; the fields here are set once at start.
type liveAttempt struct {
	key       string
	userID    string
	paperID   string
	paperName string
	mode      model.Mode
	randomize bool
	sess      *quiz.Session
	cancel    context.CancelFunc

	saveMu   sync.Mutex
	lastSave time.Time
}

// AttemptService owns the in-memory registry of running sessions, drives
// their timers, and mediates every user event. A key with no live session
// is transparently resumed from its snapshot when one is acceptable.
type AttemptService struct {
	cfg    *config.Config
	papers paperSource
	snaps  *snapshot.Manager
	queue  ScoreQueue
	scores scoreInserter
	log    zerolog.Logger

	mu   sync.Mutex
	live map[string]*liveAttempt

	rootCtx context.Context
	tick    time.Duration
}

func NewAttemptService(cfg *config.Config, papers paperSource, snaps *snapshot.Manager, queue ScoreQueue, scores scoreInserter, log zerolog.Logger) *AttemptService {
	return &AttemptService{
		cfg:     cfg,
		papers:  papers,
		snaps:   snaps,
		queue:   queue,
		scores:  scores,
		log:     log.With().Str("component", "attempt_service").Logger(),
		live:    make(map[string]*liveAttempt),
		rootCtx: context.Background(),
		tick:    time.Second,
	}
}

// Run binds timer goroutines to the application lifetime. Attempts
// started before Run still tick, detached from ctx.
func (s *AttemptService) Run(ctx context.Context) {
	s.mu.Lock()
	s.rootCtx = ctx
	s.mu.Unlock()
}

// Start begins a new attempt or resumes an existing one under the same
// user, paper, mode and randomize flag.
func (s *AttemptService) Start(ctx context.Context, req *model.StartAttemptRequest) (*AttemptView, error) {
	mode := model.ParseMode(req.Mode)
	key := snapshot.Key(req.UserID, req.PaperID, string(mode), req.Randomize)

	s.mu.Lock()
	if att, ok := s.live[key]; ok {
		s.mu.Unlock()
		return s.view(att, true), nil
	}
	s.mu.Unlock()

	att, resumed, err := s.bring(ctx, key, req.UserID, req.PaperID, mode, req.Randomize, req.Minutes)
	if err != nil {
		return nil, err
	}
	return s.view(att, resumed), nil
}

// State returns the current view for a key, resuming from a snapshot if
// the live registry lost the session (restart, other instance).
func (s *AttemptService) State(ctx context.Context, key string) (*AttemptView, error) {
	att, resumed, err := s.lookup(ctx, key)
	if err != nil {
		return nil, err
	}
	return s.view(att, resumed), nil
}

// Answer selects an option on the current question.
func (s *AttemptService) Answer(ctx context.Context, key string, optionIndex int) (*AttemptView, *ResultView, error) {
	return s.event(ctx, key, func(att *liveAttempt) (quiz.Effect, error) {
		return att.sess.SelectOption(optionIndex)
	})
}

// Peek reveals the current question's answer.
func (s *AttemptService) Peek(ctx context.Context, key string) (*AttemptView, *ResultView, error) {
	return s.event(ctx, key, func(att *liveAttempt) (quiz.Effect, error) {
		return att.sess.Peek()
	})
}

// Bookmark toggles the current question's bookmark.
func (s *AttemptService) Bookmark(ctx context.Context, key string) (*AttemptView, *ResultView, error) {
	return s.event(ctx, key, func(att *liveAttempt) (quiz.Effect, error) {
		return att.sess.ToggleBookmark()
	})
}

// Navigate moves the cursor. op "next" on the last question finishes the
// attempt, same as submit.
func (s *AttemptService) Navigate(ctx context.Context, key, op string, index int) (*AttemptView, *ResultView, error) {
	return s.event(ctx, key, func(att *liveAttempt) (quiz.Effect, error) {
		switch op {
		case "prev":
			return att.sess.Prev()
		case "jump":
			return att.sess.JumpTo(index)
		default:
			return att.sess.Next()
		}
	})
}

// Search runs a query, or cycles through the current matches when dir is
// set, jumping the cursor to the hit.
func (s *AttemptService) Search(ctx context.Context, key, query, dir string) (*quiz.SearchState, error) {
	att, _, err := s.lookup(ctx, key)
	if err != nil {
		return nil, err
	}

	var st quiz.SearchState
	if dir != "" {
		st, err = att.sess.CycleMatch(dir != "prev")
	} else {
		st, err = att.sess.SearchQuery(query)
	}
	if err != nil {
		return nil, err
	}
	s.save(ctx, att, true)
	return &st, nil
}

// Submit finishes the attempt and returns the scored result.
func (s *AttemptService) Submit(ctx context.Context, key string) (*ResultView, error) {
	att, _, err := s.lookup(ctx, key)
	if err != nil {
		return nil, err
	}
	eff, err := att.sess.Submit()
	if err != nil {
		return nil, err
	}
	if !eff.Finished {
		// A racing tick finished it first; the score is already on its way.
		return nil, quiz.ErrFinished
	}
	return s.finalize(ctx, att), nil
}

// event applies one session mutation and handles the save/finish fallout.
func (s *AttemptService) event(ctx context.Context, key string, fn func(*liveAttempt) (quiz.Effect, error)) (*AttemptView, *ResultView, error) {
	att, _, err := s.lookup(ctx, key)
	if err != nil {
		return nil, nil, err
	}
	eff, err := fn(att)
	if err != nil {
		return nil, nil, err
	}
	if eff.Finished {
		return nil, s.finalize(ctx, att), nil
	}
	if eff.Changed {
		s.save(ctx, att, true)
	}
	return s.view(att, false), nil, nil
}

// lookup finds a live attempt, or resurrects one from its snapshot.
func (s *AttemptService) lookup(ctx context.Context, key string) (*liveAttempt, bool, error) {
	s.mu.Lock()
	att, ok := s.live[key]
	s.mu.Unlock()
	if ok {
		return att, false, nil
	}

	userID, paperID, mode, randomize, ok := parseKey(key)
	if !ok {
		return nil, false, ErrAttemptNotFound
	}
	att, resumed, err := s.bring(ctx, key, userID, paperID, mode, randomize, 0)
	if err != nil {
		return nil, false, err
	}
	if !resumed {
		// A fresh session out of thin air is not a resume; drop it again,
		// together with the snapshot its start just wrote.
		s.drop(att)
		if err := s.snaps.Delete(ctx, key); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("snapshot cleanup failed")
		}
		return nil, false, ErrAttemptNotFound
	}
	return att, true, nil
}

// bring loads the paper, applies an acceptable snapshot, registers the
// session and starts its timer. Exactly one caller wins a racing start.
func (s *AttemptService) bring(ctx context.Context, key, userID, paperID string, mode model.Mode, randomize bool, minutes int) (*liveAttempt, bool, error) {
	paperName, questions, err := s.papers.Questions(ctx, paperID)
	if err != nil {
		return nil, false, err
	}
	if len(questions) == 0 {
		return nil, false, quiz.ErrNoQuestions
	}

	liveKeys := quiz.Keys(questions)
	snap, resumed := s.snaps.Load(ctx, key, liveKeys)

	var priorKeys []string
	if resumed {
		priorKeys = snap.OrderKeys
	}
	ordered, orderKeys := quiz.BuildOrder(questions, randomize, priorKeys, nil)

	budget := model.BudgetSec(mode, len(questions), minutes)
	if resumed && snap.TimeBudgetSec > 0 {
		budget = snap.TimeBudgetSec
	}
	sess, err := quiz.NewSession(ordered, orderKeys, budget)
	if err != nil {
		return nil, false, err
	}
	if resumed {
		err = sess.Restore(quiz.RestoreState{
			CurrentIndex: snap.CurrentIndex,
			Selected:     snap.Selected,
			Peeked:       snap.Peeked,
			Bookmarked:   snap.Bookmarked,
			TimeLeftSec:  snap.TimeLeftSec,
		})
		if err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("snapshot restore failed, starting fresh")
			sess, _ = quiz.NewSession(ordered, orderKeys, budget)
			resumed = false
		}
	}
	if !resumed {
		if err := sess.Start(); err != nil {
			return nil, false, err
		}
	}

	att := &liveAttempt{
		key:       key,
		userID:    userID,
		paperID:   paperID,
		paperName: paperName,
		mode:      mode,
		randomize: randomize,
		sess:      sess,
	}

	s.mu.Lock()
	if existing, ok := s.live[key]; ok {
		s.mu.Unlock()
		return existing, true, nil
	}
	tickCtx, cancel := context.WithCancel(s.rootCtx)
	att.cancel = cancel
	s.live[key] = att
	s.mu.Unlock()

	go s.runTimer(tickCtx, att)

	s.save(ctx, att, true)
	s.log.Info().
		Str("key", key).
		Str("paper", paperID).
		Str("mode", string(mode)).
		Bool("randomize", randomize).
		Bool("resumed", resumed).
		Int("questions", len(questions)).
		Msg("attempt started")
	return att, resumed, nil
}

// runTimer is the session's single decrementer. One goroutine per live
// attempt; the session mutex serializes its ticks with user events.
func (s *AttemptService) runTimer(ctx context.Context, att *liveAttempt) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			eff := att.sess.Tick()
			if eff.Finished {
				s.log.Info().Str("key", att.key).Msg("time expired, auto-submitting")
				s.finalize(context.Background(), att)
				return
			}
			if eff.Changed {
				s.save(ctx, att, false)
			}
		}
	}
}

// save persists a snapshot. Forced saves (user mutations, start) always
// run; tick saves are throttled. Failures are logged and swallowed: a
// lost snapshot only costs resumability, never the running attempt.
func (s *AttemptService) save(ctx context.Context, att *liveAttempt, forced bool) {
	att.saveMu.Lock()
	if !forced && time.Since(att.lastSave) < s.cfg.SaveThrottle {
		att.saveMu.Unlock()
		return
	}
	att.lastSave = time.Now()
	att.saveMu.Unlock()

	if err := s.snaps.Save(ctx, att.key, snapshot.FromState(att.sess.State())); err != nil {
		s.log.Warn().Err(err).Str("key", att.key).Msg("snapshot save failed")
	}
}

// finalize scores the attempt, hands the record to the persistence
// pipeline and retires the session. Callers reach here exactly once per
// attempt, guarded by the session's one-shot finish.
func (s *AttemptService) finalize(ctx context.Context, att *liveAttempt) *ResultView {
	breakdown := att.sess.Result(s.cfg.NegativeMark(att.paperID))
	responses := att.sess.Responses()

	rec := &model.AttemptRecord{
		UserID:    att.userID,
		Paper:     att.paperID,
		Score:     breakdown.Score,
		Timestamp: time.Now().UTC(),
		Meta: model.AttemptMeta{
			Attempted:   breakdown.Attempted,
			Correct:     breakdown.Correct,
			Wrong:       breakdown.Wrong,
			Negative:    breakdown.Negative,
			Total:       breakdown.Total,
			Mode:        string(att.mode),
			Randomize:   att.randomize,
			DurationSec: att.sess.State().TimeBudgetSec,
			ElapsedSec:  att.sess.ElapsedSec(),
			PaperName:   att.paperName,
			Responses:   responses,
		},
	}
	s.persist(ctx, rec)

	if err := s.snaps.Delete(ctx, att.key); err != nil {
		s.log.Warn().Err(err).Str("key", att.key).Msg("snapshot delete failed")
	}
	s.drop(att)

	s.log.Info().
		Str("key", att.key).
		Float64("score", breakdown.Score).
		Int("attempted", breakdown.Attempted).
		Int("total", breakdown.Total).
		Msg("attempt finished")

	return &ResultView{
		Key:       att.key,
		PaperID:   att.paperID,
		PaperName: att.paperName,
		Result:    breakdown,
		Responses: responses,
	}
}

// persist is best-effort: queue first, direct insert as fallback, then a
// log line. The result was already computed; losing the record must not
// fail the submit.
func (s *AttemptService) persist(ctx context.Context, rec *model.AttemptRecord) {
	if s.queue != nil {
		err := s.queue.Enqueue(ctx, rec)
		if err == nil {
			return
		}
		s.log.Warn().Err(err).Str("user", rec.UserID).Msg("score enqueue failed, trying direct insert")
	}
	if s.scores == nil {
		s.log.Warn().Str("user", rec.UserID).Msg("no score sink configured, record dropped")
		return
	}
	if _, err := s.scores.Insert(ctx, rec); err != nil {
		s.log.Error().Err(err).Str("user", rec.UserID).Str("paper", rec.Paper).Msg("score insert failed, record lost")
	}
}

func (s *AttemptService) drop(att *liveAttempt) {
	s.mu.Lock()
	if att.cancel != nil {
		att.cancel()
	}
	delete(s.live, att.key)
	s.mu.Unlock()
}

func (s *AttemptService) view(att *liveAttempt, resumed bool) *AttemptView {
	st := att.sess.State()
	questions := att.sess.Questions()
	views := make([]QuestionView, len(questions))
	for i, q := range questions {
		v := QuestionView{
			Key:        st.OrderKeys[i],
			Text:       q.Text,
			Options:    q.Options,
			Tags:       q.Tags,
			CorrectIdx: -1,
		}
		if st.Peeked[i] || st.Status == quiz.StatusFinished {
			v.CorrectIdx = q.AnswerIndex
			v.Explanation = q.Explanation
		}
		views[i] = v
	}
	return &AttemptView{
		Key:       att.key,
		PaperID:   att.paperID,
		PaperName: att.paperName,
		Mode:      string(att.mode),
		Randomize: att.randomize,
		Resumed:   resumed,
		State:     st,
		Questions: views,
	}
}

// parseKey splits an attempt key back into its parts. The paper id may
// itself contain ':', so the key is parsed from both ends: the first
// segment is the user (':' is rejected at bind time) and the last two are
// mode and the randomize flag.
func parseKey(key string) (userID, paperID string, mode model.Mode, randomize bool, ok bool) {
	first := strings.Index(key, ":")
	if first <= 0 {
		return "", "", "", false, false
	}
	rest := key[first+1:]

	last := strings.LastIndex(rest, ":")
	if last < 0 {
		return "", "", "", false, false
	}
	flag := rest[last+1:]
	if flag != "true" && flag != "false" {
		return "", "", "", false, false
	}
	rest = rest[:last]

	last = strings.LastIndex(rest, ":")
	if last <= 0 {
		return "", "", "", false, false
	}
	modeStr := rest[last+1:]
	switch model.Mode(modeStr) {
	case model.ModeEasy, model.ModeMedium, model.ModeHard, model.ModeCustom:
	default:
		return "", "", "", false, false
	}

	return key[:first], rest[:last], model.Mode(modeStr), flag == "true", true
}
