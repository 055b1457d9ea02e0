package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/paperdrill/paperdrill-backend/internal/config"
	"github.com/paperdrill/paperdrill-backend/internal/snapshot"
)

func newPaperFixture(t *testing.T, files map[string]string) *PaperService {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	cfg := &config.Config{PapersDir: dir, PaperCacheTTL: time.Minute}
	return NewPaperService(cfg, nil, snapshot.NewMemoryStore(), zerolog.Nop())
}

const paperJSON = `{
  "name": "Physics Set 1",
  "questions": [
    {"text": "q1", "options": ["a", "b", "c", "d"], "answerIndex": 0},
    {"text": "q2", "options": ["a", "b"], "answerIndex": 1},
    {"text": "broken", "options": ["a", "b"], "answerIndex": 9}
  ]
}`

func TestQuestionsFromFile(t *testing.T) {
	ctx := context.Background()
	svc := newPaperFixture(t, map[string]string{"physics-1.json": paperJSON})

	name, questions, err := svc.Questions(ctx, "physics-1")
	if err != nil {
		t.Fatalf("questions: %v", err)
	}
	if name != "Physics Set 1" {
		t.Errorf("name = %q", name)
	}
	// The out-of-range item is dropped, the valid two survive.
	if len(questions) != 2 {
		t.Fatalf("got %d questions, want 2", len(questions))
	}
}

func TestQuestionsBareArrayFile(t *testing.T) {
	ctx := context.Background()
	svc := newPaperFixture(t, map[string]string{
		"raw.json": `[{"text": "q", "options": ["a", "b"], "answerIndex": 1}]`,
	})

	name, questions, err := svc.Questions(ctx, "raw")
	if err != nil {
		t.Fatalf("questions: %v", err)
	}
	if name != "raw" {
		t.Errorf("name should fall back to the id, got %q", name)
	}
	if len(questions) != 1 {
		t.Fatalf("got %d questions, want 1", len(questions))
	}
}

func TestQuestionsNotFound(t *testing.T) {
	ctx := context.Background()
	svc := newPaperFixture(t, nil)

	if _, _, err := svc.Questions(ctx, "missing"); !errors.Is(err, ErrPaperNotFound) {
		t.Errorf("err = %v, want ErrPaperNotFound", err)
	}
}

func TestQuestionsRejectsPathTraversal(t *testing.T) {
	ctx := context.Background()
	svc := newPaperFixture(t, nil)

	for _, id := range []string{"../etc/passwd", "a/b", ".hidden"} {
		if _, _, err := svc.Questions(ctx, id); !errors.Is(err, ErrPaperNotFound) {
			t.Errorf("id %q: err = %v, want ErrPaperNotFound", id, err)
		}
	}
}

func TestQuestionsServedFromCache(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "p.json")
	if err := os.WriteFile(path, []byte(paperJSON), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg := &config.Config{PapersDir: dir, PaperCacheTTL: time.Minute}
	svc := NewPaperService(cfg, nil, snapshot.NewMemoryStore(), zerolog.Nop())

	if _, _, err := svc.Questions(ctx, "p"); err != nil {
		t.Fatalf("first load: %v", err)
	}

	// Delete the file; the cached copy must still answer.
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	name, questions, err := svc.Questions(ctx, "p")
	if err != nil {
		t.Fatalf("cached load: %v", err)
	}
	if name != "Physics Set 1" || len(questions) != 2 {
		t.Errorf("cache returned name=%q n=%d", name, len(questions))
	}
}

func TestListFilePapers(t *testing.T) {
	ctx := context.Background()
	svc := newPaperFixture(t, map[string]string{
		"b.json":   `{"name": "Bravo", "questions": []}`,
		"a.json":   `[]`,
		"skip.txt": "not a paper",
	})

	papers, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(papers) != 2 {
		t.Fatalf("got %d papers, want 2", len(papers))
	}
	if papers[0].ID != "a" || papers[1].ID != "b" {
		t.Errorf("ids = %q, %q", papers[0].ID, papers[1].ID)
	}
	if papers[1].Name != "Bravo" {
		t.Errorf("name = %q, want Bravo", papers[1].Name)
	}
	if papers[0].Source != "file" {
		t.Errorf("source = %q, want file", papers[0].Source)
	}
}

func TestCommunityUnavailableWithoutDatabase(t *testing.T) {
	ctx := context.Background()
	svc := newPaperFixture(t, nil)

	if _, _, err := svc.Questions(ctx, "db:p_abc"); !errors.Is(err, ErrCommunityUnavailable) {
		t.Errorf("err = %v, want ErrCommunityUnavailable", err)
	}
}

func TestNewPaperIDShape(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := newPaperID()
		if len(id) < 3 || id[:2] != "p_" {
			t.Fatalf("bad id %q", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}
