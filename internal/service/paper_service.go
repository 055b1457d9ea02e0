package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	mathrand "math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/paperdrill/paperdrill-backend/internal/config"
	"github.com/paperdrill/paperdrill-backend/internal/model"
	"github.com/paperdrill/paperdrill-backend/internal/quiz"
	"github.com/paperdrill/paperdrill-backend/internal/repository"
	"github.com/paperdrill/paperdrill-backend/internal/snapshot"
)

var (
	// ErrPaperNotFound means the id resolves to no file and no stored paper.
	ErrPaperNotFound = errors.New("paper not found")
	// ErrPaperFetchFailed means the paper exists but could not be loaded.
	ErrPaperFetchFailed = errors.New("paper fetch failed")
	// ErrCommunityUnavailable means no database is wired for community papers.
	ErrCommunityUnavailable = errors.New("community papers unavailable")
)

// communityPrefix routes a paper id to the database instead of the
// papers directory.
const communityPrefix = "db:"

const defaultTenant = "public"

const communityListLimit = 200

// paperFile is the on-disk shape. A bare question array is also accepted,
// in which case the name falls back to the file name.
type paperFile struct {
	Name string `json:"name"`
}

// cachedPaper is the envelope stored in the question cache.
type cachedPaper struct {
	Name      string           `json:"name"`
	Questions []model.Question `json:"questions"`
}

// PaperService resolves paper ids to validated question sets. File papers
// come from a configurable directory, community papers from Postgres.
// Validated sets are cached with a jittered TTL; concurrent loads of the
// same paper are collapsed into one.
type PaperService struct {
	cfg   *config.Config
	repo  *repository.PaperRepository
	cache snapshot.Store
	sf    singleflight.Group
	log   zerolog.Logger
}

func NewPaperService(cfg *config.Config, repo *repository.PaperRepository, cache snapshot.Store, log zerolog.Logger) *PaperService {
	return &PaperService{
		cfg:   cfg,
		repo:  repo,
		cache: cache,
		log:   log.With().Str("component", "paper_service").Logger(),
	}
}

// List merges the file registry with stored community papers.
func (s *PaperService) List(ctx context.Context) ([]model.PaperInfo, error) {
	papers := s.listFiles()
	if s.repo == nil {
		return papers, nil
	}

	community, err := s.repo.List(ctx, defaultTenant, communityListLimit)
	if err != nil {
		// The file registry still works without the database.
		s.log.Warn().Err(err).Msg("community paper listing failed")
	}
	for _, p := range community {
		p.ID = communityPrefix + p.ID
		papers = append(papers, p)
	}
	return papers, nil
}

// Questions returns the paper's display name and validated question set.
func (s *PaperService) Questions(ctx context.Context, paperID string) (string, []model.Question, error) {
	cacheKey := config.CacheKey.PaperQuestionsKey(paperID)
	if raw, ok, err := s.cache.Get(ctx, cacheKey); err == nil && ok {
		var cp cachedPaper
		if err := json.Unmarshal(raw, &cp); err == nil && len(cp.Questions) > 0 {
			return cp.Name, cp.Questions, nil
		}
	}

	v, err, _ := s.sf.Do(paperID, func() (interface{}, error) {
		cp, err := s.load(ctx, paperID)
		if err != nil {
			return nil, err
		}
		if raw, err := json.Marshal(cp); err == nil {
			if err := s.cache.Set(ctx, cacheKey, raw, jitterTTL(s.cfg.PaperCacheTTL)); err != nil {
				s.log.Warn().Err(err).Str("paper", paperID).Msg("paper cache write failed")
			}
		}
		return cp, nil
	})
	if err != nil {
		return "", nil, err
	}
	cp := v.(*cachedPaper)
	return cp.Name, cp.Questions, nil
}

// Create validates and stores a community paper. Community submissions
// must use the canonical external shape: exactly four options per question.
func (s *PaperService) Create(ctx context.Context, req *model.CreatePaperRequest) (*model.PaperInfo, error) {
	if s.repo == nil {
		return nil, ErrCommunityUnavailable
	}
	raw, err := json.Marshal(req.Questions)
	if err != nil {
		return nil, fmt.Errorf("encode questions: %w", err)
	}
	questions := quiz.NormalizeStrict(raw)
	if len(questions) == 0 {
		return nil, quiz.ErrNoQuestions
	}

	tenant := req.Tenant
	if tenant == "" {
		tenant = defaultTenant
	}
	paper := &model.Paper{
		ID:        newPaperID(),
		Tenant:    tenant,
		Name:      strings.TrimSpace(req.Name),
		CreatedBy: req.UserID,
		Questions: questions,
	}
	if err := s.repo.Insert(ctx, paper); err != nil {
		return nil, fmt.Errorf("store paper: %w", err)
	}

	s.log.Info().
		Str("paper", paper.ID).
		Str("tenant", tenant).
		Int("questions", len(questions)).
		Msg("community paper created")

	return &model.PaperInfo{
		ID:            communityPrefix + paper.ID,
		Name:          paper.Name,
		Source:        "db",
		QuestionCount: len(questions),
		CreatedBy:     paper.CreatedBy,
	}, nil
}

func (s *PaperService) load(ctx context.Context, paperID string) (*cachedPaper, error) {
	if id, ok := strings.CutPrefix(paperID, communityPrefix); ok {
		if s.repo == nil {
			return nil, ErrCommunityUnavailable
		}
		paper, err := s.repo.GetByID(ctx, id)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaperNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPaperFetchFailed, err)
		}
		return &cachedPaper{Name: paper.Name, Questions: paper.Questions}, nil
	}
	return s.loadFile(paperID)
}

func (s *PaperService) loadFile(paperID string) (*cachedPaper, error) {
	// The id doubles as the file name; reject anything path-like.
	if paperID != filepath.Base(paperID) || strings.HasPrefix(paperID, ".") {
		return nil, ErrPaperNotFound
	}
	path := filepath.Join(s.cfg.PapersDir, paperID+".json")
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrPaperNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaperFetchFailed, err)
	}

	questions := quiz.Normalize(raw)
	name := paperID
	var pf paperFile
	if err := json.Unmarshal(raw, &pf); err == nil && pf.Name != "" {
		name = pf.Name
	}
	return &cachedPaper{Name: name, Questions: questions}, nil
}

// listFiles scans the papers directory. Missing or unreadable directories
// just yield an empty registry.
func (s *PaperService) listFiles() []model.PaperInfo {
	entries, err := os.ReadDir(s.cfg.PapersDir)
	if err != nil {
		s.log.Debug().Err(err).Str("dir", s.cfg.PapersDir).Msg("papers directory not readable")
		return nil
	}

	var papers []model.PaperInfo
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(e.Name(), ".json")
		name := id
		if raw, err := os.ReadFile(filepath.Join(s.cfg.PapersDir, e.Name())); err == nil {
			var pf paperFile
			if err := json.Unmarshal(raw, &pf); err == nil && pf.Name != "" {
				name = pf.Name
			}
		}
		papers = append(papers, model.PaperInfo{ID: id, Name: name, Source: "file"})
	}
	sort.Slice(papers, func(i, j int) bool { return papers[i].ID < papers[j].ID })
	return papers
}

// newPaperID generates a short url-safe id like "p_ia9Lz3Qw".
func newPaperID() string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("p_%d", time.Now().UnixNano())
	}
	return "p_" + base64.RawURLEncoding.EncodeToString(buf)
}

// jitterTTL spreads cache expiry by up to 10% so hot papers do not all
// refresh in the same instant.
func jitterTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return ttl
	}
	return ttl + time.Duration(mathrand.Int63n(int64(ttl)/10+1))
}
