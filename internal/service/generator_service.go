package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/paperdrill/paperdrill-backend/internal/config"
	"github.com/paperdrill/paperdrill-backend/internal/model"
	"github.com/paperdrill/paperdrill-backend/internal/quiz"
)

var (
	// ErrGeneratorDisabled means no generation endpoint is configured.
	ErrGeneratorDisabled = errors.New("generator disabled")
	// ErrGeneratorFailed wraps transport and malformed-output failures.
	ErrGeneratorFailed = errors.New("generator failed")
)

// GeneratorService proxies question generation to an external model
// endpoint. Its output is candidate material for the client to review,
// never stored directly; everything passes through the same validator as
// paper files.
type GeneratorService struct {
	cfg    *config.Config
	client *http.Client
	log    zerolog.Logger
}

func NewGeneratorService(cfg *config.Config, log zerolog.Logger) *GeneratorService {
	return &GeneratorService{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.GeneratorTimeout},
		log:    log.With().Str("component", "generator_service").Logger(),
	}
}

// Enabled reports whether an endpoint is configured.
func (s *GeneratorService) Enabled() bool {
	return s.cfg.GeneratorURL != ""
}

type generatorRequest struct {
	Prompt      string `json:"prompt"`
	ImageBase64 string `json:"imageBase64,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
	Count       int    `json:"count,omitempty"`
}

type generatorResponse struct {
	Text string `json:"text"`
}

// Generate calls the endpoint and returns validated candidate questions.
func (s *GeneratorService) Generate(ctx context.Context, req *model.GenerateRequest) ([]model.Question, error) {
	if !s.Enabled() {
		return nil, ErrGeneratorDisabled
	}

	body, err := json.Marshal(generatorRequest{
		Prompt:      req.Prompt,
		ImageBase64: req.ImageBase64,
		MimeType:    req.MimeType,
		Count:       req.Count,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeneratorFailed, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.GeneratorURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeneratorFailed, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if s.cfg.GeneratorAPIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+s.cfg.GeneratorAPIKey)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeneratorFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeneratorFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		s.log.Warn().Int("status", resp.StatusCode).Msg("generator endpoint returned non-200")
		return nil, fmt.Errorf("%w: status %d", ErrGeneratorFailed, resp.StatusCode)
	}

	text := string(raw)
	var gr generatorResponse
	if err := json.Unmarshal(raw, &gr); err == nil && gr.Text != "" {
		text = gr.Text
	}

	questions := quiz.Normalize([]byte(ExtractJSON(text)))
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: no valid questions in output", ErrGeneratorFailed)
	}

	s.log.Info().Int("questions", len(questions)).Msg("questions generated")
	return questions, nil
}

// ExtractJSON pulls a JSON document out of model output. A fenced code
// block wins; otherwise the substring from the first '[' or '{' to the
// matching end of the text is used as-is.
func ExtractJSON(text string) string {
	if fenced, ok := extractFenced(text); ok {
		return fenced
	}
	arr := strings.Index(text, "[")
	obj := strings.Index(text, "{")
	start := arr
	if start < 0 || (obj >= 0 && obj < start) {
		start = obj
	}
	if start < 0 {
		return text
	}
	end := strings.LastIndex(text, "]")
	if text[start] == '{' {
		end = strings.LastIndex(text, "}")
	}
	if end <= start {
		return text[start:]
	}
	return text[start : end+1]
}

func extractFenced(text string) (string, bool) {
	open := strings.Index(text, "```")
	if open < 0 {
		return "", false
	}
	rest := text[open+3:]
	// Skip a language tag like "json" on the opening fence line.
	if nl := strings.Index(rest, "\n"); nl >= 0 {
		rest = rest[nl+1:]
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}
