package model

import "time"

// AttemptRecord is the durable, append-only record of a finished attempt.
// Created exactly once at finish time and immutable thereafter.
type AttemptRecord struct {
	ID        int64       `json:"id"`
	UserID    string      `json:"userId"`
	Paper     string      `json:"paper"`
	Score     float64     `json:"score"`
	Meta      AttemptMeta `json:"meta"`
	Timestamp time.Time   `json:"timestamp"`
}

// AttemptMeta is the detail bag persisted alongside the score.
// Responses is stripped from list responses and only returned for a
// single-attempt lookup.
type AttemptMeta struct {
	Attempted   int              `json:"attempted"`
	Correct     int              `json:"correct"`
	Wrong       int              `json:"wrong"`
	Negative    float64          `json:"negative"`
	Total       int              `json:"total"`
	Mode        string           `json:"mode"`
	Randomize   bool             `json:"randomize"`
	DurationSec int              `json:"durationSec"`
	ElapsedSec  int              `json:"elapsedSec"`
	PaperName   string           `json:"paperName"`
	Responses   []ResponseDetail `json:"responses,omitempty"`
}

// ResponseDetail records one question's outcome for the review screen.
// SelectedIdx uses -1 for "not answered" so the JSON encoding never
// depends on a null being preserved.
type ResponseDetail struct {
	Key         string `json:"key"`
	ID          string `json:"id,omitempty"`
	SelectedIdx int    `json:"selectedIdx"`
	CorrectIdx  int    `json:"correctIdx"`
	Peeked      bool   `json:"peeked"`
	Bookmarked  bool   `json:"bookmarked"`
}

// StartAttemptRequest begins (or resumes) a session for one paper.
// UserID must not contain ':' because it participates in the attempt key.
type StartAttemptRequest struct {
	UserID    string `json:"userId" binding:"required,min=1,max=100,excludes=:"`
	PaperID   string `json:"paperId" binding:"required,min=1,max=200"`
	Mode      string `json:"mode" binding:"omitempty,oneof=easy medium hard custom"`
	Minutes   int    `json:"minutes" binding:"omitempty,min=1,max=180"`
	Randomize bool   `json:"randomize"`
}

// AnswerRequest selects an option on the current question.
type AnswerRequest struct {
	OptionIndex int `json:"optionIndex" binding:"min=0"`
}

// NavigateRequest moves the current question cursor.
type NavigateRequest struct {
	Op    string `json:"op" binding:"required,oneof=next prev jump"`
	Index int    `json:"index" binding:"omitempty,min=0"`
}

// SearchRequest runs or cycles an in-session search.
type SearchRequest struct {
	Query string `json:"query" binding:"required,min=1,max=200"`
	Dir   string `json:"dir" binding:"omitempty,oneof=next prev"`
}
