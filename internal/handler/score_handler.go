package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/paperdrill/paperdrill-backend/internal/response"
	"github.com/paperdrill/paperdrill-backend/internal/service"
)

type ScoreHandler struct {
	scoreService *service.ScoreService
}

func NewScoreHandler(scoreService *service.ScoreService) *ScoreHandler {
	return &ScoreHandler{scoreService: scoreService}
}

// ListScores godoc
// GET /api/v1/scores?userId=&after=
func (h *ScoreHandler) ListScores(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
			map[string]string{"userId": "userId is required"})
		return
	}

	var after int64
	if raw := c.Query("after"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
			return
		}
		after = parsed
	}

	records, err := h.scoreService.List(c.Request.Context(), userID, after)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"scores": records})
}

// GetScore godoc
// GET /api/v1/scores/:id
func (h *ScoreHandler) GetScore(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	rec, err := h.scoreService.Get(c.Request.Context(), id)
	if errors.Is(err, service.ErrScoreNotFound) {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, rec)
}
