package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/paperdrill/paperdrill-backend/internal/model"
	"github.com/paperdrill/paperdrill-backend/internal/quiz"
	"github.com/paperdrill/paperdrill-backend/internal/response"
	"github.com/paperdrill/paperdrill-backend/internal/service"
	"github.com/paperdrill/paperdrill-backend/internal/validator"
)

type AttemptHandler struct {
	attemptService *service.AttemptService
}

func NewAttemptHandler(attemptService *service.AttemptService) *AttemptHandler {
	return &AttemptHandler{attemptService: attemptService}
}

// StartAttempt godoc
// POST /api/v1/attempts
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	var req model.StartAttemptRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	view, err := h.attemptService.Start(c.Request.Context(), &req)
	if err != nil {
		failAttempt(c, err)
		return
	}
	status := http.StatusCreated
	if view.Resumed {
		status = http.StatusOK
	}
	response.Success(c, status, view)
}

// GetState godoc
// GET /api/v1/attempts/:key/state
func (h *AttemptHandler) GetState(c *gin.Context) {
	view, err := h.attemptService.State(c.Request.Context(), c.Param("key"))
	if err != nil {
		failAttempt(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// Answer godoc
// POST /api/v1/attempts/:key/answer
func (h *AttemptHandler) Answer(c *gin.Context) {
	var req model.AnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	view, result, err := h.attemptService.Answer(c.Request.Context(), c.Param("key"), req.OptionIndex)
	h.eventResponse(c, view, result, err)
}

// Peek godoc
// POST /api/v1/attempts/:key/peek
func (h *AttemptHandler) Peek(c *gin.Context) {
	view, result, err := h.attemptService.Peek(c.Request.Context(), c.Param("key"))
	h.eventResponse(c, view, result, err)
}

// Bookmark godoc
// POST /api/v1/attempts/:key/bookmark
func (h *AttemptHandler) Bookmark(c *gin.Context) {
	view, result, err := h.attemptService.Bookmark(c.Request.Context(), c.Param("key"))
	h.eventResponse(c, view, result, err)
}

// Navigate godoc
// POST /api/v1/attempts/:key/navigate
func (h *AttemptHandler) Navigate(c *gin.Context) {
	var req model.NavigateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	view, result, err := h.attemptService.Navigate(c.Request.Context(), c.Param("key"), req.Op, req.Index)
	h.eventResponse(c, view, result, err)
}

// Search godoc
// POST /api/v1/attempts/:key/search
func (h *AttemptHandler) Search(c *gin.Context) {
	var req model.SearchRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	if req.Dir == "" && len(req.Query) < quiz.MinQueryLen {
		response.Fail(c, http.StatusBadRequest, response.ErrQueryTooShort)
		return
	}
	st, err := h.attemptService.Search(c.Request.Context(), c.Param("key"), req.Query, req.Dir)
	if err != nil {
		failAttempt(c, err)
		return
	}
	response.Success(c, http.StatusOK, st)
}

// Submit godoc
// POST /api/v1/attempts/:key/submit
func (h *AttemptHandler) Submit(c *gin.Context) {
	result, err := h.attemptService.Submit(c.Request.Context(), c.Param("key"))
	if err != nil {
		failAttempt(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// eventResponse sends whichever of view/result an event produced. An
// event that finishes the attempt answers with the scored result instead
// of a state view.
func (h *AttemptHandler) eventResponse(c *gin.Context, view *service.AttemptView, result *service.ResultView, err error) {
	if err != nil {
		failAttempt(c, err)
		return
	}
	if result != nil {
		response.Success(c, http.StatusOK, gin.H{"finished": true, "result": result})
		return
	}
	response.Success(c, http.StatusOK, view)
}

// failAttempt maps attempt flow errors onto the response taxonomy.
func failAttempt(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAttemptNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrAttemptNotFound)
	case errors.Is(err, quiz.ErrFinished):
		response.Fail(c, http.StatusConflict, response.ErrAttemptFinished)
	case errors.Is(err, quiz.ErrNoQuestions):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrNoQuestions)
	case errors.Is(err, quiz.ErrOptionOutOfRange):
		response.Fail(c, http.StatusBadRequest, response.ErrOptionOutOfRange)
	case errors.Is(err, quiz.ErrIndexOutOfRange):
		response.Fail(c, http.StatusBadRequest, response.ErrIndexOutOfRange)
	case errors.Is(err, service.ErrPaperNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrPaperNotFound)
	case errors.Is(err, service.ErrPaperFetchFailed):
		response.Fail(c, http.StatusBadGateway, response.ErrPaperFetchFailed)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
