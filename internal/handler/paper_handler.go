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

type PaperHandler struct {
	paperService *service.PaperService
}

func NewPaperHandler(paperService *service.PaperService) *PaperHandler {
	return &PaperHandler{paperService: paperService}
}

// ListPapers godoc
// GET /api/v1/papers
func (h *PaperHandler) ListPapers(c *gin.Context) {
	papers, err := h.paperService.List(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if papers == nil {
		papers = []model.PaperInfo{}
	}
	response.Success(c, http.StatusOK, gin.H{"papers": papers})
}

// GetPaper godoc
// GET /api/v1/papers/:id
func (h *PaperHandler) GetPaper(c *gin.Context) {
	name, questions, err := h.paperService.Questions(c.Request.Context(), c.Param("id"))
	if err != nil {
		failPaper(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"id":        c.Param("id"),
		"name":      name,
		"questions": questions,
	})
}

// CreatePaper godoc
// POST /api/v1/papers
func (h *PaperHandler) CreatePaper(c *gin.Context) {
	var req model.CreatePaperRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	info, err := h.paperService.Create(c.Request.Context(), &req)
	if errors.Is(err, quiz.ErrNoQuestions) {
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrNoQuestions)
		return
	}
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusCreated, info)
}

// failPaper maps paper load failures onto the response taxonomy.
func failPaper(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPaperNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrPaperNotFound)
	case errors.Is(err, service.ErrPaperFetchFailed):
		response.Fail(c, http.StatusBadGateway, response.ErrPaperFetchFailed)
	case errors.Is(err, quiz.ErrNoQuestions):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrNoQuestions)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
