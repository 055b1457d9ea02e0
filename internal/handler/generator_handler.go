package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/paperdrill/paperdrill-backend/internal/model"
	"github.com/paperdrill/paperdrill-backend/internal/response"
	"github.com/paperdrill/paperdrill-backend/internal/service"
	"github.com/paperdrill/paperdrill-backend/internal/validator"
)

type GeneratorHandler struct {
	generatorService *service.GeneratorService
}

func NewGeneratorHandler(generatorService *service.GeneratorService) *GeneratorHandler {
	return &GeneratorHandler{generatorService: generatorService}
}

// Generate godoc
// POST /api/v1/generate
func (h *GeneratorHandler) Generate(c *gin.Context) {
	var req model.GenerateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	if req.Prompt == "" && req.ImageBase64 == "" {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
			map[string]string{"prompt": "prompt or imageBase64 is required"})
		return
	}

	questions, err := h.generatorService.Generate(c.Request.Context(), &req)
	if errors.Is(err, service.ErrGeneratorDisabled) {
		response.Fail(c, http.StatusNotImplemented, response.ErrGeneratorDisabled)
		return
	}
	if err != nil {
		response.Fail(c, http.StatusBadGateway, response.ErrGeneratorFailed)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}
