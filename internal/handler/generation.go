package handler

import (
	"errors"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/tracklab/studio-api/internal/middleware"
	"github.com/tracklab/studio-api/internal/model"
	"github.com/tracklab/studio-api/internal/service"
	"github.com/tracklab/studio-api/pkg/response"
)

type GenerationHandler struct {
	service       *service.GenerationService
	studioService *service.StudioService
	validator     *validator.Validate
}

func NewGenerationHandler(svc *service.GenerationService, studioService *service.StudioService, v *validator.Validate) *GenerationHandler {
	return &GenerationHandler{
		service:       svc,
		studioService: studioService,
		validator:     v,
	}
}

// Submit handles POST /api/generation/:operation
// @Summary      Submit a generation operation
// @Description  Submit a studio operation (extend, replace_section, cover, add_vocals, add_instrumental, replace_instrumental, separate_stems) against a track. Blocked operations return 409.
// @Tags         Generation
// @Accept       json
// @Produce      json
// @Param        operation path string true "Operation name"
// @Param        request body model.GenerationRequest true "Generation request"
// @Success      202 {object} model.GenerationResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      409 {object} response.ErrorResponse
// @Failure      429 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/generation/{operation} [post]
func (h *GenerationHandler) Submit(c *fiber.Ctx) error {
	op := model.Operation(c.Params("operation"))
	if !op.IsValid() {
		return response.ValidationError(c, "Unknown operation", nil)
	}

	var req model.GenerationRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	result, err := h.service.Submit(c.Context(), middleware.GetUserID(c), op, &req)
	if err != nil {
		var locked *service.OperationLockedError
		if errors.As(err, &locked) {
			return response.OperationLocked(c, string(locked.Operation), locked.Reason)
		}
		if errors.Is(err, service.ErrProjectNotFound) {
			return response.NotFound(c, "Project not found")
		}
		return response.ServiceError(c, err.Error())
	}

	// A session submitting replace_section wants its completion routed
	// back into that session's editor.
	if req.SessionID != "" && op == model.OperationReplaceSection {
		if err := h.studioService.AttachTask(req.SessionID, result.TaskID); err != nil {
			log.Printf("Failed to attach task %s to session %s: %v", result.TaskID, req.SessionID, err)
		}
	}

	return response.Accepted(c, result)
}

// Status handles GET /api/generation/status/:taskId
// @Summary      Get generation task status
// @Tags         Generation
// @Produce      json
// @Param        taskId path string true "Task ID"
// @Success      200 {object} model.TaskStatusResponse
// @Failure      404 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/generation/status/{taskId} [get]
func (h *GenerationHandler) Status(c *fiber.Ctx) error {
	taskID := c.Params("taskId")
	if taskID == "" {
		return response.ValidationError(c, "Task ID is required", nil)
	}

	result, err := h.service.GetStatus(c.Context(), taskID)
	if err != nil {
		if errors.Is(err, service.ErrTaskNotFound) {
			return response.NotFound(c, "Task not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, result)
}
