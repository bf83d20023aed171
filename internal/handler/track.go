package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/tracklab/studio-api/internal/model"
	"github.com/tracklab/studio-api/internal/service"
	"github.com/tracklab/studio-api/internal/studio"
	"github.com/tracklab/studio-api/pkg/response"
)

type TrackHandler struct {
	trackService   *service.TrackService
	sectionService *service.SectionService
	validator      *validator.Validate
}

func NewTrackHandler(trackService *service.TrackService, sectionService *service.SectionService, v *validator.Validate) *TrackHandler {
	return &TrackHandler{
		trackService:   trackService,
		sectionService: sectionService,
		validator:      v,
	}
}

// CreateProject handles POST /api/projects
// @Summary      Create a project
// @Description  Create a project around one uploaded or generated track
// @Tags         Projects
// @Accept       json
// @Produce      json
// @Param        request body model.CreateProjectRequest true "Project request"
// @Success      201 {object} model.ProjectResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/projects [post]
func (h *TrackHandler) CreateProject(c *fiber.Ctx) error {
	var req model.CreateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	result, err := h.trackService.CreateProject(c.Context(), &req)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.Created(c, result)
}

// GetProject handles GET /api/projects/:projectId
// @Summary      Get a project
// @Tags         Projects
// @Produce      json
// @Param        projectId path string true "Project ID"
// @Success      200 {object} model.ProjectResponse
// @Failure      404 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/projects/{projectId} [get]
func (h *TrackHandler) GetProject(c *fiber.Ctx) error {
	snapshot, err := h.trackService.GetSnapshot(c.Context(), c.Params("projectId"))
	if err != nil {
		if err == service.ErrProjectNotFound {
			return response.NotFound(c, "Project not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, &model.ProjectResponse{
		ProjectID: snapshot.ProjectID,
		Tracks:    snapshot.Tracks,
	})
}

// AddTrack handles POST /api/projects/:projectId/tracks
// @Summary      Add a track to a project
// @Tags         Projects
// @Accept       json
// @Produce      json
// @Param        projectId path string true "Project ID"
// @Param        request body model.AddTrackRequest true "Track to add"
// @Success      201 {object} model.Track
// @Failure      400 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/projects/{projectId}/tracks [post]
func (h *TrackHandler) AddTrack(c *fiber.Ctx) error {
	var req model.AddTrackRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	track, err := h.trackService.AddTrack(c.Context(), c.Params("projectId"), &req)
	if err != nil {
		if err == service.ErrProjectNotFound {
			return response.NotFound(c, "Project not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.Created(c, track)
}

// GetLocks handles GET /api/projects/:projectId/locks
// @Summary      Get operation locks
// @Description  Get which studio operations are currently blocked for a project and why
// @Tags         Projects
// @Produce      json
// @Param        projectId path string true "Project ID"
// @Success      200 {object} studio.LockState
// @Failure      404 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/projects/{projectId}/locks [get]
func (h *TrackHandler) GetLocks(c *fiber.Ctx) error {
	snapshot, err := h.trackService.GetSnapshot(c.Context(), c.Params("projectId"))
	if err != nil {
		if err == service.ErrProjectNotFound {
			return response.NotFound(c, "Project not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, studio.Evaluate(snapshot))
}

// CheckOperation handles GET /api/projects/:projectId/locks/:operation
// @Summary      Check one operation
// @Tags         Projects
// @Produce      json
// @Param        projectId path string true "Project ID"
// @Param        operation path string true "Operation name"
// @Success      200 {object} model.OperationCheckResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/projects/{projectId}/locks/{operation} [get]
func (h *TrackHandler) CheckOperation(c *fiber.Ctx) error {
	op := model.Operation(c.Params("operation"))
	if !op.IsValid() {
		return response.ValidationError(c, "Unknown operation", nil)
	}

	snapshot, err := h.trackService.GetSnapshot(c.Context(), c.Params("projectId"))
	if err != nil {
		if err == service.ErrProjectNotFound {
			return response.NotFound(c, "Project not found")
		}
		return response.ServiceError(c, err.Error())
	}

	lock := studio.Evaluate(snapshot)
	return response.OK(c, &model.OperationCheckResponse{
		Operation: op,
		Allowed:   lock.IsOperationAllowed(op),
		Reason:    lock.BlockReason(op),
	})
}

// GetSections handles GET /api/projects/:projectId/sections
// @Summary      Get detected sections
// @Description  Get the cached section analysis for a project's original track
// @Tags         Sections
// @Produce      json
// @Param        projectId path string true "Project ID"
// @Success      200 {object} model.SectionsResponse
// @Failure      404 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/projects/{projectId}/sections [get]
func (h *TrackHandler) GetSections(c *fiber.Ctx) error {
	result, err := h.sectionService.GetSections(c.Context(), c.Params("projectId"))
	if err != nil {
		if err == service.ErrProjectNotFound {
			return response.NotFound(c, "Project not found")
		}
		return response.ServiceError(c, err.Error())
	}
	return response.OK(c, result)
}

// AnalyzeSections handles POST /api/projects/:projectId/sections/analyze
// @Summary      Analyze track sections
// @Description  Run section detection against the project's original track and cache the result
// @Tags         Sections
// @Produce      json
// @Param        projectId path string true "Project ID"
// @Success      200 {object} model.SectionsResponse
// @Failure      404 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/projects/{projectId}/sections/analyze [post]
func (h *TrackHandler) AnalyzeSections(c *fiber.Ctx) error {
	result, err := h.sectionService.Analyze(c.Context(), c.Params("projectId"))
	if err != nil {
		if err == service.ErrProjectNotFound {
			return response.NotFound(c, "Project not found")
		}
		return response.ServiceError(c, err.Error())
	}
	return response.OK(c, result)
}
