package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/tracklab/studio-api/internal/middleware"
	"github.com/tracklab/studio-api/internal/model"
	"github.com/tracklab/studio-api/internal/service"
	"github.com/tracklab/studio-api/pkg/response"
)

type StudioHandler struct {
	service      *service.StudioService
	trackService *service.TrackService
	validator    *validator.Validate
}

func NewStudioHandler(svc *service.StudioService, trackService *service.TrackService, v *validator.Validate) *StudioHandler {
	return &StudioHandler{
		service:      svc,
		trackService: trackService,
		validator:    v,
	}
}

// CreateSession handles POST /api/studio/sessions
// @Summary      Open a studio session
// @Description  Open a studio session for a track and start watching its realtime events
// @Tags         Studio
// @Accept       json
// @Produce      json
// @Param        request body model.CreateSessionRequest true "Session request"
// @Success      201 {object} model.SessionResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/studio/sessions [post]
func (h *StudioHandler) CreateSession(c *fiber.Ctx) error {
	var req model.CreateSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	session, err := h.service.CreateSession(middleware.GetUserID(c), req.TrackID)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.Created(c, &model.SessionResponse{
		SessionID: session.ID,
		TrackID:   session.TrackID,
	})
}

// CloseSession handles DELETE /api/studio/sessions/:sessionId
// @Summary      Close a studio session
// @Description  Stop the session's event subscription and discard its state
// @Tags         Studio
// @Produce      json
// @Param        sessionId path string true "Session ID"
// @Success      204
// @Failure      404 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/studio/sessions/{sessionId} [delete]
func (h *StudioHandler) CloseSession(c *fiber.Ctx) error {
	if err := h.service.CloseSession(c.Params("sessionId")); err != nil {
		return response.NotFound(c, "Session not found")
	}
	return response.NoContent(c)
}

// GetModal handles GET /api/studio/sessions/:sessionId/modal
// @Summary      Get modal state
// @Tags         Studio
// @Produce      json
// @Param        sessionId path string true "Session ID"
// @Success      200 {object} model.ModalStateResponse
// @Failure      404 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/studio/sessions/{sessionId}/modal [get]
func (h *StudioHandler) GetModal(c *fiber.Ctx) error {
	session, err := h.service.GetSession(c.Params("sessionId"))
	if err != nil {
		return response.NotFound(c, "Session not found")
	}

	state := session.Modal.State()
	return response.OK(c, &model.ModalStateResponse{
		Type:    state.Type,
		Payload: state.Payload,
	})
}

// OpenModal handles PUT /api/studio/sessions/:sessionId/modal
// @Summary      Open a modal
// @Description  Open a modal, replacing whichever modal was open before
// @Tags         Studio
// @Accept       json
// @Produce      json
// @Param        sessionId path string true "Session ID"
// @Param        request body model.OpenModalRequest true "Modal to open"
// @Success      200 {object} model.ModalStateResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/studio/sessions/{sessionId}/modal [put]
func (h *StudioHandler) OpenModal(c *fiber.Ctx) error {
	session, err := h.service.GetSession(c.Params("sessionId"))
	if err != nil {
		return response.NotFound(c, "Session not found")
	}

	var req model.OpenModalRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if !req.Type.IsValid() {
		return response.ValidationError(c, "Unknown modal type", nil)
	}

	session.Modal.Open(req.Type, req.Payload)

	state := session.Modal.State()
	return response.OK(c, &model.ModalStateResponse{
		Type:    state.Type,
		Payload: state.Payload,
	})
}

// CloseModal handles DELETE /api/studio/sessions/:sessionId/modal
// @Summary      Close the open modal
// @Tags         Studio
// @Produce      json
// @Param        sessionId path string true "Session ID"
// @Success      204
// @Failure      404 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/studio/sessions/{sessionId}/modal [delete]
func (h *StudioHandler) CloseModal(c *fiber.Ctx) error {
	session, err := h.service.GetSession(c.Params("sessionId"))
	if err != nil {
		return response.NotFound(c, "Session not found")
	}

	session.Modal.Close()
	return response.NoContent(c)
}

// GetEditor handles GET /api/studio/sessions/:sessionId/editor
// @Summary      Get section editor state
// @Tags         Studio
// @Produce      json
// @Param        sessionId path string true "Session ID"
// @Success      200 {object} studio.EditorState
// @Failure      404 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/studio/sessions/{sessionId}/editor [get]
func (h *StudioHandler) GetEditor(c *fiber.Ctx) error {
	session, err := h.service.GetSession(c.Params("sessionId"))
	if err != nil {
		return response.NotFound(c, "Session not found")
	}

	// The bridge records completions with only the fields the event
	// carries; the pre-edit audio URL and section bounds are filled in
	// here from track state.
	state := session.Editor.State()
	if state.LatestCompletion != nil && state.LatestCompletion.OriginalAudioURL == "" {
		if snapshot, err := h.trackService.GetSnapshot(c.Context(), session.TrackID); err == nil {
			for _, track := range snapshot.Tracks {
				if track.Type == model.TrackTypeOriginal && track.AudioURL != "" {
					if err := h.service.CompleteFromTrack(session.ID, track.AudioURL, state.CustomRange); err == nil {
						state = session.Editor.State()
					}
					break
				}
			}
		}
	}
	return response.OK(c, state)
}

// SelectSection handles POST /api/studio/sessions/:sessionId/editor/section
// @Summary      Select a detected section for editing
// @Tags         Studio
// @Accept       json
// @Produce      json
// @Param        sessionId path string true "Session ID"
// @Param        request body model.SelectSectionRequest true "Section and its index"
// @Success      200 {object} studio.EditorState
// @Failure      400 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/studio/sessions/{sessionId}/editor/section [post]
func (h *StudioHandler) SelectSection(c *fiber.Ctx) error {
	session, err := h.service.GetSession(c.Params("sessionId"))
	if err != nil {
		return response.NotFound(c, "Session not found")
	}

	var req model.SelectSectionRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	session.Editor.SelectSection(req.Section, req.Index)
	return response.OK(c, session.Editor.State())
}

// SetCustomRange handles POST /api/studio/sessions/:sessionId/editor/range
// @Summary      Set an ad-hoc replacement range
// @Tags         Studio
// @Accept       json
// @Produce      json
// @Param        sessionId path string true "Session ID"
// @Param        request body model.CustomRangeRequest true "Range bounds"
// @Success      200 {object} studio.EditorState
// @Failure      400 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/studio/sessions/{sessionId}/editor/range [post]
func (h *StudioHandler) SetCustomRange(c *fiber.Ctx) error {
	session, err := h.service.GetSession(c.Params("sessionId"))
	if err != nil {
		return response.NotFound(c, "Session not found")
	}

	var req model.CustomRangeRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	session.Editor.SetCustomRange(req.Start, req.End)
	return response.OK(c, session.Editor.State())
}

// UpdateFields handles PATCH /api/studio/sessions/:sessionId/editor/fields
// @Summary      Update editor text fields
// @Description  Update lyrics, prompt and style tags; omitted fields are unchanged
// @Tags         Studio
// @Accept       json
// @Produce      json
// @Param        sessionId path string true "Session ID"
// @Param        request body model.EditorFieldsRequest true "Fields to update"
// @Success      200 {object} studio.EditorState
// @Failure      400 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/studio/sessions/{sessionId}/editor/fields [patch]
func (h *StudioHandler) UpdateFields(c *fiber.Ctx) error {
	session, err := h.service.GetSession(c.Params("sessionId"))
	if err != nil {
		return response.NotFound(c, "Session not found")
	}

	var req model.EditorFieldsRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	if req.Lyrics != nil {
		session.Editor.SetEditedLyrics(*req.Lyrics)
	}
	if req.Prompt != nil {
		session.Editor.SetPrompt(*req.Prompt)
	}
	if req.Tags != nil {
		session.Editor.SetTags(*req.Tags)
	}

	return response.OK(c, session.Editor.State())
}

// ClearSelection handles DELETE /api/studio/sessions/:sessionId/editor/selection
// @Summary      Clear the current selection
// @Description  Clear the selected section, range, lyrics and prompt; style tags are kept
// @Tags         Studio
// @Produce      json
// @Param        sessionId path string true "Session ID"
// @Success      200 {object} studio.EditorState
// @Failure      404 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/studio/sessions/{sessionId}/editor/selection [delete]
func (h *StudioHandler) ClearSelection(c *fiber.Ctx) error {
	session, err := h.service.GetSession(c.Params("sessionId"))
	if err != nil {
		return response.NotFound(c, "Session not found")
	}

	session.Editor.ClearSelection()
	return response.OK(c, session.Editor.State())
}

// ResetEditor handles POST /api/studio/sessions/:sessionId/editor/reset
// @Summary      Reset the section editor
// @Description  Return the editor to its initial state, dropping any completion
// @Tags         Studio
// @Produce      json
// @Param        sessionId path string true "Session ID"
// @Success      200 {object} studio.EditorState
// @Failure      404 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/studio/sessions/{sessionId}/editor/reset [post]
func (h *StudioHandler) ResetEditor(c *fiber.Ctx) error {
	session, err := h.service.GetSession(c.Params("sessionId"))
	if err != nil {
		return response.NotFound(c, "Session not found")
	}

	session.Editor.Reset()
	return response.OK(c, session.Editor.State())
}
