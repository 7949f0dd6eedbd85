package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/najah-ai/learner-service/internal/services"
	"github.com/najah-ai/learner-service/internal/utils"
)

type AbilityHandler struct {
	BaseHandler
	abilityService services.AbilityService
}

func NewAbilityHandler(abilityService services.AbilityService, logger utils.Logger) *AbilityHandler {
	return &AbilityHandler{
		BaseHandler:    NewBaseHandler(logger),
		abilityService: abilityService,
	}
}

// RecordResponse records one answer and updates the student's ability estimate
// @Summary Record response
// @Description Applies a correct or incorrect answer to the student's ability in a subject
// @Tags abilities
// @Accept json
// @Produce json
// @Param student_id path string true "Student ID"
// @Param subject path string true "Subject key"
// @Param response body services.RecordResponseRequest true "Answer data"
// @Success 201 {object} services.RecordResponseResult
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /students/{student_id}/abilities/{subject}/responses [post]
func (h *AbilityHandler) RecordResponse(c *gin.Context) {
	studentID := ParseStringIDParam(c, "student_id")
	if studentID == "" {
		return
	}
	subject := c.Param("subject")

	h.LogRequest(c, "Recording response", "student_id", studentID, "subject", subject)

	var req services.RecordResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}

	requester, ok := requesterFromContext(c)
	if !ok {
		return
	}

	result, err := h.abilityService.RecordResponse(c.Request.Context(), requester, studentID, subject, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// ListAbilities lists the student's ability in every subject
// @Summary List abilities
// @Tags abilities
// @Produce json
// @Param student_id path string true "Student ID"
// @Success 200 {array} services.AbilityResponse
// @Failure 403 {object} ErrorResponse
// @Router /students/{student_id}/abilities [get]
func (h *AbilityHandler) ListAbilities(c *gin.Context) {
	studentID := ParseStringIDParam(c, "student_id")
	if studentID == "" {
		return
	}

	requester, ok := requesterFromContext(c)
	if !ok {
		return
	}

	abilities, err := h.abilityService.ListAbilities(c.Request.Context(), requester, studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, abilities)
}

// GetAbility returns the student's ability in one subject
// @Summary Get ability
// @Tags abilities
// @Produce json
// @Param student_id path string true "Student ID"
// @Param subject path string true "Subject key"
// @Success 200 {object} services.AbilityResponse
// @Failure 404 {object} ErrorResponse
// @Router /students/{student_id}/abilities/{subject} [get]
func (h *AbilityHandler) GetAbility(c *gin.Context) {
	studentID := ParseStringIDParam(c, "student_id")
	if studentID == "" {
		return
	}

	requester, ok := requesterFromContext(c)
	if !ok {
		return
	}

	ability, err := h.abilityService.GetAbility(c.Request.Context(), requester, studentID, c.Param("subject"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ability)
}

// GetNextDifficulty returns the difficulty to target with the next exercise
// @Summary Next difficulty
// @Tags abilities
// @Produce json
// @Param student_id path string true "Student ID"
// @Param subject path string true "Subject key"
// @Success 200 {object} services.NextDifficultyResponse
// @Router /students/{student_id}/abilities/{subject}/next-difficulty [get]
func (h *AbilityHandler) GetNextDifficulty(c *gin.Context) {
	studentID := ParseStringIDParam(c, "student_id")
	if studentID == "" {
		return
	}

	requester, ok := requesterFromContext(c)
	if !ok {
		return
	}

	next, err := h.abilityService.GetNextDifficulty(c.Request.Context(), requester, studentID, c.Param("subject"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, next)
}

// ResetAbility discards the student's estimate in a subject
// @Summary Reset ability
// @Description Teachers and admins only. The next response starts from the initial estimate.
// @Tags abilities
// @Param student_id path string true "Student ID"
// @Param subject path string true "Subject key"
// @Success 200 {object} SuccessResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /students/{student_id}/abilities/{subject} [delete]
func (h *AbilityHandler) ResetAbility(c *gin.Context) {
	studentID := ParseStringIDParam(c, "student_id")
	if studentID == "" {
		return
	}
	subject := c.Param("subject")

	h.LogRequest(c, "Resetting ability", "student_id", studentID, "subject", subject)

	requester, ok := requesterFromContext(c)
	if !ok {
		return
	}

	if err := h.abilityService.ResetAbility(c.Request.Context(), requester, studentID, subject); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Ability reset"})
}

// SimulateSession replays a list of answers without storing anything
// @Summary Simulate session
// @Tags abilities
// @Accept json
// @Produce json
// @Param session body services.SimulateSessionRequest true "Initial state and answers"
// @Success 200 {object} services.SimulationResult
// @Failure 400 {object} ErrorResponse
// @Router /abilities/simulate [post]
func (h *AbilityHandler) SimulateSession(c *gin.Context) {
	var req services.SimulateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}

	result, err := h.abilityService.SimulateSession(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
