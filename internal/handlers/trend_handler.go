package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/najah-ai/learner-service/internal/services"
	"github.com/najah-ai/learner-service/internal/utils"
)

type TrendHandler struct {
	BaseHandler
	trendService services.TrendService
}

func NewTrendHandler(trendService services.TrendService, logger utils.Logger) *TrendHandler {
	return &TrendHandler{
		BaseHandler:  NewBaseHandler(logger),
		trendService: trendService,
	}
}

// GetStudentTrend analyzes the student's progress over the window
// @Summary Student trend
// @Tags trends
// @Produce json
// @Param student_id path string true "Student ID"
// @Param subject query string false "Subject key, all subjects when empty"
// @Param target_level query int false "Target level (1-10)"
// @Param window_days query int false "Days of history to analyze"
// @Success 200 {object} services.TrendReport
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /students/{student_id}/trend [get]
func (h *TrendHandler) GetStudentTrend(c *gin.Context) {
	studentID := ParseStringIDParam(c, "student_id")
	if studentID == "" {
		return
	}

	var req services.TrendRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid query parameters", err, err.Error())
		return
	}

	requester, ok := requesterFromContext(c)
	if !ok {
		return
	}

	report, err := h.trendService.GetStudentTrend(c.Request.Context(), requester, studentID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// GetDailyProgress returns the per-day series with overall statistics
// @Summary Daily progress
// @Tags trends
// @Produce json
// @Param student_id path string true "Student ID"
// @Param subject query string false "Subject key"
// @Param from query string false "First day (YYYY-MM-DD)"
// @Param to query string false "Last day (YYYY-MM-DD)"
// @Success 200 {object} services.ProgressReport
// @Router /students/{student_id}/progress [get]
func (h *TrendHandler) GetDailyProgress(c *gin.Context) {
	studentID := ParseStringIDParam(c, "student_id")
	if studentID == "" {
		return
	}

	var req services.ProgressRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid query parameters", err, err.Error())
		return
	}

	requester, ok := requesterFromContext(c)
	if !ok {
		return
	}

	progress, err := h.trendService.GetDailyProgress(c.Request.Context(), requester, studentID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}

// ExportTrend downloads the trend report as a spreadsheet
// @Summary Export trend
// @Tags trends
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param student_id path string true "Student ID"
// @Param subject query string false "Subject key"
// @Success 200 {file} file
// @Router /students/{student_id}/trend/export [get]
func (h *TrendHandler) ExportTrend(c *gin.Context) {
	studentID := ParseStringIDParam(c, "student_id")
	if studentID == "" {
		return
	}

	h.LogRequest(c, "Exporting trend", "student_id", studentID)

	var req services.TrendRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid query parameters", err, err.Error())
		return
	}

	requester, ok := requesterFromContext(c)
	if !ok {
		return
	}

	file, err := h.trendService.ExportTrend(c.Request.Context(), requester, studentID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, file.FileName))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

// GetClassOverview analyzes a group of students at once
// @Summary Class overview
// @Description Teachers and admins only. Students the caller cannot access are reported with an error.
// @Tags trends
// @Accept json
// @Produce json
// @Param overview body services.ClassOverviewRequest true "Students and parameters"
// @Success 200 {object} services.ClassOverview
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /classes/overview [post]
func (h *TrendHandler) GetClassOverview(c *gin.Context) {
	var req services.ClassOverviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}

	h.LogRequest(c, "Building class overview", "students", len(req.StudentIDs))

	requester, ok := requesterFromContext(c)
	if !ok {
		return
	}

	overview, err := h.trendService.GetClassOverview(c.Request.Context(), requester, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, overview)
}
