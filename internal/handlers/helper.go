package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/najah-ai/learner-service/internal/models"
	"github.com/najah-ai/learner-service/internal/services"
	"github.com/najah-ai/learner-service/internal/utils"
)

func ParseStringIDParam(c *gin.Context, param string) string {
	idStr := c.Param(param)
	idStr = strings.TrimSpace(idStr)
	if idStr == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: "ID cannot be empty",
		})
		return ""
	}
	return idStr
}

// requesterFromContext builds the service-level caller from what AuthMiddleware stored.
// It writes a 401 and returns false when the request is not authenticated.
func requesterFromContext(c *gin.Context) (services.Requester, bool) {
	userID := c.GetString(contextUserID)
	role, _ := c.Get(contextUserRole)
	userRole, _ := role.(models.UserRole)

	if userID == "" || !userRole.IsValid() {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return services.Requester{}, false
	}

	return services.Requester{
		ID:        userID,
		Role:      userRole,
		IPAddress: c.ClientIP(),
		RequestID: utils.GetRequestID(c),
	}, true
}
