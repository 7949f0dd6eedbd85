package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/najah-ai/learner-service/internal/services"
	"github.com/najah-ai/learner-service/internal/utils"
)

// ===== COMMON RESPONSE STRUCTURES =====

// ErrorResponse represents an error response
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ===== BASE HANDLER STRUCT =====

// BaseHandler provides common logging functionality for all handlers
type BaseHandler struct {
	logger utils.Logger
}

// NewBaseHandler creates a new base handler with logging capability
func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{
		logger: logger,
	}
}

// LogRequest logs incoming HTTP requests with context information
func (h *BaseHandler) LogRequest(c *gin.Context, message string, additionalFields ...interface{}) {
	fields := append([]interface{}{"remote_addr", c.ClientIP()}, additionalFields...)
	h.requestLogger(c).Info(message, fields...)
}

// LogError logs error details with context information
func (h *BaseHandler) LogError(c *gin.Context, err error, message string, additionalFields ...interface{}) {
	h.requestLogger(c).LogError(err, message, additionalFields...)
}

// LogWarn logs warning messages with context
func (h *BaseHandler) LogWarn(c *gin.Context, message string, additionalFields ...interface{}) {
	h.requestLogger(c).Warn(message, additionalFields...)
}

func (h *BaseHandler) requestLogger(c *gin.Context) utils.Logger {
	return utils.LoggerFromContext(c, h.logger).With("user_id", c.GetString(contextUserID))
}

// RespondWithError sends a consistent error response and logs it
func (h *BaseHandler) RespondWithError(c *gin.Context, statusCode int, message string, err error, details ...interface{}) {
	errorResp := ErrorResponse{
		Message: message,
	}

	if len(details) > 0 {
		errorResp.Details = details[0]
	}

	switch {
	case err != nil && statusCode >= http.StatusInternalServerError:
		h.LogError(c, err, message, "status_code", statusCode)
	case err != nil:
		h.LogWarn(c, message, "status_code", statusCode, "error_type", services.FormatError(err)["type"])
	default:
		h.LogWarn(c, message, "status_code", statusCode)
	}

	c.AbortWithStatusJSON(statusCode, errorResp)
}

// handleServiceError maps service errors onto HTTP status codes.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var (
		validationErrs services.ValidationErrors
		permErr        *services.PermissionError
		businessErr    *services.BusinessRuleError
	)

	switch {
	case errors.As(err, &validationErrs):
		h.RespondWithError(c, http.StatusBadRequest, "Validation failed", err, validationErrs)
	case errors.Is(err, services.ErrInvalidSubject):
		h.RespondWithError(c, http.StatusBadRequest, "Invalid subject", err, err.Error())
	case services.IsValidation(err):
		h.RespondWithError(c, http.StatusBadRequest, "Validation failed", err, err.Error())
	case errors.Is(err, services.ErrInvalidRequester), errors.Is(err, services.ErrUnauthorized):
		h.RespondWithError(c, http.StatusUnauthorized, "User not authenticated", err)
	case errors.As(err, &permErr):
		h.RespondWithError(c, http.StatusForbidden, "Access denied", err, ErrorResponse{
			Message: permErr.Reason,
			Code:    permErr.Action,
		})
	case services.IsUnauthorized(err):
		h.RespondWithError(c, http.StatusForbidden, "Access denied", err)
	case services.IsNotFound(err):
		h.RespondWithError(c, http.StatusNotFound, "Resource not found", err, err.Error())
	case errors.As(err, &businessErr):
		h.RespondWithError(c, http.StatusUnprocessableEntity, businessErr.Message, err, businessErr.Context)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		h.RespondWithError(c, http.StatusServiceUnavailable, "Request cancelled", err)
	default:
		h.RespondWithError(c, http.StatusInternalServerError, "Internal server error", err)
	}
}

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck reports liveness, and database reachability when db is set.
func HealthCheck(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := http.StatusOK
		body := gin.H{
			"status":  "healthy",
			"service": "learner-service",
			"time":    time.Now().UTC().Format(time.RFC3339),
		}

		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "unhealthy"
				body["database"] = err.Error()
			} else {
				body["database"] = "ok"
			}
		}

		c.JSON(status, body)
	}
}
