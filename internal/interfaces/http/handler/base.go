package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/katanaluca/backend/internal/domain/shared"
	"github.com/katanaluca/backend/internal/interfaces/http/dto"
)

// RequestIDKey is the context key for the request ID
const RequestIDKey = "X-Request-ID"

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := c.GetString(RequestIDKey); id != "" {
		return id
	}
	return c.GetHeader(RequestIDKey)
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error response with an explicit status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponse(code, message, getRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// HandleError maps a domain error onto the response envelope
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) && !errors.Is(err, shared.ErrPassInFlight) {
		h.Error(c, http.StatusUnprocessableEntity, domainErr.Code, domainErr.Message)
		return
	}

	code := dto.CodeForError(err)
	message := err.Error()
	if code == dto.ErrCodeInternal {
		// internal details stay in the logs
		message = "an unexpected error occurred"
	}
	h.Error(c, dto.GetHTTPStatus(code), code, message)
}
