package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"laptopadvisor/internal/ingest"
	"laptopadvisor/internal/service"
)

// statusForError maps service errors to HTTP status codes
func statusForError(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidQuery),
		errors.Is(err, service.ErrInvalidFeedback),
		errors.Is(err, ingest.ErrNoHeader):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrLaptopNotFound),
		errors.Is(err, service.ErrUnknownRequest):
		return http.StatusNotFound
	case errors.Is(err, service.ErrNotReady),
		errors.Is(err, service.ErrConcurrentTraining):
		return http.StatusConflict
	case errors.Is(err, service.ErrTrainingFailure),
		errors.Is(err, service.ErrEmptyCatalog):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return 499 // client closed request
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the error as a JSON body with its mapped status
func respondError(c *gin.Context, err error) {
	c.JSON(statusForError(err), gin.H{"error": err.Error()})
}
