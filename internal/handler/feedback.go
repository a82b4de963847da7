package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"laptopadvisor/internal/model"
	"laptopadvisor/internal/service"
)

// FeedbackHandler handles feedback-related HTTP requests
type FeedbackHandler struct {
	svc *service.RecommendationService
}

// NewFeedbackHandler creates a new feedback handler
func NewFeedbackHandler(svc *service.RecommendationService) *FeedbackHandler {
	return &FeedbackHandler{
		svc: svc,
	}
}

// Submit handles POST /api/v1/feedback
func (h *FeedbackHandler) Submit(c *gin.Context) {
	var req model.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	if err := h.svc.LogFeedback(c.Request.Context(), &req); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.FeedbackResponse{
		Success: true,
		Message: "Feedback logged successfully",
	})
}
