package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"

	"laptopadvisor/internal/model"
	"laptopadvisor/internal/service"
)

// RecommendHandler handles recommendation HTTP requests
type RecommendHandler struct {
	svc *service.RecommendationService
}

// NewRecommendHandler creates a new recommendation handler
func NewRecommendHandler(svc *service.RecommendationService) *RecommendHandler {
	return &RecommendHandler{svc: svc}
}

// Recommend handles POST /api/v1/recommend
func (h *RecommendHandler) Recommend(c *gin.Context) {
	var req model.RecommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	response, err := h.svc.Recommend(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// RecommendStream handles POST /api/v1/recommend/stream - SSE streaming recommendation
func (h *RecommendHandler) RecommendStream(c *gin.Context) {
	var req model.RecommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	// Reject before switching to SSE so the status code is meaningful
	if _, err := service.ValidateQuery(req.Query); err != nil {
		respondError(c, err)
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Streaming not supported"})
		return
	}

	// Set SSE headers
	c.Header("Content-Type", "text/event-stream; charset=utf-8")
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	sendSSE(c, "start", map[string]any{"query": req.Query, "top_k": req.TopK})
	flusher.Flush()

	response, err := h.svc.RecommendStream(c.Request.Context(), &req, func(event string, data any) error {
		sendSSE(c, event, data)
		flusher.Flush()
		return c.Request.Context().Err()
	})
	if err != nil {
		sendSSE(c, "error", map[string]any{"error": err.Error(), "status": statusForError(err)})
		flusher.Flush()
		return
	}

	sendSSE(c, "results", response)
	sendSSE(c, "done", nil)
	flusher.Flush()
}

// sendSSE sends a Server-Sent Event
func sendSSE(c *gin.Context, event string, data any) {
	if data == nil {
		fmt.Fprintf(c.Writer, "event: %s\ndata: {}\n\n", event)
		return
	}
	jsonData, err := json.Marshal(data)
	if err != nil {
		fmt.Fprintf(c.Writer, "event: error\ndata: {\"error\": \"JSON marshal failed\"}\n\n")
		return
	}
	fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event, jsonData)
}

// ListPresets handles GET /api/v1/presets
func (h *RecommendHandler) ListPresets(c *gin.Context) {
	presets := make([]gin.H, len(model.Presets))
	for i, p := range model.Presets {
		presets[i] = gin.H{
			"name":        p.Name,
			"slug":        p.Slug(),
			"description": p.Description,
			"query":       p.Query,
		}
	}
	c.JSON(http.StatusOK, gin.H{"presets": presets})
}

// RecommendPreset handles GET /api/v1/presets/:name/recommend
func (h *RecommendHandler) RecommendPreset(c *gin.Context) {
	preset, ok := model.FindPreset(c.Param("name"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Preset not found"})
		return
	}

	topK, err := strconv.Atoi(c.DefaultQuery("top_k", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid top_k"})
		return
	}

	response, err := h.svc.Recommend(c.Request.Context(), &model.RecommendRequest{
		Query: preset.Query.Slice(),
		TopK:  topK,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"preset": preset.Name, "recommendations": response})
}
