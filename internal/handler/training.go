package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"laptopadvisor/internal/logging"
	"laptopadvisor/internal/service"
)

// TrainingHandler handles model training and status requests
type TrainingHandler struct {
	svc    *service.RecommendationService
	logger zerolog.Logger
}

// NewTrainingHandler creates a new training handler
func NewTrainingHandler(svc *service.RecommendationService, logger zerolog.Logger) *TrainingHandler {
	return &TrainingHandler{
		svc:    svc,
		logger: logging.Component(logger, "training_handler"),
	}
}

// Train handles POST /api/v1/model/train
//
// By default the request waits for the run to finish. With async=true the run
// continues in the background, detached from the request, and 202 is returned.
func (h *TrainingHandler) Train(c *gin.Context) {
	async, _ := strconv.ParseBool(c.DefaultQuery("async", "false"))
	if async {
		if h.svc.Status().IsTraining {
			respondError(c, service.ErrConcurrentTraining)
			return
		}
		go func() {
			if _, err := h.svc.Train(context.Background()); err != nil {
				h.logger.Warn().Err(err).Msg("background training failed")
			}
		}()
		c.JSON(http.StatusAccepted, gin.H{"message": "Training started", "state": h.svc.State()})
		return
	}

	run, err := h.svc.Train(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"training": run, "state": h.svc.State()})
}

// Status handles GET /api/v1/model/status
func (h *TrainingHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Status())
}
