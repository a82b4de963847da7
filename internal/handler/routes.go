package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"laptopadvisor/internal/service"
)

// RouteOptions holds the limits applied to API routes
type RouteOptions struct {
	MaxUploadBytes int64
	RecommendRPS   float64
	RecommendBurst int
	TrainRPS       float64
	TrainBurst     int
}

// RegisterRoutes mounts the v1 API on r
func RegisterRoutes(r gin.IRouter, svc *service.RecommendationService, opts RouteOptions, logger zerolog.Logger) {
	recommendHandler := NewRecommendHandler(svc)
	catalogHandler := NewCatalogHandler(svc, opts.MaxUploadBytes)
	trainingHandler := NewTrainingHandler(svc, logger)
	feedbackHandler := NewFeedbackHandler(svc)

	recommendLimit := RateLimit(opts.RecommendRPS, opts.RecommendBurst, "recommend")
	trainLimit := RateLimit(opts.TrainRPS, opts.TrainBurst, "train")

	apiV1 := r.Group("/api/v1")
	{
		// Recommendation endpoints
		apiV1.POST("/recommend", recommendLimit, recommendHandler.Recommend)
		apiV1.POST("/recommend/stream", recommendLimit, recommendHandler.RecommendStream)
		apiV1.GET("/presets", recommendHandler.ListPresets)
		apiV1.GET("/presets/:name/recommend", recommendLimit, recommendHandler.RecommendPreset)

		// Catalog endpoints
		apiV1.POST("/catalog", trainLimit, catalogHandler.Ingest)
		apiV1.GET("/catalog/stats", catalogHandler.Stats)
		apiV1.GET("/laptops/:id", catalogHandler.GetLaptop)
		apiV1.GET("/laptops/:id/similar", catalogHandler.Similar)

		// Model endpoints
		apiV1.POST("/model/train", trainLimit, trainingHandler.Train)
		apiV1.GET("/model/status", trainingHandler.Status)

		// Feedback endpoint
		apiV1.POST("/feedback", feedbackHandler.Submit)
	}
}
