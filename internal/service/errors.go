package service

import "errors"

var (
	// ErrTrainingFailure is returned when a training run cannot produce a model
	ErrTrainingFailure = errors.New("training failed")
	// ErrNotReady is returned when a query arrives before a model is published
	ErrNotReady = errors.New("recommendation service is not ready")
	// ErrConcurrentTraining is returned when training is requested while a run is in progress
	ErrConcurrentTraining = errors.New("training already in progress")
	// ErrInvalidQuery is returned for malformed preference vectors
	ErrInvalidQuery = errors.New("invalid query")
	// ErrEmptyCatalog is returned when no valid laptops are available
	ErrEmptyCatalog = errors.New("catalog has no valid laptops")
	// ErrLaptopNotFound is returned for an unknown laptop ID
	ErrLaptopNotFound = errors.New("laptop not found")
	// ErrInvalidFeedback is returned for an unsupported feedback action
	ErrInvalidFeedback = errors.New("invalid feedback")
	// ErrUnknownRequest is returned when feedback references a request that was never logged
	ErrUnknownRequest = errors.New("unknown recommendation request")
)
