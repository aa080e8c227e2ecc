// Package handler provides HTTP request handlers for the inventory API.
package handler

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// MessageResponse is the body of operations that report only an outcome.
type MessageResponse struct {
	Message string `json:"message"`
}

// PhotoResponse is the body of a successful photo replacement.
type PhotoResponse struct {
	ID       string  `json:"id"`
	PhotoURL *string `json:"photo_url"`
	Message  string  `json:"message"`
}

// ErrorResponse is the JSON error body for the item-oriented routes.
type ErrorResponse struct {
	Error string `json:"error"`
}
