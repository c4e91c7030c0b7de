package api

import "github.com/satriahrh/voiceover/domain/entities"

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// HealthResponse represents the health check payload
type HealthResponse struct {
	Status   string `json:"status"`
	Service  string `json:"service"`
	Provider string `json:"provider"`
	Running  bool   `json:"running"`
}

// VoicesResponse lists the selectable voices
type VoicesResponse struct {
	Voices []entities.Voice `json:"voices"`
}

// ParseSlidesRequest represents the request payload for slide parsing
type ParseSlidesRequest struct {
	Text string `json:"text"`
}

// SlidesResponse holds the slide texts derived from an input
type SlidesResponse struct {
	Slides []string `json:"slides"`
}

// UploadResponse represents the response payload for a text file upload
type UploadResponse struct {
	FileName string   `json:"file_name"`
	Text     string   `json:"text"`
	Slides   []string `json:"slides"`
}

// StartRunRequest represents the request payload for starting a generation run
type StartRunRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
}
