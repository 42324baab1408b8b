package gpt

import (
	"github.com/google/uuid"
)

// GenerationRequest is the single outbound call made for one upload.
type GenerationRequest struct {
	RequestID   uuid.UUID `json:"request_id"`
	Prompt      string    `json:"prompt"`
	Model       string    `json:"model"`
	Temperature float32   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	Count       int       `json:"count"`
}
