// ABOUTME: Monitor wire message definitions
// ABOUTME: JSON envelope and status payload shared by the server and the watch client
package monitor

import (
	"github.com/Resonate-Protocol/noisemaker-go/pkg/engine"
)

// Message types
const (
	TypeStatus = "engine/status"
	TypeError  = "engine/error"
)

// Message is the top-level wrapper for all monitor messages
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Status is the payload of an engine/status message and the /status response
type Status struct {
	Name    string       `json:"name"`
	Product string       `json:"product"`
	Version string       `json:"version"`
	Uptime  float64      `json:"uptime"`
	Engine  engine.Stats `json:"engine"`
	Error   string       `json:"last_error,omitempty"`
}

// ErrorReport is the payload of an engine/error message
type ErrorReport struct {
	Message string  `json:"message"`
	Time    float64 `json:"time"`
}
