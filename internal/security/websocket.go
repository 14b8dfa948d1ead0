package security

import (
	"github.com/coder/websocket"

	"github.com/jhalickman/live-poll/internal/models"
)

// Inbound command type validation
var validCommandTypes = map[string]bool{
	models.MsgTypeJoin:                 true,
	models.MsgTypeChangeActiveQuestion: true,
	models.MsgTypeChangeStatus:         true,
	models.MsgTypeSubmitVote:           true,
}

// IsValidCommandType checks if an inbound message type is a known
// command. Server-emitted event types are not accepted inbound.
func IsValidCommandType(msgType string) bool {
	return validCommandTypes[msgType]
}

// OriginValidator validates WebSocket connection origins.
type OriginValidator struct {
	allowedPatterns []string
}

// NewOriginValidator creates a new origin validator.
func NewOriginValidator(patterns []string) *OriginValidator {
	return &OriginValidator{
		allowedPatterns: patterns,
	}
}

// GetAcceptOptions returns websocket.AcceptOptions with origin patterns.
func (ov *OriginValidator) GetAcceptOptions() *websocket.AcceptOptions {
	return &websocket.AcceptOptions{
		OriginPatterns: ov.allowedPatterns,
	}
}
