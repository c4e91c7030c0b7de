package websocket

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/satriahrh/voiceover/domain/entities"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Supported message types
const (
	MessageTypeRunSnapshot  MessageType = "run_snapshot"
	MessageTypeRunProgress  MessageType = "run_progress"
	MessageTypeRunCompleted MessageType = "run_completed"
	MessageTypePing         MessageType = "ping"
	MessageTypePong         MessageType = "pong"
	MessageTypeError        MessageType = "error"
)

// BaseMessage defines the common structure for all WebSocket messages
type BaseMessage struct {
	Type      MessageType `json:"type"`
	Timestamp string      `json:"timestamp"`
	MessageID string      `json:"message_id,omitempty"`
}

// RunMessage carries a full snapshot of a run along with its progress counters
type RunMessage struct {
	BaseMessage
	RunID   string        `json:"run_id"`
	Run     *entities.Run `json:"run"`
	Settled int           `json:"settled"`
	Failed  int           `json:"failed"`
	Total   int           `json:"total"`
}

// PingMessage represents a ping message for connection health check
type PingMessage struct {
	BaseMessage
	Data string `json:"data,omitempty"`
}

// PongMessage represents a pong response
type PongMessage struct {
	BaseMessage
	Data string `json:"data,omitempty"`
}

// ErrorMessage represents an error response
type ErrorMessage struct {
	BaseMessage
	Code    string `json:"error_code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// MessageValidator provides validation for WebSocket messages
type MessageValidator struct{}

// NewMessageValidator creates a new message validator
func NewMessageValidator() *MessageValidator {
	return &MessageValidator{}
}

// ValidateMessage validates an incoming message.
// Listeners only ever send pings; everything else is rejected.
func (v *MessageValidator) ValidateMessage(messageBytes []byte) (interface{}, error) {
	var base BaseMessage
	if err := json.Unmarshal(messageBytes, &base); err != nil {
		return nil, fmt.Errorf("invalid JSON format: %w", err)
	}

	switch base.Type {
	case MessageTypePing:
		var msg PingMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid ping message: %w", err)
		}
		if msg.Timestamp == "" {
			msg.Timestamp = time.Now().Format(time.RFC3339)
		}
		return &msg, nil

	case "":
		return nil, fmt.Errorf("message type is required")

	default:
		return nil, fmt.Errorf("unsupported message type: %s", base.Type)
	}
}

// CreateRunMessage wraps a run snapshot. The type is run_completed once the run has finished.
func CreateRunMessage(msgType MessageType, run *entities.Run) *RunMessage {
	if !run.IsRunning() {
		msgType = MessageTypeRunCompleted
	}
	settled, failed, total := run.Progress()
	return &RunMessage{
		BaseMessage: BaseMessage{
			Type:      msgType,
			Timestamp: time.Now().Format(time.RFC3339),
		},
		RunID:   run.ID,
		Run:     run,
		Settled: settled,
		Failed:  failed,
		Total:   total,
	}
}

// CreateErrorMessage creates a standardized error message
func CreateErrorMessage(code, message, details string) *ErrorMessage {
	return &ErrorMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeError,
			Timestamp: time.Now().Format(time.RFC3339),
		},
		Code:    code,
		Message: message,
		Details: details,
	}
}

// CreatePongMessage creates a pong response message
func CreatePongMessage(data string) *PongMessage {
	return &PongMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypePong,
			Timestamp: time.Now().Format(time.RFC3339),
		},
		Data: data,
	}
}
