package server

import (
	"encoding/json"
	"time"
)

// MessageType identifies a websocket message
type MessageType string

const (
	// Client to server messages. Each carries LabelsData, except
	// next_round and shuffle which carry nothing.
	MessageTypeDraw      MessageType = "draw"
	MessageTypeSeen      MessageType = "seen"
	MessageTypeUnsee     MessageType = "unsee"
	MessageTypeSetRound  MessageType = "round"
	MessageTypeObserve   MessageType = "observe"
	MessageTypeNextRound MessageType = "next_round"
	MessageTypeShuffle   MessageType = "shuffle"

	// Server to client messages
	MessageTypeAdvice MessageType = "advice"
	MessageTypeError  MessageType = "error"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}

// Message is the websocket envelope
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage marshals data into a message stamped with now
func NewMessage(messageType MessageType, data any, now time.Time) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: now,
	}, nil
}

// LabelsData is the body of every card-carrying request, over HTTP or websocket
type LabelsData struct {
	Labels []string `json:"labels"`
}

// ErrorData describes a rejected request
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
